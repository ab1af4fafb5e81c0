package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yourusername/ytdl-go/internal/domain"
	"github.com/yourusername/ytdl-go/internal/infrastructure"
	"go.uber.org/zap"
)

var (
	// ErrInvalidRequest is returned when a download request fails validation
	ErrInvalidRequest = errors.New("invalid download request")

	// ErrInvalidState is returned when an operation does not apply to the
	// download's current status
	ErrInvalidState = errors.New("invalid download state")

	errInterrupted = errors.New("interrupted")
)

// activeTask is a download that holds or waits for a task slot
type activeTask struct {
	task     domain.Task
	progress *ProgressPublisher
	cancel   context.CancelFunc

	// closed once the task owns a slot
	ready chan struct{}
}

// DownloadManager runs download tasks and keeps their records up to date
type DownloadManager struct {
	repo     domain.DownloadRepository
	newTask  domain.TaskFactory
	notifier *infrastructure.NotificationService
	config   *domain.DownloadConfig
	logger   *zap.Logger

	limit   int
	slotMu  sync.Mutex
	running int
	waiting []*activeTask

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	active  map[string]*activeTask
	retryMu sync.Mutex
}

// NewDownloadManager creates a new download manager
func NewDownloadManager(
	repo domain.DownloadRepository,
	newTask domain.TaskFactory,
	notifier *infrastructure.NotificationService,
	config *domain.DownloadConfig,
	logger *zap.Logger,
) *DownloadManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := config.ConcurrentLimit
	if limit < 1 {
		limit = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &DownloadManager{
		repo:     repo,
		newTask:  newTask,
		notifier: notifier,
		config:   config,
		logger:   logger,
		limit:    limit,
		ctx:      ctx,
		cancel:   cancel,
		active:   make(map[string]*activeTask),
	}
}

// RecoverInterrupted marks downloads a previous process left queued or
// processing as failed. It returns how many records were changed.
func (dm *DownloadManager) RecoverInterrupted() (int, error) {
	recovered := 0
	for _, status := range []domain.DownloadStatus{domain.StatusProcessing, domain.StatusQueued} {
		downloads, err := dm.repo.FindByStatus(status)
		if err != nil {
			return recovered, fmt.Errorf("failed to list %s downloads: %w", status, err)
		}

		for _, download := range downloads {
			dm.mu.RLock()
			_, live := dm.active[download.ID]
			dm.mu.RUnlock()
			if live {
				continue
			}

			download.MarkFailed(errInterrupted)
			if err := dm.repo.Update(download); err != nil {
				return recovered, fmt.Errorf("failed to update download: %w", err)
			}
			recovered++
		}
	}

	if recovered > 0 {
		dm.logger.Info("Marked interrupted downloads as failed", zap.Int("count", recovered))
	}
	return recovered, nil
}

// AddDownload validates and records a new download, then starts its task.
// The task waits in the queued state until a slot is free.
func (dm *DownloadManager) AddDownload(ctx context.Context, url, format string) (*domain.Download, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := dm.config.Request(url, format)
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	download := domain.NewDownload(req.URL, req.Format, req.OutputDir)
	if err := dm.repo.Create(download); err != nil {
		return nil, fmt.Errorf("failed to create download: %w", err)
	}

	dm.logger.Info("Download queued",
		zap.String("id", download.ID),
		zap.String("url", download.URL),
		zap.String("format", download.Format))
	dm.notifier.NotifyDownloadQueued(download.URL)

	snapshot := *download
	dm.start(download, req)
	return &snapshot, nil
}

// CancelDownload cancels a queued or running download
func (dm *DownloadManager) CancelDownload(id string) error {
	dm.mu.RLock()
	at, ok := dm.active[id]
	dm.mu.RUnlock()

	if ok {
		at.task.Cancel()
		at.cancel()
		dm.logger.Info("Download cancellation requested", zap.String("id", id))
		return nil
	}

	download, err := dm.findDownload(id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: download is %s", ErrInvalidState, download.Status)
}

// RetryDownload queues a failed or cancelled download again with a new task
func (dm *DownloadManager) RetryDownload(ctx context.Context, id string) (*domain.Download, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dm.retryMu.Lock()
	defer dm.retryMu.Unlock()

	download, err := dm.findDownload(id)
	if err != nil {
		return nil, err
	}
	if !download.CanRetry() || dm.isActive(id) {
		return nil, fmt.Errorf("%w: cannot retry a %s download", ErrInvalidState, download.Status)
	}

	download.Requeue()
	if err := dm.repo.Update(download); err != nil {
		return nil, fmt.Errorf("failed to update download: %w", err)
	}

	req := domain.NewDownloadRequest(
		download.URL,
		dm.config.YoutubeDLPath,
		dm.config.FFmpegPath,
		download.OutputDir,
		download.Format,
	)

	dm.logger.Info("Download queued for retry",
		zap.String("id", id),
		zap.Int("retry_count", download.RetryCount))

	snapshot := *download
	dm.start(download, req)
	return &snapshot, nil
}

// GetDownload returns a download by ID
func (dm *DownloadManager) GetDownload(id string) (*domain.Download, error) {
	return dm.findDownload(id)
}

// ListDownloads returns downloads matching the filters
func (dm *DownloadManager) ListDownloads(filters map[string]interface{}) ([]*domain.Download, error) {
	return dm.repo.FindAll(filters)
}

// GetStats returns download statistics
func (dm *DownloadManager) GetStats() (*domain.DownloadStats, error) {
	return dm.repo.GetStats()
}

// Progress returns the live progress of a download. The second result is
// false when the download has no task.
func (dm *DownloadManager) Progress(id string) (domain.ProgressState, bool) {
	dm.mu.RLock()
	at, ok := dm.active[id]
	dm.mu.RUnlock()

	if !ok {
		return domain.ProgressState{}, false
	}
	return at.progress.Snapshot(), true
}

// Subscribe streams the live progress of a download until its task finishes
func (dm *DownloadManager) Subscribe(id string) (<-chan domain.ProgressState, func(), error) {
	dm.mu.RLock()
	at, ok := dm.active[id]
	dm.mu.RUnlock()

	if !ok {
		return nil, nil, fmt.Errorf("%w: %s has no running task", domain.ErrDownloadNotFound, id)
	}
	ch, unsubscribe := at.progress.Subscribe()
	return ch, unsubscribe, nil
}

// DeleteDownload removes a finished download record
func (dm *DownloadManager) DeleteDownload(id string) error {
	download, err := dm.findDownload(id)
	if err != nil {
		return err
	}
	if download.IsActive() || dm.isActive(id) {
		return fmt.Errorf("%w: cannot delete a %s download", ErrInvalidState, download.Status)
	}

	if err := dm.repo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete download: %w", err)
	}

	dm.logger.Info("Download deleted", zap.String("id", id))
	return nil
}

// ActiveCount returns the number of downloads holding or waiting for a slot
func (dm *DownloadManager) ActiveCount() int {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return len(dm.active)
}

// Shutdown cancels every task and waits for them to finish or ctx to expire
func (dm *DownloadManager) Shutdown(ctx context.Context) error {
	dm.cancel()

	done := make(chan struct{})
	go func() {
		dm.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		dm.logger.Info("Download manager stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for downloads: %w", ctx.Err())
	}
}

func (dm *DownloadManager) start(download *domain.Download, req domain.DownloadRequest) {
	progress := NewProgressPublisher()
	ctx, cancel := context.WithCancel(dm.ctx)
	at := &activeTask{
		task:     dm.newTask(download.ID, req, progress),
		progress: progress,
		cancel:   cancel,
		ready:    make(chan struct{}),
	}

	dm.mu.Lock()
	dm.active[download.ID] = at
	dm.mu.Unlock()

	dm.enqueue(at)

	dm.wg.Add(1)
	go dm.run(ctx, download, at)
}

func (dm *DownloadManager) run(ctx context.Context, download *domain.Download, at *activeTask) {
	defer dm.wg.Done()
	defer at.cancel()

	select {
	case <-at.ready:
	case <-ctx.Done():
	}

	if ctx.Err() != nil {
		if !dm.dequeue(at) {
			dm.releaseSlot()
		}
		// never started, so there is no process to supervise
		outcome := domain.Cancelled()
		at.progress.Finish(outcome)
		dm.finish(download, at, outcome)
		return
	}
	defer dm.releaseSlot()

	download.MarkProcessing()
	if err := dm.repo.Update(download); err != nil {
		dm.logger.Error("Failed to update download status", zap.String("id", download.ID), zap.Error(err))
	}

	dm.logger.Info("Processing download",
		zap.String("id", download.ID),
		zap.String("url", download.URL))

	outcome := at.task.Run(ctx)
	dm.finish(download, at, outcome)
}

// enqueue grants a free slot right away or appends the task to the
// waiting list, which is served in arrival order
func (dm *DownloadManager) enqueue(at *activeTask) {
	dm.slotMu.Lock()
	defer dm.slotMu.Unlock()

	if dm.running < dm.limit {
		dm.running++
		close(at.ready)
		return
	}
	dm.waiting = append(dm.waiting, at)
}

// dequeue removes a task that gave up waiting. It returns false when the
// task was already granted a slot.
func (dm *DownloadManager) dequeue(at *activeTask) bool {
	dm.slotMu.Lock()
	defer dm.slotMu.Unlock()

	for i, w := range dm.waiting {
		if w == at {
			dm.waiting = append(dm.waiting[:i], dm.waiting[i+1:]...)
			return true
		}
	}
	return false
}

// releaseSlot hands the slot to the oldest waiting task or frees it
func (dm *DownloadManager) releaseSlot() {
	dm.slotMu.Lock()
	defer dm.slotMu.Unlock()

	if len(dm.waiting) > 0 {
		next := dm.waiting[0]
		dm.waiting[0] = nil
		dm.waiting = dm.waiting[1:]
		close(next.ready)
		return
	}
	dm.running--
}

func (dm *DownloadManager) finish(download *domain.Download, at *activeTask, outcome domain.TerminalOutcome) {
	title := at.progress.Snapshot().Title
	if title == download.URL {
		title = ""
	}
	download.ApplyOutcome(outcome, title)

	if err := dm.repo.Update(download); err != nil {
		dm.logger.Error("Failed to update download status", zap.String("id", download.ID), zap.Error(err))
	}

	dm.mu.Lock()
	delete(dm.active, download.ID)
	dm.mu.Unlock()

	fields := []zap.Field{
		zap.String("id", download.ID),
		zap.String("status", string(download.Status)),
		zap.String("message", download.Message),
	}
	if outcome.Kind == domain.OutcomeFailed {
		dm.logger.Warn("Download failed", fields...)
	} else {
		dm.logger.Info("Download finished", fields...)
	}

	dm.notifier.NotifyOutcome(download, outcome)
}

func (dm *DownloadManager) findDownload(id string) (*domain.Download, error) {
	download, err := dm.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, domain.ErrDownloadNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load download: %w", err)
	}
	if download == nil {
		return nil, domain.ErrDownloadNotFound
	}
	return download, nil
}

func (dm *DownloadManager) isActive(id string) bool {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	_, ok := dm.active[id]
	return ok
}
