package infrastructure

import (
	"bufio"
	"context"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/ytdl-go/internal/domain"
	"github.com/yourusername/ytdl-go/pkg/logger"
)

const (
	defaultTitleTimeout = 15 * time.Second
	maxLineBytes        = 1024 * 1024
)

// YTDLTask supervises one youtube-dl / yt-dlp process: it starts it, parses
// its merged stdout/stderr line by line and reports progress into a sink.
type YTDLTask struct {
	id           string
	req          domain.DownloadRequest
	sink         domain.ProgressSink
	resolver     domain.TitleResolver
	logger       *zap.Logger
	processLog   *logger.ProcessLog
	titleTimeout time.Duration

	cancelled atomic.Bool
	videoID   string
	state     *os.ProcessState
}

// TaskOption configures a YTDLTask
type TaskOption func(*YTDLTask)

// WithTaskID sets the id used in logs
func WithTaskID(id string) TaskOption {
	return func(t *YTDLTask) { t.id = id }
}

// WithTitleResolver enables the background title lookup
func WithTitleResolver(resolver domain.TitleResolver) TaskOption {
	return func(t *YTDLTask) { t.resolver = resolver }
}

// WithTitleTimeout bounds a single title lookup
func WithTitleTimeout(timeout time.Duration) TaskOption {
	return func(t *YTDLTask) {
		if timeout > 0 {
			t.titleTimeout = timeout
		}
	}
}

// WithLogger sets the structured logger
func WithLogger(log *zap.Logger) TaskOption {
	return func(t *YTDLTask) {
		if log != nil {
			t.logger = log
		}
	}
}

// WithProcessLog copies raw downloader output into a process log
func WithProcessLog(plog *logger.ProcessLog) TaskOption {
	return func(t *YTDLTask) { t.processLog = plog }
}

// NewYTDLTask creates a task for req that reports into sink
func NewYTDLTask(req domain.DownloadRequest, sink domain.ProgressSink, opts ...TaskOption) *YTDLTask {
	t := &YTDLTask{
		id:           uuid.New().String(),
		req:          req,
		sink:         sink,
		logger:       zap.NewNop(),
		titleTimeout: defaultTitleTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With(zap.String("task", t.id))
	return t
}

// NewYTDLTaskFactory returns a factory creating YTDLTasks with the shared opts
func NewYTDLTaskFactory(opts ...TaskOption) domain.TaskFactory {
	return func(id string, req domain.DownloadRequest, sink domain.ProgressSink) domain.Task {
		taskOpts := append([]TaskOption{WithTaskID(id)}, opts...)
		return NewYTDLTask(req, sink, taskOpts...)
	}
}

// Args returns the downloader arguments for this task's request
func (t *YTDLTask) Args() []string {
	args := make([]string, 0, 8)
	if t.req.FFmpegPath != "" {
		args = append(args, "--ffmpeg-location", t.req.FFmpegPath)
	}
	return append(args,
		"-o", t.req.OutputTemplate(),
		"-f", t.req.Format,
		"--newline",
		t.req.URL,
	)
}

// Cancel asks the task to stop. It is observed before the next output line
// is read, after which the process is killed.
func (t *YTDLTask) Cancel() {
	t.cancelled.Store(true)
}

// IsCancelled reports whether Cancel has been called
func (t *YTDLTask) IsCancelled() bool {
	return t.cancelled.Load()
}

// Run starts the downloader and supervises it until it ends. Cancelling ctx
// is equivalent to calling Cancel. Run may only be called once.
func (t *YTDLTask) Run(ctx context.Context) (outcome domain.TerminalOutcome) {
	stop := context.AfterFunc(ctx, t.Cancel)
	defer stop()

	defer func() {
		t.sink.Finish(outcome)
		t.logOutcome(outcome)
	}()

	t.sink.SetStage(domain.StageInitializing)
	t.sink.SetTitle(t.req.URL)

	args := t.Args()
	cmd := exec.Command(t.req.YoutubeDLBin, args...)
	setProcessGroup(cmd)

	plog := t.beginProcessLog(ShellEscapeCommand(t.req.YoutubeDLBin, args...))
	if plog != nil {
		defer func() { plog.End(outcome.Succeeded(), outcome.Message()) }()
	}

	// one pipe for both streams keeps the downloader's output ordering
	reader, writer, err := os.Pipe()
	if err != nil {
		return domain.Failed(domain.NewTaskError(domain.ErrStartFailure, err))
	}
	defer reader.Close()
	cmd.Stdout = writer
	cmd.Stderr = writer

	t.logger.Info("Starting downloader",
		zap.String("url", t.req.URL),
		zap.String("binary", t.req.YoutubeDLBin),
		zap.String("format", t.req.Format))

	if err := cmd.Start(); err != nil {
		writer.Close()
		return domain.Failed(domain.NewTaskError(domain.ErrStartFailure, err))
	}
	writer.Close()

	outcome = t.readLoop(reader, plog)

	if !outcome.Succeeded() {
		if err := killProcessGroup(cmd); err != nil {
			t.logger.Warn("Failed to kill downloader", zap.Error(err))
		}
	}
	if err := cmd.Wait(); err != nil && outcome.Succeeded() {
		t.logger.Warn("Downloader exited with error after clean output", zap.Error(err))
	}
	t.state = cmd.ProcessState
	return outcome
}

// ProcessState returns the reaped downloader's exit state after Run returned.
// It is nil if the process never started.
func (t *YTDLTask) ProcessState() *os.ProcessState {
	return t.state
}

func (t *YTDLTask) readLoop(reader *os.File, plog *logger.ProcessLogEntry) domain.TerminalOutcome {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	success := domain.Complete()
	for {
		if t.IsCancelled() {
			return domain.Cancelled()
		}
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		t.logger.Debug("downloader output", zap.String("line", line))
		if plog != nil {
			plog.Line(line)
		}

		ev := ParseLine(line)
		switch ev.Kind {
		case EventSourceIdentified:
			if t.videoID == "" {
				t.videoID = ev.ID
				t.resolveTitle(ev.ID)
			}
		case EventProgress:
			t.sink.SetStage(domain.StageDownloading)
			t.sink.SetPercent(ev.Percent)
			if ev.HasRate {
				if ev.Speed != "" {
					t.sink.SetSpeed(ev.Speed)
				}
				if ev.ETA != "" {
					t.sink.SetETA(ev.ETA)
				}
			}
		case EventAlreadyDownloaded:
			success = domain.AlreadyDownloaded()
		case EventFatalError:
			return domain.Failed(domain.UpstreamError(ev.Message))
		}
	}

	if err := scanner.Err(); err != nil {
		return domain.Failed(domain.NewTaskError(domain.ErrStreamRead, err))
	}
	if t.IsCancelled() {
		return domain.Cancelled()
	}
	return success
}

// resolveTitle looks the title up on its own goroutine and never blocks the
// read loop. The result may arrive after the task finished.
func (t *YTDLTask) resolveTitle(id string) {
	if t.resolver == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.titleTimeout)
		defer cancel()

		title, err := t.resolver.ResolveTitle(ctx, id)
		if err != nil {
			t.logger.Debug("Title lookup failed", zap.String("video_id", id), zap.Error(err))
			return
		}
		if title != "" {
			t.sink.SetTitle(title)
		}
	}()
}

func (t *YTDLTask) beginProcessLog(cmdLine string) *logger.ProcessLogEntry {
	if t.processLog == nil {
		return nil
	}
	entry, err := t.processLog.Begin(t.id, cmdLine)
	if err != nil {
		t.logger.Warn("Process log unavailable", zap.Error(err))
		return nil
	}
	return entry
}

func (t *YTDLTask) logOutcome(outcome domain.TerminalOutcome) {
	fields := []zap.Field{
		zap.String("url", t.req.URL),
		zap.String("outcome", string(outcome.Kind)),
	}
	if outcome.Err != nil {
		t.logger.Error("Download failed", append(fields, zap.Error(outcome.Err))...)
		return
	}
	t.logger.Info("Download finished", fields...)
}
