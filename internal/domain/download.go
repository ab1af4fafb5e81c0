package domain

import (
	"time"

	"github.com/google/uuid"
)

// DownloadStatus represents the current status of a download
type DownloadStatus string

const (
	StatusQueued     DownloadStatus = "queued"
	StatusProcessing DownloadStatus = "processing"
	StatusCompleted  DownloadStatus = "completed"
	StatusFailed     DownloadStatus = "failed"
	StatusCancelled  DownloadStatus = "cancelled"
)

// Download is the persisted record of one download task
type Download struct {
	ID                string         `json:"id" gorm:"primaryKey"`
	URL               string         `json:"url" gorm:"not null"`
	Format            string         `json:"format"`
	OutputDir         string         `json:"output_dir"`
	Status            DownloadStatus `json:"status" gorm:"not null;index"`
	Title             string         `json:"title,omitempty"`
	Message           string         `json:"message,omitempty"`
	ErrorMessage      string         `json:"error_message,omitempty"`
	AlreadyDownloaded bool           `json:"already_downloaded"`
	RetryCount        int            `json:"retry_count" gorm:"default:0"`
	CreatedAt         time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt         *time.Time     `json:"started_at,omitempty"`
	CompletedAt       *time.Time     `json:"completed_at,omitempty"`
}

// NewDownload creates a new queued download record
func NewDownload(url, format, outputDir string) *Download {
	now := time.Now()
	return &Download{
		ID:        uuid.New().String(),
		URL:       url,
		Format:    format,
		OutputDir: outputDir,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkProcessing marks the download as processing
func (d *Download) MarkProcessing() {
	d.Status = StatusProcessing
	now := time.Now()
	d.StartedAt = &now
	d.UpdatedAt = now
}

// ApplyOutcome records a task's terminal outcome on the download
func (d *Download) ApplyOutcome(outcome TerminalOutcome, title string) {
	now := time.Now()
	d.Message = outcome.Message()
	d.UpdatedAt = now
	if title != "" {
		d.Title = title
	}

	switch outcome.Kind {
	case OutcomeComplete, OutcomeAlreadyDownloaded:
		d.Status = StatusCompleted
		d.AlreadyDownloaded = outcome.Kind == OutcomeAlreadyDownloaded
		d.ErrorMessage = ""
		d.CompletedAt = &now
	case OutcomeCancelled:
		d.Status = StatusCancelled
	default:
		d.Status = StatusFailed
		d.ErrorMessage = outcome.Reason
	}
}

// MarkFailed marks the download as failed
func (d *Download) MarkFailed(err error) {
	d.Status = StatusFailed
	d.ErrorMessage = err.Error()
	d.Message = "Error: " + err.Error()
	d.UpdatedAt = time.Now()
}

// Requeue resets a finished download so it can run again
func (d *Download) Requeue() {
	d.Status = StatusQueued
	d.RetryCount++
	d.ErrorMessage = ""
	d.Message = ""
	d.AlreadyDownloaded = false
	d.StartedAt = nil
	d.CompletedAt = nil
	d.UpdatedAt = time.Now()
}

// CanRetry checks if the download can be queued again
func (d *Download) CanRetry() bool {
	return d.Status == StatusFailed || d.Status == StatusCancelled
}

// IsTerminal checks if the download is in a terminal state
func (d *Download) IsTerminal() bool {
	return d.Status == StatusCompleted || d.Status == StatusFailed || d.Status == StatusCancelled
}

// IsActive checks if the download is waiting for or holding a task slot
func (d *Download) IsActive() bool {
	return d.Status == StatusQueued || d.Status == StatusProcessing
}

// ValidateStatus checks if a status filter value is known
func ValidateStatus(status DownloadStatus) bool {
	switch status {
	case StatusQueued, StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}
