package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDownload(t *testing.T) {
	url := "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

	download := NewDownload(url, "best", "/tmp/videos")

	assert.NotEmpty(t, download.ID)
	assert.Equal(t, url, download.URL)
	assert.Equal(t, "best", download.Format)
	assert.Equal(t, "/tmp/videos", download.OutputDir)
	assert.Equal(t, StatusQueued, download.Status)
	assert.Equal(t, 0, download.RetryCount)
}

func TestDownload_MarkProcessing(t *testing.T) {
	download := NewDownload("https://youtube.com/watch?v=a", "", "/tmp")

	download.MarkProcessing()

	assert.Equal(t, StatusProcessing, download.Status)
	assert.NotNil(t, download.StartedAt)
}

func TestDownload_ApplyOutcome(t *testing.T) {
	tests := []struct {
		name      string
		outcome   TerminalOutcome
		status    DownloadStatus
		message   string
		errMsg    string
		already   bool
		completed bool
	}{
		{"complete", Complete(), StatusCompleted, "Complete", "", false, true},
		{"already downloaded", AlreadyDownloaded(), StatusCompleted, "Already downloaded", "", true, true},
		{"cancelled", Cancelled(), StatusCancelled, "Cancelled", "", false, false},
		{"failed", Failed(UpstreamError("invalid url")), StatusFailed, "Error: invalid url", "invalid url", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			download := NewDownload("https://youtube.com/watch?v=a", "", "/tmp")
			download.MarkProcessing()

			download.ApplyOutcome(tt.outcome, "Some Title")

			assert.Equal(t, tt.status, download.Status)
			assert.Equal(t, tt.message, download.Message)
			assert.Equal(t, tt.errMsg, download.ErrorMessage)
			assert.Equal(t, tt.already, download.AlreadyDownloaded)
			assert.Equal(t, tt.completed, download.CompletedAt != nil)
			assert.Equal(t, "Some Title", download.Title)
		})
	}
}

func TestDownload_ApplyOutcomeKeepsTitle(t *testing.T) {
	download := NewDownload("https://youtube.com/watch?v=a", "", "/tmp")
	download.Title = "Known"

	download.ApplyOutcome(Complete(), "")

	assert.Equal(t, "Known", download.Title)
}

func TestDownload_MarkFailed(t *testing.T) {
	download := NewDownload("https://youtube.com/watch?v=a", "", "/tmp")

	download.MarkFailed(errors.New("interrupted"))

	assert.Equal(t, StatusFailed, download.Status)
	assert.Equal(t, "interrupted", download.ErrorMessage)
	assert.Equal(t, "Error: interrupted", download.Message)
}

func TestDownload_Requeue(t *testing.T) {
	download := NewDownload("https://youtube.com/watch?v=a", "", "/tmp")
	download.MarkProcessing()
	download.ApplyOutcome(Failed(UpstreamError("boom")), "")

	assert.True(t, download.CanRetry())
	download.Requeue()

	assert.Equal(t, StatusQueued, download.Status)
	assert.Equal(t, 1, download.RetryCount)
	assert.Empty(t, download.ErrorMessage)
	assert.Nil(t, download.StartedAt)
	assert.False(t, download.CanRetry())
}

func TestDownload_IsTerminal(t *testing.T) {
	download := NewDownload("https://youtube.com/watch?v=a", "", "/tmp")

	assert.False(t, download.IsTerminal())
	assert.True(t, download.IsActive())

	download.Status = StatusCompleted
	assert.True(t, download.IsTerminal())
	assert.False(t, download.CanRetry())

	download.Status = StatusCancelled
	assert.True(t, download.IsTerminal())

	download.Status = StatusFailed
	assert.True(t, download.IsTerminal())
	assert.False(t, download.IsActive())
}

func TestValidateStatus(t *testing.T) {
	assert.True(t, ValidateStatus(StatusQueued))
	assert.True(t, ValidateStatus(StatusCancelled))
	assert.False(t, ValidateStatus("invalid"))
}
