package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.NotNil(t, config)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "yt-dlp", config.Download.YoutubeDLPath)
	assert.Equal(t, DefaultFormat, config.Download.Format)
	assert.Equal(t, 2, config.Download.ConcurrentLimit)
	assert.True(t, config.Metadata.Enabled)
	assert.Contains(t, config.Metadata.Endpoint, "{id}")
	assert.Equal(t, 10*time.Second, config.Metadata.Timeout)
	assert.False(t, config.Notification.Enabled)
	assert.Equal(t, "info", config.Logging.Level)
}

func TestDownloadConfig_Request(t *testing.T) {
	config := DownloadConfig{
		YoutubeDLPath: "/usr/bin/yt-dlp",
		FFmpegPath:    "/usr/bin/ffmpeg",
		OutputDir:     "/data/videos",
		Format:        "best",
	}

	req := config.Request("https://youtube.com/watch?v=abc", "")
	assert.Equal(t, "best", req.Format)
	assert.Equal(t, "/usr/bin/yt-dlp", req.YoutubeDLBin)
	assert.Equal(t, "/usr/bin/ffmpeg", req.FFmpegPath)
	assert.Equal(t, "/data/videos/%(title)s.%(ext)s", req.OutputTemplate())

	req = config.Request("https://youtube.com/watch?v=abc", "worst")
	assert.Equal(t, "worst", req.Format)
}
