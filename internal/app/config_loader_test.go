package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/ytdl-go/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
download:
  output_dir: /srv/videos
  concurrent_limit: 4
metadata:
  timeout: 3s
logging:
  level: debug
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, "/srv/videos", config.Download.OutputDir)
	assert.Equal(t, 4, config.Download.ConcurrentLimit)
	assert.Equal(t, "yt-dlp", config.Download.YoutubeDLPath)
	assert.Equal(t, domain.DefaultFormat, config.Download.Format)
	assert.Equal(t, 3*time.Second, config.Metadata.Timeout)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("YTDLGO_DOWNLOAD_OUTPUT_DIR", "/from/env")
	t.Setenv("YTDLGO_DOWNLOAD_CONCURRENT_LIMIT", "3")

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/from/env", config.Download.OutputDir)
	assert.Equal(t, 3, config.Download.ConcurrentLimit)
}

func TestLoadConfig_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := writeConfig(t, `
download:
  output_dir: ~/videos
queue:
  database_path: $HOME/db/downloads.db
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "videos"), config.Download.OutputDir)
	assert.Equal(t, filepath.Join(home, "db", "downloads.db"), config.Queue.DatabasePath)
	assert.Equal(t, filepath.Join(home, ".ytdl-go", "logs"), config.Download.LogsDir)
	assert.Equal(t, "stdout", config.Logging.OutputPath)
	assert.Equal(t, "ffmpeg", config.Download.FFmpegPath)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad port", "server:\n  port: 70000\n"},
		{"zero concurrency", "download:\n  concurrent_limit: 0\n"},
		{"endpoint without id", "metadata:\n  endpoint: https://example.com/title\n"},
		{"malformed yaml", "server: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	config := domain.DefaultConfig()
	config.Server.Port = 8181
	config.Download.OutputDir = "/srv/videos"
	config.Metadata.Timeout = 7 * time.Second

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveConfig(config, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8181, loaded.Server.Port)
	assert.Equal(t, "/srv/videos", loaded.Download.OutputDir)
	assert.Equal(t, 7*time.Second, loaded.Metadata.Timeout)
	assert.Equal(t, config.Metadata.Endpoint, loaded.Metadata.Endpoint)
}
