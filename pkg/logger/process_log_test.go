package logger

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessLog_WritesSection(t *testing.T) {
	dir := t.TempDir()
	plog := NewProcessLog(dir)

	entry, err := plog.Begin("0123456789abcdef", "yt-dlp --newline 'https://youtu.be/a'")
	require.NoError(t, err)
	entry.Line("[youtube] a: Downloading webpage")
	require.NoError(t, entry.End(false, "Error: invalid url"))

	data, err := os.ReadFile(plog.Path(time.Now()))
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "Download: 0123456789abcdef")
	assert.Contains(t, content, "$ yt-dlp --newline 'https://youtu.be/a'")
	assert.Contains(t, content, "[01234567] [youtube] a: Downloading webpage")
	assert.Contains(t, content, "FAILED: Error: invalid url")
	assert.Contains(t, content, "=== END 01234567 ===")
}

func TestNew_FileOutput(t *testing.T) {
	path := t.TempDir() + "/nested/app.log"

	log, err := New(Config{Level: "debug", Format: "json", OutputPath: path})
	require.NoError(t, err)
	log.Info("hello")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}
