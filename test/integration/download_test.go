//go:build integration && !windows

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/ytdl-go/api"
	"github.com/yourusername/ytdl-go/internal/app"
	"github.com/yourusername/ytdl-go/internal/domain"
	"github.com/yourusername/ytdl-go/internal/infrastructure"
	"github.com/yourusername/ytdl-go/pkg/logger"
)

const fakeDownloader = `#!/bin/sh
for arg in "$@"; do url="$arg"; done
case "$url" in
  *fail*)
    echo "[youtube] broken: Downloading webpage"
    echo "ERROR: Video unavailable"
    sleep 30
    ;;
  *slow*)
    echo "[youtube] slow1: Downloading webpage"
    while true; do echo "[download]  10.0% of 10.00MiB at 1.00MiB/s ETA 00:09"; sleep 0.1; done
    ;;
  *)
    echo "[youtube] abc123: Downloading webpage"
    sleep 0.3
    echo "[download] Destination: /tmp/Video.mp4"
    echo "[download]  50.0% of 10.00MiB at 2.00MiB/s ETA 00:02"
    echo "[download] 100.0% of 10.00MiB at 2.00MiB/s ETA 00:00"
    ;;
esac
`

type env struct {
	server  *httptest.Server
	manager *app.DownloadManager
	logsDir string
}

func setup(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()

	bin := filepath.Join(dir, "yt-dlp")
	require.NoError(t, os.WriteFile(bin, []byte(fakeDownloader), 0755))

	titles := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"title":"Resolved ` + r.URL.Query().Get("id") + `"}`))
	}))
	t.Cleanup(titles.Close)

	config := domain.DefaultConfig()
	config.Download.YoutubeDLPath = bin
	config.Download.FFmpegPath = ""
	config.Download.OutputDir = filepath.Join(dir, "out")
	config.Download.LogsDir = filepath.Join(dir, "logs")

	repo, err := infrastructure.NewSQLiteDownloadRepository(filepath.Join(dir, "downloads.db"))
	require.NoError(t, err)

	factory := infrastructure.NewYTDLTaskFactory(
		infrastructure.WithTitleResolver(infrastructure.NewHTTPTitleResolver(titles.URL+"/?id={id}", time.Second)),
		infrastructure.WithProcessLog(logger.NewProcessLog(config.Download.LogsDir)),
	)
	manager := app.NewDownloadManager(repo, factory, nil, &config.Download, zap.NewNop())
	server := httptest.NewServer(api.SetupRouter(manager, config.Download.LogsDir, zap.NewNop(), "integration"))

	t.Cleanup(func() {
		server.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		manager.Shutdown(ctx)
		repo.Close()
	})

	return &env{server: server, manager: manager, logsDir: config.Download.LogsDir}
}

func (e *env) add(t *testing.T, url string) string {
	t.Helper()
	data, _ := json.Marshal(map[string]string{"url": url})
	resp, err := http.Post(e.server.URL+"/api/v1/downloads", "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var download domain.Download
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&download))
	return download.ID
}

func (e *env) waitFor(t *testing.T, id string, status domain.DownloadStatus) *domain.Download {
	t.Helper()
	var download *domain.Download
	require.Eventually(t, func() bool {
		d, err := e.manager.GetDownload(id)
		_, live := e.manager.Progress(id)
		download = d
		return err == nil && d.Status == status && !live
	}, 5*time.Second, 20*time.Millisecond)
	return download
}

func TestDownloadWorkflow_Success(t *testing.T) {
	e := setup(t)
	id := e.add(t, "https://www.youtube.com/watch?v=abc123")

	download := e.waitFor(t, id, domain.StatusCompleted)
	assert.Equal(t, "Complete", download.Message)
	assert.Equal(t, "Resolved abc123", download.Title)

	logs, err := filepath.Glob(filepath.Join(e.logsDir, "download-*.log"))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	content, err := os.ReadFile(logs[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "SUCCESS: Complete")

	resp, err := http.Get(e.server.URL + "/api/v1/downloads/" + id + "/log")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Lines []string `json:"lines"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.Lines)
	assert.Contains(t, body.Lines[0], "Download: "+id)
	assert.Contains(t, body.Lines[len(body.Lines)-2], "SUCCESS: Complete")
}

func TestDownloadWorkflow_UpstreamError(t *testing.T) {
	e := setup(t)
	id := e.add(t, "https://www.youtube.com/watch?v=fail")

	download := e.waitFor(t, id, domain.StatusFailed)
	assert.Equal(t, "Error: Video unavailable", download.Message)
	assert.Equal(t, "Video unavailable", download.ErrorMessage)
}

func TestDownloadWorkflow_CancelAndRetry(t *testing.T) {
	e := setup(t)
	id := e.add(t, "https://www.youtube.com/watch?v=slow")

	require.Eventually(t, func() bool {
		snap, ok := e.manager.Progress(id)
		return ok && snap.Percent == 10
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Post(e.server.URL+"/api/v1/downloads/"+id+"/cancel", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	download := e.waitFor(t, id, domain.StatusCancelled)
	assert.Equal(t, "Cancelled", download.Message)

	resp, err = http.Post(e.server.URL+"/api/v1/downloads/"+id+"/retry", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, e.manager.CancelDownload(id))
	download = e.waitFor(t, id, domain.StatusCancelled)
	assert.Equal(t, 1, download.RetryCount)
}
