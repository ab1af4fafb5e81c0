package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ytdl-go/internal/domain"
)

func TestFormatProgress(t *testing.T) {
	tests := []struct {
		name string
		snap domain.ProgressState
		want string
	}{
		{
			name: "initial",
			snap: func() domain.ProgressState {
				s := domain.NewProgressState()
				s.Stage = domain.StageInitializing
				return s
			}(),
			want: "[  ?  %] Initializing | - | ETA -",
		},
		{
			name: "downloading",
			snap: domain.ProgressState{Stage: "Downloading", Percent: 37.2, Speed: "1.5MiB/s", ETA: "00:30", Title: "Some Video"},
			want: "[ 37.2%] Downloading | 1.5MiB/s | ETA 00:30 | Some Video",
		},
		{
			name: "finished",
			snap: domain.ProgressState{Stage: "Complete", Percent: 100, Speed: "-", ETA: "-", Finished: true},
			want: "[100.0%] Complete",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatProgress(tt.snap))
		})
	}
}

func TestProgressRenderer_ClearsShorterLines(t *testing.T) {
	var buf bytes.Buffer
	r := newProgressRenderer(&buf)

	r.Render(domain.ProgressState{Stage: "Downloading", Percent: 10, Speed: "10.00MiB/s", ETA: "01:00"})
	r.Render(domain.ProgressState{Stage: "Complete", Percent: 100, Finished: true})
	r.Done()

	lines := strings.Split(buf.String(), "\r")
	require.Len(t, lines, 3)
	assert.Equal(t, len(lines[1]), len(strings.TrimSuffix(lines[2], "\n")))
	assert.True(t, strings.HasPrefix(lines[2], "[100.0%] Complete"))
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestOutcomeError(t *testing.T) {
	assert.NoError(t, outcomeError(domain.Complete()))
	assert.NoError(t, outcomeError(domain.AlreadyDownloaded()))

	err := outcomeError(domain.Failed(domain.UpstreamError("invalid url")))
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
	assert.Equal(t, "Error: invalid url", err.Error())

	assert.Equal(t, 130, exitCode(outcomeError(domain.Cancelled())))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "Café M...", truncate("Café Music Mix", 9))
}

func TestAPIClient_AddDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/downloads", r.URL.Path)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://youtu.be/abc", body["url"])
		assert.Equal(t, "best", body["format"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(domain.NewDownload(body["url"], body["format"], "/out"))
	}))
	defer server.Close()

	download, err := newAPIClient(server.URL+"/").AddDownload("https://youtu.be/abc", "best")
	require.NoError(t, err)
	assert.NotEmpty(t, download.ID)
	assert.Equal(t, domain.StatusQueued, download.Status)
}

func TestAPIClient_ErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/downloads/missing":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"download not found"}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream down\n"))
		}
	}))
	defer server.Close()

	client := newAPIClient(server.URL)

	_, err := client.GetDownload("missing")
	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "download not found", apiErr.Message)

	err = client.CancelDownload("other")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestAPIClient_GetDownloadWithProgress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"abc","url":"https://youtu.be/abc","status":"processing",
			"progress":{"stage":"Downloading","percent":42.5,"speed":"1MiB/s","eta":"00:10","title":"T","finished":false}}`))
	}))
	defer server.Close()

	status, err := newAPIClient(server.URL).GetDownload("abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", status.ID)
	assert.Equal(t, domain.StatusProcessing, status.Status)
	require.NotNil(t, status.Progress)
	assert.Equal(t, 42.5, status.Progress.Percent)
}

func TestAPIClient_WatchProgress(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/downloads/abc/ws" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()

		outcome := domain.Complete()
		conn.WriteJSON(domain.ProgressState{Stage: "Downloading", Percent: 50})
		conn.WriteJSON(domain.ProgressState{Stage: "Complete", Percent: 100, Finished: true, Outcome: &outcome})
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "finished"))
	}))
	defer server.Close()

	client := newAPIClient(server.URL)

	var snaps []domain.ProgressState
	require.NoError(t, client.WatchProgress("abc", func(s domain.ProgressState) {
		snaps = append(snaps, s)
	}))
	require.Len(t, snaps, 2)
	assert.Equal(t, 50.0, snaps[0].Percent)
	assert.True(t, snaps[1].Finished)
	assert.Equal(t, domain.OutcomeComplete, snaps[1].Outcome.Kind)

	err := client.WatchProgress("missing", func(domain.ProgressState) {})
	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestAPIClient_GetLogs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/downloads/abc/log":
			assert.Equal(t, "50", r.URL.Query().Get("limit"))
			assert.Empty(t, r.URL.Query().Get("date"))
			w.Write([]byte(`{"id":"abc","count":1,"lines":["[abc] line"]}`))
		case "/api/v1/logs":
			assert.Equal(t, "2024-03-12", r.URL.Query().Get("date"))
			w.Write([]byte(`{"date":"2024-03-12","count":2,"lines":["one","two"]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := newAPIClient(server.URL)

	lines, err := client.GetLogs("abc", "2024-03-12", 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"[abc] line"}, lines)

	lines, err = client.GetLogs("", "2024-03-12", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, lines)
}

func TestAPIClient_Healthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.Write([]byte(`{"status":"ok"}`))
			return
		}
		http.NotFound(w, r)
	}))

	client := newAPIClient(server.URL)
	assert.True(t, client.Healthy())

	server.Close()
	assert.False(t, client.Healthy())
}
