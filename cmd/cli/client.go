package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yourusername/ytdl-go/internal/domain"
)

// apiClient talks to a ytdl-server
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// apiError is a non-2xx server response
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// downloadStatus is a download record with its live progress, if any
type downloadStatus struct {
	domain.Download
	Progress *domain.ProgressState `json:"progress,omitempty"`
}

func (c *apiClient) AddDownload(rawURL, format string) (*domain.Download, error) {
	var download domain.Download
	body := map[string]string{"url": rawURL}
	if format != "" {
		body["format"] = format
	}
	if err := c.do(http.MethodPost, "/api/v1/downloads", body, &download); err != nil {
		return nil, err
	}
	return &download, nil
}

func (c *apiClient) ListDownloads(status string) ([]*domain.Download, error) {
	path := "/api/v1/downloads"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var downloads []*domain.Download
	if err := c.do(http.MethodGet, path, nil, &downloads); err != nil {
		return nil, err
	}
	return downloads, nil
}

func (c *apiClient) GetDownload(id string) (*downloadStatus, error) {
	var status downloadStatus
	if err := c.do(http.MethodGet, "/api/v1/downloads/"+url.PathEscape(id), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *apiClient) GetStats() (*domain.DownloadStats, error) {
	var stats domain.DownloadStats
	if err := c.do(http.MethodGet, "/api/v1/downloads/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetLogs returns raw downloader output. A non-empty id selects that
// download's log, otherwise the day's log (date YYYY-MM-DD, empty for today).
func (c *apiClient) GetLogs(id, date string, limit int) ([]string, error) {
	path := "/api/v1/logs"
	if id != "" {
		path = "/api/v1/downloads/" + url.PathEscape(id) + "/log"
	}
	query := url.Values{}
	if date != "" && id == "" {
		query.Set("date", date)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var result struct {
		Lines []string `json:"lines"`
	}
	if err := c.do(http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Lines, nil
}

func (c *apiClient) CancelDownload(id string) error {
	return c.do(http.MethodPost, "/api/v1/downloads/"+url.PathEscape(id)+"/cancel", nil, nil)
}

func (c *apiClient) RetryDownload(id string) (*domain.Download, error) {
	var download domain.Download
	if err := c.do(http.MethodPost, "/api/v1/downloads/"+url.PathEscape(id)+"/retry", nil, &download); err != nil {
		return nil, err
	}
	return &download, nil
}

func (c *apiClient) DeleteDownload(id string) error {
	return c.do(http.MethodDelete, "/api/v1/downloads/"+url.PathEscape(id), nil, nil)
}

func (c *apiClient) Healthy() bool {
	client := &http.Client{Timeout: 1 * time.Second}
	resp, err := client.Get(c.baseURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// WatchProgress streams progress snapshots of a running download into fn
// until the server closes the stream after the terminal snapshot.
func (c *apiClient) WatchProgress(id string, fn func(domain.ProgressState)) error {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/api/v1/downloads/" + url.PathEscape(id) + "/ws"

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return &apiError{Status: resp.StatusCode, Message: "download has no running task"}
		}
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	for {
		var snap domain.ProgressState
		if err := conn.ReadJSON(&snap); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("progress stream failed: %w", err)
		}
		fn(snap)
	}
}

func (c *apiClient) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &apiError{Status: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
