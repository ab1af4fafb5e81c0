package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxTitleResponseBytes = 1 << 20

// HTTPTitleResolver fetches a video title from a metadata endpoint.
// The endpoint is a URL template in which {id} is replaced by the video id.
type HTTPTitleResolver struct {
	endpoint string
	client   *http.Client
}

// NewHTTPTitleResolver creates a resolver for the given endpoint template
func NewHTTPTitleResolver(endpoint string, timeout time.Duration) *HTTPTitleResolver {
	return &HTTPTitleResolver{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// ResolveTitle implements domain.TitleResolver
func (r *HTTPTitleResolver) ResolveTitle(ctx context.Context, id string) (string, error) {
	target := strings.ReplaceAll(r.endpoint, "{id}", url.QueryEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build metadata request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("metadata request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("metadata request returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTitleResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read metadata response: %w", err)
	}

	title := parseTitle(body)
	if title == "" {
		return "", fmt.Errorf("no title in metadata response for %s", id)
	}
	return title, nil
}

// parseTitle accepts an oEmbed-style JSON object or the url-encoded
// key=value body of the legacy get_video_info endpoint
func parseTitle(body []byte) string {
	var doc struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(body, &doc); err == nil {
		return strings.TrimSpace(doc.Title)
	}

	values, err := url.ParseQuery(strings.TrimSpace(string(body)))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(values.Get("title"))
}
