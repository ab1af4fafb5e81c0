package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultFormat prefers an mp4/m4a pair that ffmpeg can merge without re-encoding
const DefaultFormat = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]"

// DownloadRequest describes one fully-resolved downloader invocation.
// It is built once and only ever passed by value.
type DownloadRequest struct {
	URL          string
	YoutubeDLBin string
	FFmpegPath   string
	OutputDir    string
	Format       string
}

// NewDownloadRequest builds a request, falling back to DefaultFormat
func NewDownloadRequest(rawURL, youtubeDLBin, ffmpegPath, outputDir, format string) DownloadRequest {
	if strings.TrimSpace(format) == "" {
		format = DefaultFormat
	}
	return DownloadRequest{
		URL:          strings.TrimSpace(rawURL),
		YoutubeDLBin: youtubeDLBin,
		FFmpegPath:   ffmpegPath,
		OutputDir:    outputDir,
		Format:       format,
	}
}

// Validate checks that the request can be handed to the downloader
func (r DownloadRequest) Validate() error {
	if err := ValidateURL(r.URL); err != nil {
		return err
	}
	if r.YoutubeDLBin == "" {
		return fmt.Errorf("downloader binary not configured")
	}
	if r.OutputDir == "" {
		return fmt.Errorf("output directory not configured")
	}
	return nil
}

// OutputTemplate returns the -o template the downloader writes files with
func (r DownloadRequest) OutputTemplate() string {
	return strings.TrimRight(r.OutputDir, "/") + "/%(title)s.%(ext)s"
}

// ValidateURL checks that a download URL is an absolute http(s) URL
func ValidateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported url scheme: %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url has no host: %s", raw)
	}
	return nil
}
