package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Download     DownloadConfig     `mapstructure:"download"`
	Metadata     MetadataConfig     `mapstructure:"metadata"`
	Queue        QueueConfig        `mapstructure:"queue"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	YoutubeDLPath   string `mapstructure:"youtube_dl_path"`
	FFmpegPath      string `mapstructure:"ffmpeg_path"`
	OutputDir       string `mapstructure:"output_dir"`
	Format          string `mapstructure:"format"`
	LogsDir         string `mapstructure:"logs_dir"`
	ConcurrentLimit int    `mapstructure:"concurrent_limit"`
}

// MetadataConfig controls the background title lookup
type MetadataConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Endpoint string        `mapstructure:"endpoint"` // {id} is replaced with the video id
	Timeout  time.Duration `mapstructure:"timeout"`
}

// QueueConfig contains queue-related configuration
type QueueConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Download: DownloadConfig{
			YoutubeDLPath:   "yt-dlp",
			FFmpegPath:      "ffmpeg",
			OutputDir:       "$HOME/Downloads",
			Format:          DefaultFormat,
			LogsDir:         "$HOME/.ytdl-go/logs",
			ConcurrentLimit: 2,
		},
		Metadata: MetadataConfig{
			Enabled:  true,
			Endpoint: "https://www.youtube.com/oembed?format=json&url=https://www.youtube.com/watch?v={id}",
			Timeout:  10 * time.Second,
		},
		Queue: QueueConfig{
			DatabasePath: "$HOME/.ytdl-go/downloads.db",
		},
		Notification: NotificationConfig{
			Enabled: false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}

// Request builds a download request for url from the configured defaults.
// An empty format falls back to the configured one.
func (c *DownloadConfig) Request(url, format string) DownloadRequest {
	if format == "" {
		format = c.Format
	}
	return NewDownloadRequest(url, c.YoutubeDLPath, c.FFmpegPath, c.OutputDir, format)
}
