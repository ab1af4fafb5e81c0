package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/yourusername/ytdl-go/internal/domain"
)

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	// Start with default config
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, config)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.ytdl-go")
		v.AddConfigPath("/etc/ytdl-go")
	}

	// YTDLGO_DOWNLOAD_OUTPUT_DIR overrides download.output_dir
	v.SetEnvPrefix("YTDLGO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults registers every key so environment variables can override
// values that no config file mentions
func setDefaults(v *viper.Viper, config *domain.Config) {
	applyConfig(v.SetDefault, config)
}

// applyConfig passes every configuration key and value to set
func applyConfig(set func(key string, value interface{}), config *domain.Config) {
	set("server.host", config.Server.Host)
	set("server.port", config.Server.Port)

	set("download.youtube_dl_path", config.Download.YoutubeDLPath)
	set("download.ffmpeg_path", config.Download.FFmpegPath)
	set("download.output_dir", config.Download.OutputDir)
	set("download.format", config.Download.Format)
	set("download.logs_dir", config.Download.LogsDir)
	set("download.concurrent_limit", config.Download.ConcurrentLimit)

	set("metadata.enabled", config.Metadata.Enabled)
	set("metadata.endpoint", config.Metadata.Endpoint)
	set("metadata.timeout", config.Metadata.Timeout.String())

	set("queue.database_path", config.Queue.DatabasePath)

	set("notification.enabled", config.Notification.Enabled)
	set("notification.method", config.Notification.Method)

	set("logging.level", config.Logging.Level)
	set("logging.format", config.Logging.Format)
	set("logging.output_path", config.Logging.OutputPath)
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Download.OutputDir = expandPath(config.Download.OutputDir)
	config.Download.LogsDir = expandPath(config.Download.LogsDir)
	config.Queue.DatabasePath = expandPath(config.Queue.DatabasePath)

	// bare binary names are resolved through PATH, only expand real paths
	if strings.ContainsRune(config.Download.YoutubeDLPath, filepath.Separator) || strings.HasPrefix(config.Download.YoutubeDLPath, "~") {
		config.Download.YoutubeDLPath = expandPath(config.Download.YoutubeDLPath)
	}
	if strings.ContainsRune(config.Download.FFmpegPath, filepath.Separator) || strings.HasPrefix(config.Download.FFmpegPath, "~") {
		config.Download.FFmpegPath = expandPath(config.Download.FFmpegPath)
	}

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if strings.Contains(path, "$HOME") {
		if home, err := os.UserHomeDir(); err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	path = os.ExpandEnv(path)

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return path
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Download.YoutubeDLPath == "" {
		return fmt.Errorf("downloader binary not configured")
	}

	if config.Download.OutputDir == "" {
		return fmt.Errorf("download output directory not configured")
	}

	if config.Download.ConcurrentLimit < 1 {
		return fmt.Errorf("concurrent limit must be at least 1")
	}

	if config.Metadata.Enabled && !strings.Contains(config.Metadata.Endpoint, "{id}") {
		return fmt.Errorf("metadata endpoint must contain {id}")
	}

	if config.Queue.DatabasePath == "" {
		return fmt.Errorf("queue database path not configured")
	}

	if config.Download.Format == "" {
		config.Download.Format = domain.DefaultFormat
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	applyConfig(v.Set, config)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
