package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/ytdl-go/api"
	"github.com/yourusername/ytdl-go/internal/app"
	"github.com/yourusername/ytdl-go/internal/domain"
	"github.com/yourusername/ytdl-go/internal/infrastructure"
	"github.com/yourusername/ytdl-go/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var configPath = flag.String("config", "", "Path to config file")

func main() {
	flag.Parse()

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting ytdl-go server",
		zap.String("version", version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("downloader", config.Download.YoutubeDLPath),
		zap.Int("concurrent_limit", config.Download.ConcurrentLimit))

	if err := createDirectories(config); err != nil {
		log.Fatal("Failed to create directories", zap.Error(err))
	}

	repo, err := infrastructure.NewSQLiteDownloadRepository(config.Queue.DatabasePath)
	if err != nil {
		log.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	notifier := infrastructure.NewNotificationService(&config.Notification, log)

	downloadMgr := app.NewDownloadManager(repo, newTaskFactory(config, log), notifier, &config.Download, log)
	if _, err := downloadMgr.RecoverInterrupted(); err != nil {
		log.Warn("Failed to recover interrupted downloads", zap.Error(err))
	}

	router := api.SetupRouter(downloadMgr, config.Download.LogsDir, log, version)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// running tasks are cancelled and their processes killed
	if err := downloadMgr.Shutdown(shutdownCtx); err != nil {
		log.Error("Downloads did not stop in time", zap.Error(err))
	}

	log.Info("Server exited")
}

func newTaskFactory(config *domain.Config, log *zap.Logger) domain.TaskFactory {
	opts := []infrastructure.TaskOption{
		infrastructure.WithLogger(log),
		infrastructure.WithProcessLog(logger.NewProcessLog(config.Download.LogsDir)),
	}
	if config.Metadata.Enabled {
		resolver := infrastructure.NewHTTPTitleResolver(config.Metadata.Endpoint, config.Metadata.Timeout)
		opts = append(opts,
			infrastructure.WithTitleResolver(resolver),
			infrastructure.WithTitleTimeout(config.Metadata.Timeout))
	}
	return infrastructure.NewYTDLTaskFactory(opts...)
}

func createDirectories(config *domain.Config) error {
	dirs := []string{
		config.Download.OutputDir,
		config.Download.LogsDir,
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
