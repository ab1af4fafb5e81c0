package infrastructure

import (
	"fmt"
	"os/exec"

	"github.com/yourusername/ytdl-go/internal/domain"
	"go.uber.org/zap"
)

// NotificationService handles sending notifications
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		config: config,
		logger: logger,
	}
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if n == nil {
		return nil
	}
	if !n.config.Enabled {
		n.logger.Debug("Notifications disabled, skipping",
			zap.String("title", title),
			zap.String("message", message))
		return nil
	}

	switch n.config.Method {
	case "osascript":
		return n.sendOSAScript(title, message)
	case "notify-send":
		return n.sendNotifySend(title, message)
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}
}

// sendOSAScript sends notification using macOS osascript
func (n *NotificationService) sendOSAScript(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	cmd := exec.Command("osascript", "-e", script)

	if err := cmd.Run(); err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", "osascript"),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("title", title),
		zap.String("message", message))

	return nil
}

// sendNotifySend sends notification using Linux notify-send
func (n *NotificationService) sendNotifySend(title, message string) error {
	cmd := exec.Command("notify-send", title, message)

	if err := cmd.Run(); err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", "notify-send"),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("title", title),
		zap.String("message", message))

	return nil
}

// NotifyDownloadQueued sends notification when a download is queued
func (n *NotificationService) NotifyDownloadQueued(url string) {
	n.Send("Download Queued", fmt.Sprintf("Added to queue: %s", truncateString(url, 40)))
}

// NotifyOutcome announces how a download ended
func (n *NotificationService) NotifyOutcome(download *domain.Download, outcome domain.TerminalOutcome) {
	if n == nil {
		return
	}
	name := download.Title
	if name == "" {
		name = download.URL
	}
	name = truncateString(name, 40)

	switch outcome.Kind {
	case domain.OutcomeComplete:
		n.Send("Download Completed", fmt.Sprintf("Success: %s", name))
	case domain.OutcomeAlreadyDownloaded:
		n.Send("Download Skipped", fmt.Sprintf("Already downloaded: %s", name))
	case domain.OutcomeCancelled:
		n.Send("Download Cancelled", fmt.Sprintf("Cancelled: %s", name))
	default:
		n.Send("Download Failed", fmt.Sprintf("%s: %s", outcome.Message(), name))
	}
}

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

