package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yourusername/ytdl-go/internal/domain"
	"go.uber.org/zap"
)

func TestNotificationService_DisabledIsNoop(t *testing.T) {
	n := NewNotificationService(&domain.NotificationConfig{Enabled: false, Method: "notify-send"}, zap.NewNop())

	assert.NoError(t, n.Send("title", "message"))
	n.NotifyOutcome(domain.NewDownload("https://youtu.be/abc", "", "/out"), domain.Complete())
}

func TestNotificationService_UnknownMethod(t *testing.T) {
	n := NewNotificationService(&domain.NotificationConfig{Enabled: true, Method: "carrier-pigeon"}, zap.NewNop())

	assert.NoError(t, n.Send("title", "message"))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcde...", truncateString("abcdefgh", 5))
	assert.Equal(t, "Café ...", truncateString("Café Music", 5))
}
