package infrastructure

import (
	"fmt"
	"os/exec"
	"unicode/utf8"

	"github.com/playlistplunge/playlist-plunge/internal/domain"
	"go.uber.org/zap"
)

// NotificationService sends desktop notifications about finished runs
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
	exec   func(name string, args ...string) error
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		config: config,
		logger: logger,
		exec: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if !n.config.Enabled {
		return nil
	}

	var err error
	switch n.config.Method {
	case "osascript":
		script := fmt.Sprintf(`display notification %q with title %q`, message, title)
		err = n.exec("osascript", "-e", script)
	case "notify-send":
		err = n.exec("notify-send", title, message)
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}

	if err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", n.config.Method),
			zap.Error(err))
		return err
	}
	return nil
}

// NotifyRunFinished reports the end of a playlist run
func (n *NotificationService) NotifyRunFinished(playlistURL string, exitCode int) {
	if exitCode == 0 {
		n.Send("Playlist Downloaded", fmt.Sprintf("Finished: %s", truncateString(playlistURL, 40)))
		return
	}
	n.Send("Playlist Download Failed", fmt.Sprintf("%s (exit code %d)", truncateString(playlistURL, 40), exitCode))
}

// truncateString truncates a string to maxLen bytes without splitting a rune
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
