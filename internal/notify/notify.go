// Package notify sends desktop notifications when downloads or job
// submissions finish. It uses github.com/gen2brain/beeep for cross-platform
// delivery.
package notify

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/tbgui/tbgui/internal/config"
	"github.com/tbgui/tbgui/internal/logging"
)

const appTitle = "tbgui"

// Notifier handles desktop notifications.
type Notifier struct {
	logger *logging.Logger
	cfg    config.NotificationConfig
	send   func(title, message string) error
	mu     sync.RWMutex
}

// NewNotifier creates a notifier from the [notifications] settings.
func NewNotifier(cfg config.NotificationConfig, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Notifier{
		logger: logger,
		cfg:    cfg,
		send:   func(title, message string) error { return beeep.Notify(title, message, "") },
	}
}

// SetEnabled enables or disables notifications.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cfg.Enabled = enabled
}

// IsEnabled returns whether notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.cfg.Enabled
}

func (n *Notifier) allowed(show func(config.NotificationConfig) bool) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.cfg.Enabled && show(n.cfg)
}

// DownloadComplete reports count result files saved to dir.
func (n *Notifier) DownloadComplete(count int, dir string) {
	if !n.allowed(func(c config.NotificationConfig) bool { return c.ShowDownloadComplete }) {
		return
	}

	message := fmt.Sprintf("%d result file(s) downloaded to:\n%s", count, shortenPath(dir))
	if err := n.send("Download Complete", message); err != nil {
		n.logger.Warn().Err(err).Str("dir", dir).Msg("Failed to send download complete notification")
	}
}

// DownloadFailed reports a failed results download.
func (n *Notifier) DownloadFailed(err error) {
	if err == nil || !n.allowed(func(c config.NotificationConfig) bool { return c.ShowDownloadFailed }) {
		return
	}

	if sendErr := n.send("Download Failed", truncate(err.Error(), 100)); sendErr != nil {
		n.logger.Warn().Err(sendErr).Msg("Failed to send download failed notification")
	}
}

// JobSubmitted reports an accepted array job.
func (n *Notifier) JobSubmitted(samples []string, schedulerOutput string) {
	if !n.allowed(func(c config.NotificationConfig) bool { return c.ShowJobSubmitted }) {
		return
	}

	message := fmt.Sprintf("%d sample(s): %s\n%s",
		len(samples),
		truncate(strings.Join(samples, ", "), 60),
		truncate(strings.TrimSpace(schedulerOutput), 60))
	if err := n.send(appTitle, message); err != nil {
		n.logger.Warn().Err(err).Msg("Failed to send job submitted notification")
	}
}

// Alert sends an error-level notification regardless of the per-event toggles.
func (n *Notifier) Alert(message string) {
	if !n.IsEnabled() {
		return
	}

	title := appTitle + " Alert"
	if err := beeep.Alert(title, message, ""); err != nil {
		if err := n.send(title, message); err != nil {
			n.logger.Error().Err(err).Str("message", message).Msg("Failed to send alert notification")
		}
	}
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// shortenPath abbreviates a long path to its last two components.
func shortenPath(path string) string {
	const maxLen = 60

	if len(path) <= maxLen {
		return path
	}

	_, file := filepath.Split(path)
	short := filepath.Join("...", filepath.Base(filepath.Dir(path)), file)

	if vol := filepath.VolumeName(path); vol != "" && len(vol)+len(short)+1 <= maxLen {
		short = vol + string(filepath.Separator) + short
	}
	if len(short) > maxLen {
		return "..." + path[len(path)-(maxLen-3):]
	}
	return short
}
