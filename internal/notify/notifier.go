// Package notify computes the daily spending summary and hands it to a
// Notifier. The actual notification surface (mobile push, desktop toast)
// lives outside this repository.
package notify

import (
	"context"

	"financetrack/internal/log"
)

// Notifier raises a user-facing notification.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// LogNotifier writes notifications to the structured log. It is the
// default sink when no platform integration is configured.
type LogNotifier struct {
	log *log.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &LogNotifier{log: logger.WithComponent(log.ComponentNotify)}
}

func (n *LogNotifier) Notify(ctx context.Context, title, body string) error {
	n.log.InfoContext(ctx, "Notification raised",
		"title", title,
		"body", body)
	return nil
}
