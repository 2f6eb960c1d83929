// notifier.go provides an in-memory Notifier that records notifications and
// mirrors them to the log. The browser front end renders toasts; this adapter
// is the headless equivalent.
package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/ports/outbound"
)

// Compile-time check that Notifier implements outbound.Notifier
var _ outbound.Notifier = (*Notifier)(nil)

// Notifier records notifications in memory.
type Notifier struct {
	mu            sync.RWMutex
	notifications []outbound.Notification
	logger        *slog.Logger
}

// NewNotifier creates a new in-memory notifier. A nil logger disables log
// mirroring.
func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{notifications: make([]outbound.Notification, 0), logger: logger}
}

// Notify records the notification.
func (n *Notifier) Notify(ctx context.Context, notification outbound.Notification) {
	n.mu.Lock()
	n.notifications = append(n.notifications, notification)
	n.mu.Unlock()

	if n.logger != nil {
		n.logger.Info("notification",
			"level", notification.Level,
			"message", notification.Message,
			"description", notification.Description,
			"url", notification.ActionURL,
		)
	}
}

// Notifications returns a copy of everything notified so far.
func (n *Notifier) Notifications() []outbound.Notification {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]outbound.Notification, len(n.notifications))
	copy(out, n.notifications)
	return out
}
