package outbound

import "context"

// NotificationLevel distinguishes informational, success, and error
// notifications.
type NotificationLevel string

const (
	NotificationInfo    NotificationLevel = "info"
	NotificationSuccess NotificationLevel = "success"
	NotificationError   NotificationLevel = "error"
)

// Notification is a user-facing message, optionally with an action link
// (typically a block explorer URL for the transaction).
type Notification struct {
	Level       NotificationLevel
	Message     string
	Description string
	ActionLabel string
	ActionURL   string
}

// Notifier delivers notifications to the user. The coordinator decides when
// and with what message; rendering is the implementation's concern.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}
