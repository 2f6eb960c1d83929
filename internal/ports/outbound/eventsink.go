package outbound

import (
	"context"

	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/domain/entity"
)

// EventSink publishes terminal action events for downstream consumers
// (analytics, alerting). Publish failures are logged and swallowed by the
// caller; the sink is advisory.
type EventSink interface {
	// Publish publishes one terminal action event.
	Publish(ctx context.Context, event entity.ActionEvent) error

	// Close closes the sink and releases any resources.
	Close() error
}
