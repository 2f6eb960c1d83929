// eventsink.go provides an in-memory implementation of EventSink.
//
// This adapter stores all published action events in memory for testing and
// local development. All operations are thread-safe. For production fan-out,
// use the sns adapter.
package memory

import (
	"context"
	"sync"

	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/domain/entity"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/ports/outbound"
)

// Compile-time check that EventSink implements outbound.EventSink
var _ outbound.EventSink = (*EventSink)(nil)

// EventSink is an in-memory implementation of the EventSink port.
type EventSink struct {
	mu     sync.RWMutex
	events []entity.ActionEvent
	closed bool

	// Callback for test assertions
	onPublish func(entity.ActionEvent)
}

// NewEventSink creates a new in-memory event sink.
func NewEventSink() *EventSink {
	return &EventSink{
		events: make([]entity.ActionEvent, 0),
	}
}

// Publish stores the event in memory.
func (s *EventSink) Publish(ctx context.Context, event entity.ActionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.events = append(s.events, event)

	if s.onPublish != nil {
		s.onPublish(event)
	}

	return nil
}

// Close marks the sink as closed.
func (s *EventSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Events returns a copy of all published events.
func (s *EventSink) Events() []entity.ActionEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.ActionEvent, len(s.events))
	copy(out, s.events)
	return out
}

// SetOnPublish registers a callback invoked on every publish.
func (s *EventSink) SetOnPublish(fn func(entity.ActionEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onPublish = fn
}
