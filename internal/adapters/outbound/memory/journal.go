// journal.go provides an in-memory implementation of ActionJournal.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/domain/entity"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/ports/outbound"
)

// Compile-time check that ActionJournal implements outbound.ActionJournal
var _ outbound.ActionJournal = (*ActionJournal)(nil)

// ActionJournal is an in-memory append-only action record.
type ActionJournal struct {
	mu     sync.RWMutex
	events []entity.ActionEvent
}

// NewActionJournal creates a new in-memory action journal.
func NewActionJournal() *ActionJournal {
	return &ActionJournal{events: make([]entity.ActionEvent, 0)}
}

// Append records one terminal action event.
func (j *ActionJournal) Append(ctx context.Context, event entity.ActionEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, event)
	return nil
}

// RecentByOwner returns the owner's most recent events, newest first.
func (j *ActionJournal) RecentByOwner(ctx context.Context, owner string, limit int) ([]entity.ActionEvent, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make([]entity.ActionEvent, 0, limit)
	for i := len(j.events) - 1; i >= 0 && len(out) < limit; i-- {
		if strings.EqualFold(j.events[i].Owner.Hex(), owner) {
			out = append(out, j.events[i])
		}
	}
	return out, nil
}

// All returns a copy of every recorded event, oldest first.
func (j *ActionJournal) All() []entity.ActionEvent {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]entity.ActionEvent, len(j.events))
	copy(out, j.events)
	return out
}
