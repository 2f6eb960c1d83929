package outbound

import (
	"context"

	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/domain/entity"
)

// ActionJournal is an append-only record of submitted protocol actions and
// their terminal outcomes. One record per submission; journal failures must
// never fail the action itself.
type ActionJournal interface {
	// Append records a terminal action event.
	Append(ctx context.Context, event entity.ActionEvent) error

	// RecentByOwner returns the most recent terminal events for an owner,
	// newest first, up to limit.
	RecentByOwner(ctx context.Context, owner string, limit int) ([]entity.ActionEvent, error)
}
