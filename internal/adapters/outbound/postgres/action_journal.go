// action_journal.go provides a PostgreSQL implementation of ActionJournal.
//
// This adapter persists terminal action events for durable history across
// restarts. The table is append-only; the schema in
// migrations/001_action_journal.sql is applied via EnsureSchema.
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/domain/entity"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/ports/outbound"
)

//go:embed migrations/001_action_journal.sql
var journalSchema string

// Compile-time check that ActionJournal implements outbound.ActionJournal
var _ outbound.ActionJournal = (*ActionJournal)(nil)

// ActionJournal is a PostgreSQL implementation of the outbound.ActionJournal
// port.
type ActionJournal struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewActionJournal creates a new PostgreSQL action journal.
func NewActionJournal(pool *pgxpool.Pool, logger *slog.Logger) *ActionJournal {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActionJournal{pool: pool, logger: logger}
}

// EnsureSchema creates the action_events table if it doesn't exist.
func (j *ActionJournal) EnsureSchema(ctx context.Context) error {
	if _, err := j.pool.Exec(ctx, journalSchema); err != nil {
		return fmt.Errorf("failed to apply journal schema: %w", err)
	}
	return nil
}

// Append records one terminal action event.
func (j *ActionJournal) Append(ctx context.Context, event entity.ActionEvent) error {
	query := `
		INSERT INTO action_events (action, position_id, owner, tx_hash, status, error, amount, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := j.pool.Exec(ctx, query,
		string(event.Action),
		bigIntArg(event.PositionID),
		strings.ToLower(event.Owner.Hex()),
		event.TxHash,
		string(event.Status),
		event.Error,
		bigIntArg(event.Amount),
		event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append action event: %w", err)
	}
	return nil
}

// RecentByOwner returns the owner's most recent events, newest first.
func (j *ActionJournal) RecentByOwner(ctx context.Context, owner string, limit int) ([]entity.ActionEvent, error) {
	query := `
		SELECT action, position_id::text, owner, tx_hash, status, error, amount::text, occurred_at
		FROM action_events
		WHERE owner = $1
		ORDER BY occurred_at DESC, id DESC
		LIMIT $2
	`
	rows, err := j.pool.Query(ctx, query, strings.ToLower(owner), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query action events: %w", err)
	}
	defer rows.Close()

	var events []entity.ActionEvent
	for rows.Next() {
		event, err := scanActionEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating action events: %w", err)
	}
	return events, nil
}

func scanActionEvent(row pgx.Row) (entity.ActionEvent, error) {
	var (
		event              entity.ActionEvent
		action, status     string
		ownerHex           string
		positionID, amount *string
	)
	if err := row.Scan(&action, &positionID, &ownerHex, &event.TxHash, &status, &event.Error, &amount, &event.OccurredAt); err != nil {
		return entity.ActionEvent{}, fmt.Errorf("failed to scan action event: %w", err)
	}
	event.Action = entity.ActionType(action)
	event.Status = entity.ActionStatus(status)
	event.Owner = common.HexToAddress(ownerHex)
	if positionID != nil {
		v, ok := new(big.Int).SetString(*positionID, 10)
		if !ok {
			return entity.ActionEvent{}, fmt.Errorf("invalid position id in journal: %q", *positionID)
		}
		event.PositionID = v
	}
	if amount != nil {
		v, ok := new(big.Int).SetString(*amount, 10)
		if !ok {
			return entity.ActionEvent{}, fmt.Errorf("invalid amount in journal: %q", *amount)
		}
		event.Amount = v
	}
	return event, nil
}

// bigIntArg maps a nil *big.Int to SQL NULL. Values go over the wire as
// decimal strings so wei-scale amounts survive exactly.
func bigIntArg(v *big.Int) any {
	if v == nil {
		return nil
	}
	return v.String()
}
