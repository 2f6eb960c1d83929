// Package coordinator implements the position action coordinator: debounced
// ratio projections, the allowance gate, and the transaction sequencer that
// drives deposit, withdraw, mint, and close flows against the protocol
// contracts.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/domain/entity"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/ports/outbound"
)

const tracerName = "github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/services/coordinator"

// Config holds the coordinator's collaborators and tuning.
type Config struct {
	// Reader and Writer are the protocol contract boundary.
	Reader outbound.ProtocolReader
	Writer outbound.ProtocolWriter

	// Notifier delivers user-facing notifications.
	Notifier outbound.Notifier

	// Owner is the connected wallet address.
	Owner common.Address

	// Spender is the contract granted ERC-20 approvals (the position manager).
	Spender common.Address

	// Journal and Sink record terminal action events. Both optional; failures
	// are logged and never fail the action.
	Journal outbound.ActionJournal
	Sink    outbound.EventSink

	// Metrics is optional.
	Metrics outbound.MetricsRecorder

	// Debounce is the idle window before a projection query fires.
	Debounce time.Duration

	// Confirmations per action kind.
	Confirmations        int
	CloseConfirmations   int
	ApproveConfirmations int

	// TxURL builds a block explorer link for a transaction hash.
	TxURL func(hash string) string

	Logger *slog.Logger
}

// ConfigDefaults returns a Config with reference tuning values.
func ConfigDefaults() Config {
	return Config{
		Debounce:             800 * time.Millisecond,
		Confirmations:        1,
		CloseConfirmations:   2,
		ApproveConfirmations: 1,
		Logger:               slog.Default(),
	}
}

// Coordinator owns per-dialog sessions and their shared collaborators.
type Coordinator struct {
	cfg  Config
	proj *projector
	now  func() time.Time
}

// New validates the config and creates a Coordinator.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Reader == nil {
		return nil, fmt.Errorf("coordinator requires a protocol reader")
	}
	if cfg.Writer == nil {
		return nil, fmt.Errorf("coordinator requires a protocol writer")
	}
	if cfg.Notifier == nil {
		return nil, fmt.Errorf("coordinator requires a notifier")
	}
	if (cfg.Spender == common.Address{}) {
		return nil, fmt.Errorf("coordinator requires a spender address")
	}
	defaults := ConfigDefaults()
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaults.Debounce
	}
	if cfg.Confirmations <= 0 {
		cfg.Confirmations = defaults.Confirmations
	}
	if cfg.CloseConfirmations <= 0 {
		cfg.CloseConfirmations = defaults.CloseConfirmations
	}
	if cfg.ApproveConfirmations <= 0 {
		cfg.ApproveConfirmations = defaults.ApproveConfirmations
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.TxURL == nil {
		cfg.TxURL = func(hash string) string { return hash }
	}

	return &Coordinator{
		cfg:  cfg,
		proj: &projector{reader: cfg.Reader},
		now:  time.Now,
	}, nil
}

func (c *Coordinator) nowNanos() int64 {
	return c.now().UnixNano()
}

func (c *Coordinator) sinceNanos(start int64) time.Duration {
	return time.Duration(c.nowNanos() - start)
}

// OpenSession opens a dialog session against an existing position. The
// position must be actionable; the collateral metadata must carry decimals.
// A fresh allowance read is attempted; on failure the allowance stays
// unloaded and the gate blocks until RefreshAllowance succeeds.
func (c *Coordinator) OpenSession(ctx context.Context, pos *entity.Position, collateral *entity.AssetInfo, onSuccess func()) (*Session, error) {
	if err := pos.Validate(); err != nil {
		return nil, fmt.Errorf("invalid position snapshot: %w", err)
	}
	if !pos.Actionable() {
		return nil, ErrPositionNotActionable
	}
	if err := collateral.Validate(); err != nil {
		return nil, fmt.Errorf("invalid collateral metadata: %w", err)
	}

	s := &Session{
		c:          c,
		position:   pos,
		collateral: collateral,
		onSuccess:  onSuccess,
		deb:        newDebouncer(c.cfg.Debounce),
	}
	if err := s.RefreshAllowance(ctx); err != nil {
		c.cfg.Logger.Warn("allowance read failed on session open", "error", err)
	}
	return s, nil
}

// OpenMintSession opens a dialog session for creating a new position with the
// given synthetic/collateral pair.
func (c *Coordinator) OpenMintSession(ctx context.Context, synthetic, collateral *entity.AssetInfo, onSuccess func()) (*Session, error) {
	if err := synthetic.Validate(); err != nil {
		return nil, fmt.Errorf("invalid synthetic metadata: %w", err)
	}
	if err := collateral.Validate(); err != nil {
		return nil, fmt.Errorf("invalid collateral metadata: %w", err)
	}

	s := &Session{
		c:          c,
		synthetic:  synthetic,
		collateral: collateral,
		onSuccess:  onSuccess,
		deb:        newDebouncer(c.cfg.Debounce),
	}
	if err := s.RefreshAllowance(ctx); err != nil {
		c.cfg.Logger.Warn("allowance read failed on session open", "error", err)
	}
	return s, nil
}

// MintMockTokens runs the testnet faucet flow: submit the mock-token mint,
// wait for one confirmation, and fire terminal side effects. No session or
// approval is involved; the faucet mints directly to the caller.
func (c *Coordinator) MintMockTokens(ctx context.Context, token common.Address, amountMinor *big.Int) error {
	if amountMinor == nil || amountMinor.Sign() <= 0 {
		return fmt.Errorf("faucet amount must be positive")
	}

	start := c.nowNanos()
	hash, err := c.cfg.Writer.MintMockTokens(ctx, token, amountMinor)
	if err != nil {
		c.recordOneShot(ctx, entity.ActionMockMint, "", amountMinor, start, err)
		return fmt.Errorf("submitting faucet mint: %w", err)
	}
	if m := c.cfg.Metrics; m != nil {
		m.RecordSubmission(ctx, entity.ActionMockMint)
	}

	receipt, err := c.cfg.Writer.AwaitConfirmation(ctx, hash, c.cfg.Confirmations)
	if err == nil && receipt.Reverted {
		err = fmt.Errorf("faucet mint reverted on chain")
	}
	c.recordOneShot(ctx, entity.ActionMockMint, hash, amountMinor, start, err)
	if err != nil {
		c.cfg.Notifier.Notify(ctx, outbound.Notification{
			Level:       outbound.NotificationError,
			Message:     "Faucet mint failed",
			Description: err.Error(),
		})
		return err
	}

	c.cfg.Notifier.Notify(ctx, outbound.Notification{
		Level:       outbound.NotificationSuccess,
		Message:     "Test tokens minted.",
		ActionLabel: "View on Explorer",
		ActionURL:   c.cfg.TxURL(string(hash)),
	})
	return nil
}

// recordOneShot writes journal, sink, and metrics records for flows that run
// outside a session.
func (c *Coordinator) recordOneShot(ctx context.Context, action entity.ActionType, hash outbound.TxHash, amountMinor *big.Int, start int64, cause error) {
	status := entity.ActionStatusConfirmed
	if cause != nil {
		status = entity.ActionStatusFailed
	}
	event := entity.ActionEvent{
		Action:     action,
		Owner:      c.cfg.Owner,
		TxHash:     string(hash),
		Status:     status,
		Amount:     amountMinor,
		OccurredAt: time.Unix(0, c.nowNanos()),
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	if j := c.cfg.Journal; j != nil {
		if err := j.Append(ctx, event); err != nil {
			c.cfg.Logger.Warn("action journal append failed", "action", action, "error", err)
		}
	}
	if sink := c.cfg.Sink; sink != nil {
		if err := sink.Publish(ctx, event); err != nil {
			c.cfg.Logger.Warn("action event publish failed", "action", action, "error", err)
		}
	}
	if m := c.cfg.Metrics; m != nil {
		m.RecordTerminal(ctx, action, status, c.sinceNanos(start))
	}
}

// Positions returns fresh snapshots of the owner's actionable positions.
// Inactive positions are filtered out.
func (c *Coordinator) Positions(ctx context.Context) ([]*entity.Position, error) {
	all, err := c.cfg.Reader.PositionsByOwner(ctx, c.cfg.Owner)
	if err != nil {
		return nil, fmt.Errorf("reading positions: %w", err)
	}
	actionable := make([]*entity.Position, 0, len(all))
	for _, p := range all {
		if p.Actionable() {
			actionable = append(actionable, p)
		}
	}
	return actionable, nil
}
