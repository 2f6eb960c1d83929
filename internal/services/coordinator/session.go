package coordinator

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/domain/entity"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/pkg/amount"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/ports/outbound"
)

// Phase is the submission lifecycle state of a session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
	PhaseSent
	PhaseConfirmed
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSent:
		return "sent"
	case PhaseConfirmed:
		return "confirmed"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session is one dialog instance bound to one position (or, for mint
// sessions, one asset pair). All pending state lives here and is discarded
// when the session closes; nothing survives across dialog opens.
type Session struct {
	c *Coordinator

	// Immutable for the session's lifetime.
	position   *entity.Position  // nil for mint sessions
	synthetic  *entity.AssetInfo // mint sessions only
	collateral *entity.AssetInfo
	onSuccess  func()

	deb *debouncer

	mu            sync.Mutex
	closed        bool
	phase         Phase
	pendingAmount *big.Int
	targetRatio   *big.Int // mint sessions, basis points
	projection    *Projection
	allowance     *big.Int
	cur           *submission
}

// submission tracks one transaction from submission to terminal state.
type submission struct {
	action        entity.ActionType
	hash          outbound.TxHash
	confirmations int
	startedAt     int64 // unix nanos, for terminal duration metrics
	terminal      bool
}

// SetDepositAmount validates a user-entered deposit amount and schedules a
// debounced ratio projection. Validation errors are returned synchronously;
// the projection lands asynchronously via Projection().
func (s *Session) SetDepositAmount(ctx context.Context, value string) error {
	minor, err := amount.ParseToMinorUnits(value, s.collateral.Decimals)
	if err != nil {
		return err
	}
	if minor.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be greater than 0", amount.ErrInvalidAmount)
	}
	if s.collateral.Balance != nil && minor.Cmp(s.collateral.Balance) > 0 {
		return fmt.Errorf("%w: amount must be within balance", ErrAmountExceedsAvailable)
	}

	s.setPending(minor, nil)
	s.deb.trigger(func(gen uint64) {
		start := s.c.nowNanos()
		proj, err := s.c.proj.projectDeposit(ctx, s.position, s.collateral, minor)
		if err != nil {
			s.c.cfg.Logger.Warn("deposit projection failed", "error", err)
			return
		}
		s.commitProjection(ctx, gen, proj, start)
	})
	return nil
}

// SetWithdrawAmount validates a user-entered withdrawal amount and schedules
// a debounced fee and ratio projection.
func (s *Session) SetWithdrawAmount(ctx context.Context, value string) error {
	minor, err := amount.ParseToMinorUnits(value, s.collateral.Decimals)
	if err != nil {
		return err
	}
	if minor.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be greater than 0", amount.ErrInvalidAmount)
	}
	if minor.Cmp(s.position.CollateralAmount) > 0 {
		return ErrAmountExceedsAvailable
	}

	s.setPending(minor, nil)
	s.deb.trigger(func(gen uint64) {
		start := s.c.nowNanos()
		proj, err := s.c.proj.projectWithdraw(ctx, s.position, s.collateral, minor)
		if err != nil {
			s.c.cfg.Logger.Warn("withdraw projection failed", "error", err)
			return
		}
		s.commitProjection(ctx, gen, proj, start)
	})
	return nil
}

// SetMintParameters validates the collateral amount and target ratio for a
// mint session and schedules a debounced mint preview. targetRatioPercent is
// bounded above by 250%; the protocol minimum is enforced once known.
func (s *Session) SetMintParameters(ctx context.Context, collateralValue string, targetRatioPercent float64) error {
	minor, err := amount.ParseToMinorUnits(collateralValue, s.collateral.Decimals)
	if err != nil {
		return err
	}
	if minor.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be greater than 0", amount.ErrInvalidAmount)
	}
	targetRatio := entity.PercentToBasisPoints(targetRatioPercent)
	if targetRatio.Sign() <= 0 || targetRatio.Cmp(big.NewInt(MaxTargetRatioBps)) > 0 {
		return ErrTargetRatioOutOfRange
	}

	s.setPending(minor, targetRatio)
	s.deb.trigger(func(gen uint64) {
		start := s.c.nowNanos()
		proj, err := s.c.proj.projectMint(ctx, s.synthetic, s.collateral, minor, targetRatio)
		if err != nil {
			s.c.cfg.Logger.Warn("mint projection failed", "error", err)
			return
		}
		s.commitProjection(ctx, gen, proj, start)
	})
	return nil
}

// Projection returns the latest committed projection, or nil when none has
// landed yet.
func (s *Session) Projection() *Projection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.projection == nil {
		return nil
	}
	p := *s.projection
	return &p
}

// Phase returns the current submission phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Allowance returns the last-known allowance, nil when not yet loaded.
func (s *Session) Allowance() *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.allowance == nil {
		return nil
	}
	return new(big.Int).Set(s.allowance)
}

// RefreshAllowance re-reads the collateral allowance for the spender.
func (s *Session) RefreshAllowance(ctx context.Context) error {
	a, err := s.c.cfg.Reader.Allowance(ctx, s.collateral.TokenAddress, s.c.cfg.Owner, s.c.cfg.Spender)
	if err != nil {
		return fmt.Errorf("reading allowance: %w", err)
	}
	s.mu.Lock()
	s.allowance = a
	s.mu.Unlock()
	return nil
}

// MaxWithdrawable returns the most collateral that can be withdrawn while
// keeping the position safely above its required ratio.
func (s *Session) MaxWithdrawable(ctx context.Context) (*big.Int, error) {
	if s.position == nil {
		return nil, ErrPositionNotActionable
	}
	return s.c.proj.maxWithdrawable(ctx, s.position)
}

// Close closes the session. Pending projections are invalidated and any
// in-flight submission keeps running on chain, but no further UI side effects
// fire from it.
func (s *Session) Close() {
	s.deb.stop()
	s.mu.Lock()
	s.closed = true
	s.pendingAmount = nil
	s.targetRatio = nil
	s.projection = nil
	s.mu.Unlock()
}

func (s *Session) setPending(minor, targetRatio *big.Int) {
	s.mu.Lock()
	s.pendingAmount = minor
	s.targetRatio = targetRatio
	s.mu.Unlock()
}

// commitProjection applies a completed projection query iff its generation is
// still current and the session is still open (last-write-wins).
func (s *Session) commitProjection(ctx context.Context, gen uint64, proj *Projection, start int64) {
	s.mu.Lock()
	committed := !s.closed && !s.deb.stale(gen)
	if committed {
		s.projection = proj
	}
	s.mu.Unlock()

	if m := s.c.cfg.Metrics; m != nil {
		m.RecordProjection(ctx, proj.Action, s.c.sinceNanos(start), committed)
	}
}
