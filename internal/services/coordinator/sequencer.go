package coordinator

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/domain/entity"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/pkg/amount"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/ports/outbound"
)

// SubmitDeposit runs the full deposit flow: allowance gate (approve first
// when short), then depositCollateral, then confirmation wait and terminal
// side effects. Blocks until a terminal state or ctx is done.
func (s *Session) SubmitDeposit(ctx context.Context) error {
	required, err := s.pendingForSubmit()
	if err != nil {
		return err
	}

	sub, err := s.begin(entity.ActionDeposit, s.c.cfg.Confirmations)
	if err != nil {
		return err
	}

	if err := s.ensureAllowance(ctx, required); err != nil {
		return err
	}

	return s.submitAndAwait(ctx, sub, required, func(ctx context.Context) (outbound.TxHash, error) {
		return s.c.cfg.Writer.DepositCollateral(ctx, s.position.PositionID, required)
	})
}

// SubmitWithdraw re-validates the amount and the projected ratio against
// fresh on-chain state at submission time, then runs withdrawCollateral.
// Withdrawals never need an approval.
func (s *Session) SubmitWithdraw(ctx context.Context) error {
	required, err := s.pendingForSubmit()
	if err != nil {
		return err
	}
	if required.Cmp(s.position.CollateralAmount) > 0 {
		return ErrAmountExceedsAvailable
	}

	sub, err := s.begin(entity.ActionWithdraw, s.c.cfg.Confirmations)
	if err != nil {
		return err
	}

	// Price and ratio may have drifted since the last debounce tick, so the
	// preview is recomputed fresh and checked against the current minimum.
	if err := s.revalidateWithdrawRatio(ctx, required); err != nil {
		s.abort(sub)
		return err
	}

	return s.submitAndAwait(ctx, sub, required, func(ctx context.Context) (outbound.TxHash, error) {
		return s.c.cfg.Writer.WithdrawCollateral(ctx, s.position.PositionID, required)
	})
}

// SubmitMint runs the create-position flow: allowance gate on the collateral,
// then createPosition at the session's target ratio.
func (s *Session) SubmitMint(ctx context.Context) error {
	required, err := s.pendingForSubmit()
	if err != nil {
		return err
	}
	s.mu.Lock()
	targetRatio := s.targetRatio
	s.mu.Unlock()
	if targetRatio == nil {
		return ErrTargetRatioOutOfRange
	}

	sub, err := s.begin(entity.ActionMint, s.c.cfg.Confirmations)
	if err != nil {
		return err
	}

	if err := s.ensureAllowance(ctx, required); err != nil {
		return err
	}

	return s.submitAndAwait(ctx, sub, required, func(ctx context.Context) (outbound.TxHash, error) {
		return s.c.cfg.Writer.CreatePosition(ctx, s.synthetic.TokenAddress, s.collateral.TokenAddress, required, targetRatio)
	})
}

// SubmitClose verifies the wallet holds enough synthetic tokens to burn the
// position's debt, then runs closePosition. The balance check is local
// validation; it issues no write.
func (s *Session) SubmitClose(ctx context.Context) error {
	if s.position == nil {
		return ErrPositionNotActionable
	}

	balance, err := s.c.cfg.Reader.BalanceOf(ctx, s.position.SyntheticAsset, s.c.cfg.Owner)
	if err != nil {
		return fmt.Errorf("reading synthetic balance: %w", err)
	}
	if balance.Cmp(s.position.MintedAmount) < 0 {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientSyntheticBalance, balance, s.position.MintedAmount)
	}

	sub, err := s.begin(entity.ActionClose, s.c.cfg.CloseConfirmations)
	if err != nil {
		return err
	}

	return s.submitAndAwait(ctx, sub, s.position.MintedAmount, func(ctx context.Context) (outbound.TxHash, error) {
		return s.c.cfg.Writer.ClosePosition(ctx, s.position.PositionID)
	})
}

// pendingForSubmit returns the validated pending amount, failing when no
// amount has been entered.
func (s *Session) pendingForSubmit() (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.pendingAmount == nil || s.pendingAmount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: no amount entered", amount.ErrInvalidAmount)
	}
	return s.pendingAmount, nil
}

// begin transitions Idle (or a previous terminal state) to Submitting,
// guarding against duplicate submission while one is in flight. A stale hash
// from an earlier submission is never carried over.
func (s *Session) begin(action entity.ActionType, confirmations int) (*submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.phase == PhaseSubmitting || s.phase == PhaseSent {
		return nil, ErrSubmissionInProgress
	}
	sub := &submission{
		action:        action,
		confirmations: confirmations,
		startedAt:     s.c.nowNanos(),
	}
	s.cur = sub
	s.phase = PhaseSubmitting
	return sub, nil
}

// abort resets a submission that failed local validation before any write.
// No notification or journal record is produced.
func (s *Session) abort(sub *submission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == sub {
		s.cur = nil
		s.phase = PhaseIdle
	}
}

// ensureAllowance runs the allowance gate: block until a fresh allowance is
// known, approve exactly the required amount when short, and re-read after
// the approval confirms. The approval always fully completes before the
// primary action is submitted.
func (s *Session) ensureAllowance(ctx context.Context, required *big.Int) error {
	if !s.currentAction().RequiresApproval() {
		return nil
	}

	for {
		s.mu.Lock()
		allowance := s.allowance
		s.mu.Unlock()

		switch DecideSubmission(allowance, required) {
		case Proceed:
			return nil

		case AwaitAllowance:
			if err := s.RefreshAllowance(ctx); err != nil {
				s.failCurrent(ctx, "", fmt.Errorf("%w: %v", ErrAllowanceNotLoaded, err))
				return ErrAllowanceNotLoaded
			}

		case ApproveFirst:
			if err := s.approve(ctx, required); err != nil {
				return err
			}
			if err := s.RefreshAllowance(ctx); err != nil {
				s.failCurrent(ctx, "", fmt.Errorf("%w: %v", ErrAllowanceNotLoaded, err))
				return ErrAllowanceNotLoaded
			}
		}
	}
}

// approve submits and confirms an approval transaction for exactly the
// required amount.
func (s *Session) approve(ctx context.Context, required *big.Int) error {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "submission.approve",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("token", s.collateral.TokenAddress.Hex())),
	)
	defer span.End()

	hash, err := s.c.cfg.Writer.Approve(ctx, s.collateral.TokenAddress, s.c.cfg.Spender, required)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "approval rejected")
		s.failCurrent(ctx, "", fmt.Errorf("approval rejected: %w", err))
		return fmt.Errorf("submitting approval: %w", err)
	}
	span.SetAttributes(attribute.String("tx.hash", string(hash)))

	s.notify(ctx, outbound.Notification{
		Level:       outbound.NotificationInfo,
		Message:     fmt.Sprintf("Approval sent for %s.", s.collateral.Symbol),
		ActionLabel: "View on Explorer",
		ActionURL:   s.c.cfg.TxURL(string(hash)),
	})

	receipt, err := s.c.cfg.Writer.AwaitConfirmation(ctx, hash, s.c.cfg.ApproveConfirmations)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "approval confirmation failed")
		s.failCurrent(ctx, hash, fmt.Errorf("approval failed: %w", err))
		return fmt.Errorf("awaiting approval: %w", err)
	}
	if receipt.Reverted {
		err := fmt.Errorf("approval reverted on chain")
		span.RecordError(err)
		span.SetStatus(codes.Error, "approval reverted")
		s.failCurrent(ctx, hash, err)
		return err
	}
	return nil
}

// submitAndAwait submits the primary transaction, emits the sent
// notification, waits for the configured confirmations, and fires terminal
// side effects exactly once.
func (s *Session) submitAndAwait(ctx context.Context, sub *submission, amountMinor *big.Int, submit func(context.Context) (outbound.TxHash, error)) error {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "submission."+string(sub.action),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("action", string(sub.action)),
			attribute.Int("confirmations", sub.confirmations),
		),
	)
	defer span.End()

	hash, err := submit(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transaction rejected")
		s.finish(ctx, sub, amountMinor, fmt.Errorf("transaction rejected: %w", err))
		return err
	}
	span.SetAttributes(attribute.String("tx.hash", string(hash)))

	s.mu.Lock()
	sub.hash = hash
	s.phase = PhaseSent
	s.mu.Unlock()

	if m := s.c.cfg.Metrics; m != nil {
		m.RecordSubmission(ctx, sub.action)
	}
	s.notify(ctx, outbound.Notification{
		Level:       outbound.NotificationInfo,
		Message:     "Transaction sent.",
		ActionLabel: "View on Explorer",
		ActionURL:   s.c.cfg.TxURL(string(hash)),
	})

	receipt, err := s.c.cfg.Writer.AwaitConfirmation(ctx, hash, sub.confirmations)
	if err == nil && receipt.Reverted {
		err = fmt.Errorf("transaction reverted on chain")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "confirmation failed")
	}
	s.finish(ctx, sub, amountMinor, err)
	return err
}

// finish drives a submission to its terminal state. For a given submission it
// fires side effects at most once; a re-delivered confirmation event is
// ignored. Journal and sink records are written regardless of dialog state;
// notifications and the refresh callback are suppressed once the session has
// closed.
func (s *Session) finish(ctx context.Context, sub *submission, amountMinor *big.Int, cause error) {
	s.mu.Lock()
	if sub.terminal {
		s.mu.Unlock()
		return
	}
	sub.terminal = true
	closed := s.closed

	status := entity.ActionStatusConfirmed
	if cause != nil {
		status = entity.ActionStatusFailed
	}
	if s.cur == sub {
		if cause != nil {
			// Reset so the user may retry; the stale hash is dropped.
			s.phase = PhaseFailed
		} else {
			s.phase = PhaseConfirmed
			s.pendingAmount = nil
			s.targetRatio = nil
			s.projection = nil
		}
		s.cur = nil
	}
	s.mu.Unlock()

	s.record(ctx, sub, amountMinor, status, cause)

	if m := s.c.cfg.Metrics; m != nil {
		m.RecordTerminal(ctx, sub.action, status, s.c.sinceNanos(sub.startedAt))
	}

	if closed {
		// The dialog is gone; no toast or refresh may fire into it.
		return
	}

	if cause != nil {
		s.notify(ctx, outbound.Notification{
			Level:       outbound.NotificationError,
			Message:     "Transaction failed",
			Description: cause.Error(),
		})
		return
	}

	n := outbound.Notification{
		Level:   outbound.NotificationSuccess,
		Message: "Transaction confirmed.",
	}
	if sub.hash != "" {
		n.ActionLabel = "View on Explorer"
		n.ActionURL = s.c.cfg.TxURL(string(sub.hash))
	}
	s.notify(ctx, n)

	if s.onSuccess != nil {
		s.onSuccess()
	}
}

// failCurrent marks the in-flight submission failed before the primary
// transaction was submitted (allowance read or approval step failures).
func (s *Session) failCurrent(ctx context.Context, hash outbound.TxHash, cause error) {
	s.mu.Lock()
	sub := s.cur
	s.mu.Unlock()
	if sub == nil {
		return
	}
	if hash != "" {
		s.mu.Lock()
		sub.hash = hash
		s.mu.Unlock()
	}
	s.finish(ctx, sub, nil, cause)
}

// revalidateWithdrawRatio recomputes the withdrawal projection against
// current prices and rejects the submission when it lands below the
// protocol's minimum ratio for the pair.
func (s *Session) revalidateWithdrawRatio(ctx context.Context, amountMinor *big.Int) error {
	minRatio, err := s.c.cfg.Reader.EffectiveCollateralRatio(ctx, s.position.SyntheticAsset, s.position.CollateralAsset)
	if err != nil {
		return fmt.Errorf("reading minimum ratio: %w", err)
	}
	proj, err := s.c.proj.projectWithdraw(ctx, s.position, s.collateral, amountMinor)
	if err != nil {
		return err
	}
	if proj.Unknown {
		// Advisory preview unavailable; the contract enforces the authoritative
		// check on submission.
		return nil
	}
	if proj.NewRatioPercent < entity.RatioPercent(minRatio) {
		return fmt.Errorf("%w: new ratio %.2f%% below minimum %.2f%%",
			ErrRatioBelowMinimum, proj.NewRatioPercent, entity.RatioPercent(minRatio))
	}
	return nil
}

// currentAction returns the action of the in-flight submission.
func (s *Session) currentAction() entity.ActionType {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return ""
	}
	return s.cur.action
}

// record appends the terminal event to the journal and publishes it to the
// event sink. Both are advisory; failures are logged only.
func (s *Session) record(ctx context.Context, sub *submission, amountMinor *big.Int, status entity.ActionStatus, cause error) {
	event := entity.ActionEvent{
		Action:     sub.action,
		Owner:      s.c.cfg.Owner,
		TxHash:     string(sub.hash),
		Status:     status,
		Amount:     amountMinor,
		OccurredAt: time.Unix(0, s.c.nowNanos()),
	}
	if s.position != nil {
		event.PositionID = s.position.PositionID
	}
	if cause != nil {
		event.Error = cause.Error()
	}

	if j := s.c.cfg.Journal; j != nil {
		if err := j.Append(ctx, event); err != nil {
			s.c.cfg.Logger.Warn("action journal append failed", "action", sub.action, "error", err)
		}
	}
	if sink := s.c.cfg.Sink; sink != nil {
		if err := sink.Publish(ctx, event); err != nil {
			s.c.cfg.Logger.Warn("action event publish failed", "action", sub.action, "error", err)
		}
	}
}

func (s *Session) notify(ctx context.Context, n outbound.Notification) {
	s.c.cfg.Notifier.Notify(ctx, n)
}
