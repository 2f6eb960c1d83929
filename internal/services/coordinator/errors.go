package coordinator

import "errors"

// Local validation errors. These short-circuit before any write call and are
// surfaced as inline form errors, never logged as unexpected.
var (
	// ErrAmountExceedsAvailable is returned when a withdrawal asks for more
	// than the position's collateral.
	ErrAmountExceedsAvailable = errors.New("amount exceeds available collateral")

	// ErrInsufficientSyntheticBalance is returned when the wallet does not
	// hold enough synthetic tokens to burn on close.
	ErrInsufficientSyntheticBalance = errors.New("insufficient synthetic balance")

	// ErrRatioBelowMinimum is returned when a withdrawal would leave the
	// position below the protocol's minimum ratio at submission time.
	ErrRatioBelowMinimum = errors.New("projected ratio below protocol minimum")

	// ErrTargetRatioOutOfRange is returned when a mint target ratio falls
	// outside [protocol minimum, 250%].
	ErrTargetRatioOutOfRange = errors.New("target ratio out of range")

	// ErrPositionNotActionable is returned for actions against an inactive
	// position.
	ErrPositionNotActionable = errors.New("position is not actionable")

	// ErrSubmissionInProgress guards against duplicate submission of the same
	// session while a transaction is in flight.
	ErrSubmissionInProgress = errors.New("submission already in progress")

	// ErrSessionClosed is returned when an action is attempted on a closed
	// dialog session.
	ErrSessionClosed = errors.New("session closed")

	// ErrAllowanceNotLoaded is returned when submission is attempted before a
	// fresh allowance read completed.
	ErrAllowanceNotLoaded = errors.New("allowance not loaded")
)
