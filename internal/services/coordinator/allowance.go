package coordinator

import "math/big"

// SubmissionDecision is the allowance gate's verdict immediately before a
// token-moving action is submitted.
type SubmissionDecision int

const (
	// AwaitAllowance blocks submission until a fresh allowance read lands.
	AwaitAllowance SubmissionDecision = iota
	// ApproveFirst requires an approval transaction for exactly the required
	// amount before the primary action.
	ApproveFirst
	// Proceed submits the primary action directly.
	Proceed
)

func (d SubmissionDecision) String() string {
	switch d {
	case AwaitAllowance:
		return "await_allowance"
	case ApproveFirst:
		return "approve_first"
	case Proceed:
		return "proceed"
	default:
		return "unknown"
	}
}

// DecideSubmission applies ERC-20 allowance semantics: a nil allowance has
// not been loaded yet, an allowance short of the required amount needs an
// approval step, anything else proceeds. Re-invoking after a confirmed
// approval with the same required amount yields Proceed.
func DecideSubmission(allowance, required *big.Int) SubmissionDecision {
	if allowance == nil {
		return AwaitAllowance
	}
	if allowance.Cmp(required) < 0 {
		return ApproveFirst
	}
	return Proceed
}
