package entity

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ActionType identifies a user-initiated protocol action.
type ActionType string

const (
	ActionDeposit  ActionType = "deposit"
	ActionWithdraw ActionType = "withdraw"
	ActionMint     ActionType = "mint"
	ActionClose    ActionType = "close"
	ActionApprove  ActionType = "approve"
	// ActionMockMint is the testnet faucet mint on mock collateral tokens.
	ActionMockMint ActionType = "mock_mint"
)

// RequiresApproval reports whether the action moves caller-held tokens into
// the protocol and therefore may need an ERC-20 approval first. Withdraw and
// close move protocol-held assets out and never need one.
func (a ActionType) RequiresApproval() bool {
	return a == ActionDeposit || a == ActionMint
}

// ActionStatus is the terminal outcome of a submitted action.
type ActionStatus string

const (
	ActionStatusConfirmed ActionStatus = "confirmed"
	ActionStatusFailed    ActionStatus = "failed"
)

// ActionEvent records one submitted action reaching a terminal state. It is
// appended to the action journal and published to the event sink exactly once
// per submission.
type ActionEvent struct {
	Action     ActionType     `json:"action"`
	PositionID *big.Int       `json:"positionId,omitempty"`
	Owner      common.Address `json:"owner"`
	TxHash     string         `json:"txHash"`
	Status     ActionStatus   `json:"status"`
	Error      string         `json:"error,omitempty"`
	Amount     *big.Int       `json:"amount,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}
