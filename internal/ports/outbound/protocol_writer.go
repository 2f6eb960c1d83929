package outbound

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TxHash identifies a submitted transaction.
type TxHash string

// Receipt is the confirmation result for a submitted transaction.
type Receipt struct {
	TxHash      TxHash
	BlockNumber int64
	// Reverted is true when the transaction was mined but the call failed.
	Reverted bool
}

// ProtocolWriter submits state-changing transactions to the protocol
// contracts. Submission returns as soon as the network accepts the
// transaction; confirmation is a separate wait.
type ProtocolWriter interface {
	// Approve grants the spender an ERC-20 allowance of exactly amount.
	Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (TxHash, error)

	// DepositCollateral adds collateral to an open position.
	DepositCollateral(ctx context.Context, positionID, amount *big.Int) (TxHash, error)

	// WithdrawCollateral removes collateral from an open position.
	WithdrawCollateral(ctx context.Context, positionID, amount *big.Int) (TxHash, error)

	// ClosePosition burns the position's minted debt and returns its collateral.
	ClosePosition(ctx context.Context, positionID *big.Int) (TxHash, error)

	// CreatePosition opens a new position, depositing collateralAmount and
	// minting synthetic tokens at targetRatio (basis points).
	CreatePosition(ctx context.Context, synthetic, collateral common.Address, collateralAmount, targetRatio *big.Int) (TxHash, error)

	// MintMockTokens mints testnet collateral from a mock token faucet.
	MintMockTokens(ctx context.Context, token common.Address, amount *big.Int) (TxHash, error)

	// AwaitConfirmation blocks until the transaction has the requested number
	// of confirmations, the transaction fails, or ctx is done. No timeout is
	// imposed here beyond the context.
	AwaitConfirmation(ctx context.Context, hash TxHash, confirmations int) (*Receipt, error)
}
