package testutil

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/ports/outbound"
)

// MockProtocolWriter implements outbound.ProtocolWriter for testing. Each
// method records its arguments so tests can assert on what was submitted.
type MockProtocolWriter struct {
	mu sync.Mutex

	ApproveFn            func(ctx context.Context, token, spender common.Address, amount *big.Int) (outbound.TxHash, error)
	DepositCollateralFn  func(ctx context.Context, positionID, amount *big.Int) (outbound.TxHash, error)
	WithdrawCollateralFn func(ctx context.Context, positionID, amount *big.Int) (outbound.TxHash, error)
	ClosePositionFn      func(ctx context.Context, positionID *big.Int) (outbound.TxHash, error)
	CreatePositionFn     func(ctx context.Context, synthetic, collateral common.Address, collateralAmount, targetRatio *big.Int) (outbound.TxHash, error)
	MintMockTokensFn     func(ctx context.Context, token common.Address, amount *big.Int) (outbound.TxHash, error)
	AwaitConfirmationFn  func(ctx context.Context, hash outbound.TxHash, confirmations int) (*outbound.Receipt, error)

	ApproveCalls            int
	DepositCollateralCalls  int
	WithdrawCollateralCalls int
	ClosePositionCalls      int
	CreatePositionCalls     int
	MintMockTokensCalls     int
	AwaitConfirmationCalls  int

	// ApprovedAmounts collects the amount of every Approve call in order.
	ApprovedAmounts []*big.Int
	// Submitted collects the hash returned by every submission in order.
	Submitted []outbound.TxHash
}

var _ outbound.ProtocolWriter = (*MockProtocolWriter)(nil)

func NewMockProtocolWriter() *MockProtocolWriter {
	return &MockProtocolWriter{}
}

func (m *MockProtocolWriter) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (outbound.TxHash, error) {
	m.mu.Lock()
	m.ApproveCalls++
	m.ApprovedAmounts = append(m.ApprovedAmounts, new(big.Int).Set(amount))
	m.mu.Unlock()
	if m.ApproveFn != nil {
		hash, err := m.ApproveFn(ctx, token, spender, amount)
		m.recordSubmitted(hash, err)
		return hash, err
	}
	return "", errors.New("Approve not mocked")
}

func (m *MockProtocolWriter) DepositCollateral(ctx context.Context, positionID, amount *big.Int) (outbound.TxHash, error) {
	m.mu.Lock()
	m.DepositCollateralCalls++
	m.mu.Unlock()
	if m.DepositCollateralFn != nil {
		hash, err := m.DepositCollateralFn(ctx, positionID, amount)
		m.recordSubmitted(hash, err)
		return hash, err
	}
	return "", errors.New("DepositCollateral not mocked")
}

func (m *MockProtocolWriter) WithdrawCollateral(ctx context.Context, positionID, amount *big.Int) (outbound.TxHash, error) {
	m.mu.Lock()
	m.WithdrawCollateralCalls++
	m.mu.Unlock()
	if m.WithdrawCollateralFn != nil {
		hash, err := m.WithdrawCollateralFn(ctx, positionID, amount)
		m.recordSubmitted(hash, err)
		return hash, err
	}
	return "", errors.New("WithdrawCollateral not mocked")
}

func (m *MockProtocolWriter) ClosePosition(ctx context.Context, positionID *big.Int) (outbound.TxHash, error) {
	m.mu.Lock()
	m.ClosePositionCalls++
	m.mu.Unlock()
	if m.ClosePositionFn != nil {
		hash, err := m.ClosePositionFn(ctx, positionID)
		m.recordSubmitted(hash, err)
		return hash, err
	}
	return "", errors.New("ClosePosition not mocked")
}

func (m *MockProtocolWriter) CreatePosition(ctx context.Context, synthetic, collateral common.Address, collateralAmount, targetRatio *big.Int) (outbound.TxHash, error) {
	m.mu.Lock()
	m.CreatePositionCalls++
	m.mu.Unlock()
	if m.CreatePositionFn != nil {
		hash, err := m.CreatePositionFn(ctx, synthetic, collateral, collateralAmount, targetRatio)
		m.recordSubmitted(hash, err)
		return hash, err
	}
	return "", errors.New("CreatePosition not mocked")
}

func (m *MockProtocolWriter) MintMockTokens(ctx context.Context, token common.Address, amount *big.Int) (outbound.TxHash, error) {
	m.mu.Lock()
	m.MintMockTokensCalls++
	m.mu.Unlock()
	if m.MintMockTokensFn != nil {
		hash, err := m.MintMockTokensFn(ctx, token, amount)
		m.recordSubmitted(hash, err)
		return hash, err
	}
	return "", errors.New("MintMockTokens not mocked")
}

func (m *MockProtocolWriter) AwaitConfirmation(ctx context.Context, hash outbound.TxHash, confirmations int) (*outbound.Receipt, error) {
	m.mu.Lock()
	m.AwaitConfirmationCalls++
	m.mu.Unlock()
	if m.AwaitConfirmationFn != nil {
		return m.AwaitConfirmationFn(ctx, hash, confirmations)
	}
	// Default to an immediately confirmed, successful receipt.
	return &outbound.Receipt{TxHash: hash, BlockNumber: 1}, nil
}

func (m *MockProtocolWriter) recordSubmitted(hash outbound.TxHash, err error) {
	if err != nil {
		return
	}
	m.mu.Lock()
	m.Submitted = append(m.Submitted, hash)
	m.mu.Unlock()
}
