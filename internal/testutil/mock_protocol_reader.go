package testutil

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/domain/entity"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/ports/outbound"
)

// MockProtocolReader implements outbound.ProtocolReader for testing.
// Behavior is driven by the Fn fields; unset methods return an error.
type MockProtocolReader struct {
	mu sync.Mutex

	ProtocolFeeFn              func(ctx context.Context) (*big.Int, error)
	EffectiveCollateralRatioFn func(ctx context.Context, synthetic, collateral common.Address) (*big.Int, error)
	UsdValueFn                 func(ctx context.Context, asset common.Address, amount *big.Int, decimals int) (*big.Int, error)
	RequiredCollateralFn       func(ctx context.Context, synthetic, collateral common.Address, mintedAmount *big.Int) (*big.Int, error)
	MintPreviewFn              func(ctx context.Context, synthetic, collateral common.Address, collateralAmount, targetRatio *big.Int) (*outbound.MintPreview, error)
	BalanceOfFn                func(ctx context.Context, token, owner common.Address) (*big.Int, error)
	AllowanceFn                func(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	PositionFn                 func(ctx context.Context, positionID *big.Int) (*entity.Position, error)
	PositionsByOwnerFn         func(ctx context.Context, owner common.Address) ([]*entity.Position, error)
	AssetInfoFn                func(ctx context.Context, token common.Address) (*entity.AssetInfo, error)

	ProtocolFeeCalls              int
	EffectiveCollateralRatioCalls int
	UsdValueCalls                 int
	RequiredCollateralCalls       int
	MintPreviewCalls              int
	BalanceOfCalls                int
	AllowanceCalls                int
	PositionCalls                 int
	PositionsByOwnerCalls         int
	AssetInfoCalls                int
}

var _ outbound.ProtocolReader = (*MockProtocolReader)(nil)

func NewMockProtocolReader() *MockProtocolReader {
	return &MockProtocolReader{}
}

func (m *MockProtocolReader) ProtocolFee(ctx context.Context) (*big.Int, error) {
	m.mu.Lock()
	m.ProtocolFeeCalls++
	m.mu.Unlock()
	if m.ProtocolFeeFn != nil {
		return m.ProtocolFeeFn(ctx)
	}
	return nil, errors.New("ProtocolFee not mocked")
}

func (m *MockProtocolReader) EffectiveCollateralRatio(ctx context.Context, synthetic, collateral common.Address) (*big.Int, error) {
	m.mu.Lock()
	m.EffectiveCollateralRatioCalls++
	m.mu.Unlock()
	if m.EffectiveCollateralRatioFn != nil {
		return m.EffectiveCollateralRatioFn(ctx, synthetic, collateral)
	}
	return nil, errors.New("EffectiveCollateralRatio not mocked")
}

func (m *MockProtocolReader) UsdValue(ctx context.Context, asset common.Address, amount *big.Int, decimals int) (*big.Int, error) {
	m.mu.Lock()
	m.UsdValueCalls++
	m.mu.Unlock()
	if m.UsdValueFn != nil {
		return m.UsdValueFn(ctx, asset, amount, decimals)
	}
	return nil, errors.New("UsdValue not mocked")
}

func (m *MockProtocolReader) RequiredCollateral(ctx context.Context, synthetic, collateral common.Address, mintedAmount *big.Int) (*big.Int, error) {
	m.mu.Lock()
	m.RequiredCollateralCalls++
	m.mu.Unlock()
	if m.RequiredCollateralFn != nil {
		return m.RequiredCollateralFn(ctx, synthetic, collateral, mintedAmount)
	}
	return nil, errors.New("RequiredCollateral not mocked")
}

func (m *MockProtocolReader) MintPreview(ctx context.Context, synthetic, collateral common.Address, collateralAmount, targetRatio *big.Int) (*outbound.MintPreview, error) {
	m.mu.Lock()
	m.MintPreviewCalls++
	m.mu.Unlock()
	if m.MintPreviewFn != nil {
		return m.MintPreviewFn(ctx, synthetic, collateral, collateralAmount, targetRatio)
	}
	return nil, errors.New("MintPreview not mocked")
}

func (m *MockProtocolReader) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	m.mu.Lock()
	m.BalanceOfCalls++
	m.mu.Unlock()
	if m.BalanceOfFn != nil {
		return m.BalanceOfFn(ctx, token, owner)
	}
	return nil, errors.New("BalanceOf not mocked")
}

func (m *MockProtocolReader) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	m.mu.Lock()
	m.AllowanceCalls++
	m.mu.Unlock()
	if m.AllowanceFn != nil {
		return m.AllowanceFn(ctx, token, owner, spender)
	}
	return nil, errors.New("Allowance not mocked")
}

func (m *MockProtocolReader) Position(ctx context.Context, positionID *big.Int) (*entity.Position, error) {
	m.mu.Lock()
	m.PositionCalls++
	m.mu.Unlock()
	if m.PositionFn != nil {
		return m.PositionFn(ctx, positionID)
	}
	return nil, errors.New("Position not mocked")
}

func (m *MockProtocolReader) PositionsByOwner(ctx context.Context, owner common.Address) ([]*entity.Position, error) {
	m.mu.Lock()
	m.PositionsByOwnerCalls++
	m.mu.Unlock()
	if m.PositionsByOwnerFn != nil {
		return m.PositionsByOwnerFn(ctx, owner)
	}
	return nil, errors.New("PositionsByOwner not mocked")
}

func (m *MockProtocolReader) AssetInfo(ctx context.Context, token common.Address) (*entity.AssetInfo, error) {
	m.mu.Lock()
	m.AssetInfoCalls++
	m.mu.Unlock()
	if m.AssetInfoFn != nil {
		return m.AssetInfoFn(ctx, token)
	}
	return nil, errors.New("AssetInfo not mocked")
}
