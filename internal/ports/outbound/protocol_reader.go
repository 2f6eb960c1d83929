// Package outbound defines the outbound port interfaces.
package outbound

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/domain/entity"
)

// MintPreview is the lens reply for a prospective mint at a target ratio.
type MintPreview struct {
	// MintAmount is the synthetic amount minted at the target ratio, in minor
	// units of the synthetic token.
	MintAmount *big.Int
	// MaxMintable is the largest synthetic amount the collateral supports at
	// the minimum required ratio.
	MaxMintable *big.Int
	// EffectiveRatio is the ratio the mint would actually land at, basis points.
	EffectiveRatio *big.Int
	// MinRequiredRatio is the protocol minimum for this asset pair, basis points.
	MinRequiredRatio *big.Int
}

// ProtocolReader is the read-only view onto the protocol contracts. All
// business rules live on chain; this interface only fetches their outputs.
// Implementations must not cache position, balance, or allowance reads.
type ProtocolReader interface {
	// ProtocolFee returns the protocol fee in basis points (factory).
	ProtocolFee(ctx context.Context) (*big.Int, error)

	// EffectiveCollateralRatio returns the minimum required collateralization
	// ratio for the asset pair, basis points (factory).
	EffectiveCollateralRatio(ctx context.Context, synthetic, collateral common.Address) (*big.Int, error)

	// UsdValue returns the oracle USD value of an amount of the asset. The
	// result carries the oracle's fixed-point scale, not the token's.
	UsdValue(ctx context.Context, asset common.Address, amount *big.Int, decimals int) (*big.Int, error)

	// RequiredCollateral returns the collateral needed to back mintedAmount of
	// the synthetic at the minimum ratio (position manager).
	RequiredCollateral(ctx context.Context, synthetic, collateral common.Address, mintedAmount *big.Int) (*big.Int, error)

	// MintPreview asks the lens what a mint of collateralAmount at targetRatio
	// (basis points) would produce.
	MintPreview(ctx context.Context, synthetic, collateral common.Address, collateralAmount, targetRatio *big.Int) (*MintPreview, error)

	// BalanceOf returns the owner's ERC-20 balance in minor units.
	BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error)

	// Allowance returns the (owner, token, spender) ERC-20 allowance.
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)

	// Position returns a fresh snapshot of one position (lens).
	Position(ctx context.Context, positionID *big.Int) (*entity.Position, error)

	// PositionsByOwner returns fresh snapshots of all of the owner's positions.
	PositionsByOwner(ctx context.Context, owner common.Address) ([]*entity.Position, error)

	// AssetInfo returns token metadata (symbol, decimals, active flag).
	AssetInfo(ctx context.Context, token common.Address) (*entity.AssetInfo, error)
}
