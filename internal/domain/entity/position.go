package entity

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Position is a snapshot of a user's collateralized debt position as reported
// by the protocol lens. The client never mutates these fields directly; every
// view is a fresh read and every mutation goes through the position manager.
type Position struct {
	PositionID *big.Int
	Owner      common.Address

	SyntheticAsset   common.Address
	SyntheticSymbol  string
	CollateralAsset  common.Address
	CollateralSymbol string

	// CollateralAmount is in minor units of the collateral token.
	CollateralAmount *big.Int
	// MintedAmount is in minor units of the synthetic token (18 decimals by
	// protocol convention).
	MintedAmount *big.Int

	LastUpdateTimestamp *big.Int
	IsActive            bool

	// CurrentRatio and RequiredRatio are basis points (15000 = 150.00%).
	CurrentRatio  *big.Int
	RequiredRatio *big.Int

	IsUnderCollateralized bool
	CollateralUsdValue    *big.Int
	DebtUsdValue          *big.Int
}

// Validate checks the snapshot for values the protocol can never report.
func (p *Position) Validate() error {
	if p.PositionID == nil || p.PositionID.Sign() < 0 {
		return fmt.Errorf("positionId must be a non-negative integer")
	}
	if p.CollateralAmount == nil || p.CollateralAmount.Sign() < 0 {
		return fmt.Errorf("collateralAmount must be non-negative")
	}
	if p.MintedAmount == nil || p.MintedAmount.Sign() < 0 {
		return fmt.Errorf("mintedAmount must be non-negative")
	}
	return nil
}

// Actionable reports whether deposit/withdraw/close actions may be offered for
// this position. Inactive positions are filtered out of actionable UI.
func (p *Position) Actionable() bool {
	return p.IsActive
}

// CurrentRatioPercent returns the current collateralization ratio as a
// percentage (15000 bps -> 150.00).
func (p *Position) CurrentRatioPercent() float64 {
	return RatioPercent(p.CurrentRatio)
}
