package entity

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AssetInfo describes a token usable as collateral or as a synthetic target.
// Symbol and Decimals are immutable once a token is deployed; Balance is a
// live read and may be nil when not fetched.
type AssetInfo struct {
	TokenAddress common.Address
	Name         string
	Symbol       string
	// Decimals determines the fixed-point scale of token amounts. It must be
	// known before any amount conversion.
	Decimals int
	IsActive bool

	// Balance is the connected wallet's holding in minor units, nil when not
	// queried.
	Balance *big.Int

	// Protocol parameters, informational. Basis points.
	MinCollateralRatio *big.Int
	AuctionDiscount    *big.Int
}

// Validate checks required metadata. A zero-decimals token is valid; a
// negative or out-of-range value is not.
func (a *AssetInfo) Validate() error {
	if (a.TokenAddress == common.Address{}) {
		return fmt.Errorf("token address must not be zero")
	}
	if a.Symbol == "" {
		return fmt.Errorf("symbol must not be empty")
	}
	if a.Decimals < 0 || a.Decimals > 18 {
		return fmt.Errorf("decimals must be in [0,18], got %d", a.Decimals)
	}
	return nil
}
