package testutil

import (
	"io"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/domain/entity"
)

// DiscardLogger returns an slog.Logger that writes to io.Discard.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Bi returns a big.Int from an int64 literal.
func Bi(v int64) *big.Int {
	return big.NewInt(v)
}

// BiStr returns a big.Int parsed from a decimal string. Panics on bad input
// so fixtures fail loudly.
func BiStr(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("testutil: bad big.Int literal: " + s)
	}
	return v
}

// Addr returns a deterministic address derived from a small seed.
func Addr(seed byte) common.Address {
	var a common.Address
	a[common.AddressLength-1] = seed
	a[0] = 0xaa
	return a
}

// NewTestPosition returns an active position with sane defaults: 1000 units
// of 18-decimal collateral backing 500 units of synthetic debt at 200%.
func NewTestPosition(id int64, owner common.Address) *entity.Position {
	return &entity.Position{
		PositionID:          big.NewInt(id),
		Owner:               owner,
		SyntheticAsset:      Addr(0x51),
		SyntheticSymbol:     "lUSD",
		CollateralAsset:     Addr(0xc0),
		CollateralSymbol:    "WBNB",
		CollateralAmount:    BiStr("1000000000000000000000"),
		MintedAmount:        BiStr("500000000000000000000"),
		LastUpdateTimestamp: big.NewInt(1700000000),
		IsActive:            true,
		CurrentRatio:        big.NewInt(20000),
		RequiredRatio:       big.NewInt(15000),
		CollateralUsdValue:  BiStr("1000000000000000000000"),
		DebtUsdValue:        BiStr("500000000000000000000"),
	}
}

// NewTestAsset returns active 18-decimal token metadata.
func NewTestAsset(token common.Address, symbol string) *entity.AssetInfo {
	return &entity.AssetInfo{
		TokenAddress:       token,
		Name:               symbol + " Token",
		Symbol:             symbol,
		Decimals:           18,
		IsActive:           true,
		MinCollateralRatio: big.NewInt(15000),
		AuctionDiscount:    big.NewInt(1000),
	}
}
