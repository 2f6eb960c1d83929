package entity

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func validPosition() *Position {
	return &Position{
		PositionID:       big.NewInt(7),
		Owner:            common.HexToAddress("0x1111111111111111111111111111111111111111"),
		SyntheticAsset:   common.HexToAddress("0x2222222222222222222222222222222222222222"),
		SyntheticSymbol:  "sDOW",
		CollateralAsset:  common.HexToAddress("0x3333333333333333333333333333333333333333"),
		CollateralSymbol: "mUSDC",
		CollateralAmount: big.NewInt(1_000_000),
		MintedAmount:     big.NewInt(500),
		IsActive:         true,
		CurrentRatio:     big.NewInt(18500),
		RequiredRatio:    big.NewInt(15000),
	}
}

func TestPositionValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Position)
		wantErr     bool
		errContains string
	}{
		{
			name:   "valid position",
			mutate: func(p *Position) {},
		},
		{
			name:        "nil position id",
			mutate:      func(p *Position) { p.PositionID = nil },
			wantErr:     true,
			errContains: "positionId",
		},
		{
			name:        "negative collateral",
			mutate:      func(p *Position) { p.CollateralAmount = big.NewInt(-1) },
			wantErr:     true,
			errContains: "collateralAmount",
		},
		{
			name:        "nil minted amount",
			mutate:      func(p *Position) { p.MintedAmount = nil },
			wantErr:     true,
			errContains: "mintedAmount",
		},
		{
			name:        "negative minted amount",
			mutate:      func(p *Position) { p.MintedAmount = big.NewInt(-5) },
			wantErr:     true,
			errContains: "mintedAmount",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPosition()
			tt.mutate(p)
			err := p.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error %q does not contain %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestPositionActionable(t *testing.T) {
	p := validPosition()
	if !p.Actionable() {
		t.Error("active position should be actionable")
	}
	p.IsActive = false
	if p.Actionable() {
		t.Error("inactive position must not be actionable")
	}
}

func TestPositionCurrentRatioPercent(t *testing.T) {
	p := validPosition()
	if got := p.CurrentRatioPercent(); got != 185.00 {
		t.Errorf("CurrentRatioPercent() = %v, want 185.00", got)
	}
}
