package entity

import (
	"math"
	"math/big"
)

// RiskBand classifies a projected collateralization ratio for display.
type RiskBand string

const (
	RiskBandUnknown            RiskBand = "unknown"
	RiskBandDanger             RiskBand = "danger"
	RiskBandCloseToLiquidation RiskBand = "close to liquidation"
	RiskBandSafe               RiskBand = "safe"
	RiskBandVerySafe           RiskBand = "very safe"
)

// Band thresholds in percent. Each band is inclusive on its lower bound.
const (
	dangerBelowPercent   = 150.0
	safeFromPercent      = 180.0
	verySafeAbovePercent = 250.0
)

// ClassifyRatio maps a ratio percentage onto a risk band:
// below 150 is danger, [150,180) close to liquidation, [180,250] safe,
// above 250 very safe.
func ClassifyRatio(percent float64) RiskBand {
	switch {
	case percent < dangerBelowPercent:
		return RiskBandDanger
	case percent < safeFromPercent:
		return RiskBandCloseToLiquidation
	case percent <= verySafeAbovePercent:
		return RiskBandSafe
	default:
		return RiskBandVerySafe
	}
}

// RatioPercent converts a basis-point ratio as reported by the protocol
// (15000 = 150.00%) to a percentage. Returns 0 for nil.
func RatioPercent(bps *big.Int) float64 {
	if bps == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(bps), big.NewFloat(100)).Float64()
	return f
}

// PercentToBasisPoints converts a percentage to the protocol's basis-point
// representation (150.00 -> 15000), rounding to the nearest basis point.
// Rounding matters: 200.1 has no exact float64 form and truncation would
// read it as 20009 bps.
func PercentToBasisPoints(percent float64) *big.Int {
	bps, _ := new(big.Float).SetFloat64(math.Round(percent * 100)).Int(nil)
	return bps
}
