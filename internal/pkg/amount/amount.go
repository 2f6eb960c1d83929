// Package amount converts token amounts between human decimal form and the
// integer minor-unit representation used on chain. Tokens carry heterogeneous
// decimal precision, so all conversions go through arbitrary-precision
// arithmetic; float64 is never used for the integer result.
package amount

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount is returned for negative or unparseable amounts.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrMissingAssetMetadata is returned when the token's decimals are not
	// known. Conversions are undefined without them.
	ErrMissingAssetMetadata = errors.New("missing asset metadata")
)

// MaxDecimals is the highest precision any supported token uses.
const MaxDecimals = 18

// ToMinorUnits scales a decimal amount by 10^decimals and truncates toward
// zero. The amount must be non-negative.
func ToMinorUnits(d decimal.Decimal, decimals int) (*big.Int, error) {
	if decimals < 0 || decimals > MaxDecimals {
		return nil, fmt.Errorf("%w: decimals %d out of range", ErrMissingAssetMetadata, decimals)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrInvalidAmount)
	}
	shifted := d.Shift(int32(decimals))
	// Truncate the sub-minor-unit remainder rather than rounding it up.
	return shifted.Truncate(0).BigInt(), nil
}

// ParseToMinorUnits parses a user-entered decimal string and converts it to
// minor units.
func ParseToMinorUnits(s string, decimals int) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return ToMinorUnits(d, decimals)
}

// FromMinorUnits formats an integer minor-unit amount as a grouped decimal
// string, rounding half-up to maxFractionDigits. A nil amount formats as "0".
func FromMinorUnits(v *big.Int, decimals, maxFractionDigits int) string {
	if v == nil {
		return "0"
	}
	d := decimal.NewFromBigInt(v, -int32(decimals))
	d = d.Round(int32(maxFractionDigits))

	s := d.String()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, fracPart, _ := strings.Cut(s, ".")
	out := groupThousands(intPart)
	if fracPart != "" {
		out += "." + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}

// groupThousands inserts a comma every three digits from the right.
func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	rem := n % 3
	if rem > 0 {
		b.WriteString(digits[:rem])
	}
	for i := rem; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
