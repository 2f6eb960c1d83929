package amount

import (
	"errors"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals int
		want     string
		wantErr  error
	}{
		{"whole amount six decimals", "1", 6, "1000000", nil},
		{"fractional amount", "1.5", 6, "1500000", nil},
		{"zero decimals", "42", 0, "42", nil},
		{"eighteen decimals full precision", "1.123456789012345678", 18, "1123456789012345678", nil},
		{"sub minor unit truncated toward zero", "0.0000019", 6, "1", nil},
		{"zero amount", "0", 18, "0", nil},
		{"negative amount rejected", "-1", 6, "", ErrInvalidAmount},
		{"decimals out of range", "1", 19, "", ErrMissingAssetMetadata},
		{"negative decimals", "1", -1, "", ErrMissingAssetMetadata},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := decimal.NewFromString(tt.amount)
			if err != nil {
				t.Fatalf("bad fixture amount %q: %v", tt.amount, err)
			}
			got, err := ToMinorUnits(d, tt.decimals)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			want, _ := new(big.Int).SetString(tt.want, 10)
			if got.Cmp(want) != 0 {
				t.Errorf("ToMinorUnits(%s, %d) = %s, want %s", tt.amount, tt.decimals, got, want)
			}
		})
	}
}

func TestParseToMinorUnits(t *testing.T) {
	got, err := ParseToMinorUnits(" 2.75 ", 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(big.NewInt(275000000)) != 0 {
		t.Errorf("got %s, want 275000000", got)
	}

	if _, err := ParseToMinorUnits("not-a-number", 8); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("error = %v, want ErrInvalidAmount", err)
	}
}

func TestFromMinorUnits(t *testing.T) {
	tests := []struct {
		name              string
		v                 string
		decimals          int
		maxFractionDigits int
		want              string
	}{
		{"plain amount", "1500000", 6, 2, "1.5"},
		{"grouped thousands", "1234567000000", 6, 2, "1,234,567"},
		{"rounds half up", "1235000", 6, 2, "1.24"},
		{"rounds down below half", "1234000", 6, 2, "1.23"},
		{"zero", "0", 18, 2, "0"},
		{"full eighteen digit precision", "1123456789012345678", 18, 18, "1.123456789012345678"},
		{"large grouped value", "123456789012345678901", 18, 2, "123.46"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := new(big.Int).SetString(tt.v, 10)
			if !ok {
				t.Fatalf("bad fixture %q", tt.v)
			}
			if got := FromMinorUnits(v, tt.decimals, tt.maxFractionDigits); got != tt.want {
				t.Errorf("FromMinorUnits(%s, %d, %d) = %q, want %q",
					tt.v, tt.decimals, tt.maxFractionDigits, got, tt.want)
			}
		})
	}

	if got := FromMinorUnits(nil, 6, 2); got != "0" {
		t.Errorf("nil amount = %q, want 0", got)
	}
}

// Converting to minor units and back at the same precision must reproduce the
// input exactly for any amount representable with <= decimals fractional
// digits.
func TestRoundTrip(t *testing.T) {
	cases := []struct {
		amount   string
		decimals int
	}{
		{"1.5", 6},
		{"0.000001", 6},
		{"123456.789", 8},
		{"1.123456789012345678", 18},
		{"42", 0},
		{"0", 12},
	}

	for _, tc := range cases {
		d, err := decimal.NewFromString(tc.amount)
		if err != nil {
			t.Fatalf("bad fixture: %v", err)
		}
		minor, err := ToMinorUnits(d, tc.decimals)
		if err != nil {
			t.Fatalf("ToMinorUnits(%s, %d): %v", tc.amount, tc.decimals, err)
		}
		got := FromMinorUnits(minor, tc.decimals, tc.decimals)
		want := FromMinorUnits(mustMinor(t, tc.amount, tc.decimals), tc.decimals, tc.decimals)
		if got != want {
			t.Errorf("round trip of (%s, %d): got %q, want %q", tc.amount, tc.decimals, got, want)
		}
		// And the numeric value must be unchanged.
		back, err := decimal.NewFromString(stripGroups(got))
		if err != nil {
			t.Fatalf("parse %q: %v", got, err)
		}
		if !back.Equal(d) {
			t.Errorf("round trip of (%s, %d) changed value: %s", tc.amount, tc.decimals, back)
		}
	}
}

func mustMinor(t *testing.T, s string, decimals int) *big.Int {
	t.Helper()
	v, err := ParseToMinorUnits(s, decimals)
	if err != nil {
		t.Fatalf("ParseToMinorUnits(%s, %d): %v", s, decimals, err)
	}
	return v
}

func stripGroups(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != ',' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
