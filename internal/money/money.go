// Package money holds the exact-decimal helpers shared by the ledgers.
// All monetary values and stock quantities are shopspring decimals; no
// float64 ever participates in a comparison that decides a stock or
// balance sign.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var Zero = decimal.Zero

// Parse converts a boundary input (string form of a number) into an exact
// decimal. Empty input parses as zero.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d, nil
}

// FromFloat converts an approximate numeric boundary input to an exact
// decimal via its shortest string representation, so 0.1 arrives as 0.1
// and not 0.1000000000000000055511151231257827.
func FromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// Round2 rounds to 2 decimal places, the precision used for both money
// and stock quantities.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func IsPositive(d decimal.Decimal) bool {
	return d.Sign() > 0
}

func IsNegative(d decimal.Decimal) bool {
	return d.Sign() < 0
}

func IsZero(d decimal.Decimal) bool {
	return d.Sign() == 0
}

// Equal compares two decimals by value, ignoring exponent representation.
func Equal(a, b decimal.Decimal) bool {
	return a.Cmp(b) == 0
}
