// Package money represents currency amounts as integer minor units (cents).
// Decimal arithmetic is only used when converting at the boundaries.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const minorUnitExponent = 2

// Cents is an amount in the currency's minor unit.
type Cents int64

var (
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// ErrOutOfRange is returned for amounts that do not fit in Cents.
var ErrOutOfRange = errors.New("amount out of range")

// FromDecimal converts a major-unit decimal into cents, rounding half up on the
// third decimal place.
func FromDecimal(amount decimal.Decimal) (Cents, error) {
	shifted := amount.Shift(minorUnitExponent).Round(0)
	if shifted.GreaterThan(maxCents) || shifted.LessThan(minCents) {
		return 0, fmt.Errorf("amount %s: %w", amount.String(), ErrOutOfRange)
	}
	return Cents(shifted.IntPart()), nil
}

// Parse reads a major-unit string such as "16.99".
func Parse(raw string) (Cents, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return FromDecimal(amount)
}

// FromFloat converts a JSON-style float price into cents. NaN and infinities are rejected.
func FromFloat(value float64) (Cents, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("amount %v is not finite", value)
	}
	return FromDecimal(decimal.NewFromFloat(value))
}

// MustParse is Parse for package-level constants and tests.
func MustParse(raw string) Cents {
	c, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// Decimal returns the amount in major units.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(c)).Shift(-minorUnitExponent)
}

// MulRate multiplies by a fractional rate and rounds half up to whole cents.
func (c Cents) MulRate(rate decimal.Decimal) Cents {
	return Cents(decimal.NewFromInt(int64(c)).Mul(rate).Round(0).IntPart())
}

// Times multiplies by an integer quantity.
func (c Cents) Times(qty int) Cents {
	return c * Cents(qty)
}

func (c Cents) IsNegative() bool {
	return c < 0
}

// String renders the amount with two decimals, e.g. "42.97".
func (c Cents) String() string {
	return c.Decimal().StringFixed(minorUnitExponent)
}

// Format renders the amount for display with the currency symbol.
func (c Cents) Format(symbol string) string {
	if c < 0 {
		return "-" + symbol + (-c).String()
	}
	return symbol + c.String()
}

// Float64 is for metrics only; never feed it back into arithmetic.
func (c Cents) Float64() float64 {
	f, _ := c.Decimal().Float64()
	return f
}
