// Package money holds the fixed-point arithmetic used for prices, share
// values and payments. Amounts carry at most Decimals fractional digits,
// the same base as the native currency's smallest unit.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Decimals is the number of fractional digits an amount may carry.
const Decimals int32 = 18

var (
	// ErrNotPositive is returned when an amount must be greater than zero.
	ErrNotPositive = errors.New("amount must be greater than zero")
	// ErrNegative is returned for amounts below zero.
	ErrNegative = errors.New("amount must not be negative")
	// ErrTooPrecise is returned when an amount has more than Decimals fractional digits.
	ErrTooPrecise = fmt.Errorf("amount has more than %d decimal places", Decimals)
)

// Parse reads a decimal string such as "0.01" and checks its precision.
// Zero is accepted; use ParsePositive when it is not.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegative
	}
	if !d.Equal(d.Truncate(Decimals)) {
		return decimal.Zero, ErrTooPrecise
	}
	return d, nil
}

// ParsePositive is Parse for amounts that must be greater than zero.
func ParsePositive(s string) (decimal.Decimal, error) {
	d, err := Parse(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrNotPositive
	}
	return d, nil
}

// ShareValue divides price by units, truncating at Decimals. The truncated
// result is the canonical per-unit price and is never re-derived.
func ShareValue(price decimal.Decimal, units uint64) decimal.Decimal {
	if units == 0 {
		return decimal.Zero
	}
	q, _ := price.QuoRem(decimal.NewFromUint64(units), Decimals)
	return q
}

// Required returns the payment owed for units shares at shareValue each.
func Required(shareValue decimal.Decimal, units uint64) decimal.Decimal {
	return shareValue.Mul(decimal.NewFromUint64(units))
}

// Refund returns how much of payment exceeds required, never below zero.
func Refund(payment, required decimal.Decimal) decimal.Decimal {
	if payment.LessThanOrEqual(required) {
		return decimal.Zero
	}
	return payment.Sub(required)
}
