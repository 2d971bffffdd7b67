package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a monetary amount in cents. 15.00 USD = 1500 Money.
type Money int64

const centsPerUnit = 100

// ErrMoneyOverflow is returned when an amount does not fit in Money.
var ErrMoneyOverflow = errors.New("amount out of range")

// ParseMoney parses a decimal string with at most two fractional digits.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse money %q: %w", s, err)
	}
	if d.Exponent() < -2 {
		return 0, fmt.Errorf("parse money %q: more than two fractional digits", s)
	}
	m, err := MoneyFromDecimal(d)
	if err != nil {
		return 0, fmt.Errorf("parse money %q: %w", s, err)
	}
	return m, nil
}

// MoneyFromDecimal rounds d to cents, half away from zero. Amounts outside
// the int64 cent range return ErrMoneyOverflow.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Round(2).Shift(2).BigInt()
	if !cents.IsInt64() {
		return 0, fmt.Errorf("%w: %s", ErrMoneyOverflow, d)
	}
	return Money(cents.Int64()), nil
}

// Cents returns the raw fixed-point value.
func (m Money) Cents() int64 {
	return int64(m)
}

// Whole returns the amount truncated to whole units.
func (m Money) Whole() int64 {
	return int64(m) / centsPerUnit
}

// Decimal returns m as an exact decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalText renders the amount with exactly two fractional digits.
func (m Money) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Money) UnmarshalText(text []byte) error {
	v, err := ParseMoney(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
