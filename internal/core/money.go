// Package core defines the domain model shared by every other package:
// transactions, categories, recurring rules and the sync state machine.
package core

import (
	"github.com/shopspring/decimal"
)

// Money is a currency-agnostic positive amount stored as cents.
// Cents avoid the floating-point drift that plain float64 amounts accumulate.
type Money struct {
	Cents int64
}

var centsShift = decimal.NewFromInt(100)

// ParseMoney converts a decimal string ("12.34", "12,34") to Money with
// half-up rounding on anything beyond two decimal places.
func ParseMoney(s string) (Money, error) {
	normalized := ""
	for _, r := range s {
		if r == ',' {
			normalized += "."
			continue
		}
		normalized += string(r)
	}
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Mul(centsShift).Round(0).IntPart()
	m := Money{Cents: cents}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// MoneyFromFloat converts a unit amount (e.g. a wire-format numeric) to cents.
func MoneyFromFloat(units float64) Money {
	return Money{Cents: decimal.NewFromFloat(units).Mul(centsShift).Round(0).IntPart()}
}

// Units returns the amount in currency units for display and wire encoding.
func (m Money) Units() float64 {
	f, _ := decimal.NewFromInt(m.Cents).Div(centsShift).Float64()
	return f
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
