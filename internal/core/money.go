// Package core provides money parsing and handling utilities.
//
// Amounts are held as decimals so that sums over many transactions do not
// accumulate floating point drift.
package core

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a non-currency-tagged decimal amount.
type Money struct {
	Amount decimal.Decimal
}

// Zero is the additive identity.
var Zero = Money{Amount: decimal.Zero}

// NewMoney builds Money from a float, rounded to cents.
func NewMoney(v float64) Money {
	return Money{Amount: decimal.NewFromFloat(v).Round(2)}
}

// MustMoney parses s and panics on failure. Intended for tests and constants.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return Money{Amount: d}
}

// ParseAmount converts user input to a positive amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up to two decimals. Signs, zero and garbage are rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("12.345") -> 12.35, nil
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Zero, ErrInvalidAmount
	}
	if strings.ContainsAny(s, "eE") {
		return Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return Zero, ErrInvalidAmount
	}
	return Money{Amount: d}, nil
}

func (m Money) Validate() error {
	if !m.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Amount: m.Amount.Add(o.Amount)} }
func (m Money) Sub(o Money) Money { return Money{Amount: m.Amount.Sub(o.Amount)} }

func (m Money) IsZero() bool     { return m.Amount.IsZero() }
func (m Money) IsPositive() bool { return m.Amount.IsPositive() }

// Cmp compares m and o like decimal.Cmp.
func (m Money) Cmp(o Money) int { return m.Amount.Cmp(o.Amount) }

// Float64 returns the amount for percentage math and display.
func (m Money) Float64() float64 {
	return m.Amount.InexactFloat64()
}

// String formats with two decimals, e.g. "12.50".
func (m Money) String() string {
	return m.Amount.StringFixed(2)
}

// MarshalJSON emits a bare JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Amount.StringFixed(2)), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*m = Zero
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return ErrInvalidAmount
		}
		s = strings.ReplaceAll(strings.TrimSpace(str), ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ErrInvalidAmount
	}
	m.Amount = d
	return nil
}
