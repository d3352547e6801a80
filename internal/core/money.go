// Package core holds the domain model shared by the engine, storage and
// transport layers. Monetary values are integer cents end to end; decimal
// strings only exist at the edges (wire format, user input).
package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a minor-unit safe amount. Signed: negative cents are outflows.
type Money struct {
	Cents int64
}

// ParseMoney converts a decimal string to Money with half-up rounding on the
// third decimal place. Accepts both dot (12.34) and comma (12,34) separators,
// which provider feeds mix freely. An empty string is zero, not an error, so
// one absent field cannot poison a whole snapshot.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parse amount %q: %w", s, ErrInvalidAmount)
	}
	return Money{Cents: d.Shift(2).Round(0).IntPart()}, nil
}

// FromFloat coerces a float amount to cents. NaN and infinities become zero
// so one corrupt record cannot poison a total.
func FromFloat(v float64) Money {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Money{}
	}
	return Money{Cents: int64(math.Round(v * 100))}
}

// Float returns the major-unit value for display and wire encoding only.
// Calculations stay in cents.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// Abs returns the magnitude of the amount.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

// Neg returns the negated amount.
func (m Money) Neg() Money {
	return Money{Cents: -m.Cents}
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// IsZero reports whether the amount is exactly zero cents.
func (m Money) IsZero() bool {
	return m.Cents == 0
}

// String formats the amount as a plain decimal (e.g. "-39.90").
func (m Money) String() string {
	return decimal.New(m.Cents, -2).StringFixed(2)
}
