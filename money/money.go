/*
Package money provides the fixed-point Money value used by the payroll engine.

PURPOSE:
  Every amount that flows through a payroll computation is a Money. Money
  wraps decimal.Decimal so arithmetic never widens to binary floating point,
  and it always renders with exactly two fractional digits.

KEY CONCEPTS:
  - Money: a currency amount (no currency code, the engine is single-currency)
  - RoundingMode: how a computed value is brought back to 2 places
  - Percent: base * rate / 100, the only way rates become amounts

USAGE:
  salary := money.MustParse("2200.00")
  hourly, err := salary.Div(decimal.NewFromInt(176)) // 12.5
  total := money.Round2(hourly.Mul(decimal.NewFromInt(2)))

SEE ALSO:
  - rounding.go: RoundingMode definitions
  - payroll/engine.go: the main consumer
*/
package money

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrDivisionByZero is returned by Div when the divisor is zero.
var ErrDivisionByZero = errors.New("division by zero")

// Places is the number of fractional digits a rounded Money carries.
const Places int32 = 2

var hundred = decimal.NewFromInt(100)

// =============================================================================
// MONEY
// =============================================================================

type Money struct {
	Value decimal.Decimal
}

// Zero returns 0.00.
func Zero() Money { return Money{Value: decimal.Zero} }

// New builds Money from a float. Only meant for presets and tests; parsed
// strings are the normal entry point.
func New(v float64) Money { return Money{Value: decimal.NewFromFloat(v)} }

func NewFromInt(v int64) Money { return Money{Value: decimal.NewFromInt(v)} }
func FromDecimal(d decimal.Decimal) Money { return Money{Value: d} }

// Parse reads a decimal string such as "2200.00".
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid money value %q: %w", s, err)
	}
	return Money{Value: d}, nil
}

// MustParse is Parse for literals. It panics on malformed input.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Sum adds all amounts. Sum() is zero.
func Sum(amounts ...Money) Money {
	total := Zero()
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

func (m Money) Add(o Money) Money { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) Mul(f decimal.Decimal) Money { return Money{Value: m.Value.Mul(f)} }
func (m Money) Neg() Money { return Money{Value: m.Value.Neg()} }
func (m Money) IsZero() bool { return m.Value.IsZero() }
func (m Money) IsNegative() bool { return m.Value.IsNegative() }
func (m Money) IsPositive() bool { return m.Value.IsPositive() }
func (m Money) Equal(o Money) bool { return m.Value.Equal(o.Value) }
func (m Money) GreaterThan(o Money) bool { return m.Value.GreaterThan(o.Value) }
func (m Money) GreaterThanOrEqual(o Money) bool { return m.Value.GreaterThanOrEqual(o.Value) }
func (m Money) LessThan(o Money) bool { return m.Value.LessThan(o.Value) }
func (m Money) LessThanOrEqual(o Money) bool { return m.Value.LessThanOrEqual(o.Value) }

func (m Money) Min(o Money) Money {
	if m.LessThan(o) {
		return m
	}
	return o
}

func (m Money) Max(o Money) Money {
	if m.GreaterThan(o) {
		return m
	}
	return o
}

// Div divides by a plain decimal factor.
func (m Money) Div(d decimal.Decimal) (Money, error) {
	if d.IsZero() {
		return Money{}, ErrDivisionByZero
	}
	return Money{Value: m.Value.Div(d)}, nil
}

// Percent returns m * rate / 100. rate is expressed in percent (10 = 10%).
func (m Money) Percent(rate decimal.Decimal) Money {
	return Money{Value: m.Value.Mul(rate).Div(hundred)}
}

// Round rounds to two places with the given mode.
func (m Money) Round(mode RoundingMode) Money {
	return Money{Value: mode.Round(m.Value, Places)}
}

// Round2 rounds half-up (away from zero) to two places: 10.005 -> 10.01.
func Round2(m Money) Money { return m.Round(RoundHalfUp) }

// String always renders two fractional digits.
func (m Money) String() string { return m.Value.StringFixed(Places) }

// =============================================================================
// JSON
// =============================================================================

// MarshalJSON writes a quoted, two-digit string ("2200.00").
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts both "12.50" and 12.5.
func (m *Money) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		m.Value = decimal.Zero
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid money value %s: %w", data, err)
	}
	m.Value = d
	return nil
}
