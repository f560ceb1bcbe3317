package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RoundingMode selects how computed values are brought back to 2 places.
type RoundingMode string

const (
	// RoundHalfUp rounds .5 away from zero. The engine default.
	RoundHalfUp RoundingMode = "half_up"

	// RoundHalfEven rounds .5 to the nearest even digit (banker's rounding).
	RoundHalfEven RoundingMode = "half_even"

	// RoundDown truncates toward zero.
	RoundDown RoundingMode = "down"
)

// ParseRoundingMode maps a config string to a mode. Empty means half-up.
func ParseRoundingMode(s string) (RoundingMode, error) {
	switch RoundingMode(s) {
	case "", RoundHalfUp:
		return RoundHalfUp, nil
	case RoundHalfEven, RoundDown:
		return RoundingMode(s), nil
	default:
		return "", fmt.Errorf("unknown rounding mode %q", s)
	}
}

// Round applies the mode at the given number of places.
func (r RoundingMode) Round(d decimal.Decimal, places int32) decimal.Decimal {
	switch r {
	case RoundHalfEven:
		return d.RoundBank(places)
	case RoundDown:
		return d.Truncate(places)
	default:
		return d.Round(places)
	}
}
