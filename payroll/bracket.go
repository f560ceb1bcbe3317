/*
bracket.go - Progressive bracket engine

PURPOSE:
  One evaluator shared by tax rules and bracketed deductions. A BracketSet can
  only be obtained through NewBracketSet, which validates every bracket and the
  no-overlap rule, so an unvalidated set never reaches evaluation.

EVALUATION:
  Brackets are walked in ascending Min order. The portion of the base that
  falls inside a bracket is

      portion = max(0, min(base, upper) - min)    upper = Max, or base if open

  A rate bracket contributes portion * rate / 100. A fixed bracket contributes
  its FixedAmount once the base reaches into it. Evaluation stops at the first
  bracket whose Min is at or above the base.

  Breakdown lines are rounded individually for display. Total is rounded once
  from the unrounded sum, so the lines may differ from Total by up to 0.01 per
  line. This is not corrected.

EXAMPLE:
  base 2800, brackets [0-1000 @0%, 1000+ @10%]
    0-1000:  portion 1000, 0.00
    1000+:   portion 1800, 180.00
    total:   180.00
*/
package payroll

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/money"
)

var maxRate = decimal.NewFromInt(100)

// =============================================================================
// BRACKET
// =============================================================================

// Bracket is one amount range with a rate (percent) or a fixed charge.
// Max nil means open-ended.
type Bracket struct {
	Label       string
	Min         money.Money
	Max         *money.Money
	Rate        *decimal.Decimal
	FixedAmount *money.Money
}

func (b Bracket) IsOpenEnded() bool { return b.Max == nil }

// DisplayLabel returns Label, or "min-max" / "min+" when Label is empty.
func (b Bracket) DisplayLabel() string {
	if b.Label != "" {
		return b.Label
	}
	if b.Max == nil {
		return b.Min.String() + "+"
	}
	return b.Min.String() + "-" + b.Max.String()
}

// RateOrZero returns the rate, or zero for fixed brackets.
func (b Bracket) RateOrZero() decimal.Decimal {
	if b.Rate == nil {
		return decimal.Zero
	}
	return *b.Rate
}

// Validate checks a single bracket in isolation.
func (b Bracket) Validate() error {
	field := "bracket " + b.DisplayLabel()
	if b.Min.IsNegative() {
		return NewValidationError(field, "minimum amount cannot be negative")
	}
	if b.Max != nil && !b.Max.GreaterThan(b.Min) {
		return NewValidationError(field, "maximum amount %s must be greater than minimum %s", b.Max, b.Min)
	}
	switch {
	case b.Rate == nil && b.FixedAmount == nil:
		return NewValidationError(field, "either rate or fixed amount must be specified")
	case b.Rate != nil && b.FixedAmount != nil:
		return NewValidationError(field, "rate and fixed amount are mutually exclusive")
	}
	if b.Rate != nil && (b.Rate.IsNegative() || b.Rate.GreaterThan(maxRate)) {
		return NewValidationError(field, "rate %s must be between 0 and 100", b.Rate.String())
	}
	if b.FixedAmount != nil && b.FixedAmount.IsNegative() {
		return NewValidationError(field, "fixed amount cannot be negative")
	}
	return nil
}

// upperFor returns the amount where the bracket stops applying for base.
func (b Bracket) upperFor(base money.Money) money.Money {
	if b.Max == nil {
		return base
	}
	return b.Max.Min(base)
}

// =============================================================================
// OVERLAP VALIDATION
// =============================================================================

// ValidateNoOverlaps sorts a copy of brackets by Min and checks each adjacent
// pair: only the last bracket may be open-ended and a bracket may not start
// below the previous maximum. Gaps are allowed.
func ValidateNoOverlaps(brackets []Bracket) error {
	sorted := sortedCopy(brackets)
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.Max == nil {
			return &BracketOverlapError{
				PreviousIndex: i - 1, CurrentIndex: i,
				Previous: prev, Current: cur,
				Reason: "only the last bracket may be open-ended",
			}
		}
		if cur.Min.LessThan(*prev.Max) {
			return &BracketOverlapError{
				PreviousIndex: i - 1, CurrentIndex: i,
				Previous: prev, Current: cur,
				Reason: fmt.Sprintf("minimum %s is below previous maximum %s", cur.Min, prev.Max),
			}
		}
	}
	return nil
}

func sortedCopy(brackets []Bracket) []Bracket {
	out := make([]Bracket, len(brackets))
	copy(out, brackets)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Min.LessThan(out[j].Min) })
	return out
}

// =============================================================================
// BRACKET SET
// =============================================================================

// BracketSet is a non-empty, validated, sorted list of brackets. The zero
// value is empty and only useful as "not configured".
type BracketSet struct {
	brackets []Bracket
}

// NewBracketSet validates every bracket and the set as a whole. It runs on
// every creation and update of a bracket-based rule.
func NewBracketSet(brackets []Bracket) (BracketSet, error) {
	if len(brackets) == 0 {
		return BracketSet{}, NewValidationError("brackets", "at least one bracket is required")
	}
	for _, b := range brackets {
		if err := b.Validate(); err != nil {
			return BracketSet{}, err
		}
	}
	if err := ValidateNoOverlaps(brackets); err != nil {
		return BracketSet{}, err
	}
	return BracketSet{brackets: sortedCopy(brackets)}, nil
}

// Brackets returns a copy of the sorted brackets.
func (s BracketSet) Brackets() []Bracket {
	out := make([]Bracket, len(s.brackets))
	copy(out, s.brackets)
	return out
}

func (s BracketSet) Len() int     { return len(s.brackets) }
func (s BracketSet) IsZero() bool { return len(s.brackets) == 0 }

// RateOnly reports whether no bracket carries a fixed amount.
func (s BracketSet) RateOnly() bool {
	for _, b := range s.brackets {
		if b.FixedAmount != nil {
			return false
		}
	}
	return true
}

// Evaluation is the outcome of evaluating a BracketSet against a base.
type Evaluation struct {
	Total     money.Money
	Breakdown []TaxLine
}

// Evaluate applies the set to base. A negative base evaluates to zero.
func (s BracketSet) Evaluate(base money.Money, rounding money.RoundingMode) Evaluation {
	total := money.Zero()
	var breakdown []TaxLine

	for _, b := range s.brackets {
		if base.LessThanOrEqual(b.Min) {
			break
		}
		portion := b.upperFor(base).Sub(b.Min)
		if !portion.IsPositive() {
			continue
		}

		var amount money.Money
		if b.FixedAmount != nil {
			amount = *b.FixedAmount
		} else {
			amount = portion.Percent(*b.Rate)
		}
		if amount.IsZero() {
			continue
		}

		total = total.Add(amount)
		breakdown = append(breakdown, TaxLine{
			Label:  b.DisplayLabel(),
			Amount: amount.Round(rounding),
			Rate:   b.RateOrZero(),
		})
	}

	return Evaluation{Total: total.Round(rounding), Breakdown: breakdown}
}
