package payroll

import (
	"sort"
	"time"

	"github.com/warp/payroll-engine/money"
)

// =============================================================================
// TAX RULES - rate-based bracket sets with an effective-date window
// =============================================================================

// TaxRule is valid from EffectiveFrom (inclusive) to EffectiveTo (inclusive,
// nil = open).
type TaxRule struct {
	ID            string
	Code          string
	Name          string
	EffectiveFrom time.Time
	EffectiveTo   *time.Time
	Brackets      BracketSet
}

type TaxRuleSpec struct {
	ID            string
	Code          string
	Name          string
	EffectiveFrom time.Time
	EffectiveTo   *time.Time
	Brackets      []Bracket
}

// NewTaxRule validates the window and requires rate-only brackets.
func NewTaxRule(spec TaxRuleSpec) (TaxRule, error) {
	if spec.ID == "" {
		return TaxRule{}, NewValidationError("id", "tax rule id is required")
	}
	if spec.EffectiveFrom.IsZero() {
		return TaxRule{}, NewValidationError("effective_from", "effective from date is required").ForRule(spec.ID)
	}
	if spec.EffectiveTo != nil && dateOnly(*spec.EffectiveTo).Before(dateOnly(spec.EffectiveFrom)) {
		return TaxRule{}, NewValidationError("effective_to", "effective to %s is before effective from %s",
			spec.EffectiveTo.Format(dateLayout), spec.EffectiveFrom.Format(dateLayout)).ForRule(spec.ID)
	}

	set, err := NewBracketSet(spec.Brackets)
	if err != nil {
		return TaxRule{}, withRule(err, spec.ID)
	}
	if !set.RateOnly() {
		return TaxRule{}, NewValidationError("brackets", "tax brackets must be rate based").ForRule(spec.ID)
	}

	code := spec.Code
	if code == "" {
		code = DefaultTaxCode
	}
	from := dateOnly(spec.EffectiveFrom)
	var to *time.Time
	if spec.EffectiveTo != nil {
		t := dateOnly(*spec.EffectiveTo)
		to = &t
	}
	return TaxRule{ID: spec.ID, Code: code, Name: spec.Name, EffectiveFrom: from, EffectiveTo: to, Brackets: set}, nil
}

// ActiveOn reports whether the window contains the day of t.
func (r TaxRule) ActiveOn(t time.Time) bool {
	d := dateOnly(t)
	if d.Before(r.EffectiveFrom) {
		return false
	}
	return r.EffectiveTo == nil || !d.After(*r.EffectiveTo)
}

// AsDeductionRule exposes the tax rule as the statutory deduction carrying
// the tax code.
func (r TaxRule) AsDeductionRule() DeductionRule {
	return DeductionRule{
		ID:        r.ID,
		Code:      r.Code,
		Name:      r.Name,
		Statutory: true,
		Method:    Bracketed{Brackets: r.Brackets},
	}
}

// Evaluate applies the brackets to taxable income.
func (r TaxRule) Evaluate(taxableIncome money.Money, rounding money.RoundingMode) Evaluation {
	return r.Brackets.Evaluate(taxableIncome, rounding)
}

func (r TaxRule) overlaps(o TaxRule) bool {
	if r.EffectiveTo != nil && r.EffectiveTo.Before(o.EffectiveFrom) {
		return false
	}
	if o.EffectiveTo != nil && o.EffectiveTo.Before(r.EffectiveFrom) {
		return false
	}
	return true
}

// ValidateTaxRuleWindows fails when two rules with the same code have
// overlapping effective windows.
func ValidateTaxRuleWindows(rules []TaxRule) error {
	for i := 0; i < len(rules); i++ {
		for j := i + 1; j < len(rules); j++ {
			if rules[i].Code != rules[j].Code {
				continue
			}
			if rules[i].overlaps(rules[j]) {
				return NewValidationError("effective_from", "effective window overlaps tax rule %s", rules[j].ID).ForRule(rules[i].ID)
			}
		}
	}
	return nil
}

// SelectTaxRule returns the single rule active on the given day.
func SelectTaxRule(rules []TaxRule, on time.Time) (TaxRule, error) {
	var active []TaxRule
	for _, r := range rules {
		if r.ActiveOn(on) {
			active = append(active, r)
		}
	}
	switch len(active) {
	case 0:
		return TaxRule{}, NewMissingConfigurationError("tax_rule", "no tax rule is active on %s", on.Format(dateLayout))
	case 1:
		return active[0], nil
	}
	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })
	return TaxRule{}, NewValidationError("tax_rule", "%d tax rules are active on %s", len(active), on.Format(dateLayout)).ForRule(active[0].ID)
}
