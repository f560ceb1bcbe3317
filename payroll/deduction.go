package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/money"
)

// =============================================================================
// DEDUCTION RESOLVER
// =============================================================================

// DeductionMethod is FlatAmount, FlatRate or Bracketed.
type DeductionMethod interface {
	deductionMethod()
}

type FlatAmount struct {
	Amount money.Money
}

// FlatRate is Rate percent of taxable income.
type FlatRate struct {
	Rate decimal.Decimal
}

type Bracketed struct {
	Brackets BracketSet
}

func (FlatAmount) deductionMethod() {}
func (FlatRate) deductionMethod()   {}
func (Bracketed) deductionMethod()  {}

// DeductionRule is a validated deduction. Build it with NewDeductionRule.
type DeductionRule struct {
	ID        string
	Code      string
	Name      string
	Statutory bool

	// ReducesTaxableIncome marks relief rules (pension, social security)
	// whose amount lowers the tax base under TaxBaseAfterRelief.
	ReducesTaxableIncome bool

	Method DeductionMethod
}

// DeductionRuleSpec is the unvalidated shape of a deduction rule. Exactly one
// of FixedAmount, Rate and Brackets must be set.
type DeductionRuleSpec struct {
	ID                   string
	Code                 string
	Name                 string
	Statutory            bool
	ReducesTaxableIncome bool
	FixedAmount          *money.Money
	Rate                 *decimal.Decimal
	Brackets             []Bracket
}

// NewDeductionRule validates spec and picks its calculation mode.
func NewDeductionRule(spec DeductionRuleSpec) (DeductionRule, error) {
	if spec.ID == "" {
		return DeductionRule{}, NewValidationError("id", "deduction rule id is required")
	}
	if spec.Code == "" {
		return DeductionRule{}, NewValidationError("code", "deduction rule code is required").ForRule(spec.ID)
	}

	modes := 0
	if spec.FixedAmount != nil {
		modes++
	}
	if spec.Rate != nil {
		modes++
	}
	if len(spec.Brackets) > 0 {
		modes++
	}
	if modes != 1 {
		return DeductionRule{}, NewValidationError("calculation", "exactly one of fixed amount, rate or brackets must be set, got %d", modes).ForRule(spec.ID)
	}

	rule := DeductionRule{
		ID:                   spec.ID,
		Code:                 spec.Code,
		Name:                 spec.Name,
		Statutory:            spec.Statutory,
		ReducesTaxableIncome: spec.ReducesTaxableIncome,
	}

	switch {
	case spec.FixedAmount != nil:
		if spec.FixedAmount.IsNegative() {
			return DeductionRule{}, NewValidationError("fixed_amount", "fixed amount cannot be negative").ForRule(spec.ID)
		}
		rule.Method = FlatAmount{Amount: *spec.FixedAmount}
	case spec.Rate != nil:
		if spec.Rate.IsNegative() || spec.Rate.GreaterThan(maxRate) {
			return DeductionRule{}, NewValidationError("rate", "rate %s must be between 0 and 100", spec.Rate.String()).ForRule(spec.ID)
		}
		rule.Method = FlatRate{Rate: *spec.Rate}
	default:
		set, err := NewBracketSet(spec.Brackets)
		if err != nil {
			return DeductionRule{}, withRule(err, spec.ID)
		}
		rule.Method = Bracketed{Brackets: set}
	}
	return rule, nil
}

// DeductionResult is the resolved amount of one rule with its breakdown.
type DeductionResult struct {
	Amount    money.Money
	Breakdown []TaxLine
}

// ResolveDeduction computes the amount of rule against taxableIncome. Rules
// built through NewDeductionRule always carry a method; reaching here without
// one is a caller bug and reported as a computation error.
func ResolveDeduction(rule DeductionRule, taxableIncome money.Money, rounding money.RoundingMode) (DeductionResult, error) {
	switch m := rule.Method.(type) {
	case FlatAmount:
		amount := m.Amount.Round(rounding)
		return DeductionResult{
			Amount:    amount,
			Breakdown: []TaxLine{{Label: rule.displayName(), Amount: amount, Rate: decimal.Zero}},
		}, nil
	case FlatRate:
		base := taxableIncome.Max(money.Zero())
		amount := base.Percent(m.Rate).Round(rounding)
		return DeductionResult{
			Amount:    amount,
			Breakdown: []TaxLine{{Label: rule.displayName(), Amount: amount, Rate: m.Rate}},
		}, nil
	case Bracketed:
		if m.Brackets.IsZero() {
			return DeductionResult{}, NewComputationError(nil, "bracketed rule has no brackets").ForRule(rule.ID)
		}
		eval := m.Brackets.Evaluate(taxableIncome, rounding)
		return DeductionResult{Amount: eval.Total, Breakdown: eval.Breakdown}, nil
	}
	return DeductionResult{}, NewComputationError(nil, "deduction rule has no calculation mode").ForRule(rule.ID)
}

func (r DeductionRule) displayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Code
}

// withRule attaches a rule id to validation failures from nested checks.
func withRule(err error, ruleID string) error {
	pe, ok := err.(*Error)
	if ok {
		return pe.ForRule(ruleID)
	}
	if _, ok := err.(*BracketOverlapError); ok {
		return &Error{Kind: KindValidation, Field: "brackets", RuleID: ruleID, Message: "invalid bracket set", Err: err}
	}
	return err
}
