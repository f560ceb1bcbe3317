package payroll

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/money"
)

// =============================================================================
// ALLOWANCE RESOLVER
// =============================================================================

// Basis is the amount a percentage allowance is computed from.
type Basis string

const (
	BasisBasicSalary Basis = "basic_salary"
	BasisGrossSalary Basis = "gross_salary"
)

// ParseBasis accepts the canonical values and their spaced forms
// ("basic salary").
func ParseBasis(s string) (Basis, error) {
	b, err := parseBasis(s)
	if err != nil {
		return "", err
	}
	return b, nil
}

func parseBasis(s string) (Basis, *Error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
	switch Basis(normalized) {
	case BasisBasicSalary, BasisGrossSalary:
		return Basis(normalized), nil
	case "":
		return "", NewValidationError("calculation_basis", "calculation basis is required for percentage allowances")
	}
	return "", NewValidationError("calculation_basis", "calculation basis must be %q or %q, got %q", BasisBasicSalary, BasisGrossSalary, s)
}

// AllowanceCalculation is either Fixed or PercentageOf.
type AllowanceCalculation interface {
	allowanceCalculation()
}

type Fixed struct {
	Amount money.Money
}

// PercentageOf computes Rate percent of the Basis amount.
type PercentageOf struct {
	Basis Basis
	Rate  decimal.Decimal
}

func (Fixed) allowanceCalculation()        {}
func (PercentageOf) allowanceCalculation() {}

// AllowanceRule configures one allowance type. MinAmount and MaxAmount clamp
// the computed amount, or reject it when Strict is set.
type AllowanceRule struct {
	ID          string
	Code        string
	Name        string
	Taxable     bool
	Calculation AllowanceCalculation
	MinAmount   *money.Money
	MaxAmount   *money.Money
	Strict      bool
}

func (r AllowanceRule) Validate() error {
	if r.ID == "" {
		return NewValidationError("id", "allowance rule id is required")
	}
	if r.MinAmount != nil && r.MinAmount.IsNegative() {
		return NewValidationError("min_amount", "minimum amount cannot be negative").ForRule(r.ID)
	}
	if r.MinAmount != nil && r.MaxAmount != nil && r.MaxAmount.LessThan(*r.MinAmount) {
		return NewValidationError("max_amount", "maximum amount %s is below minimum %s", r.MaxAmount, r.MinAmount).ForRule(r.ID)
	}

	switch c := r.Calculation.(type) {
	case Fixed:
		if c.Amount.IsNegative() {
			return NewValidationError("amount", "allowance amount cannot be negative").ForRule(r.ID)
		}
	case PercentageOf:
		if _, err := parseBasis(string(c.Basis)); err != nil {
			return err.ForRule(r.ID)
		}
		if c.Rate.IsNegative() || c.Rate.GreaterThan(maxRate) {
			return NewValidationError("percentage", "percentage %s must be between 0 and 100", c.Rate.String()).ForRule(r.ID)
		}
	case nil:
		return NewValidationError("calculation_type", "calculation type is required").ForRule(r.ID)
	}
	return nil
}

// ResolvedAllowance is an allowance amount fixed at resolution time. Taxable
// is copied from the rule so later rule changes do not alter past results.
type ResolvedAllowance struct {
	RuleID  string      `json:"rule_id"`
	Code    string      `json:"code"`
	Name    string      `json:"name"`
	Amount  money.Money `json:"amount"`
	Taxable bool        `json:"is_taxable"`
}

// AllowanceBases holds the basis amounts percentage allowances draw from.
// GrossSalary is the earnings before allowances (base plus overtime pay).
type AllowanceBases struct {
	BasicSalary money.Money
	GrossSalary money.Money
}

func (b AllowanceBases) For(basis Basis) money.Money {
	if basis == BasisGrossSalary {
		return b.GrossSalary
	}
	return b.BasicSalary
}

// ResolveAllowance computes the concrete amount of rule given the basis
// amount, rounded half-up. basisAmount is ignored for Fixed rules.
func ResolveAllowance(rule AllowanceRule, basisAmount money.Money) (ResolvedAllowance, error) {
	return ResolveAllowanceRounded(rule, basisAmount, money.RoundHalfUp)
}

// ResolveAllowanceRounded is ResolveAllowance with an explicit rounding mode.
// Bounds apply to the rounded amount.
func ResolveAllowanceRounded(rule AllowanceRule, basisAmount money.Money, rounding money.RoundingMode) (ResolvedAllowance, error) {
	if err := rule.Validate(); err != nil {
		return ResolvedAllowance{}, err
	}

	var amount money.Money
	switch c := rule.Calculation.(type) {
	case Fixed:
		amount = c.Amount
	case PercentageOf:
		if basisAmount.IsNegative() {
			return ResolvedAllowance{}, NewValidationError("basis_amount", "basis amount cannot be negative").ForRule(rule.ID)
		}
		amount = basisAmount.Percent(c.Rate)
	}

	amount, err := applyBounds(rule, amount.Round(rounding))
	if err != nil {
		return ResolvedAllowance{}, err
	}

	return ResolvedAllowance{
		RuleID:  rule.ID,
		Code:    rule.Code,
		Name:    rule.Name,
		Amount:  amount,
		Taxable: rule.Taxable,
	}, nil
}

// ResolveAllowanceWith picks the basis amount for rule from bases.
func ResolveAllowanceWith(rule AllowanceRule, bases AllowanceBases, rounding money.RoundingMode) (ResolvedAllowance, error) {
	basis := BasisBasicSalary
	if p, ok := rule.Calculation.(PercentageOf); ok {
		if parsed, err := ParseBasis(string(p.Basis)); err == nil {
			basis = parsed
		}
	}
	return ResolveAllowanceRounded(rule, bases.For(basis), rounding)
}

func applyBounds(rule AllowanceRule, amount money.Money) (money.Money, error) {
	if rule.MinAmount != nil && amount.LessThan(*rule.MinAmount) {
		if rule.Strict {
			return money.Money{}, NewValidationError("amount", "allowance amount %s is below minimum %s", amount, rule.MinAmount).ForRule(rule.ID)
		}
		amount = *rule.MinAmount
	}
	if rule.MaxAmount != nil && amount.GreaterThan(*rule.MaxAmount) {
		if rule.Strict {
			return money.Money{}, NewValidationError("amount", "allowance amount %s exceeds maximum %s", amount, rule.MaxAmount).ForRule(rule.ID)
		}
		amount = *rule.MaxAmount
	}
	return amount, nil
}
