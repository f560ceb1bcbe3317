/*
Package factory provides JSON to Go rule conversion.

PURPOSE:
  Converts JSON rule definitions into validated payroll rules. Rules are
  configured as JSON (admin API, presets in the statutory package, database
  config_json columns) and the factory produces the closed Go types, running
  every validation on the way in. A rule that fails here is never stored.

JSON SCHEMA (allowance):
  {
    "id": "housing",
    "code": "HOUSING",
    "name": "Housing allowance",
    "is_taxable": true,
    "calculation_type": "percentage",      // fixed | percentage
    "percentage": "15",
    "calculation_basis": "basic_salary",   // percentage only
    "max_amount": "20000.00"
  }

JSON SCHEMA (deduction):
  {
    "id": "nssf",
    "code": "NSSF",
    "name": "NSSF",
    "is_statutory": true,
    "reduces_taxable_income": true,
    "brackets": [                           // or "fixed_amount" or "rate"
      {"min_amount": "0", "max_amount": "8000", "rate": "6"},
      {"min_amount": "8000", "max_amount": "72000", "rate": "6"}
    ]
  }

JSON SCHEMA (tax):
  {
    "id": "paye-2025",
    "code": "PAYE",
    "effective_from": "2025-01-01",
    "effective_to": null,
    "brackets": [{"min_amount": "0", "max_amount": "24000", "rate": "10"}, ...]
  }

USAGE:
  f := factory.NewRuleFactory()
  rule, err := f.ParseDeductionRule(statutory.SHIFJSON("shif"))

SEE ALSO:
  - payroll/deduction.go: NewDeductionRule (exactly one mode)
  - statutory/presets.go: preset configurations
  - inputs.go: ResolvedPayrollInputs JSON
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/money"
	"github.com/warp/payroll-engine/payroll"
)

const dateLayout = "2006-01-02"

// Allowance calculation types.
const (
	CalculationFixed      = "fixed"
	CalculationPercentage = "percentage"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

type AllowanceRuleJSON struct {
	ID               string           `json:"id"`
	Code             string           `json:"code"`
	Name             string           `json:"name"`
	IsTaxable        bool             `json:"is_taxable"`
	CalculationType  string           `json:"calculation_type"`
	Amount           *money.Money     `json:"amount,omitempty"`
	Percentage       *decimal.Decimal `json:"percentage,omitempty"`
	CalculationBasis string           `json:"calculation_basis,omitempty"`
	MinAmount        *money.Money     `json:"min_amount,omitempty"`
	MaxAmount        *money.Money     `json:"max_amount,omitempty"`
	Strict           bool             `json:"strict,omitempty"`
}

type BracketJSON struct {
	Label       string           `json:"label,omitempty"`
	MinAmount   money.Money      `json:"min_amount"`
	MaxAmount   *money.Money     `json:"max_amount"`
	Rate        *decimal.Decimal `json:"rate,omitempty"`
	FixedAmount *money.Money     `json:"fixed_amount,omitempty"`
}

type DeductionRuleJSON struct {
	ID                   string           `json:"id"`
	Code                 string           `json:"code"`
	Name                 string           `json:"name"`
	IsStatutory          bool             `json:"is_statutory"`
	ReducesTaxableIncome bool             `json:"reduces_taxable_income,omitempty"`
	FixedAmount          *money.Money     `json:"fixed_amount,omitempty"`
	Rate                 *decimal.Decimal `json:"rate,omitempty"`
	Brackets             []BracketJSON    `json:"brackets,omitempty"`
}

type TaxRuleJSON struct {
	ID            string        `json:"id"`
	Code          string        `json:"code,omitempty"`
	Name          string        `json:"name"`
	EffectiveFrom string        `json:"effective_from"`
	EffectiveTo   *string       `json:"effective_to"`
	Brackets      []BracketJSON `json:"brackets"`
}

// =============================================================================
// RULE FACTORY
// =============================================================================

// RuleFactory converts JSON rules to payroll rules.
type RuleFactory struct{}

func NewRuleFactory() *RuleFactory {
	return &RuleFactory{}
}

func (f *RuleFactory) ParseAllowanceRule(jsonStr string) (payroll.AllowanceRule, error) {
	var aj AllowanceRuleJSON
	if err := json.Unmarshal([]byte(jsonStr), &aj); err != nil {
		return payroll.AllowanceRule{}, fmt.Errorf("failed to parse allowance rule JSON: %w", err)
	}
	return f.AllowanceFromJSON(aj)
}

// AllowanceFromJSON enforces the field exclusivity of the calculation type:
// a percentage needs a basis and a rate, a fixed amount may carry neither.
func (f *RuleFactory) AllowanceFromJSON(aj AllowanceRuleJSON) (payroll.AllowanceRule, error) {
	rule := payroll.AllowanceRule{
		ID:        aj.ID,
		Code:      aj.Code,
		Name:      aj.Name,
		Taxable:   aj.IsTaxable,
		MinAmount: aj.MinAmount,
		MaxAmount: aj.MaxAmount,
		Strict:    aj.Strict,
	}
	if rule.Code == "" {
		rule.Code = strings.ToUpper(aj.ID)
	}

	switch strings.ToLower(aj.CalculationType) {
	case CalculationFixed:
		if aj.CalculationBasis != "" {
			return payroll.AllowanceRule{}, payroll.NewValidationError("calculation_basis", "calculation basis must not be set for fixed allowances").ForRule(aj.ID)
		}
		if aj.Percentage != nil {
			return payroll.AllowanceRule{}, payroll.NewValidationError("percentage", "percentage must not be set for fixed allowances").ForRule(aj.ID)
		}
		if aj.Amount == nil {
			return payroll.AllowanceRule{}, payroll.NewValidationError("amount", "amount is required for fixed allowances").ForRule(aj.ID)
		}
		rule.Calculation = payroll.Fixed{Amount: *aj.Amount}
	case CalculationPercentage:
		if aj.Amount != nil {
			return payroll.AllowanceRule{}, payroll.NewValidationError("amount", "amount must not be set for percentage allowances").ForRule(aj.ID)
		}
		if aj.Percentage == nil {
			return payroll.AllowanceRule{}, payroll.NewValidationError("percentage", "percentage is required for percentage allowances").ForRule(aj.ID)
		}
		basis, err := payroll.ParseBasis(aj.CalculationBasis)
		if err != nil {
			return payroll.AllowanceRule{}, ruleError(err, aj.ID)
		}
		rule.Calculation = payroll.PercentageOf{Basis: basis, Rate: *aj.Percentage}
	default:
		return payroll.AllowanceRule{}, payroll.NewValidationError("calculation_type", "unknown calculation type %q", aj.CalculationType).ForRule(aj.ID)
	}

	if err := rule.Validate(); err != nil {
		return payroll.AllowanceRule{}, err
	}
	return rule, nil
}

func (f *RuleFactory) ParseDeductionRule(jsonStr string) (payroll.DeductionRule, error) {
	var dj DeductionRuleJSON
	if err := json.Unmarshal([]byte(jsonStr), &dj); err != nil {
		return payroll.DeductionRule{}, fmt.Errorf("failed to parse deduction rule JSON: %w", err)
	}
	return f.DeductionFromJSON(dj)
}

func (f *RuleFactory) DeductionFromJSON(dj DeductionRuleJSON) (payroll.DeductionRule, error) {
	return payroll.NewDeductionRule(payroll.DeductionRuleSpec{
		ID:                   dj.ID,
		Code:                 dj.Code,
		Name:                 dj.Name,
		Statutory:            dj.IsStatutory,
		ReducesTaxableIncome: dj.ReducesTaxableIncome,
		FixedAmount:          dj.FixedAmount,
		Rate:                 dj.Rate,
		Brackets:             BracketsFromJSON(dj.Brackets),
	})
}

func (f *RuleFactory) ParseTaxRule(jsonStr string) (payroll.TaxRule, error) {
	var tj TaxRuleJSON
	if err := json.Unmarshal([]byte(jsonStr), &tj); err != nil {
		return payroll.TaxRule{}, fmt.Errorf("failed to parse tax rule JSON: %w", err)
	}
	return f.TaxFromJSON(tj)
}

func (f *RuleFactory) TaxFromJSON(tj TaxRuleJSON) (payroll.TaxRule, error) {
	from, err := time.Parse(dateLayout, tj.EffectiveFrom)
	if err != nil {
		return payroll.TaxRule{}, payroll.NewValidationError("effective_from", "invalid date %q", tj.EffectiveFrom).ForRule(tj.ID)
	}
	var to *time.Time
	if tj.EffectiveTo != nil && *tj.EffectiveTo != "" {
		t, err := time.Parse(dateLayout, *tj.EffectiveTo)
		if err != nil {
			return payroll.TaxRule{}, payroll.NewValidationError("effective_to", "invalid date %q", *tj.EffectiveTo).ForRule(tj.ID)
		}
		to = &t
	}
	return payroll.NewTaxRule(payroll.TaxRuleSpec{
		ID:            tj.ID,
		Code:          tj.Code,
		Name:          tj.Name,
		EffectiveFrom: from,
		EffectiveTo:   to,
		Brackets:      BracketsFromJSON(tj.Brackets),
	})
}

// ParseBrackets reads a bare JSON array of brackets and runs the full
// bracket-set validation.
func (f *RuleFactory) ParseBrackets(jsonStr string) (payroll.BracketSet, error) {
	var bj []BracketJSON
	if err := json.Unmarshal([]byte(jsonStr), &bj); err != nil {
		return payroll.BracketSet{}, fmt.Errorf("failed to parse brackets JSON: %w", err)
	}
	return payroll.NewBracketSet(BracketsFromJSON(bj))
}

func BracketsFromJSON(in []BracketJSON) []payroll.Bracket {
	if len(in) == 0 {
		return nil
	}
	out := make([]payroll.Bracket, len(in))
	for i, b := range in {
		out[i] = payroll.Bracket{
			Label:       b.Label,
			Min:         b.MinAmount,
			Max:         b.MaxAmount,
			Rate:        b.Rate,
			FixedAmount: b.FixedAmount,
		}
	}
	return out
}

// =============================================================================
// GO -> JSON (for storage and API responses)
// =============================================================================

func AllowanceToJSON(r payroll.AllowanceRule) AllowanceRuleJSON {
	aj := AllowanceRuleJSON{
		ID:        r.ID,
		Code:      r.Code,
		Name:      r.Name,
		IsTaxable: r.Taxable,
		MinAmount: r.MinAmount,
		MaxAmount: r.MaxAmount,
		Strict:    r.Strict,
	}
	switch c := r.Calculation.(type) {
	case payroll.Fixed:
		aj.CalculationType = CalculationFixed
		amount := c.Amount
		aj.Amount = &amount
	case payroll.PercentageOf:
		aj.CalculationType = CalculationPercentage
		rate := c.Rate
		aj.Percentage = &rate
		aj.CalculationBasis = string(c.Basis)
	}
	return aj
}

func DeductionToJSON(r payroll.DeductionRule) DeductionRuleJSON {
	dj := DeductionRuleJSON{
		ID:                   r.ID,
		Code:                 r.Code,
		Name:                 r.Name,
		IsStatutory:          r.Statutory,
		ReducesTaxableIncome: r.ReducesTaxableIncome,
	}
	switch m := r.Method.(type) {
	case payroll.FlatAmount:
		amount := m.Amount
		dj.FixedAmount = &amount
	case payroll.FlatRate:
		rate := m.Rate
		dj.Rate = &rate
	case payroll.Bracketed:
		dj.Brackets = BracketsToJSON(m.Brackets.Brackets())
	}
	return dj
}

func TaxToJSON(r payroll.TaxRule) TaxRuleJSON {
	tj := TaxRuleJSON{
		ID:            r.ID,
		Code:          r.Code,
		Name:          r.Name,
		EffectiveFrom: r.EffectiveFrom.Format(dateLayout),
		Brackets:      BracketsToJSON(r.Brackets.Brackets()),
	}
	if r.EffectiveTo != nil {
		s := r.EffectiveTo.Format(dateLayout)
		tj.EffectiveTo = &s
	}
	return tj
}

func BracketsToJSON(in []payroll.Bracket) []BracketJSON {
	out := make([]BracketJSON, len(in))
	for i, b := range in {
		out[i] = BracketJSON{
			Label:       b.Label,
			MinAmount:   b.Min,
			MaxAmount:   b.Max,
			Rate:        b.Rate,
			FixedAmount: b.FixedAmount,
		}
	}
	return out
}

// MarshalRule renders any of the JSON shapes as a compact string.
func MarshalRule(v any) (string, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal rule: %w", err)
	}
	return string(out), nil
}

func ruleError(err error, ruleID string) error {
	if pe, ok := err.(*payroll.Error); ok {
		return pe.ForRule(ruleID)
	}
	return err
}
