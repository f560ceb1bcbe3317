/*
Package statutory provides preset JSON configurations for common statutory
deductions and income tax.

PURPOSE:
  Ready-to-use rule definitions for Kenyan monthly payroll. These are
  convenience functions returning the same JSON an administrator would post
  to the rules API; parse them with factory.RuleFactory.

AVAILABLE PRESETS:
  PAYEJSON:         monthly PAYE bands (10%, 25%, 30%, 32.5%, 35%)
  SHIFJSON:         Social Health Insurance Fund, 2.75%
  HousingLevyJSON:  Affordable housing levy, 1.5%
  NSSFJSON:         NSSF tier I and tier II, 6% each up to the upper limit
  FlatDeductionJSON: a voluntary fixed deduction (sacco, union dues)
  HousingAllowanceJSON, TransportAllowanceJSON: common allowance shapes

TAX BASE:
  NSSF is flagged reduces_taxable_income. It only lowers the PAYE base when
  the engine runs with the after_relief tax base policy.

EXAMPLE:
  f := factory.NewRuleFactory()
  paye, err := f.ParseTaxRule(statutory.PAYEJSON("paye-2025", "2025-01-01"))
  shif, err := f.ParseDeductionRule(statutory.SHIFJSON("shif"))

SEE ALSO:
  - factory/rules.go: JSON schema
  - payroll/tax.go: effective windows
*/
package statutory

import (
	"encoding/json"
	"strconv"
)

// Default NSSF earnings limits (monthly).
const (
	NSSFLowerEarningsLimit = 8000
	NSSFUpperEarningsLimit = 72000
)

// PAYEJSON returns JSON for the monthly PAYE bands effective from the given
// date (YYYY-MM-DD), open-ended.
func PAYEJSON(id, effectiveFrom string) string {
	tj := map[string]interface{}{
		"id":             id,
		"code":           "PAYE",
		"name":           "Pay As You Earn",
		"effective_from": effectiveFrom,
		"effective_to":   nil,
		"brackets": []map[string]interface{}{
			{"min_amount": "0", "max_amount": "24000", "rate": "10"},
			{"min_amount": "24000", "max_amount": "32333", "rate": "25"},
			{"min_amount": "32333", "max_amount": "500000", "rate": "30"},
			{"min_amount": "500000", "max_amount": "800000", "rate": "32.5"},
			{"min_amount": "800000", "max_amount": nil, "rate": "35"},
		},
	}
	b, _ := json.MarshalIndent(tj, "", "  ")
	return string(b)
}

// SHIFJSON returns JSON for the 2.75% health insurance contribution.
func SHIFJSON(id string) string {
	dj := map[string]interface{}{
		"id":           id,
		"code":         "SHIF",
		"name":         "Social Health Insurance Fund",
		"is_statutory": true,
		"rate":         "2.75",
	}
	b, _ := json.MarshalIndent(dj, "", "  ")
	return string(b)
}

// HousingLevyJSON returns JSON for the 1.5% housing levy.
func HousingLevyJSON(id string) string {
	dj := map[string]interface{}{
		"id":           id,
		"code":         "AHL",
		"name":         "Affordable Housing Levy",
		"is_statutory": true,
		"rate":         "1.5",
	}
	b, _ := json.MarshalIndent(dj, "", "  ")
	return string(b)
}

// NSSFJSON returns JSON for NSSF tiers. Earnings above upperLimit carry no
// contribution, so the deduction is capped at 6% of upperLimit.
func NSSFJSON(id string, lowerLimit, upperLimit int) string {
	dj := map[string]interface{}{
		"id":                     id,
		"code":                   "NSSF",
		"name":                   "NSSF",
		"is_statutory":           true,
		"reduces_taxable_income": true,
		"brackets": []map[string]interface{}{
			{"label": "Tier I", "min_amount": "0", "max_amount": strconv.Itoa(lowerLimit), "rate": "6"},
			{"label": "Tier II", "min_amount": strconv.Itoa(lowerLimit), "max_amount": strconv.Itoa(upperLimit), "rate": "6"},
		},
	}
	b, _ := json.MarshalIndent(dj, "", "  ")
	return string(b)
}

// FlatDeductionJSON returns JSON for a voluntary fixed monthly deduction.
func FlatDeductionJSON(id, code, name, amount string) string {
	dj := map[string]interface{}{
		"id":           id,
		"code":         code,
		"name":         name,
		"is_statutory": false,
		"fixed_amount": amount,
	}
	b, _ := json.MarshalIndent(dj, "", "  ")
	return string(b)
}

// HousingAllowanceJSON returns JSON for a taxable percentage-of-basic
// housing allowance capped at maxAmount.
func HousingAllowanceJSON(id, percentage, maxAmount string) string {
	aj := map[string]interface{}{
		"id":                id,
		"code":              "HOUSING",
		"name":              "Housing allowance",
		"is_taxable":        true,
		"calculation_type":  "percentage",
		"percentage":        percentage,
		"calculation_basis": "basic_salary",
		"max_amount":        maxAmount,
	}
	b, _ := json.MarshalIndent(aj, "", "  ")
	return string(b)
}

// TransportAllowanceJSON returns JSON for a fixed non-taxable allowance.
func TransportAllowanceJSON(id, amount string) string {
	aj := map[string]interface{}{
		"id":               id,
		"code":             "TRANSPORT",
		"name":             "Transport allowance",
		"is_taxable":       false,
		"calculation_type": "fixed",
		"amount":           amount,
	}
	b, _ := json.MarshalIndent(aj, "", "  ")
	return string(b)
}
