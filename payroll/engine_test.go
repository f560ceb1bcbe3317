package payroll_test

import (
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/money"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// END-TO-END COMPUTATIONS
// =============================================================================

func TestCompute_BaseSalaryOnly(t *testing.T) {
	// GIVEN: 2200.00 monthly, 176 standard hours, nothing else
	engine := newEngine(t, 176)

	// WHEN: computed
	result, err := engine.Compute(baseInputs("2200.00"))
	require.NoError(t, err)

	// THEN: gross and net equal the base salary
	assert.Equal(t, "2200.00", result.GrossPay.String())
	assert.Equal(t, "2200.00", result.NetPay.String())
	assert.Equal(t, "2200.00", result.TaxableIncome.String())
	assert.Equal(t, "0.00", result.TaxTotal.String())
	assert.Equal(t, "0.00", result.DeductionsTotal.String())
	assert.Equal(t, "2200.00", result.EmployerCosts.String())
	assert.Empty(t, result.TaxBreakdown)
	require.Len(t, result.LineItems, 1)
	assert.Equal(t, payroll.CodeBasic, result.LineItems[0].Code)
	assert.Equal(t, "aggregated", result.Audit["stage"])
}

func TestCompute_OvertimeOverride(t *testing.T) {
	// GIVEN: 2 approved overtime hours
	engine := newEngine(t, 176)
	in := baseInputs("2200.00")
	two := decimal.NewFromInt(2)
	in.OvertimeHours = &two

	// WHEN: computed
	result, err := engine.Compute(in)
	require.NoError(t, err)

	// THEN: 2 * 12.50 * 1.5 = 37.50 overtime
	assert.Equal(t, "12.50", result.Audit["hourly_rate"])
	assert.Equal(t, "2237.50", result.GrossPay.String())
	assert.Equal(t, "2200.00", result.TaxableIncome.String())

	earnings := result.LinesIn(payroll.CategoryEarning)
	require.Len(t, earnings, 2)
	assert.Equal(t, payroll.CodeOvertime, earnings[1].Code)
	assert.Equal(t, "37.50", earnings[1].Amount.String())
}

func TestCompute_OvertimeFromAttendance(t *testing.T) {
	engine := newEngine(t, 176)
	in := baseInputs("2200.00")
	in.Attendance = []payroll.AttendancePeriod{workedDay(t, 3, 8, 17), workedDay(t, 4, 8, 17)}

	result, err := engine.Compute(in)
	require.NoError(t, err)

	// 9h days: 1h overtime each
	assert.Equal(t, "2.00", result.Audit["overtime_hours"])
	assert.Equal(t, "2", result.Audit["attendance_days"])
	assert.Equal(t, "2237.50", result.GrossPay.String())
}

func TestCompute_TaxThroughBrackets(t *testing.T) {
	engine := newEngine(t, 176)
	in := baseInputs("2800.00")
	in.DeductionRules = []payroll.DeductionRule{payeRule(t, rateBracket("0", "1000", "0"), rateBracket("1000", "", "10"))}

	result, err := engine.Compute(in)
	require.NoError(t, err)

	assert.Equal(t, "180.00", result.TaxTotal.String())
	assert.Equal(t, "180.00", result.DeductionsTotal.String())
	assert.Equal(t, "2620.00", result.NetPay.String())
	require.Len(t, result.TaxBreakdown, 1)
	assert.Equal(t, "180.00", result.TaxBreakdown[0].Amount.String())
}

func TestCompute_FullPayslip(t *testing.T) {
	// GIVEN: allowances, statutory and voluntary deductions, contributions
	engine := newEngine(t, 176)
	in := baseInputs("50000.00")
	in.Allowances = []payroll.ResolvedAllowance{
		{RuleID: "housing", Code: "HOUSING", Name: "Housing", Amount: m("5000"), Taxable: true},
		{RuleID: "transport", Code: "TRANSPORT", Name: "Transport", Amount: m("2000"), Taxable: false},
	}
	sacco, err := payroll.NewDeductionRule(payroll.DeductionRuleSpec{ID: "sacco", Code: "SACCO", Name: "Sacco", FixedAmount: mp("1000")})
	require.NoError(t, err)
	shif, err := payroll.NewDeductionRule(payroll.DeductionRuleSpec{ID: "shif", Code: "SHIF", Name: "SHIF", Statutory: true, Rate: rate("2.75")})
	require.NoError(t, err)
	paye := payeRule(t,
		rateBracket("0", "24000", "10"),
		rateBracket("24000", "32333", "25"),
		rateBracket("32333", "", "30"),
	)
	in.DeductionRules = []payroll.DeductionRule{sacco, shif, paye}
	in.LoanRepayment = m("500")
	in.Insurance = payroll.Contribution{Employee: m("300"), Employer: m("300")}
	in.Pension = payroll.Contribution{Employee: m("1000"), Employer: m("1500")}

	// WHEN: computed
	result, err := engine.Compute(in)
	require.NoError(t, err)

	// THEN: totals follow the documented formulas
	assert.Equal(t, "7000.00", result.AllowancesTotal.String())
	assert.Equal(t, "57000.00", result.GrossPay.String())
	assert.Equal(t, "55000.00", result.TaxableIncome.String())
	assert.Equal(t, "11283.35", result.TaxTotal.String())
	assert.Equal(t, "15595.85", result.DeductionsTotal.String())
	assert.Equal(t, "41404.15", result.NetPay.String())
	assert.Equal(t, "58800.00", result.EmployerCosts.String())
	assert.Len(t, result.TaxBreakdown, 3)
	assert.Empty(t, result.Warnings)

	// AND: earnings, allowances, statutory, voluntary, contributions
	var codes []string
	for _, li := range result.LineItems {
		codes = append(codes, li.Code)
	}
	assert.Equal(t, []string{
		"BASIC", "HOUSING", "TRANSPORT",
		"SHIF", "PAYE",
		"SACCO", "LOAN", "INSURANCE", "PENSION",
	}, codes)
	assert.Equal(t, "1512.50", result.LineItems[3].Amount.String())
}

func TestCompute_TaxBaseAfterRelief(t *testing.T) {
	nssf, err := payroll.NewDeductionRule(payroll.DeductionRuleSpec{
		ID: "nssf", Code: "NSSF", Statutory: true, ReducesTaxableIncome: true, FixedAmount: mp("2160"),
	})
	require.NoError(t, err)
	paye := payeRule(t, rateBracket("0", "24000", "10"), rateBracket("24000", "", "25"))

	in := baseInputs("50000.00")
	in.DeductionRules = []payroll.DeductionRule{nssf, paye}

	// GIVEN: the default policy evaluates tax off the unrelieved base
	independent, err := newEngine(t, 176).Compute(in)
	require.NoError(t, err)
	assert.Equal(t, "8900.00", independent.TaxTotal.String())
	assert.Equal(t, "50000.00", independent.TaxableIncome.String())

	// WHEN: relief is applied first
	engine, err := payroll.NewEngine(payroll.Config{StandardMonthlyHours: 176, TaxBase: payroll.TaxBaseAfterRelief})
	require.NoError(t, err)
	relieved, err := engine.Compute(in)
	require.NoError(t, err)

	// THEN: tax is computed on 47840
	assert.Equal(t, "47840.00", relieved.TaxableIncome.String())
	assert.Equal(t, "8360.00", relieved.TaxTotal.String())
	assert.Equal(t, "10520.00", relieved.DeductionsTotal.String())
	assert.Equal(t, "39480.00", relieved.NetPay.String())
}

func TestCompute_NegativeNetIsWarned(t *testing.T) {
	in := baseInputs("100.00")
	in.LoanRepayment = m("250")

	result, err := newEngine(t, 160).Compute(in)
	require.NoError(t, err)

	assert.Equal(t, "-150.00", result.NetPay.String())
	assert.Equal(t, []string{payroll.WarningNegativeNet}, result.Warnings)
}

func TestCompute_TaxCodeConfigurable(t *testing.T) {
	engine, err := payroll.NewEngine(payroll.Config{StandardMonthlyHours: 160, TaxCode: "income_tax"})
	require.NoError(t, err)

	rule, err := payroll.NewDeductionRule(payroll.DeductionRuleSpec{ID: "it", Code: "INCOME_TAX", Statutory: true, Rate: rate("10")})
	require.NoError(t, err)
	in := baseInputs("1000")
	in.DeductionRules = []payroll.DeductionRule{rule}

	result, err := engine.Compute(in)
	require.NoError(t, err)
	assert.Equal(t, "100.00", result.TaxTotal.String())
	assert.Equal(t, "income_tax", result.Audit["tax_code"])
}

// =============================================================================
// FAILURES
// =============================================================================

func TestCompute_ZeroStandardHoursWithOvertime(t *testing.T) {
	engine := newEngine(t, 0)

	// No overtime: nothing to divide.
	_, err := engine.Compute(baseInputs("2200"))
	require.NoError(t, err)

	in := baseInputs("2200")
	one := decimal.NewFromInt(1)
	in.OvertimeHours = &one
	_, err = engine.Compute(in)

	require.Error(t, err)
	assert.True(t, payroll.IsComputation(err))
	assert.ErrorIs(t, err, money.ErrDivisionByZero)

	var pe *payroll.Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, payroll.StageAllowancesResolved, pe.Stage)
}

func TestCompute_InvalidInputs(t *testing.T) {
	engine := newEngine(t, 176)

	tests := []struct {
		name  string
		edit  func(*payroll.ResolvedPayrollInputs)
		field string
	}{
		{"missing employee", func(in *payroll.ResolvedPayrollInputs) { in.EmployeeID = "" }, "employee_id"},
		{"negative base", func(in *payroll.ResolvedPayrollInputs) { in.BaseSalary = m("-1") }, "base_salary"},
		{"negative loan", func(in *payroll.ResolvedPayrollInputs) { in.LoanRepayment = m("-1") }, "loan_repayment"},
		{"empty period", func(in *payroll.ResolvedPayrollInputs) { in.Period = payroll.PayPeriod{} }, "period"},
		{"negative allowance", func(in *payroll.ResolvedPayrollInputs) {
			in.Allowances = []payroll.ResolvedAllowance{{RuleID: "a", Amount: m("-5")}}
		}, "amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInputs("2200")
			tt.edit(&in)

			result, err := engine.Compute(in)
			assert.Nil(t, result)

			var pe *payroll.Error
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, payroll.KindValidation, pe.Kind)
			assert.Equal(t, tt.field, pe.Field)
			assert.Equal(t, payroll.StageStart, pe.Stage)
		})
	}
}

func TestCompute_UnresolvedAllowanceIsMissingConfiguration(t *testing.T) {
	in := baseInputs("2200")
	in.Allowances = []payroll.ResolvedAllowance{{Amount: m("10")}}

	_, err := newEngine(t, 176).Compute(in)
	assert.True(t, payroll.IsMissingConfiguration(err))
	assert.True(t, payroll.IsValidation(err))
}

func TestCompute_AttendanceOverCap(t *testing.T) {
	in := baseInputs("2200")
	in.Attendance = []payroll.AttendancePeriod{workedDay(t, 3, 6, 21)}

	_, err := newEngine(t, 176).Compute(in)
	assert.ErrorIs(t, err, payroll.ErrWorkingHoursExceeded)

	var pe *payroll.Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, payroll.StageAllowancesResolved, pe.Stage)
}

func TestCompute_RuleWithoutMethod(t *testing.T) {
	in := baseInputs("2200")
	in.DeductionRules = []payroll.DeductionRule{{ID: "ghost", Code: "GHOST", Statutory: true}}

	_, err := newEngine(t, 176).Compute(in)
	assert.True(t, payroll.IsComputation(err))

	var pe *payroll.Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "ghost", pe.RuleID)
	assert.Equal(t, payroll.StageAttendanceNormalized, pe.Stage)
}

func TestCompute_DuplicateTaxRule(t *testing.T) {
	in := baseInputs("2200")
	paye := payeRule(t, rateBracket("0", "", "10"))
	in.DeductionRules = []payroll.DeductionRule{paye, paye}

	_, err := newEngine(t, 176).Compute(in)
	assert.True(t, payroll.IsValidation(err))
}

func TestNewEngine_Config(t *testing.T) {
	_, err := payroll.NewEngine(payroll.Config{StandardMonthlyHours: -1})
	assert.True(t, payroll.IsValidation(err))

	_, err = payroll.NewEngine(payroll.Config{StandardMonthlyHours: 160, Rounding: "ceiling"})
	assert.True(t, payroll.IsValidation(err))

	_, err = payroll.NewEngine(payroll.Config{StandardMonthlyHours: 160, TaxBase: "sometimes"})
	assert.True(t, payroll.IsValidation(err))

	_, err = payroll.NewEngine(payroll.Config{StandardMonthlyHours: 160, OvertimeMultiplier: dec("-2")})
	assert.True(t, payroll.IsValidation(err))

	e, err := payroll.NewEngine(payroll.Config{StandardMonthlyHours: 160})
	require.NoError(t, err)
	cfg := e.Config()
	assert.Equal(t, "1.5", cfg.OvertimeMultiplier.String())
	assert.Equal(t, money.RoundHalfUp, cfg.Rounding)
	assert.Equal(t, payroll.DefaultTaxCode, cfg.TaxCode)
	assert.Equal(t, payroll.TaxBaseIndependent, cfg.TaxBase)
}

// =============================================================================
// DETERMINISM AND FORMAT
// =============================================================================

func fullInputs(t *testing.T) payroll.ResolvedPayrollInputs {
	in := baseInputs("3333.33")
	in.Allowances = []payroll.ResolvedAllowance{{RuleID: "h", Code: "H", Amount: m("123.45"), Taxable: true}}
	in.Attendance = []payroll.AttendancePeriod{workedDay(t, 3, 7, 18)}
	in.DeductionRules = []payroll.DeductionRule{payeRule(t, rateBracket("0", "1000", "0"), rateBracket("1000", "", "17.5"))}
	in.Pension = payroll.Contribution{Employee: m("33.33"), Employer: m("66.67")}
	return in
}

func withoutAudit(t *testing.T, r *payroll.PayrollResult) string {
	t.Helper()
	c := *r
	c.Audit = nil
	out, err := json.Marshal(c)
	require.NoError(t, err)
	return string(out)
}

func TestCompute_Idempotent(t *testing.T) {
	// GIVEN: an engine with the real clock and id source
	engine, err := payroll.NewEngine(payroll.Config{StandardMonthlyHours: 160})
	require.NoError(t, err)
	in := fullInputs(t)

	// WHEN: computed twice
	first, err := engine.Compute(in)
	require.NoError(t, err)
	second, err := engine.Compute(in)
	require.NoError(t, err)

	// THEN: identical apart from the audit map
	assert.Equal(t, withoutAudit(t, first), withoutAudit(t, second))
	assert.NotEqual(t, first.Audit["computation_id"], second.Audit["computation_id"])
}

func TestCompute_AllAmountsHaveTwoDecimals(t *testing.T) {
	result, err := newEngine(t, 160).Compute(fullInputs(t))
	require.NoError(t, err)

	out, err := json.Marshal(result)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(out, &fields))

	twoDigits := regexp.MustCompile(`^-?\d+\.\d{2}$`)
	for _, key := range []string{"gross_pay", "taxable_income", "tax_total", "deductions_total", "allowances_total", "net_pay", "employer_costs"} {
		v, ok := fields[key].(string)
		require.True(t, ok, "%s is not a string", key)
		assert.Regexp(t, twoDigits, v, key)
	}
	for _, li := range result.LineItems {
		assert.Regexp(t, twoDigits, li.Amount.String(), li.Code)
		assert.True(t, li.Amount.Value.Equal(li.Amount.Value.Round(2)), "%s carries extra precision", li.Code)
	}
	assert.True(t, result.NetPay.Value.Equal(result.NetPay.Value.Round(2)))
}
