package payroll_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/money"
	"github.com/warp/payroll-engine/payroll"
)

func TestResolveAllowance_Fixed(t *testing.T) {
	rule := payroll.AllowanceRule{
		ID: "housing", Code: "HOUSING", Name: "Housing", Taxable: true,
		Calculation: payroll.Fixed{Amount: m("5000")},
	}

	got, err := payroll.ResolveAllowance(rule, m("999999"))
	require.NoError(t, err)
	assert.Equal(t, "5000.00", got.Amount.String())
	assert.Equal(t, "housing", got.RuleID)
	assert.Equal(t, "HOUSING", got.Code)
	assert.True(t, got.Taxable)
}

func TestResolveAllowance_PercentageOfBasic(t *testing.T) {
	rule := payroll.AllowanceRule{
		ID:          "commuter",
		Calculation: payroll.PercentageOf{Basis: payroll.BasisBasicSalary, Rate: dec("10")},
	}

	got, err := payroll.ResolveAllowance(rule, m("2200"))
	require.NoError(t, err)
	assert.Equal(t, "220.00", got.Amount.String())
	assert.False(t, got.Taxable)
}

func TestResolveAllowance_RoundsHalfUp(t *testing.T) {
	rule := payroll.AllowanceRule{
		ID:          "odd",
		Calculation: payroll.PercentageOf{Basis: payroll.BasisBasicSalary, Rate: dec("33.335")},
	}

	got, err := payroll.ResolveAllowance(rule, m("100"))
	require.NoError(t, err)
	assert.Equal(t, "33.34", got.Amount.String())
}

func TestResolveAllowanceRounded_UsesMode(t *testing.T) {
	rule := payroll.AllowanceRule{
		ID:          "odd",
		Calculation: payroll.PercentageOf{Basis: payroll.BasisBasicSalary, Rate: dec("33.325")},
	}

	tests := []struct {
		mode money.RoundingMode
		want string
	}{
		{money.RoundHalfUp, "33.33"},
		{money.RoundHalfEven, "33.32"},
		{money.RoundDown, "33.32"},
	}
	for _, tt := range tests {
		got, err := payroll.ResolveAllowanceRounded(rule, m("100"), tt.mode)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.Amount.String(), "mode %s", tt.mode)
	}

	bases := payroll.AllowanceBases{BasicSalary: m("100")}
	got, err := payroll.ResolveAllowanceWith(rule, bases, money.RoundDown)
	require.NoError(t, err)
	assert.Equal(t, "33.32", got.Amount.String())
}

func TestResolveAllowanceWith_PicksBasis(t *testing.T) {
	bases := payroll.AllowanceBases{BasicSalary: m("2000"), GrossSalary: m("2500")}
	gross := payroll.AllowanceRule{ID: "g", Calculation: payroll.PercentageOf{Basis: payroll.BasisGrossSalary, Rate: dec("10")}}
	basic := payroll.AllowanceRule{ID: "b", Calculation: payroll.PercentageOf{Basis: payroll.BasisBasicSalary, Rate: dec("10")}}

	g, err := payroll.ResolveAllowanceWith(gross, bases, money.RoundHalfUp)
	require.NoError(t, err)
	assert.Equal(t, "250.00", g.Amount.String())

	b, err := payroll.ResolveAllowanceWith(basic, bases, money.RoundHalfUp)
	require.NoError(t, err)
	assert.Equal(t, "200.00", b.Amount.String())
}

func TestResolveAllowance_ClampsToBounds(t *testing.T) {
	// GIVEN: a 10% allowance bounded to [100, 300]
	rule := payroll.AllowanceRule{
		ID:          "meal",
		Calculation: payroll.PercentageOf{Basis: payroll.BasisBasicSalary, Rate: dec("10")},
		MinAmount:   mp("100"),
		MaxAmount:   mp("300"),
	}

	// WHEN/THEN: values outside the range are clamped
	low, err := payroll.ResolveAllowance(rule, m("500"))
	require.NoError(t, err)
	assert.Equal(t, "100.00", low.Amount.String())

	high, err := payroll.ResolveAllowance(rule, m("5000"))
	require.NoError(t, err)
	assert.Equal(t, "300.00", high.Amount.String())

	mid, err := payroll.ResolveAllowance(rule, m("2000"))
	require.NoError(t, err)
	assert.Equal(t, "200.00", mid.Amount.String())
}

func TestResolveAllowance_StrictBoundsFail(t *testing.T) {
	rule := payroll.AllowanceRule{
		ID:          "meal",
		Calculation: payroll.Fixed{Amount: m("500")},
		MaxAmount:   mp("300"),
		Strict:      true,
	}

	_, err := payroll.ResolveAllowance(rule, m("0"))
	require.Error(t, err)
	assert.True(t, payroll.IsValidation(err))

	var pe *payroll.Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "meal", pe.RuleID)
}

func TestAllowanceRule_Validate(t *testing.T) {
	tests := []struct {
		name  string
		rule  payroll.AllowanceRule
		field string
	}{
		{"missing id", payroll.AllowanceRule{Calculation: payroll.Fixed{Amount: m("1")}}, "id"},
		{"negative fixed", payroll.AllowanceRule{ID: "a", Calculation: payroll.Fixed{Amount: m("-1")}}, "amount"},
		{"percentage without basis", payroll.AllowanceRule{ID: "a", Calculation: payroll.PercentageOf{Rate: dec("5")}}, "calculation_basis"},
		{"unknown basis", payroll.AllowanceRule{ID: "a", Calculation: payroll.PercentageOf{Basis: "net_salary", Rate: dec("5")}}, "calculation_basis"},
		{"rate above 100", payroll.AllowanceRule{ID: "a", Calculation: payroll.PercentageOf{Basis: payroll.BasisBasicSalary, Rate: dec("150")}}, "percentage"},
		{"no calculation", payroll.AllowanceRule{ID: "a"}, "calculation_type"},
		{"max below min", payroll.AllowanceRule{ID: "a", Calculation: payroll.Fixed{Amount: m("1")}, MinAmount: mp("10"), MaxAmount: mp("5")}, "max_amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			var pe *payroll.Error
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, payroll.KindValidation, pe.Kind)
			assert.Equal(t, tt.field, pe.Field)
		})
	}
}

func TestParseBasis(t *testing.T) {
	b, err := payroll.ParseBasis("basic salary")
	require.NoError(t, err)
	assert.Equal(t, payroll.BasisBasicSalary, b)

	b, err = payroll.ParseBasis("Gross_Salary")
	require.NoError(t, err)
	assert.Equal(t, payroll.BasisGrossSalary, b)

	_, err = payroll.ParseBasis("net")
	assert.True(t, payroll.IsValidation(err))
}
