package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/money"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/payroll/store"
)

func ratePtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func taxRule(t *testing.T, id string, from time.Time) payroll.TaxRule {
	t.Helper()
	r, err := payroll.NewTaxRule(payroll.TaxRuleSpec{
		ID: id, EffectiveFrom: from,
		Brackets: []payroll.Bracket{{Min: money.Zero(), Rate: ratePtr("10")}},
	})
	require.NoError(t, err)
	return r
}

func TestMemory_Rules(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	allowance := payroll.AllowanceRule{ID: "housing", Code: "HOUSING", Calculation: payroll.Fixed{Amount: money.NewFromInt(100)}}
	require.NoError(t, s.SaveAllowanceRule(ctx, allowance))
	got, err := s.GetAllowanceRule(ctx, "housing")
	require.NoError(t, err)
	assert.Equal(t, "HOUSING", got.Code)

	_, err = s.GetAllowanceRule(ctx, "missing")
	assert.ErrorIs(t, err, payroll.ErrNotFound)

	bad := payroll.AllowanceRule{ID: "bad", Calculation: payroll.Fixed{Amount: money.NewFromInt(-1)}}
	assert.True(t, payroll.IsValidation(s.SaveAllowanceRule(ctx, bad)))

	rule, err := payroll.NewDeductionRule(payroll.DeductionRuleSpec{ID: "shif", Code: "SHIF", Rate: ratePtr("2.75")})
	require.NoError(t, err)
	require.NoError(t, s.SaveDeductionRule(ctx, rule))
	assert.True(t, payroll.IsValidation(s.SaveDeductionRule(ctx, payroll.DeductionRule{ID: "raw"})))

	rules, err := s.ListDeductionRules(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, 1)
}

func TestMemory_TaxRuleWindows(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	// GIVEN: an open-ended 2025 rule
	first := taxRule(t, "2025", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.SaveTaxRule(ctx, first))

	// WHEN: a second open-ended rule with the same code is saved
	err := s.SaveTaxRule(ctx, taxRule(t, "2026", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))

	// THEN: rejected, while updating the first one is fine
	assert.True(t, payroll.IsValidation(err))
	assert.NoError(t, s.SaveTaxRule(ctx, first))

	rules, err := s.ListTaxRules(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, 1)
}

func TestMemory_EmployeesAndAttendance(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	period := payroll.MonthPeriod(2025, time.March)

	in := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	out := in.Add(8 * time.Hour)
	day, err := payroll.NewAttendancePeriod(in, in, &out)
	require.NoError(t, err)

	assert.ErrorIs(t, s.SaveAttendance(ctx, "emp-1", day), payroll.ErrNotFound)

	require.NoError(t, s.SaveEmployee(ctx, payroll.Employee{ID: "emp-1", Name: "Ada", BaseSalary: money.NewFromInt(2200)}))
	require.NoError(t, s.SaveAttendance(ctx, "emp-1", day))

	outside := day
	outside.Date = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveAttendance(ctx, "emp-1", outside))

	days, err := s.ListAttendance(ctx, "emp-1", period)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "8.00", days[0].HoursWorked().StringFixed(2))

	emp, err := s.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.False(t, emp.CreatedAt.IsZero())
}

func TestMemory_Results(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	march := payroll.MonthPeriod(2025, time.March)
	april := payroll.MonthPeriod(2025, time.April)

	require.NoError(t, s.SaveResult(ctx, &payroll.PayrollResult{EmployeeID: "b", Period: march, NetPay: money.NewFromInt(1)}))
	require.NoError(t, s.SaveResult(ctx, &payroll.PayrollResult{EmployeeID: "a", Period: march, NetPay: money.NewFromInt(2)}))
	require.NoError(t, s.SaveResult(ctx, &payroll.PayrollResult{EmployeeID: "a", Period: april}))

	got, err := s.GetResult(ctx, "a", march)
	require.NoError(t, err)
	assert.Equal(t, "2.00", got.NetPay.String())

	list, err := s.ListResults(ctx, march)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].EmployeeID)

	_, err = s.GetResult(ctx, "c", march)
	assert.ErrorIs(t, err, payroll.ErrNotFound)
}
