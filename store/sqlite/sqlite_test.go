package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/money"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/statutory"
	"github.com/warp/payroll-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_DeductionRuleRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	f := factory.NewRuleFactory()

	// GIVEN: a bracketed NSSF rule
	nssf, err := f.ParseDeductionRule(statutory.NSSFJSON("nssf", statutory.NSSFLowerEarningsLimit, statutory.NSSFUpperEarningsLimit))
	require.NoError(t, err)

	// WHEN: saved and read back
	require.NoError(t, s.SaveDeductionRule(ctx, nssf))
	got, err := s.GetDeductionRule(ctx, "nssf")
	require.NoError(t, err)

	// THEN: it evaluates the same
	assert.True(t, got.Statutory)
	assert.True(t, got.ReducesTaxableIncome)
	res, err := payroll.ResolveDeduction(got, money.MustParse("150000"), money.RoundHalfUp)
	require.NoError(t, err)
	assert.Equal(t, "4320.00", res.Amount.String())

	_, err = s.GetDeductionRule(ctx, "missing")
	assert.ErrorIs(t, err, payroll.ErrNotFound)
}

func TestStore_AllowanceRules(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	f := factory.NewRuleFactory()

	housing, err := f.ParseAllowanceRule(statutory.HousingAllowanceJSON("housing", "15", "5000"))
	require.NoError(t, err)
	transport, err := f.ParseAllowanceRule(statutory.TransportAllowanceJSON("transport", "3000"))
	require.NoError(t, err)

	require.NoError(t, s.SaveAllowanceRule(ctx, transport))
	require.NoError(t, s.SaveAllowanceRule(ctx, housing))
	// saving again updates in place
	require.NoError(t, s.SaveAllowanceRule(ctx, housing))

	rules, err := s.ListAllowanceRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "housing", rules[0].ID)
	assert.Equal(t, "transport", rules[1].ID)
	assert.Equal(t, "5000.00", rules[0].MaxAmount.String())

	_, err = s.GetAllowanceRule(ctx, "missing")
	assert.ErrorIs(t, err, payroll.ErrNotFound)
}

func TestStore_TaxRuleWindows(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	f := factory.NewRuleFactory()

	// GIVEN: an open-ended PAYE rule from 2025
	paye2025, err := f.ParseTaxRule(statutory.PAYEJSON("paye-2025", "2025-01-01"))
	require.NoError(t, err)
	require.NoError(t, s.SaveTaxRule(ctx, paye2025))

	// WHEN: another PAYE rule starts inside its window
	paye2026, err := f.ParseTaxRule(statutory.PAYEJSON("paye-2026", "2026-01-01"))
	require.NoError(t, err)
	err = s.SaveTaxRule(ctx, paye2026)

	// THEN: it is rejected, and re-saving the original still works
	assert.True(t, payroll.IsValidation(err))
	require.NoError(t, s.SaveTaxRule(ctx, paye2025))

	rules, err := s.ListTaxRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, 5, rules[0].Brackets.Len())

	selected, err := payroll.SelectTaxRule(rules, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "paye-2025", selected.ID)
}

func TestStore_EmployeesAndAttendance(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	emp := payroll.Employee{
		ID:               "emp-1",
		Name:             "Jane Doe",
		BaseSalary:       money.MustParse("50000"),
		AllowanceRuleIDs: []string{"housing"},
		DeductionRuleIDs: []string{"nssf", "shif"},
		LoanRepayment:    money.MustParse("1500"),
		Pension:          payroll.Contribution{Employee: money.MustParse("500"), Employer: money.MustParse("1000")},
	}
	require.NoError(t, s.SaveEmployee(ctx, emp))

	got, err := s.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.Name)
	assert.Equal(t, "50000.00", got.BaseSalary.String())
	assert.Equal(t, []string{"nssf", "shif"}, got.DeductionRuleIDs)
	assert.Equal(t, "1000.00", got.Pension.Employer.String())
	assert.False(t, got.CreatedAt.IsZero())

	_, err = s.GetEmployee(ctx, "nobody")
	assert.ErrorIs(t, err, payroll.ErrNotFound)

	// attendance: two days in March, one in April
	in := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	out := time.Date(2025, 3, 3, 18, 0, 0, 0, time.UTC)
	day, err := payroll.NewAttendancePeriod(in, in, &out)
	require.NoError(t, err)
	require.NoError(t, s.SaveAttendance(ctx, "emp-1", day))

	in2 := time.Date(2025, 3, 4, 9, 30, 0, 0, time.UTC)
	day2, err := payroll.NewAttendancePeriod(in2, in2, nil)
	require.NoError(t, err)
	require.NoError(t, s.SaveAttendance(ctx, "emp-1", day2))

	in3 := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	day3, err := payroll.NewAttendancePeriod(in3, in3, nil)
	require.NoError(t, err)
	require.NoError(t, s.SaveAttendance(ctx, "emp-1", day3))

	days, err := s.ListAttendance(ctx, "emp-1", payroll.MonthPeriod(2025, time.March))
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "10.00", days[0].HoursWorked().StringFixed(2))
	assert.Nil(t, days[1].CheckOut)

	err = s.SaveAttendance(ctx, "nobody", day)
	assert.ErrorIs(t, err, payroll.ErrNotFound)
}

func TestStore_Results(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	engine, err := payroll.NewEngine(payroll.Config{StandardMonthlyHours: 176})
	require.NoError(t, err)
	result, err := engine.Compute(payroll.ResolvedPayrollInputs{
		EmployeeID: "emp-1",
		Period:     payroll.MonthPeriod(2025, time.March),
		BaseSalary: money.MustParse("3000"),
	})
	require.NoError(t, err)

	require.NoError(t, s.SaveResult(ctx, result))
	// a recomputation replaces the stored result
	require.NoError(t, s.SaveResult(ctx, result))

	got, err := s.GetResult(ctx, "emp-1", payroll.MonthPeriod(2025, time.March))
	require.NoError(t, err)
	assert.Equal(t, "3000.00", got.NetPay.String())
	require.Len(t, got.LineItems, len(result.LineItems))
	assert.Equal(t, payroll.CodeBasic, got.LineItems[0].Code)
	assert.Equal(t, result.Audit["computation_id"], got.Audit["computation_id"])

	list, err := s.ListResults(ctx, payroll.MonthPeriod(2025, time.March))
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = s.GetResult(ctx, "emp-1", payroll.MonthPeriod(2025, time.April))
	assert.ErrorIs(t, err, payroll.ErrNotFound)
}

func TestStore_RunsAndReset(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	started := time.Date(2025, 4, 1, 6, 0, 0, 0, time.UTC)
	run := payroll.RunRecord{
		ID:          "run-1",
		Period:      payroll.MonthPeriod(2025, time.March),
		Employees:   3,
		Succeeded:   2,
		Failed:      1,
		StartedAt:   started,
		CompletedAt: started.Add(time.Second),
	}
	require.NoError(t, s.SaveRun(ctx, run))
	assert.True(t, payroll.IsValidation(s.SaveRun(ctx, run)))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].Succeeded)
	assert.Equal(t, "[2025-03-01, 2025-03-31]", runs[0].Period.String())

	require.NoError(t, s.Reset(ctx))
	runs, err = s.ListRuns(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
