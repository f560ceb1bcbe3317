package payroll_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/money"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func m(s string) money.Money { return money.MustParse(s) }

func mp(s string) *money.Money {
	v := money.MustParse(s)
	return &v
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func rate(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func rateBracket(min string, max string, r string) payroll.Bracket {
	b := payroll.Bracket{Min: m(min), Rate: rate(r)}
	if max != "" {
		b.Max = mp(max)
	}
	return b
}

func bracketSet(t *testing.T, brackets ...payroll.Bracket) payroll.BracketSet {
	t.Helper()
	set, err := payroll.NewBracketSet(brackets)
	require.NoError(t, err)
	return set
}

func at(day int, hour, minute int) time.Time {
	return time.Date(2025, time.March, day, hour, minute, 0, 0, time.UTC)
}

func workedDay(t *testing.T, day, fromHour, toHour int) payroll.AttendancePeriod {
	t.Helper()
	out := at(day, toHour, 0)
	p, err := payroll.NewAttendancePeriod(at(day, 0, 0), at(day, fromHour, 0), &out)
	require.NoError(t, err)
	return p
}

func march2025() payroll.PayPeriod {
	return payroll.MonthPeriod(2025, time.March)
}

var fixedClock = func() time.Time { return time.Date(2025, time.April, 1, 12, 0, 0, 0, time.UTC) }

func newEngine(t *testing.T, hours int) *payroll.Engine {
	t.Helper()
	e, err := payroll.NewEngine(payroll.Config{
		StandardMonthlyHours: hours,
		Clock:                fixedClock,
		NewID:                func() string { return "test-computation" },
	})
	require.NoError(t, err)
	return e
}

func payeRule(t *testing.T, brackets ...payroll.Bracket) payroll.DeductionRule {
	t.Helper()
	r, err := payroll.NewDeductionRule(payroll.DeductionRuleSpec{
		ID: "paye", Code: "PAYE", Name: "PAYE", Statutory: true, Brackets: brackets,
	})
	require.NoError(t, err)
	return r
}

func baseInputs(base string) payroll.ResolvedPayrollInputs {
	return payroll.ResolvedPayrollInputs{
		EmployeeID: "emp-1",
		Period:     march2025(),
		BaseSalary: m(base),
	}
}
