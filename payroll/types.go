/*
Package payroll provides the payroll computation core.

PURPOSE:
  Turns an employee's resolved inputs (base salary, attendance, resolved
  allowances, statutory deduction rules, flat contributions) into a final,
  auditable PayrollResult. The core performs no I/O and holds no state between
  calls; concurrent computations need no coordination.

KEY CONCEPTS:
  - ResolvedPayrollInputs: the single aggregate input, built once and never mutated
  - AttendancePeriod: one check-in/check-out pair, split into regular/overtime hours
  - BracketSet: validated, sorted progressive brackets (tax and bracketed deductions)
  - AllowanceRule / DeductionRule: closed sum types for calculation modes
  - Engine: orchestrates the stages and emits a PayrollResult

STAGES:
  Start -> AllowancesResolved -> AttendanceNormalized -> DeductionsResolved
        -> TaxComputed -> Aggregated

  Any failure aborts the computation. There is never a partial result.

TAX POLICY:
  Tax is a statutory deduction rule whose code equals Config.TaxCode. Its
  amount is taxTotal and is also part of deductionsTotal, so
  netPay = grossPay - deductionsTotal.

SEE ALSO:
  - engine.go: the aggregator
  - bracket.go: progressive evaluation and overlap validation
  - errors.go: error taxonomy
*/
package payroll

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/money"
)

const dateLayout = "2006-01-02"

// =============================================================================
// PAY PERIOD
// =============================================================================

// PayPeriod is the inclusive date range a payroll result covers.
type PayPeriod struct {
	Start time.Time
	End   time.Time
}

func NewPayPeriod(start, end time.Time) (PayPeriod, error) {
	p := PayPeriod{Start: dateOnly(start), End: dateOnly(end)}
	return p, p.Validate()
}

// MonthPeriod returns the calendar month containing any day of the month.
func MonthPeriod(year int, month time.Month) PayPeriod {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return PayPeriod{Start: start, End: start.AddDate(0, 1, -1)}
}

func (p PayPeriod) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return NewValidationError("period", "period start and end are required")
	}
	if p.End.Before(p.Start) {
		return NewValidationError("period", "period end %s is before start %s", p.End.Format(dateLayout), p.Start.Format(dateLayout))
	}
	return nil
}

// Contains reports whether the day of t falls in [Start, End].
func (p PayPeriod) Contains(t time.Time) bool {
	d := dateOnly(t)
	return !d.Before(dateOnly(p.Start)) && !d.After(dateOnly(p.End))
}

func (p PayPeriod) String() string {
	return "[" + p.Start.Format(dateLayout) + ", " + p.End.Format(dateLayout) + "]"
}

type payPeriodJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (p PayPeriod) MarshalJSON() ([]byte, error) {
	return json.Marshal(payPeriodJSON{Start: p.Start.Format(dateLayout), End: p.End.Format(dateLayout)})
}

func (p *PayPeriod) UnmarshalJSON(data []byte) error {
	var pj payPeriodJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return err
	}
	start, err := time.Parse(dateLayout, pj.Start)
	if err != nil {
		return fmt.Errorf("invalid period start: %w", err)
	}
	end, err := time.Parse(dateLayout, pj.End)
	if err != nil {
		return fmt.Errorf("invalid period end: %w", err)
	}
	p.Start, p.End = start, end
	return nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// INPUTS
// =============================================================================

// Contribution is a flat insurance or pension contribution. The employee
// share is deducted from pay; the employer share is an employer cost.
type Contribution struct {
	Employee money.Money
	Employer money.Money
}

// ResolvedPayrollInputs is everything one computation needs, resolved by the
// caller from persisted configuration. The engine never mutates it.
type ResolvedPayrollInputs struct {
	EmployeeID string
	Period     PayPeriod
	BaseSalary money.Money

	Allowances []ResolvedAllowance

	// Attendance holds the worked days of the period. Daily caps apply per day.
	Attendance []AttendancePeriod

	// OvertimeHours, when set, replaces the overtime derived from Attendance
	// (overtime approved and totalled by the caller).
	OvertimeHours *decimal.Decimal

	// DeductionRules are applied in order. Statutory rules come first in the
	// result regardless of position.
	DeductionRules []DeductionRule

	LoanRepayment money.Money
	Insurance     Contribution
	Pension       Contribution
}

// =============================================================================
// RESULT
// =============================================================================

// LineCategory groups line items in a result.
type LineCategory string

const (
	CategoryEarning   LineCategory = "earning"
	CategoryAllowance LineCategory = "allowance"
	CategoryDeduction LineCategory = "deduction"
)

// Line item codes emitted by the engine itself.
const (
	CodeBasic     = "BASIC"
	CodeOvertime  = "OVERTIME"
	CodeLoan      = "LOAN"
	CodeInsurance = "INSURANCE"
	CodePension   = "PENSION"
)

// WarningNegativeNet is reported when deductions exceed gross pay.
const WarningNegativeNet = "negative_net"

type LineItem struct {
	Code        string       `json:"code"`
	Description string       `json:"description"`
	Category    LineCategory `json:"category"`
	Amount      money.Money  `json:"amount"`
}

// TaxLine is one contributing bracket (or flat component) of a deduction.
type TaxLine struct {
	Label  string          `json:"label"`
	Amount money.Money     `json:"amount"`
	Rate   decimal.Decimal `json:"rate"`
}

// PayrollResult is created once per computation and never partially filled.
type PayrollResult struct {
	EmployeeID      string      `json:"employee_id"`
	Period          PayPeriod   `json:"period"`
	GrossPay        money.Money `json:"gross_pay"`
	TaxableIncome   money.Money `json:"taxable_income"`
	TaxTotal        money.Money `json:"tax_total"`
	TaxBreakdown    []TaxLine   `json:"tax_breakdown"`
	DeductionsTotal money.Money `json:"deductions_total"`
	AllowancesTotal money.Money `json:"allowances_total"`
	NetPay          money.Money `json:"net_pay"`
	EmployerCosts   money.Money `json:"employer_costs"`
	LineItems       []LineItem  `json:"line_items"`
	Warnings        []string    `json:"warnings,omitempty"`

	// Audit may carry wall-clock values and ids. It is excluded from equality.
	Audit map[string]string `json:"audit"`
}

// LinesIn returns the line items of one category, in order.
func (r *PayrollResult) LinesIn(category LineCategory) []LineItem {
	var out []LineItem
	for _, li := range r.LineItems {
		if li.Category == category {
			out = append(out, li)
		}
	}
	return out
}
