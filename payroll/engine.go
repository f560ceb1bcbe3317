/*
engine.go - Payroll aggregator

PURPOSE:
  Runs one computation from ResolvedPayrollInputs to PayrollResult in a single
  pass. The Engine holds only its construction-time Config; Compute reads the
  inputs and allocates a fresh result, so one Engine can serve any number of
  goroutines.

ALGORITHM:
  1. allowancesTotal   = sum(allowances)
     taxableAllowances = sum(allowances where taxable)
  2. overtimePay  = overtimeHours * (baseSalary / StandardMonthlyHours) * OvertimeMultiplier
     grossPay     = baseSalary + allowancesTotal + overtimePay
  3. taxableIncome = baseSalary + taxableAllowances
  4. every non-tax deduction rule is resolved against taxableIncome
  5. the tax rule (Code == TaxCode) is resolved against
       taxableIncome                                independent (default)
       taxableIncome - sum(relief deductions)       after_relief
     its amount is taxTotal and is part of deductionsTotal
  6. loan, insurance and pension employee shares are added to deductionsTotal
  7. netPay        = grossPay - deductionsTotal
     employerCosts = grossPay + employer shares

LINE ITEM ORDER:
  BASIC, OVERTIME, allowances (input order), statutory deductions (input
  order), voluntary deductions (input order), LOAN, INSURANCE, PENSION.

DETERMINISM:
  Every field except Audit depends only on the inputs and Config. Audit carries
  the computation id and wall-clock time from Config.NewID and Config.Clock.
*/
package payroll

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/money"
)

// Stage is the state a computation has reached.
type Stage string

const (
	StageStart                Stage = "start"
	StageAllowancesResolved   Stage = "allowances_resolved"
	StageAttendanceNormalized Stage = "attendance_normalized"
	StageDeductionsResolved   Stage = "deductions_resolved"
	StageTaxComputed          Stage = "tax_computed"
	StageAggregated           Stage = "aggregated"
)

// DefaultTaxCode identifies the deduction rule treated as income tax.
const DefaultTaxCode = "PAYE"

// DefaultOvertimeMultiplier applies when Config.OvertimeMultiplier is zero.
var DefaultOvertimeMultiplier = decimal.RequireFromString("1.5")

// TaxBasePolicy decides which base the tax rule is evaluated against.
type TaxBasePolicy string

const (
	// TaxBaseIndependent evaluates tax and every other deduction off the same
	// taxable income.
	TaxBaseIndependent TaxBasePolicy = "independent"
	// TaxBaseAfterRelief subtracts rules flagged ReducesTaxableIncome before
	// evaluating tax.
	TaxBaseAfterRelief TaxBasePolicy = "after_relief"
)

func ParseTaxBasePolicy(s string) (TaxBasePolicy, error) {
	switch TaxBasePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", TaxBaseIndependent:
		return TaxBaseIndependent, nil
	case TaxBaseAfterRelief:
		return TaxBaseAfterRelief, nil
	}
	return "", NewValidationError("tax_base", "unknown tax base policy %q", s)
}

// =============================================================================
// CONFIG
// =============================================================================

// Config is supplied at construction and never changes afterwards.
type Config struct {
	// StandardMonthlyHours derives the hourly rate for overtime. There is no
	// default: zero only fails when a computation has overtime to pay.
	StandardMonthlyHours int

	// OvertimeMultiplier defaults to 1.5.
	OvertimeMultiplier decimal.Decimal

	// Rounding defaults to half-up.
	Rounding money.RoundingMode

	// TaxCode defaults to "PAYE". Matched case-insensitively.
	TaxCode string

	// TaxBase defaults to TaxBaseIndependent.
	TaxBase TaxBasePolicy

	// Clock and NewID only feed the audit map.
	Clock func() time.Time
	NewID func() string
}

func (c Config) withDefaults() (Config, error) {
	if c.StandardMonthlyHours < 0 {
		return c, NewValidationError("standard_monthly_hours", "standard monthly hours cannot be negative")
	}
	if c.OvertimeMultiplier.IsZero() {
		c.OvertimeMultiplier = DefaultOvertimeMultiplier
	}
	if c.OvertimeMultiplier.IsNegative() {
		return c, NewValidationError("overtime_multiplier", "overtime multiplier must be positive")
	}
	mode, err := money.ParseRoundingMode(string(c.Rounding))
	if err != nil {
		return c, NewValidationError("rounding", "%s", err.Error())
	}
	c.Rounding = mode
	if c.TaxCode == "" {
		c.TaxCode = DefaultTaxCode
	}
	policy, err := ParseTaxBasePolicy(string(c.TaxBase))
	if err != nil {
		return c, err
	}
	c.TaxBase = policy
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.NewID == nil {
		c.NewID = uuid.NewString
	}
	return c, nil
}

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) (*Engine, error) {
	resolved, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	return &Engine{cfg: resolved}, nil
}

// Config returns the effective configuration, defaults applied.
func (e *Engine) Config() Config { return e.cfg }

// computation carries the running totals of one Compute call.
type computation struct {
	in    ResolvedPayrollInputs
	stage Stage

	allowancesTotal   money.Money
	taxableAllowances money.Money
	attendance        AttendanceSummary
	overtimeHours     decimal.Decimal
	hourlyRate        money.Money
	overtimePay       money.Money
	grossPay          money.Money
	taxableIncome     money.Money

	statutory []LineItem
	voluntary []LineItem

	deductionsTotal money.Money
	relief          money.Money
	taxTotal        money.Money
	taxBreakdown    []TaxLine
}

// Compute runs the stages in order. Any failure aborts the computation and is
// returned as an *Error annotated with the last stage reached.
func (e *Engine) Compute(in ResolvedPayrollInputs) (*PayrollResult, error) {
	c := &computation{in: in, stage: StageStart}

	steps := []struct {
		run  func(*computation) error
		next Stage
	}{
		{e.validateInputs, StageStart},
		{e.resolveAllowances, StageAllowancesResolved},
		{e.normalizeAttendance, StageAttendanceNormalized},
		{e.resolveDeductions, StageDeductionsResolved},
		{e.computeTax, StageTaxComputed},
	}
	for _, step := range steps {
		if err := step.run(c); err != nil {
			return nil, atStage(err, c.stage)
		}
		c.stage = step.next
	}

	result := e.aggregate(c)
	return result, nil
}

func (e *Engine) validateInputs(c *computation) error {
	in := c.in
	if in.EmployeeID == "" {
		return NewValidationError("employee_id", "employee id is required")
	}
	if err := in.Period.Validate(); err != nil {
		return err
	}
	if in.BaseSalary.IsNegative() {
		return NewValidationError("base_salary", "base salary cannot be negative")
	}
	if in.OvertimeHours != nil && in.OvertimeHours.IsNegative() {
		return NewValidationError("overtime_hours", "overtime hours cannot be negative").Because(ErrOvertimeExceeded)
	}
	contributions := []struct {
		field  string
		amount money.Money
	}{
		{"loan_repayment", in.LoanRepayment},
		{"insurance.employee", in.Insurance.Employee},
		{"insurance.employer", in.Insurance.Employer},
		{"pension.employee", in.Pension.Employee},
		{"pension.employer", in.Pension.Employer},
	}
	for _, ct := range contributions {
		if ct.amount.IsNegative() {
			return NewValidationError(ct.field, "contribution cannot be negative")
		}
	}
	return nil
}

func (e *Engine) resolveAllowances(c *computation) error {
	c.allowancesTotal = money.Zero()
	c.taxableAllowances = money.Zero()
	for i, a := range c.in.Allowances {
		if a.RuleID == "" && a.Code == "" {
			return NewMissingConfigurationError("allowances", "allowance %d has no rule reference", i)
		}
		if a.Amount.IsNegative() {
			return NewValidationError("amount", "allowance amount cannot be negative").ForRule(a.RuleID)
		}
		c.allowancesTotal = c.allowancesTotal.Add(a.Amount)
		if a.Taxable {
			c.taxableAllowances = c.taxableAllowances.Add(a.Amount)
		}
	}
	return nil
}

func (e *Engine) normalizeAttendance(c *computation) error {
	summary, err := SummarizeAttendance(c.in.Attendance)
	if err != nil {
		return err
	}
	c.attendance = summary
	c.overtimeHours = summary.OvertimeHours
	if c.in.OvertimeHours != nil {
		c.overtimeHours = *c.in.OvertimeHours
	}

	c.hourlyRate = money.Zero()
	c.overtimePay = money.Zero()
	if c.overtimeHours.IsPositive() {
		hourly, err := e.HourlyRate(c.in.BaseSalary)
		if err != nil {
			return err
		}
		c.hourlyRate = hourly
		c.overtimePay = hourly.Mul(c.overtimeHours).Mul(e.cfg.OvertimeMultiplier).Round(e.cfg.Rounding)
	}

	c.grossPay = c.in.BaseSalary.Add(c.allowancesTotal).Add(c.overtimePay).Round(e.cfg.Rounding)
	c.taxableIncome = c.in.BaseSalary.Add(c.taxableAllowances).Round(e.cfg.Rounding)
	return nil
}

// HourlyRate is baseSalary / StandardMonthlyHours, unrounded.
func (e *Engine) HourlyRate(baseSalary money.Money) (money.Money, error) {
	hourly, err := baseSalary.Div(decimal.NewFromInt(int64(e.cfg.StandardMonthlyHours)))
	if err != nil {
		return money.Money{}, NewComputationError(err, "cannot derive hourly rate: standard monthly hours is %d", e.cfg.StandardMonthlyHours)
	}
	return hourly, nil
}

// OvertimePay prices overtime hours the way Compute does. Zero hours cost
// nothing, whatever StandardMonthlyHours is.
func (e *Engine) OvertimePay(baseSalary money.Money, hours decimal.Decimal) (money.Money, error) {
	if !hours.IsPositive() {
		return money.Zero(), nil
	}
	hourly, err := e.HourlyRate(baseSalary)
	if err != nil {
		return money.Money{}, err
	}
	return hourly.Mul(hours).Mul(e.cfg.OvertimeMultiplier).Round(e.cfg.Rounding), nil
}

func (e *Engine) isTaxRule(r DeductionRule) bool {
	return strings.EqualFold(r.Code, e.cfg.TaxCode)
}

func (e *Engine) resolveDeductions(c *computation) error {
	c.deductionsTotal = money.Zero()
	c.relief = money.Zero()
	taxRules := 0
	for _, rule := range c.in.DeductionRules {
		if e.isTaxRule(rule) {
			taxRules++
			if taxRules > 1 {
				return NewValidationError("deduction_rules", "more than one %s rule supplied", e.cfg.TaxCode).ForRule(rule.ID)
			}
			continue
		}
		res, err := ResolveDeduction(rule, c.taxableIncome, e.cfg.Rounding)
		if err != nil {
			return err
		}
		c.addDeduction(rule, res.Amount)
		if rule.ReducesTaxableIncome {
			c.relief = c.relief.Add(res.Amount)
		}
	}
	return nil
}

func (e *Engine) computeTax(c *computation) error {
	c.taxTotal = money.Zero()
	c.taxBreakdown = []TaxLine{}
	if e.cfg.TaxBase == TaxBaseAfterRelief {
		c.taxableIncome = c.taxableIncome.Sub(c.relief).Max(money.Zero())
	}

	for _, rule := range c.in.DeductionRules {
		if !e.isTaxRule(rule) {
			continue
		}
		res, err := ResolveDeduction(rule, c.taxableIncome, e.cfg.Rounding)
		if err != nil {
			return err
		}
		c.taxTotal = res.Amount
		if res.Breakdown != nil {
			c.taxBreakdown = res.Breakdown
		}
		c.addDeduction(rule, res.Amount)
	}
	return nil
}

func (c *computation) addDeduction(rule DeductionRule, amount money.Money) {
	li := LineItem{Code: rule.Code, Description: rule.displayName(), Category: CategoryDeduction, Amount: amount}
	if rule.Statutory {
		c.statutory = append(c.statutory, li)
	} else {
		c.voluntary = append(c.voluntary, li)
	}
	c.deductionsTotal = c.deductionsTotal.Add(amount)
}

func (e *Engine) aggregate(c *computation) *PayrollResult {
	round := func(m money.Money) money.Money { return m.Round(e.cfg.Rounding) }
	in := c.in

	lines := []LineItem{{Code: CodeBasic, Description: "Basic salary", Category: CategoryEarning, Amount: round(in.BaseSalary)}}
	if c.overtimePay.IsPositive() {
		lines = append(lines, LineItem{
			Code:        CodeOvertime,
			Description: "Overtime " + c.overtimeHours.StringFixed(2) + "h",
			Category:    CategoryEarning,
			Amount:      c.overtimePay,
		})
	}
	for _, a := range in.Allowances {
		code := a.Code
		if code == "" {
			code = a.RuleID
		}
		desc := a.Name
		if desc == "" {
			desc = code
		}
		lines = append(lines, LineItem{Code: code, Description: desc, Category: CategoryAllowance, Amount: round(a.Amount)})
	}
	lines = append(lines, c.statutory...)
	lines = append(lines, c.voluntary...)

	flat := []struct {
		code, desc string
		amount     money.Money
	}{
		{CodeLoan, "Loan repayment", in.LoanRepayment},
		{CodeInsurance, "Insurance contribution", in.Insurance.Employee},
		{CodePension, "Pension contribution", in.Pension.Employee},
	}
	for _, f := range flat {
		if f.amount.IsZero() {
			continue
		}
		amount := round(f.amount)
		lines = append(lines, LineItem{Code: f.code, Description: f.desc, Category: CategoryDeduction, Amount: amount})
		c.deductionsTotal = c.deductionsTotal.Add(amount)
	}

	deductions := round(c.deductionsTotal)
	net := c.grossPay.Sub(deductions)
	employer := round(c.grossPay.Add(in.Insurance.Employer).Add(in.Pension.Employer))

	var warnings []string
	if net.IsNegative() {
		warnings = append(warnings, WarningNegativeNet)
	}

	c.stage = StageAggregated
	return &PayrollResult{
		EmployeeID:      in.EmployeeID,
		Period:          in.Period,
		GrossPay:        c.grossPay,
		TaxableIncome:   c.taxableIncome,
		TaxTotal:        c.taxTotal,
		TaxBreakdown:    c.taxBreakdown,
		DeductionsTotal: deductions,
		AllowancesTotal: round(c.allowancesTotal),
		NetPay:          net,
		EmployerCosts:   employer,
		LineItems:       lines,
		Warnings:        warnings,
		Audit:           e.audit(c),
	}
}

func (e *Engine) audit(c *computation) map[string]string {
	return map[string]string{
		"computation_id":         e.cfg.NewID(),
		"computed_at":            e.cfg.Clock().UTC().Format(time.RFC3339),
		"stage":                  string(c.stage),
		"rounding":               string(e.cfg.Rounding),
		"tax_base":               string(e.cfg.TaxBase),
		"tax_code":               e.cfg.TaxCode,
		"standard_monthly_hours": strconv.Itoa(e.cfg.StandardMonthlyHours),
		"overtime_multiplier":    e.cfg.OvertimeMultiplier.String(),
		"overtime_hours":         c.overtimeHours.StringFixed(2),
		"hourly_rate":            c.hourlyRate.Round(e.cfg.Rounding).String(),
		"attendance_days":        strconv.Itoa(c.attendance.Days),
		"late_arrivals":          strconv.Itoa(c.attendance.LateArrivals),
	}
}
