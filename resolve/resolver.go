/*
Package resolve assembles ResolvedPayrollInputs from persisted configuration.

PURPOSE:
  The payroll core takes fully resolved inputs and performs no lookups. This
  package is the step in front of it: it reads an employee's compensation
  profile, the rules that profile references, the tax rule in force and the
  period's attendance, and produces the single aggregate the engine consumes.

RESOLUTION ORDER:
  1. employee profile (base salary, rule ids, contributions)
  2. attendance inside the period
  3. allowances, each resolved against
       basic_salary = base salary
       gross_salary = base salary + overtime pay
  4. deduction rules in profile order
  5. the tax rule active on the last day of the period, appended as the
     tax-code deduction rule

MISSING REFERENCES:
  A rule id on the profile that the store does not know becomes a
  MissingConfiguration error naming the rule. No tax rule stored for the tax
  code at all means an untaxed payroll; tax rules that exist but none of which
  is active on the period end is MissingConfiguration.

SEE ALSO:
  - payroll/store.go: the stores read here
  - payrun/service.go: resolves then computes a batch
*/
package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/warp/payroll-engine/payroll"
)

// Resolver reads from the stores and prices overtime with Engine's config.
type Resolver struct {
	Rules     payroll.RuleStore
	Employees payroll.EmployeeStore
	Engine    *payroll.Engine
}

func New(rules payroll.RuleStore, employees payroll.EmployeeStore, engine *payroll.Engine) *Resolver {
	return &Resolver{Rules: rules, Employees: employees, Engine: engine}
}

// Resolve builds the inputs for one employee and period.
func (r *Resolver) Resolve(ctx context.Context, employeeID string, period payroll.PayPeriod) (payroll.ResolvedPayrollInputs, error) {
	if err := period.Validate(); err != nil {
		return payroll.ResolvedPayrollInputs{}, err
	}

	emp, err := r.Employees.GetEmployee(ctx, employeeID)
	if err != nil {
		return payroll.ResolvedPayrollInputs{}, missing(err, "employee_id", "", "employee "+employeeID)
	}

	in := payroll.ResolvedPayrollInputs{
		EmployeeID:    emp.ID,
		Period:        period,
		BaseSalary:    emp.BaseSalary,
		LoanRepayment: emp.LoanRepayment,
		Insurance:     emp.Insurance,
		Pension:       emp.Pension,
	}

	in.Attendance, err = r.Employees.ListAttendance(ctx, emp.ID, period)
	if err != nil {
		return payroll.ResolvedPayrollInputs{}, fmt.Errorf("failed to load attendance for %s: %w", emp.ID, err)
	}

	bases, err := r.bases(emp, in.Attendance)
	if err != nil {
		return payroll.ResolvedPayrollInputs{}, err
	}
	for _, id := range emp.AllowanceRuleIDs {
		rule, err := r.Rules.GetAllowanceRule(ctx, id)
		if err != nil {
			return payroll.ResolvedPayrollInputs{}, missing(err, "allowance_rule_ids", id, "allowance rule "+id)
		}
		resolved, err := payroll.ResolveAllowanceWith(rule, bases, r.Engine.Config().Rounding)
		if err != nil {
			return payroll.ResolvedPayrollInputs{}, err
		}
		in.Allowances = append(in.Allowances, resolved)
	}

	for _, id := range emp.DeductionRuleIDs {
		rule, err := r.Rules.GetDeductionRule(ctx, id)
		if err != nil {
			return payroll.ResolvedPayrollInputs{}, missing(err, "deduction_rule_ids", id, "deduction rule "+id)
		}
		in.DeductionRules = append(in.DeductionRules, rule)
	}

	tax, ok, err := r.taxRule(ctx, period)
	if err != nil {
		return payroll.ResolvedPayrollInputs{}, err
	}
	if ok {
		in.DeductionRules = append(in.DeductionRules, tax.AsDeductionRule())
	}
	return in, nil
}

func (r *Resolver) bases(emp payroll.Employee, days []payroll.AttendancePeriod) (payroll.AllowanceBases, error) {
	summary, err := payroll.SummarizeAttendance(days)
	if err != nil {
		return payroll.AllowanceBases{}, err
	}
	overtime, err := r.Engine.OvertimePay(emp.BaseSalary, summary.OvertimeHours)
	if err != nil {
		return payroll.AllowanceBases{}, err
	}
	return payroll.AllowanceBases{
		BasicSalary: emp.BaseSalary,
		GrossSalary: emp.BaseSalary.Add(overtime),
	}, nil
}

func (r *Resolver) taxRule(ctx context.Context, period payroll.PayPeriod) (payroll.TaxRule, bool, error) {
	all, err := r.Rules.ListTaxRules(ctx)
	if err != nil {
		return payroll.TaxRule{}, false, fmt.Errorf("failed to load tax rules: %w", err)
	}
	code := r.Engine.Config().TaxCode
	var candidates []payroll.TaxRule
	for _, t := range all {
		if strings.EqualFold(t.Code, code) {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return payroll.TaxRule{}, false, nil
	}
	rule, err := payroll.SelectTaxRule(candidates, period.End)
	if err != nil {
		return payroll.TaxRule{}, false, err
	}
	return rule, true, nil
}

// missing turns a store ErrNotFound into MissingConfiguration and passes
// other errors through.
func missing(err error, field, ruleID, what string) error {
	if !errors.Is(err, payroll.ErrNotFound) {
		return err
	}
	return payroll.NewMissingConfigurationError(field, "%s is not configured", what).ForRule(ruleID).Because(err)
}
