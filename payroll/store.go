/*
store.go - Persistence interfaces around the payroll core

PURPOSE:
  The core itself never touches storage. These interfaces are what the
  resolution service reads configuration from and what a payroll run writes
  results to. Implementations live outside the core.

KEY INTERFACES:
  RuleStore:     allowance, deduction and tax rule definitions
  EmployeeStore: compensation profiles and attendance
  ResultStore:   computed PayrollResults, one per employee and period
  RunStore:      summaries of batch payroll runs

VALIDATION CONTRACT:
  Rules reach a store already validated (NewDeductionRule, NewTaxRule,
  AllowanceRule.Validate). SaveTaxRule additionally rejects a rule whose
  effective window overlaps another rule with the same code.

NOT FOUND:
  Get methods return ErrNotFound (wrapped) for missing records.

IMPLEMENTATIONS:
  - payroll/store/memory.go: in-memory for tests and the scenario endpoints
  - store/sqlite/sqlite.go: SQLite

SEE ALSO:
  - resolve/resolver.go: reads RuleStore and EmployeeStore
  - payrun/service.go: writes ResultStore
*/
package payroll

import (
	"context"
	"time"

	"github.com/warp/payroll-engine/money"
)

// =============================================================================
// RULE STORE
// =============================================================================

type RuleStore interface {
	SaveAllowanceRule(ctx context.Context, rule AllowanceRule) error
	GetAllowanceRule(ctx context.Context, id string) (AllowanceRule, error)
	ListAllowanceRules(ctx context.Context) ([]AllowanceRule, error)

	SaveDeductionRule(ctx context.Context, rule DeductionRule) error
	GetDeductionRule(ctx context.Context, id string) (DeductionRule, error)
	ListDeductionRules(ctx context.Context) ([]DeductionRule, error)

	// SaveTaxRule rejects overlapping effective windows for the same code.
	SaveTaxRule(ctx context.Context, rule TaxRule) error
	GetTaxRule(ctx context.Context, id string) (TaxRule, error)
	ListTaxRules(ctx context.Context) ([]TaxRule, error)
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

// Employee is the compensation profile the resolver builds inputs from.
// Rule ids are applied in order.
type Employee struct {
	ID               string
	Name             string
	BaseSalary       money.Money
	AllowanceRuleIDs []string
	DeductionRuleIDs []string
	LoanRepayment    money.Money
	Insurance        Contribution
	Pension          Contribution
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type EmployeeStore interface {
	SaveEmployee(ctx context.Context, emp Employee) error
	GetEmployee(ctx context.Context, id string) (Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)

	// SaveAttendance replaces the record for the same employee and date.
	SaveAttendance(ctx context.Context, employeeID string, day AttendancePeriod) error

	// ListAttendance returns the days inside period ordered by date.
	ListAttendance(ctx context.Context, employeeID string, period PayPeriod) ([]AttendancePeriod, error)
}

// =============================================================================
// RESULT STORE
// =============================================================================

type ResultStore interface {
	// SaveResult replaces any result for the same employee and period.
	SaveResult(ctx context.Context, result *PayrollResult) error
	GetResult(ctx context.Context, employeeID string, period PayPeriod) (*PayrollResult, error)
	ListResults(ctx context.Context, period PayPeriod) ([]*PayrollResult, error)
}

// =============================================================================
// RUN STORE
// =============================================================================

// RunRecord summarizes one batch run.
type RunRecord struct {
	ID          string
	Period      PayPeriod
	Employees   int
	Succeeded   int
	Failed      int
	StartedAt   time.Time
	CompletedAt time.Time
}

type RunStore interface {
	SaveRun(ctx context.Context, run RunRecord) error
	// ListRuns returns runs newest first.
	ListRuns(ctx context.Context) ([]RunRecord, error)
}

// Store combines the four, as implemented by the concrete backends.
type Store interface {
	RuleStore
	EmployeeStore
	ResultStore
	RunStore
}
