/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Rule and input bodies
  reuse the factory JSON types so the API accepts exactly the documents the
  factory parses; everything else is defined here.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request structs carry go-playground/validator tags for shape checks
  (required fields, date formats). Domain rules (bracket overlap, allowance
  field exclusivity) are enforced by the factory and the payroll core.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/rules.go, factory/inputs.go: rule and input JSON
*/
package api

import (
	"time"

	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/money"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

type CreateEmployeeRequest struct {
	ID               string                   `json:"id" validate:"required"`
	Name             string                   `json:"name" validate:"required"`
	BaseSalary       money.Money              `json:"base_salary"`
	AllowanceRuleIDs []string                 `json:"allowance_rule_ids" validate:"dive,required"`
	DeductionRuleIDs []string                 `json:"deduction_rule_ids" validate:"dive,required"`
	LoanRepayment    money.Money              `json:"loan_repayment"`
	Insurance        factory.ContributionJSON `json:"insurance"`
	Pension          factory.ContributionJSON `json:"pension"`
}

type AttendanceRequest struct {
	Date     string     `json:"date" validate:"omitempty,datetime=2006-01-02"`
	CheckIn  *time.Time `json:"check_in" validate:"required"`
	CheckOut *time.Time `json:"check_out"`
}

type RunRequest struct {
	PeriodStart string   `json:"period_start" validate:"required,datetime=2006-01-02"`
	PeriodEnd   string   `json:"period_end" validate:"required,datetime=2006-01-02"`
	EmployeeIDs []string `json:"employee_ids" validate:"dive,required"`
}

type ValidateBracketsRequest struct {
	Brackets []factory.BracketJSON `json:"brackets" validate:"required,min=1"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type EmployeeDTO struct {
	ID               string                   `json:"id"`
	Name             string                   `json:"name"`
	BaseSalary       money.Money              `json:"base_salary"`
	AllowanceRuleIDs []string                 `json:"allowance_rule_ids"`
	DeductionRuleIDs []string                 `json:"deduction_rule_ids"`
	LoanRepayment    money.Money              `json:"loan_repayment"`
	Insurance        factory.ContributionJSON `json:"insurance"`
	Pension          factory.ContributionJSON `json:"pension"`
	CreatedAt        string                   `json:"created_at,omitempty"`
}

func toEmployeeDTO(e payroll.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:               e.ID,
		Name:             e.Name,
		BaseSalary:       e.BaseSalary,
		AllowanceRuleIDs: e.AllowanceRuleIDs,
		DeductionRuleIDs: e.DeductionRuleIDs,
		LoanRepayment:    e.LoanRepayment,
		Insurance:        factory.ContributionJSON{Employee: e.Insurance.Employee, Employer: e.Insurance.Employer},
		Pension:          factory.ContributionJSON{Employee: e.Pension.Employee, Employer: e.Pension.Employer},
	}
	if !e.CreatedAt.IsZero() {
		dto.CreatedAt = e.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

type OutcomeDTO struct {
	EmployeeID string       `json:"employee_id"`
	NetPay     *money.Money `json:"net_pay,omitempty"`
	Error      string       `json:"error,omitempty"`
}

type RunDTO struct {
	RunID     string            `json:"run_id"`
	Period    payroll.PayPeriod `json:"period"`
	Employees int               `json:"employees"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Outcomes  []OutcomeDTO      `json:"outcomes,omitempty"`
	StartedAt string            `json:"started_at,omitempty"`
}

type BracketsDTO struct {
	Valid    bool                  `json:"valid"`
	Brackets []factory.BracketJSON `json:"brackets"`
	Labels   []string              `json:"labels"`
}

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Field   string `json:"field,omitempty"`
	RuleID  string `json:"rule_id,omitempty"`
}
