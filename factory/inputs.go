package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/money"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// RESOLVED INPUTS JSON
// =============================================================================

// InputsJSON is the wire form of payroll.ResolvedPayrollInputs, used by the
// stateless compute endpoint and the CLI.
type InputsJSON struct {
	EmployeeID     string                      `json:"employee_id"`
	Period         payroll.PayPeriod           `json:"period"`
	BaseSalary     money.Money                 `json:"base_salary"`
	Allowances     []payroll.ResolvedAllowance `json:"allowances,omitempty"`
	Attendance     []AttendanceJSON            `json:"attendance,omitempty"`
	OvertimeHours  *decimal.Decimal            `json:"overtime_hours,omitempty"`
	DeductionRules []DeductionRuleJSON         `json:"deduction_rules,omitempty"`
	LoanRepayment  money.Money                 `json:"loan_repayment"`
	Insurance      ContributionJSON            `json:"insurance"`
	Pension        ContributionJSON            `json:"pension"`
}

type AttendanceJSON struct {
	Date     string     `json:"date"`
	CheckIn  time.Time  `json:"check_in"`
	CheckOut *time.Time `json:"check_out,omitempty"`
}

type ContributionJSON struct {
	Employee money.Money `json:"employee"`
	Employer money.Money `json:"employer"`
}

// ParseInputs reads and validates a JSON document of resolved inputs.
func (f *RuleFactory) ParseInputs(jsonStr string) (payroll.ResolvedPayrollInputs, error) {
	var ij InputsJSON
	if err := json.Unmarshal([]byte(jsonStr), &ij); err != nil {
		return payroll.ResolvedPayrollInputs{}, fmt.Errorf("failed to parse inputs JSON: %w", err)
	}
	return f.InputsFromJSON(ij)
}

func (f *RuleFactory) InputsFromJSON(ij InputsJSON) (payroll.ResolvedPayrollInputs, error) {
	in := payroll.ResolvedPayrollInputs{
		EmployeeID:    ij.EmployeeID,
		Period:        ij.Period,
		BaseSalary:    ij.BaseSalary,
		Allowances:    ij.Allowances,
		OvertimeHours: ij.OvertimeHours,
		LoanRepayment: ij.LoanRepayment,
		Insurance:     payroll.Contribution{Employee: ij.Insurance.Employee, Employer: ij.Insurance.Employer},
		Pension:       payroll.Contribution{Employee: ij.Pension.Employee, Employer: ij.Pension.Employer},
	}

	for _, aj := range ij.Attendance {
		day, err := AttendanceFromJSON(aj)
		if err != nil {
			return payroll.ResolvedPayrollInputs{}, err
		}
		in.Attendance = append(in.Attendance, day)
	}

	for _, dj := range ij.DeductionRules {
		rule, err := f.DeductionFromJSON(dj)
		if err != nil {
			return payroll.ResolvedPayrollInputs{}, err
		}
		in.DeductionRules = append(in.DeductionRules, rule)
	}
	return in, nil
}

// AttendanceFromJSON defaults the date to the check-in day.
func AttendanceFromJSON(aj AttendanceJSON) (payroll.AttendancePeriod, error) {
	date := aj.CheckIn
	if aj.Date != "" {
		d, err := time.Parse(dateLayout, aj.Date)
		if err != nil {
			return payroll.AttendancePeriod{}, payroll.NewValidationError("date", "invalid attendance date %q", aj.Date)
		}
		date = d
	}
	return payroll.NewAttendancePeriod(date, aj.CheckIn, aj.CheckOut)
}

func AttendanceToJSON(a payroll.AttendancePeriod) AttendanceJSON {
	return AttendanceJSON{Date: a.Date.Format(dateLayout), CheckIn: a.CheckIn, CheckOut: a.CheckOut}
}

// InputsToJSON is the inverse of InputsFromJSON.
func InputsToJSON(in payroll.ResolvedPayrollInputs) InputsJSON {
	ij := InputsJSON{
		EmployeeID:    in.EmployeeID,
		Period:        in.Period,
		BaseSalary:    in.BaseSalary,
		Allowances:    in.Allowances,
		OvertimeHours: in.OvertimeHours,
		LoanRepayment: in.LoanRepayment,
		Insurance:     ContributionJSON{Employee: in.Insurance.Employee, Employer: in.Insurance.Employer},
		Pension:       ContributionJSON{Employee: in.Pension.Employee, Employer: in.Pension.Employer},
	}
	for _, a := range in.Attendance {
		ij.Attendance = append(ij.Attendance, AttendanceToJSON(a))
	}
	for _, r := range in.DeductionRules {
		ij.DeductionRules = append(ij.DeductionRules, DeductionToJSON(r))
	}
	return ij
}
