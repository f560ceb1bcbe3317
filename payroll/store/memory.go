// Package store provides an in-memory payroll.Store.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	allowances map[string]payroll.AllowanceRule
	deductions map[string]payroll.DeductionRule
	taxRules   map[string]payroll.TaxRule
	employees  map[string]payroll.Employee
	attendance map[string]map[string]payroll.AttendancePeriod
	results    map[resultKey]*payroll.PayrollResult
	runs       []payroll.RunRecord
	now        func() time.Time
}

type resultKey struct {
	EmployeeID string
	Period     string
}

func keyFor(employeeID string, period payroll.PayPeriod) resultKey {
	return resultKey{EmployeeID: employeeID, Period: period.String()}
}

var _ payroll.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		allowances: make(map[string]payroll.AllowanceRule),
		deductions: make(map[string]payroll.DeductionRule),
		taxRules:   make(map[string]payroll.TaxRule),
		employees:  make(map[string]payroll.Employee),
		attendance: make(map[string]map[string]payroll.AttendancePeriod),
		results:    make(map[resultKey]*payroll.PayrollResult),
		now:        time.Now,
	}
}

// =============================================================================
// RULES
// =============================================================================

func (m *Memory) SaveAllowanceRule(_ context.Context, rule payroll.AllowanceRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allowances[rule.ID] = rule
	return nil
}

func (m *Memory) GetAllowanceRule(_ context.Context, id string) (payroll.AllowanceRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rule, ok := m.allowances[id]
	if !ok {
		return payroll.AllowanceRule{}, fmt.Errorf("allowance rule %s: %w", id, payroll.ErrNotFound)
	}
	return rule, nil
}

func (m *Memory) ListAllowanceRules(_ context.Context) ([]payroll.AllowanceRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]payroll.AllowanceRule, 0, len(m.allowances))
	for _, r := range m.allowances {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SaveDeductionRule(_ context.Context, rule payroll.DeductionRule) error {
	if rule.ID == "" || rule.Method == nil {
		return payroll.NewValidationError("deduction_rule", "deduction rule must be built with NewDeductionRule")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deductions[rule.ID] = rule
	return nil
}

func (m *Memory) GetDeductionRule(_ context.Context, id string) (payroll.DeductionRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rule, ok := m.deductions[id]
	if !ok {
		return payroll.DeductionRule{}, fmt.Errorf("deduction rule %s: %w", id, payroll.ErrNotFound)
	}
	return rule, nil
}

func (m *Memory) ListDeductionRules(_ context.Context) ([]payroll.DeductionRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]payroll.DeductionRule, 0, len(m.deductions))
	for _, r := range m.deductions {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SaveTaxRule(_ context.Context, rule payroll.TaxRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	others := []payroll.TaxRule{rule}
	for id, r := range m.taxRules {
		if id != rule.ID {
			others = append(others, r)
		}
	}
	if err := payroll.ValidateTaxRuleWindows(others); err != nil {
		return err
	}
	m.taxRules[rule.ID] = rule
	return nil
}

func (m *Memory) GetTaxRule(_ context.Context, id string) (payroll.TaxRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rule, ok := m.taxRules[id]
	if !ok {
		return payroll.TaxRule{}, fmt.Errorf("tax rule %s: %w", id, payroll.ErrNotFound)
	}
	return rule, nil
}

func (m *Memory) ListTaxRules(_ context.Context) ([]payroll.TaxRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]payroll.TaxRule, 0, len(m.taxRules))
	for _, r := range m.taxRules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EffectiveFrom.Before(out[j].EffectiveFrom) })
	return out, nil
}

// =============================================================================
// EMPLOYEES AND ATTENDANCE
// =============================================================================

func (m *Memory) SaveEmployee(_ context.Context, emp payroll.Employee) error {
	if emp.ID == "" {
		return payroll.NewValidationError("id", "employee id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if existing, ok := m.employees[emp.ID]; ok {
		emp.CreatedAt = existing.CreatedAt
	} else {
		emp.CreatedAt = now
	}
	emp.UpdatedAt = now
	m.employees[emp.ID] = emp
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, id string) (payroll.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	emp, ok := m.employees[id]
	if !ok {
		return payroll.Employee{}, fmt.Errorf("employee %s: %w", id, payroll.ErrNotFound)
	}
	return emp, nil
}

func (m *Memory) ListEmployees(_ context.Context) ([]payroll.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]payroll.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SaveAttendance(_ context.Context, employeeID string, day payroll.AttendancePeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[employeeID]; !ok {
		return fmt.Errorf("employee %s: %w", employeeID, payroll.ErrNotFound)
	}
	days := m.attendance[employeeID]
	if days == nil {
		days = make(map[string]payroll.AttendancePeriod)
		m.attendance[employeeID] = days
	}
	days[day.Date.Format(time.DateOnly)] = day
	return nil
}

func (m *Memory) ListAttendance(_ context.Context, employeeID string, period payroll.PayPeriod) ([]payroll.AttendancePeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []payroll.AttendancePeriod
	for _, day := range m.attendance[employeeID] {
		if period.Contains(day.Date) {
			out = append(out, day)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// =============================================================================
// RESULTS
// =============================================================================

func (m *Memory) SaveResult(_ context.Context, result *payroll.PayrollResult) error {
	if result == nil {
		return payroll.NewValidationError("result", "result is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[keyFor(result.EmployeeID, result.Period)] = result
	return nil
}

func (m *Memory) GetResult(_ context.Context, employeeID string, period payroll.PayPeriod) (*payroll.PayrollResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.results[keyFor(employeeID, period)]
	if !ok {
		return nil, fmt.Errorf("result for %s %s: %w", employeeID, period, payroll.ErrNotFound)
	}
	return r, nil
}

func (m *Memory) ListResults(_ context.Context, period payroll.PayPeriod) ([]*payroll.PayrollResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	want := period.String()
	var out []*payroll.PayrollResult
	for k, r := range m.results {
		if k.Period == want {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

// =============================================================================
// RUNS
// =============================================================================

func (m *Memory) SaveRun(_ context.Context, run payroll.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.runs {
		if r.ID == run.ID {
			return payroll.NewValidationError("id", "run %s already recorded", run.ID)
		}
	}
	m.runs = append(m.runs, run)
	return nil
}

func (m *Memory) ListRuns(_ context.Context) ([]payroll.RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]payroll.RunRecord, len(m.runs))
	copy(out, m.runs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}
