/*
Package sqlite provides a SQLite implementation of payroll.Store.

SCHEMA:
  allowance_rules / deduction_rules: rule definitions as factory JSON
  tax_rules:       factory JSON plus code and effective window columns
  employees:       compensation profile as JSON
  attendance:      one row per (employee_id, date)
  payroll_results: one row per (employee_id, period_start, period_end)
  payroll_runs:    one row per batch run

RULE STORAGE:
  Rules are stored in the same JSON shape the rules API accepts and are
  parsed back through factory.RuleFactory on read, so a stored rule goes
  through exactly the validation a freshly posted one does.

CONCURRENCY:
  A RWMutex serializes writers; SQLite runs in WAL mode so readers do not
  block each other.

SEE ALSO:
  - payroll/store.go: interfaces
  - payroll/store/memory.go: in-memory equivalent
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/money"
	"github.com/warp/payroll-engine/payroll"
)

const dateLayout = "2006-01-02"

// Store implements payroll.Store using SQLite.
type Store struct {
	db      *sql.DB
	mu      sync.RWMutex
	factory *factory.RuleFactory
}

var (
	_ payroll.Store    = (*Store)(nil)
	_ payroll.RunStore = (*Store)(nil)
)

// New creates a SQLite store. Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, factory: factory.NewRuleFactory()}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS allowance_rules (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL,
		config_json TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS deduction_rules (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL,
		is_statutory INTEGER NOT NULL DEFAULT 0,
		config_json TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tax_rules (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL,
		effective_from TEXT NOT NULL,
		effective_to TEXT,
		config_json TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tax_rules_code ON tax_rules(code, effective_from);

	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		profile_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS attendance (
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		check_in TEXT NOT NULL,
		check_out TEXT,
		PRIMARY KEY (employee_id, date)
	);

	CREATE TABLE IF NOT EXISTS payroll_results (
		employee_id TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		net_pay TEXT NOT NULL,
		result_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (employee_id, period_start, period_end)
	);

	CREATE INDEX IF NOT EXISTS idx_results_period ON payroll_results(period_start, period_end);

	CREATE TABLE IF NOT EXISTS payroll_runs (
		id TEXT PRIMARY KEY,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		employees INTEGER NOT NULL,
		succeeded INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		completed_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func nowString() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// =============================================================================
// ALLOWANCE RULES
// =============================================================================

func (s *Store) SaveAllowanceRule(ctx context.Context, rule payroll.AllowanceRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	configJSON, err := factory.MarshalRule(factory.AllowanceToJSON(rule))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowString()
	query := `
		INSERT INTO allowance_rules (id, code, config_json, version, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			code = excluded.code,
			config_json = excluded.config_json,
			version = allowance_rules.version + 1,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query, rule.ID, rule.Code, configJSON, now, now)
	return err
}

func (s *Store) GetAllowanceRule(ctx context.Context, id string) (payroll.AllowanceRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var configJSON string
	err := s.db.QueryRowContext(ctx, `SELECT config_json FROM allowance_rules WHERE id = ?`, id).Scan(&configJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.AllowanceRule{}, fmt.Errorf("allowance rule %s: %w", id, payroll.ErrNotFound)
	}
	if err != nil {
		return payroll.AllowanceRule{}, err
	}
	return s.factory.ParseAllowanceRule(configJSON)
}

func (s *Store) ListAllowanceRules(ctx context.Context) ([]payroll.AllowanceRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	configs, err := s.listConfigs(ctx, `SELECT config_json FROM allowance_rules ORDER BY id`)
	if err != nil {
		return nil, err
	}
	rules := make([]payroll.AllowanceRule, 0, len(configs))
	for _, c := range configs {
		rule, err := s.factory.ParseAllowanceRule(c)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// =============================================================================
// DEDUCTION RULES
// =============================================================================

func (s *Store) SaveDeductionRule(ctx context.Context, rule payroll.DeductionRule) error {
	if rule.ID == "" || rule.Method == nil {
		return payroll.NewValidationError("deduction_rule", "deduction rule must be built with NewDeductionRule")
	}
	configJSON, err := factory.MarshalRule(factory.DeductionToJSON(rule))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowString()
	query := `
		INSERT INTO deduction_rules (id, code, is_statutory, config_json, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			code = excluded.code,
			is_statutory = excluded.is_statutory,
			config_json = excluded.config_json,
			version = deduction_rules.version + 1,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query, rule.ID, rule.Code, rule.Statutory, configJSON, now, now)
	return err
}

func (s *Store) GetDeductionRule(ctx context.Context, id string) (payroll.DeductionRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var configJSON string
	err := s.db.QueryRowContext(ctx, `SELECT config_json FROM deduction_rules WHERE id = ?`, id).Scan(&configJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.DeductionRule{}, fmt.Errorf("deduction rule %s: %w", id, payroll.ErrNotFound)
	}
	if err != nil {
		return payroll.DeductionRule{}, err
	}
	return s.factory.ParseDeductionRule(configJSON)
}

func (s *Store) ListDeductionRules(ctx context.Context) ([]payroll.DeductionRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	configs, err := s.listConfigs(ctx, `SELECT config_json FROM deduction_rules ORDER BY id`)
	if err != nil {
		return nil, err
	}
	rules := make([]payroll.DeductionRule, 0, len(configs))
	for _, c := range configs {
		rule, err := s.factory.ParseDeductionRule(c)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// =============================================================================
// TAX RULES
// =============================================================================

// SaveTaxRule runs the window check and the upsert in one transaction.
func (s *Store) SaveTaxRule(ctx context.Context, rule payroll.TaxRule) error {
	configJSON, err := factory.MarshalRule(factory.TaxToJSON(rule))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT config_json FROM tax_rules WHERE code = ? AND id != ?`, rule.Code, rule.ID)
	if err != nil {
		return err
	}
	candidates := []payroll.TaxRule{rule}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			rows.Close()
			return err
		}
		other, err := s.factory.ParseTaxRule(c)
		if err != nil {
			rows.Close()
			return err
		}
		candidates = append(candidates, other)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if err := payroll.ValidateTaxRuleWindows(candidates); err != nil {
		return err
	}

	var effectiveTo *string
	if rule.EffectiveTo != nil {
		v := rule.EffectiveTo.Format(dateLayout)
		effectiveTo = &v
	}

	now := nowString()
	query := `
		INSERT INTO tax_rules (id, code, effective_from, effective_to, config_json, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			code = excluded.code,
			effective_from = excluded.effective_from,
			effective_to = excluded.effective_to,
			config_json = excluded.config_json,
			version = tax_rules.version + 1,
			updated_at = excluded.updated_at
	`
	if _, err := tx.ExecContext(ctx, query,
		rule.ID, rule.Code, rule.EffectiveFrom.Format(dateLayout), effectiveTo, configJSON, now, now,
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) GetTaxRule(ctx context.Context, id string) (payroll.TaxRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var configJSON string
	err := s.db.QueryRowContext(ctx, `SELECT config_json FROM tax_rules WHERE id = ?`, id).Scan(&configJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.TaxRule{}, fmt.Errorf("tax rule %s: %w", id, payroll.ErrNotFound)
	}
	if err != nil {
		return payroll.TaxRule{}, err
	}
	return s.factory.ParseTaxRule(configJSON)
}

func (s *Store) ListTaxRules(ctx context.Context) ([]payroll.TaxRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	configs, err := s.listConfigs(ctx, `SELECT config_json FROM tax_rules ORDER BY effective_from, id`)
	if err != nil {
		return nil, err
	}
	rules := make([]payroll.TaxRule, 0, len(configs))
	for _, c := range configs {
		rule, err := s.factory.ParseTaxRule(c)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (s *Store) listConfigs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// =============================================================================
// EMPLOYEES AND ATTENDANCE
// =============================================================================

type employeeProfile struct {
	BaseSalary       money.Money              `json:"base_salary"`
	AllowanceRuleIDs []string                 `json:"allowance_rule_ids"`
	DeductionRuleIDs []string                 `json:"deduction_rule_ids"`
	LoanRepayment    money.Money              `json:"loan_repayment"`
	Insurance        factory.ContributionJSON `json:"insurance"`
	Pension          factory.ContributionJSON `json:"pension"`
}

func (s *Store) SaveEmployee(ctx context.Context, emp payroll.Employee) error {
	if emp.ID == "" {
		return payroll.NewValidationError("id", "employee id is required")
	}
	profile, err := json.Marshal(employeeProfile{
		BaseSalary:       emp.BaseSalary,
		AllowanceRuleIDs: emp.AllowanceRuleIDs,
		DeductionRuleIDs: emp.DeductionRuleIDs,
		LoanRepayment:    emp.LoanRepayment,
		Insurance:        factory.ContributionJSON{Employee: emp.Insurance.Employee, Employer: emp.Insurance.Employer},
		Pension:          factory.ContributionJSON{Employee: emp.Pension.Employee, Employer: emp.Pension.Employer},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal employee profile: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowString()
	query := `
		INSERT INTO employees (id, name, profile_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			profile_json = excluded.profile_json,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query, emp.ID, emp.Name, string(profile), now, now)
	return err
}

func (s *Store) GetEmployee(ctx context.Context, id string) (payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, profile_json, created_at, updated_at FROM employees WHERE id = ?`, id)
	emp, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.Employee{}, fmt.Errorf("employee %s: %w", id, payroll.ErrNotFound)
	}
	return emp, err
}

func (s *Store) ListEmployees(ctx context.Context) ([]payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, profile_json, created_at, updated_at FROM employees ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payroll.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row scanner) (payroll.Employee, error) {
	var emp payroll.Employee
	var profileJSON, createdAt, updatedAt string
	if err := row.Scan(&emp.ID, &emp.Name, &profileJSON, &createdAt, &updatedAt); err != nil {
		return payroll.Employee{}, err
	}

	var p employeeProfile
	if err := json.Unmarshal([]byte(profileJSON), &p); err != nil {
		return payroll.Employee{}, fmt.Errorf("failed to parse employee profile: %w", err)
	}
	emp.BaseSalary = p.BaseSalary
	emp.AllowanceRuleIDs = p.AllowanceRuleIDs
	emp.DeductionRuleIDs = p.DeductionRuleIDs
	emp.LoanRepayment = p.LoanRepayment
	emp.Insurance = payroll.Contribution{Employee: p.Insurance.Employee, Employer: p.Insurance.Employer}
	emp.Pension = payroll.Contribution{Employee: p.Pension.Employee, Employer: p.Pension.Employer}
	emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	emp.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return emp, nil
}

func (s *Store) SaveAttendance(ctx context.Context, employeeID string, day payroll.AttendancePeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM employees WHERE id = ?`, employeeID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("employee %s: %w", employeeID, payroll.ErrNotFound)
	}

	var checkOut *string
	if day.CheckOut != nil {
		v := day.CheckOut.UTC().Format(time.RFC3339)
		checkOut = &v
	}

	query := `
		INSERT INTO attendance (employee_id, date, check_in, check_out)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(employee_id, date) DO UPDATE SET
			check_in = excluded.check_in,
			check_out = excluded.check_out
	`
	_, err := s.db.ExecContext(ctx, query,
		employeeID, day.Date.Format(dateLayout), day.CheckIn.UTC().Format(time.RFC3339), checkOut)
	return err
}

func (s *Store) ListAttendance(ctx context.Context, employeeID string, period payroll.PayPeriod) ([]payroll.AttendancePeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT date, check_in, check_out FROM attendance
		WHERE employee_id = ? AND date >= ? AND date <= ?
		ORDER BY date
	`
	rows, err := s.db.QueryContext(ctx, query,
		employeeID, period.Start.Format(dateLayout), period.End.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payroll.AttendancePeriod
	for rows.Next() {
		var date, checkIn string
		var checkOut sql.NullString
		if err := rows.Scan(&date, &checkIn, &checkOut); err != nil {
			return nil, err
		}

		d, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("invalid attendance date %q: %w", date, err)
		}
		in, err := time.Parse(time.RFC3339, checkIn)
		if err != nil {
			return nil, fmt.Errorf("invalid check-in %q: %w", checkIn, err)
		}
		var outAt *time.Time
		if checkOut.Valid {
			t, err := time.Parse(time.RFC3339, checkOut.String)
			if err != nil {
				return nil, fmt.Errorf("invalid check-out %q: %w", checkOut.String, err)
			}
			outAt = &t
		}
		out = append(out, payroll.AttendancePeriod{Date: d, CheckIn: in, CheckOut: outAt})
	}
	return out, rows.Err()
}

// =============================================================================
// RESULTS
// =============================================================================

func (s *Store) SaveResult(ctx context.Context, result *payroll.PayrollResult) error {
	if result == nil {
		return payroll.NewValidationError("result", "result is required")
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO payroll_results (employee_id, period_start, period_end, net_pay, result_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, period_start, period_end) DO UPDATE SET
			net_pay = excluded.net_pay,
			result_json = excluded.result_json,
			created_at = excluded.created_at
	`
	_, err = s.db.ExecContext(ctx, query,
		result.EmployeeID,
		result.Period.Start.Format(dateLayout), result.Period.End.Format(dateLayout),
		result.NetPay.String(), string(resultJSON), nowString(),
	)
	return err
}

func (s *Store) GetResult(ctx context.Context, employeeID string, period payroll.PayPeriod) (*payroll.PayrollResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var resultJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT result_json FROM payroll_results WHERE employee_id = ? AND period_start = ? AND period_end = ?`,
		employeeID, period.Start.Format(dateLayout), period.End.Format(dateLayout),
	).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("result for %s %s: %w", employeeID, period, payroll.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return decodeResult(resultJSON)
}

func (s *Store) ListResults(ctx context.Context, period payroll.PayPeriod) ([]*payroll.PayrollResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs, err := s.listConfigs(ctx,
		`SELECT result_json FROM payroll_results WHERE period_start = ? AND period_end = ? ORDER BY employee_id`,
		period.Start.Format(dateLayout), period.End.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	out := make([]*payroll.PayrollResult, 0, len(docs))
	for _, d := range docs {
		r, err := decodeResult(d)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func decodeResult(doc string) (*payroll.PayrollResult, error) {
	var r payroll.PayrollResult
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		return nil, fmt.Errorf("failed to parse stored result: %w", err)
	}
	return &r, nil
}

// =============================================================================
// PAYROLL RUNS
// =============================================================================

func (s *Store) SaveRun(ctx context.Context, r payroll.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO payroll_runs (id, period_start, period_end, employees, succeeded, failed, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.Period.Start.Format(dateLayout), r.Period.End.Format(dateLayout),
		r.Employees, r.Succeeded, r.Failed,
		r.StartedAt.UTC().Format(time.RFC3339), r.CompletedAt.UTC().Format(time.RFC3339),
	)
	if isUniqueConstraintError(err) {
		return payroll.NewValidationError("id", "run %s already recorded", r.ID)
	}
	return err
}

// ListRuns returns runs newest first.
func (s *Store) ListRuns(ctx context.Context) ([]payroll.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, period_start, period_end, employees, succeeded, failed, started_at, completed_at
		FROM payroll_runs
		ORDER BY started_at DESC, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []payroll.RunRecord
	for rows.Next() {
		var r payroll.RunRecord
		var periodStart, periodEnd, startedAt, completedAt string
		if err := rows.Scan(&r.ID, &periodStart, &periodEnd,
			&r.Employees, &r.Succeeded, &r.Failed, &startedAt, &completedAt); err != nil {
			return nil, err
		}
		r.Period.Start, _ = time.Parse(dateLayout, periodStart)
		r.Period.End, _ = time.Parse(dateLayout, periodEnd)
		r.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		r.CompletedAt, _ = time.Parse(time.RFC3339, completedAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Reset clears all data (for testing).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"attendance", "payroll_results", "payroll_runs", "employees", "tax_rules", "deduction_rules", "allowance_rules"}
	for _, t := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return err
		}
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
