/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes payroll computation, rule configuration and payroll runs via REST.
  Handles HTTP request/response and JSON serialization, and delegates to the
  factory, the resolver and the payroll core.

ENDPOINTS:
  Payroll:
    POST   /api/payroll/compute                          Stateless computation on resolved inputs
    POST   /api/payroll/runs                             Run a period over employees
    GET    /api/payroll/runs                             Run history
    GET    /api/payroll/results/{employeeID}             Stored result (period_start, period_end)
    GET    /api/payroll/results/{employeeID}/payslip     Payslip PDF (format=text for plain text)

  Rules:
    GET/POST /api/allowance-rules, GET /api/allowance-rules/{id}
    GET/POST /api/deduction-rules, GET /api/deduction-rules/{id}
    GET/POST /api/tax-rules,       GET /api/tax-rules/{id}
    POST     /api/brackets/validate

  Employees:
    GET    /api/employees
    POST   /api/employees
    GET    /api/employees/{id}
    POST   /api/employees/{id}/attendance

  Scenarios:
    GET    /api/scenarios
    POST   /api/scenarios/{id}/compute

REQUEST FLOW:
  1. Decode the body (malformed JSON is a 400)
  2. Validate shape with validator tags
  3. Build domain values through the factory (full validation)
  4. Call the store / resolver / engine
  5. Serialize response

ERROR HANDLING:
  - 400: malformed JSON or query parameters
  - 404: record not found
  - 422: validation and missing configuration (field and rule_id set)
  - 500: computation and internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Built-in demo scenarios
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/payrun"
	"github.com/warp/payroll-engine/payslip"
	"github.com/warp/payroll-engine/resolve"
)

const dateLayout = "2006-01-02"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    payroll.Store
	Factory  *factory.RuleFactory
	Engine   *payroll.Engine
	Resolver *resolve.Resolver
	Payrun   *payrun.Service

	// Clock decides which check-ins are in the future.
	Clock func() time.Time

	validate *validator.Validate
}

// NewHandler wires the resolver and run service over store.
func NewHandler(store payroll.Store, engine *payroll.Engine, workers int) *Handler {
	resolver := resolve.New(store, store, engine)
	return &Handler{
		Store:    store,
		Factory:  factory.NewRuleFactory(),
		Engine:   engine,
		Resolver: resolver,
		Payrun:   payrun.NewService(resolver, engine, store, workers),
		Clock:    time.Now,
		validate: newValidator(),
	}
}

// newValidator reports json field names in validation errors.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// Compute runs one computation on a resolved inputs body.
// POST /api/payroll/compute
func (h *Handler) Compute(w http.ResponseWriter, r *http.Request) {
	var req factory.InputsJSON
	if !h.decode(w, r, &req) {
		return
	}

	in, err := h.Factory.InputsFromJSON(req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	result, err := h.Engine.Compute(in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CreateRun runs payroll for a period.
// POST /api/payroll/runs
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if !h.decode(w, r, &req) {
		return
	}
	period, err := parsePeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	summary, err := h.Payrun.Run(r.Context(), period, req.EmployeeIDs)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	dto := RunDTO{
		RunID:     summary.RunID,
		Period:    summary.Period,
		Employees: len(summary.Outcomes),
		Succeeded: summary.Succeeded(),
		Failed:    summary.Failed(),
		StartedAt: summary.StartedAt.UTC().Format(time.RFC3339),
	}
	for _, o := range summary.Outcomes {
		od := OutcomeDTO{EmployeeID: o.EmployeeID}
		if o.Err != nil {
			od.Error = o.Err.Error()
		} else {
			net := o.Result.NetPay
			od.NetPay = &net
		}
		dto.Outcomes = append(dto.Outcomes, od)
	}
	writeJSON(w, http.StatusCreated, dto)
}

// ListRuns returns run history.
// GET /api/payroll/runs
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListRuns(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	dtos := make([]RunDTO, 0, len(runs))
	for _, run := range runs {
		dtos = append(dtos, RunDTO{
			RunID:     run.ID,
			Period:    run.Period,
			Employees: run.Employees,
			Succeeded: run.Succeeded,
			Failed:    run.Failed,
			StartedAt: run.StartedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": dtos})
}

// GetResult returns a stored result.
// GET /api/payroll/results/{employeeID}?period_start=...&period_end=...
func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	result, ok := h.loadResult(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetPayslip renders a stored result.
// GET /api/payroll/results/{employeeID}/payslip?period_start=...&period_end=...[&format=text]
func (h *Handler) GetPayslip(w http.ResponseWriter, r *http.Request) {
	result, ok := h.loadResult(w, r)
	if !ok {
		return
	}

	name := result.EmployeeID
	if emp, err := h.Store.GetEmployee(r.Context(), result.EmployeeID); err == nil && emp.Name != "" {
		name = emp.Name
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(payslip.RenderText(result, name)))
		return
	}

	pdf, err := payslip.RenderPDF(result, name)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`inline; filename="payslip-%s-%s.pdf"`, result.EmployeeID, result.Period.End.Format(dateLayout)))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

func (h *Handler) loadResult(w http.ResponseWriter, r *http.Request) (*payroll.PayrollResult, bool) {
	q := r.URL.Query()
	period, err := parsePeriod(q.Get("period_start"), q.Get("period_end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return nil, false
	}
	result, err := h.Store.GetResult(r.Context(), chi.URLParam(r, "employeeID"), period)
	if err != nil {
		writeDomainError(w, r, err)
		return nil, false
	}
	return result, true
}

// =============================================================================
// RULE HANDLERS
// =============================================================================

// ValidateBrackets checks a bracket set without storing it.
// POST /api/brackets/validate
func (h *Handler) ValidateBrackets(w http.ResponseWriter, r *http.Request) {
	var req ValidateBracketsRequest
	if !h.decode(w, r, &req) {
		return
	}
	set, err := payroll.NewBracketSet(factory.BracketsFromJSON(req.Brackets))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	brackets := set.Brackets()
	labels := make([]string, len(brackets))
	for i, b := range brackets {
		labels[i] = b.DisplayLabel()
	}
	writeJSON(w, http.StatusOK, BracketsDTO{Valid: true, Brackets: factory.BracketsToJSON(brackets), Labels: labels})
}

// POST /api/allowance-rules
func (h *Handler) CreateAllowanceRule(w http.ResponseWriter, r *http.Request) {
	var req factory.AllowanceRuleJSON
	if !h.decode(w, r, &req) {
		return
	}
	rule, err := h.Factory.AllowanceFromJSON(req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.Store.SaveAllowanceRule(r.Context(), rule); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, factory.AllowanceToJSON(rule))
}

// GET /api/allowance-rules
func (h *Handler) ListAllowanceRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Store.ListAllowanceRules(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	dtos := make([]factory.AllowanceRuleJSON, len(rules))
	for i, rule := range rules {
		dtos[i] = factory.AllowanceToJSON(rule)
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": dtos})
}

// GET /api/allowance-rules/{id}
func (h *Handler) GetAllowanceRule(w http.ResponseWriter, r *http.Request) {
	rule, err := h.Store.GetAllowanceRule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, factory.AllowanceToJSON(rule))
}

// POST /api/deduction-rules
func (h *Handler) CreateDeductionRule(w http.ResponseWriter, r *http.Request) {
	var req factory.DeductionRuleJSON
	if !h.decode(w, r, &req) {
		return
	}
	rule, err := h.Factory.DeductionFromJSON(req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.Store.SaveDeductionRule(r.Context(), rule); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, factory.DeductionToJSON(rule))
}

// GET /api/deduction-rules
func (h *Handler) ListDeductionRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Store.ListDeductionRules(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	dtos := make([]factory.DeductionRuleJSON, len(rules))
	for i, rule := range rules {
		dtos[i] = factory.DeductionToJSON(rule)
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": dtos})
}

// GET /api/deduction-rules/{id}
func (h *Handler) GetDeductionRule(w http.ResponseWriter, r *http.Request) {
	rule, err := h.Store.GetDeductionRule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, factory.DeductionToJSON(rule))
}

// POST /api/tax-rules
func (h *Handler) CreateTaxRule(w http.ResponseWriter, r *http.Request) {
	var req factory.TaxRuleJSON
	if !h.decode(w, r, &req) {
		return
	}
	rule, err := h.Factory.TaxFromJSON(req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.Store.SaveTaxRule(r.Context(), rule); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, factory.TaxToJSON(rule))
}

// GET /api/tax-rules
func (h *Handler) ListTaxRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Store.ListTaxRules(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	dtos := make([]factory.TaxRuleJSON, len(rules))
	for i, rule := range rules {
		dtos[i] = factory.TaxToJSON(rule)
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": dtos})
}

// GET /api/tax-rules/{id}
func (h *Handler) GetTaxRule(w http.ResponseWriter, r *http.Request) {
	rule, err := h.Store.GetTaxRule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, factory.TaxToJSON(rule))
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// GET /api/employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, map[string]any{"employees": dtos})
}

// GET /api/employees/{id}
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// CreateEmployee creates or replaces a compensation profile.
// POST /api/employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.BaseSalary.IsNegative() {
		writeDomainError(w, r, payroll.NewValidationError("base_salary", "base salary cannot be negative"))
		return
	}

	emp := payroll.Employee{
		ID:               req.ID,
		Name:             req.Name,
		BaseSalary:       req.BaseSalary,
		AllowanceRuleIDs: req.AllowanceRuleIDs,
		DeductionRuleIDs: req.DeductionRuleIDs,
		LoanRepayment:    req.LoanRepayment,
		Insurance:        payroll.Contribution{Employee: req.Insurance.Employee, Employer: req.Insurance.Employer},
		Pension:          payroll.Contribution{Employee: req.Pension.Employee, Employer: req.Pension.Employer},
	}
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeDomainError(w, r, err)
		return
	}

	saved, err := h.Store.GetEmployee(r.Context(), emp.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(saved))
}

// RecordAttendance stores one day for an employee.
// POST /api/employees/{id}/attendance
func (h *Handler) RecordAttendance(w http.ResponseWriter, r *http.Request) {
	var req AttendanceRequest
	if !h.decode(w, r, &req) {
		return
	}

	day, err := factory.AttendanceFromJSON(factory.AttendanceJSON{Date: req.Date, CheckIn: *req.CheckIn, CheckOut: req.CheckOut})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := day.Validate(); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := payroll.ValidateCheckInNotFuture(day.CheckIn, h.Clock()); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.Store.SaveAttendance(r.Context(), chi.URLParam(r, "id"), day); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"employee_id":    chi.URLParam(r, "id"),
		"date":           day.Date.Format(dateLayout),
		"hours_worked":   day.HoursWorked().StringFixed(2),
		"regular_hours":  day.RegularHours().StringFixed(2),
		"overtime_hours": day.OvertimeHours().StringFixed(2),
		"late_arrival":   payroll.IsLateArrival(day.CheckIn),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps the payroll error taxonomy to a status code.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var pe *payroll.Error
	var overlap *payroll.BracketOverlapError

	switch {
	case errors.As(err, &pe) && pe.Kind != payroll.KindComputation:
		msg := "Validation failed"
		if pe.Kind == payroll.KindMissingConfiguration {
			msg = "Missing configuration"
		}
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error: msg, Details: err.Error(), Field: pe.Field, RuleID: pe.RuleID,
		})
	case errors.As(err, &overlap):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error: "Validation failed", Details: err.Error(), Field: "brackets",
		})
	case errors.Is(err, payroll.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found", err)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		msg := "Internal error"
		if payroll.IsComputation(err) {
			msg = "Computation failed"
		}
		writeError(w, http.StatusInternalServerError, msg, err)
	}
}

// decode reads and shape-validates a JSON body, writing the error response
// itself when it fails.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
				Error:   "Validation failed",
				Details: fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()),
				Field:   fe.Field(),
			})
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return false
	}
	return true
}

func parsePeriod(start, end string) (payroll.PayPeriod, error) {
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return payroll.PayPeriod{}, payroll.NewValidationError("period_start", "invalid period start %q", start)
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return payroll.PayPeriod{}, payroll.NewValidationError("period_end", "invalid period end %q", end)
	}
	return payroll.NewPayPeriod(s, e)
}
