/*
scenarios.go - Built-in payroll scenarios for demos and smoke tests

PURPOSE:
  Provides fixed, fully resolved inputs that exercise the main paths of the
  engine. Each scenario is computed fresh on request; nothing is stored.

AVAILABLE SCENARIOS:
  base-salary-only:   Base 2200, no allowances or deductions
  overtime:           Base 2200 with 2 overtime hours (hourly 12.50, x1.5)
  bracketed-tax:      Base 2800 taxed 0% to 1000 then 10%
  overlapping-rules:  Overlapping brackets, rejected as a validation error

HOW SCENARIOS WORK:
  Scenarios are stored as inputs JSON and parsed through the factory, exactly
  like POST /api/payroll/compute bodies. They are computed with 176 standard
  monthly hours regardless of the server configuration so their results stay
  fixed.

USAGE VIA API:
  GET  /api/scenarios
  POST /api/scenarios/overtime/compute

SEE ALSO:
  - handlers.go: Compute handler and error mapping
  - factory/inputs.go: Inputs JSON
*/
package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warp/payroll-engine/payroll"
)

// ScenarioHours is the standard monthly hours scenarios are computed with.
const ScenarioHours = 176

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ScenarioDTO
	inputs string
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "base-salary-only",
			Name:        "Base Salary Only",
			Description: "Base salary with no allowances, overtime or deductions",
		},
		inputs: `{
			"employee_id": "scenario-a",
			"period": {"start": "2025-03-01", "end": "2025-03-31"},
			"base_salary": "2200"
		}`,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "overtime",
			Name:        "Overtime",
			Description: "Two overtime hours paid at 1.5x the hourly rate",
		},
		inputs: `{
			"employee_id": "scenario-b",
			"period": {"start": "2025-03-01", "end": "2025-03-31"},
			"base_salary": "2200",
			"overtime_hours": "2"
		}`,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "bracketed-tax",
			Name:        "Bracketed Tax",
			Description: "PAYE at 0% up to 1000 and 10% above",
		},
		inputs: `{
			"employee_id": "scenario-c",
			"period": {"start": "2025-03-01", "end": "2025-03-31"},
			"base_salary": "2800",
			"deduction_rules": [{
				"id": "paye",
				"code": "PAYE",
				"name": "PAYE",
				"is_statutory": true,
				"brackets": [
					{"min_amount": "0", "max_amount": "1000", "rate": "0"},
					{"min_amount": "1000", "max_amount": null, "rate": "10"}
				]
			}]
		}`,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "overlapping-rules",
			Name:        "Overlapping Brackets",
			Description: "A deduction whose brackets overlap is rejected",
		},
		inputs: `{
			"employee_id": "scenario-d",
			"period": {"start": "2025-03-01", "end": "2025-03-31"},
			"base_salary": "2800",
			"deduction_rules": [{
				"id": "levy",
				"code": "LEVY",
				"name": "Broken Levy",
				"brackets": [
					{"min_amount": "0", "max_amount": "1000", "rate": "10"},
					{"min_amount": "900", "max_amount": "2000", "rate": "15"}
				]
			}]
		}`,
	},
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// ListScenarios returns available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ComputeScenario computes one scenario.
// POST /api/scenarios/{id}/compute
func (h *Handler) ComputeScenario(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, ok := findScenario(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Scenario not found", fmt.Errorf("scenario %s: %w", id, payroll.ErrNotFound))
		return
	}

	cfg := h.Engine.Config()
	cfg.StandardMonthlyHours = ScenarioHours
	engine, err := payroll.NewEngine(cfg)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	in, err := h.Factory.ParseInputs(s.inputs)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	result, err := engine.Compute(in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
