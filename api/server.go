/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:      Unique ID per request for tracing
  2. RequestLogger:  zerolog request logger on the context, one line per request
  3. Recoverer:      Panic recovery (500 instead of crash)
  4. CORS:           Cross-origin requests for a frontend

ROUTE GROUPS:
  /api/payroll/*           Computation, runs, results, payslips
  /api/brackets/validate   Bracket set validation
  /api/*-rules             Rule configuration
  /api/employees/*         Compensation profiles and attendance
  /api/scenarios/*         Built-in scenarios

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, logger zerolog.Logger, corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/payroll", func(r chi.Router) {
			r.Post("/compute", h.Compute)
			r.Get("/runs", h.ListRuns)
			r.Post("/runs", h.CreateRun)
			r.Get("/results/{employeeID}", h.GetResult)
			r.Get("/results/{employeeID}/payslip", h.GetPayslip)
		})

		r.Post("/brackets/validate", h.ValidateBrackets)

		r.Route("/allowance-rules", func(r chi.Router) {
			r.Get("/", h.ListAllowanceRules)
			r.Post("/", h.CreateAllowanceRule)
			r.Get("/{id}", h.GetAllowanceRule)
		})

		r.Route("/deduction-rules", func(r chi.Router) {
			r.Get("/", h.ListDeductionRules)
			r.Post("/", h.CreateDeductionRule)
			r.Get("/{id}", h.GetDeductionRule)
		})

		r.Route("/tax-rules", func(r chi.Router) {
			r.Get("/", h.ListTaxRules)
			r.Post("/", h.CreateTaxRule)
			r.Get("/{id}", h.GetTaxRule)
		})

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Post("/{id}/attendance", h.RecordAttendance)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/{id}/compute", h.ComputeScenario)
		})
	})

	return r
}
