/*
Package payrun runs payroll for a period over a set of employees.

PURPOSE:
  Ties the pieces together: resolve each employee's inputs from the stores,
  compute them concurrently, persist every successful result and report the
  outcome per employee. One employee's failure never stops the others.

FLOW:
  1. employee ids (empty means every stored employee)
  2. resolve.Resolver for each id; a resolution failure is that employee's outcome
  3. Engine.ComputeBatch over the resolved inputs
  4. ResultStore.SaveResult for each success (replaces a previous result)
  5. RunStore.SaveRun with the counts, when a RunStore is configured

LOGGING:
  One line per employee outcome and one summary line per run, through the
  logger carried by ctx (zerolog.Ctx).

SEE ALSO:
  - payroll/batch.go: bounded concurrent computation
  - scheduler.go: monthly automation
*/
package payrun

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/resolve"
)

// Outcome is one employee's result in a run. Exactly one of Result and Err
// is set.
type Outcome struct {
	EmployeeID string
	Result     *payroll.PayrollResult
	Err        error
}

// RunSummary is what Run reports back.
type RunSummary struct {
	RunID     string
	Period    payroll.PayPeriod
	Outcomes  []Outcome
	StartedAt time.Time
	Duration  time.Duration
}

func (s RunSummary) Succeeded() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Err == nil {
			n++
		}
	}
	return n
}

func (s RunSummary) Failed() int { return len(s.Outcomes) - s.Succeeded() }

type Service struct {
	Resolver  *resolve.Resolver
	Engine    *payroll.Engine
	Employees payroll.EmployeeStore
	Results   payroll.ResultStore

	// Runs is optional.
	Runs payroll.RunStore

	Workers int
	Clock   func() time.Time
}

func NewService(resolver *resolve.Resolver, engine *payroll.Engine, st payroll.Store, workers int) *Service {
	return &Service{
		Resolver:  resolver,
		Engine:    engine,
		Employees: st,
		Results:   st,
		Runs:      st,
		Workers:   workers,
		Clock:     time.Now,
	}
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock()
}

// Run computes and stores payroll for period. Failures are reported per
// employee in the summary; the returned error is reserved for failures of the
// run itself (listing employees, cancellation, recording the run).
func (s *Service) Run(ctx context.Context, period payroll.PayPeriod, employeeIDs []string) (RunSummary, error) {
	log := zerolog.Ctx(ctx)
	if err := period.Validate(); err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{RunID: uuid.NewString(), Period: period, StartedAt: s.now()}

	ids, err := s.employeeIDs(ctx, employeeIDs)
	if err != nil {
		return summary, err
	}

	// resolve, remembering where each resolved input goes back in the summary
	summary.Outcomes = make([]Outcome, len(ids))
	var inputs []payroll.ResolvedPayrollInputs
	var slots []int
	for i, id := range ids {
		summary.Outcomes[i].EmployeeID = id
		in, err := s.Resolver.Resolve(ctx, id, period)
		if err != nil {
			summary.Outcomes[i].Err = err
			continue
		}
		inputs = append(inputs, in)
		slots = append(slots, i)
	}

	batch, err := s.Engine.ComputeBatch(ctx, inputs, s.Workers)
	for j, o := range batch {
		summary.Outcomes[slots[j]].Result = o.Result
		summary.Outcomes[slots[j]].Err = o.Err
	}
	if err != nil {
		return summary, fmt.Errorf("payroll run %s cancelled: %w", summary.RunID, err)
	}

	for i := range summary.Outcomes {
		o := &summary.Outcomes[i]
		if o.Err == nil {
			if err := s.Results.SaveResult(ctx, o.Result); err != nil {
				o.Result, o.Err = nil, fmt.Errorf("failed to save result: %w", err)
			}
		}
		if o.Err != nil {
			log.Warn().Str("run_id", summary.RunID).Str("employee_id", o.EmployeeID).Err(o.Err).Msg("payroll failed")
			continue
		}
		log.Debug().Str("run_id", summary.RunID).Str("employee_id", o.EmployeeID).
			Str("net_pay", o.Result.NetPay.String()).Msg("payroll computed")
	}

	summary.Duration = s.now().Sub(summary.StartedAt)
	log.Info().
		Str("run_id", summary.RunID).
		Str("period", period.String()).
		Int("employees", len(summary.Outcomes)).
		Int("succeeded", summary.Succeeded()).
		Int("failed", summary.Failed()).
		Dur("duration", summary.Duration).
		Msg("payroll run completed")

	if s.Runs != nil {
		err := s.Runs.SaveRun(ctx, payroll.RunRecord{
			ID:          summary.RunID,
			Period:      period,
			Employees:   len(summary.Outcomes),
			Succeeded:   summary.Succeeded(),
			Failed:      summary.Failed(),
			StartedAt:   summary.StartedAt,
			CompletedAt: summary.StartedAt.Add(summary.Duration),
		})
		if err != nil {
			return summary, fmt.Errorf("failed to record run %s: %w", summary.RunID, err)
		}
	}
	return summary, nil
}

func (s *Service) employeeIDs(ctx context.Context, requested []string) ([]string, error) {
	if len(requested) > 0 {
		return requested, nil
	}
	emps, err := s.Employees.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	ids := make([]string, len(emps))
	for i, e := range emps {
		ids[i] = e.ID
	}
	return ids, nil
}
