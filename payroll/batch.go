package payroll

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchOutcome is the result of one computation in a batch. Exactly one of
// Result and Err is set.
type BatchOutcome struct {
	EmployeeID string
	Result     *PayrollResult
	Err        error
}

// ComputeBatch runs independent computations on at most workers goroutines.
// One failure does not stop the others. Outcomes keep the input order.
// Cancelling ctx stops scheduling; unscheduled items report ctx.Err().
func (e *Engine) ComputeBatch(ctx context.Context, inputs []ResolvedPayrollInputs, workers int) ([]BatchOutcome, error) {
	if workers <= 0 {
		workers = 1
	}
	outcomes := make([]BatchOutcome, len(inputs))

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range inputs {
		outcomes[i].EmployeeID = inputs[i].EmployeeID
		if err := ctx.Err(); err != nil {
			outcomes[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i].Err = err
				return nil
			}
			outcomes[i].Result, outcomes[i].Err = e.Compute(inputs[i])
			return nil
		})
	}
	_ = g.Wait()

	return outcomes, ctx.Err()
}
