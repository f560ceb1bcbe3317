package payroll_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/payroll"
)

func TestComputeBatch_KeepsOrderAndIsolatesFailures(t *testing.T) {
	// GIVEN: 20 employees, one with a negative salary
	engine := newEngine(t, 176)
	var inputs []payroll.ResolvedPayrollInputs
	for i := 0; i < 20; i++ {
		in := baseInputs(fmt.Sprintf("%d.00", 1000+i))
		in.EmployeeID = fmt.Sprintf("emp-%02d", i)
		inputs = append(inputs, in)
	}
	inputs[7].BaseSalary = m("-1")

	// WHEN: computed on 4 workers
	outcomes, err := engine.ComputeBatch(context.Background(), inputs, 4)
	require.NoError(t, err)

	// THEN: every outcome lines up with its input
	require.Len(t, outcomes, 20)
	for i, o := range outcomes {
		assert.Equal(t, inputs[i].EmployeeID, o.EmployeeID)
		if i == 7 {
			assert.Nil(t, o.Result)
			assert.True(t, payroll.IsValidation(o.Err))
			continue
		}
		require.NoError(t, o.Err)
		assert.Equal(t, fmt.Sprintf("%d.00", 1000+i), o.Result.NetPay.String())
	}
}

func TestComputeBatch_CancelledContext(t *testing.T) {
	engine := newEngine(t, 176)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, err := engine.ComputeBatch(ctx, []payroll.ResolvedPayrollInputs{baseInputs("1"), baseInputs("2")}, 0)

	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		assert.ErrorIs(t, o.Err, context.Canceled)
		assert.Nil(t, o.Result)
	}
}
