package payroll_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/money"
	"github.com/warp/payroll-engine/payroll"
)

func TestNewDeductionRule_ExactlyOneMode(t *testing.T) {
	none := payroll.DeductionRuleSpec{ID: "d", Code: "D"}
	_, err := payroll.NewDeductionRule(none)
	assert.True(t, payroll.IsValidation(err))

	two := payroll.DeductionRuleSpec{ID: "d", Code: "D", FixedAmount: mp("10"), Rate: rate("2")}
	_, err = payroll.NewDeductionRule(two)
	assert.True(t, payroll.IsValidation(err))

	three := payroll.DeductionRuleSpec{ID: "d", Code: "D", FixedAmount: mp("10"), Rate: rate("2"), Brackets: []payroll.Bracket{rateBracket("0", "", "5")}}
	_, err = payroll.NewDeductionRule(three)
	assert.True(t, payroll.IsValidation(err))
}

func TestNewDeductionRule_RequiresIDAndCode(t *testing.T) {
	_, err := payroll.NewDeductionRule(payroll.DeductionRuleSpec{Code: "D", FixedAmount: mp("1")})
	assert.True(t, payroll.IsValidation(err))

	_, err = payroll.NewDeductionRule(payroll.DeductionRuleSpec{ID: "d", FixedAmount: mp("1")})
	assert.True(t, payroll.IsValidation(err))
}

func TestNewDeductionRule_RejectsOverlappingBrackets(t *testing.T) {
	_, err := payroll.NewDeductionRule(payroll.DeductionRuleSpec{
		ID: "nssf", Code: "NSSF",
		Brackets: []payroll.Bracket{rateBracket("0", "1000", "10"), rateBracket("900", "2000", "15")},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, payroll.ErrBracketOverlap)

	var pe *payroll.Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "nssf", pe.RuleID)

	var overlap *payroll.BracketOverlapError
	assert.True(t, errors.As(err, &overlap))
}

func TestResolveDeduction_Modes(t *testing.T) {
	flat, err := payroll.NewDeductionRule(payroll.DeductionRuleSpec{ID: "sacco", Code: "SACCO", FixedAmount: mp("150")})
	require.NoError(t, err)
	res, err := payroll.ResolveDeduction(flat, m("50000"), money.RoundHalfUp)
	require.NoError(t, err)
	assert.Equal(t, "150.00", res.Amount.String())

	pct, err := payroll.NewDeductionRule(payroll.DeductionRuleSpec{ID: "shif", Code: "SHIF", Rate: rate("2.75")})
	require.NoError(t, err)
	res, err = payroll.ResolveDeduction(pct, m("50000"), money.RoundHalfUp)
	require.NoError(t, err)
	assert.Equal(t, "1375.00", res.Amount.String())
	require.Len(t, res.Breakdown, 1)
	assert.Equal(t, "2.75", res.Breakdown[0].Rate.String())

	tiered, err := payroll.NewDeductionRule(payroll.DeductionRuleSpec{
		ID: "tiered", Code: "TIER",
		Brackets: []payroll.Bracket{rateBracket("0", "1000", "0"), rateBracket("1000", "", "10")},
	})
	require.NoError(t, err)
	res, err = payroll.ResolveDeduction(tiered, m("2800"), money.RoundHalfUp)
	require.NoError(t, err)
	assert.Equal(t, "180.00", res.Amount.String())
}

func TestResolveDeduction_NoModeIsComputationError(t *testing.T) {
	_, err := payroll.ResolveDeduction(payroll.DeductionRule{ID: "broken", Code: "X"}, m("100"), money.RoundHalfUp)
	assert.True(t, payroll.IsComputation(err))
	assert.False(t, payroll.IsValidation(err))

	_, err = payroll.ResolveDeduction(payroll.DeductionRule{ID: "empty", Code: "X", Method: payroll.Bracketed{}}, m("100"), money.RoundHalfUp)
	assert.True(t, payroll.IsComputation(err))
}

func TestResolveDeduction_DoesNotMutateRule(t *testing.T) {
	rule := payeRule(t, rateBracket("1000", "", "10"), rateBracket("0", "1000", "0"))
	before := rule.Method.(payroll.Bracketed).Brackets.Brackets()

	_, err := payroll.ResolveDeduction(rule, m("5000"), money.RoundHalfUp)
	require.NoError(t, err)

	assert.Equal(t, before, rule.Method.(payroll.Bracketed).Brackets.Brackets())
}
