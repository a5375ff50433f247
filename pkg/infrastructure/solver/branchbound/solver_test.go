package branchbound

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/clsp/pkg/mip"
)

// knapsack: max 5a + 4b + 3c s.t. 2a + 3b + c <= 5, binary
func knapsack(t *testing.T) *mip.Model {
	t.Helper()
	m := mip.NewModel("knapsack")
	a, err := m.AddVar("ITEM", "a", mip.Binary, 0, 1)
	require.NoError(t, err)
	b, err := m.AddVar("ITEM", "b", mip.Binary, 0, 1)
	require.NoError(t, err)
	c, err := m.AddVar("ITEM", "c", mip.Binary, 0, 1)
	require.NoError(t, err)

	require.NoError(t, m.AddConstraint("WEIGHT", "weight", mip.NewExpr().Add(a, 2).Add(b, 3).Add(c, 1), mip.LessEqual, 5))
	require.NoError(t, m.SetObjective(mip.NewExpr().Add(a, -5).Add(b, -4).Add(c, -3)))
	return m
}

func TestOptimize_Knapsack(t *testing.T) {
	m := knapsack(t)

	sol, err := New(Options{}).Optimize(context.Background(), m, 0)
	require.NoError(t, err)

	assert.Equal(t, mip.Optimal, sol.Status)
	assert.InDelta(t, -9.0, sol.Objective, 1e-6)
	assert.InDelta(t, sol.Objective, sol.Bound, 1e-9)
	assert.Equal(t, []float64{1, 1, 0}, sol.Values)
	assert.Empty(t, m.Violations(sol.Values, 1e-6))
}

func TestOptimize_IntegerRounding(t *testing.T) {
	// min -x - y s.t. 2x + 2y <= 3, relaxation 1.5, integer optimum 1
	m := mip.NewModel("rounding")
	x, _ := m.AddVar("V", "x", mip.Integer, 0, math.Inf(1))
	y, _ := m.AddVar("V", "y", mip.Integer, 0, math.Inf(1))
	require.NoError(t, m.AddConstraint("CAP", "cap", mip.NewExpr().Add(x, 2).Add(y, 2), mip.LessEqual, 3))
	require.NoError(t, m.SetObjective(mip.NewExpr().Add(x, -1).Add(y, -1)))

	sol, err := New(Options{}).Optimize(context.Background(), m, time.Minute)
	require.NoError(t, err)

	assert.Equal(t, mip.Optimal, sol.Status)
	assert.InDelta(t, -1.0, sol.Objective, 1e-6)
	assert.Empty(t, m.Violations(sol.Values, 1e-6))
}

func TestOptimize_EqualityWithContinuous(t *testing.T) {
	// min x + 2y s.t. x + y = 4, x <= 3
	m := mip.NewModel("equality")
	x, _ := m.AddVar("V", "x", mip.Continuous, 0, 3)
	y, _ := m.AddVar("V", "y", mip.Continuous, 0, math.Inf(1))
	require.NoError(t, m.AddConstraint("SUM", "sum", mip.NewExpr().Add(x, 1).Add(y, 1), mip.Equal, 4))
	require.NoError(t, m.SetObjective(mip.NewExpr().Add(x, 1).Add(y, 2)))

	sol, err := New(Options{}).Optimize(context.Background(), m, 0)
	require.NoError(t, err)

	assert.Equal(t, mip.Optimal, sol.Status)
	assert.InDelta(t, 5.0, sol.Objective, 1e-6)
	assert.InDelta(t, 3.0, sol.Values[x], 1e-6)
	assert.InDelta(t, 1.0, sol.Values[y], 1e-6)
}

func TestOptimize_Infeasible(t *testing.T) {
	t.Run("relaxation", func(t *testing.T) {
		m := mip.NewModel("infeasible")
		x, _ := m.AddVar("V", "x", mip.Continuous, 0, 1)
		y, _ := m.AddVar("V", "y", mip.Continuous, 0, 1)
		require.NoError(t, m.AddConstraint("COVER", "cover", mip.NewExpr().Add(x, 1).Add(y, 1), mip.GreaterEqual, 3))

		sol, err := New(Options{}).Optimize(context.Background(), m, 0)
		require.NoError(t, err)
		assert.Equal(t, mip.Infeasible, sol.Status)
		assert.Nil(t, sol.Values)
	})

	t.Run("presolve", func(t *testing.T) {
		m := mip.NewModel("infeasible")
		x, _ := m.AddVar("V", "x", mip.Integer, 0, 1)
		require.NoError(t, m.AddConstraint("FIX", "fix", mip.NewExpr().Add(x, 1), mip.Equal, 2))

		sol, err := New(Options{}).Optimize(context.Background(), m, 0)
		require.NoError(t, err)
		assert.Equal(t, mip.Infeasible, sol.Status)
	})

	t.Run("integrality", func(t *testing.T) {
		// 2x = 1 has no integer solution
		m := mip.NewModel("infeasible")
		x, _ := m.AddVar("V", "x", mip.Integer, 0, 5)
		y, _ := m.AddVar("V", "y", mip.Continuous, 0, 0.1)
		require.NoError(t, m.AddConstraint("ODD", "odd", mip.NewExpr().Add(x, 2).Add(y, 1), mip.Equal, 1))

		sol, err := New(Options{}).Optimize(context.Background(), m, 0)
		require.NoError(t, err)
		assert.Equal(t, mip.Infeasible, sol.Status)
	})
}

func TestOptimize_NodeLimit(t *testing.T) {
	t.Run("no incumbent yet", func(t *testing.T) {
		sol, err := New(Options{MaxNodes: 1}).Optimize(context.Background(), knapsack(t), 0)
		require.NoError(t, err)

		assert.Equal(t, mip.NoSolutionFound, sol.Status)
		assert.InDelta(t, -32.0/3, sol.Bound, 1e-6)
		assert.Nil(t, sol.Values)
	})

	t.Run("incumbent found", func(t *testing.T) {
		sol, err := New(Options{MaxNodes: 3}).Optimize(context.Background(), knapsack(t), 0)
		require.NoError(t, err)

		assert.Equal(t, mip.Feasible, sol.Status)
		assert.InDelta(t, -9.0, sol.Objective, 1e-6)
		assert.InDelta(t, -32.0/3, sol.Bound, 1e-6)
		assert.Equal(t, 3, sol.Nodes)
	})
}

func TestOptimize_TimeBudgetAndCancellation(t *testing.T) {
	sol, err := New(Options{}).Optimize(context.Background(), knapsack(t), time.Nanosecond)
	require.NoError(t, err, "running out of budget is not an error")
	assert.Equal(t, mip.NoSolutionFound, sol.Status)
	assert.Equal(t, 1, sol.Nodes, "the root relaxation is always solved")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sol, err = New(Options{}).Optimize(ctx, knapsack(t), 0)
	require.NoError(t, err)
	assert.Equal(t, mip.NoSolutionFound, sol.Status)
}

func TestOptimize_Unbounded(t *testing.T) {
	m := mip.NewModel("unbounded")
	x, _ := m.AddVar("V", "x", mip.Continuous, 0, math.Inf(1))
	require.NoError(t, m.SetObjective(mip.NewExpr().Add(x, -1)))

	_, err := New(Options{}).Optimize(context.Background(), m, 0)
	assert.True(t, errors.Is(err, ErrUnbounded))
}
