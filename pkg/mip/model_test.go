package mip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModel_AddVar(t *testing.T) {
	m := NewModel("test")

	x, err := m.AddVar("X", "X_1", Continuous, 0, 10)
	require.NoError(t, err)
	y, err := m.AddVar("Y", "Y_1", Binary, -5, 5)
	require.NoError(t, err)

	assert.Equal(t, VarID(0), x)
	assert.Equal(t, VarID(1), y)
	assert.Equal(t, 0.0, m.Var(y).Lower, "binary bounds are forced to [0, 1]")
	assert.Equal(t, 1.0, m.Var(y).Upper)

	_, err = m.AddVar("X", "X_1", Continuous, 0, 1)
	assert.Error(t, err, "duplicate names must be rejected")

	_, err = m.AddVar("Z", "Z_1", Integer, 3, 2)
	assert.Error(t, err, "empty domains must be rejected")

	id, ok := m.Lookup("Y_1")
	assert.True(t, ok)
	assert.Equal(t, y, id)
}

func TestModel_AddConstraintMergesTerms(t *testing.T) {
	m := NewModel("test")
	x, _ := m.AddVar("X", "X", Continuous, 0, 10)
	y, _ := m.AddVar("Y", "Y", Continuous, 0, 10)

	expr := NewExpr().Add(x, 1).Add(y, 2).Add(x, 3).Add(y, -2)
	require.NoError(t, m.AddConstraint("ROW", "ROW_1", expr, LessEqual, 8))

	c := m.Constraints()[0]
	assert.Equal(t, []Term{{Var: x, Coef: 4}}, c.Terms)
	assert.Equal(t, "ROW", c.Family)

	err := m.AddConstraint("ROW", "ROW_2", NewExpr().Add(VarID(7), 1), Equal, 0)
	assert.Error(t, err, "unknown variables must be rejected")
}

func TestModel_StatsAndObjective(t *testing.T) {
	m := NewModel("test")
	x, _ := m.AddVar("X", "X", Continuous, 0, 10)
	y, _ := m.AddVar("Y", "Y", Binary, 0, 1)
	z, _ := m.AddVar("Z", "Z", Integer, 0, 10)

	require.NoError(t, m.AddConstraint("CAP", "CAP_1", NewExpr().Add(x, 1).Add(z, 1), LessEqual, 5))
	require.NoError(t, m.AddConstraint("LINK", "LINK_1", NewExpr().Add(x, 1).Add(y, -10), LessEqual, 0))
	require.NoError(t, m.SetObjective(NewExpr().Add(x, 2).Add(y, 5)))

	s := m.Stats()
	assert.Equal(t, 3, s.Variables)
	assert.Equal(t, 1, s.Binary)
	assert.Equal(t, 1, s.Integer)
	assert.Equal(t, 1, s.Continuous)
	assert.Equal(t, 2, s.Constraints)
	assert.Equal(t, 4, s.NonZeros)
	assert.Equal(t, 1, s.ConstraintFamilies["CAP"])

	assert.InDelta(t, 11.0, m.ObjectiveValue([]float64{3, 1, 0}), 1e-9)
}

func TestModel_Violations(t *testing.T) {
	m := NewModel("test")
	x, _ := m.AddVar("X", "X", Continuous, 0, 10)
	y, _ := m.AddVar("Y", "Y", Binary, 0, 1)
	require.NoError(t, m.AddConstraint("LINK", "LINK_1", NewExpr().Add(x, 1).Add(y, -4), LessEqual, 0))
	require.NoError(t, m.AddConstraint("DEMAND", "DEMAND_1", NewExpr().Add(x, 1), Equal, 3))

	assert.Empty(t, m.Violations([]float64{3, 1}, 1e-6))

	violations := m.Violations([]float64{3, 0.5}, 1e-6)
	names := make([]string, 0, len(violations))
	for _, v := range violations {
		names = append(names, v.Name)
	}
	assert.ElementsMatch(t, []string{"Y.integrality", "LINK_1"}, names)

	assert.Len(t, m.Violations([]float64{1}, 1e-6), 1, "length mismatch is reported")
}

func TestStatus(t *testing.T) {
	tests := []struct {
		status     Status
		name       string
		assignment bool
	}{
		{Optimal, "OPTIMAL", true},
		{Feasible, "FEASIBLE", true},
		{NoSolutionFound, "NO_SOLUTION_FOUND", false},
		{Infeasible, "INFEASIBLE", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.status.String())
			assert.Equal(t, tt.assignment, tt.status.HasAssignment())
		})
	}
}
