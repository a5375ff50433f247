package lotsizing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/clsp/pkg/application/services/normalization"
	"github.com/vsinha/clsp/pkg/domain/entities"
	"github.com/vsinha/clsp/pkg/mip"

	testhelpers "github.com/vsinha/clsp/pkg/application/services/testing"
)

func normalize(t *testing.T, ds *entities.Dataset) *entities.PlanningData {
	t.Helper()
	data, err := normalization.NewNormalizer().Normalize(context.Background(), ds)
	require.NoError(t, err)
	return data
}

func TestBuild_SingleMachineCounts(t *testing.T) {
	data := normalize(t, testhelpers.BuildSingleMachineDataset(100))

	model, err := NewBuilder(data).Build(context.Background())
	require.NoError(t, err)

	stats := model.MIP.Stats()
	assert.Equal(t, 42, stats.Variables)
	assert.Equal(t, 20, stats.Binary)
	assert.Equal(t, 22, stats.Integer)
	assert.Equal(t, 0, stats.Continuous)
	assert.Equal(t, 8, stats.VariableFamilies[FamilyInventory])
	assert.Equal(t, 8, stats.VariableFamilies[FamilyLinkedLot])
	assert.Equal(t, 6, stats.VariableFamilies[FamilyProduction])

	assert.Equal(t, 46, stats.Constraints)
	assert.Equal(t, 6, stats.ConstraintFamilies[RowMaterialBalance])
	assert.Equal(t, 3, stats.ConstraintFamilies[RowCapacity])
	assert.Equal(t, 6, stats.ConstraintFamilies[RowLinkedLotSynchronize])
	assert.Equal(t, 0, stats.ConstraintFamilies[RowLeadTime])

	assert.Len(t, model.Production, 6)
	assert.Len(t, model.Inventory, 8)
}

func TestBuild_TwoLevelCounts(t *testing.T) {
	data := normalize(t, testhelpers.BuildTwoLevelDataset())

	model, err := NewBuilder(data).Build(context.Background())
	require.NoError(t, err)

	stats := model.MIP.Stats()
	assert.Equal(t, 108, stats.Variables)
	assert.Equal(t, 52, stats.Binary)
	assert.Equal(t, 28, stats.Integer)
	assert.Equal(t, 28, stats.Continuous)
	assert.Equal(t, 118, stats.Constraints)
	assert.Equal(t, 2, stats.ConstraintFamilies[RowLeadTime], "FG started in the last period cannot arrive")
	assert.Equal(t, 0, stats.ConstraintFamilies[RowLinkedLotSynchronize], "one product per machine")
}

func TestBuild_VariableNames(t *testing.T) {
	data := normalize(t, testhelpers.BuildSingleMachineDataset(100))

	model, err := NewBuilder(data).Build(context.Background())
	require.NoError(t, err)

	for _, name := range []string{
		"INVENTORY_ON_HAND_S1_A_0",
		"BACKORDER_QUANTITY_S1_B_3",
		"PRODUCTION_QUANTITY_S1_M1_A_2",
		"SETUP_STATE_S1_M1_B_1",
		"LINKED_LOT_SIZE_S1_M1_A_0",
		"TOTAL_SETUP_S1_M1_A_3",
	} {
		_, ok := model.MIP.Lookup(name)
		assert.True(t, ok, name)
	}
	_, ok := model.MIP.Lookup("PRODUCTION_QUANTITY_S1_M1_A_0")
	assert.False(t, ok, "production starts in period 1")
}

func TestBuild_MaterialBalanceWithLeadTimeAndBOM(t *testing.T) {
	data := normalize(t, testhelpers.BuildTwoLevelDataset())

	model, err := NewBuilder(data).Build(context.Background())
	require.NoError(t, err)

	var intBalance, fgBalance *mip.Constraint
	for i := range model.MIP.Constraints() {
		c := &model.MIP.Constraints()[i]
		switch c.Name {
		case "MATERIAL_BALANCE_S1_INT_3":
			intBalance = c
		case "MATERIAL_BALANCE_S1_FG_4":
			fgBalance = c
		}
	}
	require.NotNil(t, intBalance)
	require.NotNil(t, fgBalance)

	coef := func(c *mip.Constraint, name string) float64 {
		id, ok := model.MIP.Lookup(name)
		require.True(t, ok, name)
		for _, term := range c.Terms {
			if term.Var == id {
				return term.Coef
			}
		}
		return 0
	}

	// INT is drawn twice per FG started in the same period
	assert.Equal(t, -2.0, coef(intBalance, "PRODUCTION_QUANTITY_S1_ASSEMBLY_FG_3"))
	assert.Equal(t, 1.0, coef(intBalance, "PRODUCTION_QUANTITY_S1_PRESS_INT_3"))

	// FG started in period 3 arrives in period 4
	assert.Equal(t, 1.0, coef(fgBalance, "PRODUCTION_QUANTITY_S1_ASSEMBLY_FG_3"))
	assert.Equal(t, 0.0, coef(fgBalance, "PRODUCTION_QUANTITY_S1_ASSEMBLY_FG_4"))
	assert.Equal(t, 5.0, fgBalance.RHS)
	assert.Equal(t, mip.Equal, fgBalance.Sense)
}

func TestBuild_Deterministic(t *testing.T) {
	build := func() *Model {
		model, err := NewBuilder(normalize(t, testhelpers.BuildTwoLevelDataset())).Build(context.Background())
		require.NoError(t, err)
		return model
	}
	first, second := build(), build()

	assert.Equal(t, first.MIP.Stats(), second.MIP.Stats())
	assert.Equal(t, first.MIP.Objective(), second.MIP.Objective())
	assert.Equal(t, first.MIP.Vars(), second.MIP.Vars())
	assert.Equal(t, first.MIP.Constraints(), second.MIP.Constraints())
}

func TestBuild_ScenarioAveragedObjective(t *testing.T) {
	data := normalize(t, testhelpers.BuildTwoLevelDataset())

	model, err := NewBuilder(data).Build(context.Background())
	require.NoError(t, err)

	id, ok := model.MIP.Lookup("SETUP_STATE_S2_ASSEMBLY_FG_1")
	require.True(t, ok)
	for _, term := range model.MIP.Objective() {
		if term.Var == id {
			assert.InDelta(t, 10.0, term.Coef, 1e-12, "setup cost 20 over two scenarios")
			return
		}
	}
	t.Fatal("setup state missing from objective")
}

func TestBuild_MissingParameter(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(ds *entities.Dataset)
		want   string
	}{
		{
			name:   "demand",
			mutate: func(ds *entities.Dataset) { ds.Demands = ds.Demands[1:] },
			want:   "Demand",
		},
		{
			name:   "big m",
			mutate: func(ds *entities.Dataset) { ds.MaxProductionQuantities = ds.MaxProductionQuantities[1:] },
			want:   "BigM",
		},
		{
			name:   "initial carryover",
			mutate: func(ds *entities.Dataset) { ds.InitialLinkedLotSizingValues = ds.InitialLinkedLotSizingValues[1:] },
			want:   "InitialLinkedLotSize",
		},
		{
			name:   "setup cost",
			mutate: func(ds *entities.Dataset) { ds.SetupMatrix = ds.SetupMatrix[1:] },
			want:   "SetupCost",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := testhelpers.BuildSingleMachineDataset(100)
			tt.mutate(ds)
			data := normalize(t, ds)

			model, err := NewBuilder(data).Build(context.Background())
			require.Error(t, err)
			assert.Nil(t, model, "partial models are never returned")

			var incomplete *entities.DataIncompleteError
			require.True(t, errors.As(err, &incomplete), err.Error())
			assert.Equal(t, tt.want, incomplete.Relation)
		})
	}
}

type stubSolver struct {
	solution *mip.Solution
	err      error
	budget   time.Duration
}

func (s *stubSolver) Optimize(ctx context.Context, m *mip.Model, budget time.Duration) (*mip.Solution, error) {
	s.budget = budget
	return s.solution, s.err
}

func TestModel_Solve(t *testing.T) {
	data := normalize(t, testhelpers.BuildSingleMachineDataset(100))
	model, err := NewBuilder(data).Build(context.Background())
	require.NoError(t, err)

	stub := &stubSolver{solution: &mip.Solution{Status: mip.NoSolutionFound, Bound: 12}}
	sol, err := model.Solve(context.Background(), stub, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, stub.budget)
	assert.Same(t, sol, model.Solution)

	stub = &stubSolver{solution: &mip.Solution{Status: mip.Optimal, Values: []float64{1, 2}}}
	_, err = model.Solve(context.Background(), stub, time.Second)
	assert.Error(t, err, "assignment size must match the model")

	stub = &stubSolver{err: errors.New("engine crashed")}
	_, err = model.Solve(context.Background(), stub, time.Second)
	assert.Error(t, err)
}
