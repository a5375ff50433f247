package tabular

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/clsp/pkg/domain/entities"
	"github.com/vsinha/clsp/pkg/domain/repositories"
	"github.com/vsinha/clsp/pkg/domain/services/bigm"

	testhelpers "github.com/vsinha/clsp/pkg/application/services/testing"
)

type mapSource map[string]*Table

func (m mapSource) ReadTable(ctx context.Context, name string, problemInstanceID string) (*Table, error) {
	t, ok := m[name]
	if !ok {
		return nil, ErrTableNotFound
	}
	return t, nil
}

func sourceOf(datasets ...*entities.Dataset) mapSource {
	src := mapSource{}
	for _, ds := range datasets {
		for _, t := range Encode(ds) {
			if existing, ok := src[t.Name]; ok {
				existing.Rows = append(existing.Rows, t.Rows...)
				continue
			}
			src[t.Name] = t
		}
	}
	return src
}

func TestDecode_EncodedDataset(t *testing.T) {
	ds := testhelpers.BuildTwoLevelDataset()

	got, err := Decode(context.Background(), sourceOf(ds), "PI_TWO_LEVEL")
	require.NoError(t, err)
	assert.Equal(t, ds, got)
}

func TestDecode_SkipsOtherInstances(t *testing.T) {
	single := testhelpers.BuildSingleMachineDataset(100)
	two := testhelpers.BuildTwoLevelDataset()
	src := sourceOf(single, two)

	got, err := Decode(context.Background(), src, "PI_SINGLE")
	require.NoError(t, err)
	assert.Equal(t, single.Capacities, got.Capacities)
	assert.Empty(t, got.ProductStructures)

	_, err = Decode(context.Background(), src, "PI_MISSING")
	assert.ErrorIs(t, err, repositories.ErrInstanceNotFound)
}

func TestDecode_HeaderIsCaseInsensitive(t *testing.T) {
	src := sourceOf(testhelpers.BuildSingleMachineDataset(100))
	header := src[TableCapacity].Header
	for i, h := range header {
		header[i] = " " + strings.ToUpper(h)
	}

	got, err := Decode(context.Background(), src, "PI_SINGLE")
	require.NoError(t, err)
	assert.Len(t, got.Capacities, 3)
}

func TestDecode_DerivesMissingBigM(t *testing.T) {
	ds := testhelpers.BuildTwoLevelDataset()
	src := sourceOf(ds)
	delete(src, TableMaxProductionQuantity)

	got, err := Decode(context.Background(), src, "PI_TWO_LEVEL")
	require.NoError(t, err)
	assert.Equal(t, bigm.Derive(ds), got.MaxProductionQuantities)
}

func TestDecode_Failures(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(src mapSource)
		sentinel error
		relation string
		key      string
	}{
		{
			name:     "missing required table",
			mutate:   func(src mapSource) { delete(src, TableSetupMatrix) },
			sentinel: entities.ErrDataIncomplete,
			relation: TableSetupMatrix,
		},
		{
			name: "missing column",
			mutate: func(src mapSource) {
				src[TablePrimaryDemand].Header[4] = "qty"
			},
			sentinel: entities.ErrDataIncomplete,
			relation: TablePrimaryDemand,
			key:      "quantity",
		},
		{
			name: "malformed number",
			mutate: func(src mapSource) {
				src[TableCapacity].Rows[0][4] = "lots"
			},
			sentinel: entities.ErrConfiguration,
		},
		{
			name: "fractional period",
			mutate: func(src mapSource) {
				src[TablePlanningPeriod].Rows[0][1] = "1.5"
			},
			sentinel: entities.ErrConfiguration,
		},
		{
			name: "malformed date",
			mutate: func(src mapSource) {
				src[TablePlanningPeriod].Rows[0][2] = "06.01.2025"
			},
			sentinel: entities.ErrConfiguration,
		},
		{
			name: "unknown material type",
			mutate: func(src mapSource) {
				src[TableMaterialType].Rows[0][4] = "SEMI_FINISHED"
			},
			sentinel: entities.ErrConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := sourceOf(testhelpers.BuildSingleMachineDataset(100))
			tt.mutate(src)

			_, err := Decode(context.Background(), src, "PI_SINGLE")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)

			var incomplete *entities.DataIncompleteError
			if tt.relation != "" && assert.True(t, errors.As(err, &incomplete)) {
				assert.Equal(t, tt.relation, incomplete.Relation)
				assert.Equal(t, tt.key, incomplete.Key)
			}
		})
	}
}

func TestDecode_AcceptsIntegralFloatsAndTimestamps(t *testing.T) {
	src := sourceOf(testhelpers.BuildSingleMachineDataset(100))
	src[TablePlanningPeriod].Rows[0][1] = "1.0"
	src[TablePlanningPeriod].Rows[0][2] = "2025-01-06 00:00:00"

	got, err := Decode(context.Background(), src, "PI_SINGLE")
	require.NoError(t, err)
	assert.Equal(t, entities.Period(1), got.PlanningPeriods[0].Period)
	assert.Equal(t, 2025, got.PlanningPeriods[0].PlanningDate.Year())
}

func TestProvider_LoadDataset(t *testing.T) {
	provider := NewProvider(sourceOf(testhelpers.BuildTwoLevelDataset()))

	ds, err := provider.LoadDataset(context.Background(), "PI_TWO_LEVEL", []entities.ScenarioID{"S2"})
	require.NoError(t, err)
	require.Len(t, ds.ProblemInstances, 1)
	assert.Equal(t, entities.ScenarioID("S2"), ds.ProblemInstances[0].Scenario)
	for _, d := range ds.Demands {
		assert.Equal(t, entities.ScenarioID("S2"), d.Scenario)
	}

	_, err = provider.LoadDataset(context.Background(), "PI_TWO_LEVEL", []entities.ScenarioID{"S9"})
	assert.ErrorIs(t, err, entities.ErrConfiguration)
}

func TestProvider_ListInstances(t *testing.T) {
	provider := NewProvider(sourceOf(testhelpers.BuildTwoLevelDataset(), testhelpers.BuildSingleMachineDataset(100)))

	ids, err := provider.ListInstances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"PI_SINGLE", "PI_TWO_LEVEL"}, ids)
}

func TestColumns(t *testing.T) {
	assert.Equal(t, []string{ColumnProblemInstance, "machine_id", "material_id"}, Columns(TableProductToLine))
	assert.Nil(t, Columns("Unknown"))
	assert.Len(t, TableNames(), 14)
}
