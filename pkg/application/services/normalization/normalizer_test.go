package normalization

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/clsp/pkg/domain/entities"

	testhelpers "github.com/vsinha/clsp/pkg/application/services/testing"
)

func TestResolveDomain(t *testing.T) {
	tests := []struct {
		uom     string
		want    entities.QuantityDomain
		wantErr bool
	}{
		{"PC", entities.Discrete, false},
		{"pcs", entities.Discrete, false},
		{" Ea ", entities.Discrete, false},
		{"", entities.Discrete, false},
		{"KG", entities.Continuous, false},
		{"min", entities.Continuous, false},
		{"m3", entities.Continuous, false},
		{"BARREL", entities.Continuous, true},
	}

	for _, tt := range tests {
		t.Run(tt.uom, func(t *testing.T) {
			got, err := ResolveDomain(tt.uom)
			if tt.wantErr {
				assert.True(t, errors.Is(err, entities.ErrConfiguration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_TwoLevel(t *testing.T) {
	ds := testhelpers.BuildTwoLevelDataset()

	data, err := NewNormalizer().Normalize(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, []entities.MachineID{"ASSEMBLY", "PRESS"}, data.Machines)
	assert.Equal(t, []entities.ProductID{"FG", "INT"}, data.Products)
	assert.Equal(t, []entities.Period{1, 2, 3, 4}, data.Periods)
	assert.Equal(t, []entities.ScenarioID{"S1", "S2"}, data.Scenarios)
	assert.Equal(t, entities.Period(4), data.Horizon())

	fgDomain, err := data.QuantityDomains.Get("FG")
	require.NoError(t, err)
	assert.Equal(t, entities.Discrete, fgDomain)
	intDomain, err := data.QuantityDomains.Get("INT")
	require.NoError(t, err)
	assert.Equal(t, entities.Continuous, intDomain)

	// raw materials are not produced and get no unit mapping
	assert.False(t, data.QuantityDomains.Has("RM"))
	assert.False(t, data.MaterialTypes.Has("RM"))

	assert.Equal(t, []entities.MachineID{"ASSEMBLY"}, data.Lines("FG"))
	assert.Equal(t, []entities.ProductID{"INT"}, data.LineProducts("PRESS"))
	assert.Len(t, data.Routings(), 2)

	demand, err := data.Demand.Get(entities.ScenarioProductPeriod{Scenario: "S2", Product: "FG", Period: 4})
	require.NoError(t, err)
	assert.Equal(t, 3.0, demand)

	lt, err := data.LeadTime.Get(entities.MachineProductPeriod{Machine: "ASSEMBLY", Product: "FG", Period: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, lt)

	// both BOM levels, four periods each
	assert.Equal(t, 2, data.BOM.EdgeCount())
	consumers := data.BOM.Consumers("INT", 3)
	require.Len(t, consumers, 1)
	assert.Equal(t, entities.ProcessNode{Machine: "ASSEMBLY", Product: "FG"}, consumers[0].Receiver)
	assert.Equal(t, 2.0, consumers[0].Ratio)
	assert.Empty(t, data.BOM.Consumers("FG", 3))
}

func TestNormalize_Deterministic(t *testing.T) {
	first, err := NewNormalizer().Normalize(context.Background(), testhelpers.BuildTwoLevelDataset())
	require.NoError(t, err)
	second, err := NewNormalizer().Normalize(context.Background(), testhelpers.BuildTwoLevelDataset())
	require.NoError(t, err)

	assert.Equal(t, first.Machines, second.Machines)
	assert.Equal(t, first.Products, second.Products)
	assert.Equal(t, first.Periods, second.Periods)
	assert.Equal(t, first.Scenarios, second.Scenarios)
	assert.Equal(t, first.Routings(), second.Routings())
	assert.Equal(t, first.BigM.Len(), second.BigM.Len())
}

func TestNormalize_DropsSelfConsumption(t *testing.T) {
	ds := testhelpers.BuildSingleMachineDataset(100)
	ds.ProductStructures = append(ds.ProductStructures, entities.ProductStructureRow{
		ReceivingMachine: "M1", Received: "A",
		IssuingMachine: "M1", Issued: "A",
		Period: 1, Alternative: 1, Ratio: 1,
	})

	data, err := NewNormalizer().Normalize(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, 0, data.BOM.EdgeCount())
}

func TestNormalize_Failures(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(ds *entities.Dataset)
		incomplete bool
		config     bool
	}{
		{
			name:       "missing capacity relation",
			mutate:     func(ds *entities.Dataset) { ds.Capacities = nil },
			incomplete: true,
		},
		{
			name:       "missing material type",
			mutate:     func(ds *entities.Dataset) { ds.MaterialTypes = ds.MaterialTypes[:1] },
			incomplete: true,
		},
		{
			name: "unknown unit of measure",
			mutate: func(ds *entities.Dataset) {
				ds.MaterialTypes[0].BaseUOM = "BARREL"
			},
			config: true,
		},
		{
			name: "gap in planning periods",
			mutate: func(ds *entities.Dataset) {
				ds.PlanningPeriods = ds.PlanningPeriods[1:]
			},
			config: true,
		},
		{
			name: "routing to unknown machine",
			mutate: func(ds *entities.Dataset) {
				ds.ProductToLine = append(ds.ProductToLine, entities.ProductToLineRow{Machine: "M9", Product: "A"})
			},
			config: true,
		},
		{
			name: "negative lead time",
			mutate: func(ds *entities.Dataset) {
				ds.Production[0].LeadTime = -1
			},
			config: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := testhelpers.BuildSingleMachineDataset(100)
			tt.mutate(ds)

			data, err := NewNormalizer().Normalize(context.Background(), ds)
			require.Error(t, err)
			assert.Nil(t, data, "no partial state on failure")
			assert.Equal(t, tt.incomplete, errors.Is(err, entities.ErrDataIncomplete), err.Error())
			assert.Equal(t, tt.config, errors.Is(err, entities.ErrConfiguration), err.Error())
		})
	}
}
