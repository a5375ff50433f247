package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/clsp/pkg/domain/entities"
	"github.com/vsinha/clsp/pkg/domain/repositories"
)

func TestDatasetRepository_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	repo := NewDatasetRepository()

	ds := &entities.Dataset{
		ProblemInstanceID: "PI_1",
		ProblemInstances: []entities.ProblemInstanceRow{
			{ProblemInstanceID: "PI_1", Scenario: "S1"},
			{ProblemInstanceID: "PI_1", Scenario: "S2"},
		},
		Demands: []entities.DemandRow{
			{Scenario: "S1", Product: "A", Period: 1, Quantity: 5},
			{Scenario: "S2", Product: "A", Period: 1, Quantity: 7},
		},
	}
	require.NoError(t, repo.SaveDataset(ctx, ds))

	all, err := repo.LoadDataset(ctx, "PI_1", nil)
	require.NoError(t, err)
	assert.Len(t, all.Demands, 2)

	one, err := repo.LoadDataset(ctx, "PI_1", []entities.ScenarioID{"S2"})
	require.NoError(t, err)
	require.Len(t, one.Demands, 1)
	assert.Equal(t, 7.0, one.Demands[0].Quantity)
	assert.Len(t, one.ProblemInstances, 1)

	ids, err := repo.ListInstances(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"PI_1"}, ids)
}

func TestDatasetRepository_NotFound(t *testing.T) {
	repo := NewDatasetRepository()

	_, err := repo.LoadDataset(context.Background(), "missing", nil)
	assert.True(t, errors.Is(err, repositories.ErrInstanceNotFound))

	assert.Error(t, repo.SaveDataset(context.Background(), &entities.Dataset{}))
}
