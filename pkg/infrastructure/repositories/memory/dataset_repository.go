package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/vsinha/clsp/pkg/domain/entities"
	"github.com/vsinha/clsp/pkg/domain/repositories"
)

// DatasetRepository provides in-memory dataset storage keyed by problem instance
type DatasetRepository struct {
	mu       sync.RWMutex
	datasets map[string]*entities.Dataset
}

// NewDatasetRepository creates a new in-memory dataset repository
func NewDatasetRepository() *DatasetRepository {
	return &DatasetRepository{
		datasets: make(map[string]*entities.Dataset),
	}
}

// Verify interface compliance
var (
	_ repositories.DatasetStore   = (*DatasetRepository)(nil)
	_ repositories.InstanceLister = (*DatasetRepository)(nil)
)

// SaveDataset stores a dataset, replacing any earlier one of the same instance
func (r *DatasetRepository) SaveDataset(ctx context.Context, dataset *entities.Dataset) error {
	if dataset == nil || dataset.ProblemInstanceID == "" {
		return fmt.Errorf("dataset without problem instance id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.datasets[dataset.ProblemInstanceID] = dataset
	return nil
}

// LoadDataset returns the stored dataset limited to the requested scenarios
func (r *DatasetRepository) LoadDataset(ctx context.Context, problemInstanceID string, scenarios []entities.ScenarioID) (*entities.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dataset, exists := r.datasets[problemInstanceID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", repositories.ErrInstanceNotFound, problemInstanceID)
	}
	return dataset.FilterScenarios(scenarios), nil
}

// ListInstances returns the stored problem instance ids in sorted order
func (r *DatasetRepository) ListInstances(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.datasets))
	for id := range r.datasets {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
