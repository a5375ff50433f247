package repositories

import (
	"context"
	"errors"

	"github.com/vsinha/clsp/pkg/domain/entities"
)

// DataProvider supplies the relation set of one problem instance. Problem
// instance relations are always complete; scenario relations are limited to
// the requested scenarios (all scenarios when none are requested).
type DataProvider interface {
	LoadDataset(ctx context.Context, problemInstanceID string, scenarios []entities.ScenarioID) (*entities.Dataset, error)
}

// DatasetStore is a DataProvider that also accepts datasets, used by the
// HTTP interface to stage submitted instances.
type DatasetStore interface {
	DataProvider
	SaveDataset(ctx context.Context, dataset *entities.Dataset) error
}

// ErrInstanceNotFound is returned when a provider has no data for a problem instance
var ErrInstanceNotFound = errors.New("problem instance not found")

// InstanceLister is implemented by providers able to enumerate their instances
type InstanceLister interface {
	ListInstances(ctx context.Context) ([]string, error)
}
