package commands

import (
	"fmt"

	"github.com/vsinha/clsp/pkg/domain/repositories"
	"github.com/vsinha/clsp/pkg/infrastructure/config"
	"github.com/vsinha/clsp/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/clsp/pkg/infrastructure/repositories/sqlite"
	"github.com/vsinha/clsp/pkg/infrastructure/repositories/xlsx"
)

// Provider is a data provider able to enumerate its problem instances
type Provider interface {
	repositories.DataProvider
	repositories.InstanceLister
}

// OpenProvider opens the configured data source. The returned close function
// is never nil.
func OpenProvider(source config.Source) (Provider, func() error, error) {
	noop := func() error { return nil }
	if source.Path == "" {
		return nil, noop, fmt.Errorf("no %s source path given", source.Kind)
	}

	switch source.Kind {
	case "csv":
		return csv.NewDataProvider(source.Path), noop, nil
	case "xlsx":
		return xlsx.NewDataProvider(source.Path), noop, nil
	case "sqlite":
		store, err := sqlite.Open(source.Path)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	default:
		return nil, noop, fmt.Errorf("unsupported source kind: %s", source.Kind)
	}
}
