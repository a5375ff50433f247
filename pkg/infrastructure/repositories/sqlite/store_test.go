package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/clsp/pkg/domain/entities"
	"github.com/vsinha/clsp/pkg/domain/repositories"
	"github.com/vsinha/clsp/pkg/infrastructure/repositories/tabular"

	testhelpers "github.com/vsinha/clsp/pkg/application/services/testing"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "instances.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	two := testhelpers.BuildTwoLevelDataset()
	single := testhelpers.BuildSingleMachineDataset(100)

	require.NoError(t, store.SaveDataset(ctx, two))
	require.NoError(t, store.SaveDataset(ctx, single))
	// saving again replaces the rows of the instance
	require.NoError(t, store.SaveDataset(ctx, two))

	got, err := store.LoadDataset(ctx, "PI_TWO_LEVEL", nil)
	require.NoError(t, err)
	assert.Equal(t, two, got)

	ids, err := store.ListInstances(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"PI_SINGLE", "PI_TWO_LEVEL"}, ids)

	_, err = store.LoadDataset(ctx, "PI_MISSING", nil)
	assert.ErrorIs(t, err, repositories.ErrInstanceNotFound)
}

func TestStore_SaveRequiresID(t *testing.T) {
	store := openStore(t)
	assert.Error(t, store.SaveDataset(context.Background(), &entities.Dataset{}))
}

func TestStore_ReadTypedView(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	_, err := store.db.Exec(`
		CREATE TABLE capacity_raw (problem_instance_id TEXT, scenario_id TEXT, machine_id TEXT, planning_period INTEGER, capacity_per_period REAL);
		INSERT INTO capacity_raw VALUES ('PI', 'S1', 'M1', 1, 7.5), ('PI', 'S1', 'M1', 2, NULL), ('OTHER', 'S1', 'M1', 1, 1);
		CREATE VIEW V_Capacity AS SELECT * FROM capacity_raw;
	`)
	require.NoError(t, err)

	table, err := store.ReadTable(ctx, tabular.TableCapacity, "PI")
	require.NoError(t, err)
	assert.Equal(t, tabular.Columns(tabular.TableCapacity), table.Header)
	assert.Equal(t, [][]string{
		{"PI", "S1", "M1", "1", "7.5"},
		{"PI", "S1", "M1", "2", ""},
	}, table.Rows)

	all, err := store.ReadTable(ctx, tabular.TableCapacity, "")
	require.NoError(t, err)
	assert.Len(t, all.Rows, 3)
}

func TestStore_MissingView(t *testing.T) {
	store := openStore(t)

	_, err := store.ReadTable(context.Background(), tabular.TableCapacity, "PI")
	assert.ErrorIs(t, err, tabular.ErrTableNotFound)

	_, err = store.LoadDataset(context.Background(), "PI", nil)
	assert.ErrorIs(t, err, entities.ErrDataIncomplete)
}
