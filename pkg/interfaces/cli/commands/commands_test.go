package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/clsp/pkg/domain/entities"
	"github.com/vsinha/clsp/pkg/domain/repositories"
	"github.com/vsinha/clsp/pkg/domain/services/bom_validator"
	"github.com/vsinha/clsp/pkg/infrastructure/config"
	"github.com/vsinha/clsp/pkg/infrastructure/repositories/csv"

	testhelpers "github.com/vsinha/clsp/pkg/application/services/testing"
)

func writeSingleMachineInstance(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, csv.WriteDataset(dir, testhelpers.BuildSingleMachineDataset(100)))
	return dir
}

func TestParseScenarios(t *testing.T) {
	assert.Equal(t, []entities.ScenarioID{"S1", "S2"}, ParseScenarios(" S1, ,S2,"))
	assert.Empty(t, ParseScenarios(""))
}

func TestSolveCommand_JSONReport(t *testing.T) {
	dir := writeSingleMachineInstance(t)

	var out bytes.Buffer
	cmd := NewSolveCommand(Config{
		SourcePath: dir,
		Instance:   "PI_SINGLE",
		Format:     "json",
		LogLevel:   "error",
		Out:        &out,
		LogOut:     io.Discard,
	})
	require.NoError(t, cmd.Execute(context.Background()))

	var report map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, "PI_SINGLE", report["problem_instance_id"])
	assert.Equal(t, "optimal solution cost 50 found", report["message"])
}

func TestSolveCommand_RunFileAndOverrides(t *testing.T) {
	dir := writeSingleMachineInstance(t)
	outDir := t.TempDir()

	runFile := filepath.Join(t.TempDir(), "run.hcl")
	src := `
problem_instance = "PI_OTHER"

source {
  kind = "csv"
  path = "` + filepath.ToSlash(dir) + `"
}

output {
  format = "text"
}
`
	require.NoError(t, os.WriteFile(runFile, []byte(src), 0o644))

	cmd := NewSolveCommand(Config{
		ConfigFile: runFile,
		Instance:   "PI_SINGLE",
		Scenarios:  "S1",
		Format:     "csv",
		OutputDir:  outDir,
		LogOut:     io.Discard,
		Out:        io.Discard,
	})

	cfg, err := cmd.resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "PI_SINGLE", cfg.ProblemInstance)
	assert.Equal(t, config.Source{Kind: "csv", Path: filepath.ToSlash(dir)}, cfg.Source)
	assert.Equal(t, []entities.ScenarioID{"S1"}, cfg.Scenarios)
	assert.Equal(t, "csv", cfg.Output.Format)

	require.NoError(t, cmd.Execute(context.Background()))
	assert.FileExists(t, filepath.Join(outDir, "summary.csv"))
	assert.FileExists(t, filepath.Join(outDir, "production_lots.csv"))
}

func TestSolveCommand_Errors(t *testing.T) {
	dir := writeSingleMachineInstance(t)
	ctx := context.Background()

	err := NewSolveCommand(Config{SourcePath: dir, LogOut: io.Discard}).Execute(ctx)
	assert.True(t, errors.Is(err, entities.ErrConfiguration), err)

	err = NewSolveCommand(Config{SourcePath: dir, Instance: "PI_SINGLE", Format: "pdf", LogOut: io.Discard}).Execute(ctx)
	assert.True(t, errors.Is(err, entities.ErrConfiguration), err)

	err = NewSolveCommand(Config{SourcePath: dir, Instance: "PI_MISSING", LogOut: io.Discard}).Execute(ctx)
	assert.True(t, errors.Is(err, repositories.ErrInstanceNotFound), err)

	err = NewSolveCommand(Config{SourcePath: dir, Instance: "PI_SINGLE", Scenarios: "S9", LogOut: io.Discard}).Execute(ctx)
	assert.True(t, errors.Is(err, entities.ErrConfiguration), err)

	err = NewSolveCommand(Config{Instance: "PI_SINGLE", LogOut: io.Discard}).Execute(ctx)
	assert.Error(t, err)
}

func TestSolveCommand_Help(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, NewSolveCommand(Config{Help: true, Out: &out}).Execute(context.Background()))
	assert.Contains(t, out.String(), "clsp solve")
}

func generateConfig(output string) GenerateConfig {
	return GenerateConfig{
		Instance:    "PI_RANDOM",
		Products:    5,
		MaxDepth:    2,
		Machines:    2,
		Periods:     4,
		Scenarios:   2,
		Utilization: 0.8,
		Output:      output,
		Seed:        42,
		Out:         io.Discard,
	}
}

func TestGenerateCommand_Deterministic(t *testing.T) {
	first, err := NewGenerateCommand(generateConfig("unused")).Generate()
	require.NoError(t, err)
	second, err := NewGenerateCommand(generateConfig("unused")).Generate()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerateCommand_Consistent(t *testing.T) {
	ds, err := NewGenerateCommand(generateConfig("unused")).Generate()
	require.NoError(t, err)

	assert.Len(t, ds.PlanningPeriods, 4)
	assert.Len(t, ds.ProblemInstances, 2)
	assert.Len(t, ds.Materials, 5)
	assert.Len(t, ds.MaterialCosts, 5*4)
	assert.Len(t, ds.Demands, 5*4*2)
	assert.Len(t, ds.InitialLotSizingValues, 5*2)
	assert.Len(t, ds.InitialLinkedLotSizingValues, len(ds.ProductToLine)*2)
	assert.NotEmpty(t, ds.MaxProductionQuantities)
	assert.True(t, bom_validator.ValidateBOM(ds.ProductStructures).Valid())

	for _, d := range ds.Demands {
		if d.Quantity > 0 {
			assert.True(t, strings.HasPrefix(string(d.Product), "FG"), d.Product)
		}
	}
	for _, c := range ds.Capacities {
		assert.GreaterOrEqual(t, c.Capacity, 10.0)
	}
}

func TestGenerateCommand_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GenerateConfig)
	}{
		{name: "no instance", mutate: func(c *GenerateConfig) { c.Instance = "" }},
		{name: "no output", mutate: func(c *GenerateConfig) { c.Output = "" }},
		{name: "no products", mutate: func(c *GenerateConfig) { c.Products = 0 }},
		{name: "too deep", mutate: func(c *GenerateConfig) { c.MaxDepth = 6 }},
		{name: "no utilization", mutate: func(c *GenerateConfig) { c.Utilization = 0 }},
		{name: "unknown kind", mutate: func(c *GenerateConfig) { c.Kind = "parquet" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := generateConfig(t.TempDir())
			tt.mutate(&cfg)
			err := NewGenerateCommand(cfg).Execute(context.Background())
			assert.True(t, errors.Is(err, entities.ErrConfiguration), err)
		})
	}
}

func TestGenerateThenList(t *testing.T) {
	ctx := context.Background()

	for _, kind := range []string{"csv", "xlsx", "sqlite"} {
		t.Run(kind, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "instance."+kind)
			cfg := generateConfig(path)
			cfg.Kind = kind
			require.NoError(t, NewGenerateCommand(cfg).Execute(ctx))

			var out bytes.Buffer
			require.NoError(t, NewInstancesCommand(InstancesConfig{SourceKind: kind, SourcePath: path, Out: &out}).Execute(ctx))
			assert.Equal(t, "PI_RANDOM\n", out.String())

			provider, closeProvider, err := OpenProvider(config.Source{Kind: kind, Path: path})
			require.NoError(t, err)
			defer closeProvider()

			ds, err := provider.LoadDataset(ctx, "PI_RANDOM", []entities.ScenarioID{"S2"})
			require.NoError(t, err)
			assert.Len(t, ds.ProblemInstances, 1)
			assert.Len(t, ds.PlanningPeriods, 4)
		})
	}
}

func TestOpenProvider_Errors(t *testing.T) {
	_, closeProvider, err := OpenProvider(config.Source{Kind: "csv"})
	assert.Error(t, err)
	assert.NoError(t, closeProvider())

	_, _, err = OpenProvider(config.Source{Kind: "parquet", Path: "x"})
	assert.Error(t, err)
}

func TestServeCommand(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, NewServeCommand(ServeConfig{Help: true, Out: &out}).Execute(context.Background()))
	assert.Contains(t, out.String(), "clsp serve")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewServeCommand(ServeConfig{
		SourcePath: writeSingleMachineInstance(t),
		Address:    "127.0.0.1:0",
		LogLevel:   "error",
	}).Execute(ctx)
	assert.NoError(t, err)

	err = NewServeCommand(ServeConfig{SourceKind: "parquet", SourcePath: "x"}).Execute(context.Background())
	assert.True(t, errors.Is(err, entities.ErrConfiguration), err)
}
