package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/vsinha/clsp/pkg/application/services"
	"github.com/vsinha/clsp/pkg/infrastructure/ctxlog"
	"github.com/vsinha/clsp/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/clsp/pkg/infrastructure/solver/branchbound"
	"github.com/vsinha/clsp/pkg/interfaces/cli/commands"
	"github.com/vsinha/clsp/pkg/interfaces/cli/output"
)

func main() {
	ctx := ctxlog.WithLogger(context.Background(), ctxlog.New("warn", "text", os.Stderr))

	// A small two-level plant with two demand scenarios
	generator := commands.NewGenerateCommand(commands.GenerateConfig{
		Instance:    "PI_EXAMPLE",
		Products:    4,
		MaxDepth:    2,
		Machines:    2,
		Periods:     4,
		Scenarios:   2,
		Utilization: 0.7,
		Seed:        2025,
	})
	ds, err := generator.Generate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	repo := memory.NewDatasetRepository()
	if err := repo.SaveDataset(ctx, ds); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	service := services.NewPlanningServiceWithConfig(branchbound.New(branchbound.Options{}), services.EngineConfig{
		TimeBudget:       30 * time.Second,
		IncludeBuildTime: true,
	})

	fmt.Println("Planning PI_EXAMPLE over both scenarios...")
	report, err := service.Plan(ctx, repo, "PI_EXAMPLE", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := output.Generate(report, output.Config{Format: "text"}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
