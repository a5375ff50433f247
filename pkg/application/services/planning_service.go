package services

import (
	"context"
	"fmt"
	"time"

	"github.com/vsinha/clsp/pkg/application/dto"
	"github.com/vsinha/clsp/pkg/application/services/interpretation"
	"github.com/vsinha/clsp/pkg/application/services/lotsizing"
	"github.com/vsinha/clsp/pkg/application/services/normalization"
	"github.com/vsinha/clsp/pkg/domain/entities"
	"github.com/vsinha/clsp/pkg/domain/repositories"
	"github.com/vsinha/clsp/pkg/infrastructure/ctxlog"
	"github.com/vsinha/clsp/pkg/mip"
)

// minSolveBudget is handed to the solver when model construction already
// used up the whole time budget
const minSolveBudget = time.Millisecond

// EngineConfig holds configuration for a planning run
type EngineConfig struct {
	// TimeBudget is the wall-clock budget of one run, zero for no limit
	TimeBudget time.Duration
	// IncludeBuildTime charges model construction against TimeBudget
	IncludeBuildTime bool
}

// PlanningService runs normalization, model construction, optimization and
// interpretation for one problem instance
type PlanningService struct {
	config      EngineConfig
	solver      mip.Solver
	normalizer  *normalization.Normalizer
	interpreter *interpretation.Interpreter
}

// NewPlanningService creates a planning service with default configuration
func NewPlanningService(solver mip.Solver) *PlanningService {
	return NewPlanningServiceWithConfig(solver, EngineConfig{
		TimeBudget:       100 * time.Second,
		IncludeBuildTime: true,
	})
}

// NewPlanningServiceWithConfig creates a planning service with custom configuration
func NewPlanningServiceWithConfig(solver mip.Solver, config EngineConfig) *PlanningService {
	return &PlanningService{
		config:      config,
		solver:      solver,
		normalizer:  normalization.NewNormalizer(),
		interpreter: interpretation.NewInterpreter(),
	}
}

// Plan loads the instance restricted to the given scenarios (all when
// empty) and solves it
func (s *PlanningService) Plan(
	ctx context.Context,
	provider repositories.DataProvider,
	problemInstanceID string,
	scenarios []entities.ScenarioID,
) (*dto.SolutionReport, error) {
	ds, err := provider.LoadDataset(ctx, problemInstanceID, scenarios)
	if err != nil {
		return nil, fmt.Errorf("failed to load problem instance %s: %w", problemInstanceID, err)
	}
	return s.PlanDataset(ctx, ds)
}

// PlanDataset solves an already loaded dataset
func (s *PlanningService) PlanDataset(ctx context.Context, ds *entities.Dataset) (*dto.SolutionReport, error) {
	logger := ctxlog.FromContext(ctx).With("problem_instance", ds.ProblemInstanceID)
	ctx = ctxlog.WithLogger(ctx, logger)

	model, err := s.Build(ctx, ds)
	if err != nil {
		return nil, err
	}

	if _, err := model.Solve(ctx, s.solver, s.solveBudget(model.BuildTime)); err != nil {
		return nil, err
	}
	return s.interpreter.Interpret(ctx, model)
}

// Build normalizes the dataset and constructs the model without solving it
func (s *PlanningService) Build(ctx context.Context, ds *entities.Dataset) (*lotsizing.Model, error) {
	data, err := s.normalizer.Normalize(ctx, ds)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize problem instance %s: %w", ds.ProblemInstanceID, err)
	}
	model, err := lotsizing.NewBuilder(data).Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build model for %s: %w", ds.ProblemInstanceID, err)
	}
	return model, nil
}

func (s *PlanningService) solveBudget(buildTime time.Duration) time.Duration {
	budget := s.config.TimeBudget
	if budget <= 0 || !s.config.IncludeBuildTime {
		return budget
	}
	if remaining := budget - buildTime; remaining > minSolveBudget {
		return remaining
	}
	return minSolveBudget
}
