package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/vsinha/clsp/pkg/application/services"
	"github.com/vsinha/clsp/pkg/domain/entities"
	"github.com/vsinha/clsp/pkg/infrastructure/config"
	"github.com/vsinha/clsp/pkg/infrastructure/ctxlog"
	"github.com/vsinha/clsp/pkg/infrastructure/solver/branchbound"
	"github.com/vsinha/clsp/pkg/interfaces/cli/output"
)

// Config holds configuration for the solve command. Zero values leave the
// run file (or the defaults) in effect.
type Config struct {
	ConfigFile string
	SourceKind string
	SourcePath string
	Instance   string
	Scenarios  string // comma separated
	TimeBudget time.Duration
	MaxNodes   int
	Format     string
	OutputDir  string
	LogLevel   string
	LogFormat  string
	Verbose    bool
	Help       bool

	// Out receives reports, os.Stdout when nil
	Out io.Writer
	// LogOut receives log records, os.Stderr when nil
	LogOut io.Writer
}

// SolveCommand loads a problem instance, solves it and writes the report
type SolveCommand struct {
	config Config
}

// NewSolveCommand creates a new solve command with the given configuration
func NewSolveCommand(config Config) *SolveCommand {
	return &SolveCommand{
		config: config,
	}
}

// Execute runs the solve command
func (c *SolveCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	cfg, err := c.resolve(ctx)
	if err != nil {
		return err
	}
	if cfg.ProblemInstance == "" {
		return &entities.ConfigurationError{Field: "problem_instance", Reason: "no problem instance given"}
	}

	logger := ctxlog.New(cfg.Log.Level, cfg.Log.Format, c.logOut())
	ctx = ctxlog.WithLogger(ctx, logger)

	provider, closeProvider, err := OpenProvider(cfg.Source)
	if err != nil {
		return fmt.Errorf("failed to open data source: %w", err)
	}
	defer closeProvider()

	if c.config.Verbose {
		c.printHeader(cfg)
	}

	solver := branchbound.New(branchbound.Options{
		MaxNodes:             cfg.Solver.MaxNodes,
		IntegralityTolerance: cfg.Solver.IntegralityTolerance,
		Penalty:              cfg.Solver.Penalty,
	})
	service := services.NewPlanningServiceWithConfig(solver, services.EngineConfig{
		TimeBudget:       cfg.Solver.TimeBudget,
		IncludeBuildTime: true,
	})

	startTime := time.Now()
	report, err := service.Plan(ctx, provider, cfg.ProblemInstance, cfg.Scenarios)
	if err != nil {
		return err
	}
	logger.Info("Planning run finished.",
		"problem_instance", cfg.ProblemInstance,
		"status", report.Status,
		"elapsed", time.Since(startTime))

	err = output.Generate(report, output.Config{
		Format:    cfg.Output.Format,
		OutputDir: cfg.Output.Dir,
		Verbose:   c.config.Verbose,
		Out:       c.config.Out,
	})
	if err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}
	return nil
}

// resolve layers flags over the run file over the defaults
func (c *SolveCommand) resolve(ctx context.Context) (*config.Config, error) {
	cfg := config.Default()
	if c.config.ConfigFile != "" {
		loaded, err := config.Load(ctx, c.config.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	override(&cfg.Source.Kind, c.config.SourceKind)
	override(&cfg.Source.Path, c.config.SourcePath)
	override(&cfg.ProblemInstance, c.config.Instance)
	override(&cfg.Output.Format, c.config.Format)
	override(&cfg.Output.Dir, c.config.OutputDir)
	override(&cfg.Log.Level, c.config.LogLevel)
	override(&cfg.Log.Format, c.config.LogFormat)
	if c.config.TimeBudget != 0 {
		cfg.Solver.TimeBudget = c.config.TimeBudget
	}
	if c.config.MaxNodes != 0 {
		cfg.Solver.MaxNodes = c.config.MaxNodes
	}
	if scenarios := ParseScenarios(c.config.Scenarios); len(scenarios) > 0 {
		cfg.Scenarios = scenarios
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// ParseScenarios splits a comma separated scenario list, dropping blanks
func ParseScenarios(s string) []entities.ScenarioID {
	var out []entities.ScenarioID
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, entities.ScenarioID(part))
		}
	}
	return out
}

func (c *SolveCommand) out() io.Writer {
	if c.config.Out == nil {
		return os.Stdout
	}
	return c.config.Out
}

func (c *SolveCommand) logOut() io.Writer {
	if c.config.LogOut == nil {
		return os.Stderr
	}
	return c.config.LogOut
}

// printHeader prints the resolved run parameters
func (c *SolveCommand) printHeader(cfg *config.Config) {
	w := c.out()
	fmt.Fprintf(w, "CLSP Planning CLI\n")
	fmt.Fprintf(w, "Problem instance: %s\n", cfg.ProblemInstance)
	fmt.Fprintf(w, "Source: %s %s\n", cfg.Source.Kind, cfg.Source.Path)
	if len(cfg.Scenarios) > 0 {
		fmt.Fprintf(w, "Scenarios: %v\n", cfg.Scenarios)
	} else {
		fmt.Fprintf(w, "Scenarios: all\n")
	}
	fmt.Fprintf(w, "Time budget: %v\n", cfg.Solver.TimeBudget)
	fmt.Fprintf(w, "Output format: %s\n", cfg.Output.Format)
	if cfg.Output.Dir != "" {
		fmt.Fprintf(w, "Output directory: %s\n", cfg.Output.Dir)
	}
	fmt.Fprintln(w)
}

// showHelp displays the help message
func (c *SolveCommand) showHelp() {
	fmt.Fprintf(c.out(), `clsp solve - Capacitated lot-sizing for one problem instance

USAGE:
    clsp solve -source <path> -instance <id> [options]
    clsp solve -config run.hcl [options]

OPTIONS:
    -config <file>      HCL run file; flags override its values
    -kind <kind>        Source kind: csv, xlsx, sqlite (default: csv)
    -source <path>      CSV directory, workbook or database file
    -instance <id>      Problem instance to solve
    -scenarios <list>   Comma separated scenarios (default: all)
    -time-budget <d>    Wall-clock budget including model build (default: 100s)
    -max-nodes <n>      Branch-and-bound node limit
    -format <fmt>       Output format: text, json, csv, xlsx, svg (default: text)
    -output <dir>       Output directory for results (optional)
    -log-level <lvl>    debug, info, warn, error (default: info)
    -log-format <fmt>   text or json (default: text)
    -verbose            Enable verbose output
    -help               Show this help message

SOURCE LAYOUT:
    One relation per CSV file, worksheet or V_<Relation> view, each with a
    problem_instance_id column: ProblemInstance, Material, MaterialType,
    PlanningPeriod, Capacity, PrimaryDemand, MaterialCost, SetupMatrix,
    Production, ProductStructures, ProductToLine, InitialLotSizingValues,
    InitialLinkedLotSizingValues and MaxProductionQuantity (optional).

EXAMPLES:
    # Solve every scenario of PI_001
    clsp solve -source data/pi_001 -instance PI_001

    # Two scenarios from a database, JSON report
    clsp solve -kind sqlite -source planning.db -instance PI_001 -scenarios S1,S2 -format json -output results/
`)
}
