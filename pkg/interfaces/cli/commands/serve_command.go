package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/vsinha/clsp/pkg/application/services"
	"github.com/vsinha/clsp/pkg/infrastructure/config"
	"github.com/vsinha/clsp/pkg/infrastructure/ctxlog"
	"github.com/vsinha/clsp/pkg/infrastructure/solver/branchbound"
	"github.com/vsinha/clsp/pkg/interfaces/httpapi"
)

// ServeConfig holds configuration for the HTTP server command
type ServeConfig struct {
	ConfigFile string
	SourceKind string
	SourcePath string
	Address    string
	LogLevel   string
	LogFormat  string
	Help       bool
	Out        io.Writer
}

// ServeCommand serves the planning API until its context is cancelled
type ServeCommand struct {
	config ServeConfig
}

func NewServeCommand(config ServeConfig) *ServeCommand {
	return &ServeCommand{config: config}
}

// Execute runs the serve command
func (c *ServeCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		out := c.config.Out
		if out == nil {
			out = os.Stdout
		}
		fmt.Fprint(out, `clsp serve - Planning API over HTTP

USAGE:
    clsp serve -source <path> [-kind csv|xlsx|sqlite] [-address :8080]
    clsp serve -config run.hcl

Only sqlite sources accept PUT /api/v1/instances/:id.
`)
		return nil
	}

	cfg := config.Default()
	if c.config.ConfigFile != "" {
		loaded, err := config.Load(ctx, c.config.ConfigFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	override(&cfg.Source.Kind, c.config.SourceKind)
	override(&cfg.Source.Path, c.config.SourcePath)
	override(&cfg.Server.Address, c.config.Address)
	override(&cfg.Log.Level, c.config.LogLevel)
	override(&cfg.Log.Format, c.config.LogFormat)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := ctxlog.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	ctx = ctxlog.WithLogger(ctx, logger)

	provider, closeProvider, err := OpenProvider(cfg.Source)
	if err != nil {
		return fmt.Errorf("failed to open data source: %w", err)
	}
	defer closeProvider()

	solver := branchbound.New(branchbound.Options{
		MaxNodes:             cfg.Solver.MaxNodes,
		IntegralityTolerance: cfg.Solver.IntegralityTolerance,
		Penalty:              cfg.Solver.Penalty,
	})
	server := httpapi.NewServer(provider, solver, services.EngineConfig{
		TimeBudget:       cfg.Solver.TimeBudget,
		IncludeBuildTime: true,
	}, cfg.Server, logger)

	return server.ListenAndServe(ctx, cfg.Server.Address)
}
