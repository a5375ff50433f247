// Package config loads the HCL run configuration of a lot-sizing run.
//
// A run file looks like:
//
//	problem_instance = "PI_001"
//	scenarios        = ["S1", "S2"]
//
//	source {
//	  kind = "csv"
//	  path = "${env.DATA_DIR}/pi_001"
//	}
//
//	solver {
//	  time_budget = "100s"
//	}
package config

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vsinha/clsp/pkg/domain/entities"
	"github.com/vsinha/clsp/pkg/infrastructure/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// DefaultTimeBudget is the solver wall-clock budget when none is configured
const DefaultTimeBudget = 100 * time.Second

var (
	SourceKinds   = []string{"csv", "xlsx", "sqlite"}
	OutputFormats = []string{"text", "json", "csv", "xlsx", "svg"}
)

// Config is a fully resolved run configuration
type Config struct {
	ProblemInstance string
	Scenarios       []entities.ScenarioID
	Source          Source
	Solver          Solver
	Output          Output
	Log             Log
	Server          Server
}

type Source struct {
	Kind string
	Path string
}

type Solver struct {
	TimeBudget           time.Duration
	MaxNodes             int
	IntegralityTolerance float64
	Penalty              float64
}

type Output struct {
	Format string
	Dir    string
}

type Log struct {
	Level  string
	Format string
}

// Server configures the HTTP API. Solve requests are limited to
// RequestsPerSecond with bursts of Burst.
type Server struct {
	Address           string
	RequestsPerSecond float64
	Burst             int
}

// Default returns the configuration used when no run file is given
func Default() *Config {
	return &Config{
		Source: Source{Kind: "csv"},
		Solver: Solver{TimeBudget: DefaultTimeBudget},
		Output: Output{Format: "text"},
		Log:    Log{Level: "info", Format: "text"},
		Server: Server{Address: ":8080", RequestsPerSecond: 1, Burst: 2},
	}
}

type fileRoot struct {
	ProblemInstance *string      `hcl:"problem_instance,optional"`
	Scenarios       []string     `hcl:"scenarios,optional"`
	Source          *sourceBlock `hcl:"source,block"`
	Solver          *solverBlock `hcl:"solver,block"`
	Output          *outputBlock `hcl:"output,block"`
	Log             *logBlock    `hcl:"log,block"`
	Server          *serverBlock `hcl:"server,block"`
}

type sourceBlock struct {
	Kind *string `hcl:"kind,optional"`
	Path *string `hcl:"path,optional"`
}

type solverBlock struct {
	TimeBudget           *string  `hcl:"time_budget,optional"`
	MaxNodes             *int     `hcl:"max_nodes,optional"`
	IntegralityTolerance *float64 `hcl:"integrality_tolerance,optional"`
	Penalty              *float64 `hcl:"penalty,optional"`
}

type outputBlock struct {
	Format *string `hcl:"format,optional"`
	Dir    *string `hcl:"dir,optional"`
}

type logBlock struct {
	Level  *string `hcl:"level,optional"`
	Format *string `hcl:"format,optional"`
}

type serverBlock struct {
	Address           *string  `hcl:"address,optional"`
	RequestsPerSecond *float64 `hcl:"requests_per_second,optional"`
	Burst             *int     `hcl:"burst,optional"`
}

// Load reads and decodes a run file on top of the defaults
func Load(ctx context.Context, path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(ctx, src, path)
}

// Parse decodes HCL source on top of the defaults. Expressions may refer to
// environment variables as env.NAME.
func Parse(ctx context.Context, src []byte, filename string) (*Config, error) {
	logger := ctxlog.FromContext(ctx)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, evalContext(), &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	cfg := Default()
	if err := root.apply(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("Run configuration loaded.", "file", filename, "problem_instance", cfg.ProblemInstance, "source", cfg.Source.Kind)
	return cfg, nil
}

func (r *fileRoot) apply(cfg *Config) error {
	setString(&cfg.ProblemInstance, r.ProblemInstance)
	for _, s := range r.Scenarios {
		cfg.Scenarios = append(cfg.Scenarios, entities.ScenarioID(s))
	}

	if r.Source != nil {
		setString(&cfg.Source.Kind, r.Source.Kind)
		setString(&cfg.Source.Path, r.Source.Path)
	}
	if r.Solver != nil {
		if r.Solver.TimeBudget != nil {
			d, err := time.ParseDuration(*r.Solver.TimeBudget)
			if err != nil {
				return &entities.ConfigurationError{Field: "solver.time_budget", Value: *r.Solver.TimeBudget, Reason: err.Error()}
			}
			cfg.Solver.TimeBudget = d
		}
		if r.Solver.MaxNodes != nil {
			cfg.Solver.MaxNodes = *r.Solver.MaxNodes
		}
		if r.Solver.IntegralityTolerance != nil {
			cfg.Solver.IntegralityTolerance = *r.Solver.IntegralityTolerance
		}
		if r.Solver.Penalty != nil {
			cfg.Solver.Penalty = *r.Solver.Penalty
		}
	}
	if r.Output != nil {
		setString(&cfg.Output.Format, r.Output.Format)
		setString(&cfg.Output.Dir, r.Output.Dir)
	}
	if r.Log != nil {
		setString(&cfg.Log.Level, r.Log.Level)
		setString(&cfg.Log.Format, r.Log.Format)
	}
	if r.Server != nil {
		setString(&cfg.Server.Address, r.Server.Address)
		if r.Server.RequestsPerSecond != nil {
			cfg.Server.RequestsPerSecond = *r.Server.RequestsPerSecond
		}
		if r.Server.Burst != nil {
			cfg.Server.Burst = *r.Server.Burst
		}
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Validate checks enumerated fields and numeric ranges
func (c *Config) Validate() error {
	if !slices.Contains(SourceKinds, c.Source.Kind) {
		return &entities.ConfigurationError{Field: "source.kind", Value: c.Source.Kind, Reason: "expected one of " + strings.Join(SourceKinds, ", ")}
	}
	if !slices.Contains(OutputFormats, c.Output.Format) {
		return &entities.ConfigurationError{Field: "output.format", Value: c.Output.Format, Reason: "expected one of " + strings.Join(OutputFormats, ", ")}
	}
	if c.Solver.TimeBudget < 0 {
		return &entities.ConfigurationError{Field: "solver.time_budget", Value: c.Solver.TimeBudget.String(), Reason: "must not be negative"}
	}
	if c.Solver.MaxNodes < 0 {
		return &entities.ConfigurationError{Field: "solver.max_nodes", Value: fmt.Sprint(c.Solver.MaxNodes), Reason: "must not be negative"}
	}
	if c.Server.RequestsPerSecond <= 0 || c.Server.Burst < 1 {
		return &entities.ConfigurationError{
			Field:  "server",
			Value:  fmt.Sprintf("%g/s burst %d", c.Server.RequestsPerSecond, c.Server.Burst),
			Reason: "rate and burst must be positive",
		}
	}
	return nil
}

// evalContext exposes the process environment as env.*
func evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" || !hclIdentifier(name) {
			continue
		}
		vars[name] = cty.StringVal(value)
	}

	env := cty.EmptyObjectVal
	if len(vars) > 0 {
		env = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": env},
	}
}

func hclIdentifier(name string) bool {
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
