package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/vsinha/clsp/pkg/infrastructure/config"
)

// InstancesConfig holds configuration for listing problem instances
type InstancesConfig struct {
	SourceKind string
	SourcePath string
	Help       bool
	Out        io.Writer
}

// InstancesCommand prints the problem instances of a data source
type InstancesCommand struct {
	config InstancesConfig
}

func NewInstancesCommand(config InstancesConfig) *InstancesCommand {
	return &InstancesCommand{config: config}
}

// Execute runs the instances command
func (c *InstancesCommand) Execute(ctx context.Context) error {
	out := c.config.Out
	if out == nil {
		out = os.Stdout
	}
	if c.config.Help {
		fmt.Fprintf(out, `clsp instances - List the problem instances of a data source

USAGE:
    clsp instances -kind <csv|xlsx|sqlite> -source <path>
`)
		return nil
	}

	kind := c.config.SourceKind
	if kind == "" {
		kind = "csv"
	}
	provider, closeProvider, err := OpenProvider(config.Source{Kind: kind, Path: c.config.SourcePath})
	if err != nil {
		return fmt.Errorf("failed to open data source: %w", err)
	}
	defer closeProvider()

	ids, err := provider.ListInstances(ctx)
	if err != nil {
		return fmt.Errorf("failed to list problem instances: %w", err)
	}
	for _, id := range ids {
		fmt.Fprintln(out, id)
	}
	return nil
}
