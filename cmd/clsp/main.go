package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vsinha/clsp/pkg/interfaces/cli/commands"
)

type command interface {
	Execute(ctx context.Context) error
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, err := parse(os.Args[1], os.Args[2:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parse(name string, args []string) (command, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)

	switch name {
	case "solve":
		var config commands.Config
		fs.StringVar(&config.ConfigFile, "config", "", "HCL run file")
		fs.StringVar(&config.SourceKind, "kind", "", "Source kind: csv, xlsx, sqlite")
		fs.StringVar(&config.SourcePath, "source", "", "CSV directory, workbook or database file")
		fs.StringVar(&config.Instance, "instance", "", "Problem instance to solve")
		fs.StringVar(&config.Scenarios, "scenarios", "", "Comma separated scenarios (default: all)")
		fs.DurationVar(&config.TimeBudget, "time-budget", 0, "Wall-clock budget including model build")
		fs.IntVar(&config.MaxNodes, "max-nodes", 0, "Branch-and-bound node limit")
		fs.StringVar(&config.Format, "format", "", "Output format: text, json, csv, xlsx, svg")
		fs.StringVar(&config.OutputDir, "output", "", "Output directory for results (optional)")
		fs.StringVar(&config.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
		fs.StringVar(&config.LogFormat, "log-format", "", "Log format: text, json")
		fs.BoolVar(&config.Verbose, "verbose", false, "Enable verbose output")
		fs.BoolVar(&config.Help, "help", false, "Show help message")
		fs.Parse(args)
		return commands.NewSolveCommand(config), nil

	case "generate":
		var config commands.GenerateConfig
		fs.StringVar(&config.Instance, "instance", "", "Problem instance id")
		fs.StringVar(&config.Output, "output", "", "CSV directory, workbook or database file")
		fs.StringVar(&config.Kind, "kind", "csv", "Writer: csv, xlsx, sqlite")
		fs.IntVar(&config.Products, "products", 6, "Manufactured products")
		fs.IntVar(&config.MaxDepth, "depth", 2, "BOM levels")
		fs.IntVar(&config.Machines, "machines", 2, "Machines")
		fs.IntVar(&config.Periods, "periods", 6, "Planning periods")
		fs.IntVar(&config.Scenarios, "scenarios", 2, "Demand scenarios")
		fs.Float64Var(&config.Utilization, "utilization", 0.8, "Target machine load")
		fs.Int64Var(&config.Seed, "seed", 0, "Random seed (0 = time-based)")
		fs.BoolVar(&config.Verbose, "verbose", false, "Enable verbose output")
		fs.BoolVar(&config.Help, "help", false, "Show help message")
		fs.Parse(args)
		return commands.NewGenerateCommand(config), nil

	case "instances":
		var config commands.InstancesConfig
		fs.StringVar(&config.SourceKind, "kind", "csv", "Source kind: csv, xlsx, sqlite")
		fs.StringVar(&config.SourcePath, "source", "", "CSV directory, workbook or database file")
		fs.BoolVar(&config.Help, "help", false, "Show help message")
		fs.Parse(args)
		return commands.NewInstancesCommand(config), nil

	case "serve":
		var config commands.ServeConfig
		fs.StringVar(&config.ConfigFile, "config", "", "HCL run file")
		fs.StringVar(&config.SourceKind, "kind", "", "Source kind: csv, xlsx, sqlite")
		fs.StringVar(&config.SourcePath, "source", "", "CSV directory, workbook or database file")
		fs.StringVar(&config.Address, "address", "", "Listen address (default: :8080)")
		fs.StringVar(&config.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
		fs.StringVar(&config.LogFormat, "log-format", "", "Log format: text, json")
		fs.BoolVar(&config.Help, "help", false, "Show help message")
		fs.Parse(args)
		return commands.NewServeCommand(config), nil

	case "help", "-help", "--help", "-h":
		usage()
		os.Exit(0)
	}
	return nil, fmt.Errorf("unknown command %q", name)
}

func usage() {
	fmt.Fprint(os.Stderr, `clsp - Multi-level capacitated lot-sizing

USAGE:
    clsp <command> [options]

COMMANDS:
    solve       Solve one problem instance and write a report
    generate    Write a random problem instance
    instances   List the problem instances of a data source
    serve       Serve the planning API over HTTP

Run 'clsp <command> -help' for the options of a command.
`)
}
