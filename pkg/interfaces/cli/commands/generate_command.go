package commands

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/vsinha/clsp/pkg/domain/entities"
	"github.com/vsinha/clsp/pkg/domain/services/bigm"
	"github.com/vsinha/clsp/pkg/domain/services/bom_validator"
	"github.com/vsinha/clsp/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/clsp/pkg/infrastructure/repositories/sqlite"
	"github.com/vsinha/clsp/pkg/infrastructure/repositories/xlsx"
)

// supplierMachine issues every raw material
const supplierMachine entities.MachineID = "SUPPLIER"

// GenerateConfig holds configuration for problem instance generation
type GenerateConfig struct {
	Instance    string  // Problem instance id
	Products    int     // Number of manufactured products
	MaxDepth    int     // Number of BOM levels
	Machines    int     // Number of machines
	Periods     int     // Planning horizon
	Scenarios   int     // Number of demand scenarios
	Utilization float64 // Target average machine load, e.g. 0.8
	Kind        string  // csv, xlsx or sqlite
	Output      string  // CSV directory, workbook or database file
	Seed        int64   // Random seed for reproducible generation
	Help        bool    // Show help
	Verbose     bool    // Verbose output
	Out         io.Writer
}

// GenerateCommand handles problem instance generation
type GenerateCommand struct {
	config GenerateConfig
	faker  *gofakeit.Faker
}

// NewGenerateCommand creates a new generate command. A zero seed draws one
// from the clock.
func NewGenerateCommand(config GenerateConfig) *GenerateCommand {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if config.Kind == "" {
		config.Kind = "csv"
	}
	if config.Out == nil {
		config.Out = os.Stdout
	}

	return &GenerateCommand{
		config: config,
		faker:  gofakeit.New(seed),
	}
}

// productNode is one manufactured product of the generated BOM
type productNode struct {
	ID       entities.ProductID
	Level    int
	Machines []entities.MachineID
	Children []*productNode
	Ratios   []float64
	Raw      entities.ProductID
	PTime    float64
}

// Execute runs the generate command
func (cmd *GenerateCommand) Execute(ctx context.Context) error {
	if cmd.config.Help {
		cmd.printHelp()
		return nil
	}
	if err := cmd.validate(); err != nil {
		return err
	}

	if cmd.config.Verbose {
		fmt.Fprintf(cmd.config.Out,
			"Generating %s with %d products, %d levels, %d machines, %d periods, %d scenarios\n",
			cmd.config.Instance, cmd.config.Products, cmd.config.MaxDepth,
			cmd.config.Machines, cmd.config.Periods, cmd.config.Scenarios)
	}

	ds, err := cmd.Generate()
	if err != nil {
		return err
	}

	if err := cmd.write(ctx, ds); err != nil {
		return err
	}

	if cmd.config.Verbose {
		fmt.Fprintf(cmd.config.Out, "Problem instance %s written to %s\n", ds.ProblemInstanceID, cmd.config.Output)
	}
	return nil
}

func (cmd *GenerateCommand) validate() error {
	c := cmd.config
	switch {
	case c.Instance == "":
		return &entities.ConfigurationError{Field: "instance", Reason: "no problem instance id given"}
	case c.Output == "":
		return &entities.ConfigurationError{Field: "output", Reason: "no output path given"}
	case c.Products < 1 || c.MaxDepth < 1 || c.Machines < 1 || c.Periods < 1 || c.Scenarios < 1:
		return &entities.ConfigurationError{
			Field:  "generate",
			Value:  fmt.Sprintf("products=%d depth=%d machines=%d periods=%d scenarios=%d", c.Products, c.MaxDepth, c.Machines, c.Periods, c.Scenarios),
			Reason: "all sizes must be positive",
		}
	case c.MaxDepth > c.Products:
		return &entities.ConfigurationError{Field: "depth", Value: fmt.Sprint(c.MaxDepth), Reason: "needs at least one product per level"}
	case c.Utilization <= 0:
		return &entities.ConfigurationError{Field: "utilization", Value: fmt.Sprint(c.Utilization), Reason: "must be positive"}
	}
	return nil
}

// Generate builds a random but consistent dataset
func (cmd *GenerateCommand) Generate() (*entities.Dataset, error) {
	c := cmd.config
	ds := &entities.Dataset{ProblemInstanceID: c.Instance}

	scenarios := make([]entities.ScenarioID, c.Scenarios)
	name := cmd.faker.Company() + " plant"
	for i := range scenarios {
		scenarios[i] = entities.ScenarioID(fmt.Sprintf("S%d", i+1))
		ds.ProblemInstances = append(ds.ProblemInstances, entities.ProblemInstanceRow{
			ProblemInstanceID:   c.Instance,
			ProblemInstanceName: name,
			Scenario:            scenarios[i],
			ScenarioName:        fmt.Sprintf("Demand scenario %d", i+1),
		})
	}

	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	for t := 1; t <= c.Periods; t++ {
		ds.PlanningPeriods = append(ds.PlanningPeriods, entities.PlanningPeriodRow{
			Period:       entities.Period(t),
			PlanningDate: start.AddDate(0, 0, 7*(t-1)),
		})
	}

	machines := make([]entities.MachineID, c.Machines)
	for i := range machines {
		machines[i] = entities.MachineID(fmt.Sprintf("M%02d", i+1))
	}

	levels := cmd.generateBOMTree(machines)
	cmd.addMaterials(ds, levels)
	cmd.addRoutes(ds, levels, scenarios)
	cmd.addStructures(ds, levels)
	cmd.addDemand(ds, levels, scenarios)
	cmd.addCapacity(ds, levels, machines, scenarios)

	validation := bom_validator.ValidateBOM(ds.ProductStructures)
	if !validation.Valid() {
		return nil, fmt.Errorf("generated product structure is invalid: %s", strings.Join(validation.Errors, "; "))
	}

	ds.MaxProductionQuantities = bigm.Derive(ds)
	return ds, nil
}

// generateBOMTree places products on levels, level 0 holding the finished
// goods. Every product below level 0 has at least one parent.
func (cmd *GenerateCommand) generateBOMTree(machines []entities.MachineID) [][]*productNode {
	c := cmd.config
	levels := make([][]*productNode, c.MaxDepth)
	for i := 0; i < c.Products; i++ {
		level := i % c.MaxDepth
		prefix := "INT"
		if level == 0 {
			prefix = "FG"
		}
		node := &productNode{
			ID:    entities.ProductID(fmt.Sprintf("%s%03d", prefix, i+1)),
			Level: level,
			PTime: round2(cmd.faker.Float64Range(0.2, 1.5)),
		}

		first := cmd.faker.Number(0, len(machines)-1)
		node.Machines = []entities.MachineID{machines[first]}
		if len(machines) > 1 && cmd.faker.Number(1, 10) <= 3 {
			second := (first + cmd.faker.Number(1, len(machines)-1)) % len(machines)
			node.Machines = append(node.Machines, machines[second])
		}
		levels[level] = append(levels[level], node)
	}

	for l := 1; l < len(levels); l++ {
		for i, child := range levels[l] {
			parents := levels[l-1]
			cmd.link(parents[i%len(parents)], child)
			if len(parents) > 1 && cmd.faker.Bool() {
				cmd.link(parents[cmd.faker.Number(0, len(parents)-1)], child)
			}
		}
	}

	for i, node := range levels[len(levels)-1] {
		node.Raw = entities.ProductID(fmt.Sprintf("RM%03d", i+1))
	}
	return levels
}

func (cmd *GenerateCommand) link(parent, child *productNode) {
	for _, existing := range parent.Children {
		if existing == child {
			return
		}
	}
	parent.Children = append(parent.Children, child)
	parent.Ratios = append(parent.Ratios, float64(cmd.faker.Number(1, 3)))
}

func (cmd *GenerateCommand) addMaterials(ds *entities.Dataset, levels [][]*productNode) {
	for _, level := range levels {
		for _, node := range level {
			typ := entities.Intermediate
			if node.Level == 0 {
				typ = entities.FinishedGood
			}
			uom := cmd.faker.RandomString([]string{"PC", "KG", "M"})
			ds.Materials = append(ds.Materials, entities.MaterialRow{Product: node.ID, BaseUOM: uom, Currency: "EUR"})
			ds.MaterialTypes = append(ds.MaterialTypes, entities.MaterialTypeRow{Product: node.ID, BaseUOM: uom, Currency: "EUR", Type: typ})
			if node.Raw != "" {
				ds.MaterialTypes = append(ds.MaterialTypes, entities.MaterialTypeRow{Product: node.Raw, BaseUOM: "KG", Currency: "EUR", Type: entities.RawMaterial})
			}

			holding := round2(cmd.faker.Float64Range(0.5, 2) / float64(node.Level+1))
			for t := 1; t <= cmd.config.Periods; t++ {
				ds.MaterialCosts = append(ds.MaterialCosts, entities.MaterialCostRow{
					Product:          node.ID,
					Period:           entities.Period(t),
					InventoryHolding: holding,
					Backorder:        round2(holding * 10),
				})
			}
		}
	}
}

func (cmd *GenerateCommand) addRoutes(ds *entities.Dataset, levels [][]*productNode, scenarios []entities.ScenarioID) {
	for _, level := range levels {
		for _, node := range level {
			for _, s := range scenarios {
				ds.InitialLotSizingValues = append(ds.InitialLotSizingValues, entities.InitialLotSizingRow{Scenario: s, Product: node.ID})
			}
			for _, m := range node.Machines {
				ds.ProductToLine = append(ds.ProductToLine, entities.ProductToLineRow{Machine: m, Product: node.ID})
				leadTime := cmd.faker.Number(0, 1)
				setupTime := float64(cmd.faker.Number(0, 4))
				setupCost := float64(cmd.faker.Number(4, 40) * 5)
				for t := 1; t <= cmd.config.Periods; t++ {
					period := entities.Period(t)
					ds.Production = append(ds.Production, entities.ProductionRow{Machine: m, Product: node.ID, Period: period, LeadTime: leadTime, ProductionTime: node.PTime})
					ds.SetupMatrix = append(ds.SetupMatrix, entities.SetupRow{Machine: m, Product: node.ID, Period: period, SetupTime: setupTime, SetupCost: setupCost})
				}
				for _, s := range scenarios {
					ds.InitialLinkedLotSizingValues = append(ds.InitialLinkedLotSizingValues, entities.InitialLinkedLotSizingRow{Scenario: s, Machine: m, Product: node.ID})
				}
			}
		}
	}
}

// addStructures issues every component from its first machine
func (cmd *GenerateCommand) addStructures(ds *entities.Dataset, levels [][]*productNode) {
	add := func(receiver entities.MachineID, received entities.ProductID, issuer entities.MachineID, issued entities.ProductID, ratio float64) {
		for t := 1; t <= cmd.config.Periods; t++ {
			ds.ProductStructures = append(ds.ProductStructures, entities.ProductStructureRow{
				ReceivingMachine: receiver,
				Received:         received,
				IssuingMachine:   issuer,
				Issued:           issued,
				Period:           entities.Period(t),
				Alternative:      1,
				Ratio:            ratio,
			})
		}
	}

	for _, level := range levels {
		for _, node := range level {
			for _, m := range node.Machines {
				for i, child := range node.Children {
					add(m, node.ID, child.Machines[0], child.ID, node.Ratios[i])
				}
				if node.Raw != "" {
					add(m, node.ID, supplierMachine, node.Raw, 1)
				}
			}
		}
	}
}

// addDemand puts primary demand on finished goods only
func (cmd *GenerateCommand) addDemand(ds *entities.Dataset, levels [][]*productNode, scenarios []entities.ScenarioID) {
	for _, node := range levels[0] {
		base := float64(cmd.faker.Number(5, 50))
		for si, s := range scenarios {
			// later scenarios drift away from the first
			scale := 1 + 0.1*float64(si)*cmd.faker.Float64Range(-1, 1)
			for t := 1; t <= cmd.config.Periods; t++ {
				qty := 0.0
				if t > 1 && cmd.faker.Number(1, 10) <= 6 {
					qty = math.Round(base * scale * cmd.faker.Float64Range(0.5, 1.5))
				}
				ds.Demands = append(ds.Demands, entities.DemandRow{Scenario: s, Product: node.ID, Period: entities.Period(t), Quantity: qty})
			}
		}
	}
	for _, level := range levels[1:] {
		for _, node := range level {
			for _, s := range scenarios {
				for t := 1; t <= cmd.config.Periods; t++ {
					ds.Demands = append(ds.Demands, entities.DemandRow{Scenario: s, Product: node.ID, Period: entities.Period(t)})
				}
			}
		}
	}
}

// addCapacity sizes every machine so that the echelon load of the first
// scenario, spread over the horizon, meets the target utilization.
func (cmd *GenerateCommand) addCapacity(ds *entities.Dataset, levels [][]*productNode, machines []entities.MachineID, scenarios []entities.ScenarioID) {
	gross := make(map[*productNode]float64)
	for _, node := range levels[0] {
		for _, d := range ds.Demands {
			if d.Scenario == scenarios[0] && d.Product == node.ID {
				gross[node] += d.Quantity
			}
		}
	}
	for _, level := range levels {
		for _, node := range level {
			for i, child := range node.Children {
				gross[child] += gross[node] * node.Ratios[i]
			}
		}
	}

	load := make(map[entities.MachineID]float64)
	for _, level := range levels {
		for _, node := range level {
			load[node.Machines[0]] += gross[node] * node.PTime
		}
	}

	for _, m := range machines {
		perPeriod := load[m] / float64(cmd.config.Periods)
		capacity := math.Max(10, math.Ceil(perPeriod/cmd.config.Utilization))
		for _, s := range scenarios {
			for t := 1; t <= cmd.config.Periods; t++ {
				ds.Capacities = append(ds.Capacities, entities.CapacityRow{Scenario: s, Machine: m, Period: entities.Period(t), Capacity: capacity})
			}
		}
	}
}

// write stores the dataset with the configured writer
func (cmd *GenerateCommand) write(ctx context.Context, ds *entities.Dataset) error {
	switch cmd.config.Kind {
	case "csv":
		return csv.WriteDataset(cmd.config.Output, ds)
	case "xlsx":
		if err := os.MkdirAll(filepath.Dir(cmd.config.Output), 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		return xlsx.WriteDataset(cmd.config.Output, ds)
	case "sqlite":
		store, err := sqlite.Open(cmd.config.Output)
		if err != nil {
			return err
		}
		defer store.Close()
		return store.SaveDataset(ctx, ds)
	default:
		return &entities.ConfigurationError{Field: "kind", Value: cmd.config.Kind, Reason: "expected one of csv, xlsx, sqlite"}
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// printHelp displays usage information
func (cmd *GenerateCommand) printHelp() {
	fmt.Fprintln(cmd.config.Out, `clsp generate - Random lot-sizing problem instances

USAGE:
    clsp generate -instance <id> -output <path> [options]

OPTIONS:
    -instance <id>       Problem instance id
    -output <path>       CSV directory, workbook or database file
    -kind <kind>         Writer: csv, xlsx, sqlite (default: csv)
    -products <n>        Manufactured products (default: 6)
    -depth <n>           BOM levels (default: 2)
    -machines <n>        Machines (default: 2)
    -periods <n>         Planning periods (default: 6)
    -scenarios <n>       Demand scenarios (default: 2)
    -utilization <f>     Target machine load (default: 0.8)
    -seed <n>            Random seed for reproducible generation
    -verbose             Enable verbose output
    -help                Show this help message

EXAMPLES:
    clsp generate -instance PI_RANDOM -output data/pi_random -seed 42
    clsp generate -instance PI_BIG -kind sqlite -output planning.db -products 40 -depth 4 -machines 6`)
}
