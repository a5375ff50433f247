package testing

import (
	"context"
	"time"

	"github.com/vsinha/clsp/pkg/domain/entities"
	"github.com/vsinha/clsp/pkg/domain/services/bigm"
	"github.com/vsinha/clsp/pkg/infrastructure/repositories/memory"
)

// InstanceBuilder assembles consistent datasets for tests. Every parameter
// relation is filled for every combination the model references.
type InstanceBuilder struct {
	ds        *entities.Dataset
	machines  []entities.MachineID
	products  []entities.ProductID
	scenarios []entities.ScenarioID
	periods   int
}

// NewInstanceBuilder starts a dataset with the given horizon and scenarios
func NewInstanceBuilder(id string, periods int, scenarios ...entities.ScenarioID) *InstanceBuilder {
	b := &InstanceBuilder{
		ds:        &entities.Dataset{ProblemInstanceID: id},
		scenarios: scenarios,
		periods:   periods,
	}
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	for t := 1; t <= periods; t++ {
		b.ds.PlanningPeriods = append(b.ds.PlanningPeriods, entities.PlanningPeriodRow{
			Period:       entities.Period(t),
			PlanningDate: start.AddDate(0, 0, 7*(t-1)),
		})
	}
	for _, s := range scenarios {
		b.ds.ProblemInstances = append(b.ds.ProblemInstances, entities.ProblemInstanceRow{
			ProblemInstanceID:   id,
			ProblemInstanceName: "Test instance " + id,
			Scenario:            s,
			ScenarioName:        "Scenario " + string(s),
		})
	}
	return b
}

// Machine adds a machine with constant capacity in every scenario and period
func (b *InstanceBuilder) Machine(m entities.MachineID, capacity float64) *InstanceBuilder {
	b.machines = append(b.machines, m)
	for _, s := range b.scenarios {
		for t := 1; t <= b.periods; t++ {
			b.ds.Capacities = append(b.ds.Capacities, entities.CapacityRow{Scenario: s, Machine: m, Period: entities.Period(t), Capacity: capacity})
		}
	}
	return b
}

// Product adds a manufactured product with zero demand, zero initial state
// and constant holding and backorder cost.
func (b *InstanceBuilder) Product(p entities.ProductID, uom string, typ entities.MaterialType, holding, backorder float64) *InstanceBuilder {
	b.products = append(b.products, p)
	b.ds.Materials = append(b.ds.Materials, entities.MaterialRow{Product: p, BaseUOM: uom, Currency: "EUR"})
	b.ds.MaterialTypes = append(b.ds.MaterialTypes, entities.MaterialTypeRow{Product: p, BaseUOM: uom, Currency: "EUR", Type: typ})
	for t := 1; t <= b.periods; t++ {
		b.ds.MaterialCosts = append(b.ds.MaterialCosts, entities.MaterialCostRow{Product: p, Period: entities.Period(t), InventoryHolding: holding, Backorder: backorder})
		for _, s := range b.scenarios {
			b.ds.Demands = append(b.ds.Demands, entities.DemandRow{Scenario: s, Product: p, Period: entities.Period(t)})
		}
	}
	for _, s := range b.scenarios {
		b.ds.InitialLotSizingValues = append(b.ds.InitialLotSizingValues, entities.InitialLotSizingRow{Scenario: s, Product: p})
	}
	return b
}

// RawMaterial adds a purchased material that is only consumed
func (b *InstanceBuilder) RawMaterial(p entities.ProductID, uom string) *InstanceBuilder {
	b.ds.MaterialTypes = append(b.ds.MaterialTypes, entities.MaterialTypeRow{Product: p, BaseUOM: uom, Currency: "EUR", Type: entities.RawMaterial})
	return b
}

// Route allows p on m with constant coefficients in every period
func (b *InstanceBuilder) Route(m entities.MachineID, p entities.ProductID, leadTime int, productionTime, setupTime, setupCost float64) *InstanceBuilder {
	b.ds.ProductToLine = append(b.ds.ProductToLine, entities.ProductToLineRow{Machine: m, Product: p})
	for t := 1; t <= b.periods; t++ {
		period := entities.Period(t)
		b.ds.Production = append(b.ds.Production, entities.ProductionRow{Machine: m, Product: p, Period: period, LeadTime: leadTime, ProductionTime: productionTime})
		b.ds.SetupMatrix = append(b.ds.SetupMatrix, entities.SetupRow{Machine: m, Product: p, Period: period, SetupTime: setupTime, SetupCost: setupCost})
	}
	for _, s := range b.scenarios {
		b.ds.InitialLinkedLotSizingValues = append(b.ds.InitialLinkedLotSizingValues, entities.InitialLinkedLotSizingRow{Scenario: s, Machine: m, Product: p})
	}
	return b
}

// Consume records that receiver consumes ratio units of issuer in every period
func (b *InstanceBuilder) Consume(receiver, issuer entities.ProcessNode, ratio float64) *InstanceBuilder {
	for t := 1; t <= b.periods; t++ {
		b.ds.ProductStructures = append(b.ds.ProductStructures, entities.ProductStructureRow{
			ReceivingMachine: receiver.Machine,
			Received:         receiver.Product,
			IssuingMachine:   issuer.Machine,
			Issued:           issuer.Product,
			Period:           entities.Period(t),
			Alternative:      1,
			Ratio:            ratio,
		})
	}
	return b
}

// Demand sets the primary demand of a product in one scenario and period
func (b *InstanceBuilder) Demand(s entities.ScenarioID, p entities.ProductID, t entities.Period, qty float64) *InstanceBuilder {
	for i := range b.ds.Demands {
		r := &b.ds.Demands[i]
		if r.Scenario == s && r.Product == p && r.Period == t {
			r.Quantity = qty
			return b
		}
	}
	b.ds.Demands = append(b.ds.Demands, entities.DemandRow{Scenario: s, Product: p, Period: t, Quantity: qty})
	return b
}

// Build derives the Big-M relation and returns the dataset
func (b *InstanceBuilder) Build() *entities.Dataset {
	b.ds.MaxProductionQuantities = bigm.Derive(b.ds)
	return b.ds
}

// BuildSingleMachineDataset is one machine making A and B (no BOM relation)
// over three periods and one scenario, with 10 units of A demanded in period 3.
func BuildSingleMachineDataset(capacity float64) *entities.Dataset {
	return NewInstanceBuilder("PI_SINGLE", 3, "S1").
		Machine("M1", capacity).
		Product("A", "PC", entities.FinishedGood, 1, 10).
		Product("B", "PC", entities.FinishedGood, 1, 10).
		Route("M1", "A", 0, 1, 0, 50).
		Route("M1", "B", 0, 1, 0, 50).
		Demand("S1", "A", 3, 10).
		Build()
}

// BuildTwoLevelDataset is a finished good assembled from two units of an
// intermediate pressed from a raw material, over four periods and two scenarios.
func BuildTwoLevelDataset() *entities.Dataset {
	fg := entities.ProcessNode{Machine: "ASSEMBLY", Product: "FG"}
	part := entities.ProcessNode{Machine: "PRESS", Product: "INT"}
	raw := entities.ProcessNode{Machine: "SUPPLIER", Product: "RM"}

	return NewInstanceBuilder("PI_TWO_LEVEL", 4, "S1", "S2").
		Machine("ASSEMBLY", 100).
		Machine("PRESS", 100).
		Product("FG", "PC", entities.FinishedGood, 1, 10).
		Product("INT", "KG", entities.Intermediate, 1, 10).
		RawMaterial("RM", "KG").
		Route("ASSEMBLY", "FG", 1, 1, 0, 20).
		Route("PRESS", "INT", 0, 1, 0, 10).
		Consume(fg, part, 2).
		Consume(part, raw, 1).
		Demand("S1", "FG", 4, 5).
		Demand("S2", "FG", 4, 3).
		Build()
}

// BuildTestRepository stores the datasets in a memory repository
func BuildTestRepository(datasets ...*entities.Dataset) *memory.DatasetRepository {
	repo := memory.NewDatasetRepository()
	for _, ds := range datasets {
		if err := repo.SaveDataset(context.Background(), ds); err != nil {
			panic(err)
		}
	}
	return repo
}
