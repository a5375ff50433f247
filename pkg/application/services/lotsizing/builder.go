package lotsizing

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/vsinha/clsp/pkg/domain/entities"
	"github.com/vsinha/clsp/pkg/infrastructure/ctxlog"
	"github.com/vsinha/clsp/pkg/mip"
)

// Builder constructs lot-sizing models from normalized planning data
type Builder struct {
	data *entities.PlanningData
}

// NewBuilder creates a builder over immutable planning data
func NewBuilder(data *entities.PlanningData) *Builder {
	return &Builder{data: data}
}

// Build creates a new model. Any parameter missing for a combination the
// model references aborts construction with a DataIncompleteError.
func (b *Builder) Build(ctx context.Context) (*Model, error) {
	logger := ctxlog.FromContext(ctx)
	start := time.Now()

	if len(b.data.Scenarios) == 0 {
		return nil, &entities.DataIncompleteError{Relation: "Scenario"}
	}
	if len(b.data.Periods) == 0 {
		return nil, &entities.DataIncompleteError{Relation: "PlanningPeriod"}
	}

	m := newModel(b.data)

	steps := []struct {
		name string
		fn   func(*Model) error
	}{
		{"variables", b.addVariables},
		{"objective", b.setObjective},
		{"boundary", b.addBoundaryConstraints},
		{"lead time", b.addLeadTimeConstraints},
		{"material balance", b.addMaterialBalance},
		{"capacity", b.addCapacityConstraints},
		{"setup activation", b.addSetupActivation},
		{"linked lot sizes", b.addLinkedLotSynchronization},
	}
	for _, step := range steps {
		if err := step.fn(m); err != nil {
			return nil, fmt.Errorf("failed to build %s: %w", step.name, err)
		}
	}

	m.BuildTime = time.Since(start)
	stats := m.MIP.Stats()
	logger.Info("Model built.",
		"model", m.MIP.Name,
		"variables", stats.Variables,
		"binary", stats.Binary,
		"integer", stats.Integer,
		"continuous", stats.Continuous,
		"constraints", stats.Constraints,
		"nonzeros", stats.NonZeros,
		"duration", m.BuildTime,
	)
	return m, nil
}

func (b *Builder) addVariables(m *Model) error {
	d := b.data
	inf := math.Inf(1)

	for _, s := range d.Scenarios {
		for _, p := range d.Products {
			domain, err := d.QuantityDomains.Get(p)
			if err != nil {
				return err
			}
			typ := mip.Continuous
			if domain == entities.Discrete {
				typ = mip.Integer
			}

			periods := append([]entities.Period{entities.BoundaryPeriod}, d.Periods...)
			for _, t := range periods {
				k := entities.ScenarioProductPeriod{Scenario: s, Product: p, Period: t}
				if m.Inventory[k], err = m.MIP.AddVar(FamilyInventory, inventoryName(k), typ, 0, inf); err != nil {
					return err
				}
				if m.Backorder[k], err = m.MIP.AddVar(FamilyBackorder, backorderName(k), typ, 0, inf); err != nil {
					return err
				}

				for _, machine := range d.Lines(p) {
					mk := entities.ScenarioMachineProductPeriod{Scenario: s, Machine: machine, Product: p, Period: t}
					if m.LinkedLot[mk], err = m.MIP.AddVar(FamilyLinkedLot, VariableName(FamilyLinkedLot, mk), mip.Binary, 0, 1); err != nil {
						return err
					}
					if t == entities.BoundaryPeriod {
						continue
					}
					if m.Production[mk], err = m.MIP.AddVar(FamilyProduction, VariableName(FamilyProduction, mk), typ, 0, inf); err != nil {
						return err
					}
					if m.Setup[mk], err = m.MIP.AddVar(FamilySetup, VariableName(FamilySetup, mk), mip.Binary, 0, 1); err != nil {
						return err
					}
					if m.TotalSetup[mk], err = m.MIP.AddVar(FamilyTotalSetup, VariableName(FamilyTotalSetup, mk), mip.Binary, 0, 1); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// setObjective averages holding, backorder and setup cost over scenarios
func (b *Builder) setObjective(m *Model) error {
	d := b.data
	weight := 1 / float64(len(d.Scenarios))
	obj := mip.NewExpr()

	for _, s := range d.Scenarios {
		for _, p := range d.Products {
			for _, t := range d.Periods {
				pk := entities.ProductPeriod{Product: p, Period: t}
				holding, err := d.HoldingCost.Get(pk)
				if err != nil {
					return err
				}
				backorder, err := d.BackorderCost.Get(pk)
				if err != nil {
					return err
				}
				k := entities.ScenarioProductPeriod{Scenario: s, Product: p, Period: t}
				obj.Add(m.Inventory[k], weight*holding)
				obj.Add(m.Backorder[k], weight*backorder)

				for _, machine := range d.Lines(p) {
					setup, err := d.SetupCost.Get(entities.MachineProductPeriod{Machine: machine, Product: p, Period: t})
					if err != nil {
						return err
					}
					obj.Add(m.Setup[entities.ScenarioMachineProductPeriod{Scenario: s, Machine: machine, Product: p, Period: t}], weight*setup)
				}
			}
		}
	}
	return m.MIP.SetObjective(obj)
}
