// Package interpretation maps solver outcomes back to the planning domain.
package interpretation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vsinha/clsp/pkg/application/dto"
	"github.com/vsinha/clsp/pkg/application/services/lotsizing"
	"github.com/vsinha/clsp/pkg/domain/entities"
	"github.com/vsinha/clsp/pkg/infrastructure/ctxlog"
	"github.com/vsinha/clsp/pkg/mip"
)

// DefaultTolerance is the absolute tolerance of the feasibility audit
const DefaultTolerance = 1e-6

// reportPlaces is the number of decimal places kept for monetary values
const reportPlaces = 6

// ErrNotSolved is returned when a model without solution is interpreted
var ErrNotSolved = errors.New("model has not been solved")

// Interpreter builds solution reports
type Interpreter struct {
	tolerance float64
}

// NewInterpreter creates an interpreter with the default audit tolerance
func NewInterpreter() *Interpreter {
	return &Interpreter{tolerance: DefaultTolerance}
}

// Interpret reports the status of a solved model. Infeasibility and running
// out of budget are results, not errors.
func (i *Interpreter) Interpret(ctx context.Context, model *lotsizing.Model) (*dto.SolutionReport, error) {
	logger := ctxlog.FromContext(ctx)
	sol := model.Solution
	if sol == nil {
		return nil, ErrNotSolved
	}

	stats := model.MIP.Stats()
	report := &dto.SolutionReport{
		RunID:             uuid.New(),
		ProblemInstanceID: model.Data.ProblemInstanceID,
		Scenarios:         model.Data.Scenarios,
		Horizon:           model.Data.Horizon(),
		Status:            sol.Status,
		Statistics: dto.ModelStatistics{
			Variables:   stats.Variables,
			Binary:      stats.Binary,
			Integer:     stats.Integer,
			Continuous:  stats.Continuous,
			Constraints: stats.Constraints,
			NonZeros:    stats.NonZeros,
			Nodes:       sol.Nodes,
		},
		BuildTime: model.BuildTime,
		SolveTime: sol.Elapsed,
		CreatedAt: time.Now(),
	}

	switch sol.Status {
	case mip.Optimal:
		report.ObjectiveValue = nullDecimal(sol.Objective)
		report.ObjectiveBound = nullDecimal(sol.Objective)
		report.MIPGap = decimal.NewNullDecimal(decimal.Zero)
		report.Message = fmt.Sprintf("optimal solution cost %g found", sol.Objective)
	case mip.Feasible:
		report.ObjectiveValue = nullDecimal(sol.Objective)
		report.ObjectiveBound = nullDecimal(sol.Bound)
		report.MIPGap = gap(sol.Objective, sol.Bound)
		report.Message = fmt.Sprintf("sol.cost %g found, best possible: %g", sol.Objective, sol.Bound)
	case mip.NoSolutionFound:
		report.ObjectiveBound = nullDecimal(sol.Bound)
		report.Message = fmt.Sprintf("no feasible solution found, lower bound is: %g", sol.Bound)
	case mip.Infeasible:
		report.Message = "model is infeasible. Check constraints."
	default:
		return nil, fmt.Errorf("unknown solver status %d", sol.Status)
	}

	if sol.Status.HasAssignment() {
		report.Assignment = assignment(model, sol.Values)
		report.CostBreakdown = costBreakdown(model, sol.Values)
		report.Lots = i.lots(model, sol.Values)

		for _, v := range model.MIP.Violations(sol.Values, i.tolerance) {
			report.Violations = append(report.Violations, v.String())
		}
		if len(report.Violations) > 0 {
			logger.Warn("Solution violates model constraints.", "count", len(report.Violations), "first", report.Violations[0])
		}
	}

	logger.Info("Solution interpreted.", "run_id", report.RunID, "status", report.Status, "message", report.Message)
	return report, nil
}

func nullDecimal(v float64) decimal.NullDecimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(v).Round(reportPlaces))
}

// gap is |value - bound| / |value|, undefined for a zero value with a
// nonzero distance to the bound.
func gap(value, bound float64) decimal.NullDecimal {
	diff := math.Abs(value - bound)
	if diff == 0 {
		return decimal.NewNullDecimal(decimal.Zero)
	}
	if value == 0 {
		return decimal.NullDecimal{}
	}
	return nullDecimal(diff / math.Abs(value))
}

func assignment(model *lotsizing.Model, values []float64) map[dto.VariableKey]float64 {
	out := make(map[dto.VariableKey]float64, len(values))
	for k, id := range model.Inventory {
		out[dto.VariableKey{Family: lotsizing.FamilyInventory, Scenario: k.Scenario, Product: k.Product, Period: k.Period}] = values[id]
	}
	for k, id := range model.Backorder {
		out[dto.VariableKey{Family: lotsizing.FamilyBackorder, Scenario: k.Scenario, Product: k.Product, Period: k.Period}] = values[id]
	}
	families := []struct {
		name string
		vars map[entities.ScenarioMachineProductPeriod]mip.VarID
	}{
		{lotsizing.FamilyProduction, model.Production},
		{lotsizing.FamilySetup, model.Setup},
		{lotsizing.FamilyLinkedLot, model.LinkedLot},
		{lotsizing.FamilyTotalSetup, model.TotalSetup},
	}
	for _, f := range families {
		for k, id := range f.vars {
			out[dto.VariableKey{Family: f.name, Scenario: k.Scenario, Machine: k.Machine, Product: k.Product, Period: k.Period}] = values[id]
		}
	}
	return out
}

// costBreakdown recomputes the scenario-averaged objective per cost type
func costBreakdown(model *lotsizing.Model, values []float64) *dto.CostBreakdown {
	d := model.Data
	weight := 1 / float64(len(d.Scenarios))
	var holding, backorder, setup float64

	for _, s := range d.Scenarios {
		for _, p := range d.Products {
			for _, t := range d.Periods {
				pk := entities.ProductPeriod{Product: p, Period: t}
				k := entities.ScenarioProductPeriod{Scenario: s, Product: p, Period: t}
				// parameters were verified while building
				h, _ := d.HoldingCost.Get(pk)
				b, _ := d.BackorderCost.Get(pk)
				holding += h * values[model.Inventory[k]]
				backorder += b * values[model.Backorder[k]]

				for _, m := range d.Lines(p) {
					c, _ := d.SetupCost.Get(entities.MachineProductPeriod{Machine: m, Product: p, Period: t})
					setup += c * values[model.Setup[entities.ScenarioMachineProductPeriod{Scenario: s, Machine: m, Product: p, Period: t}]]
				}
			}
		}
	}

	return &dto.CostBreakdown{
		Holding:   decimal.NewFromFloat(weight * holding).Round(reportPlaces),
		Backorder: decimal.NewFromFloat(weight * backorder).Round(reportPlaces),
		Setup:     decimal.NewFromFloat(weight * setup).Round(reportPlaces),
	}
}

func (i *Interpreter) lots(model *lotsizing.Model, values []float64) []dto.ProductionLot {
	d := model.Data
	var out []dto.ProductionLot
	for _, s := range d.Scenarios {
		for _, node := range d.Routings() {
			for _, t := range d.Periods {
				k := entities.ScenarioMachineProductPeriod{Scenario: s, Machine: node.Machine, Product: node.Product, Period: t}
				qty := values[model.Production[k]]
				if qty <= i.tolerance {
					continue
				}
				prev := k
				prev.Period = t - 1
				out = append(out, dto.ProductionLot{
					Scenario:    s,
					Machine:     node.Machine,
					Product:     node.Product,
					Period:      t,
					Quantity:    decimal.NewFromFloat(qty).Round(reportPlaces),
					Setup:       values[model.Setup[k]] > 0.5,
					CarriedOver: values[model.LinkedLot[prev]] > 0.5,
				})
			}
		}
	}
	return out
}
