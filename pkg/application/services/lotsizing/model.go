// Package lotsizing builds the multi-level capacitated lot-sizing model with
// linked lot sizes and backorders from normalized planning data.
package lotsizing

import (
	"context"
	"fmt"
	"time"

	"github.com/vsinha/clsp/pkg/domain/entities"
	"github.com/vsinha/clsp/pkg/infrastructure/ctxlog"
	"github.com/vsinha/clsp/pkg/mip"
)

// Variable families
const (
	FamilyInventory  = "INVENTORY_ON_HAND"
	FamilyBackorder  = "BACKORDER_QUANTITY"
	FamilyProduction = "PRODUCTION_QUANTITY"
	FamilySetup      = "SETUP_STATE"
	FamilyLinkedLot  = "LINKED_LOT_SIZE"
	FamilyTotalSetup = "TOTAL_SETUP"
)

// Constraint families
const (
	RowInitialInventory     = "INITIAL_INVENTORY"
	RowFinalInventory       = "FINAL_INVENTORY"
	RowInitialBackorder     = "INITIAL_BACKORDER"
	RowFinalBackorder       = "FINAL_BACKORDER"
	RowInitialLinkedLot     = "INITIAL_LINKED_LOT_SIZE"
	RowLeadTime             = "LEAD_TIME"
	RowMaterialBalance      = "MATERIAL_BALANCE"
	RowCapacity             = "CAPACITY"
	RowBigM                 = "BIG_M"
	RowTotalSetup           = "TOTAL_SETUP_DEFINITION"
	RowLinkedLotUnique      = "LINKED_LOT_UNIQUE"
	RowLinkedLotProvenance  = "LINKED_LOT_PROVENANCE"
	RowLinkedLotSynchronize = "LINKED_LOT_SYNCHRONIZATION"
)

// Model is one built lot-sizing MIP together with the variable arena that
// maps domain keys to solver variables. It is owned by a single caller.
type Model struct {
	Data *entities.PlanningData
	MIP  *mip.Model

	Inventory  map[entities.ScenarioProductPeriod]mip.VarID
	Backorder  map[entities.ScenarioProductPeriod]mip.VarID
	Production map[entities.ScenarioMachineProductPeriod]mip.VarID
	Setup      map[entities.ScenarioMachineProductPeriod]mip.VarID
	LinkedLot  map[entities.ScenarioMachineProductPeriod]mip.VarID
	TotalSetup map[entities.ScenarioMachineProductPeriod]mip.VarID

	BuildTime time.Duration
	Solution  *mip.Solution
}

func newModel(data *entities.PlanningData) *Model {
	return &Model{
		Data:       data,
		MIP:        mip.NewModel(fmt.Sprintf("MLCLSP_L_B_%s", data.ProblemInstanceID)),
		Inventory:  make(map[entities.ScenarioProductPeriod]mip.VarID),
		Backorder:  make(map[entities.ScenarioProductPeriod]mip.VarID),
		Production: make(map[entities.ScenarioMachineProductPeriod]mip.VarID),
		Setup:      make(map[entities.ScenarioMachineProductPeriod]mip.VarID),
		LinkedLot:  make(map[entities.ScenarioMachineProductPeriod]mip.VarID),
		TotalSetup: make(map[entities.ScenarioMachineProductPeriod]mip.VarID),
	}
}

// Solve runs the solver with a soft wall-clock budget and attaches the
// solution to the model. Solver outcomes are never errors.
func (m *Model) Solve(ctx context.Context, solver mip.Solver, budget time.Duration) (*mip.Solution, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Optimization started.", "model", m.MIP.Name, "time_budget", budget)

	sol, err := solver.Optimize(ctx, m.MIP, budget)
	if err != nil {
		return nil, fmt.Errorf("failed to optimize %s: %w", m.MIP.Name, err)
	}
	if sol.Status.HasAssignment() && len(sol.Values) != m.MIP.NumVars() {
		return nil, fmt.Errorf("solver returned %d values for %d variables", len(sol.Values), m.MIP.NumVars())
	}

	m.Solution = sol
	logger.Info("Optimization finished.",
		"status", sol.Status,
		"objective", sol.Objective,
		"bound", sol.Bound,
		"nodes", sol.Nodes,
		"elapsed", sol.Elapsed,
	)
	return sol, nil
}

func inventoryName(k entities.ScenarioProductPeriod) string {
	return fmt.Sprintf("%s_%s_%s_%d", FamilyInventory, k.Scenario, k.Product, k.Period)
}

func backorderName(k entities.ScenarioProductPeriod) string {
	return fmt.Sprintf("%s_%s_%s_%d", FamilyBackorder, k.Scenario, k.Product, k.Period)
}

// VariableName renders the solver name of a machine-indexed variable
func VariableName(family string, k entities.ScenarioMachineProductPeriod) string {
	return fmt.Sprintf("%s_%s_%s_%s_%d", family, k.Scenario, k.Machine, k.Product, k.Period)
}
