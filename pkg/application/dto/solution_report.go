package dto

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vsinha/clsp/pkg/domain/entities"
	"github.com/vsinha/clsp/pkg/mip"
)

// SolutionReport is the domain-level outcome of one lot-sizing run
type SolutionReport struct {
	RunID             uuid.UUID             `json:"run_id"`
	ProblemInstanceID string                `json:"problem_instance_id"`
	Scenarios         []entities.ScenarioID `json:"scenarios"`
	Horizon           entities.Period       `json:"horizon"`
	Status            mip.Status            `json:"status"`
	Message           string                `json:"message"`

	// Objective value and bound are null when the status does not carry them
	ObjectiveValue decimal.NullDecimal `json:"objective_value"`
	ObjectiveBound decimal.NullDecimal `json:"objective_bound"`
	MIPGap         decimal.NullDecimal `json:"mip_gap"`

	CostBreakdown *CostBreakdown          `json:"cost_breakdown,omitempty"`
	Assignment    map[VariableKey]float64 `json:"assignment,omitempty"`
	Lots          []ProductionLot         `json:"production_lots,omitempty"`
	Violations    []string                `json:"violations,omitempty"`

	Statistics ModelStatistics `json:"statistics"`
	BuildTime  time.Duration   `json:"build_time"`
	SolveTime  time.Duration   `json:"solve_time"`
	CreatedAt  time.Time       `json:"created_at"`
}

// HasAssignment reports whether variable values were extracted
func (r *SolutionReport) HasAssignment() bool {
	return r.Status.HasAssignment()
}

// VariableKey identifies a decision variable by family and index tuple.
// Machine is empty for inventory and backorder variables.
type VariableKey struct {
	Family   string
	Scenario entities.ScenarioID
	Machine  entities.MachineID
	Product  entities.ProductID
	Period   entities.Period
}

func (k VariableKey) String() string {
	if k.Machine == "" {
		return fmt.Sprintf("%s_%s_%s_%d", k.Family, k.Scenario, k.Product, k.Period)
	}
	return fmt.Sprintf("%s_%s_%s_%s_%d", k.Family, k.Scenario, k.Machine, k.Product, k.Period)
}

// MarshalText renders the key as the solver variable name
func (k VariableKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// CostBreakdown splits the scenario-averaged objective
type CostBreakdown struct {
	Holding   decimal.Decimal `json:"inventory_holding"`
	Backorder decimal.Decimal `json:"backorder"`
	Setup     decimal.Decimal `json:"setup"`
}

// Total sums all cost components
func (c *CostBreakdown) Total() decimal.Decimal {
	return c.Holding.Add(c.Backorder).Add(c.Setup)
}

// ProductionLot is a positive production quantity of the solved plan
type ProductionLot struct {
	Scenario    entities.ScenarioID `json:"scenario_id"`
	Machine     entities.MachineID  `json:"machine_id"`
	Product     entities.ProductID  `json:"material_id"`
	Period      entities.Period     `json:"planning_period"`
	Quantity    decimal.Decimal     `json:"quantity"`
	Setup       bool                `json:"setup"`
	CarriedOver bool                `json:"carried_over"`
}

// ModelStatistics describes the size of the solved model
type ModelStatistics struct {
	Variables   int `json:"variables"`
	Binary      int `json:"binary"`
	Integer     int `json:"integer"`
	Continuous  int `json:"continuous"`
	Constraints int `json:"constraints"`
	NonZeros    int `json:"nonzeros"`
	Nodes       int `json:"nodes"`
}
