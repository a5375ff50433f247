package entities

import "time"

// ProblemInstanceRow links a problem instance to one of its scenarios
type ProblemInstanceRow struct {
	ProblemInstanceID   string     `json:"problem_instance_id"`
	ProblemInstanceName string     `json:"problem_instance_name"`
	Scenario            ScenarioID `json:"scenario_id"`
	ScenarioName        string     `json:"scenario_name"`
}

// MaterialRow is a material that is manufactured within the instance
type MaterialRow struct {
	Product  ProductID `json:"material_id"`
	BaseUOM  string    `json:"base_uom"`
	Currency string    `json:"base_currency"`
}

// MaterialTypeRow carries unit and BOM classification of any material
type MaterialTypeRow struct {
	Product  ProductID    `json:"material_id"`
	BaseUOM  string       `json:"base_uom"`
	Currency string       `json:"base_currency"`
	Type     MaterialType `json:"material_type"`
}

// PlanningPeriodRow is one bucket of the planning horizon
type PlanningPeriodRow struct {
	Period       Period    `json:"planning_period"`
	PlanningDate time.Time `json:"planning_date"`
}

// CapacityRow is the available capacity of a machine in a period
type CapacityRow struct {
	Scenario ScenarioID `json:"scenario_id"`
	Machine  MachineID  `json:"machine_id"`
	Period   Period     `json:"planning_period"`
	Capacity float64    `json:"capacity_per_period"`
}

// DemandRow is primary (external) demand
type DemandRow struct {
	Scenario ScenarioID `json:"scenario_id"`
	Product  ProductID  `json:"material_id"`
	Period   Period     `json:"planning_period"`
	Quantity float64    `json:"quantity"`
}

// MaterialCostRow holds per-unit holding and backorder cost
type MaterialCostRow struct {
	Product          ProductID `json:"material_id"`
	Period           Period    `json:"planning_period"`
	InventoryHolding float64   `json:"inventory_holding"`
	Backorder        float64   `json:"backorder"`
}

// SetupRow is a sequence independent setup of a machine for a product
type SetupRow struct {
	Machine   MachineID `json:"machine_id"`
	Product   ProductID `json:"material_id"`
	Period    Period    `json:"planning_period"`
	SetupTime float64   `json:"setup_time"`
	SetupCost float64   `json:"setup_cost"`
}

// ProductionRow holds production coefficients of a product on a machine
type ProductionRow struct {
	Machine        MachineID `json:"machine_id"`
	Product        ProductID `json:"material_id"`
	Period         Period    `json:"planning_period"`
	LeadTime       int       `json:"lead_time"`
	ProductionTime float64   `json:"production_time_per_base_uom"`
}

// ProductStructureRow is one BOM relationship: the receiving node consumes
// Ratio units of the issuing node's product per unit produced.
type ProductStructureRow struct {
	ReceivingMachine MachineID   `json:"machine_id_goods_received"`
	Received         ProductID   `json:"goods_received"`
	IssuingMachine   MachineID   `json:"machine_id_goods_issued"`
	Issued           ProductID   `json:"goods_issued"`
	Period           Period      `json:"planning_period"`
	Alternative      Alternative `json:"bom_alternative"`
	Ratio            float64     `json:"ratio"`
}

// ProductToLineRow allows a product to run on a machine
type ProductToLineRow struct {
	Machine MachineID `json:"machine_id"`
	Product ProductID `json:"material_id"`
}

// InitialLotSizingRow is the boundary inventory state of a scenario
type InitialLotSizingRow struct {
	Scenario         ScenarioID `json:"scenario_id"`
	Product          ProductID  `json:"material_id"`
	InitialInventory float64    `json:"initial_inventory"`
	InitialBackorder float64    `json:"initial_backorder"`
}

// InitialLinkedLotSizingRow is the setup carryover into period 1
type InitialLinkedLotSizingRow struct {
	Scenario             ScenarioID `json:"scenario_id"`
	Machine              MachineID  `json:"machine_id"`
	Product              ProductID  `json:"material_id"`
	InitialLinkedLotSize float64    `json:"initial_linked_lot_size"`
}

// MaxProductionQuantityRow is the Big-M bound of a production variable
type MaxProductionQuantityRow struct {
	Scenario ScenarioID `json:"scenario_id"`
	Machine  MachineID  `json:"machine_id"`
	Product  ProductID  `json:"material_id"`
	Period   Period     `json:"planning_period"`
	BigM     float64    `json:"big_m"`
}

// Dataset is the fixed relation set supplied by a data provider for one
// problem instance and a subset of its scenarios.
type Dataset struct {
	ProblemInstanceID            string                      `json:"problem_instance_id"`
	ProblemInstances             []ProblemInstanceRow        `json:"problem_instance"`
	Materials                    []MaterialRow               `json:"material"`
	MaterialTypes                []MaterialTypeRow           `json:"material_type"`
	PlanningPeriods              []PlanningPeriodRow         `json:"planning_period"`
	Capacities                   []CapacityRow               `json:"capacity"`
	Demands                      []DemandRow                 `json:"demand"`
	MaterialCosts                []MaterialCostRow           `json:"material_cost"`
	SetupMatrix                  []SetupRow                  `json:"setup_matrix"`
	Production                   []ProductionRow             `json:"production"`
	ProductStructures            []ProductStructureRow       `json:"production_structures"`
	ProductToLine                []ProductToLineRow          `json:"product_to_line"`
	InitialLotSizingValues       []InitialLotSizingRow       `json:"initial_lot_sizing_values"`
	InitialLinkedLotSizingValues []InitialLinkedLotSizingRow `json:"initial_linked_lot_sizing_values"`
	MaxProductionQuantities      []MaxProductionQuantityRow  `json:"max_production_quantity"`
}

// FilterScenarios returns a shallow copy holding only rows of the given
// scenarios. An empty selection keeps every scenario.
func (d *Dataset) FilterScenarios(scenarios []ScenarioID) *Dataset {
	out := *d
	if len(scenarios) == 0 {
		return &out
	}
	keep := make(map[ScenarioID]bool, len(scenarios))
	for _, s := range scenarios {
		keep[s] = true
	}

	out.ProblemInstances = filterRows(d.ProblemInstances, func(r ProblemInstanceRow) bool { return keep[r.Scenario] })
	out.Capacities = filterRows(d.Capacities, func(r CapacityRow) bool { return keep[r.Scenario] })
	out.Demands = filterRows(d.Demands, func(r DemandRow) bool { return keep[r.Scenario] })
	out.InitialLotSizingValues = filterRows(d.InitialLotSizingValues, func(r InitialLotSizingRow) bool { return keep[r.Scenario] })
	out.InitialLinkedLotSizingValues = filterRows(d.InitialLinkedLotSizingValues, func(r InitialLinkedLotSizingRow) bool { return keep[r.Scenario] })
	out.MaxProductionQuantities = filterRows(d.MaxProductionQuantities, func(r MaxProductionQuantityRow) bool { return keep[r.Scenario] })
	return &out
}

func filterRows[T any](rows []T, keep func(T) bool) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
