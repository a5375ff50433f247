package entities

// PlanningData is the normalized, immutable input of model construction.
// Index sets are sorted; parameter lookups fail on absent keys.
type PlanningData struct {
	ProblemInstanceID string

	Machines  []MachineID
	Products  []ProductID
	Periods   []Period // 1..T ascending, boundary period excluded
	Scenarios []ScenarioID

	// Unit domain and classification of manufactured products only
	QuantityDomains Lookup[ProductID, QuantityDomain]
	MaterialTypes   Lookup[ProductID, MaterialType]
	Currencies      Lookup[ProductID, string]

	Demand   Lookup[ScenarioProductPeriod, float64]
	Capacity Lookup[ScenarioMachinePeriod, float64]
	BigM     Lookup[ScenarioMachineProductPeriod, float64]

	HoldingCost    Lookup[ProductPeriod, float64]
	BackorderCost  Lookup[ProductPeriod, float64]
	SetupCost      Lookup[MachineProductPeriod, float64]
	SetupTime      Lookup[MachineProductPeriod, float64]
	ProductionTime Lookup[MachineProductPeriod, float64]
	LeadTime       Lookup[MachineProductPeriod, int]

	ProductToLine map[ProductID][]MachineID
	LineToProduct map[MachineID][]ProductID

	BOM *BOMGraph

	InitialInventory     Lookup[ScenarioProduct, float64]
	InitialBackorder     Lookup[ScenarioProduct, float64]
	InitialLinkedLotSize Lookup[ScenarioMachineProduct, float64]
}

// Horizon returns T, the last planning period
func (d *PlanningData) Horizon() Period {
	if len(d.Periods) == 0 {
		return BoundaryPeriod
	}
	return d.Periods[len(d.Periods)-1]
}

// Lines returns the machines a product runs on
func (d *PlanningData) Lines(product ProductID) []MachineID {
	return d.ProductToLine[product]
}

// LineProducts returns the products that run on a machine
func (d *PlanningData) LineProducts(machine MachineID) []ProductID {
	return d.LineToProduct[machine]
}

// Routings returns every (machine, product) pair in machine, product order
func (d *PlanningData) Routings() []ProcessNode {
	var nodes []ProcessNode
	for _, m := range d.Machines {
		for _, p := range d.LineToProduct[m] {
			nodes = append(nodes, ProcessNode{Machine: m, Product: p})
		}
	}
	return nodes
}
