// Package bigm derives the MaxProductionQuantity relation: the Big-M bound of
// every production variable.
package bigm

import (
	"slices"

	"github.com/vsinha/clsp/pkg/domain/entities"
)

type demandKey struct {
	scenario entities.ScenarioID
	product  entities.ProductID
	period   entities.Period
}

type nodePeriod struct {
	machine entities.MachineID
	product entities.ProductID
	period  entities.Period
}

// Derive bounds production of a product on a machine in a period by the
// smaller of the echelon demand plus initial backlog over the whole horizon and
// the quantity the machine can make at full capacity. Echelon demand is
// primary demand plus the demand of every product consuming it, scaled by the
// BOM ratio. Production may run ahead of demand and be held in stock, so no
// period is bounded by the demand due before it. Combinations without a
// production or capacity row get no bound.
func Derive(ds *entities.Dataset) []entities.MaxProductionQuantityRow {
	periods := make([]entities.Period, 0, len(ds.PlanningPeriods))
	for _, r := range ds.PlanningPeriods {
		periods = append(periods, r.Period)
	}
	slices.Sort(periods)
	periods = slices.Compact(periods)
	if len(periods) == 0 {
		return nil
	}

	scenarios := make([]entities.ScenarioID, 0, len(ds.ProblemInstances))
	for _, r := range ds.ProblemInstances {
		scenarios = append(scenarios, r.Scenario)
	}
	slices.Sort(scenarios)
	scenarios = slices.Compact(scenarios)

	primary := make(map[demandKey]float64, len(ds.Demands))
	for _, r := range ds.Demands {
		primary[demandKey{r.Scenario, r.Product, r.Period}] += r.Quantity
	}

	backlog := make(map[entities.ScenarioProduct]float64, len(ds.InitialLotSizingValues))
	for _, r := range ds.InitialLotSizingValues {
		backlog[entities.ScenarioProduct{Scenario: r.Scenario, Product: r.Product}] = r.InitialBackorder
	}

	// issued product -> receiving products with ratio, per period
	type usage struct {
		received entities.ProductID
		ratio    float64
	}
	usages := make(map[entities.ProductPeriod][]usage)
	for _, r := range ds.ProductStructures {
		if r.Received == r.Issued {
			continue
		}
		key := entities.ProductPeriod{Product: r.Issued, Period: r.Period}
		usages[key] = append(usages[key], usage{received: r.Received, ratio: r.Ratio})
	}

	memo := make(map[demandKey]float64)
	visiting := make(map[demandKey]bool)
	var echelon func(k demandKey) float64
	echelon = func(k demandKey) float64 {
		if v, ok := memo[k]; ok {
			return v
		}
		if visiting[k] {
			return 0
		}
		visiting[k] = true
		total := primary[k]
		for _, u := range usages[entities.ProductPeriod{Product: k.product, Period: k.period}] {
			total += u.ratio * echelon(demandKey{k.scenario, u.received, k.period})
		}
		visiting[k] = false
		memo[k] = total
		return total
	}

	capacity := make(map[entities.ScenarioMachinePeriod]float64, len(ds.Capacities))
	for _, r := range ds.Capacities {
		capacity[entities.ScenarioMachinePeriod{Scenario: r.Scenario, Machine: r.Machine, Period: r.Period}] = r.Capacity
	}
	production := make(map[nodePeriod]entities.ProductionRow, len(ds.Production))
	for _, r := range ds.Production {
		production[nodePeriod{r.Machine, r.Product, r.Period}] = r
	}

	total := make(map[entities.ScenarioProduct]float64)
	horizonDemand := func(s entities.ScenarioID, p entities.ProductID) float64 {
		key := entities.ScenarioProduct{Scenario: s, Product: p}
		if v, ok := total[key]; ok {
			return v
		}
		sum := backlog[key]
		for _, tau := range periods {
			sum += echelon(demandKey{s, p, tau})
		}
		total[key] = sum
		return sum
	}

	var rows []entities.MaxProductionQuantityRow
	for _, s := range scenarios {
		for _, route := range ds.ProductToLine {
			for _, t := range periods {
				prod, ok := production[nodePeriod{route.Machine, route.Product, t}]
				if !ok {
					continue
				}
				capa, ok := capacity[entities.ScenarioMachinePeriod{Scenario: s, Machine: route.Machine, Period: t}]
				if !ok {
					continue
				}

				bound := horizonDemand(s, route.Product)
				if prod.ProductionTime > 0 {
					bound = min(bound, capa/prod.ProductionTime)
				}
				rows = append(rows, entities.MaxProductionQuantityRow{
					Scenario: s,
					Machine:  route.Machine,
					Product:  route.Product,
					Period:   t,
					BigM:     bound,
				})
			}
		}
	}
	return rows
}
