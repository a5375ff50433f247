// Package normalization turns the relation set of a problem instance into
// typed index sets and sparse parameter lookups.
package normalization

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/vsinha/clsp/pkg/domain/entities"
	"github.com/vsinha/clsp/pkg/domain/services/bom_validator"
	"github.com/vsinha/clsp/pkg/infrastructure/ctxlog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultUOM is assumed for materials without a base unit
const DefaultUOM = "PC"

var discreteUOMs = map[string]bool{
	"PC": true, "PCS": true, "PCE": true, "EA": true, "ST": true, "STK": true,
	"PIECE": true, "PIECES": true, "UNIT": true, "UNITS": true,
}

var continuousUOMs = map[string]bool{
	"KG": true, "G": true, "MG": true, "T": true, "LB": true,
	"L": true, "ML": true, "HL": true,
	"M": true, "CM": true, "MM": true, "KM": true, "M2": true, "M3": true,
	"H": true, "MIN": true, "S": true,
}

var upper = cases.Upper(language.Und)

// ResolveDomain maps a base unit of measure to the quantity domain of the
// variables referencing the material.
func ResolveDomain(uom string) (entities.QuantityDomain, error) {
	u := upper.String(strings.TrimSpace(uom))
	if u == "" {
		u = DefaultUOM
	}
	switch {
	case discreteUOMs[u]:
		return entities.Discrete, nil
	case continuousUOMs[u]:
		return entities.Continuous, nil
	default:
		return entities.Continuous, &entities.ConfigurationError{
			Field:  "BaseUOM",
			Value:  uom,
			Reason: "unrecognized unit of measure",
		}
	}
}

// Normalizer builds PlanningData from a Dataset
type Normalizer struct{}

// NewNormalizer creates a normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize is a pure function of the dataset. It fails on the first
// missing relation or out-of-domain index value and never returns partial data.
func (n *Normalizer) Normalize(ctx context.Context, ds *entities.Dataset) (*entities.PlanningData, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Index normalization started.", "problem_instance", ds.ProblemInstanceID)

	if err := requireRelations(ds); err != nil {
		return nil, err
	}

	data := &entities.PlanningData{ProblemInstanceID: ds.ProblemInstanceID}

	data.Machines = uniqueSorted(ds.Capacities, func(r entities.CapacityRow) entities.MachineID { return r.Machine })
	data.Products = uniqueSorted(ds.Materials, func(r entities.MaterialRow) entities.ProductID { return r.Product })
	data.Scenarios = uniqueSorted(ds.ProblemInstances, func(r entities.ProblemInstanceRow) entities.ScenarioID { return r.Scenario })

	periods, err := normalizePeriods(ds.PlanningPeriods)
	if err != nil {
		return nil, err
	}
	data.Periods = periods

	if err := n.normalizeMaterials(ds, data); err != nil {
		return nil, err
	}
	if err := normalizeRouting(ds, data); err != nil {
		return nil, err
	}

	if err := normalizeParameters(ds, data); err != nil {
		return nil, err
	}
	n.normalizeBOM(ctx, ds, data)

	logger.Info("Index normalization complete.",
		"problem_instance", data.ProblemInstanceID,
		"machines", len(data.Machines),
		"products", len(data.Products),
		"periods", len(data.Periods),
		"scenarios", len(data.Scenarios),
		"bom_edges", data.BOM.EdgeCount(),
	)
	return data, nil
}

func requireRelations(ds *entities.Dataset) error {
	required := []struct {
		name string
		size int
	}{
		{"ProblemInstance", len(ds.ProblemInstances)},
		{"Material", len(ds.Materials)},
		{"MaterialType", len(ds.MaterialTypes)},
		{"PlanningPeriod", len(ds.PlanningPeriods)},
		{"Capacity", len(ds.Capacities)},
		{"MaterialCost", len(ds.MaterialCosts)},
		{"SetupMatrix", len(ds.SetupMatrix)},
		{"Production", len(ds.Production)},
		{"ProductToLine", len(ds.ProductToLine)},
		{"InitialLotSizingValues", len(ds.InitialLotSizingValues)},
	}
	for _, r := range required {
		if r.size == 0 {
			return &entities.DataIncompleteError{Relation: r.name}
		}
	}
	return nil
}

// normalizePeriods requires the planning periods to be exactly 1..T
func normalizePeriods(rows []entities.PlanningPeriodRow) ([]entities.Period, error) {
	periods := uniqueSorted(rows, func(r entities.PlanningPeriodRow) entities.Period { return r.Period })
	for i, p := range periods {
		if p != entities.Period(i+1) {
			return nil, &entities.ConfigurationError{
				Field:  "PlanningPeriod",
				Value:  fmt.Sprint(p),
				Reason: fmt.Sprintf("periods must be consecutive from 1, expected %d", i+1),
			}
		}
	}
	return periods, nil
}

func (n *Normalizer) normalizeMaterials(ds *entities.Dataset, data *entities.PlanningData) error {
	produced := make(map[entities.ProductID]bool, len(data.Products))
	for _, p := range data.Products {
		produced[p] = true
	}

	data.QuantityDomains = entities.NewLookup[entities.ProductID, entities.QuantityDomain]("QuantityDomain", len(data.Products))
	data.MaterialTypes = entities.NewLookup[entities.ProductID, entities.MaterialType]("MaterialType", len(data.Products))
	data.Currencies = entities.NewLookup[entities.ProductID, string]("Currency", len(data.Products))

	for _, row := range ds.MaterialTypes {
		// raw materials bought from outside never become decision variables
		if !produced[row.Product] {
			continue
		}
		domain, err := ResolveDomain(row.BaseUOM)
		if err != nil {
			return fmt.Errorf("material %s: %w", row.Product, err)
		}
		data.QuantityDomains.Set(row.Product, domain)
		data.MaterialTypes.Set(row.Product, row.Type)
		data.Currencies.Set(row.Product, row.Currency)
	}

	for _, p := range data.Products {
		if !data.QuantityDomains.Has(p) {
			return &entities.DataIncompleteError{Relation: "MaterialType", Key: string(p)}
		}
	}
	return nil
}

func normalizeRouting(ds *entities.Dataset, data *entities.PlanningData) error {
	machines := make(map[entities.MachineID]bool, len(data.Machines))
	for _, m := range data.Machines {
		machines[m] = true
	}

	data.ProductToLine = make(map[entities.ProductID][]entities.MachineID)
	data.LineToProduct = make(map[entities.MachineID][]entities.ProductID)

	for _, row := range ds.ProductToLine {
		if !machines[row.Machine] {
			return &entities.ConfigurationError{Field: "ProductToLine.MachineId", Value: string(row.Machine), Reason: "machine has no capacity"}
		}
		if !data.QuantityDomains.Has(row.Product) {
			return &entities.ConfigurationError{Field: "ProductToLine.MaterialId", Value: string(row.Product), Reason: "material is not produced"}
		}
		if !slices.Contains(data.ProductToLine[row.Product], row.Machine) {
			data.ProductToLine[row.Product] = append(data.ProductToLine[row.Product], row.Machine)
			data.LineToProduct[row.Machine] = append(data.LineToProduct[row.Machine], row.Product)
		}
	}

	for p := range data.ProductToLine {
		slices.Sort(data.ProductToLine[p])
	}
	for m := range data.LineToProduct {
		slices.Sort(data.LineToProduct[m])
	}
	return nil
}

func normalizeParameters(ds *entities.Dataset, data *entities.PlanningData) error {
	data.Demand = entities.NewLookup[entities.ScenarioProductPeriod, float64]("Demand", len(ds.Demands))
	for _, r := range ds.Demands {
		data.Demand.Set(entities.ScenarioProductPeriod{Scenario: r.Scenario, Product: r.Product, Period: r.Period}, r.Quantity)
	}

	data.Capacity = entities.NewLookup[entities.ScenarioMachinePeriod, float64]("Capacity", len(ds.Capacities))
	for _, r := range ds.Capacities {
		data.Capacity.Set(entities.ScenarioMachinePeriod{Scenario: r.Scenario, Machine: r.Machine, Period: r.Period}, r.Capacity)
	}

	data.BigM = entities.NewLookup[entities.ScenarioMachineProductPeriod, float64]("BigM", len(ds.MaxProductionQuantities))
	for _, r := range ds.MaxProductionQuantities {
		data.BigM.Set(entities.ScenarioMachineProductPeriod{Scenario: r.Scenario, Machine: r.Machine, Product: r.Product, Period: r.Period}, r.BigM)
	}

	data.HoldingCost = entities.NewLookup[entities.ProductPeriod, float64]("InventoryHoldingCost", len(ds.MaterialCosts))
	data.BackorderCost = entities.NewLookup[entities.ProductPeriod, float64]("BackorderCost", len(ds.MaterialCosts))
	for _, r := range ds.MaterialCosts {
		key := entities.ProductPeriod{Product: r.Product, Period: r.Period}
		data.HoldingCost.Set(key, r.InventoryHolding)
		data.BackorderCost.Set(key, r.Backorder)
	}

	data.SetupCost = entities.NewLookup[entities.MachineProductPeriod, float64]("SetupCost", len(ds.SetupMatrix))
	data.SetupTime = entities.NewLookup[entities.MachineProductPeriod, float64]("SetupTime", len(ds.SetupMatrix))
	for _, r := range ds.SetupMatrix {
		key := entities.MachineProductPeriod{Machine: r.Machine, Product: r.Product, Period: r.Period}
		data.SetupCost.Set(key, r.SetupCost)
		data.SetupTime.Set(key, r.SetupTime)
	}

	data.ProductionTime = entities.NewLookup[entities.MachineProductPeriod, float64]("ProductionTime", len(ds.Production))
	data.LeadTime = entities.NewLookup[entities.MachineProductPeriod, int]("LeadTime", len(ds.Production))
	for _, r := range ds.Production {
		if r.LeadTime < 0 {
			return &entities.ConfigurationError{Field: "LeadTime", Value: fmt.Sprint(r.LeadTime), Reason: fmt.Sprintf("negative lead time for %s/%s", r.Machine, r.Product)}
		}
		key := entities.MachineProductPeriod{Machine: r.Machine, Product: r.Product, Period: r.Period}
		data.ProductionTime.Set(key, r.ProductionTime)
		data.LeadTime.Set(key, r.LeadTime)
	}

	data.InitialInventory = entities.NewLookup[entities.ScenarioProduct, float64]("InitialInventory", len(ds.InitialLotSizingValues))
	data.InitialBackorder = entities.NewLookup[entities.ScenarioProduct, float64]("InitialBackorder", len(ds.InitialLotSizingValues))
	for _, r := range ds.InitialLotSizingValues {
		key := entities.ScenarioProduct{Scenario: r.Scenario, Product: r.Product}
		data.InitialInventory.Set(key, r.InitialInventory)
		data.InitialBackorder.Set(key, r.InitialBackorder)
	}

	data.InitialLinkedLotSize = entities.NewLookup[entities.ScenarioMachineProduct, float64]("InitialLinkedLotSize", len(ds.InitialLinkedLotSizingValues))
	for _, r := range ds.InitialLinkedLotSizingValues {
		data.InitialLinkedLotSize.Set(entities.ScenarioMachineProduct{Scenario: r.Scenario, Machine: r.Machine, Product: r.Product}, r.InitialLinkedLotSize)
	}
	return nil
}

func (n *Normalizer) normalizeBOM(ctx context.Context, ds *entities.Dataset, data *entities.PlanningData) {
	logger := ctxlog.FromContext(ctx)

	result := bom_validator.ValidateBOM(ds.ProductStructures)
	for _, msg := range result.Errors {
		logger.Warn("Product structure validation.", "problem", msg)
	}
	consistency := bom_validator.ValidateBOMMaterialConsistency(ds.ProductStructures, ds.MaterialTypes)
	for _, msg := range consistency.Errors {
		logger.Warn("Product structure validation.", "problem", msg)
	}

	data.BOM = entities.NewBOMGraph()
	dropped := 0
	for _, r := range ds.ProductStructures {
		receiver := entities.BOMVariant{
			Node:        entities.ProcessNode{Machine: r.ReceivingMachine, Product: r.Received},
			Alternative: r.Alternative,
		}
		issuer := entities.ProcessNode{Machine: r.IssuingMachine, Product: r.Issued}
		if !data.BOM.AddEdge(receiver, issuer, r.Period, r.Ratio) {
			dropped++
		}
	}
	if dropped > 0 {
		logger.Debug("Dropped self-consuming product structures.", "count", dropped)
	}
}

func uniqueSorted[R any, K cmp.Ordered](rows []R, key func(R) K) []K {
	out := make([]K, 0, len(rows))
	for _, r := range rows {
		out = append(out, key(r))
	}
	slices.Sort(out)
	return slices.Compact(out)
}
