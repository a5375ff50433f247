package tabular

import (
	"strconv"

	"github.com/vsinha/clsp/pkg/domain/entities"
)

// Table names, one per relation
const (
	TableProblemInstance              = "ProblemInstance"
	TableMaterial                     = "Material"
	TableMaterialType                 = "MaterialType"
	TablePlanningPeriod               = "PlanningPeriod"
	TableCapacity                     = "Capacity"
	TablePrimaryDemand                = "PrimaryDemand"
	TableMaterialCost                 = "MaterialCost"
	TableSetupMatrix                  = "SetupMatrix"
	TableProduction                   = "Production"
	TableProductStructures            = "ProductStructures"
	TableProductToLine                = "ProductToLine"
	TableInitialLotSizingValues       = "InitialLotSizingValues"
	TableInitialLinkedLotSizingValues = "InitialLinkedLotSizingValues"
	TableMaxProductionQuantity        = "MaxProductionQuantity"
)

type relation struct {
	name     string
	columns  []string
	required bool
	decode   func(r *Record, ds *entities.Dataset)
	encode   func(ds *entities.Dataset) [][]string
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func period(t entities.Period) string {
	return strconv.Itoa(int(t))
}

var relations = []relation{
	{
		name:     TableProblemInstance,
		columns:  []string{"problem_instance_name", "scenario_id", "scenario_name"},
		required: true,
		decode: func(r *Record, ds *entities.Dataset) {
			ds.ProblemInstances = append(ds.ProblemInstances, entities.ProblemInstanceRow{
				ProblemInstanceID:   r.String(ColumnProblemInstance),
				ProblemInstanceName: r.String("problem_instance_name"),
				Scenario:            entities.ScenarioID(r.String("scenario_id")),
				ScenarioName:        r.String("scenario_name"),
			})
		},
		encode: func(ds *entities.Dataset) (rows [][]string) {
			for _, v := range ds.ProblemInstances {
				rows = append(rows, []string{v.ProblemInstanceName, string(v.Scenario), v.ScenarioName})
			}
			return rows
		},
	},
	{
		name:     TableMaterial,
		columns:  []string{"material_id", "base_uom", "base_currency"},
		required: true,
		decode: func(r *Record, ds *entities.Dataset) {
			ds.Materials = append(ds.Materials, entities.MaterialRow{
				Product:  entities.ProductID(r.String("material_id")),
				BaseUOM:  r.String("base_uom"),
				Currency: r.String("base_currency"),
			})
		},
		encode: func(ds *entities.Dataset) (rows [][]string) {
			for _, v := range ds.Materials {
				rows = append(rows, []string{string(v.Product), v.BaseUOM, v.Currency})
			}
			return rows
		},
	},
	{
		name:     TableMaterialType,
		columns:  []string{"material_id", "base_uom", "base_currency", "material_type"},
		required: true,
		decode: func(r *Record, ds *entities.Dataset) {
			typ, err := entities.ParseMaterialType(r.String("material_type"))
			if err != nil {
				r.fail("material_type", r.String("material_type"), err.Error())
			}
			ds.MaterialTypes = append(ds.MaterialTypes, entities.MaterialTypeRow{
				Product:  entities.ProductID(r.String("material_id")),
				BaseUOM:  r.String("base_uom"),
				Currency: r.String("base_currency"),
				Type:     typ,
			})
		},
		encode: func(ds *entities.Dataset) (rows [][]string) {
			for _, v := range ds.MaterialTypes {
				rows = append(rows, []string{string(v.Product), v.BaseUOM, v.Currency, v.Type.String()})
			}
			return rows
		},
	},
	{
		name:     TablePlanningPeriod,
		columns:  []string{"planning_period", "planning_date"},
		required: true,
		decode: func(r *Record, ds *entities.Dataset) {
			ds.PlanningPeriods = append(ds.PlanningPeriods, entities.PlanningPeriodRow{
				Period:       entities.Period(r.Int("planning_period")),
				PlanningDate: r.Date("planning_date"),
			})
		},
		encode: func(ds *entities.Dataset) (rows [][]string) {
			for _, v := range ds.PlanningPeriods {
				rows = append(rows, []string{period(v.Period), v.PlanningDate.Format(DateLayout)})
			}
			return rows
		},
	},
	{
		name:     TableCapacity,
		columns:  []string{"scenario_id", "machine_id", "planning_period", "capacity_per_period"},
		required: true,
		decode: func(r *Record, ds *entities.Dataset) {
			ds.Capacities = append(ds.Capacities, entities.CapacityRow{
				Scenario: entities.ScenarioID(r.String("scenario_id")),
				Machine:  entities.MachineID(r.String("machine_id")),
				Period:   entities.Period(r.Int("planning_period")),
				Capacity: r.Float("capacity_per_period"),
			})
		},
		encode: func(ds *entities.Dataset) (rows [][]string) {
			for _, v := range ds.Capacities {
				rows = append(rows, []string{string(v.Scenario), string(v.Machine), period(v.Period), num(v.Capacity)})
			}
			return rows
		},
	},
	{
		name:    TablePrimaryDemand,
		columns: []string{"scenario_id", "material_id", "planning_period", "quantity"},
		decode: func(r *Record, ds *entities.Dataset) {
			ds.Demands = append(ds.Demands, entities.DemandRow{
				Scenario: entities.ScenarioID(r.String("scenario_id")),
				Product:  entities.ProductID(r.String("material_id")),
				Period:   entities.Period(r.Int("planning_period")),
				Quantity: r.Float("quantity"),
			})
		},
		encode: func(ds *entities.Dataset) (rows [][]string) {
			for _, v := range ds.Demands {
				rows = append(rows, []string{string(v.Scenario), string(v.Product), period(v.Period), num(v.Quantity)})
			}
			return rows
		},
	},
	{
		name:     TableMaterialCost,
		columns:  []string{"material_id", "planning_period", "inventory_holding", "backorder"},
		required: true,
		decode: func(r *Record, ds *entities.Dataset) {
			ds.MaterialCosts = append(ds.MaterialCosts, entities.MaterialCostRow{
				Product:          entities.ProductID(r.String("material_id")),
				Period:           entities.Period(r.Int("planning_period")),
				InventoryHolding: r.Float("inventory_holding"),
				Backorder:        r.Float("backorder"),
			})
		},
		encode: func(ds *entities.Dataset) (rows [][]string) {
			for _, v := range ds.MaterialCosts {
				rows = append(rows, []string{string(v.Product), period(v.Period), num(v.InventoryHolding), num(v.Backorder)})
			}
			return rows
		},
	},
	{
		name:     TableSetupMatrix,
		columns:  []string{"machine_id", "material_id", "planning_period", "setup_time", "setup_cost"},
		required: true,
		decode: func(r *Record, ds *entities.Dataset) {
			ds.SetupMatrix = append(ds.SetupMatrix, entities.SetupRow{
				Machine:   entities.MachineID(r.String("machine_id")),
				Product:   entities.ProductID(r.String("material_id")),
				Period:    entities.Period(r.Int("planning_period")),
				SetupTime: r.Float("setup_time"),
				SetupCost: r.Float("setup_cost"),
			})
		},
		encode: func(ds *entities.Dataset) (rows [][]string) {
			for _, v := range ds.SetupMatrix {
				rows = append(rows, []string{string(v.Machine), string(v.Product), period(v.Period), num(v.SetupTime), num(v.SetupCost)})
			}
			return rows
		},
	},
	{
		name:     TableProduction,
		columns:  []string{"machine_id", "material_id", "planning_period", "lead_time", "production_time_per_base_uom"},
		required: true,
		decode: func(r *Record, ds *entities.Dataset) {
			ds.Production = append(ds.Production, entities.ProductionRow{
				Machine:        entities.MachineID(r.String("machine_id")),
				Product:        entities.ProductID(r.String("material_id")),
				Period:         entities.Period(r.Int("planning_period")),
				LeadTime:       r.Int("lead_time"),
				ProductionTime: r.Float("production_time_per_base_uom"),
			})
		},
		encode: func(ds *entities.Dataset) (rows [][]string) {
			for _, v := range ds.Production {
				rows = append(rows, []string{string(v.Machine), string(v.Product), period(v.Period), strconv.Itoa(v.LeadTime), num(v.ProductionTime)})
			}
			return rows
		},
	},
	{
		name: TableProductStructures,
		columns: []string{
			"machine_id_goods_received", "goods_received",
			"machine_id_goods_issued", "goods_issued",
			"planning_period", "bom_alternative", "ratio",
		},
		decode: func(r *Record, ds *entities.Dataset) {
			ds.ProductStructures = append(ds.ProductStructures, entities.ProductStructureRow{
				ReceivingMachine: entities.MachineID(r.String("machine_id_goods_received")),
				Received:         entities.ProductID(r.String("goods_received")),
				IssuingMachine:   entities.MachineID(r.String("machine_id_goods_issued")),
				Issued:           entities.ProductID(r.String("goods_issued")),
				Period:           entities.Period(r.Int("planning_period")),
				Alternative:      entities.Alternative(r.Int("bom_alternative")),
				Ratio:            r.Float("ratio"),
			})
		},
		encode: func(ds *entities.Dataset) (rows [][]string) {
			for _, v := range ds.ProductStructures {
				rows = append(rows, []string{
					string(v.ReceivingMachine), string(v.Received),
					string(v.IssuingMachine), string(v.Issued),
					period(v.Period), strconv.Itoa(int(v.Alternative)), num(v.Ratio),
				})
			}
			return rows
		},
	},
	{
		name:     TableProductToLine,
		columns:  []string{"machine_id", "material_id"},
		required: true,
		decode: func(r *Record, ds *entities.Dataset) {
			ds.ProductToLine = append(ds.ProductToLine, entities.ProductToLineRow{
				Machine: entities.MachineID(r.String("machine_id")),
				Product: entities.ProductID(r.String("material_id")),
			})
		},
		encode: func(ds *entities.Dataset) (rows [][]string) {
			for _, v := range ds.ProductToLine {
				rows = append(rows, []string{string(v.Machine), string(v.Product)})
			}
			return rows
		},
	},
	{
		name:     TableInitialLotSizingValues,
		columns:  []string{"scenario_id", "material_id", "initial_inventory", "initial_backorder"},
		required: true,
		decode: func(r *Record, ds *entities.Dataset) {
			ds.InitialLotSizingValues = append(ds.InitialLotSizingValues, entities.InitialLotSizingRow{
				Scenario:         entities.ScenarioID(r.String("scenario_id")),
				Product:          entities.ProductID(r.String("material_id")),
				InitialInventory: r.Float("initial_inventory"),
				InitialBackorder: r.Float("initial_backorder"),
			})
		},
		encode: func(ds *entities.Dataset) (rows [][]string) {
			for _, v := range ds.InitialLotSizingValues {
				rows = append(rows, []string{string(v.Scenario), string(v.Product), num(v.InitialInventory), num(v.InitialBackorder)})
			}
			return rows
		},
	},
	{
		name:     TableInitialLinkedLotSizingValues,
		columns:  []string{"scenario_id", "machine_id", "material_id", "initial_linked_lot_size"},
		required: true,
		decode: func(r *Record, ds *entities.Dataset) {
			ds.InitialLinkedLotSizingValues = append(ds.InitialLinkedLotSizingValues, entities.InitialLinkedLotSizingRow{
				Scenario:             entities.ScenarioID(r.String("scenario_id")),
				Machine:              entities.MachineID(r.String("machine_id")),
				Product:              entities.ProductID(r.String("material_id")),
				InitialLinkedLotSize: r.Float("initial_linked_lot_size"),
			})
		},
		encode: func(ds *entities.Dataset) (rows [][]string) {
			for _, v := range ds.InitialLinkedLotSizingValues {
				rows = append(rows, []string{string(v.Scenario), string(v.Machine), string(v.Product), num(v.InitialLinkedLotSize)})
			}
			return rows
		},
	},
	{
		name:    TableMaxProductionQuantity,
		columns: []string{"scenario_id", "machine_id", "material_id", "planning_period", "big_m"},
		decode: func(r *Record, ds *entities.Dataset) {
			ds.MaxProductionQuantities = append(ds.MaxProductionQuantities, entities.MaxProductionQuantityRow{
				Scenario: entities.ScenarioID(r.String("scenario_id")),
				Machine:  entities.MachineID(r.String("machine_id")),
				Product:  entities.ProductID(r.String("material_id")),
				Period:   entities.Period(r.Int("planning_period")),
				BigM:     r.Float("big_m"),
			})
		},
		encode: func(ds *entities.Dataset) (rows [][]string) {
			for _, v := range ds.MaxProductionQuantities {
				rows = append(rows, []string{string(v.Scenario), string(v.Machine), string(v.Product), period(v.Period), num(v.BigM)})
			}
			return rows
		},
	},
}
