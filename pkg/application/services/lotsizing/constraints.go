package lotsizing

import (
	"fmt"

	"github.com/vsinha/clsp/pkg/domain/entities"
	"github.com/vsinha/clsp/pkg/mip"
)

// addBoundaryConstraints fixes period 0 to the initial state and closes the
// horizon without inventory or backlog.
func (b *Builder) addBoundaryConstraints(m *Model) error {
	d := b.data
	horizon := d.Horizon()

	for _, s := range d.Scenarios {
		for _, p := range d.Products {
			sp := entities.ScenarioProduct{Scenario: s, Product: p}
			inventory, err := d.InitialInventory.Get(sp)
			if err != nil {
				return err
			}
			backorder, err := d.InitialBackorder.Get(sp)
			if err != nil {
				return err
			}

			first := entities.ScenarioProductPeriod{Scenario: s, Product: p, Period: entities.BoundaryPeriod}
			last := entities.ScenarioProductPeriod{Scenario: s, Product: p, Period: horizon}
			rows := []struct {
				family string
				v      mip.VarID
				rhs    float64
			}{
				{RowInitialInventory, m.Inventory[first], inventory},
				{RowFinalInventory, m.Inventory[last], 0},
				{RowInitialBackorder, m.Backorder[first], backorder},
				{RowFinalBackorder, m.Backorder[last], 0},
			}
			for _, r := range rows {
				name := fmt.Sprintf("%s_%s_%s", r.family, s, p)
				if err := m.MIP.AddConstraint(r.family, name, mip.NewExpr().Add(r.v, 1), mip.Equal, r.rhs); err != nil {
					return err
				}
			}
		}

		for _, node := range d.Routings() {
			carry, err := d.InitialLinkedLotSize.Get(entities.ScenarioMachineProduct{Scenario: s, Machine: node.Machine, Product: node.Product})
			if err != nil {
				return err
			}
			k := entities.ScenarioMachineProductPeriod{Scenario: s, Machine: node.Machine, Product: node.Product, Period: entities.BoundaryPeriod}
			name := fmt.Sprintf("%s_%s_%s_%s", RowInitialLinkedLot, s, node.Machine, node.Product)
			if err := m.MIP.AddConstraint(RowInitialLinkedLot, name, mip.NewExpr().Add(m.LinkedLot[k], 1), mip.Equal, carry); err != nil {
				return err
			}
		}
	}
	return nil
}

// addLeadTimeConstraints forbids production that would arrive after the horizon
func (b *Builder) addLeadTimeConstraints(m *Model) error {
	d := b.data
	horizon := d.Horizon()

	for _, node := range d.Routings() {
		for _, t := range d.Periods {
			lt, err := d.LeadTime.Get(entities.MachineProductPeriod{Machine: node.Machine, Product: node.Product, Period: t})
			if err != nil {
				return err
			}
			if t+entities.Period(lt) <= horizon {
				continue
			}
			for _, s := range d.Scenarios {
				k := entities.ScenarioMachineProductPeriod{Scenario: s, Machine: node.Machine, Product: node.Product, Period: t}
				if err := m.MIP.AddConstraint(RowLeadTime, VariableName(RowLeadTime, k), mip.NewExpr().Add(m.Production[k], 1), mip.Equal, 0); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// arrivals maps each (machine, product, period) to the start periods whose
// production becomes available in that period.
func (b *Builder) arrivals() (map[entities.MachineProductPeriod][]entities.Period, error) {
	d := b.data
	horizon := d.Horizon()
	out := make(map[entities.MachineProductPeriod][]entities.Period)

	for _, node := range d.Routings() {
		for _, start := range d.Periods {
			lt, err := d.LeadTime.Get(entities.MachineProductPeriod{Machine: node.Machine, Product: node.Product, Period: start})
			if err != nil {
				return nil, err
			}
			arrival := start + entities.Period(lt)
			if arrival > horizon {
				continue
			}
			key := entities.MachineProductPeriod{Machine: node.Machine, Product: node.Product, Period: arrival}
			out[key] = append(out[key], start)
		}
	}
	return out, nil
}

// addMaterialBalance links inventory, backorder, arriving production and
// primary plus secondary demand for every scenario, product and period:
//
//	INV[t-1] + BO[t] + arrivals[t] - INV[t] - BO[t-1] - secondary[t] = demand[t]
func (b *Builder) addMaterialBalance(m *Model) error {
	d := b.data

	arrivals, err := b.arrivals()
	if err != nil {
		return err
	}

	for _, s := range d.Scenarios {
		for _, p := range d.Products {
			for _, t := range d.Periods {
				demand, err := d.Demand.Get(entities.ScenarioProductPeriod{Scenario: s, Product: p, Period: t})
				if err != nil {
					return err
				}

				now := entities.ScenarioProductPeriod{Scenario: s, Product: p, Period: t}
				prev := entities.ScenarioProductPeriod{Scenario: s, Product: p, Period: t - 1}
				expr := mip.NewExpr().
					Add(m.Inventory[prev], 1).
					Add(m.Backorder[now], 1).
					Add(m.Inventory[now], -1).
					Add(m.Backorder[prev], -1)

				for _, machine := range d.Lines(p) {
					for _, start := range arrivals[entities.MachineProductPeriod{Machine: machine, Product: p, Period: t}] {
						expr.Add(m.Production[entities.ScenarioMachineProductPeriod{Scenario: s, Machine: machine, Product: p, Period: start}], 1)
					}
				}

				for _, c := range d.BOM.Consumers(p, t) {
					k := entities.ScenarioMachineProductPeriod{Scenario: s, Machine: c.Receiver.Machine, Product: c.Receiver.Product, Period: t}
					v, ok := m.Production[k]
					if !ok {
						return &entities.DataIncompleteError{Relation: "ProductToLine", Key: c.Receiver.String()}
					}
					expr.Add(v, -c.Ratio)
				}

				name := fmt.Sprintf("%s_%s_%s_%d", RowMaterialBalance, s, p, t)
				if err := m.MIP.AddConstraint(RowMaterialBalance, name, expr, mip.Equal, demand); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// addCapacityConstraints bounds production and setup time per machine
func (b *Builder) addCapacityConstraints(m *Model) error {
	d := b.data

	for _, s := range d.Scenarios {
		for _, t := range d.Periods {
			for _, machine := range d.Machines {
				capacity, err := d.Capacity.Get(entities.ScenarioMachinePeriod{Scenario: s, Machine: machine, Period: t})
				if err != nil {
					return err
				}

				expr := mip.NewExpr()
				for _, p := range d.LineProducts(machine) {
					mpt := entities.MachineProductPeriod{Machine: machine, Product: p, Period: t}
					ptime, err := d.ProductionTime.Get(mpt)
					if err != nil {
						return err
					}
					stime, err := d.SetupTime.Get(mpt)
					if err != nil {
						return err
					}
					k := entities.ScenarioMachineProductPeriod{Scenario: s, Machine: machine, Product: p, Period: t}
					expr.Add(m.Production[k], ptime).Add(m.Setup[k], stime)
				}

				name := fmt.Sprintf("%s_%s_%s_%d", RowCapacity, s, machine, t)
				if err := m.MIP.AddConstraint(RowCapacity, name, expr, mip.LessEqual, capacity); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// addSetupActivation allows production only with a setup or a carried-over
// setup and defines the total setup state.
func (b *Builder) addSetupActivation(m *Model) error {
	d := b.data

	for _, s := range d.Scenarios {
		for _, t := range d.Periods {
			for _, node := range d.Routings() {
				bigM, err := d.BigM.Get(entities.ScenarioMachineProductPeriod{Scenario: s, Machine: node.Machine, Product: node.Product, Period: t})
				if err != nil {
					return err
				}
				k := entities.ScenarioMachineProductPeriod{Scenario: s, Machine: node.Machine, Product: node.Product, Period: t}
				prev := k
				prev.Period = t - 1

				activation := mip.NewExpr().
					Add(m.Production[k], 1).
					Add(m.Setup[k], -bigM).
					Add(m.LinkedLot[prev], -bigM)
				if err := m.MIP.AddConstraint(RowBigM, VariableName(RowBigM, k), activation, mip.LessEqual, 0); err != nil {
					return err
				}

				total := mip.NewExpr().
					Add(m.TotalSetup[k], 1).
					Add(m.Setup[k], -1).
					Add(m.LinkedLot[prev], -1)
				if err := m.MIP.AddConstraint(RowTotalSetup, VariableName(RowTotalSetup, k), total, mip.Equal, 0); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// addLinkedLotSynchronization keeps at most one carried-over setup per
// machine, requires every carryover to originate from a setup or an earlier
// carryover, and prevents a carried product from sharing its period with a
// setup for another product.
func (b *Builder) addLinkedLotSynchronization(m *Model) error {
	d := b.data

	for _, s := range d.Scenarios {
		for _, t := range d.Periods {
			for _, machine := range d.Machines {
				products := d.LineProducts(machine)
				if len(products) == 0 {
					continue
				}

				unique := mip.NewExpr()
				for _, p := range products {
					unique.Add(m.LinkedLot[entities.ScenarioMachineProductPeriod{Scenario: s, Machine: machine, Product: p, Period: t}], 1)
				}
				name := fmt.Sprintf("%s_%s_%s_%d", RowLinkedLotUnique, s, machine, t)
				if err := m.MIP.AddConstraint(RowLinkedLotUnique, name, unique, mip.LessEqual, 1); err != nil {
					return err
				}

				for _, p := range products {
					k := entities.ScenarioMachineProductPeriod{Scenario: s, Machine: machine, Product: p, Period: t}
					prev := k
					prev.Period = t - 1

					provenance := mip.NewExpr().
						Add(m.LinkedLot[k], 1).
						Add(m.Setup[k], -1).
						Add(m.LinkedLot[prev], -1)
					if err := m.MIP.AddConstraint(RowLinkedLotProvenance, VariableName(RowLinkedLotProvenance, k), provenance, mip.LessEqual, 0); err != nil {
						return err
					}

					for _, other := range products {
						if other == p {
							continue
						}
						rival := k
						rival.Product = other
						sync := mip.NewExpr().
							Add(m.LinkedLot[k], 1).
							Add(m.LinkedLot[prev], 1).
							Add(m.Setup[k], -1).
							Add(m.Setup[rival], 1)
						name := fmt.Sprintf("%s_%s_%s_%s_%s_%d", RowLinkedLotSynchronize, s, machine, p, other, t)
						if err := m.MIP.AddConstraint(RowLinkedLotSynchronize, name, sync, mip.LessEqual, 2); err != nil {
							return err
						}
					}
				}
			}
		}
	}
	return nil
}
