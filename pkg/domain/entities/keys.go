package entities

import "fmt"

// Composite keys of the sparse parameter maps.

type ScenarioProductPeriod struct {
	Scenario ScenarioID
	Product  ProductID
	Period   Period
}

func (k ScenarioProductPeriod) String() string {
	return fmt.Sprintf("(%s, %s, %d)", k.Scenario, k.Product, k.Period)
}

type ScenarioMachinePeriod struct {
	Scenario ScenarioID
	Machine  MachineID
	Period   Period
}

func (k ScenarioMachinePeriod) String() string {
	return fmt.Sprintf("(%s, %s, %d)", k.Scenario, k.Machine, k.Period)
}

type ScenarioMachineProductPeriod struct {
	Scenario ScenarioID
	Machine  MachineID
	Product  ProductID
	Period   Period
}

func (k ScenarioMachineProductPeriod) String() string {
	return fmt.Sprintf("(%s, %s, %s, %d)", k.Scenario, k.Machine, k.Product, k.Period)
}

type ProductPeriod struct {
	Product ProductID
	Period  Period
}

func (k ProductPeriod) String() string {
	return fmt.Sprintf("(%s, %d)", k.Product, k.Period)
}

type MachineProductPeriod struct {
	Machine MachineID
	Product ProductID
	Period  Period
}

func (k MachineProductPeriod) String() string {
	return fmt.Sprintf("(%s, %s, %d)", k.Machine, k.Product, k.Period)
}

type ScenarioProduct struct {
	Scenario ScenarioID
	Product  ProductID
}

func (k ScenarioProduct) String() string {
	return fmt.Sprintf("(%s, %s)", k.Scenario, k.Product)
}

type ScenarioMachineProduct struct {
	Scenario ScenarioID
	Machine  MachineID
	Product  ProductID
}

func (k ScenarioMachineProduct) String() string {
	return fmt.Sprintf("(%s, %s, %s)", k.Scenario, k.Machine, k.Product)
}

// CoefficientKey addresses the production coefficient of a BOM edge in a period
type CoefficientKey struct {
	Receiver ProcessNode
	Issuer   ProcessNode
	Period   Period
}

func (k CoefficientKey) String() string {
	return fmt.Sprintf("(%s <- %s, %d)", k.Receiver, k.Issuer, k.Period)
}
