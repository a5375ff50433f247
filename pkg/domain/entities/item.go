package entities

import "fmt"

// MachineID identifies a production line or machine
type MachineID string

// ProductID identifies a material (finished good, intermediate or raw material)
type ProductID string

// ScenarioID identifies a simulation instance (one demand/capacity realization)
type ScenarioID string

// Period is a planning bucket. Period 0 is the boundary state before the horizon.
type Period int

// BoundaryPeriod is the read-only period preceding the planning horizon
const BoundaryPeriod Period = 0

// Alternative distinguishes alternative BOMs producing the same machine/product
type Alternative int

// QuantityDomain is the variable domain of a product's quantities
type QuantityDomain int

const (
	Continuous QuantityDomain = iota
	Discrete
)

// String method for QuantityDomain enum
func (d QuantityDomain) String() string {
	switch d {
	case Continuous:
		return "Continuous"
	case Discrete:
		return "Discrete"
	default:
		return "Unknown"
	}
}

// MaterialType classifies a material by its position in the BOM network
type MaterialType int

const (
	FinishedGood MaterialType = iota
	Intermediate
	RawMaterial
)

// String method for MaterialType enum
func (t MaterialType) String() string {
	switch t {
	case FinishedGood:
		return "FINISHED_GOOD"
	case Intermediate:
		return "INTERMEDIATE"
	case RawMaterial:
		return "RAW_MATERIAL"
	default:
		return "UNKNOWN"
	}
}

// ParseMaterialType parses the relational representation of a material type
func ParseMaterialType(s string) (MaterialType, error) {
	switch s {
	case "FINISHED_GOOD":
		return FinishedGood, nil
	case "INTERMEDIATE":
		return Intermediate, nil
	case "RAW_MATERIAL":
		return RawMaterial, nil
	default:
		return RawMaterial, &ConfigurationError{
			Field:  "MaterialType",
			Value:  s,
			Reason: "expected FINISHED_GOOD, INTERMEDIATE or RAW_MATERIAL",
		}
	}
}

// ProcessNode is a product made on a specific machine, the vertex type of the BOM graph
type ProcessNode struct {
	Machine MachineID
	Product ProductID
}

func (n ProcessNode) String() string {
	return fmt.Sprintf("%s/%s", n.Machine, n.Product)
}

// BOMVariant is a process node together with the BOM alternative it consumes through
type BOMVariant struct {
	Node        ProcessNode
	Alternative Alternative
}

// MarshalText encodes the material type by name
func (t MaterialType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a material type name
func (t *MaterialType) UnmarshalText(b []byte) error {
	v, err := ParseMaterialType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
