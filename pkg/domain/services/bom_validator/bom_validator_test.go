package bom_validator

import (
	"testing"

	"github.com/vsinha/clsp/pkg/domain/entities"
)

func structure(received, issued entities.ProductID) entities.ProductStructureRow {
	return entities.ProductStructureRow{
		ReceivingMachine: "ASSEMBLY",
		Received:         received,
		IssuingMachine:   "PRESS",
		Issued:           issued,
		Period:           1,
		Alternative:      1,
		Ratio:            1,
	}
}

func TestBOMValidator_DetectSimpleCycle(t *testing.T) {
	// A consumes B, B consumes A
	rows := []entities.ProductStructureRow{
		structure("A", "B"),
		structure("B", "A"),
	}

	result := ValidateBOM(rows)

	if !result.HasCycles {
		t.Error("Expected cycle to be detected")
	}
	if len(result.CyclePaths) != 1 {
		t.Fatalf("Expected 1 cycle path, got %d", len(result.CyclePaths))
	}
	expected := []entities.ProductID{"A", "B", "A"}
	for i, p := range expected {
		if result.CyclePaths[0][i] != p {
			t.Errorf("Expected cycle %v, got %v", expected, result.CyclePaths[0])
			break
		}
	}
	if result.Valid() {
		t.Error("Expected validation errors for cycles")
	}
}

func TestBOMValidator_DetectLongerCycle(t *testing.T) {
	rows := []entities.ProductStructureRow{
		structure("A", "B"),
		structure("B", "C"),
		structure("C", "A"),
	}

	result := ValidateBOM(rows)

	if !result.HasCycles {
		t.Fatal("Expected cycle to be detected")
	}
	if got := len(result.CyclePaths[0]); got != 4 {
		t.Errorf("Expected cycle of length 4 (closed), got %d: %v", got, result.CyclePaths[0])
	}
}

func TestBOMValidator_NoCycles(t *testing.T) {
	// Diamond: A consumes B and C, both consume D
	rows := []entities.ProductStructureRow{
		structure("A", "B"),
		structure("A", "C"),
		structure("B", "D"),
		structure("C", "D"),
	}

	result := ValidateBOM(rows)

	if result.HasCycles {
		t.Errorf("Expected no cycles, got %v", result.CyclePaths)
	}
	if !result.Valid() {
		t.Errorf("Expected valid BOM, got errors: %v", result.Errors)
	}
}

func TestBOMValidator_DetectDuplicateRows(t *testing.T) {
	rows := []entities.ProductStructureRow{
		structure("A", "B"),
		structure("A", "B"),
	}
	other := structure("A", "B")
	other.Alternative = 2
	rows = append(rows, other)

	result := ValidateBOM(rows)

	if len(result.DuplicateRows) != 1 {
		t.Errorf("Expected 1 duplicate row, got %d", len(result.DuplicateRows))
	}
	if result.Valid() {
		t.Error("Expected validation error for duplicates")
	}
}

func TestBOMValidator_SelfReference(t *testing.T) {
	self := structure("A", "A")
	self.IssuingMachine = self.ReceivingMachine

	result := ValidateBOM([]entities.ProductStructureRow{self})

	if len(result.SelfReferences) != 1 {
		t.Errorf("Expected 1 self reference, got %d", len(result.SelfReferences))
	}
	if result.HasCycles {
		t.Error("Self references must not be reported as cycles")
	}
}

func TestBOMValidator_MaterialConsistency(t *testing.T) {
	rows := []entities.ProductStructureRow{structure("A", "B"), structure("A", "C")}
	materials := []entities.MaterialTypeRow{
		{Product: "A", Type: entities.FinishedGood},
		{Product: "B", Type: entities.RawMaterial},
	}

	result := ValidateBOMMaterialConsistency(rows, materials)

	if len(result.UnknownMaterials) != 1 || result.UnknownMaterials[0] != "C" {
		t.Errorf("Expected unknown material C, got %v", result.UnknownMaterials)
	}
}

func TestBOMValidator_EmptyBOM(t *testing.T) {
	result := ValidateBOM(nil)

	if !result.Valid() {
		t.Errorf("Expected empty BOM to be valid, got %v", result.Errors)
	}
}
