package bom_validator

import (
	"fmt"
	"slices"

	"github.com/vsinha/clsp/pkg/domain/entities"
)

// ValidationResult contains the results of product structure validation
type ValidationResult struct {
	HasCycles        bool
	CyclePaths       [][]entities.ProductID
	DuplicateRows    []entities.ProductStructureRow
	SelfReferences   []entities.ProductStructureRow
	UnknownMaterials []entities.ProductID
	Errors           []string
}

// Valid reports whether no problem was found
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// ValidateBOM checks product structure rows for cycles between products,
// duplicate rows and self-referencing rows.
func ValidateBOM(rows []entities.ProductStructureRow) *ValidationResult {
	result := &ValidationResult{
		CyclePaths:     make([][]entities.ProductID, 0),
		DuplicateRows:  make([]entities.ProductStructureRow, 0),
		SelfReferences: make([]entities.ProductStructureRow, 0),
		Errors:         make([]string, 0),
	}

	for _, row := range rows {
		if row.ReceivingMachine == row.IssuingMachine && row.Received == row.Issued {
			result.SelfReferences = append(result.SelfReferences, row)
		}
	}

	adjacencyMap := buildAdjacencyMap(rows)
	result.CyclePaths = detectCycles(adjacencyMap)
	result.HasCycles = len(result.CyclePaths) > 0
	result.DuplicateRows = detectDuplicateRows(rows)

	for _, cycle := range result.CyclePaths {
		result.Errors = append(result.Errors, fmt.Sprintf("BOM cycle detected: %v", cycle))
	}
	if len(result.DuplicateRows) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("Found %d duplicate product structure rows", len(result.DuplicateRows)))
	}
	if len(result.SelfReferences) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("Found %d self-consuming product structure rows", len(result.SelfReferences)))
	}

	return result
}

// ValidateBOMMaterialConsistency reports products referenced by the product
// structures that have no material type row.
func ValidateBOMMaterialConsistency(rows []entities.ProductStructureRow, materials []entities.MaterialTypeRow) *ValidationResult {
	result := &ValidationResult{
		UnknownMaterials: make([]entities.ProductID, 0),
		Errors:           make([]string, 0),
	}

	known := make(map[entities.ProductID]bool, len(materials))
	for _, m := range materials {
		known[m.Product] = true
	}

	reported := make(map[entities.ProductID]bool)
	for _, row := range rows {
		for _, p := range []entities.ProductID{row.Received, row.Issued} {
			if !known[p] && !reported[p] {
				reported[p] = true
				result.UnknownMaterials = append(result.UnknownMaterials, p)
			}
		}
	}
	slices.Sort(result.UnknownMaterials)

	if len(result.UnknownMaterials) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("Products without material type: %v", result.UnknownMaterials))
	}
	return result
}

// buildAdjacencyMap maps each received product to the products it consumes
func buildAdjacencyMap(rows []entities.ProductStructureRow) map[entities.ProductID][]entities.ProductID {
	adjacencyMap := make(map[entities.ProductID][]entities.ProductID)

	for _, row := range rows {
		if row.Received == row.Issued {
			continue
		}
		children := adjacencyMap[row.Received]
		if !slices.Contains(children, row.Issued) {
			adjacencyMap[row.Received] = append(children, row.Issued)
		}
	}

	for parent := range adjacencyMap {
		slices.Sort(adjacencyMap[parent])
	}
	return adjacencyMap
}

// detectCycles uses DFS to find cycles, visiting parents in sorted order
func detectCycles(adjacencyMap map[entities.ProductID][]entities.ProductID) [][]entities.ProductID {
	visited := make(map[entities.ProductID]bool)
	recursionStack := make(map[entities.ProductID]bool)
	cycles := make([][]entities.ProductID, 0)

	parents := make([]entities.ProductID, 0, len(adjacencyMap))
	for parent := range adjacencyMap {
		parents = append(parents, parent)
	}
	slices.Sort(parents)

	for _, parent := range parents {
		if !visited[parent] {
			dfsDetectCycle(parent, adjacencyMap, visited, recursionStack, nil, &cycles)
		}
	}

	return cycles
}

func dfsDetectCycle(
	current entities.ProductID,
	adjacencyMap map[entities.ProductID][]entities.ProductID,
	visited map[entities.ProductID]bool,
	recursionStack map[entities.ProductID]bool,
	path []entities.ProductID,
	cycles *[][]entities.ProductID,
) {
	visited[current] = true
	recursionStack[current] = true
	path = append(path, current)

	for _, child := range adjacencyMap[current] {
		if !visited[child] {
			dfsDetectCycle(child, adjacencyMap, visited, recursionStack, path, cycles)
		} else if recursionStack[child] {
			cycleStart := slices.Index(path, child)
			if cycleStart != -1 {
				cycle := make([]entities.ProductID, 0, len(path)-cycleStart+1)
				cycle = append(cycle, path[cycleStart:]...)
				cycle = append(cycle, child)
				*cycles = append(*cycles, cycle)
			}
		}
	}

	recursionStack[current] = false
}

// detectDuplicateRows finds rows repeating receiver, issuer, period and alternative
func detectDuplicateRows(rows []entities.ProductStructureRow) []entities.ProductStructureRow {
	type rowKey struct {
		receiver    entities.ProcessNode
		issuer      entities.ProcessNode
		period      entities.Period
		alternative entities.Alternative
	}

	seen := make(map[rowKey]bool)
	duplicates := make([]entities.ProductStructureRow, 0)

	for _, row := range rows {
		key := rowKey{
			receiver:    entities.ProcessNode{Machine: row.ReceivingMachine, Product: row.Received},
			issuer:      entities.ProcessNode{Machine: row.IssuingMachine, Product: row.Issued},
			period:      row.Period,
			alternative: row.Alternative,
		}
		if seen[key] {
			duplicates = append(duplicates, row)
		} else {
			seen[key] = true
		}
	}

	return duplicates
}
