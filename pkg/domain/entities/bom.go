package entities

import (
	"cmp"
	"slices"
)

// Consumer is a receiving process node drawing Ratio units of a product per
// unit of its own production.
type Consumer struct {
	Receiver ProcessNode
	Ratio    float64
}

// BOMGraph is the directed multigraph of the bill of materials. The
// predecessor and successor views are mutual inverses.
type BOMGraph struct {
	predecessors map[BOMVariant]map[ProcessNode]struct{}
	successors   map[ProcessNode]map[BOMVariant]struct{}
	coefficients Lookup[CoefficientKey, float64]
}

// NewBOMGraph creates an empty BOM graph
func NewBOMGraph() *BOMGraph {
	return &BOMGraph{
		predecessors: make(map[BOMVariant]map[ProcessNode]struct{}),
		successors:   make(map[ProcessNode]map[BOMVariant]struct{}),
		coefficients: NewLookup[CoefficientKey, float64]("ProductionCoefficient", 0),
	}
}

// AddEdge records that receiver consumes issuer's output in period with the
// given ratio. Self-consumption is dropped and reported as false.
func (g *BOMGraph) AddEdge(receiver BOMVariant, issuer ProcessNode, period Period, ratio float64) bool {
	if receiver.Node == issuer {
		return false
	}

	preds, ok := g.predecessors[receiver]
	if !ok {
		preds = make(map[ProcessNode]struct{})
		g.predecessors[receiver] = preds
	}
	preds[issuer] = struct{}{}

	succs, ok := g.successors[issuer]
	if !ok {
		succs = make(map[BOMVariant]struct{})
		g.successors[issuer] = succs
	}
	succs[receiver] = struct{}{}

	g.coefficients.Set(CoefficientKey{Receiver: receiver.Node, Issuer: issuer, Period: period}, ratio)
	return true
}

// Predecessors returns the issuing nodes consumed by a BOM variant
func (g *BOMGraph) Predecessors(v BOMVariant) []ProcessNode {
	nodes := make([]ProcessNode, 0, len(g.predecessors[v]))
	for n := range g.predecessors[v] {
		nodes = append(nodes, n)
	}
	slices.SortFunc(nodes, compareNodes)
	return nodes
}

// Successors returns the BOM variants consuming an issuing node
func (g *BOMGraph) Successors(n ProcessNode) []BOMVariant {
	variants := make([]BOMVariant, 0, len(g.successors[n]))
	for v := range g.successors[n] {
		variants = append(variants, v)
	}
	slices.SortFunc(variants, compareVariants)
	return variants
}

// Variants returns every BOM variant with at least one predecessor
func (g *BOMGraph) Variants() []BOMVariant {
	variants := make([]BOMVariant, 0, len(g.predecessors))
	for v := range g.predecessors {
		variants = append(variants, v)
	}
	slices.SortFunc(variants, compareVariants)
	return variants
}

// Issuers returns every node with at least one successor
func (g *BOMGraph) Issuers() []ProcessNode {
	nodes := make([]ProcessNode, 0, len(g.successors))
	for n := range g.successors {
		nodes = append(nodes, n)
	}
	slices.SortFunc(nodes, compareNodes)
	return nodes
}

// HasSuccessors reports whether any node producing product is consumed downstream
func (g *BOMGraph) HasSuccessors(product ProductID) bool {
	for n, succs := range g.successors {
		if n.Product == product && len(succs) > 0 {
			return true
		}
	}
	return false
}

// Coefficient returns the production coefficient of an edge in a period
func (g *BOMGraph) Coefficient(receiver, issuer ProcessNode, period Period) (float64, error) {
	return g.coefficients.Get(CoefficientKey{Receiver: receiver, Issuer: issuer, Period: period})
}

// Consumers returns the receiving nodes that draw product in period.
// Inventory is pooled per product, so a receiver fed by several issuing
// machines consumes once, with the coefficient of the first issuer.
// Alternatives are additive: a receiver with alternatives drawing different
// products consumes every one of them.
func (g *BOMGraph) Consumers(product ProductID, period Period) []Consumer {
	var consumers []Consumer
	seen := make(map[ProcessNode]bool)
	for _, issuer := range g.Issuers() {
		if issuer.Product != product {
			continue
		}
		for _, v := range g.Successors(issuer) {
			if seen[v.Node] {
				continue
			}
			ratio, err := g.Coefficient(v.Node, issuer, period)
			if err != nil {
				// edge not effective in this period
				continue
			}
			seen[v.Node] = true
			consumers = append(consumers, Consumer{Receiver: v.Node, Ratio: ratio})
		}
	}
	return consumers
}

// EdgeCount returns the number of distinct (variant, issuer) edges
func (g *BOMGraph) EdgeCount() int {
	count := 0
	for _, preds := range g.predecessors {
		count += len(preds)
	}
	return count
}

func compareNodes(a, b ProcessNode) int {
	if c := cmp.Compare(a.Machine, b.Machine); c != 0 {
		return c
	}
	return cmp.Compare(a.Product, b.Product)
}

func compareVariants(a, b BOMVariant) int {
	if c := compareNodes(a.Node, b.Node); c != 0 {
		return c
	}
	return cmp.Compare(a.Alternative, b.Alternative)
}
