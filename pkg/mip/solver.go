package mip

import (
	"context"
	"time"
)

// Status is the outcome of an optimization run
type Status int

const (
	// Optimal: an assignment was found and proven optimal
	Optimal Status = iota
	// Feasible: an assignment was found before the budget ran out
	Feasible
	// NoSolutionFound: the budget ran out before any assignment was found
	NoSolutionFound
	// Infeasible: no assignment exists
	Infeasible
)

// String method for Status enum
func (s Status) String() string {
	switch s {
	case Optimal:
		return "OPTIMAL"
	case Feasible:
		return "FEASIBLE"
	case NoSolutionFound:
		return "NO_SOLUTION_FOUND"
	case Infeasible:
		return "INFEASIBLE"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the status by name
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// HasAssignment reports whether the status carries variable values
func (s Status) HasAssignment() bool {
	return s == Optimal || s == Feasible
}

// Solution is what a solver reports back. Values is indexed by VarID and is
// only set when the status has an assignment. Bound is meaningful for
// Optimal, Feasible and NoSolutionFound.
type Solution struct {
	Status    Status
	Objective float64
	Bound     float64
	Values    []float64
	Nodes     int
	Elapsed   time.Duration
}

// Value returns the solved value of a variable
func (s *Solution) Value(id VarID) float64 {
	return s.Values[id]
}

// Solver optimizes a model within a soft wall-clock budget. Running out of
// budget is not an error; it is reported through the status.
type Solver interface {
	Optimize(ctx context.Context, m *Model, budget time.Duration) (*Solution, error)
}
