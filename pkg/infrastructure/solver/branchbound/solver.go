// Package branchbound is a reference mip.Solver: depth-first branch and bound
// over LP relaxations solved with gonum's simplex. Every node rebuilds a dense
// LP without warm start, so it is only suited to toy instances of a few
// hundred variables. Real instances need another engine plugged in through
// mip.Solver, or a node limit and time budget to return the incumbent.
package branchbound

import (
	"context"
	"math"
	"slices"
	"time"

	"github.com/vsinha/clsp/pkg/infrastructure/ctxlog"
	"github.com/vsinha/clsp/pkg/mip"
)

// Options tune the search. Zero values select the defaults.
type Options struct {
	MaxNodes             int
	IntegralityTolerance float64
	Penalty              float64
}

const (
	DefaultMaxNodes             = 100000
	DefaultIntegralityTolerance = 1e-6
	DefaultPenalty              = 1e7
)

// Solver implements mip.Solver
type Solver struct {
	opts Options
}

var _ mip.Solver = (*Solver)(nil)

// New creates a solver, filling unset options with defaults
func New(opts Options) *Solver {
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = DefaultMaxNodes
	}
	if opts.IntegralityTolerance <= 0 {
		opts.IntegralityTolerance = DefaultIntegralityTolerance
	}
	if opts.Penalty <= 0 {
		opts.Penalty = DefaultPenalty
	}
	return &Solver{opts: opts}
}

type node struct {
	lower []float64
	upper []float64
	bound float64
	depth int
}

// Optimize searches until the tree is exhausted, the node limit is reached,
// the budget elapses or ctx is done. Limits are checked between nodes only,
// so the root relaxation is always solved. A budget of zero or less means no
// time limit.
func (s *Solver) Optimize(ctx context.Context, m *mip.Model, budget time.Duration) (*mip.Solution, error) {
	logger := ctxlog.FromContext(ctx)
	start := time.Now()
	var deadline time.Time
	if budget > 0 {
		deadline = start.Add(budget)
	}

	rel, lower, upper, feasible, err := presolve(m, s.opts.Penalty, s.opts.IntegralityTolerance)
	if err != nil {
		return nil, err
	}
	if !feasible {
		logger.Debug("Presolve proved infeasibility.", "model", m.Name)
		return &mip.Solution{Status: mip.Infeasible, Elapsed: time.Since(start)}, nil
	}

	stack := []node{{lower: lower, upper: upper, bound: math.Inf(-1)}}
	var incumbent []float64
	best := math.Inf(1)
	nodes := 0
	stopped := false

	for len(stack) > 0 {
		if nodes > 0 && s.exhausted(ctx, deadline, nodes) {
			stopped = true
			break
		}

		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if incumbent != nil && nd.bound >= best-gapTolerance(best) {
			continue
		}

		nodes++
		res, err := rel.solve(nd.lower, nd.upper)
		if err != nil {
			return nil, err
		}
		if !res.feasible {
			continue
		}
		if incumbent != nil && res.objective >= best-gapTolerance(best) {
			continue
		}

		j := s.branchVariable(m, res.x)
		if j < 0 {
			incumbent = s.clean(m, res.x)
			best = m.ObjectiveValue(incumbent)
			logger.Debug("New incumbent.", "objective", best, "node", nodes, "depth", nd.depth)
			continue
		}

		floor := math.Floor(res.x[j])
		down := node{lower: nd.lower, upper: slices.Clone(nd.upper), bound: res.objective, depth: nd.depth + 1}
		down.upper[j] = floor
		up := node{lower: slices.Clone(nd.lower), upper: nd.upper, bound: res.objective, depth: nd.depth + 1}
		up.lower[j] = floor + 1

		// the child nearer to the relaxed value is explored first
		if res.x[j]-floor >= 0.5 {
			stack = append(stack, down, up)
		} else {
			stack = append(stack, up, down)
		}
	}

	sol := &mip.Solution{Nodes: nodes, Elapsed: time.Since(start)}
	switch {
	case !stopped && incumbent != nil:
		sol.Status = mip.Optimal
		sol.Objective = best
		sol.Bound = best
		sol.Values = incumbent
	case !stopped:
		sol.Status = mip.Infeasible
	default:
		bound := best
		for _, nd := range stack {
			bound = math.Min(bound, nd.bound)
		}
		sol.Bound = bound
		if incumbent != nil {
			sol.Status = mip.Feasible
			sol.Objective = best
			sol.Values = incumbent
		} else {
			sol.Status = mip.NoSolutionFound
		}
	}

	logger.Debug("Branch and bound finished.", "status", sol.Status, "nodes", nodes, "open", len(stack), "elapsed", sol.Elapsed)
	return sol, nil
}

func (s *Solver) exhausted(ctx context.Context, deadline time.Time, nodes int) bool {
	if ctx.Err() != nil || nodes >= s.opts.MaxNodes {
		return true
	}
	return !deadline.IsZero() && time.Now().After(deadline)
}

// branchVariable returns the most fractional integral variable, or -1
func (s *Solver) branchVariable(m *mip.Model, x []float64) int {
	best, bestDist := -1, s.opts.IntegralityTolerance
	for _, v := range m.Vars() {
		if !v.Type.Integral() {
			continue
		}
		f := x[v.ID] - math.Floor(x[v.ID])
		if dist := math.Min(f, 1-f); dist > bestDist {
			best, bestDist = int(v.ID), dist
		}
	}
	return best
}

// clean rounds integral variables and flushes float noise
func (s *Solver) clean(m *mip.Model, x []float64) []float64 {
	out := make([]float64, len(x))
	for _, v := range m.Vars() {
		val := x[v.ID]
		if v.Type.Integral() {
			val = math.Round(val)
		} else if math.Abs(val) < 1e-9 {
			val = 0
		}
		out[v.ID] = val
	}
	return out
}

func gapTolerance(v float64) float64 {
	return 1e-9 * math.Max(1, math.Abs(v))
}
