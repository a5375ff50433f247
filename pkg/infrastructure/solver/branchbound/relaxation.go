package branchbound

import (
	"errors"
	"fmt"
	"math"

	"github.com/vsinha/clsp/pkg/mip"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// ErrUnbounded is returned when a relaxation has no finite optimum
var ErrUnbounded = errors.New("branchbound: relaxation is unbounded")

// feasibilityTol is the absolute slack allowed on rows and artificials
const feasibilityTol = 1e-6

type row struct {
	terms []mip.Term
	sense mip.Sense
	rhs   float64
}

// relaxation is the presolved LP relaxation of a model. Bounds are passed
// per node so one relaxation serves the whole search.
type relaxation struct {
	model   *mip.Model
	cost    []float64
	rows    []row
	penalty float64
}

type lpResult struct {
	feasible  bool
	x         []float64
	objective float64
}

// presolve turns singleton rows into bounds, checks empty rows and rounds
// the bounds of integral variables.
func presolve(m *mip.Model, penalty, intTol float64) (*relaxation, []float64, []float64, bool, error) {
	vars := m.Vars()
	n := len(vars)
	lower := make([]float64, n)
	upper := make([]float64, n)
	for _, v := range vars {
		if math.IsInf(v.Lower, -1) {
			return nil, nil, nil, false, fmt.Errorf("variable %s: unbounded below is not supported", v.Name)
		}
		lower[v.ID] = v.Lower
		upper[v.ID] = v.Upper
	}

	cost := make([]float64, n)
	for _, t := range m.Objective() {
		cost[t.Var] = t.Coef
	}

	rel := &relaxation{model: m, cost: cost, penalty: penalty}
	for _, c := range m.Constraints() {
		switch len(c.Terms) {
		case 0:
			if !satisfied(0, c.Sense, c.RHS) {
				return nil, nil, nil, false, nil
			}
		case 1:
			tighten(lower, upper, c.Terms[0], c.Sense, c.RHS)
		default:
			rel.rows = append(rel.rows, row{terms: c.Terms, sense: c.Sense, rhs: c.RHS})
		}
	}

	for _, v := range vars {
		j := v.ID
		if v.Type.Integral() {
			lower[j] = math.Ceil(lower[j] - intTol)
			upper[j] = math.Floor(upper[j] + intTol)
		}
		if lower[j] > upper[j]+feasibilityTol {
			return nil, nil, nil, false, nil
		}
		if lower[j] > upper[j] {
			upper[j] = lower[j]
		}
	}
	return rel, lower, upper, true, nil
}

func tighten(lower, upper []float64, t mip.Term, sense mip.Sense, rhs float64) {
	v := rhs / t.Coef
	if t.Coef < 0 {
		switch sense {
		case mip.LessEqual:
			sense = mip.GreaterEqual
		case mip.GreaterEqual:
			sense = mip.LessEqual
		}
	}
	if sense == mip.LessEqual || sense == mip.Equal {
		upper[t.Var] = math.Min(upper[t.Var], v)
	}
	if sense == mip.GreaterEqual || sense == mip.Equal {
		lower[t.Var] = math.Max(lower[t.Var], v)
	}
}

func satisfied(activity float64, sense mip.Sense, rhs float64) bool {
	switch sense {
	case mip.LessEqual:
		return activity <= rhs+feasibilityTol
	case mip.GreaterEqual:
		return activity >= rhs-feasibilityTol
	default:
		return math.Abs(activity-rhs) <= feasibilityTol
	}
}

type stdRow struct {
	cols  []int
	vals  []float64
	sense mip.Sense
	rhs   float64
}

// solve optimizes the relaxation within the given bounds. Variables are
// shifted to their lower bound, fixed variables substituted and finite upper
// bounds added as rows. Every row gets a slack or an artificial column so the
// identity is a feasible starting basis; artificials carry a penalty cost and
// any artificial left positive means the node is infeasible.
func (r *relaxation) solve(lower, upper []float64) (lpResult, error) {
	n := len(lower)
	x := make([]float64, n)
	copy(x, lower)

	const fixed, candidate = -1, -2
	col := make([]int, n)
	for j := range col {
		if upper[j]-lower[j] <= 1e-9 {
			col[j] = fixed
		} else {
			col[j] = candidate
		}
	}

	used := make([]bool, n)
	var rows []stdRow
	for _, rw := range r.rows {
		rhs := rw.rhs
		var cols []int
		var vals []float64
		for _, t := range rw.terms {
			rhs -= t.Coef * lower[t.Var]
			if col[t.Var] == fixed {
				continue
			}
			cols = append(cols, int(t.Var))
			vals = append(vals, t.Coef)
			used[t.Var] = true
		}
		if len(cols) == 0 {
			if !satisfied(0, rw.sense, rhs) {
				return lpResult{}, nil
			}
			continue
		}
		rows = append(rows, stdRow{cols: cols, vals: vals, sense: rw.sense, rhs: rhs})
	}
	for j := 0; j < n; j++ {
		if col[j] == candidate && !math.IsInf(upper[j], 1) {
			rows = append(rows, stdRow{cols: []int{j}, vals: []float64{1}, sense: mip.LessEqual, rhs: upper[j] - lower[j]})
			used[j] = true
		}
	}

	structural := 0
	maxCost := 0.0
	for j := 0; j < n; j++ {
		if col[j] != candidate {
			continue
		}
		if !used[j] {
			// appears in no row and has no upper bound
			if r.cost[j] < 0 {
				return lpResult{}, fmt.Errorf("%w: %s", ErrUnbounded, r.model.Var(mip.VarID(j)).Name)
			}
			col[j] = fixed
			continue
		}
		col[j] = structural
		structural++
		maxCost = math.Max(maxCost, math.Abs(r.cost[j]))
	}

	if structural == 0 {
		return lpResult{feasible: true, x: x, objective: r.model.ObjectiveValue(x)}, nil
	}

	// one basic column per row, plus a surplus for GE rows with positive rhs
	m := len(rows)
	extra := 0
	for i := range rows {
		rw := &rows[i]
		if rw.rhs < 0 {
			for k := range rw.vals {
				rw.vals[k] = -rw.vals[k]
			}
			rw.rhs = -rw.rhs
			switch rw.sense {
			case mip.LessEqual:
				rw.sense = mip.GreaterEqual
			case mip.GreaterEqual:
				rw.sense = mip.LessEqual
			}
		}
		if rw.sense == mip.GreaterEqual && rw.rhs == 0 {
			for k := range rw.vals {
				rw.vals[k] = -rw.vals[k]
			}
			rw.sense = mip.LessEqual
		}
		extra++
		if rw.sense == mip.GreaterEqual {
			extra++
		}
	}

	cols := structural + extra
	A := mat.NewDense(m, cols, nil)
	b := make([]float64, m)
	c := make([]float64, cols)
	for j := 0; j < n; j++ {
		if col[j] >= 0 {
			c[col[j]] = r.cost[j]
		}
	}

	artificialCost := r.penalty * (1 + maxCost)
	basic := make([]int, m)
	var artificials []int
	next := structural
	for i, rw := range rows {
		for k, j := range rw.cols {
			A.Set(i, col[j], A.At(i, col[j])+rw.vals[k])
		}
		b[i] = rw.rhs
		switch rw.sense {
		case mip.LessEqual:
			A.Set(i, next, 1)
			basic[i] = next
			next++
		case mip.GreaterEqual:
			A.Set(i, next, -1)
			A.Set(i, next+1, 1)
			c[next+1] = artificialCost
			basic[i] = next + 1
			artificials = append(artificials, next+1)
			next += 2
		default:
			A.Set(i, next, 1)
			c[next] = artificialCost
			basic[i] = next
			artificials = append(artificials, next)
			next++
		}
	}

	_, y, err := simplex(c, A, b, basic)
	if err != nil {
		switch {
		case errors.Is(err, lp.ErrInfeasible):
			return lpResult{}, nil
		case errors.Is(err, lp.ErrUnbounded):
			return lpResult{}, ErrUnbounded
		default:
			return lpResult{}, fmt.Errorf("branchbound: simplex failed on %dx%d relaxation: %w", m, cols, err)
		}
	}

	residual := 0.0
	for _, a := range artificials {
		residual += y[a]
	}
	scale := 1.0
	for _, v := range b {
		scale = math.Max(scale, math.Abs(v))
	}
	if residual > feasibilityTol*scale {
		return lpResult{}, nil
	}

	for j := 0; j < n; j++ {
		if col[j] >= 0 {
			x[j] = lower[j] + y[col[j]]
		}
	}
	return lpResult{feasible: true, x: x, objective: r.model.ObjectiveValue(x)}, nil
}

// simplex converts the panics gonum raises on malformed input into errors
func simplex(c []float64, A mat.Matrix, b []float64, basic []int) (z float64, x []float64, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("branchbound: simplex panic: %v", rec)
		}
	}()
	return lp.Simplex(c, A, b, 0, basic)
}
