package mip

import (
	"fmt"
	"math"
)

// Violation is a constraint, bound or integrality requirement not met by an assignment
type Violation struct {
	Name     string
	Activity float64
	Sense    Sense
	RHS      float64
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %g %s %g", v.Name, v.Activity, v.Sense, v.RHS)
}

// Violations checks an assignment against every bound, integrality
// requirement and constraint with absolute tolerance tol.
func (m *Model) Violations(values []float64, tol float64) []Violation {
	if len(values) != len(m.vars) {
		return []Violation{{Name: fmt.Sprintf("assignment has %d values for %d variables", len(values), len(m.vars))}}
	}

	var out []Violation
	for _, v := range m.vars {
		x := values[v.ID]
		if x < v.Lower-tol {
			out = append(out, Violation{Name: v.Name + ".lower", Activity: x, Sense: GreaterEqual, RHS: v.Lower})
		}
		if x > v.Upper+tol {
			out = append(out, Violation{Name: v.Name + ".upper", Activity: x, Sense: LessEqual, RHS: v.Upper})
		}
		if v.Type.Integral() && math.Abs(x-math.Round(x)) > tol {
			out = append(out, Violation{Name: v.Name + ".integrality", Activity: x, Sense: Equal, RHS: math.Round(x)})
		}
	}

	for i := range m.constraints {
		c := &m.constraints[i]
		activity := c.Activity(values)
		violated := false
		switch c.Sense {
		case LessEqual:
			violated = activity > c.RHS+tol
		case GreaterEqual:
			violated = activity < c.RHS-tol
		case Equal:
			violated = math.Abs(activity-c.RHS) > tol
		}
		if violated {
			out = append(out, Violation{Name: c.Name, Activity: activity, Sense: c.Sense, RHS: c.RHS})
		}
	}
	return out
}
