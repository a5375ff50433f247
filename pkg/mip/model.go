// Package mip is a solver-agnostic container for mixed-integer linear
// programs: variables, a linear minimization objective and linear constraints.
package mip

import (
	"fmt"
	"math"
	"slices"
)

// VarType is the domain of a decision variable
type VarType int

const (
	Continuous VarType = iota
	Integer
	Binary
)

// String method for VarType enum
func (t VarType) String() string {
	switch t {
	case Continuous:
		return "CONTINUOUS"
	case Integer:
		return "INTEGER"
	case Binary:
		return "BINARY"
	default:
		return "UNKNOWN"
	}
}

// Integral reports whether the domain requires integer values
func (t VarType) Integral() bool {
	return t == Integer || t == Binary
}

// Sense is the relation of a constraint's left-hand side to its right-hand side
type Sense int

const (
	LessEqual Sense = iota
	GreaterEqual
	Equal
)

// String method for Sense enum
func (s Sense) String() string {
	switch s {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	case Equal:
		return "=="
	default:
		return "?"
	}
}

// VarID addresses a variable within its model
type VarID int

// Var is a decision variable. Binary variables always have bounds [0, 1].
type Var struct {
	ID     VarID
	Name   string
	Family string
	Type   VarType
	Lower  float64
	Upper  float64
}

// Term is a coefficient applied to a variable
type Term struct {
	Var  VarID
	Coef float64
}

// Expr is a linear expression without constant
type Expr struct {
	Terms []Term
}

// NewExpr creates an empty expression
func NewExpr() *Expr {
	return &Expr{}
}

// Add appends coef * v and returns the expression for chaining
func (e *Expr) Add(v VarID, coef float64) *Expr {
	e.Terms = append(e.Terms, Term{Var: v, Coef: coef})
	return e
}

// Len returns the number of terms before merging
func (e *Expr) Len() int {
	return len(e.Terms)
}

// Constraint is a linear row: Σ terms Sense RHS
type Constraint struct {
	Name   string
	Family string
	Terms  []Term
	Sense  Sense
	RHS    float64
}

// Activity evaluates the left-hand side for an assignment
func (c *Constraint) Activity(values []float64) float64 {
	sum := 0.0
	for _, t := range c.Terms {
		sum += t.Coef * values[t.Var]
	}
	return sum
}

// Model is a minimization MIP. It is not safe for concurrent mutation.
type Model struct {
	Name        string
	vars        []Var
	names       map[string]VarID
	constraints []Constraint
	objective   []Term
}

// NewModel creates an empty model
func NewModel(name string) *Model {
	return &Model{
		Name:  name,
		names: make(map[string]VarID),
	}
}

// AddVar registers a variable. Names must be unique within the model.
func (m *Model) AddVar(family, name string, typ VarType, lower, upper float64) (VarID, error) {
	if _, exists := m.names[name]; exists {
		return -1, fmt.Errorf("variable %s already exists", name)
	}
	if typ == Binary {
		lower, upper = 0, 1
	}
	if lower > upper {
		return -1, fmt.Errorf("variable %s has empty domain [%g, %g]", name, lower, upper)
	}

	id := VarID(len(m.vars))
	m.vars = append(m.vars, Var{
		ID:     id,
		Name:   name,
		Family: family,
		Type:   typ,
		Lower:  lower,
		Upper:  upper,
	})
	m.names[name] = id
	return id, nil
}

// AddConstraint appends a row. Repeated variables are merged and zero
// coefficients dropped.
func (m *Model) AddConstraint(family, name string, expr *Expr, sense Sense, rhs float64) error {
	terms, err := m.merge(expr.Terms)
	if err != nil {
		return fmt.Errorf("constraint %s: %w", name, err)
	}
	if math.IsNaN(rhs) || math.IsInf(rhs, 0) {
		return fmt.Errorf("constraint %s: right-hand side %g is not finite", name, rhs)
	}
	m.constraints = append(m.constraints, Constraint{
		Name:   name,
		Family: family,
		Terms:  terms,
		Sense:  sense,
		RHS:    rhs,
	})
	return nil
}

// SetObjective replaces the minimization objective
func (m *Model) SetObjective(expr *Expr) error {
	terms, err := m.merge(expr.Terms)
	if err != nil {
		return fmt.Errorf("objective: %w", err)
	}
	m.objective = terms
	return nil
}

func (m *Model) merge(terms []Term) ([]Term, error) {
	index := make(map[VarID]int, len(terms))
	merged := make([]Term, 0, len(terms))
	for _, t := range terms {
		if t.Var < 0 || int(t.Var) >= len(m.vars) {
			return nil, fmt.Errorf("unknown variable id %d", t.Var)
		}
		if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
			return nil, fmt.Errorf("coefficient %g of %s is not finite", t.Coef, m.vars[t.Var].Name)
		}
		if i, ok := index[t.Var]; ok {
			merged[i].Coef += t.Coef
			continue
		}
		index[t.Var] = len(merged)
		merged = append(merged, t)
	}
	return slices.DeleteFunc(merged, func(t Term) bool { return t.Coef == 0 }), nil
}

// Var returns a variable by id
func (m *Model) Var(id VarID) Var {
	return m.vars[id]
}

// Lookup returns the id of a named variable
func (m *Model) Lookup(name string) (VarID, bool) {
	id, ok := m.names[name]
	return id, ok
}

// Vars returns all variables in registration order
func (m *Model) Vars() []Var {
	return m.vars
}

// Constraints returns all rows in registration order
func (m *Model) Constraints() []Constraint {
	return m.constraints
}

// Objective returns the merged objective terms
func (m *Model) Objective() []Term {
	return m.objective
}

// NumVars returns the number of variables
func (m *Model) NumVars() int {
	return len(m.vars)
}

// NumConstraints returns the number of rows
func (m *Model) NumConstraints() int {
	return len(m.constraints)
}

// ObjectiveValue evaluates the objective for an assignment
func (m *Model) ObjectiveValue(values []float64) float64 {
	sum := 0.0
	for _, t := range m.objective {
		sum += t.Coef * values[t.Var]
	}
	return sum
}
