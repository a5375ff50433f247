package mip

// Stats summarizes the size of a model
type Stats struct {
	Variables          int
	Binary             int
	Integer            int
	Continuous         int
	Constraints        int
	NonZeros           int
	VariableFamilies   map[string]int
	ConstraintFamilies map[string]int
}

// Stats counts variables and constraints per family and domain
func (m *Model) Stats() Stats {
	s := Stats{
		Variables:          len(m.vars),
		Constraints:        len(m.constraints),
		VariableFamilies:   make(map[string]int),
		ConstraintFamilies: make(map[string]int),
	}
	for _, v := range m.vars {
		s.VariableFamilies[v.Family]++
		switch v.Type {
		case Binary:
			s.Binary++
		case Integer:
			s.Integer++
		default:
			s.Continuous++
		}
	}
	for _, c := range m.constraints {
		s.ConstraintFamilies[c.Family]++
		s.NonZeros += len(c.Terms)
	}
	return s
}
