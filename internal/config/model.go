package config

import (
	"fmt"
	"maps"
)

// Model is the unified, format-agnostic representation of a network file:
// its variables, the evidence to apply and default sampling settings.
type Model struct {
	Name      string
	Variables []*Variable
	Evidence  map[string]string
	Sampling  Sampling
}

// Variable is one discrete random variable.
type Variable struct {
	Name    string
	Values  []string
	Parents []string
	// Cpt holds one row per combination of parent values, last parent
	// varying fastest. A root variable has a single row. Empty means the
	// table is generated at random.
	Cpt [][]float64
	// Source locates the definition for error messages, e.g. "net.hcl:3".
	Source string
}

// Sampling holds the sampling defaults declared in a file. Nil fields are
// unset.
type Sampling struct {
	Draws       *int
	Workers     *int
	SaveSamples *bool
	Seed        *uint64
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{Evidence: make(map[string]string)}
}

// Variable returns the variable with the given name, or nil.
func (m *Model) Variable(name string) *Variable {
	for _, v := range m.Variables {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Merge folds other into m. Variables are appended in order; a variable
// defined in both is an error. Evidence for the same variable may repeat in
// both only with the same value. Sampling fields set in other override those
// of m.
func (m *Model) Merge(other *Model) error {
	if other == nil {
		return nil
	}
	if m.Name == "" {
		m.Name = other.Name
	}
	for _, v := range other.Variables {
		if prev := m.Variable(v.Name); prev != nil {
			return fmt.Errorf("variable %q defined twice (%s and %s)", v.Name, prev.Source, v.Source)
		}
		m.Variables = append(m.Variables, v)
	}
	if m.Evidence == nil {
		m.Evidence = make(map[string]string)
	}
	for name, value := range other.Evidence {
		if prev, ok := m.Evidence[name]; ok && prev != value {
			return fmt.Errorf("conflicting evidence for %q: %q and %q", name, prev, value)
		}
	}
	maps.Copy(m.Evidence, other.Evidence)
	m.Sampling.override(other.Sampling)
	return nil
}

func (s *Sampling) override(o Sampling) {
	if o.Draws != nil {
		s.Draws = o.Draws
	}
	if o.Workers != nil {
		s.Workers = o.Workers
	}
	if o.SaveSamples != nil {
		s.SaveSamples = o.SaveSamples
	}
	if o.Seed != nil {
		s.Seed = o.Seed
	}
}
