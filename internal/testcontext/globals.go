package testcontext

import (
	"fmt"
	"strings"

	"proctor/internal/variable"
	"proctor/pkg/logging"
)

// store is an insertion ordered string map.
type store struct {
	names  []string
	values map[string]string
}

func newStore() *store {
	return &store{values: make(map[string]string)}
}

func (s *store) set(name, value string) {
	if _, exists := s.values[name]; !exists {
		s.names = append(s.names, name)
	}
	s.values[name] = value
}

func (s *store) get(name string) (string, bool) {
	v, ok := s.values[name]
	return v, ok
}

func (s *store) clone() *store {
	c := &store{
		names:  make([]string, len(s.names)),
		values: make(map[string]string, len(s.values)),
	}
	copy(c.names, s.names)
	for k, v := range s.values {
		c.values[k] = v
	}
	return c
}

// GlobalVariables are variables shared by every test case of a suite. Each
// context copies them on creation and on Clear.
type GlobalVariables struct {
	s *store
}

// NewGlobalVariables builds global variables from loosely typed input, as
// read from configuration files. Keys are added in sorted name order, nil
// values become "" and other values are formatted with fmt.Sprint. Blank
// names are skipped.
func NewGlobalVariables(values map[string]any) *GlobalVariables {
	g := &GlobalVariables{s: newStore()}
	for _, name := range sortedNames(values) {
		if err := g.Set(name, values[name]); err != nil {
			logging.Warn(subsystem, "Skipping global variable %q: %v", name, err)
		}
	}
	return g
}

// Set adds or overwrites a global variable. Nil values are stored as "".
// Blank names are rejected with ErrInvalidVariableName.
func (g *GlobalVariables) Set(name string, value any) error {
	key := variable.CutOffVariablesPrefix(name)
	if strings.TrimSpace(key) == "" {
		return &VariableError{Name: name, Err: ErrInvalidVariableName}
	}
	if value == nil {
		g.s.set(key, "")
		return nil
	}
	g.s.set(key, fmt.Sprint(value))
	return nil
}

// Get returns a global variable.
func (g *GlobalVariables) Get(name string) (string, bool) {
	return g.s.get(variable.CutOffVariablesPrefix(name))
}

// Names returns the variable names in insertion order.
func (g *GlobalVariables) Names() []string {
	out := make([]string, len(g.s.names))
	copy(out, g.s.names)
	return out
}

// Len returns the number of global variables.
func (g *GlobalVariables) Len() int {
	return len(g.s.names)
}

// Map returns a copy of the global variables.
func (g *GlobalVariables) Map() map[string]string {
	return g.s.clone().values
}
