package app

import (
	"proctor/internal/testcontext"
)

// NewContext creates a test context seeded with the global variables and
// the given extra variables.
func (a *Application) NewContext(variables map[string]string) (*testcontext.Context, error) {
	tc := testcontext.New(a.Globals(), a.services.Registry)
	values := make(map[string]any, len(variables))
	for k, v := range variables {
		values[k] = v
	}
	if err := tc.AddVariables(values); err != nil {
		return nil, err
	}
	return tc, nil
}

// Evaluate resolves an expression the way test actions do.
func (a *Application) Evaluate(expression string, variables map[string]string) (string, error) {
	tc, err := a.NewContext(variables)
	if err != nil {
		return "", err
	}
	return tc.Evaluate(expression)
}
