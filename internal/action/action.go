// Package action contains the built-in test actions. Every action receives
// the test context of the running test case and resolves its parameters
// through it.
package action

import (
	"context"
	"database/sql"

	"proctor/internal/endpoint"
	"proctor/internal/testcontext"
)

const subsystem = "Action"

// Action is a single step of a test case.
type Action interface {
	Name() string
	Execute(ctx context.Context, tc *testcontext.Context) error
}

// EndpointLookup resolves endpoints by name.
type EndpointLookup interface {
	Get(name string) (endpoint.Endpoint, error)
}

// DataSourceLookup resolves SQL databases by name.
type DataSourceLookup interface {
	DB(name string) (*sql.DB, error)
}

type funcAction struct {
	name string
	fn   func(ctx context.Context, tc *testcontext.Context) error
}

// New wraps a function as an action.
func New(name string, fn func(ctx context.Context, tc *testcontext.Context) error) Action {
	return &funcAction{name: name, fn: fn}
}

func (a *funcAction) Name() string { return a.name }

func (a *funcAction) Execute(ctx context.Context, tc *testcontext.Context) error {
	return a.fn(ctx, tc)
}

func resolveValue(tc *testcontext.Context, value string) (string, error) {
	return tc.Evaluate(value)
}
