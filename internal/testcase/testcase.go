// Package testcase defines test cases: an ordered chain of actions with a
// finally chain, run against a context of their own.
package testcase

import (
	"context"
	"fmt"
	"time"

	"proctor/internal/action"
	"proctor/internal/function"
	"proctor/internal/testcontext"
	"proctor/pkg/logging"
)

const subsystem = "TestCase"

// TestCase is a named sequence of actions.
type TestCase struct {
	Name        string
	Description string
	Meta        MetaInfo
	Variables   []Variable
	Actions     []action.Action
	Finally     []action.Action
	// Source is the file the test case was loaded from, if any
	Source string

	context *testcontext.Context
	results []ActionResult
}

// New creates a test case whose context is seeded from globals.
func New(name string, globals *testcontext.GlobalVariables, registry *function.Registry) *TestCase {
	return &TestCase{
		Name:    name,
		Meta:    MetaInfo{Status: StatusDraft},
		context: testcontext.New(globals, registry),
	}
}

// Context returns the test context of the test case.
func (t *TestCase) Context() *testcontext.Context {
	return t.context
}

// Disabled reports whether the test case must be skipped.
func (t *TestCase) Disabled() bool {
	return t.Meta.Status == StatusDisabled
}

// Results returns the action results of the last execution.
func (t *TestCase) Results() []ActionResult {
	out := make([]ActionResult, len(t.results))
	copy(out, t.results)
	return out
}

// Execute runs the test case: variables are seeded, actions run in order
// until the first failure and the finally chain always runs. The first
// error is returned.
func (t *TestCase) Execute(ctx context.Context) error {
	t.results = nil
	logging.Debug(subsystem, "Executing test case %s", t.Name)

	err := t.seedVariables()
	if err == nil {
		for i, a := range t.Actions {
			if err = t.runAction(ctx, i+1, a, false); err != nil {
				break
			}
		}
	}

	for i, a := range t.Finally {
		if finallyErr := t.runAction(ctx, i+1, a, true); finallyErr != nil && err == nil {
			err = finallyErr
		}
	}

	if err != nil {
		logging.Debug(subsystem, "Test case %s failed: %v", t.Name, err)
	}
	return err
}

func (t *TestCase) seedVariables() error {
	for _, v := range t.Variables {
		var (
			value string
			err   error
		)
		if testcontext.Classify(v.Value, t.context.Registry()) == testcontext.FunctionCall {
			value, err = t.context.ResolveToken(v.Value)
		} else {
			value, err = t.context.ReplaceDynamicContentInString(v.Value, false)
		}
		if err != nil {
			return fmt.Errorf("failed to resolve variable %s: %w", v.Name, err)
		}
		if err := t.context.SetVariable(v.Name, value); err != nil {
			return err
		}
	}
	return nil
}

func (t *TestCase) runAction(ctx context.Context, index int, a action.Action, finally bool) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action %s panicked: %v", a.Name(), r)
		}

		result := ActionResult{Index: index, Name: a.Name(), Finally: finally, Duration: time.Since(start)}
		if err != nil {
			result.Error = err.Error()
			err = fmt.Errorf("action %d (%s) failed: %w", index, a.Name(), err)
		}
		t.results = append(t.results, result)
	}()

	return a.Execute(ctx, t.context)
}
