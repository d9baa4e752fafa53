package action

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"proctor/internal/template"
	"proctor/internal/testcontext"
	"proctor/pkg/logging"
)

// Echo logs a message after resolving its dynamic content.
type Echo struct {
	Message string
}

func (a *Echo) Name() string { return "echo" }

func (a *Echo) Execute(_ context.Context, tc *testcontext.Context) error {
	msg, err := tc.ReplaceDynamicContentInString(a.Message, false)
	if err != nil {
		return err
	}
	logging.Info(subsystem, "%s", msg)
	return nil
}

// Fail always fails with its resolved message.
type Fail struct {
	Message string
}

func (a *Fail) Name() string { return "fail" }

func (a *Fail) Execute(_ context.Context, tc *testcontext.Context) error {
	msg := a.Message
	if msg == "" {
		msg = "generated error to interrupt test execution"
	}
	resolved, err := tc.ReplaceDynamicContentInString(msg, false)
	if err != nil {
		return err
	}
	return errors.New(resolved)
}

// Sleep pauses the test case.
type Sleep struct {
	Duration time.Duration
}

func (a *Sleep) Name() string { return "sleep" }

func (a *Sleep) Execute(ctx context.Context, _ *testcontext.Context) error {
	logging.Debug(subsystem, "Sleeping %s", a.Duration)

	timer := time.NewTimer(a.Duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CreateVariables sets variables whose values are resolved first.
type CreateVariables struct {
	Variables map[string]string
}

func (a *CreateVariables) Name() string { return "create-variables" }

func (a *CreateVariables) Execute(_ context.Context, tc *testcontext.Context) error {
	names := make([]string, 0, len(a.Variables))
	for name := range a.Variables {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value, err := resolveValue(tc, a.Variables[name])
		if err != nil {
			return fmt.Errorf("create variable %s: %w", name, err)
		}
		if err := tc.SetVariable(name, value); err != nil {
			return err
		}
	}
	return nil
}

// TraceVariables logs variables of the context, all of them when Names is
// empty.
type TraceVariables struct {
	Names []string
}

func (a *TraceVariables) Name() string { return "trace-variables" }

func (a *TraceVariables) Execute(_ context.Context, tc *testcontext.Context) error {
	names := a.Names
	if len(names) == 0 {
		names = tc.Names()
	}

	for _, name := range names {
		value, err := tc.GetVariable(name)
		if err != nil {
			return err
		}
		logging.Info(subsystem, "Variable %s = '%s'", name, value)
	}
	return nil
}

// Template renders a Go template with the sprig functions into a variable.
// The template data holds the global and test variables; test variables win.
type Template struct {
	Variable string
	Template string
	File     string
}

func (a *Template) Name() string { return "template" }

func (a *Template) Execute(_ context.Context, tc *testcontext.Context) error {
	text := a.Template
	if a.File != "" {
		path, err := tc.ReplaceDynamicContentInString(a.File, false)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read template file %s: %w", path, err)
		}
		text = string(data)
	}

	data := template.RenderData(tc.GlobalVariables(), tc.Variables())
	out, err := template.Render(a.Variable, text, data)
	if err != nil {
		return err
	}
	return tc.SetVariable(a.Variable, out)
}
