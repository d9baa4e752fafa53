package action

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"
)

// ErrUnknownActionType is returned when a definition names no built-in action.
var ErrUnknownActionType = errors.New("unknown action type")

// Definition is the declarative form of a built-in action as written in
// test case files and proctor.yaml.
type Definition struct {
	Type string `json:"type" yaml:"type"`

	// echo, fail
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
	// sleep
	Duration string `json:"duration,omitempty" yaml:"duration,omitempty"`
	// create-variables
	Variables map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`
	// trace-variables
	Names []string `json:"names,omitempty" yaml:"names,omitempty"`
	// template
	Variable string `json:"variable,omitempty" yaml:"variable,omitempty"`
	Template string `json:"template,omitempty" yaml:"template,omitempty"`
	File     string `json:"file,omitempty" yaml:"file,omitempty"`

	// send, receive
	Endpoint        string            `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Payload         string            `json:"payload,omitempty" yaml:"payload,omitempty"`
	MessageValues   map[string]any    `json:"messageValues,omitempty" yaml:"messageValues,omitempty"`
	Headers         map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Timeout         string            `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	ValidateHeaders map[string]string `json:"validateHeaders,omitempty" yaml:"validateHeaders,omitempty"`
	ExtractHeaders  map[string]string `json:"extractHeaders,omitempty" yaml:"extractHeaders,omitempty"`

	// receive, sql
	Validate map[string]string `json:"validate,omitempty" yaml:"validate,omitempty"`
	Extract  map[string]string `json:"extract,omitempty" yaml:"extract,omitempty"`

	// sql
	DataSource string   `json:"dataSource,omitempty" yaml:"dataSource,omitempty"`
	Statements []string `json:"statements,omitempty" yaml:"statements,omitempty"`
	Query      string   `json:"query,omitempty" yaml:"query,omitempty"`
}

// BuildOptions carry what a definition needs to become an action.
type BuildOptions struct {
	Endpoints   EndpointLookup
	DataSources DataSourceLookup
	// BaseDir resolves relative template files.
	BaseDir string
}

// Types returns the names of all built-in action types.
func Types() []string {
	types := []string{"echo", "fail", "sleep", "create-variables", "trace-variables", "template", "send", "receive", "sql"}
	sort.Strings(types)
	return types
}

// Build turns the definition into an action, checking required fields.
func (d Definition) Build(opts BuildOptions) (Action, error) {
	switch d.Type {
	case "echo":
		return &Echo{Message: d.Message}, nil

	case "fail":
		return &Fail{Message: d.Message}, nil

	case "sleep":
		dur, err := parseDuration("duration", d.Duration)
		if err != nil {
			return nil, err
		}
		return &Sleep{Duration: dur}, nil

	case "create-variables":
		if len(d.Variables) == 0 {
			return nil, fmt.Errorf("create-variables requires 'variables'")
		}
		return &CreateVariables{Variables: d.Variables}, nil

	case "trace-variables":
		return &TraceVariables{Names: d.Names}, nil

	case "template":
		if d.Variable == "" {
			return nil, fmt.Errorf("template requires 'variable'")
		}
		if (d.Template == "") == (d.File == "") {
			return nil, fmt.Errorf("template requires exactly one of 'template' or 'file'")
		}
		file := d.File
		if file != "" && !filepath.IsAbs(file) && opts.BaseDir != "" {
			file = filepath.Join(opts.BaseDir, file)
		}
		return &Template{Variable: d.Variable, Template: d.Template, File: file}, nil

	case "send":
		if d.Endpoint == "" {
			return nil, fmt.Errorf("send requires 'endpoint'")
		}
		return &Send{
			Endpoint:      d.Endpoint,
			Payload:       d.Payload,
			MessageValues: d.MessageValues,
			Headers:       d.Headers,
			Endpoints:     opts.Endpoints,
		}, nil

	case "receive":
		if d.Endpoint == "" {
			return nil, fmt.Errorf("receive requires 'endpoint'")
		}
		timeout, err := parseDuration("timeout", d.Timeout)
		if err != nil {
			return nil, err
		}
		return &Receive{
			Endpoint:        d.Endpoint,
			Timeout:         timeout,
			Payload:         d.Payload,
			Validate:        d.Validate,
			ValidateHeaders: d.ValidateHeaders,
			Extract:         d.Extract,
			ExtractHeaders:  d.ExtractHeaders,
			Endpoints:       opts.Endpoints,
		}, nil

	case "sql":
		if d.DataSource == "" {
			return nil, fmt.Errorf("sql requires 'dataSource'")
		}
		if len(d.Statements) == 0 && d.Query == "" {
			return nil, fmt.Errorf("sql requires 'statements' or 'query'")
		}
		return &SQL{
			DataSource:  d.DataSource,
			Statements:  d.Statements,
			Query:       d.Query,
			Validate:    d.Validate,
			Extract:     d.Extract,
			DataSources: opts.DataSources,
		}, nil

	case "":
		return nil, fmt.Errorf("%w: missing 'type'", ErrUnknownActionType)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownActionType, d.Type)
	}
}

// BuildAll builds a list of definitions, naming the failing position.
func BuildAll(defs []Definition, opts BuildOptions) ([]Action, error) {
	actions := make([]Action, 0, len(defs))
	for i, d := range defs {
		a, err := d.Build(opts)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i+1, err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}

func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, value, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", field, value)
	}
	return d, nil
}
