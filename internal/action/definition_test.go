package action

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proctor/internal/endpoint"
)

func TestDefinition_Build(t *testing.T) {
	endpoints := endpoint.NewRegistry()

	tests := []struct {
		name     string
		def      Definition
		expected Action
	}{
		{
			name:     "echo",
			def:      Definition{Type: "echo", Message: "hi"},
			expected: &Echo{Message: "hi"},
		},
		{
			name:     "sleep",
			def:      Definition{Type: "sleep", Duration: "250ms"},
			expected: &Sleep{Duration: 250 * time.Millisecond},
		},
		{
			name:     "template file relative to base dir",
			def:      Definition{Type: "template", Variable: "out", File: "body.tmpl"},
			expected: &Template{Variable: "out", File: filepath.Join("/cases", "body.tmpl")},
		},
		{
			name: "receive",
			def: Definition{
				Type:     "receive",
				Endpoint: "orders",
				Timeout:  "2s",
				Validate: map[string]string{"Order.Id": "@isNumber()@"},
			},
			expected: &Receive{
				Endpoint:  "orders",
				Timeout:   2 * time.Second,
				Validate:  map[string]string{"Order.Id": "@isNumber()@"},
				Endpoints: endpoints,
			},
		},
		{
			name: "sql",
			def:  Definition{Type: "sql", DataSource: "db", Query: "SELECT 1 AS one"},
			expected: &SQL{
				DataSource: "db",
				Query:      "SELECT 1 AS one",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := tt.def.Build(BuildOptions{Endpoints: endpoints, BaseDir: "/cases"})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, a)
		})
	}
}

func TestDefinition_BuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		def     Definition
		message string
	}{
		{"missing type", Definition{}, "missing 'type'"},
		{"unknown type", Definition{Type: "teleport"}, "unknown action type: teleport"},
		{"bad duration", Definition{Type: "sleep", Duration: "soon"}, `invalid duration "soon"`},
		{"negative timeout", Definition{Type: "receive", Endpoint: "e", Timeout: "-1s"}, "must not be negative"},
		{"send without endpoint", Definition{Type: "send"}, "send requires 'endpoint'"},
		{"template without source", Definition{Type: "template", Variable: "v"}, "exactly one of"},
		{"sql without work", Definition{Type: "sql", DataSource: "db"}, "'statements' or 'query'"},
		{"create without variables", Definition{Type: "create-variables"}, "requires 'variables'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.def.Build(BuildOptions{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestBuildAll(t *testing.T) {
	actions, err := BuildAll([]Definition{{Type: "echo"}, {Type: "fail"}}, BuildOptions{})
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "fail", actions[1].Name())

	_, err = BuildAll([]Definition{{Type: "echo"}, {Type: "nope"}}, BuildOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownActionType))
	assert.Contains(t, err.Error(), "action 2")
}

func TestTypes(t *testing.T) {
	assert.Contains(t, Types(), "receive")
	assert.Len(t, Types(), 9)
}
