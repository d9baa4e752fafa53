package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"proctor/internal/endpoint"
	"proctor/internal/testcase"
)

const helloCase = `
name: HelloTest
description: sends a greeting and checks it comes back
author: Alice
status: FINAL
creationDate: 2024-01-15
lastUpdatedBy: Jane
lastUpdatedOn: 2024-02-01T10:00:00Z
variables:
  user: Alice
  greeting: Hello ${user}
actions:
  - type: send
    endpoint: loop
    payload: <Greeting><Text>${greeting}</Text></Greeting>
  - type: receive
    endpoint: loop
    timeout: 1s
    validate:
      Greeting.Text: "@startsWith('Hello')@"
    extract:
      Greeting.Text: received
finally:
  - type: trace-variables
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "hello.yaml", helloCase)

	docs, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, "HelloTest", doc.Name)
	assert.Equal(t, path, doc.Source)
	assert.Equal(t, Variables{
		{Name: "user", Value: "Alice"},
		{Name: "greeting", Value: "Hello ${user}"},
	}, doc.Variables)
	require.Len(t, doc.Actions, 2)
	assert.Equal(t, "1s", doc.Actions[1].Timeout)
	assert.Equal(t, "@startsWith('Hello')@", doc.Actions[1].Validate["Greeting.Text"])
	require.Len(t, doc.Finally, 1)
}

func TestLoadFile_MultipleDocuments(t *testing.T) {
	path := writeFile(t, t.TempDir(), "many.yml", `
name: First
actions:
  - type: echo
    message: one
---
name: Second
actions:
  - type: echo
    message: two
`)

	docs, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "First", docs[0].Name)
	assert.Equal(t, "Second", docs[1].Name)
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		message string
	}{
		{"missing name", "actions: [{type: echo}]", "test case name is required"},
		{"no actions", "name: Empty", "at least one action"},
		{"unknown status", "name: X\nstatus: DONE\nactions: [{type: echo}]", "unknown status DONE"},
		{"unknown action", "name: X\nactions: [{type: warp}]", "unknown action type: warp"},
		{"bad finally", "name: X\nactions: [{type: echo}]\nfinally: [{type: sleep, duration: later}]", "finally: action 1"},
		{"bad date", "name: X\ncreationDate: yesterday\nactions: [{type: echo}]", "creationDate"},
		{"unknown field", "name: X\nsteps: []\nactions: [{type: echo}]", "field steps not found"},
		{"nested variable", "name: X\nvariables: {a: [1]}\nactions: [{type: echo}]", "must be a scalar value"},
		{"empty variable name", "name: X\nvariables: {'${}': 1}\nactions: [{type: echo}]", "variable names must not be empty"},
		{"malformed", "name: [", "failed to parse YAML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "case.yaml", tt.content)
			_, err := LoadFile(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLoadDocuments_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b/second.yaml", "name: B\nactions: [{type: echo}]")
	writeFile(t, dir, "a.yaml", "name: A\nactions: [{type: echo}]")
	writeFile(t, dir, "notes.txt", "not a test case")
	writeFile(t, dir, ".hidden/c.yaml", "name: Hidden\nactions: [{type: echo}]")

	docs, err := LoadDocuments(dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "A", docs[0].Name)
	assert.Equal(t, "B", docs[1].Name)
}

func TestLoadDocuments_Errors(t *testing.T) {
	_, err := LoadDocuments(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorContains(t, err, "does not exist")

	dir := t.TempDir()
	writeFile(t, dir, "one.yaml", "name: Same\nactions: [{type: echo}]")
	writeFile(t, dir, "two.yaml", "name: Same\nactions: [{type: echo}]")
	_, err = LoadDocuments(dir)
	assert.ErrorContains(t, err, "duplicate test case name Same")
}

func TestLoad_BuildsRunnableTestCases(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "hello.yaml", helloCase)

	endpoints := endpoint.NewRegistry()
	endpoints.Register(endpoint.NewChannel("loop", 1))
	defer endpoints.Close()

	cases, err := Load(dir, Options{Endpoints: endpoints})
	require.NoError(t, err)
	require.Len(t, cases, 1)

	tc := cases[0]
	assert.Equal(t, "Alice", tc.Meta.Author)
	assert.Equal(t, testcase.StatusFinal, tc.Meta.Status)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), tc.Meta.CreationDate)
	assert.Equal(t, "Jane", tc.Meta.LastUpdatedBy)
	assert.Equal(t, "sends a greeting and checks it comes back", tc.Description)

	require.NoError(t, tc.Execute(context.Background()))
	received, err := tc.Context().GetVariable("received")
	require.NoError(t, err)
	assert.Equal(t, "Hello Alice", received)
}

func TestVariables_MarshalYAML(t *testing.T) {
	vars := Variables{{Name: "z", Value: "1"}, {Name: "a", Value: "2"}}

	out, err := yaml.Marshal(vars)
	require.NoError(t, err)
	assert.Equal(t, "z: \"1\"\na: \"2\"\n", string(out))
}
