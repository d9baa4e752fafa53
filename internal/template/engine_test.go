package template

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upperResolver(s string) (string, error) {
	if strings.Contains(s, "fail") {
		return "", errors.New("cannot resolve")
	}
	return strings.ToUpper(s), nil
}

func TestEngine_Replace(t *testing.T) {
	e := New(upperResolver)

	tests := []struct {
		name     string
		input    interface{}
		expected interface{}
	}{
		{name: "string", input: "abc", expected: "ABC"},
		{name: "number untouched", input: 42, expected: 42},
		{name: "bool untouched", input: true, expected: true},
		{
			name:     "nested map",
			input:    map[string]interface{}{"a": "x", "b": map[string]interface{}{"c": "y"}},
			expected: map[string]interface{}{"a": "X", "b": map[string]interface{}{"c": "Y"}},
		},
		{
			name:     "slice",
			input:    []interface{}{"a", 1, []interface{}{"b"}},
			expected: []interface{}{"A", 1, []interface{}{"B"}},
		},
		{name: "string map", input: map[string]string{"k": "v"}, expected: map[string]string{"k": "V"}},
		{name: "string slice", input: []string{"a", "b"}, expected: []string{"A", "B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := e.Replace(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestEngine_ReplaceErrors(t *testing.T) {
	e := New(upperResolver)

	_, err := e.Replace(map[string]interface{}{"key": "fail"})
	assert.EqualError(t, err, "error in key 'key': cannot resolve")

	_, err = e.Replace([]interface{}{"ok", "fail"})
	assert.EqualError(t, err, "error at index 1: cannot resolve")
}

func TestExtractVariables(t *testing.T) {
	value := map[string]interface{}{
		"a": "${user} and ${host}",
		"b": []interface{}{"${user}", 3, map[string]string{"c": "${port}"}},
	}

	assert.Equal(t, []string{"host", "port", "user"}, ExtractVariables(value))
	assert.Empty(t, ExtractVariables(42))
}

func TestValidateContext(t *testing.T) {
	known := func(name string) bool { return name == "user" }

	assert.NoError(t, ValidateContext("${user}", known))
	assert.EqualError(t, ValidateContext([]interface{}{"${user}", "${b}", "${a}"}, known),
		"missing required variables: a, b")
}

func TestRender(t *testing.T) {
	out, err := Render("greeting", `{{ .name | upper }} has {{ len .items }} items`, map[string]interface{}{
		"name":  "proctor",
		"items": []string{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, "PROCTOR has 2 items", out)

	_, err = Render("missing", "{{ .nope }}", map[string]interface{}{})
	assert.ErrorContains(t, err, "failed to render template missing")

	_, err = Render("broken", "{{ .x ", nil)
	assert.ErrorContains(t, err, "failed to parse template broken")
}

func TestRenderData(t *testing.T) {
	merged := RenderData(
		map[string]string{"a": "1", "b": "1"},
		map[string]string{"b": "2"},
	)
	assert.Equal(t, map[string]interface{}{"a": "1", "b": "2"}, merged)
}
