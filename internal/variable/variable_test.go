package variable

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapResolver(values map[string]string) Resolver {
	return func(name string) (string, error) {
		if v, ok := values[name]; ok {
			return v, nil
		}
		return "", errors.New("unknown variable " + name)
	}
}

func TestIsVariableName(t *testing.T) {
	tests := []struct {
		token    string
		expected bool
	}{
		{"${name}", true},
		{"${}", true},
		{"name", false},
		{"${name", false},
		{"name}", false},
		{"", false},
		{"prefix ${name}", false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsVariableName(tt.token))
		})
	}
}

func TestCutOffVariablesPrefix(t *testing.T) {
	assert.Equal(t, "name", CutOffVariablesPrefix("${name}"))
	assert.Equal(t, "name", CutOffVariablesPrefix("name"))
	assert.Equal(t, "", CutOffVariablesPrefix("${}"))
	assert.Equal(t, "${open", CutOffVariablesPrefix("${open"))
}

func TestReplaceVariablesInString(t *testing.T) {
	resolve := mapResolver(map[string]string{"user": "Alice", "greeting": "Hello"})

	tests := []struct {
		name     string
		input    string
		quoting  bool
		expected string
	}{
		{name: "no variables", input: "plain text", expected: "plain text"},
		{name: "single variable", input: "${user}", expected: "Alice"},
		{name: "embedded variables", input: "${greeting} ${user}!", expected: "Hello Alice!"},
		{name: "repeated variable", input: "${user}/${user}", expected: "Alice/Alice"},
		{name: "quoting", input: "core:concat(${greeting}, ${user})", quoting: true, expected: "core:concat('Hello', 'Alice')"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ReplaceVariablesInString(tt.input, resolve, tt.quoting)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestReplaceVariablesInString_Errors(t *testing.T) {
	resolve := mapResolver(map[string]string{"user": "Alice"})

	_, err := ReplaceVariablesInString("Hello ${missing}", resolve, false)
	assert.EqualError(t, err, "unknown variable missing")

	_, err = ReplaceVariablesInString("Hello ${user", resolve, false)
	assert.ErrorContains(t, err, "missing closing")
}

func TestExtractNames(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ExtractNames("${a} and ${b} and ${a}"))
	assert.Nil(t, ExtractNames("nothing here"))
	assert.Nil(t, ExtractNames("${unterminated"))
}
