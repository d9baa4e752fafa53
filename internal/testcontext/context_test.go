package testcontext

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proctor/internal/function"
	"proctor/internal/message"
)

func newTestContext(globals map[string]any) *Context {
	return New(NewGlobalVariables(globals), function.NewRegistry(function.CoreLibrary()))
}

func TestClassify(t *testing.T) {
	registry := function.NewRegistry(function.CoreLibrary())

	tests := []struct {
		token    string
		expected Kind
	}{
		{"${name}", VariableRef},
		{"core:upperCase('a')", FunctionCall},
		{"plain", Literal},
		{"", Literal},
		{"${core:upperCase('a')}", VariableRef},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.token, registry))
		})
	}

	assert.Equal(t, Literal, Classify("core:upperCase('a')", nil))
	assert.Equal(t, "function", FunctionCall.String())
}

func TestSetAndGetVariable(t *testing.T) {
	c := newTestContext(nil)

	require.NoError(t, c.SetVariable("user", "Alice"))
	v, err := c.GetVariable("user")
	require.NoError(t, err)
	assert.Equal(t, "Alice", v)

	v, err = c.GetVariable("${user}")
	require.NoError(t, err)
	assert.Equal(t, "Alice", v)

	require.NoError(t, c.SetVariable("${decorated}", "x"))
	assert.True(t, c.HasVariable("decorated"))

	require.NoError(t, c.SetVariable("count", 42))
	v, err = c.GetVariable("count")
	require.NoError(t, err)
	assert.Equal(t, "42", v)

	require.NoError(t, c.SetVariable("empty", ""))
	v, err = c.GetVariable("empty")
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestSetVariable_PreservesInsertionOrder(t *testing.T) {
	c := newTestContext(nil)

	for _, name := range []string{"c", "a", "b"} {
		require.NoError(t, c.SetVariable(name, name))
	}
	require.NoError(t, c.SetVariable("a", "overwritten"))

	assert.Equal(t, []string{"c", "a", "b"}, c.Names())
	assert.Equal(t, "overwritten", c.Variables()["a"])
}

func TestGetVariable_Unknown(t *testing.T) {
	c := newTestContext(nil)

	_, err := c.GetVariable("${missing}")
	require.ErrorIs(t, err, ErrUnknownVariable)

	var varErr *VariableError
	require.True(t, errors.As(err, &varErr))
	assert.Equal(t, "missing", varErr.Name)
	assert.Equal(t, "unknown variable: 'missing'", err.Error())
}

func TestSetVariable_Errors(t *testing.T) {
	c := newTestContext(nil)

	for _, name := range []string{"", "   ", "${}", "${ }"} {
		t.Run("name "+name, func(t *testing.T) {
			assert.ErrorIs(t, c.SetVariable(name, "value"), ErrInvalidVariableName)
		})
	}

	assert.ErrorIs(t, c.SetVariable("name", nil), ErrNullVariableValue)
	assert.False(t, c.HasVariables())
}

func TestAddVariables(t *testing.T) {
	c := newTestContext(nil)

	require.NoError(t, c.AddVariables(map[string]any{"b": "2", "a": 1, "${c}": true}))
	assert.Equal(t, []string{"a", "b", "c"}, c.Names())
	assert.Equal(t, map[string]string{"a": "1", "b": "2", "c": "true"}, c.Variables())
}

func TestAddVariables_RejectsNilAtomically(t *testing.T) {
	c := newTestContext(nil)

	err := c.AddVariables(map[string]any{"a": "1", "b": nil, "c": "3"})
	assert.ErrorIs(t, err, ErrNullVariableValue)
	assert.False(t, c.HasVariables())

	err = c.AddVariables(map[string]any{"a": "1", "": "x"})
	assert.ErrorIs(t, err, ErrInvalidVariableName)
	assert.False(t, c.HasVariables())

	err = c.AddVariables(map[string]any{"a": "1", "${a}": "2", "b": "3"})
	assert.ErrorIs(t, err, ErrInvalidVariableName)
	assert.False(t, c.HasVariables())
}

func TestAddVariables_OrdersByStrippedName(t *testing.T) {
	c := newTestContext(nil)

	require.NoError(t, c.AddVariables(map[string]any{"${z}": "1", "y": "2", "${a}": "3", "m": "4"}))
	assert.Equal(t, []string{"a", "m", "y", "z"}, c.Names())
}

func TestGlobalVariables_RejectBlankNames(t *testing.T) {
	globals := NewGlobalVariables(map[string]any{"": "v", "${}": "w", " ": "x", "${b}": "1", "a": "2"})
	assert.Equal(t, []string{"a", "b"}, globals.Names())

	assert.ErrorIs(t, globals.Set("${ }", "x"), ErrInvalidVariableName)
	require.NoError(t, globals.Set("${c}", nil))
	v, ok := globals.Get("c")
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestGlobalVariables(t *testing.T) {
	globals := NewGlobalVariables(map[string]any{"env": "test", "nothing": nil, "port": 8080})
	c := New(globals, nil)

	assert.Equal(t, map[string]string{"env": "test", "nothing": "", "port": "8080"}, c.GlobalVariables())
	assert.Equal(t, []string{"env", "nothing", "port"}, globals.Names())
	assert.Equal(t, 3, globals.Len())

	// context mutations never reach the globals
	require.NoError(t, c.SetVariable("env", "changed"))
	v, ok := globals.Get("env")
	require.True(t, ok)
	assert.Equal(t, "test", v)
	assert.NotNil(t, c.Registry())
}

func TestClear(t *testing.T) {
	c := newTestContext(map[string]any{"global": "g"})

	require.NoError(t, c.SetVariable("local", "l"))
	require.NoError(t, c.SetVariable("global", "overwritten"))
	c.Clear()

	_, err := c.GetVariable("local")
	assert.ErrorIs(t, err, ErrUnknownVariable)

	v, err := c.GetVariable("global")
	require.NoError(t, err)
	assert.Equal(t, "g", v)
	assert.Equal(t, map[string]string{"global": "g"}, c.Variables())
}

func TestReplaceVariablesInMap(t *testing.T) {
	c := newTestContext(map[string]any{"user": "Alice"})

	result, err := c.ReplaceVariablesInMap(map[string]string{
		"variable": "${user}",
		"function": "core:upperCase('hello')",
		"nested":   "core:concat('Hi ', ${user})",
		"literal":  "just text with ${user}",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"variable": "Alice",
		"function": "HELLO",
		"nested":   "Hi Alice",
		"literal":  "just text with ${user}",
	}, result)

	_, err = c.ReplaceVariablesInMap(map[string]string{"k": "${unknown}"})
	assert.ErrorIs(t, err, ErrUnknownVariable)
}

func TestReplaceVariablesInList(t *testing.T) {
	c := newTestContext(map[string]any{"user": "Alice"})

	result, err := c.ReplaceVariablesInList([]string{"${user}", "core:lowerCase('ABC')", "literal"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "abc", "literal"}, result)

	_, err = c.ReplaceVariablesInList([]string{"core:unknown()"})
	assert.ErrorIs(t, err, function.ErrUnknownFunction)
}

func TestReplaceDynamicContentInString(t *testing.T) {
	c := newTestContext(map[string]any{"user": "Alice", "greeting": "Hello"})

	tests := []struct {
		name     string
		input    string
		quoting  bool
		expected string
	}{
		{name: "variables", input: "${greeting} ${user}!", expected: "Hello Alice!"},
		{name: "function", input: "Name: core:upperCase(${user})", expected: "Name: ALICE"},
		{name: "nested functions", input: "core:concat(core:upperCase(${greeting}), ' ', core:lowerCase('WORLD'))", expected: "HELLO world"},
		{name: "quoting", input: "${user}", quoting: true, expected: "'Alice'"},
		{name: "plain", input: "no dynamic content", expected: "no dynamic content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := c.ReplaceDynamicContentInString(tt.input, tt.quoting)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}

	_, err := c.ReplaceDynamicContentInString("Hi ${nobody}", false)
	assert.ErrorIs(t, err, ErrUnknownVariable)
}

func TestEvaluate(t *testing.T) {
	c := newTestContext(map[string]any{"user": "Alice"})

	tests := []struct {
		input    string
		expected string
	}{
		{"${user}", "Alice"},
		{"core:upperCase('abc')", "ABC"},
		{"Hello ${user}, core:lowerCase('BYE')", "Hello Alice, bye"},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := c.Evaluate(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestTemplates(t *testing.T) {
	c := newTestContext(map[string]any{"user": "Alice"})

	out, err := c.Templates().Replace(map[string]interface{}{"to": "${user}", "n": 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"to": "Alice", "n": 1}, out)
}

const testPayload = `<TestMessage><Header id="h1"><Id>123</Id></Header><Text>Hello World</Text><Empty/></TestMessage>`

func TestCreateVariablesFromMessageValues(t *testing.T) {
	c := newTestContext(nil)

	err := c.CreateVariablesFromMessageValues(map[string]string{
		"/TestMessage/Text":     "xpathText",
		"//Header/@id":          "headerId",
		"TestMessage.Header.Id": "messageId",
		"TestMessage.Empty":     "${emptyValue}",
	}, message.New(testPayload))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"xpathText":  "Hello World",
		"headerId":   "h1",
		"messageId":  "123",
		"emptyValue": "",
	}, c.Variables())
}

func TestCreateVariablesFromMessageValues_Errors(t *testing.T) {
	c := newTestContext(nil)

	err := c.CreateVariablesFromMessageValues(map[string]string{"TestMessage.Missing": "x"}, message.New(testPayload))
	require.ErrorIs(t, err, ErrUnknownElement)
	var elemErr *ElementError
	require.True(t, errors.As(err, &elemErr))
	assert.Equal(t, "TestMessage.Missing", elemErr.Path)

	err = c.CreateVariablesFromMessageValues(map[string]string{"a": "x"}, message.New("not xml"))
	assert.Error(t, err)

	err = c.CreateVariablesFromMessageValues(map[string]string{"a": "x"}, nil)
	assert.Error(t, err)

	assert.NoError(t, c.CreateVariablesFromMessageValues(nil, nil))
}

func TestCreateVariablesFromHeaderValues(t *testing.T) {
	c := newTestContext(nil)

	headers := map[string]string{"operation": "greet", "message_id": "42"}
	require.NoError(t, c.CreateVariablesFromHeaderValues(map[string]string{"operation": "op"}, headers))

	v, err := c.GetVariable("op")
	require.NoError(t, err)
	assert.Equal(t, "greet", v)

	err = c.CreateVariablesFromHeaderValues(map[string]string{"missing": "m"}, headers)
	assert.ErrorIs(t, err, ErrUnknownElement)
}

func TestReplaceMessageValues(t *testing.T) {
	c := newTestContext(map[string]any{"user": "Alice"})

	result, err := c.ReplaceMessageValues(map[string]any{
		"TestMessage.Text":       "${user}",
		"TestMessage.Empty":      "core:upperCase('filled')",
		"//Header/@id":           "h2",
		"/TestMessage/Header/Id": 456,
	}, testPayload)
	require.NoError(t, err)

	assert.Equal(t,
		`<TestMessage><Header id="h2"><Id>456</Id></Header><Text>Alice</Text><Empty>FILLED</Empty></TestMessage>`,
		result)
}

func TestReplaceMessageValues_Errors(t *testing.T) {
	c := newTestContext(nil)

	_, err := c.ReplaceMessageValues(map[string]any{"TestMessage.Missing": "x"}, testPayload)
	assert.ErrorIs(t, err, ErrUnknownElement)

	_, err = c.ReplaceMessageValues(map[string]any{"/TestMessage/Missing": "x"}, testPayload)
	assert.ErrorIs(t, err, ErrUnknownElement)

	_, err = c.ReplaceMessageValues(map[string]any{"TestMessage.Text": nil}, testPayload)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownElement)
	assert.NotErrorIs(t, err, ErrNullVariableValue)

	_, err = c.ReplaceMessageValues(map[string]any{"TestMessage.Text": "x"}, "<broken>")
	assert.Error(t, err)

	_, err = c.ReplaceMessageValues(map[string]any{"TestMessage.Text": "${unknown}"}, testPayload)
	assert.ErrorIs(t, err, ErrUnknownVariable)
}
