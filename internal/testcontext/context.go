// Package testcontext holds the per test case variable store and resolves
// variables, functions and path-addressed message content against it.
//
// A Context is owned by exactly one test case and is not safe for
// concurrent use. Global variables and the function registry are shared and
// are only read.
package testcontext

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"proctor/internal/function"
	"proctor/internal/message"
	"proctor/internal/template"
	"proctor/internal/variable"
	"proctor/internal/xmlpath"
	"proctor/pkg/logging"
)

const subsystem = "TestContext"

// Kind classifies a value token.
type Kind int

const (
	// Literal tokens are used verbatim.
	Literal Kind = iota
	// VariableRef tokens such as ${name} resolve to a variable value.
	VariableRef
	// FunctionCall tokens such as core:upperCase('x') resolve to the
	// function result.
	FunctionCall
)

func (k Kind) String() string {
	switch k {
	case VariableRef:
		return "variable"
	case FunctionCall:
		return "function"
	default:
		return "literal"
	}
}

// Classify determines the kind of token. Variable references take
// precedence over function calls.
func Classify(token string, registry *function.Registry) Kind {
	if variable.IsVariableName(token) {
		return VariableRef
	}
	if registry != nil && registry.IsFunction(token) {
		return FunctionCall
	}
	return Literal
}

// Context is the variable store of a single test case.
type Context struct {
	variables *store
	globals   *GlobalVariables
	registry  *function.Registry
}

// New creates a context seeded with a copy of globals. A nil registry
// selects function.DefaultRegistry.
func New(globals *GlobalVariables, registry *function.Registry) *Context {
	if globals == nil {
		globals = NewGlobalVariables(nil)
	}
	if registry == nil {
		registry = function.DefaultRegistry()
	}
	return &Context{
		variables: globals.s.clone(),
		globals:   globals,
		registry:  registry,
	}
}

// Registry returns the function registry used for resolution.
func (c *Context) Registry() *function.Registry {
	return c.registry
}

// Templates returns an engine that resolves dynamic content in structured
// values through this context.
func (c *Context) Templates() *template.Engine {
	return template.New(func(s string) (string, error) {
		return c.ReplaceDynamicContentInString(s, false)
	})
}

// GetVariable returns the value of a variable. The name may be given with
// or without the ${} decoration.
func (c *Context) GetVariable(name string) (string, error) {
	key := variable.CutOffVariablesPrefix(name)

	value, ok := c.variables.get(key)
	if !ok {
		return "", &VariableError{Name: key, Err: ErrUnknownVariable}
	}
	return value, nil
}

// HasVariable reports whether a variable is set.
func (c *Context) HasVariable(name string) bool {
	_, ok := c.variables.get(variable.CutOffVariablesPrefix(name))
	return ok
}

// SetVariable stores a variable. Strings are stored verbatim, other values
// are formatted with fmt.Sprint. New names keep their insertion order.
func (c *Context) SetVariable(name string, value any) error {
	key, str, err := validate(name, value)
	if err != nil {
		return err
	}

	logging.Debug(subsystem, "Setting variable: %s with value: '%s'", key, str)
	c.variables.set(key, str)
	return nil
}

func validate(name string, value any) (string, string, error) {
	key := variable.CutOffVariablesPrefix(name)
	if strings.TrimSpace(key) == "" {
		return "", "", &VariableError{Name: name, Err: ErrInvalidVariableName}
	}
	if value == nil {
		return "", "", &VariableError{Name: key, Err: ErrNullVariableValue}
	}
	if s, ok := value.(string); ok {
		return key, s, nil
	}
	return key, fmt.Sprint(value), nil
}

// AddVariables stores all entries in sorted name order. Entries are
// validated first, so on error no variable has been written. Nil values are
// rejected with ErrNullVariableValue like in SetVariable, and two keys naming
// the same variable (such as "a" and "${a}") with ErrInvalidVariableName.
func (c *Context) AddVariables(values map[string]any) error {
	names := sortedNames(values)

	seen := make(map[string]string, len(names))
	for _, name := range names {
		key, _, err := validate(name, values[name])
		if err != nil {
			return err
		}
		if other, dup := seen[key]; dup {
			return &VariableError{Name: key, Err: fmt.Errorf("%w: %q and %q name the same variable", ErrInvalidVariableName, other, name)}
		}
		seen[key] = name
	}
	for _, name := range names {
		if err := c.SetVariable(name, values[name]); err != nil {
			return err
		}
	}
	return nil
}

// Names returns the variable names in insertion order.
func (c *Context) Names() []string {
	out := make([]string, len(c.variables.names))
	copy(out, c.variables.names)
	return out
}

// Variables returns a copy of the variable store.
func (c *Context) Variables() map[string]string {
	return c.variables.clone().values
}

// HasVariables reports whether the store holds any variable.
func (c *Context) HasVariables() bool {
	return len(c.variables.names) > 0
}

// GlobalVariables returns a copy of the global variables.
func (c *Context) GlobalVariables() map[string]string {
	return c.globals.Map()
}

// Clear resets the store to exactly the global variables.
func (c *Context) Clear() {
	c.variables = c.globals.s.clone()
}

// ResolveToken resolves a single value according to its Kind.
func (c *Context) ResolveToken(token string) (string, error) {
	switch Classify(token, c.registry) {
	case VariableRef:
		return c.GetVariable(token)
	case FunctionCall:
		return c.registry.Resolve(token, c.resolveParams)
	default:
		return token, nil
	}
}

// Evaluate resolves a whole variable reference or function call through
// ResolveToken and any other text as a string with embedded dynamic
// content.
func (c *Context) Evaluate(expression string) (string, error) {
	if Classify(expression, c.registry) == Literal {
		return c.ReplaceDynamicContentInString(expression, false)
	}
	return c.ResolveToken(expression)
}

func (c *Context) resolveParams(raw string) (string, error) {
	return c.ReplaceDynamicContentInString(raw, true)
}

// ReplaceVariablesInMap returns a copy of values with every value resolved
// through ResolveToken.
func (c *Context) ReplaceVariablesInMap(values map[string]string) (map[string]string, error) {
	result := make(map[string]string, len(values))
	for key, value := range values {
		resolved, err := c.ResolveToken(value)
		if err != nil {
			return nil, err
		}
		result[key] = resolved
	}
	return result, nil
}

// ReplaceVariablesInList returns a copy of values with every value resolved
// through ResolveToken.
func (c *Context) ReplaceVariablesInList(values []string) ([]string, error) {
	result := make([]string, len(values))
	for i, value := range values {
		resolved, err := c.ResolveToken(value)
		if err != nil {
			return nil, err
		}
		result[i] = resolved
	}
	return result, nil
}

// ReplaceDynamicContentInString replaces all ${} variables and then all
// function calls in s. With enableQuoting substituted values are wrapped in
// single quotes.
func (c *Context) ReplaceDynamicContentInString(s string, enableQuoting bool) (string, error) {
	withVariables, err := variable.ReplaceVariablesInString(s, c.GetVariable, enableQuoting)
	if err != nil {
		return "", err
	}
	return c.registry.ReplaceFunctionsInString(withVariables, enableQuoting, c.resolveParams)
}

// CreateVariablesFromMessageValues extracts payload values into variables.
// Keys of pathToName are XPath expressions or element-name paths, values
// are the target variable names.
func (c *Context) CreateVariablesFromMessageValues(pathToName map[string]string, msg *message.Message) error {
	if len(pathToName) == 0 {
		return nil
	}
	if msg == nil {
		return errors.New("cannot extract variables from nil message")
	}

	doc, err := xmlpath.Parse(msg.Payload)
	if err != nil {
		return err
	}

	for _, path := range sortedKeys(pathToName) {
		var value string
		if xmlpath.IsXPath(path) {
			if value, err = doc.Evaluate(path); err != nil {
				return err
			}
		} else {
			node, ok, err := doc.Find(path)
			if err != nil {
				return err
			}
			if !ok {
				return &ElementError{Path: path, Err: ErrUnknownElement}
			}
			value = node.Value()
		}

		if err := c.SetVariable(pathToName[path], value); err != nil {
			return err
		}
	}
	return nil
}

// CreateVariablesFromHeaderValues extracts header values into variables.
func (c *Context) CreateVariablesFromHeaderValues(headerToName map[string]string, headers map[string]string) error {
	for _, header := range sortedKeys(headerToName) {
		value, ok := headers[header]
		if !ok {
			return &ElementError{Path: header, Err: ErrUnknownElement}
		}
		if err := c.SetVariable(headerToName[header], value); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceMessageValues overwrites the nodes addressed by the keys of
// pathToValue with the resolved values and returns the new payload.
func (c *Context) ReplaceMessageValues(pathToValue map[string]any, payload string) (string, error) {
	doc, err := xmlpath.Parse(payload)
	if err != nil {
		return "", err
	}

	for _, path := range sortedKeys(pathToValue) {
		raw := pathToValue[path]
		if raw == nil {
			return "", fmt.Errorf("cannot set nil value for path '%s'", path)
		}

		token, ok := raw.(string)
		if !ok {
			token = fmt.Sprint(raw)
		}
		value, err := c.ResolveToken(token)
		if err != nil {
			return "", err
		}

		node, found, err := doc.Find(path)
		if err != nil {
			return "", err
		}
		if !found {
			return "", &ElementError{Path: path, Err: ErrUnknownElement}
		}
		node.SetValue(value)
	}

	return doc.String(), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortedNames orders variable keys by their name without the ${}
// decoration, falling back to the raw key for ties.
func sortedNames[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := variable.CutOffVariablesPrefix(keys[i]), variable.CutOffVariablesPrefix(keys[j])
		if a != b {
			return a < b
		}
		return keys[i] < keys[j]
	})
	return keys
}
