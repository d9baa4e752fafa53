package template

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"proctor/internal/variable"
)

// Resolver replaces dynamic content (variables and functions) in a string.
type Resolver func(s string) (string, error)

// Engine applies a Resolver recursively to structured action parameters.
type Engine struct {
	resolve Resolver
}

// New creates a new template engine
func New(resolve Resolver) *Engine {
	return &Engine{resolve: resolve}
}

// Replace resolves all dynamic content in a value. Strings are resolved,
// maps and slices are walked, other values are returned as-is.
func (e *Engine) Replace(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string:
		return e.resolve(v)
	case map[string]interface{}:
		return e.replaceMap(v)
	case map[string]string:
		return e.ReplaceStrings(v)
	case []interface{}:
		return e.replaceSlice(v)
	case []string:
		out := make([]string, len(v))
		for i, s := range v {
			r, err := e.resolve(s)
			if err != nil {
				return nil, fmt.Errorf("error at index %d: %w", i, err)
			}
			out[i] = r
		}
		return out, nil
	default:
		return value, nil
	}
}

// ReplaceStrings resolves every value of a string map.
func (e *Engine) ReplaceStrings(m map[string]string) (map[string]string, error) {
	result := make(map[string]string, len(m))
	for key, value := range m {
		replaced, err := e.resolve(value)
		if err != nil {
			return nil, fmt.Errorf("error in key '%s': %w", key, err)
		}
		result[key] = replaced
	}
	return result, nil
}

func (e *Engine) replaceMap(m map[string]interface{}) (map[string]interface{}, error) {
	result := make(map[string]interface{}, len(m))

	for key, value := range m {
		replacedValue, err := e.Replace(value)
		if err != nil {
			return nil, fmt.Errorf("error in key '%s': %w", key, err)
		}
		result[key] = replacedValue
	}

	return result, nil
}

func (e *Engine) replaceSlice(s []interface{}) ([]interface{}, error) {
	result := make([]interface{}, len(s))

	for i, value := range s {
		replacedValue, err := e.Replace(value)
		if err != nil {
			return nil, fmt.Errorf("error at index %d: %w", i, err)
		}
		result[i] = replacedValue
	}

	return result, nil
}

// ExtractVariables returns the sorted variable names referenced anywhere in
// a value.
func ExtractVariables(value interface{}) []string {
	variables := make(map[string]bool)
	extractVariablesRecursive(value, variables)

	result := make([]string, 0, len(variables))
	for varName := range variables {
		result = append(result, varName)
	}
	sort.Strings(result)

	return result
}

func extractVariablesRecursive(value interface{}, variables map[string]bool) {
	switch v := value.(type) {
	case string:
		for _, name := range variable.ExtractNames(v) {
			variables[name] = true
		}
	case map[string]interface{}:
		for _, val := range v {
			extractVariablesRecursive(val, variables)
		}
	case map[string]string:
		for _, val := range v {
			extractVariablesRecursive(val, variables)
		}
	case []interface{}:
		for _, val := range v {
			extractVariablesRecursive(val, variables)
		}
	case []string:
		for _, val := range v {
			extractVariablesRecursive(val, variables)
		}
	}
}

// ValidateContext ensures all variables referenced by value are known.
func ValidateContext(value interface{}, known func(name string) bool) error {
	var missingVars []string
	for _, varName := range ExtractVariables(value) {
		if !known(varName) {
			missingVars = append(missingVars, varName)
		}
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required variables: %s", strings.Join(missingVars, ", "))
	}

	return nil
}

// Render executes a Go text/template with the sprig function map. Missing
// keys are errors rather than "<no value>".
func Render(name, text string, data map[string]interface{}) (string, error) {
	tmpl, err := template.New(name).
		Option("missingkey=error").
		Funcs(sprig.TxtFuncMap()).
		Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.String(), nil
}

// RenderData flattens variable scopes into template data. Later scopes win,
// so test variables shadow globals of the same name.
func RenderData(scopes ...map[string]string) map[string]interface{} {
	data := map[string]interface{}{}
	for _, scope := range scopes {
		for k, v := range scope {
			data[k] = v
		}
	}
	return data
}
