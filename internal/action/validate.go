package action

import (
	"fmt"
	"sort"

	"proctor/internal/matcher"
	"proctor/internal/testcontext"
	"proctor/internal/xmlpath"
)

// validateValue compares a received value with an expected value. Expected
// values are resolved first; matcher expressions validate instead of
// comparing.
func validateValue(tc *testcontext.Context, field, actual, expected string) error {
	resolved, err := resolveValue(tc, expected)
	if err != nil {
		return fmt.Errorf("resolve expected value of %s: %w", field, err)
	}

	if matcher.IsExpression(resolved) {
		return matcher.Validate(field, actual, resolved)
	}
	if actual != resolved {
		return fmt.Errorf("%w: values not equal for element '%s', expected '%s' but was '%s'",
			matcher.ErrValidationFailed, field, resolved, actual)
	}
	return nil
}

// validatePayload checks payload values addressed by XPath or element-name
// paths.
func validatePayload(tc *testcontext.Context, payload string, expectations map[string]string) error {
	if len(expectations) == 0 {
		return nil
	}

	doc, err := xmlpath.Parse(payload)
	if err != nil {
		return err
	}

	for _, path := range sortedKeys(expectations) {
		var actual string
		if xmlpath.IsXPath(path) {
			if actual, err = doc.Evaluate(path); err != nil {
				return err
			}
		} else {
			node, ok, err := doc.Find(path)
			if err != nil {
				return err
			}
			if !ok {
				return &testcontext.ElementError{Path: path, Err: testcontext.ErrUnknownElement}
			}
			actual = node.Value()
		}

		if err := validateValue(tc, path, actual, expectations[path]); err != nil {
			return err
		}
	}
	return nil
}

// validateHeaders checks header values. A missing header is an unknown
// element.
func validateHeaders(tc *testcontext.Context, headers, expectations map[string]string) error {
	for _, name := range sortedKeys(expectations) {
		actual, ok := headers[name]
		if !ok {
			return &testcontext.ElementError{Path: name, Err: testcontext.ErrUnknownElement}
		}
		if err := validateValue(tc, name, actual, expectations[name]); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
