// Package matcher implements validation matchers. A matcher expression is
// written as @name('control')@ in the place of an expected value and
// validates the received value instead of comparing it literally.
package matcher

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"proctor/internal/function"
)

// ErrValidationFailed is returned when a received value does not satisfy a
// matcher.
var ErrValidationFailed = errors.New("validation failed")

// ErrUnknownMatcher is returned for expressions naming an unregistered
// matcher.
var ErrUnknownMatcher = errors.New("unknown validation matcher")

// ValidationError describes a failed match.
type ValidationError struct {
	Matcher string
	Field   string
	Value   string
	Control string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s failed for field '%s'. Received value is '%s', control value is '%s'",
		e.Matcher, e.Field, e.Value, e.Control)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// Func checks a received value against the matcher parameters and reports
// a mismatch as a plain bool. Malformed parameters are returned as errors.
type Func func(value string, params []string) (bool, error)

var matchers = map[string]Func{
	"ignore":             func(string, []string) (bool, error) { return true, nil },
	"equalsIgnoreCase":   withControl(strings.EqualFold),
	"startsWith":         withControl(strings.HasPrefix),
	"endsWith":           withControl(strings.HasSuffix),
	"contains":           withControl(strings.Contains),
	"containsIgnoreCase": withControl(func(v, c string) bool { return strings.Contains(strings.ToLower(v), strings.ToLower(c)) }),
	"matchesPattern":     matchesPattern,
	"isNumber":           func(v string, _ []string) (bool, error) { return isNumber(v), nil },
	"isUUID":             func(v string, _ []string) (bool, error) { _, err := uuid.Parse(v); return err == nil, nil },
	"isEmpty":            func(v string, _ []string) (bool, error) { return strings.TrimSpace(v) == "", nil },
	"notEmpty":           func(v string, _ []string) (bool, error) { return strings.TrimSpace(v) != "", nil },
	"greaterThan":        compareNumber(func(v, c float64) bool { return v > c }),
	"lowerThan":          compareNumber(func(v, c float64) bool { return v < c }),
	"stringLength":       stringLength,
}

func withControl(check func(value, control string) bool) Func {
	return func(value string, params []string) (bool, error) {
		if len(params) == 0 {
			return false, errors.New("missing control value")
		}
		return check(value, params[0]), nil
	}
}

func matchesPattern(value string, params []string) (bool, error) {
	if len(params) == 0 {
		return false, errors.New("missing pattern")
	}
	re, err := regexp.Compile("^(?:" + params[0] + ")$")
	if err != nil {
		return false, fmt.Errorf("invalid pattern %q: %w", params[0], err)
	}
	return re.MatchString(value), nil
}

func isNumber(v string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return err == nil
}

func compareNumber(cmp func(value, control float64) bool) Func {
	return func(value string, params []string) (bool, error) {
		if len(params) == 0 {
			return false, errors.New("missing control value")
		}
		control, err := strconv.ParseFloat(strings.TrimSpace(params[0]), 64)
		if err != nil {
			return false, fmt.Errorf("control value %q is not a number", params[0])
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return false, nil
		}
		return cmp(v, control), nil
	}
}

func stringLength(value string, params []string) (bool, error) {
	if len(params) == 0 {
		return false, errors.New("missing length")
	}
	n, err := strconv.Atoi(strings.TrimSpace(params[0]))
	if err != nil {
		return false, fmt.Errorf("length %q is not an integer", params[0])
	}
	return len([]rune(value)) == n, nil
}

// Names returns the sorted names of all known matchers.
func Names() []string {
	names := make([]string, 0, len(matchers))
	for name := range matchers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsExpression reports whether s is a matcher expression.
func IsExpression(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) > 2 && strings.HasPrefix(s, "@") && strings.HasSuffix(s, "@")
}

// Parse splits a matcher expression into the matcher name and its
// parameters.
func Parse(expression string) (string, []string, error) {
	if !IsExpression(expression) {
		return "", nil, fmt.Errorf("%q is not a matcher expression", expression)
	}

	body := strings.TrimSpace(expression)
	body = body[1 : len(body)-1]

	open := strings.Index(body, "(")
	if open < 0 {
		return body, nil, nil
	}
	if !strings.HasSuffix(body, ")") {
		return "", nil, fmt.Errorf("missing closing bracket in matcher expression %q", expression)
	}

	params, err := function.ParseParameters(body[open+1 : len(body)-1])
	if err != nil {
		return "", nil, err
	}
	return body[:open], params, nil
}

// Validate checks value, received for field, against a matcher expression.
func Validate(field, value, expression string) error {
	name, params, err := Parse(expression)
	if err != nil {
		return err
	}

	fn, ok := matchers[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMatcher, name)
	}

	matched, err := fn(value, params)
	if err != nil {
		return fmt.Errorf("matcher %s on field '%s': %w", name, field, err)
	}
	if !matched {
		return &ValidationError{
			Matcher: name,
			Field:   field,
			Value:   value,
			Control: strings.Join(params, ", "),
		}
	}
	return nil
}
