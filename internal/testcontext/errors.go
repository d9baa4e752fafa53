package testcontext

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownVariable is returned when a variable lookup misses.
	ErrUnknownVariable = errors.New("unknown variable")

	// ErrInvalidVariableName is returned when a variable name is empty or
	// blank once the ${} decoration is removed.
	ErrInvalidVariableName = errors.New("invalid variable name")

	// ErrNullVariableValue is returned when a variable is set to nil.
	ErrNullVariableValue = errors.New("variable value must not be nil")

	// ErrUnknownElement is returned when a path expression or header name
	// does not resolve to anything in a message.
	ErrUnknownElement = errors.New("unknown element")
)

// VariableError carries the variable name an operation failed for.
type VariableError struct {
	Name string
	Err  error
}

func (e *VariableError) Error() string {
	return fmt.Sprintf("%v: '%s'", e.Err, e.Name)
}

func (e *VariableError) Unwrap() error {
	return e.Err
}

// ElementError carries the path expression that did not resolve.
type ElementError struct {
	Path string
	Err  error
}

func (e *ElementError) Error() string {
	return fmt.Sprintf("%v: '%s'", e.Err, e.Path)
}

func (e *ElementError) Unwrap() error {
	return e.Err
}
