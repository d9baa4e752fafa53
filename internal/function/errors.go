package function

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownFunction is returned when no installed library provides the
	// requested function.
	ErrUnknownFunction = errors.New("unknown function")

	// ErrInvalidFunctionUsage is returned when a function is called with
	// missing or malformed parameters.
	ErrInvalidFunctionUsage = errors.New("invalid function usage")
)

// FunctionError records the expression whose evaluation failed.
type FunctionError struct {
	Expression string
	Err        error
}

func (e *FunctionError) Error() string {
	return fmt.Sprintf("function %s: %v", e.Expression, e.Err)
}

func (e *FunctionError) Unwrap() error {
	return e.Err
}

// usageError wraps ErrInvalidFunctionUsage with a detail message.
func usageError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidFunctionUsage, fmt.Sprintf(format, args...))
}
