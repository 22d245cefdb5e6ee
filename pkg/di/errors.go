package di

import (
	"errors"
	"fmt"
	"strings"
)

// ErrClosed is returned when resolving from a closed container.
var ErrClosed = errors.New("di: container closed")

// BindingNotFoundError represents a capability with no binding.
type BindingNotFoundError struct {
	Capability string
}

func (e *BindingNotFoundError) Error() string {
	return fmt.Sprintf("no binding found for capability: %s", e.Capability)
}

// InitializationError represents a singleton producer failure.
type InitializationError struct {
	Capability string
	Err        error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("initialization failed for capability %s: %v", e.Capability, e.Err)
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}

// CircularDependencyError reports a producer that transitively requires itself.
type CircularDependencyError struct {
	Chain []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Chain, " -> "))
}

// TypeMismatchError represents a produced value that does not satisfy its capability.
type TypeMismatchError struct {
	Expected string
	Got      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: expected %s, got %s", e.Expected, e.Got)
}

// InvalidBindingError represents a binding that cannot be registered.
type InvalidBindingError struct {
	Capability string
	Reason     string
}

func (e *InvalidBindingError) Error() string {
	return fmt.Sprintf("invalid binding for capability %s: %s", e.Capability, e.Reason)
}
