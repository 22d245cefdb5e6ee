package hubs

import (
	"errors"
	"fmt"
)

var (
	// ErrPipelineFrozen is the panic value of AddModule after the first dispatch.
	ErrPipelineFrozen = errors.New("hubs: pipeline is frozen; modules must be added before the first dispatch")

	// ErrRejected matches every *RejectedError.
	ErrRejected = errors.New("hubs: event rejected")
)

// RejectedError reports a lifecycle event or outgoing message a module declined to forward.
type RejectedError struct {
	Event  EventKind
	Module string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s rejected by module %s", e.Event, e.Module)
}

func (e *RejectedError) Unwrap() error {
	return ErrRejected
}

// ModuleError wraps a panic raised inside a module hook or endpoint.
type ModuleError struct {
	Module string
	Hook   string
	Err    error
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("module %s failed in %s: %v", e.Module, e.Hook, e.Err)
}

func (e *ModuleError) Unwrap() error {
	return e.Err
}
