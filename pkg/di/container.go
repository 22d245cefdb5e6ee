package di

import (
	"fmt"
	"io"
	"iter"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
)

// entry is one realized binding. value is published through ready so the fast path never
// takes the lock.
type entry struct {
	binding Binding
	mu      sync.Mutex
	ready   atomic.Bool
	value   any
}

// Container owns construction and disposal of the services bound to it.
// It is safe for concurrent use once New returns.
type Container struct {
	entries map[Capability]*entry
	order   []Capability

	mu          sync.Mutex
	constructed []*entry
	closed      atomic.Bool
}

var _ Resolver = (*Container)(nil)

// New consumes bindings once. A later binding for a capability replaces an earlier one.
func New(bindings iter.Seq[Binding]) (*Container, error) {
	c := &Container{entries: make(map[Capability]*entry, 32)}
	for b := range bindings {
		if err := validate(b); err != nil {
			return nil, err
		}
		e := &entry{binding: b}
		if b.Lifetime == Instance {
			e.value = b.Instance
			e.ready.Store(true)
		}
		if _, seen := c.entries[b.Capability]; !seen {
			c.order = append(c.order, b.Capability)
		}
		c.entries[b.Capability] = e
	}
	return c, nil
}

func validate(b Binding) error {
	if b.Capability.typ == nil {
		return &InvalidBindingError{Capability: b.Capability.String(), Reason: "missing capability"}
	}
	switch b.Lifetime {
	case Singleton:
		if b.Producer == nil {
			return &InvalidBindingError{Capability: b.Capability.String(), Reason: "singleton without producer"}
		}
	case Instance:
		if b.Instance == nil {
			return &InvalidBindingError{Capability: b.Capability.String(), Reason: "nil instance"}
		}
		if !reflect.TypeOf(b.Instance).AssignableTo(b.Capability.typ) {
			return &TypeMismatchError{Expected: b.Capability.String(), Got: typeName(b.Instance)}
		}
	default:
		return &InvalidBindingError{Capability: b.Capability.String(), Reason: fmt.Sprintf("unknown lifetime %q", b.Lifetime)}
	}
	return nil
}

// Resolve returns the value bound to capability, constructing a singleton on first use.
func (c *Container) Resolve(capability Capability) (any, error) {
	return c.resolve(capability, nil)
}

// Has reports whether capability has a binding.
func (c *Container) Has(capability Capability) bool {
	_, ok := c.entries[capability]
	return ok
}

// Capabilities lists bound capabilities in first-registration order.
func (c *Container) Capabilities() []Capability {
	return slices.Clone(c.order)
}

// Lifetime returns the lifetime of the active binding for capability.
func (c *Container) Lifetime(capability Capability) (Lifetime, bool) {
	e, ok := c.entries[capability]
	if !ok {
		return "", false
	}
	return e.binding.Lifetime, true
}

func (c *Container) resolve(capability Capability, chain []Capability) (any, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	e, ok := c.entries[capability]
	if !ok {
		return nil, &BindingNotFoundError{Capability: capability.String()}
	}
	if e.ready.Load() {
		return e.value, nil
	}

	// Checked before taking e.mu: a self-dependent producer would otherwise deadlock.
	if slices.Contains(chain, capability) {
		names := make([]string, 0, len(chain)+1)
		for _, link := range chain {
			names = append(names, link.String())
		}
		return nil, &CircularDependencyError{Chain: append(names, capability.String())}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ready.Load() {
		return e.value, nil
	}

	next := append(slices.Clip(chain), capability)
	v, err := produce(e.binding.Producer, &scope{c: c, chain: next})
	if err != nil {
		return nil, &InitializationError{Capability: capability.String(), Err: err}
	}
	if v == nil || !reflect.TypeOf(v).AssignableTo(capability.typ) {
		return nil, &TypeMismatchError{Expected: capability.String(), Got: typeName(v)}
	}

	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		if closer, ok := v.(io.Closer); ok {
			_ = closer.Close()
		}
		return nil, ErrClosed
	}
	e.value = v
	e.ready.Store(true)
	c.constructed = append(c.constructed, e)
	c.mu.Unlock()
	return v, nil
}

func produce(p Producer, r Resolver) (v any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("producer panic: %v", rec)
		}
	}()
	return p(r)
}

// Close disposes constructed singletons that implement io.Closer, newest first.
// Instance bindings belong to whoever built them and are left alone. A singleton whose
// construction finishes after Close is disposed at once and its resolution fails with
// ErrClosed.
func (c *Container) Close() error {
	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		return nil
	}
	c.closed.Store(true)
	built := c.constructed
	c.constructed = nil
	c.mu.Unlock()

	var err error
	for i := len(built) - 1; i >= 0; i-- {
		if closer, ok := built[i].value.(io.Closer); ok {
			if cerr := closer.Close(); cerr != nil {
				err = multierr.Append(err, fmt.Errorf("close %s: %w", built[i].binding.Capability, cerr))
			}
		}
	}
	return err
}

// scope is the Resolver handed to producers; it carries the resolution chain.
type scope struct {
	c     *Container
	chain []Capability
}

func (s *scope) Resolve(capability Capability) (any, error) {
	return s.c.resolve(capability, s.chain)
}
