// Package di holds service bindings and the container that realizes them.
//
// A Binding pairs a Capability with a producer and a Lifetime. Bindings are plain values;
// nothing is constructed until a Container resolves the capability.
package di

import (
	"fmt"
	"reflect"
)

// Capability identifies a required behavior, usually an interface type.
type Capability struct {
	typ reflect.Type
}

// CapabilityOf returns the capability for T. T is normally an interface.
func CapabilityOf[T any]() Capability {
	return Capability{typ: reflect.TypeOf((*T)(nil)).Elem()}
}

// Type returns the reflected type behind the capability.
func (c Capability) Type() reflect.Type { return c.typ }

func (c Capability) String() string {
	if c.typ == nil {
		return "<nil>"
	}
	return c.typ.String()
}

// Lifetime tags how a binding's value is owned.
type Lifetime string

const (
	// Singleton is constructed once, on first resolution, and shared for the container's life.
	Singleton Lifetime = "singleton"
	// Instance is an object constructed before registration and bound as-is.
	Instance Lifetime = "instance"
)

// Producer constructs a singleton. It receives a Resolver for its own dependencies.
type Producer func(r Resolver) (any, error)

// Binding associates a capability with how to obtain it.
type Binding struct {
	Capability Capability
	Lifetime   Lifetime
	Producer   Producer
	Instance   any
}

func (b Binding) String() string {
	return fmt.Sprintf("%s (%s)", b.Capability, b.Lifetime)
}

// SingletonOf binds T to a lazily invoked constructor.
func SingletonOf[T any](fn func(r Resolver) (T, error)) Binding {
	return Binding{
		Capability: CapabilityOf[T](),
		Lifetime:   Singleton,
		Producer: func(r Resolver) (any, error) {
			return fn(r)
		},
	}
}

// InstanceOf binds T to an already constructed value.
func InstanceOf[T any](v T) Binding {
	return Binding{
		Capability: CapabilityOf[T](),
		Lifetime:   Instance,
		Instance:   v,
	}
}

// Resolver looks up capabilities. Containers implement it, and producers receive one.
type Resolver interface {
	Resolve(c Capability) (any, error)
}

// Resolve is the typed form of Resolver.Resolve.
func Resolve[T any](r Resolver) (T, error) {
	var zero T
	capability := CapabilityOf[T]()
	v, err := r.Resolve(capability)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, &TypeMismatchError{Expected: capability.String(), Got: typeName(v)}
	}
	return typed, nil
}

// MustResolve panics when T cannot be resolved. Intended for bootstrap code.
func MustResolve[T any](r Resolver) T {
	v, err := Resolve[T](r)
	if err != nil {
		panic(err)
	}
	return v
}

func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}
