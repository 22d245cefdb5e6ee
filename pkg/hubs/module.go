package hubs

import (
	"context"
	"fmt"
)

// Module intercepts invocations and connection events.
//
// Before* hooks run in registration order; returning false stops the walk. After* hooks run
// in reverse order, and only for modules whose Before* hook forwarded. OnError replaces the
// After* hook on the way out when the event carries an error; returning nil recovers it.
type Module interface {
	// BeforeIncoming returns forward=false to short-circuit with the given outcome.
	BeforeIncoming(ctx context.Context, inv *Invocation) (out Outcome, forward bool)
	AfterIncoming(ctx context.Context, inv *Invocation, result any) (any, error)

	BeforeOutgoing(ctx context.Context, msg *OutgoingMessage) bool
	AfterOutgoing(ctx context.Context, msg *OutgoingMessage)

	BeforeConnect(ctx context.Context, conn *Connection) bool
	AfterConnect(ctx context.Context, conn *Connection)

	BeforeReconnect(ctx context.Context, conn *Connection) bool
	AfterReconnect(ctx context.Context, conn *Connection)

	BeforeDisconnect(ctx context.Context, conn *Connection, stopCalled bool) bool
	AfterDisconnect(ctx context.Context, conn *Connection, stopCalled bool)

	OnError(ctx context.Context, ec ErrorContext, err error) error
}

// BaseModule forwards everything untouched. Embed it and override the hooks you need.
type BaseModule struct{}

func (BaseModule) BeforeIncoming(context.Context, *Invocation) (Outcome, bool) {
	return Outcome{}, true
}

func (BaseModule) AfterIncoming(_ context.Context, _ *Invocation, result any) (any, error) {
	return result, nil
}

func (BaseModule) BeforeOutgoing(context.Context, *OutgoingMessage) bool { return true }
func (BaseModule) AfterOutgoing(context.Context, *OutgoingMessage)      {}

func (BaseModule) BeforeConnect(context.Context, *Connection) bool { return true }
func (BaseModule) AfterConnect(context.Context, *Connection)      {}

func (BaseModule) BeforeReconnect(context.Context, *Connection) bool { return true }
func (BaseModule) AfterReconnect(context.Context, *Connection)      {}

func (BaseModule) BeforeDisconnect(context.Context, *Connection, bool) bool { return true }
func (BaseModule) AfterDisconnect(context.Context, *Connection, bool)      {}

func (BaseModule) OnError(_ context.Context, _ ErrorContext, err error) error { return err }

// Named lets a module report a stable name in errors and logs.
type Named interface {
	Name() string
}

// ModuleName returns m's Name, or its dynamic type.
func ModuleName(m Module) string {
	if n, ok := m.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", m)
}
