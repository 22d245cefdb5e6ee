package hubs

import (
	"context"
	"fmt"
)

const endpointName = "endpoint"

// Invoke runs inv through the chain and, if every module forwards, through endpoint.
func (p *HubPipeline) Invoke(ctx context.Context, inv *Invocation, endpoint InvokeFunc) (any, error) {
	mods := p.chain()
	ec := ErrorContext{Kind: EventIncoming, Invocation: inv, Connection: inv.Connection}

	var out Outcome
	entered := 0
	forwarded := true
	for _, m := range mods {
		var (
			o   Outcome
			fwd bool
		)
		if err := guard(ModuleName(m), "BeforeIncoming", func() { o, fwd = m.BeforeIncoming(ctx, inv) }); err != nil {
			out, forwarded = Outcome{Err: err}, false
			break
		}
		if !fwd {
			out, forwarded = o, false
			break
		}
		entered++
	}

	if forwarded {
		err := guard(endpointName, EventIncoming.String(), func() { out.Result, out.Err = endpoint(ctx, inv) })
		if err != nil {
			out = Outcome{Err: err}
		}
	}

	for i := entered - 1; i >= 0; i-- {
		m := mods[i]
		if out.Err != nil {
			out = Outcome{Err: onError(ctx, m, ec, out.Err)}
			continue
		}
		var (
			res any
			err error
		)
		if perr := guard(ModuleName(m), "AfterIncoming", func() { res, err = m.AfterIncoming(ctx, inv, out.Result) }); perr != nil {
			err = perr
		}
		out = Outcome{Result: res, Err: err}
	}

	if out.Err != nil {
		return nil, out.Err
	}
	return out.Result, nil
}

// Send runs an outgoing message through the chain before endpoint delivers it.
func (p *HubPipeline) Send(ctx context.Context, msg *OutgoingMessage, endpoint SendFunc) error {
	return p.walk(ctx, ErrorContext{Kind: EventOutgoing, Message: msg},
		func(m Module) bool { return m.BeforeOutgoing(ctx, msg) },
		func(m Module) { m.AfterOutgoing(ctx, msg) },
		func() error { return endpoint(ctx, msg) },
	)
}

// Connect runs a new connection through the chain. A module that does not forward vetoes
// the connection and Connect returns a *RejectedError.
func (p *HubPipeline) Connect(ctx context.Context, conn *Connection, endpoint LifecycleFunc) error {
	return p.walk(ctx, ErrorContext{Kind: EventConnect, Connection: conn},
		func(m Module) bool { return m.BeforeConnect(ctx, conn) },
		func(m Module) { m.AfterConnect(ctx, conn) },
		func() error { return endpoint(ctx, conn) },
	)
}

// Reconnect runs a resumed connection through the chain.
func (p *HubPipeline) Reconnect(ctx context.Context, conn *Connection, endpoint LifecycleFunc) error {
	return p.walk(ctx, ErrorContext{Kind: EventReconnect, Connection: conn},
		func(m Module) bool { return m.BeforeReconnect(ctx, conn) },
		func(m Module) { m.AfterReconnect(ctx, conn) },
		func() error { return endpoint(ctx, conn) },
	)
}

// Disconnect runs a closing connection through the chain.
func (p *HubPipeline) Disconnect(ctx context.Context, conn *Connection, stopCalled bool, endpoint DisconnectFunc) error {
	return p.walk(ctx, ErrorContext{Kind: EventDisconnect, Connection: conn},
		func(m Module) bool { return m.BeforeDisconnect(ctx, conn, stopCalled) },
		func(m Module) { m.AfterDisconnect(ctx, conn, stopCalled) },
		func() error { return endpoint(ctx, conn, stopCalled) },
	)
}

// walk is the shared forward/backward traversal for events without a result value.
func (p *HubPipeline) walk(
	ctx context.Context,
	ec ErrorContext,
	before func(Module) bool,
	after func(Module),
	terminal func() error,
) error {
	mods := p.chain()
	kind := ec.Kind.String()

	var err error
	entered := 0
	for _, m := range mods {
		name := ModuleName(m)
		fwd := false
		if perr := guard(name, "Before/"+kind, func() { fwd = before(m) }); perr != nil {
			err = perr
			break
		}
		if !fwd {
			err = &RejectedError{Event: ec.Kind, Module: name}
			break
		}
		entered++
	}

	if entered == len(mods) && err == nil {
		if perr := guard(endpointName, kind, func() { err = terminal() }); perr != nil {
			err = perr
		}
	}

	for i := entered - 1; i >= 0; i-- {
		m := mods[i]
		if err != nil {
			err = onError(ctx, m, ec, err)
			continue
		}
		err = guard(ModuleName(m), "After/"+kind, func() { after(m) })
	}
	return err
}

func onError(ctx context.Context, m Module, ec ErrorContext, err error) error {
	out := err
	if perr := guard(ModuleName(m), "OnError", func() { out = m.OnError(ctx, ec, err) }); perr != nil {
		return perr
	}
	return out
}

// guard runs fn and converts a panic into a *ModuleError.
func guard(module, hook string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = &ModuleError{Module: module, Hook: hook, Err: e}
				return
			}
			err = &ModuleError{Module: module, Hook: hook, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	fn()
	return nil
}
