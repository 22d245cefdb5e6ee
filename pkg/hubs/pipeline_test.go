package hubs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a module that appends "<name>:<hook>" to a shared trace.
type recorder struct {
	BaseModule
	name  string
	trace *[]string
	mu    *sync.Mutex

	shortCircuit *Outcome
	veto         bool
	recover      bool
	replace      error
	panicIn      string
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) log(hook string) {
	r.mu.Lock()
	*r.trace = append(*r.trace, r.name+":"+hook)
	r.mu.Unlock()
	if r.panicIn == hook {
		panic(fmt.Sprintf("%s blew up", r.name))
	}
}

func (r *recorder) BeforeIncoming(_ context.Context, _ *Invocation) (Outcome, bool) {
	r.log("before")
	if r.shortCircuit != nil {
		return *r.shortCircuit, false
	}
	return Outcome{}, true
}

func (r *recorder) AfterIncoming(_ context.Context, _ *Invocation, result any) (any, error) {
	r.log("after")
	if s, ok := result.(string); ok {
		return s + "+" + r.name, nil
	}
	return result, nil
}

func (r *recorder) BeforeConnect(context.Context, *Connection) bool {
	r.log("before")
	return !r.veto
}

func (r *recorder) AfterConnect(context.Context, *Connection) { r.log("after") }

func (r *recorder) BeforeOutgoing(context.Context, *OutgoingMessage) bool {
	r.log("before")
	return !r.veto
}

func (r *recorder) AfterOutgoing(context.Context, *OutgoingMessage) { r.log("after") }

func (r *recorder) OnError(_ context.Context, _ ErrorContext, err error) error {
	r.log("error")
	if r.recover {
		return nil
	}
	if r.replace != nil {
		return r.replace
	}
	return err
}

type fixture struct {
	trace []string
	mu    sync.Mutex
}

func (f *fixture) module(name string) *recorder {
	return &recorder{name: name, trace: &f.trace, mu: &f.mu}
}

func (f *fixture) endpoint(result any, err error) InvokeFunc {
	return func(context.Context, *Invocation) (any, error) {
		f.mu.Lock()
		f.trace = append(f.trace, "endpoint")
		f.mu.Unlock()
		return result, err
	}
}

func newInvocation() *Invocation {
	return &Invocation{
		Connection: &Connection{ID: "c1", Hub: "chat"},
		Method:     MethodDescriptor{Hub: "chat", Name: "Send"},
		Args:       []any{"hello"},
	}
}

func TestInvokeOnionOrder(t *testing.T) {
	f := &fixture{}
	p := NewPipeline(f.module("A"), f.module("B"), f.module("C"))

	res, err := p.Invoke(context.Background(), newInvocation(), f.endpoint("ok", nil))
	require.NoError(t, err)
	assert.Equal(t, "ok+C+B+A", res)
	assert.Equal(t, []string{
		"A:before", "B:before", "C:before",
		"endpoint",
		"C:after", "B:after", "A:after",
	}, f.trace)
}

func TestDuplicateModuleRunsOncePerEntry(t *testing.T) {
	f := &fixture{}
	a := f.module("A")
	p := NewPipeline(a, f.module("B"), a)

	res, err := p.Invoke(context.Background(), newInvocation(), f.endpoint("ok", nil))
	require.NoError(t, err)
	assert.Equal(t, "ok+A+B+A", res)
	assert.Equal(t, []string{
		"A:before", "B:before", "A:before",
		"endpoint",
		"A:after", "B:after", "A:after",
	}, f.trace)
	assert.Len(t, p.Modules(), 3)
}

// rewriter replaces the invocation arguments on the way in.
type rewriter struct {
	BaseModule
	args []any
}

func (r *rewriter) BeforeIncoming(_ context.Context, inv *Invocation) (Outcome, bool) {
	inv.Args = r.args
	return Outcome{}, true
}

// argsSeen records the arguments it is handed.
type argsSeen struct {
	BaseModule
	got []any
}

func (a *argsSeen) BeforeIncoming(_ context.Context, inv *Invocation) (Outcome, bool) {
	a.got = inv.Args
	return Outcome{}, true
}

func TestModuleRewritesArguments(t *testing.T) {
	inner := &argsSeen{}
	p := NewPipeline(&rewriter{args: []any{"HELLO", 2}}, inner)

	var endpointArgs []any
	res, err := p.Invoke(context.Background(), newInvocation(), func(_ context.Context, inv *Invocation) (any, error) {
		endpointArgs = inv.Args
		return len(inv.Args), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res)
	assert.Equal(t, []any{"HELLO", 2}, inner.got)
	assert.Equal(t, []any{"HELLO", 2}, endpointArgs)
}

func TestInvokeShortCircuit(t *testing.T) {
	f := &fixture{}
	b := f.module("B")
	b.shortCircuit = &Outcome{Result: "cached"}
	p := NewPipeline(f.module("A"), b, f.module("C"))

	res, err := p.Invoke(context.Background(), newInvocation(), f.endpoint("ok", nil))
	require.NoError(t, err)
	assert.Equal(t, "cached+A", res)
	assert.Equal(t, []string{"A:before", "B:before", "A:after"}, f.trace)
}

func TestInvokeShortCircuitWithError(t *testing.T) {
	f := &fixture{}
	denied := errors.New("denied")
	a := f.module("A")
	a.shortCircuit = &Outcome{Err: denied}
	p := NewPipeline(a, f.module("B"))

	res, err := p.Invoke(context.Background(), newInvocation(), f.endpoint("ok", nil))
	assert.Nil(t, res)
	assert.ErrorIs(t, err, denied)
	assert.Equal(t, []string{"A:before"}, f.trace)
}

func TestInvokeErrorWalksOutward(t *testing.T) {
	f := &fixture{}
	boom := errors.New("boom")
	p := NewPipeline(f.module("A"), f.module("B"))

	res, err := p.Invoke(context.Background(), newInvocation(), f.endpoint(nil, boom))
	assert.Nil(t, res)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"A:before", "B:before", "endpoint", "B:error", "A:error"}, f.trace)
}

func TestOnErrorReplaceAndRecover(t *testing.T) {
	t.Run("replace", func(t *testing.T) {
		f := &fixture{}
		wrapped := errors.New("wrapped")
		b := f.module("B")
		b.replace = wrapped
		p := NewPipeline(f.module("A"), b)

		_, err := p.Invoke(context.Background(), newInvocation(), f.endpoint(nil, errors.New("boom")))
		assert.ErrorIs(t, err, wrapped)
	})

	t.Run("recover", func(t *testing.T) {
		f := &fixture{}
		b := f.module("B")
		b.recover = true
		p := NewPipeline(f.module("A"), b)

		res, err := p.Invoke(context.Background(), newInvocation(), f.endpoint(nil, errors.New("boom")))
		require.NoError(t, err)
		assert.Nil(t, res)
		assert.Equal(t, []string{"A:before", "B:before", "endpoint", "B:error", "A:after"}, f.trace)
	})
}

func TestHookPanicBecomesModuleError(t *testing.T) {
	f := &fixture{}
	b := f.module("B")
	b.panicIn = "before"
	p := NewPipeline(f.module("A"), b, f.module("C"))

	_, err := p.Invoke(context.Background(), newInvocation(), f.endpoint("ok", nil))
	var me *ModuleError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "B", me.Module)
	assert.Equal(t, "BeforeIncoming", me.Hook)
	assert.Equal(t, []string{"A:before", "B:before", "A:error"}, f.trace)
}

func TestEndpointPanicBecomesModuleError(t *testing.T) {
	p := NewPipeline()
	_, err := p.Invoke(context.Background(), newInvocation(), func(context.Context, *Invocation) (any, error) {
		panic(errors.New("endpoint exploded"))
	})
	var me *ModuleError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, endpointName, me.Module)
	assert.EqualError(t, me.Err, "endpoint exploded")
}

func TestConnectVeto(t *testing.T) {
	f := &fixture{}
	b := f.module("B")
	b.veto = true
	p := NewPipeline(f.module("A"), b, f.module("C"))

	called := false
	err := p.Connect(context.Background(), &Connection{ID: "c1"}, func(context.Context, *Connection) error {
		called = true
		return nil
	})

	var rej *RejectedError
	require.ErrorAs(t, err, &rej)
	assert.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, EventConnect, rej.Event)
	assert.Equal(t, "B", rej.Module)
	assert.False(t, called)
	assert.Equal(t, []string{"A:before", "B:before", "A:error"}, f.trace)
}

func TestConnectSuccessRunsAfterHooksInReverse(t *testing.T) {
	f := &fixture{}
	p := NewPipeline(f.module("A"), f.module("B"))

	err := p.Connect(context.Background(), &Connection{ID: "c1"}, func(context.Context, *Connection) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, []string{"A:before", "B:before", "B:after", "A:after"}, f.trace)
}

func TestSendEndpointError(t *testing.T) {
	f := &fixture{}
	lost := errors.New("lost")
	p := NewPipeline(f.module("A"))

	err := p.Send(context.Background(), &OutgoingMessage{Signal: "c1", Method: "recv"}, func(context.Context, *OutgoingMessage) error {
		return lost
	})
	assert.ErrorIs(t, err, lost)
	assert.Equal(t, []string{"A:before", "A:error"}, f.trace)
}

func TestDisconnectAndReconnectDefaults(t *testing.T) {
	p := NewPipeline(BaseModule{})
	var stop bool
	require.NoError(t, p.Disconnect(context.Background(), &Connection{ID: "c1"}, true, func(_ context.Context, _ *Connection, stopCalled bool) error {
		stop = stopCalled
		return nil
	}))
	assert.True(t, stop)
	require.NoError(t, p.Reconnect(context.Background(), &Connection{ID: "c1"}, func(context.Context, *Connection) error { return nil }))
}

func TestAddModuleAfterDispatchPanics(t *testing.T) {
	p := NewPipeline(BaseModule{})
	assert.False(t, p.Frozen())

	_, err := p.Invoke(context.Background(), newInvocation(), func(context.Context, *Invocation) (any, error) { return nil, nil })
	require.NoError(t, err)
	assert.True(t, p.Frozen())

	assert.PanicsWithError(t, ErrPipelineFrozen.Error(), func() { p.AddModule(BaseModule{}) })
	assert.Len(t, p.Modules(), 1)
}

func TestExplicitFreeze(t *testing.T) {
	p := NewPipeline()
	p.AddModule(BaseModule{}).AddModule(BaseModule{})
	p.Freeze()
	assert.Len(t, p.Modules(), 2)
	assert.Panics(t, func() { p.AddModule(BaseModule{}) })
}

func TestAddNilModulePanics(t *testing.T) {
	assert.Panics(t, func() { NewPipeline().AddModule(nil) })
}

type counting struct {
	BaseModule
	before, after atomic.Int64
}

func (c *counting) BeforeIncoming(context.Context, *Invocation) (Outcome, bool) {
	c.before.Add(1)
	return Outcome{}, true
}

func (c *counting) AfterIncoming(_ context.Context, _ *Invocation, result any) (any, error) {
	c.after.Add(1)
	return result, nil
}

func TestConcurrentInvokes(t *testing.T) {
	c := &counting{}
	p := NewPipeline(c)

	const n = 64
	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		go func() {
			defer wg.Done()
			res, err := p.Invoke(context.Background(), newInvocation(), func(context.Context, *Invocation) (any, error) {
				return i, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, i, res)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, n, c.before.Load())
	assert.EqualValues(t, n, c.after.Load())
}
