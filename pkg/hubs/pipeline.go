package hubs

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
)

// Pipeline is the extensible facet: the chain host code adds modules to during bootstrap.
type Pipeline interface {
	AddModule(m Module) Pipeline
}

// InvokeFunc is the application endpoint for an invocation.
type InvokeFunc func(ctx context.Context, inv *Invocation) (any, error)

// SendFunc delivers an outgoing message.
type SendFunc func(ctx context.Context, msg *OutgoingMessage) error

// LifecycleFunc is the application handler for connect and reconnect.
type LifecycleFunc func(ctx context.Context, conn *Connection) error

// DisconnectFunc is the application handler for disconnect.
type DisconnectFunc func(ctx context.Context, conn *Connection, stopCalled bool) error

// Invoker is the facet the endpoint-dispatch layer calls for every event.
type Invoker interface {
	Invoke(ctx context.Context, inv *Invocation, endpoint InvokeFunc) (any, error)
	Send(ctx context.Context, msg *OutgoingMessage, endpoint SendFunc) error
	Connect(ctx context.Context, conn *Connection, endpoint LifecycleFunc) error
	Reconnect(ctx context.Context, conn *Connection, endpoint LifecycleFunc) error
	Disconnect(ctx context.Context, conn *Connection, stopCalled bool, endpoint DisconnectFunc) error
}

// HubPipeline implements both Pipeline and Invoker.
//
// It is open until the first dispatch (or Freeze); from then on the module list is an
// immutable snapshot read without locking, and AddModule panics.
type HubPipeline struct {
	mu      sync.Mutex
	modules []Module
	frozen  atomic.Pointer[[]Module]
}

var (
	_ Pipeline = (*HubPipeline)(nil)
	_ Invoker  = (*HubPipeline)(nil)
)

// NewPipeline returns an open pipeline holding modules in order.
func NewPipeline(modules ...Module) *HubPipeline {
	p := &HubPipeline{}
	for _, m := range modules {
		p.AddModule(m)
	}
	return p
}

// AddModule appends m. Duplicates are allowed and run independently.
func (p *HubPipeline) AddModule(m Module) Pipeline {
	if m == nil {
		panic("hubs: nil module")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frozen.Load() != nil {
		panic(ErrPipelineFrozen)
	}
	p.modules = append(p.modules, m)
	return p
}

// Freeze ends the bootstrap phase. Dispatching freezes implicitly.
func (p *HubPipeline) Freeze() {
	_ = p.chain()
}

// Frozen reports whether the pipeline has stopped accepting modules.
func (p *HubPipeline) Frozen() bool {
	return p.frozen.Load() != nil
}

// Modules returns a copy of the current module list.
func (p *HubPipeline) Modules() []Module {
	if c := p.frozen.Load(); c != nil {
		return slices.Clone(*c)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.modules)
}

func (p *HubPipeline) chain() []Module {
	if c := p.frozen.Load(); c != nil {
		return *c
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if c := p.frozen.Load(); c != nil {
		return *c
	}
	snapshot := slices.Clip(slices.Clone(p.modules))
	p.frozen.Store(&snapshot)
	return snapshot
}
