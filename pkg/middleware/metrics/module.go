package metrics

import (
	"context"
	"time"

	"github.com/joeydtaylor/steeze-hub/pkg/hubs"
)

const startedItemKey = "metrics.started"

// InvocationMetrics feeds Counters from the pipeline.
type InvocationMetrics struct {
	hubs.BaseModule
	c Counters
}

var _ hubs.Module = (*InvocationMetrics)(nil)

func NewInvocationMetrics(c Counters) *InvocationMetrics {
	return &InvocationMetrics{c: c}
}

func (m *InvocationMetrics) Name() string { return "metrics" }

func (m *InvocationMetrics) BeforeIncoming(_ context.Context, inv *hubs.Invocation) (hubs.Outcome, bool) {
	inv.Items.Store(startedItemKey, time.Now())
	return hubs.Outcome{}, true
}

func (m *InvocationMetrics) AfterIncoming(_ context.Context, inv *hubs.Invocation, result any) (any, error) {
	m.c.InvocationCompleted(inv.Method, elapsed(inv))
	return result, nil
}

func (m *InvocationMetrics) AfterOutgoing(_ context.Context, msg *hubs.OutgoingMessage) {
	m.c.MessageSent(msg.Hub)
}

func (m *InvocationMetrics) AfterConnect(_ context.Context, conn *hubs.Connection) {
	m.c.Connected(conn.Hub)
}

func (m *InvocationMetrics) AfterReconnect(_ context.Context, conn *hubs.Connection) {
	m.c.Reconnected(conn.Hub)
}

func (m *InvocationMetrics) AfterDisconnect(_ context.Context, conn *hubs.Connection, _ bool) {
	m.c.Disconnected(conn.Hub)
}

func (m *InvocationMetrics) OnError(_ context.Context, ec hubs.ErrorContext, err error) error {
	if ec.Invocation != nil {
		m.c.InvocationFailed(ec.Invocation.Method, elapsed(ec.Invocation))
	}
	m.c.Error(ec.Kind)
	return err
}

func elapsed(inv *hubs.Invocation) time.Duration {
	if v, ok := inv.Items.Load(startedItemKey); ok {
		if t, ok := v.(time.Time); ok {
			return time.Since(t)
		}
	}
	return 0
}
