package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeydtaylor/steeze-hub/pkg/hubs"
)

func newCounters(t *testing.T) (*PromCounters, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	c, err := NewCounters(reg)
	require.NoError(t, err)
	return c, reg
}

func TestCountersShareRegistry(t *testing.T) {
	a, reg := newCounters(t)
	b, err := NewCounters(reg)
	require.NoError(t, err)

	a.MessageSent("chat")
	b.MessageSent("chat")
	assert.Equal(t, 2.0, testutil.ToFloat64(a.messagesSent.WithLabelValues("chat")))
}

func TestCountersConflict(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "connections_total", Help: "clash"}))
	_, err := NewCounters(reg)
	assert.Error(t, err)
}

func TestModuleCountsPipelineEvents(t *testing.T) {
	c, _ := newCounters(t)
	p := hubs.NewPipeline(NewInvocationMetrics(c))
	ctx := context.Background()
	conn := &hubs.Connection{ID: "c1", Hub: "chat"}
	ok := func(context.Context, *hubs.Connection) error { return nil }

	require.NoError(t, p.Connect(ctx, conn, ok))
	require.NoError(t, p.Reconnect(ctx, conn, ok))

	send := hubs.MethodDescriptor{Hub: "chat", Name: "Send"}
	_, err := p.Invoke(ctx, &hubs.Invocation{Connection: conn, Method: send}, func(context.Context, *hubs.Invocation) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	_, err = p.Invoke(ctx, &hubs.Invocation{Connection: conn, Method: send}, func(context.Context, *hubs.Invocation) (any, error) {
		return nil, errors.New("boom")
	})
	require.Error(t, err)

	require.NoError(t, p.Send(ctx, &hubs.OutgoingMessage{Signal: "c1", Hub: "chat", Method: "recv"},
		func(context.Context, *hubs.OutgoingMessage) error { return nil }))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.connections.WithLabelValues("chat", "connected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.connections.WithLabelValues("chat", "reconnected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.current.WithLabelValues("chat")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.invocations.WithLabelValues("chat", "Send", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.invocations.WithLabelValues("chat", "Send", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.errors.WithLabelValues("incoming")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.messagesSent.WithLabelValues("chat")))

	require.NoError(t, p.Disconnect(ctx, conn, false, func(context.Context, *hubs.Connection, bool) error { return nil }))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.current.WithLabelValues("chat")))
}

func TestHTTPCollectAndHandler(t *testing.T) {
	c, reg := newCounters(t)
	h := c.Collect("/metrics")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			Handler(reg).ServeHTTP(w, r)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	for range 3 {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("204", "GET")))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `total_http_requests{code="204",method="GET"} 3`))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("204", "GET")))
}
