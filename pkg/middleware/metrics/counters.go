// Package metrics counts hub traffic with prometheus collectors and serves them on /metrics.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joeydtaylor/steeze-hub/pkg/hubs"
)

const namespace = "hub"

// Counters is the performance counter capability hub services report to.
type Counters interface {
	Connected(hub string)
	Reconnected(hub string)
	Disconnected(hub string)
	InvocationCompleted(m hubs.MethodDescriptor, d time.Duration)
	InvocationFailed(m hubs.MethodDescriptor, d time.Duration)
	MessageSent(hub string)
	Error(kind hubs.EventKind)
}

// PromCounters implements Counters on prometheus collectors.
type PromCounters struct {
	connections  *prometheus.CounterVec
	current      *prometheus.GaugeVec
	invocations  *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	messagesSent *prometheus.CounterVec
	errors       *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	responseTime prometheus.Histogram
}

var _ Counters = (*PromCounters)(nil)

// NewCounters registers the hub collectors on reg. Collectors already registered by an
// earlier call are reused, so several containers can share one registry.
func NewCounters(reg prometheus.Registerer) (*PromCounters, error) {
	c := &PromCounters{
		connections: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "connections_total", Help: "connection lifecycle events by hub"},
			[]string{"hub", "event"},
		),
		current: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: namespace, Name: "connections_current", Help: "open connections by hub"},
			[]string{"hub"},
		),
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "invocations_total", Help: "hub method invocations by outcome"},
			[]string{"hub", "method", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "invocation_duration_seconds",
				Help:      "hub method execution time.",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30},
			},
			[]string{"hub"},
		),
		messagesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "messages_sent_total", Help: "outgoing messages by hub"},
			[]string{"hub"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "errors_total", Help: "pipeline errors by event kind"},
			[]string{"event"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "total_http_requests", Help: "http requests by code, and method"},
			[]string{"code", "method"},
		),
		responseTime: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "response_time",
				Help:    "http response time.",
				Buckets: []float64{0.5, 1, 5, 10, 30, 60},
			},
		),
	}

	var err error
	if c.connections, err = register(reg, c.connections); err != nil {
		return nil, err
	}
	if c.current, err = register(reg, c.current); err != nil {
		return nil, err
	}
	if c.invocations, err = register(reg, c.invocations); err != nil {
		return nil, err
	}
	if c.duration, err = register(reg, c.duration); err != nil {
		return nil, err
	}
	if c.messagesSent, err = register(reg, c.messagesSent); err != nil {
		return nil, err
	}
	if c.errors, err = register(reg, c.errors); err != nil {
		return nil, err
	}
	if c.httpRequests, err = register(reg, c.httpRequests); err != nil {
		return nil, err
	}
	if c.responseTime, err = register(reg, c.responseTime); err != nil {
		return nil, err
	}
	return c, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (c *PromCounters) Connected(hub string) {
	c.connections.WithLabelValues(hub, "connected").Inc()
	c.current.WithLabelValues(hub).Inc()
}

func (c *PromCounters) Reconnected(hub string) {
	c.connections.WithLabelValues(hub, "reconnected").Inc()
}

func (c *PromCounters) Disconnected(hub string) {
	c.connections.WithLabelValues(hub, "disconnected").Inc()
	c.current.WithLabelValues(hub).Dec()
}

func (c *PromCounters) InvocationCompleted(m hubs.MethodDescriptor, d time.Duration) {
	c.invocations.WithLabelValues(m.Hub, m.Name, "completed").Inc()
	c.duration.WithLabelValues(m.Hub).Observe(d.Seconds())
}

func (c *PromCounters) InvocationFailed(m hubs.MethodDescriptor, d time.Duration) {
	c.invocations.WithLabelValues(m.Hub, m.Name, "failed").Inc()
	c.duration.WithLabelValues(m.Hub).Observe(d.Seconds())
}

func (c *PromCounters) MessageSent(hub string) {
	c.messagesSent.WithLabelValues(hub).Inc()
}

func (c *PromCounters) Error(kind hubs.EventKind) {
	c.errors.WithLabelValues(kind.String()).Inc()
}
