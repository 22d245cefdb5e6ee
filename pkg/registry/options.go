package registry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/joeydtaylor/steeze-hub/pkg/di"
	"github.com/joeydtaylor/steeze-hub/pkg/logging"
	"github.com/joeydtaylor/steeze-hub/pkg/middleware/auth"
)

type options struct {
	diagnostics bool
	registerer  prometheus.Registerer
	policies    []auth.Policy
	extra       []di.Binding
}

type Option func(*options)

// WithDiagnostics overrides the build-time diagnostics default.
func WithDiagnostics(enabled bool) Option { return func(o *options) { o.diagnostics = enabled } }

// WithRegisterer sets where the performance counters register. Default is the prometheus
// default registerer.
func WithRegisterer(r prometheus.Registerer) Option { return func(o *options) { o.registerer = r } }

// WithAuthorizer adds policies to the authorization module at the head of the pipeline.
func WithAuthorizer(policies ...auth.Policy) Option {
	return func(o *options) { o.policies = append(o.policies, policies...) }
}

// WithBindings appends host bindings after the defaults. A host binding for a default
// capability replaces it once the sequence is realized.
func WithBindings(bs ...di.Binding) Option {
	return func(o *options) { o.extra = append(o.extra, bs...) }
}

func defaultOptions() options {
	return options{
		diagnostics: logging.DiagnosticsAvailable,
		registerer:  prometheus.DefaultRegisterer,
	}
}
