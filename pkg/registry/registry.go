// Package registry enumerates the default service bindings of a hub host.
package registry

import (
	"iter"

	"github.com/joeydtaylor/steeze-hub/pkg/codec"
	"github.com/joeydtaylor/steeze-hub/pkg/config"
	"github.com/joeydtaylor/steeze-hub/pkg/di"
	"github.com/joeydtaylor/steeze-hub/pkg/hubs"
	"github.com/joeydtaylor/steeze-hub/pkg/infra"
	"github.com/joeydtaylor/steeze-hub/pkg/logging"
	"github.com/joeydtaylor/steeze-hub/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-hub/pkg/middleware/metrics"
	"github.com/joeydtaylor/steeze-hub/pkg/security"
)

// DefaultBindings yields the default bindings in a fixed order, followed by any
// WithBindings extras.
//
// The sequence is lazy and restartable. Each pass that reaches the pipeline binding builds
// a new pipeline holding a fresh authorization module and binds it under both
// hubs.Pipeline and hubs.Invoker. Singleton producers only capture cfg; nothing else is
// constructed and no configuration is read until a container resolves the capability.
func DefaultBindings(cfg config.Provider, opts ...Option) iter.Seq[di.Binding] {
	if cfg == nil {
		cfg = config.Empty()
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return func(yield func(di.Binding) bool) {
		var pipeline *hubs.HubPipeline

		defaults := []func() di.Binding{
			func() di.Binding { return di.InstanceOf(cfg) },
			func() di.Binding {
				return di.SingletonOf(func(di.Resolver) (*config.Manager, error) {
					return config.NewManager(cfg), nil
				})
			},
			func() di.Binding {
				return di.SingletonOf(func(di.Resolver) (infra.ServerIDManager, error) {
					return infra.NewServerIDManager(cfg), nil
				})
			},
			func() di.Binding {
				return di.SingletonOf(func(di.Resolver) (infra.StringMinifier, error) {
					return infra.NewStringMinifier(), nil
				})
			},
			func() di.Binding {
				return di.SingletonOf(func(di.Resolver) (codec.Codec, error) {
					return codec.FromConfig(cfg)
				})
			},
			func() di.Binding {
				return di.SingletonOf(func(di.Resolver) (metrics.Counters, error) {
					c, err := metrics.NewCounters(o.registerer)
					if err != nil {
						return nil, err
					}
					return c, nil
				})
			},
			func() di.Binding {
				return di.SingletonOf(func(di.Resolver) (auth.UserIDProvider, error) {
					return auth.PrincipalUserIDProvider{}, nil
				})
			},
			func() di.Binding {
				return di.SingletonOf(func(di.Resolver) (auth.TokenValidator, error) {
					v, err := auth.NewTokenValidator(cfg)
					if err != nil {
						return nil, err
					}
					return v, nil
				})
			},
			func() di.Binding {
				pipeline = hubs.NewPipeline(auth.NewConfiguredAuthorizeModule(cfg, o.policies...))
				return di.InstanceOf[hubs.Pipeline](pipeline)
			},
			func() di.Binding { return di.InstanceOf[hubs.Invoker](pipeline) },
			func() di.Binding {
				return di.SingletonOf(func(di.Resolver) (logging.Factory, error) {
					return logging.Select(cfg, o.diagnostics)
				})
			},
			func() di.Binding {
				return di.SingletonOf(func(di.Resolver) (security.ProtectedData, error) {
					return security.New(cfg)
				})
			},
		}

		for _, next := range defaults {
			if !yield(next()) {
				return
			}
		}
		for _, b := range o.extra {
			if !yield(b) {
				return
			}
		}
	}
}
