// Package hostfx assembles a hub host with fx: configuration, the realized service
// container, the pipeline modules and the diagnostics HTTP server.
package hostfx

import (
	"go.uber.org/fx"

	"github.com/joeydtaylor/steeze-hub/pkg/di"
	"github.com/joeydtaylor/steeze-hub/pkg/hubs"
	"github.com/joeydtaylor/steeze-hub/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-hub/pkg/registry"
	"github.com/joeydtaylor/steeze-hub/pkg/transport/httpx"
)

// ---------- Options ----------

type Config struct {
	Service       string // for logs only
	ConfigEnv     string // HUB_CONFIG
	DefaultConfig string // hub.toml
	EnvPrefix     string // HUB_
	ListenEnv     string // HUB_DIAGNOSTICS_ADDRESS
	TLSCertEnv    string // SSL_SERVER_CERTIFICATE
	TLSKeyEnv     string // SSL_SERVER_KEY

	diagnostics *bool
	policies    []auth.Policy
	bindings    []di.Binding
}

type Option func(*Config)

func WithService(s string) Option          { return func(c *Config) { c.Service = s } }
func WithConfigEnv(k string) Option        { return func(c *Config) { c.ConfigEnv = k } }
func WithDefaultConfig(path string) Option { return func(c *Config) { c.DefaultConfig = path } }
func WithEnvPrefix(p string) Option        { return func(c *Config) { c.EnvPrefix = p } }
func WithListenEnv(k string) Option        { return func(c *Config) { c.ListenEnv = k } }
func WithTLSCertKeyEnv(cert, key string) Option {
	return func(c *Config) { c.TLSCertEnv, c.TLSKeyEnv = cert, key }
}

// WithDiagnostics forces diagnostics logging on or off regardless of the build default.
func WithDiagnostics(enabled bool) Option { return func(c *Config) { c.diagnostics = &enabled } }

// WithPolicies guards hubs and methods with the authorization module.
func WithPolicies(ps ...auth.Policy) Option {
	return func(c *Config) { c.policies = append(c.policies, ps...) }
}

// WithBindings binds the host's own services (message bus, transports, hub manager...).
// Each capability is also made injectable into fx.
func WithBindings(bs ...di.Binding) Option {
	return func(c *Config) { c.bindings = append(c.bindings, bs...) }
}

func defaultConfig() Config {
	return Config{
		Service:       "hub",
		ConfigEnv:     "HUB_CONFIG",
		DefaultConfig: "hub.toml",
		EnvPrefix:     "HUB_",
		ListenEnv:     "HUB_DIAGNOSTICS_ADDRESS",
		TLSCertEnv:    "SSL_SERVER_CERTIFICATE",
		TLSKeyEnv:     "SSL_SERVER_KEY",
	}
}

func (c Config) registryOptions() []registry.Option {
	opts := []registry.Option{
		registry.WithAuthorizer(c.policies...),
		registry.WithBindings(c.bindings...),
	}
	if c.diagnostics != nil {
		opts = append(opts, registry.WithDiagnostics(*c.diagnostics))
	}
	return opts
}

// Module returns a complete Fx option set; add hub-specific fx.Invoke(...) alongside.
func Module(opts ...Option) fx.Option {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return fx.Options(
		fx.Provide(func() Config { return cfg }),
		fx.Provide(provideConfigProvider),
		fx.Provide(provideSystemLogger),
		fx.Provide(providePromRegistry),
		fx.Provide(provideContainer),
		capabilities(cfg.bindings),
		// Router impl
		fx.Provide(httpx.NewChi),
		fx.Provide(fx.Annotate(provideDiagnosticsRouter, fx.ResultTags(`name:"diagnostics"`))),
		// Pipeline modules, then lifecycle
		fx.Invoke(installModules),
		fx.Invoke(registerHooks),
	)
}

// AsModule registers ctor's result as a pipeline module. Modules registered this way run
// inside the built-in ones, in the order fx constructs them.
func AsModule(ctor any) fx.Option {
	return fx.Provide(fx.Annotate(ctor, fx.As(new(hubs.Module)), fx.ResultTags(`group:"hub_modules"`)))
}
