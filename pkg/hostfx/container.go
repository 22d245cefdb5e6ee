package hostfx

import (
	"context"
	"errors"
	"io/fs"
	"reflect"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-hub/pkg/codec"
	"github.com/joeydtaylor/steeze-hub/pkg/config"
	"github.com/joeydtaylor/steeze-hub/pkg/di"
	"github.com/joeydtaylor/steeze-hub/pkg/hubs"
	"github.com/joeydtaylor/steeze-hub/pkg/infra"
	"github.com/joeydtaylor/steeze-hub/pkg/logging"
	"github.com/joeydtaylor/steeze-hub/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-hub/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-hub/pkg/middleware/metrics"
	"github.com/joeydtaylor/steeze-hub/pkg/registry"
	"github.com/joeydtaylor/steeze-hub/pkg/security"
)

// provideConfigProvider layers the environment over the TOML file. A missing file is not
// an error.
func provideConfigProvider(cfg Config) (config.Provider, error) {
	env := config.Env(cfg.EnvPrefix)
	path := envOr(cfg.ConfigEnv, cfg.DefaultConfig)
	file, err := config.LoadTOML(path)
	if errors.Is(err, fs.ErrNotExist) {
		return env, nil
	}
	if err != nil {
		return nil, err
	}
	return config.Chain(env, file), nil
}

func provideSystemLogger(lc fx.Lifecycle, p config.Provider) (*zap.Logger, error) {
	return openLog(lc, p, "system.log")
}

// openLog opens a rotated log under logging:dir and closes it when the app stops.
func openLog(lc fx.Lifecycle, p config.Provider, name string) (*zap.Logger, error) {
	console, err := config.Bool(p, logging.KeyConsole, true)
	if err != nil {
		return nil, err
	}
	l, file := logging.NewLog(config.String(p, logging.KeyDir, "log"), name, console)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return file.Close()
		},
	})
	return l, nil
}

func providePromRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// provideContainer realizes the registry. The container is closed when the app stops.
func provideContainer(lc fx.Lifecycle, cfg Config, p config.Provider, reg *prometheus.Registry, zl *zap.Logger) (*di.Container, error) {
	opts := append(cfg.registryOptions(), registry.WithRegisterer(reg))
	c, err := di.New(registry.DefaultBindings(p, opts...))
	if err != nil {
		return nil, err
	}
	zl.Info("services bound", zap.String("service", cfg.Service), zap.Int("capabilities", len(c.Capabilities())))
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return c.Close()
		},
	})
	return c, nil
}

type exported struct {
	capability di.Capability
	ctor       any
}

func export[T any]() exported {
	return exported{capability: di.CapabilityOf[T](), ctor: resolver[T]}
}

// defaults lists the registry capabilities made injectable into fx. config.Provider is
// provided directly, ahead of the container.
func defaults() []exported {
	return []exported{
		export[*config.Manager](),
		export[infra.ServerIDManager](),
		export[infra.StringMinifier](),
		export[codec.Codec](),
		export[metrics.Counters](),
		export[auth.UserIDProvider](),
		export[auth.TokenValidator](),
		export[hubs.Pipeline](),
		export[hubs.Invoker](),
		export[logging.Factory](),
		export[security.ProtectedData](),
	}
}

// capabilities exposes the default capabilities, plus any host capability, to fx.
func capabilities(extra []di.Binding) fx.Option {
	seen := map[di.Capability]bool{di.CapabilityOf[config.Provider](): true}
	var opts []fx.Option
	for _, e := range defaults() {
		seen[e.capability] = true
		opts = append(opts, fx.Provide(e.ctor))
	}
	for _, b := range extra {
		if seen[b.Capability] {
			continue
		}
		seen[b.Capability] = true
		opts = append(opts, fx.Provide(dynamicResolver(b.Capability)))
	}
	return fx.Options(opts...)
}

func resolver[T any](c *di.Container) (T, error) {
	return di.Resolve[T](c)
}

var (
	containerType = reflect.TypeOf((*di.Container)(nil))
	errorType     = reflect.TypeOf((*error)(nil)).Elem()
)

// dynamicResolver builds func(*di.Container) (T, error) for a capability only known at
// runtime.
func dynamicResolver(capability di.Capability) any {
	t := capability.Type()
	fn := reflect.FuncOf([]reflect.Type{containerType}, []reflect.Type{t, errorType}, false)
	return reflect.MakeFunc(fn, func(args []reflect.Value) []reflect.Value {
		c := args[0].Interface().(*di.Container)
		v, err := c.Resolve(capability)
		if err != nil {
			return []reflect.Value{reflect.Zero(t), reflect.ValueOf(&err).Elem()}
		}
		out := reflect.New(t).Elem()
		if v != nil {
			out.Set(reflect.ValueOf(v))
		}
		return []reflect.Value{out, reflect.Zero(errorType)}
	}).Interface()
}

type moduleDeps struct {
	fx.In
	Config   config.Provider
	Pipeline hubs.Pipeline
	Logging  logging.Factory
	Counters metrics.Counters
	Modules  []hubs.Module `group:"hub_modules"`
	Logger   *zap.Logger
}

// Keys switching the built-in pipeline modules.
const (
	KeyPipelineLogging = "hub:pipeline:logging"
	KeyPipelineMetrics = "hub:pipeline:metrics"
)

// installModules appends the logging and metrics modules, then host modules, behind the
// authorization module the registry put first.
func installModules(d moduleDeps) error {
	logOn, err := config.Bool(d.Config, KeyPipelineLogging, true)
	if err != nil {
		return err
	}
	metricsOn, err := config.Bool(d.Config, KeyPipelineMetrics, true)
	if err != nil {
		return err
	}

	if logOn {
		d.Pipeline.AddModule(logger.NewInvocationLogger(d.Logging))
	}
	if metricsOn {
		d.Pipeline.AddModule(metrics.NewInvocationMetrics(d.Counters))
	}
	for _, m := range d.Modules {
		d.Pipeline.AddModule(m)
	}

	names := []string{}
	if hp, ok := d.Pipeline.(*hubs.HubPipeline); ok {
		for _, m := range hp.Modules() {
			names = append(names, hubs.ModuleName(m))
		}
	}
	d.Logger.Info("pipeline assembled", zap.Strings("modules", names))
	return nil
}
