package hostfx

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
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
	"github.com/joeydtaylor/steeze-hub/pkg/transport/httpx"
)

// Keys read by the diagnostics server.
const (
	KeyDiagnosticsRequireAuth = "diagnostics:require_auth"
	KeyDiagnosticsRole        = "diagnostics:role"
	KeyAuthCookie             = "auth:cookie"
)

// ---------- Router ----------

type routerDeps struct {
	fx.In
	Lifecycle fx.Lifecycle
	Config    config.Provider
	Container *di.Container
	Router    httpx.Router
	Registry  *prometheus.Registry
	Counters  metrics.Counters
	Validator auth.TokenValidator
	Codec     codec.Codec
	ServerID  infra.ServerIDManager
	Logging   logging.Factory
	Pipeline  hubs.Pipeline
}

func provideDiagnosticsRouter(d routerDeps) (http.Handler, error) {
	requireAuth, err := config.Bool(d.Config, KeyDiagnosticsRequireAuth, false)
	if err != nil {
		return nil, err
	}
	access, err := openLog(d.Lifecycle, d.Config, "http-access.log")
	if err != nil {
		return nil, err
	}

	d.Router.Use(
		logger.Access(access),
		auth.Middleware(d.Validator, config.String(d.Config, KeyAuthCookie, "")),
	)
	if pc, ok := d.Counters.(*metrics.PromCounters); ok {
		d.Router.Use(pc.Collect("/metrics"))
	}

	var protect []func(http.Handler) http.Handler
	if requireAuth {
		protect = append(protect, auth.RequireUser(
			config.String(d.Config, auth.KeyAdminRole, ""),
			config.String(d.Config, KeyDiagnosticsRole, ""),
		))
	}

	httpx.MountDiagnostics(d.Router, httpx.Diagnostics{
		Metrics: metrics.Handler(d.Registry),
		Codec:   d.Codec,
		Protect: protect,
		Status:  func() httpx.Status { return status(d) },
	})
	return d.Router.Mux(), nil
}

func status(d routerDeps) httpx.Status {
	s := httpx.Status{ServerID: d.ServerID.ServerID()}
	if hp, ok := d.Pipeline.(*hubs.HubPipeline); ok {
		for _, m := range hp.Modules() {
			s.Modules = append(s.Modules, hubs.ModuleName(m))
		}
	}
	for _, c := range d.Container.Capabilities() {
		s.Capabilities = append(s.Capabilities, c.String())
	}
	_, nop := d.Logging.(logging.NopFactory)
	s.Diagnostics = !nop
	return s
}

// ---------- Lifecycle ----------

type serverDeps struct {
	fx.In
	Logger   *zap.Logger
	App      http.Handler `name:"diagnostics"`
	Pipeline hubs.Pipeline
}

// registerHooks freezes the pipeline and serves diagnostics on start. An address of "off"
// disables the server.
func registerHooks(lc fx.Lifecycle, cfg Config, d serverDeps) {
	addr := envOr(cfg.ListenEnv, ":4000")
	cert := os.Getenv(cfg.TLSCertEnv)
	key := os.Getenv(cfg.TLSKeyEnv)

	srv := &http.Server{
		Handler:      d.App,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	useTLS := fileExists(cert) && fileExists(key)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if hp, ok := d.Pipeline.(*hubs.HubPipeline); ok {
				hp.Freeze()
			}
			if addr == "off" {
				d.Logger.Info("diagnostics server disabled")
				return nil
			}

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			srv.Addr = ln.Addr().String()

			if useTLS {
				pair, err := tls.LoadX509KeyPair(cert, key)
				if err != nil {
					_ = ln.Close()
					return err
				}
				srv.TLSConfig = &tls.Config{
					MinVersion:   tls.VersionTLS13,
					MaxVersion:   tls.VersionTLS13,
					Certificates: []tls.Certificate{pair},
				}
				ln = tls.NewListener(ln, srv.TLSConfig)
				d.Logger.Info("server starting (TLS)", zap.String("addr", srv.Addr), zap.String("cert", cert))
			} else {
				d.Logger.Info("server starting (PLAINTEXT)", zap.String("addr", srv.Addr))
			}

			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					d.Logger.Error("server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			d.Logger.Info("server stopping")
			err := srv.Shutdown(ctx)
			_ = d.Logger.Sync()
			return err
		},
	})
}

// ---------- tiny helpers ----------

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
