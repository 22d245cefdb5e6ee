// Command hubd runs a hub host with the default services, the invocation pipeline and
// the diagnostics HTTP server. Transports and hubs are bound by embedding programs.
package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-hub/pkg/hostfx"
)

func main() {
	fx.New(
		hostfx.Module(hostfx.WithService("hubd")),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l}
		}),
	).Run()
}
