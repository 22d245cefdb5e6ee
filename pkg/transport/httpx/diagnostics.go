package httpx

import (
	"net/http"

	"github.com/joeydtaylor/steeze-hub/pkg/codec"
)

// Status is what /status reports about the running host.
type Status struct {
	ServerID     string   `json:"serverId"`
	Modules      []string `json:"modules"`
	Capabilities []string `json:"capabilities"`
	Diagnostics  bool     `json:"diagnostics"`
}

// Diagnostics describes the routes MountDiagnostics serves.
type Diagnostics struct {
	Metrics http.Handler
	Status  func() Status
	Codec   codec.Codec

	// Protect wraps /metrics and /status, e.g. with auth.RequireUser.
	Protect []func(http.Handler) http.Handler
}

// MountDiagnostics serves /ping openly and /metrics and /status behind d.Protect.
func MountDiagnostics(r Router, d Diagnostics) {
	r.Get("/ping", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("pong"))
	}))

	r.Group(func(g Router) {
		g.Use(d.Protect...)
		if d.Metrics != nil {
			g.Get("/metrics", d.Metrics)
		}
		if d.Status != nil {
			c := d.Codec
			if c == nil {
				c = codec.JSON
			}
			g.Get("/status", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				b, err := c.Marshal(d.Status())
				if err != nil {
					http.Error(w, err.Error(), http.StatusInternalServerError)
					return
				}
				w.Header().Set("Content-Type", c.ContentType())
				_, _ = w.Write(b)
			}))
		}
	})
}
