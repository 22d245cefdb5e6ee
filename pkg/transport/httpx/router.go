// Package httpx is the HTTP surface a hub host exposes next to its transports.
package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimd "github.com/go-chi/chi/v5/middleware"
)

// Router is the minimal HTTP router contract the host depends on.
type Router interface {
	Handle(method, path string, h http.Handler)
	Get(path string, h http.Handler)
	Group(fn func(r Router))
	Use(mw ...func(http.Handler) http.Handler)
	Mux() http.Handler
}

// chiRouter is the default Router backed by github.com/go-chi/chi/v5.
type chiRouter struct{ r chi.Router }

// NewChi returns a Chi-backed Router that tags requests with an id and recovers panics.
func NewChi() Router {
	r := chi.NewRouter()
	r.Use(chimd.RequestID, chimd.Recoverer)
	return &chiRouter{r: r}
}

func (c *chiRouter) Handle(method, path string, h http.Handler) { c.r.Method(method, path, h) }
func (c *chiRouter) Get(path string, h http.Handler)            { c.r.Method(http.MethodGet, path, h) }
func (c *chiRouter) Use(mw ...func(http.Handler) http.Handler)  { c.r.Use(mw...) }
func (c *chiRouter) Mux() http.Handler                          { return c.r }

func (c *chiRouter) Group(fn func(r Router)) {
	c.r.Group(func(g chi.Router) { fn(&chiRouter{r: g}) })
}
