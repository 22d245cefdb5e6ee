package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestMountDiagnostics(t *testing.T) {
	r := NewChi()
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	}
	MountDiagnostics(r, Diagnostics{
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("m")) }),
		Status:  func() Status { return Status{ServerID: "s1"} },
		Protect: []func(http.Handler) http.Handler{deny},
	})

	rec := serve(r.Mux(), "/ping")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(r.Mux(), "/metrics").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r.Mux(), "/status").Code)
	assert.Equal(t, http.StatusNotFound, serve(r.Mux(), "/nope").Code)
}

func TestStatusJSON(t *testing.T) {
	r := NewChi()
	MountDiagnostics(r, Diagnostics{
		Status: func() Status {
			return Status{ServerID: "s1", Modules: []string{"authorize"}, Diagnostics: true}
		},
	})

	rec := serve(r.Mux(), "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"serverId":"s1","modules":["authorize"],"capabilities":null,"diagnostics":true}`, rec.Body.String())
	assert.Equal(t, http.StatusNotFound, serve(r.Mux(), "/metrics").Code)
}

func TestRecoverer(t *testing.T) {
	r := NewChi()
	r.Handle(http.MethodGet, "/boom", http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	assert.Equal(t, http.StatusInternalServerError, serve(r.Mux(), "/boom").Code)
}
