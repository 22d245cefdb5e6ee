package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/joeydtaylor/steeze-hub/pkg/config"
	"github.com/joeydtaylor/steeze-hub/pkg/hubs"
	"github.com/joeydtaylor/steeze-hub/pkg/logging"
	"github.com/joeydtaylor/steeze-hub/pkg/middleware/auth"
)

type entry struct {
	level logging.Level
	id    int
	msg   string
}

type memFactory struct {
	mu      sync.Mutex
	names   []string
	entries []entry
}

func (f *memFactory) Create(name string) logging.Logger {
	f.mu.Lock()
	f.names = append(f.names, name)
	f.mu.Unlock()
	return f
}

func (f *memFactory) Write(level logging.Level, id int, state any, err error, format logging.Formatter) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry{level: level, id: id, msg: format(state, err)})
	return true
}

func TestInvocationLoggerRecordsEvents(t *testing.T) {
	f := &memFactory{}
	p := hubs.NewPipeline(NewInvocationLogger(f))
	ctx := context.Background()
	conn := &hubs.Connection{ID: "c1", Hub: "chat"}

	require.NoError(t, p.Connect(ctx, conn, func(context.Context, *hubs.Connection) error { return nil }))

	inv := &hubs.Invocation{Connection: conn, Method: hubs.MethodDescriptor{Hub: "chat", Name: "Send"}, Args: []any{"hi"}}
	res, err := p.Invoke(ctx, inv, func(context.Context, *hubs.Invocation) (any, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, res)

	boom := errors.New("boom")
	_, err = p.Invoke(ctx, inv, func(context.Context, *hubs.Invocation) (any, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	require.NoError(t, p.Disconnect(ctx, conn, true, func(context.Context, *hubs.Connection, bool) error { return nil }))

	assert.Equal(t, []string{"hubs.pipeline"}, f.names)
	ids := make([]int, 0, len(f.entries))
	for _, e := range f.entries {
		ids = append(ids, e.id)
	}
	assert.Equal(t, []int{EventConnect, EventInvoke, EventResult, EventInvoke, EventError, EventDisconnect}, ids)

	failed := f.entries[4]
	assert.Equal(t, logging.LevelError, failed.level)
	assert.Equal(t, "chat.Send failed: boom", failed.msg)
	assert.Equal(t, "c1 closed on chat", f.entries[5].msg)
}

func TestInvocationLoggerWithNopFactory(t *testing.T) {
	p := hubs.NewPipeline(NewInvocationLogger(logging.NopFactory{}))
	err := p.Send(context.Background(), &hubs.OutgoingMessage{Signal: "c1", Hub: "chat", Method: "recv"},
		func(context.Context, *hubs.OutgoingMessage) error { return nil })
	assert.NoError(t, err)
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := Access(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req = req.WithContext(auth.WithUser(req.Context(), auth.User{Username: "ada", Role: auth.Role{Name: "ops"}}))
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "/ping", fields["uri"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
	assert.EqualValues(t, 5, fields["responseSize"])
	assert.Equal(t, "ada", fields["username"])
	assert.Equal(t, true, fields["isAuthenticated"])
}

func TestAccessLogSeesTokenUser(t *testing.T) {
	secret := []byte("access-log-secret")
	v, err := auth.NewTokenValidator(config.FromMap(map[string]string{auth.KeyJWTSecret: string(secret)}))
	require.NoError(t, err)

	core, logs := observer.New(zapcore.InfoLevel)
	r := chi.NewRouter()
	r.Use(Access(zap.New(core)), auth.Middleware(v, ""))
	var seen string
	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		seen = auth.GetUser(req.Context()).Username
		w.WriteHeader(http.StatusOK)
	})

	tok, err := auth.IssueToken(secret, auth.User{Username: "ada", Role: auth.Role{Name: "ops"}}, time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "ada", seen)
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "ada", fields["username"])
	assert.Equal(t, "ops", fields["role"])
	assert.Equal(t, true, fields["isAuthenticated"])

	t.Run("bad token still logged", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/status", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, 2, logs.Len())
		fields := logs.All()[1].ContextMap()
		assert.Equal(t, "", fields["username"])
		assert.Equal(t, false, fields["isAuthenticated"])
		assert.EqualValues(t, http.StatusUnauthorized, fields["status"])
	})
}
