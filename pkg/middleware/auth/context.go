package auth

import (
	"context"
	"sync"

	"github.com/joeydtaylor/steeze-hub/pkg/hubs"
)

type contextKey struct{ name string }

var (
	userCtxKey = &contextKey{"user"}
	slotCtxKey = &contextKey{"user-slot"}
)

// Keys in hubs.Connection.Items.
const (
	connItemKey   = "auth.user"
	deniedItemKey = "auth.denied"
)

type userSlot struct {
	mu sync.Mutex
	u  User
}

// TrackUser returns ctx carrying an empty slot. A later WithUser on ctx or any context
// derived from it also fills the slot, so GetUser(ctx) sees that user.
func TrackUser(ctx context.Context) context.Context {
	return context.WithValue(ctx, slotCtxKey, &userSlot{})
}

// WithUser returns ctx carrying u.
func WithUser(ctx context.Context, u User) context.Context {
	if s, ok := ctx.Value(slotCtxKey).(*userSlot); ok {
		s.mu.Lock()
		s.u = u
		s.mu.Unlock()
	}
	return context.WithValue(ctx, userCtxKey, u)
}

// GetUser returns the user in ctx, or the zero User.
func GetUser(ctx context.Context) User {
	if u, ok := ctx.Value(userCtxKey).(User); ok {
		return u
	}
	if s, ok := ctx.Value(slotCtxKey).(*userSlot); ok {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.u
	}
	return User{}
}

// ConnectionUser returns the user recorded on conn when it connected.
func ConnectionUser(conn *hubs.Connection) User {
	if conn == nil {
		return User{}
	}
	if v, ok := conn.Items.Load(connItemKey); ok {
		if u, ok := v.(User); ok {
			return u
		}
	}
	return User{}
}

// callerOf prefers the user on the call's context and falls back to the connection.
func callerOf(ctx context.Context, conn *hubs.Connection) User {
	if u := GetUser(ctx); u.Authenticated() {
		return u
	}
	return ConnectionUser(conn)
}

// Roles answers role questions with the deployment's admin role in mind.
type Roles struct {
	AdminRole string
}

func (r Roles) IsAdmin(u User) bool {
	return r.AdminRole != "" && u.Role.Name == r.AdminRole
}

func (r Roles) IsRole(u User, role Role) bool {
	return (role.Name != "" && u.Role.Name == role.Name) || r.IsAdmin(u)
}

func (r Roles) IsUser(u User, username string) bool {
	return (username != "" && u.Username == username) || r.IsAdmin(u)
}
