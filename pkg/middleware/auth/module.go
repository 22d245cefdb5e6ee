package auth

import (
	"context"
	"sync"

	"github.com/joeydtaylor/steeze-hub/pkg/config"
	"github.com/joeydtaylor/steeze-hub/pkg/hubs"
)

// AuthorizeModule is the pipeline's outermost guard. It records the connecting user on the
// connection and checks every connection and invocation against its policies.
//
// It does not read tokens; hosts authenticate first (see Middleware) and hand the user to
// the pipeline through WithUser.
type AuthorizeModule struct {
	hubs.BaseModule
	roles    func() Roles
	policies []Policy
}

var _ hubs.Module = (*AuthorizeModule)(nil)

func NewAuthorizeModule(adminRole string, policies ...Policy) *AuthorizeModule {
	roles := Roles{AdminRole: adminRole}
	return &AuthorizeModule{roles: func() Roles { return roles }, policies: policies}
}

// NewConfiguredAuthorizeModule reads auth:admin_role from cfg on the first check.
func NewConfiguredAuthorizeModule(cfg config.Provider, policies ...Policy) *AuthorizeModule {
	roles := sync.OnceValue(func() Roles {
		return Roles{AdminRole: config.String(cfg, KeyAdminRole, "")}
	})
	return &AuthorizeModule{roles: roles, policies: policies}
}

func (m *AuthorizeModule) Name() string { return "authorize" }

// Policies returns the configured policies.
func (m *AuthorizeModule) Policies() []Policy { return append([]Policy(nil), m.policies...) }

// AuthorizeConnect reports whether u may connect to hub.
func (m *AuthorizeModule) AuthorizeConnect(hub string, u User) error {
	for _, p := range m.policies {
		if !p.matchesHub(hub) {
			continue
		}
		if err := p.allows(m.roles(), u); err != nil {
			return &AuthorizationError{Hub: hub, User: u.Username, Err: err}
		}
	}
	return nil
}

// AuthorizeInvoke reports whether u may call method on hub.
func (m *AuthorizeModule) AuthorizeInvoke(method hubs.MethodDescriptor, u User) error {
	if err := m.AuthorizeConnect(method.Hub, u); err != nil {
		return err
	}
	for _, p := range m.policies {
		if !p.matchesMethod(method.Hub, method.Name) {
			continue
		}
		if err := p.allows(m.roles(), u); err != nil {
			return &AuthorizationError{Hub: method.Hub, Method: method.Name, User: u.Username, Err: err}
		}
	}
	return nil
}

func (m *AuthorizeModule) BeforeConnect(ctx context.Context, conn *hubs.Connection) bool {
	return m.admit(ctx, conn)
}

func (m *AuthorizeModule) BeforeReconnect(ctx context.Context, conn *hubs.Connection) bool {
	return m.admit(ctx, conn)
}

func (m *AuthorizeModule) admit(ctx context.Context, conn *hubs.Connection) bool {
	u := callerOf(ctx, conn)
	if err := m.AuthorizeConnect(conn.Hub, u); err != nil {
		conn.Items.Store(deniedItemKey, err)
		return false
	}
	conn.Items.Delete(deniedItemKey)
	if u.Authenticated() {
		conn.Items.Store(connItemKey, u)
	}
	return true
}

func (m *AuthorizeModule) BeforeIncoming(ctx context.Context, inv *hubs.Invocation) (hubs.Outcome, bool) {
	if err := m.AuthorizeInvoke(inv.Method, callerOf(ctx, inv.Connection)); err != nil {
		return hubs.Outcome{Err: err}, false
	}
	return hubs.Outcome{}, true
}

// Denial returns why the last connect or reconnect of conn was vetoed, or nil.
func Denial(conn *hubs.Connection) error {
	if v, ok := conn.Items.Load(deniedItemKey); ok {
		if err, ok := v.(error); ok {
			return err
		}
	}
	return nil
}
