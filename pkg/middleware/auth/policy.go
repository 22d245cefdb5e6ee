package auth

import "strings"

// Policy restricts access to a hub, or to one method of it.
//
// An empty Hub applies to every hub. An empty Method applies to connecting and to every
// method of the hub; a named Method applies only to invocations of that method. A policy
// with no Roles and no Users only requires an authenticated caller.
type Policy struct {
	Hub    string
	Method string
	Roles  []string
	Users  []string
}

// RequireAuthentication is the global policy: every hub, every method, any signed-in user.
func RequireAuthentication() Policy { return Policy{} }

func (p Policy) matchesHub(hub string) bool {
	return p.Method == "" && (p.Hub == "" || strings.EqualFold(p.Hub, hub))
}

func (p Policy) matchesMethod(hub, method string) bool {
	return p.Method != "" &&
		(p.Hub == "" || strings.EqualFold(p.Hub, hub)) &&
		strings.EqualFold(p.Method, method)
}

// allows returns nil, ErrUnauthorized or ErrForbidden.
func (p Policy) allows(r Roles, u User) error {
	if !u.Authenticated() {
		return ErrUnauthorized
	}
	if len(p.Roles) == 0 && len(p.Users) == 0 {
		return nil
	}
	for _, name := range p.Users {
		if r.IsUser(u, name) {
			return nil
		}
	}
	for _, name := range p.Roles {
		if r.IsRole(u, Role{Name: name}) {
			return nil
		}
	}
	return ErrForbidden
}
