// Package auth authenticates hub callers from signed tokens and authorizes their
// connections and invocations inside the hub pipeline.
package auth

type Role struct {
	Name string `json:"name"`
}

type AuthenticationSource struct {
	Provider string `json:"provider"`
}

// User is the identity attached to a connection once a token has been validated.
type User struct {
	Username             string               `json:"username"`
	AuthenticationSource AuthenticationSource `json:"authenticationSource"`
	Role                 Role                 `json:"role"`
}

// Authenticated reports whether u carries a username.
func (u User) Authenticated() bool { return u.Username != "" }
