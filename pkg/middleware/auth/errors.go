package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means the caller is anonymous where a user is required.
	ErrUnauthorized = errors.New("auth: unauthorized")
	// ErrForbidden means the caller is known but lacks the required role or name.
	ErrForbidden = errors.New("auth: forbidden")

	ErrInvalidToken      = errors.New("auth: invalid token")
	ErrNoVerificationKey = errors.New("auth: no token verification key configured")
)

// AuthorizationError reports which hub or method denied the caller.
type AuthorizationError struct {
	Hub    string
	Method string
	User   string
	Err    error
}

func (e *AuthorizationError) Error() string {
	target := e.Hub
	if e.Method != "" {
		target += "." + e.Method
	}
	who := e.User
	if who == "" {
		who = "anonymous"
	}
	return fmt.Sprintf("%v: %s may not access %s", e.Err, who, target)
}

func (e *AuthorizationError) Unwrap() error { return e.Err }
