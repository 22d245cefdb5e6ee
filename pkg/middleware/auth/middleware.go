package auth

import (
	"net/http"
	"strings"
)

// Middleware authenticates HTTP requests with bearer tokens (or the named cookie) and puts
// the user in the request context. Requests without credentials continue anonymous; bad
// credentials get a 401.
func Middleware(v TokenValidator, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearer(r)
			if raw == "" && cookieName != "" {
				if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
					raw = c.Value
				}
			}
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			u, err := v.Validate(raw)
			if err != nil || !u.Authenticated() {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// RequireUser rejects anonymous requests, and requests outside role when role is set.
func RequireUser(adminRole, role string) func(http.Handler) http.Handler {
	roles := Roles{AdminRole: adminRole}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := GetUser(r.Context())
			if !u.Authenticated() {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if role != "" && !roles.IsRole(u, Role{Name: role}) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearer(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
