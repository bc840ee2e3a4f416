package middleware

import (
	"encoding/json"
	"net/http"
)

type Authenticator interface {
	LoggedIn() bool
}

// RequireAuth rejects requests while nobody is logged in. A provisional
// (not yet verified) login is let through.
func RequireAuth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.LoggedIn() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "not logged in"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
