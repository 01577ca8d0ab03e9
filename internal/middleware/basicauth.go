package middleware

import (
	"crypto/subtle"
	"net/http"
)

// BasicAuth protects an endpoint such as /metrics with fixed credentials.
// Empty credentials deny every request.
func BasicAuth(user, pass string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, p, ok := r.BasicAuth()
			if !ok || user == "" || pass == "" ||
				subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 ||
				subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
				w.Header().Set("WWW-Authenticate", `Basic realm="Metrics"`)
				reject(w, http.StatusUnauthorized, "metrics", "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
