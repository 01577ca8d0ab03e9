package middleware

import (
	"net/http"

	"github.com/gymflow/backend/internal/contextkeys"
)

// RootOnly ensures the caller has the root role.
// Must be used AFTER AdminAuth which stores the actor in context.
func RootOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := contextkeys.Actor(r.Context())
		if !ok || !actor.IsRoot() {
			reject(w, http.StatusForbidden, "not_root", "forbidden: root access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
