package middleware

import (
	"net/http"
	"strings"

	"github.com/gymflow/backend/internal/contextkeys"
	"github.com/gymflow/backend/internal/domain"
	"github.com/gymflow/backend/internal/handler"
	"github.com/gymflow/backend/internal/metrics"
)

// TokenVerifier validates session tokens.
type TokenVerifier interface {
	VerifyToken(token string) (*domain.JWTClaims, error)
}

// Auth creates a bearer JWT authentication middleware.
func Auth(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				reject(w, http.StatusUnauthorized, "no_token", "no token provided")
				return
			}

			token, ok := bearerToken(authHeader)
			if !ok {
				reject(w, http.StatusUnauthorized, "bad_header", "invalid authorization header")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				reject(w, http.StatusUnauthorized, "invalid_token", "invalid or expired token")
				return
			}

			ctx := contextkeys.WithActor(r.Context(), claims.Actor())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminAuth authenticates back-office requests from the admin-token
// cookie, falling back to a bearer header, and admits only admin and root.
func AdminAuth(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			if c, err := r.Cookie(handler.AdminCookie); err == nil && c.Value != "" {
				token = c.Value
			} else if t, ok := bearerToken(r.Header.Get("Authorization")); ok {
				token = t
			}
			if token == "" {
				reject(w, http.StatusUnauthorized, "no_token", "not authenticated")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				reject(w, http.StatusUnauthorized, "invalid_token", "invalid or expired token")
				return
			}
			actor := claims.Actor()
			if !actor.IsAdmin() {
				reject(w, http.StatusUnauthorized, "not_admin", "admin access required")
				return
			}

			ctx := contextkeys.WithActor(r.Context(), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func reject(w http.ResponseWriter, status int, reason, msg string) {
	metrics.AuthRejections.WithLabelValues(reason).Inc()
	handler.JSON(w, status, map[string]string{"error": msg})
}
