package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gymflow/backend/internal/contextkeys"
	"github.com/gymflow/backend/internal/domain"
	"github.com/gymflow/backend/internal/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier map[string]*domain.JWTClaims

func (s stubVerifier) VerifyToken(token string) (*domain.JWTClaims, error) {
	if c, ok := s[token]; ok {
		return c, nil
	}
	return nil, errors.New("bad token")
}

var verifier = stubVerifier{
	"user-token":  {Sub: "u-1", Email: "ana@example.com", Role: domain.RoleUser},
	"admin-token": {Sub: "a-1", Email: "admin@gym.test", Role: domain.RoleAdmin},
	"root-token":  {Sub: "r-1", Email: "root@gym.test", Role: domain.RoleRoot},
}

func echoActor(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := contextkeys.Actor(r.Context())
		require.True(t, ok)
		w.Header().Set("X-Actor", actor.ID)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuth(t *testing.T) {
	h := Auth(verifier)(echoActor(t))

	tests := []struct {
		name   string
		header string
		status int
		actor  string
	}{
		{"missing", "", http.StatusUnauthorized, ""},
		{"malformed", "Token user-token", http.StatusUnauthorized, ""},
		{"invalid", "Bearer nope", http.StatusUnauthorized, ""},
		{"valid", "Bearer user-token", http.StatusNoContent, "u-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.actor, rec.Header().Get("X-Actor"))
		})
	}
}

func TestAdminAuth(t *testing.T) {
	h := AdminAuth(verifier)(echoActor(t))

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusUnauthorized, serve(req).Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: handler.AdminCookie, Value: "user-token"})
	assert.Equal(t, http.StatusUnauthorized, serve(req).Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: handler.AdminCookie, Value: "admin-token"})
	rec := serve(req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "a-1", rec.Header().Get("X-Actor"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer root-token")
	assert.Equal(t, http.StatusNoContent, serve(req).Code)
}

func TestRootOnly(t *testing.T) {
	h := RootOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for role, want := range map[string]int{
		domain.RoleAdmin: http.StatusForbidden,
		domain.RoleRoot:  http.StatusNoContent,
	} {
		req := httptest.NewRequest(http.MethodDelete, "/", nil)
		req = req.WithContext(contextkeys.WithActor(req.Context(), domain.Actor{ID: "x", Role: role}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, role)
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewRateLimiter(ctx, 0.001, 2).Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBasicAuth(t *testing.T) {
	h := BasicAuth("prom", "secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req.SetBasicAuth("prom", "secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
