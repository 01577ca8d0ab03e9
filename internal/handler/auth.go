package handler

import (
	"net/http"
	"time"

	"github.com/gymflow/backend/internal/domain"
	"github.com/gymflow/backend/internal/service"
)

// AdminCookie carries the back-office session token.
const AdminCookie = "admin-token"

// AuthHandler handles authentication HTTP endpoints.
type AuthHandler struct {
	auth         *service.AuthService
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler. secureCookie marks the admin
// cookie Secure, for deployments behind HTTPS.
func NewAuthHandler(auth *service.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{auth: auth, secureCookie: secureCookie}
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		Error(w, err)
		return
	}

	resp, err := h.auth.Signup(r.Context(), &req)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusCreated, resp)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		Error(w, err)
		return
	}

	resp, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, resp)
}

// Me handles GET /api/auth/me and GET /api/admin/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		Error(w, err)
		return
	}

	user, err := h.auth.Me(r.Context(), actor)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, user)
}

// AdminLogin handles POST /api/admin/login. The token is returned as an
// HttpOnly cookie only.
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		Error(w, err)
		return
	}

	resp, err := h.auth.AdminLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		Error(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     AdminCookie,
		Value:    resp.Token,
		Path:     "/",
		MaxAge:   int(h.auth.AdminTokenTTL() / time.Second),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	resp.Token = ""
	JSON(w, http.StatusOK, resp)
}

// AdminLogout handles POST /api/admin/logout.
func (h *AuthHandler) AdminLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     AdminCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	JSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
