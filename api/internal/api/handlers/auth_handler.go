// api/internal/api/handlers/auth_handler.go
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"pixelfort/api/internal/core/services"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=128"`
}

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := validate.Struct(req); err != nil {
		HandleError(w, r, err)
		return
	}

	access, refresh, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	h.setAuthCookies(w, access, refresh)
	respondJSON(w, http.StatusOK, map[string]string{"access_token": access})
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := validate.Struct(req); err != nil {
		HandleError(w, r, err)
		return
	}

	user, err := h.authService.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

// Refresh handles POST /api/v1/auth/refresh — the silent-refresh flow.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("pixelfort_refresh_token")
	if err != nil {
		respondError(w, http.StatusUnauthorized, "no refresh token provided")
		return
	}

	access, refresh, err := h.authService.Refresh(r.Context(), cookie.Value)
	if err != nil {
		// Expired or tampered: clear the dead cookies so the client stops
		// replaying them.
		h.clearCookies(w)
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	h.setAuthCookies(w, access, refresh)
	respondJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

// Logout handles POST /api/v1/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearCookies(w)
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (h *AuthHandler) setAuthCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "pixelfort_access_token",
		Value:    accessToken,
		Path:     "/",
		MaxAge:   int((15 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "pixelfort_refresh_token",
		Value:    refreshToken,
		Path:     "/api/v1/auth",
		MaxAge:   int((7 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearCookies(w http.ResponseWriter) {
	for _, c := range []http.Cookie{
		{Name: "pixelfort_access_token", Path: "/"},
		{Name: "pixelfort_refresh_token", Path: "/api/v1/auth"},
	} {
		c.Value = ""
		c.MaxAge = -1
		c.HttpOnly = true
		c.Secure = true
		cc := c
		http.SetCookie(w, &cc)
	}
}
