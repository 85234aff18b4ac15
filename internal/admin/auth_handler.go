package admin

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"elearning-backend/internal/auth"
	"elearning-backend/internal/httpx"
	"elearning-backend/internal/middleware"
	"elearning-backend/internal/transport"
	"elearning-backend/internal/validation"
)

const refreshCookiePath = "/api/v1/admin"

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

// AuthConfig is the admin account and cookie policy.
type AuthConfig struct {
	User         string
	PasswordHash string
	CookieSecure bool
}

type AuthHandler struct {
	cfg     AuthConfig
	manager *auth.Manager
	val     *validation.Validator
	log     *slog.Logger
}

func NewAuthHandler(cfg AuthConfig, manager *auth.Manager, val *validation.Validator, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		cfg:     cfg,
		manager: manager,
		val:     val,
		log:     log,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	var req LoginRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin login: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if err := h.val.Check(req); err != nil {
		ve, _ := validation.IsValidation(err)
		log.Warn("admin login: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", ve.Fields)
		return
	}

	if h.cfg.PasswordHash == "" || h.manager == nil {
		log.Warn("admin login: not configured")
		transport.WriteError(w, http.StatusServiceUnavailable, "admin auth not configured", nil)
		return
	}

	if err := auth.VerifyAdmin(h.cfg.User, h.cfg.PasswordHash, req.Username, req.Password); err != nil {
		log.Warn("admin login: invalid credentials", slog.String("username", req.Username))
		transport.WriteError(w, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	if !h.issue(w, log, h.adminUser(req.Username)) {
		return
	}
	log.Info("admin login: ok", slog.String("username", req.Username))
	transport.WriteJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	if h.manager == nil {
		log.Warn("admin refresh: not configured")
		transport.WriteError(w, http.StatusServiceUnavailable, "admin auth not configured", nil)
		return
	}

	refreshCookie, err := r.Cookie(auth.RefreshCookie)
	if err != nil || refreshCookie.Value == "" {
		log.Warn("admin refresh: missing refresh token")
		transport.WriteError(w, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}

	user, err := h.manager.UserFromToken(refreshCookie.Value)
	if err != nil || !user.IsAdmin() {
		log.Warn("admin refresh: invalid refresh token")
		transport.WriteError(w, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}

	if !h.issue(w, log, user) {
		return
	}
	log.Info("admin refresh: ok")
	transport.WriteJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	clearAuthCookies(w, h.cfg.CookieSecure)
	log.Info("admin logout: ok")
	transport.WriteJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

func (h *AuthHandler) adminUser(username string) auth.User {
	return auth.User{ID: "admin:" + username, Name: username, Role: auth.RoleAdmin}
}

func (h *AuthHandler) issue(w http.ResponseWriter, log *slog.Logger, user auth.User) bool {
	accessToken, err := h.manager.NewAccessToken(user)
	if err != nil {
		log.Error("admin token: sign failed", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "token error", nil)
		return false
	}
	refreshToken, err := h.manager.NewRefreshToken(user)
	if err != nil {
		log.Error("admin token: sign failed", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "token error", nil)
		return false
	}
	setAuthCookies(w, accessToken, refreshToken, h.manager.AccessTTL, h.manager.RefreshTTL, h.cfg.CookieSecure)
	return true
}

func setAuthCookies(w http.ResponseWriter, access, refresh string, accessTTL, refreshTTL time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.AccessCookie,
		Value:    access,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(accessTTL.Seconds()),
	})
	http.SetCookie(w, &http.Cookie{
		Name:     auth.RefreshCookie,
		Value:    refresh,
		Path:     refreshCookiePath,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(refreshTTL.Seconds()),
	})
}

func clearAuthCookies(w http.ResponseWriter, secure bool) {
	expire := time.Now().Add(-1 * time.Hour)
	for _, c := range []struct{ name, path string }{
		{auth.AccessCookie, "/"},
		{auth.RefreshCookie, refreshCookiePath},
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     c.name,
			Value:    "",
			Path:     c.path,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
			Expires:  expire,
			MaxAge:   -1,
		})
	}
}

func (h *AuthHandler) logWithRequest(r *http.Request) *slog.Logger {
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}
