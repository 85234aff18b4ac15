package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"elearning-backend/internal/auth"
	"elearning-backend/internal/middleware"
	"elearning-backend/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthHandler(t *testing.T) (*AuthHandler, *auth.Manager) {
	t.Helper()
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)
	manager := &auth.Manager{
		Secret:     []byte("test-secret"),
		AccessTTL:  15 * time.Minute,
		RefreshTTL: time.Hour,
		Issuer:     "elearning-backend",
	}
	h := NewAuthHandler(AuthConfig{User: "admin", PasswordHash: hash}, manager, validation.New(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	return h, manager
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLoginIssuesAdminCookies(t *testing.T) {
	h, manager := newTestAuthHandler(t)

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"username":"admin","password":"s3cret"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	access := cookieNamed(rec, auth.AccessCookie)
	require.NotNil(t, access)
	user, err := manager.UserFromToken(access.Value)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())
	assert.NotNil(t, cookieNamed(rec, auth.RefreshCookie))

	// the issued cookie opens admin routes
	protected := middleware.AdminAuth("", manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(access)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h, _ := newTestAuthHandler(t)

	for _, body := range []string{
		`{"username":"admin","password":"wrong"}`,
		`{"username":"root","password":"s3cret"}`,
	} {
		rec := httptest.NewRecorder()
		h.Login(rec, httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(body)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, body)
		assert.Nil(t, cookieNamed(rec, auth.AccessCookie))
	}

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"username":"admin"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshRequiresAdminToken(t *testing.T) {
	h, manager := newTestAuthHandler(t)

	userToken, err := manager.NewRefreshToken(auth.User{ID: "u1"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/admin/refresh", nil)
	req.AddCookie(&http.Cookie{Name: auth.RefreshCookie, Value: userToken})
	rec := httptest.NewRecorder()
	h.Refresh(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	adminToken, err := manager.NewRefreshToken(auth.User{ID: "admin:admin", Role: auth.RoleAdmin})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/admin/refresh", nil)
	req.AddCookie(&http.Cookie{Name: auth.RefreshCookie, Value: adminToken})
	rec = httptest.NewRecorder()
	h.Refresh(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, cookieNamed(rec, auth.AccessCookie))
}

func TestLogoutClearsCookies(t *testing.T) {
	h, _ := newTestAuthHandler(t)
	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/admin/logout", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	access := cookieNamed(rec, auth.AccessCookie)
	require.NotNil(t, access)
	assert.Empty(t, access.Value)
	assert.Less(t, access.MaxAge, 0)
}
