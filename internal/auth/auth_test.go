package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager() *Manager {
	return &Manager{
		Secret:     []byte("test-secret"),
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
		Issuer:     "elearning-backend",
	}
}

func TestTokenRoundTrip(t *testing.T) {
	m := testManager()
	token, err := m.NewAccessToken(User{ID: "u1", Email: "u1@example.com", Name: "Sara", Role: RoleAdmin})
	require.NoError(t, err)

	user, err := m.UserFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "Sara", user.DisplayName())
	assert.True(t, user.IsAdmin())
}

func TestParseRejectsForeignSecretAndExpired(t *testing.T) {
	m := testManager()
	token, err := m.NewAccessToken(User{ID: "u1"})
	require.NoError(t, err)

	other := testManager()
	other.Secret = []byte("other")
	_, err = other.Parse(token)
	assert.Error(t, err)

	expired := testManager()
	expired.AccessTTL = -time.Minute
	stale, err := expired.NewAccessToken(User{ID: "u1"})
	require.NoError(t, err)
	_, err = m.Parse(stale)
	assert.Error(t, err)
}

func TestParseRejectsMissingSubject(t *testing.T) {
	m := testManager()
	token, err := m.NewAccessToken(User{})
	require.NoError(t, err)
	_, err = m.Parse(token)
	assert.Error(t, err)
}

func TestUserFromContext(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithUser(context.Background(), User{ID: "u2", Email: "x@example.com"})
	user, ok := UserFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "x@example.com", user.DisplayName())
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "s3cret"))
	assert.Error(t, ComparePassword(hash, "wrong"))

	_, err = HashPassword("")
	assert.Error(t, err)
}

func TestVerifyAdmin(t *testing.T) {
	hash, err := HashPassword("letmein")
	require.NoError(t, err)

	assert.NoError(t, VerifyAdmin("admin", hash, "admin", "letmein"))
	assert.ErrorIs(t, VerifyAdmin("admin", hash, "root", "letmein"), ErrInvalidCredentials)
	assert.ErrorIs(t, VerifyAdmin("admin", hash, "admin", "nope"), ErrInvalidCredentials)
	assert.ErrorIs(t, VerifyAdmin("admin", "", "admin", "letmein"), ErrInvalidCredentials)
}
