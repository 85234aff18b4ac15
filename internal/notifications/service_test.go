package notifications

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"elearning-backend/internal/db"
	"elearning-backend/internal/store"
	"elearning-backend/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(st store.Store, now time.Time) *Service {
	svc := NewService(st, validation.New(), slog.New(slog.NewTextHandler(io.Discard, nil)), time.UTC)
	svc.now = func() time.Time { return now }
	return svc
}

func TestCreateDefaultsMessageAndUnread(t *testing.T) {
	now := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	svc := newTestService(store.NewMemory(), now)

	_, err := svc.Create(context.Background(), CreateRequest{UserID: "u1", OrderID: "o1", Status: "approved"})
	require.NoError(t, err)

	items, err := svc.ListForUser(context.Background(), "u1", 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Your order #o1 has been approved.", items[0].Message)
	assert.False(t, items[0].Read)
	assert.True(t, items[0].CreatedAt.Equal(now))
	assert.Equal(t, 1, UnreadCount(items))
}

func TestCreateRequiresReferences(t *testing.T) {
	st := store.NewMemory()
	_, err := newTestService(st, time.Now()).Create(context.Background(), CreateRequest{UserID: "u1", Status: "approved"})
	ve, ok := validation.IsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "orderId")
	assert.Equal(t, 0, st.Writes())
}

func TestListForUserNewestFirst(t *testing.T) {
	st := store.NewMemory()
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	st.Put(db.Notifications, "n1", map[string]any{"userId": "u1", "createdAt": base})
	st.Put(db.Notifications, "n2", map[string]any{"userId": "u2", "createdAt": base.Add(time.Hour)})
	st.Put(db.Notifications, "n3", map[string]any{"userId": "u1", "createdAt": base.Add(2 * time.Hour)})
	svc := newTestService(st, base)

	items, err := svc.ListForUser(context.Background(), "u1", 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "n3", items[0].ID)
	assert.Equal(t, "n1", items[1].ID)
}

func TestMarkReadOnlyOwnNotifications(t *testing.T) {
	st := store.NewMemory()
	st.Put(db.Notifications, "n1", map[string]any{"userId": "u1", "read": false})
	svc := newTestService(st, time.Now())

	assert.ErrorIs(t, svc.MarkRead(context.Background(), "u2", "n1"), ErrNotFound)
	assert.ErrorIs(t, svc.MarkRead(context.Background(), "u1", "missing"), ErrNotFound)
	require.NoError(t, svc.MarkRead(context.Background(), "u1", "n1"))

	items, err := svc.ListForUser(context.Background(), "u1", 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Read)
	assert.Equal(t, 0, UnreadCount(items))
}
