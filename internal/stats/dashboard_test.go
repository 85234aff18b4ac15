package stats

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"elearning-backend/internal/blogs"
	"elearning-backend/internal/cache"
	"elearning-backend/internal/courses"
	"elearning-backend/internal/db"
	"elearning-backend/internal/feedback"
	"elearning-backend/internal/notifications"
	"elearning-backend/internal/orders"
	"elearning-backend/internal/store"
	"elearning-backend/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDashboard(st store.Store, kv cache.Cache, ttl time.Duration) *Dashboard {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	val := validation.New()
	notes := notifications.NewService(st, val, log, time.UTC)
	return NewDashboard(
		courses.NewService(st, val, log, time.UTC),
		orders.NewService(st, notes, val, log, time.UTC),
		feedback.NewService(st, val, log, time.UTC),
		blogs.NewService(st, val, log, time.UTC),
		kv, ttl, log, time.UTC,
	)
}

func seedDashboard(st *store.Memory, year int) {
	at := func(m time.Month) time.Time { return time.Date(year, m, 10, 0, 0, 0, 0, time.UTC) }

	st.Put(db.Categories, "web", map[string]any{"name": "Web"})
	st.Put(db.Courses, "c1", map[string]any{"category": "web", "createdAt": at(time.January)})
	st.Put(db.Courses, "c2", map[string]any{"category": "gone", "createdAt": at(time.February)})

	st.Put(db.Orders, "o1", map[string]any{"status": orders.StatusApproved, "total": "100.50", "createdAt": at(time.March)})
	st.Put(db.Orders, "o2", map[string]any{"status": orders.StatusApproved, "total": "20", "createdAt": at(time.July)})
	st.Put(db.Orders, "o3", map[string]any{"status": orders.StatusPending, "total": "999", "createdAt": at(time.July)})
	st.Put(db.Orders, "old", map[string]any{"status": orders.StatusRejected, "createdAt": time.Date(year-1, time.March, 1, 0, 0, 0, 0, time.UTC)})

	st.Put(db.Feedback, "f1", map[string]any{"status": feedback.StatusApproved, "rating": 4})
	st.Put(db.Feedback, "f2", map[string]any{"status": feedback.StatusApproved, "rating": 5})
	st.Put(db.Feedback, "f3", map[string]any{"status": feedback.StatusPending, "rating": 1})

	st.Put(db.Blogs, "b1", map[string]any{"status": blogs.StatusPublished})
	st.Put(db.Blogs, "b2", map[string]any{"status": blogs.StatusDraft})
}

func TestDashboardSummary(t *testing.T) {
	st := store.NewMemory()
	year := time.Now().Year()
	seedDashboard(st, year)

	summary, err := newTestDashboard(st, nil, 0).Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Courses)
	assert.Equal(t, 1, summary.Categories)
	assert.Equal(t, map[string]int{"Web": 1, UnknownBucket: 1}, summary.CoursesPerCategory)
	assert.Equal(t, 4, summary.Orders)
	assert.Equal(t, 1, summary.PendingOrders)
	assert.Equal(t, "120.5", summary.Revenue.String())
	assert.Equal(t, [12]int{2: 1, 6: 2}, summary.OrdersPerMonth)
	assert.Equal(t, 3, summary.Feedback)
	assert.Equal(t, 1, summary.PendingFeedback)
	assert.Equal(t, "4.5", summary.AverageRating)
	assert.Equal(t, 2, summary.Blogs)
	assert.Equal(t, 1, summary.PublishedBlogs)
	assert.Equal(t, year, summary.Year)
}

func TestDashboardEmptyStore(t *testing.T) {
	summary, err := newTestDashboard(store.NewMemory(), nil, 0).Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, EmptyRating, summary.AverageRating)
	assert.Equal(t, [12]int{}, summary.OrdersPerMonth)
	assert.True(t, summary.Revenue.IsZero())
}

func TestDashboardSurfacesStoreErrors(t *testing.T) {
	st := store.NewMemory()
	st.FailOn("all", db.Orders, errors.New("offline"))

	_, err := newTestDashboard(st, nil, 0).Summary(context.Background())
	var se *store.Error
	assert.ErrorAs(t, err, &se)
}

func TestDashboardUsesCache(t *testing.T) {
	st := store.NewMemory()
	seedDashboard(st, time.Now().Year())
	kv := cache.NewMemory()
	d := newTestDashboard(st, kv, time.Minute)

	first, err := d.Summary(context.Background())
	require.NoError(t, err)

	st.FailOn("all", db.Orders, errors.New("offline"))
	second, err := d.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.Orders, second.Orders)
	assert.Equal(t, first.Revenue.String(), second.Revenue.String())
}
