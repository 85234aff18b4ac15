package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamSnapshotsWritesEventsUntilClientLeaves(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/admin/orders/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	stopped := false
	watch := func(ctx context.Context, fn func([]string)) (func(), error) {
		fn([]string{"o1"})
		return func() { stopped = true }, nil
	}
	time.AfterFunc(50*time.Millisecond, cancel)

	require.NoError(t, StreamSnapshots(rec, req, "orders", watch))
	assert.True(t, stopped)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "event: orders\ndata: [\"o1\"]\n\n")
}

func TestStreamSnapshotsReportsSubscribeFailure(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin/orders/stream", nil)
	rec := httptest.NewRecorder()

	err := StreamSnapshots(rec, req, "orders", func(context.Context, func([]string)) (func(), error) {
		return nil, errors.New("offline")
	})
	assert.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
