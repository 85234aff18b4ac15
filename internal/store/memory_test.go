package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCRUD(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	id, err := m.Add(ctx, "courses", map[string]any{"title": "Go"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := m.Get(ctx, "courses", id)
	require.NoError(t, err)
	assert.Equal(t, "Go", doc.Data["title"])

	// returned data is a copy
	doc.Data["title"] = "changed"
	doc, _ = m.Get(ctx, "courses", id)
	assert.Equal(t, "Go", doc.Data["title"])

	require.NoError(t, m.Update(ctx, "courses", id, map[string]any{"price": 10}))
	require.NoError(t, m.Increment(ctx, "courses", id, "views", 2))
	require.NoError(t, m.Increment(ctx, "courses", id, "views", 1))
	doc, _ = m.Get(ctx, "courses", id)
	assert.Equal(t, "Go", doc.Data["title"])
	assert.EqualValues(t, 3, doc.Data["views"])

	require.NoError(t, m.Delete(ctx, "courses", id))
	_, err = m.Get(ctx, "courses", id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 5, m.Writes())
}

func TestMemoryMissingDocuments(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	err := m.Update(ctx, "blogs", "nope", map[string]any{"x": 1})
	assert.ErrorIs(t, err, ErrNotFound)
	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "update", se.Op)
	assert.Equal(t, "blogs", se.Collection)

	assert.ErrorIs(t, m.Increment(ctx, "blogs", "nope", "likes", 1), ErrNotFound)
	assert.NoError(t, m.Delete(ctx, "blogs", "nope"))

	docs, err := m.All(ctx, "empty")
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestMemoryQueryFiltersOrdersAndLimits(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.Put("feedback", "a", map[string]any{"status": "approved", "rating": 5, "createdAt": base})
	m.Put("feedback", "b", map[string]any{"status": "pending", "rating": 3, "createdAt": base.Add(time.Hour)})
	m.Put("feedback", "c", map[string]any{"status": "approved", "rating": int64(4), "createdAt": base.Add(2 * time.Hour)})

	docs, err := m.Query(ctx, "feedback", Query{Filters: []Filter{Eq("status", "approved")}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, docIDs(docs))

	docs, err = m.Query(ctx, "feedback", Query{OrderBy: "createdAt", Desc: true, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, docIDs(docs))

	// numeric equality ignores the stored integer width
	docs, err = m.Query(ctx, "feedback", Query{Filters: []Filter{Eq("rating", 4)}})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, docIDs(docs))
}

func TestMemoryStrictIndexes(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(WithStrictIndexes())
	m.Put("blogs", "p1", map[string]any{"status": "published", "featured": true})

	compound := Query{Filters: []Filter{Eq("status", "published"), Eq("featured", true)}}
	_, err := m.Query(ctx, "blogs", compound)
	assert.ErrorIs(t, err, ErrIndexRequired)

	_, err = m.Query(ctx, "blogs", Query{Filters: []Filter{Eq("status", "published")}, OrderBy: "createdAt"})
	assert.ErrorIs(t, err, ErrIndexRequired)

	docs, err := m.Query(ctx, "blogs", Query{Filters: []Filter{Eq("status", "published")}})
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	m.DeclareIndex("blogs", "featured", "status")
	docs, err = m.Query(ctx, "blogs", compound)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestMemoryFailOn(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	boom := errors.New("unavailable")

	m.FailOn("add", "orders", boom)
	_, err := m.Add(ctx, "orders", map[string]any{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, m.Writes())

	m.FailOn("add", "orders", nil)
	_, err = m.Add(ctx, "orders", map[string]any{})
	assert.NoError(t, err)
}

func TestMemorySubscribe(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Put("orders", "o1", map[string]any{"status": "pending"})

	var sizes []int
	stop, err := m.Subscribe(ctx, "orders", func(docs []Doc) {
		sizes = append(sizes, len(docs))
	})
	require.NoError(t, err)

	_, err = m.Add(ctx, "orders", map[string]any{"status": "pending"})
	require.NoError(t, err)
	require.NoError(t, m.Update(ctx, "orders", "o1", map[string]any{"status": "approved"}))
	_, err = m.Add(ctx, "notifications", map[string]any{})
	require.NoError(t, err)

	stop()
	stop()
	require.NoError(t, m.Delete(ctx, "orders", "o1"))

	assert.Equal(t, []int{1, 2, 2}, sizes)
}

func docIDs(docs []Doc) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}
