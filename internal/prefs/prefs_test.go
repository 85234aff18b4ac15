package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"elearning-backend/internal/cache"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// countingKV records every write that reaches the backing store.
type countingKV struct {
	*cache.MemoryCache
	sets    int
	deletes int
	failSet error
}

func (c *countingKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.failSet != nil {
		return c.failSet
	}
	c.sets++
	return c.MemoryCache.Set(ctx, key, value, ttl)
}

func (c *countingKV) Delete(ctx context.Context, key string) error {
	c.deletes++
	return c.MemoryCache.Delete(ctx, key)
}

func newKV() *countingKV {
	return &countingKV{MemoryCache: cache.NewMemory()}
}

func item(id string) Item {
	return Item{ID: id, Title: "Course " + id, Price: decimal.RequireFromString("10.50")}
}

func TestAddIsAtMostOncePerID(t *testing.T) {
	ctx := context.Background()
	kv := newKV()
	list, err := Load(ctx, kv, Key(KindCart, "u1"), 0, discard)
	require.NoError(t, err)

	added, err := list.Add(ctx, item("c1"))
	require.NoError(t, err)
	assert.True(t, added)

	added, err = list.Add(ctx, item("c1"))
	require.NoError(t, err)
	assert.False(t, added)
	assert.Len(t, list.Items(), 1)
	assert.Equal(t, 1, kv.sets)

	reloaded, err := Load(ctx, kv, Key(KindCart, "u1"), 0, discard)
	require.NoError(t, err)
	added, err = reloaded.Add(ctx, item("c1"))
	require.NoError(t, err)
	assert.False(t, added)
	assert.Len(t, reloaded.Items(), 1)
}

func TestEveryMutationWritesFullList(t *testing.T) {
	ctx := context.Background()
	kv := newKV()
	key := Key(KindWishlist, "u1")
	list, err := Load(ctx, kv, key, 0, discard)
	require.NoError(t, err)

	for _, id := range []string{"a", "b", "c"} {
		_, err := list.Add(ctx, item(id))
		require.NoError(t, err)
	}
	require.NoError(t, list.Remove(ctx, "b"))

	raw, ok, err := kv.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	var stored []Item
	require.NoError(t, json.Unmarshal(raw, &stored))
	require.Len(t, stored, 2)
	assert.Equal(t, "a", stored[0].ID)
	assert.Equal(t, "c", stored[1].ID)
	assert.Equal(t, 4, kv.sets)
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	kv := newKV()
	list, err := Load(ctx, kv, Key(KindCart, "u1"), 0, discard)
	require.NoError(t, err)

	require.NoError(t, list.Remove(ctx, "ghost"))
	assert.Empty(t, list.Items())
	assert.Equal(t, 0, kv.sets)
}

func TestClearRemovesKey(t *testing.T) {
	ctx := context.Background()
	kv := newKV()
	key := Key(KindCart, "u1")
	list, err := Load(ctx, kv, key, 0, discard)
	require.NoError(t, err)
	_, err = list.Add(ctx, item("a"))
	require.NoError(t, err)

	require.NoError(t, list.Clear(ctx))
	assert.Empty(t, list.Items())
	assert.NotNil(t, list.Items())
	_, ok, _ := kv.Get(ctx, key)
	assert.False(t, ok)
	assert.Equal(t, 1, kv.deletes)
}

func TestLoadDefaultsToEmpty(t *testing.T) {
	ctx := context.Background()
	kv := newKV()
	require.NoError(t, kv.MemoryCache.Set(ctx, "cart:bad", []byte("{not json"), 0))

	list, err := Load(ctx, kv, "cart:bad", 0, discard)
	require.NoError(t, err)
	assert.Empty(t, list.Items())

	list, err = Load(ctx, kv, "cart:none", 0, discard)
	require.NoError(t, err)
	assert.NotNil(t, list.Items())
	assert.Empty(t, list.Items())
}

func TestFailedWriteKeepsState(t *testing.T) {
	ctx := context.Background()
	kv := newKV()
	list, err := Load(ctx, kv, Key(KindCart, "u1"), 0, discard)
	require.NoError(t, err)

	kv.failSet = errors.New("redis down")
	_, err = list.Add(ctx, item("a"))
	require.Error(t, err)
	assert.Empty(t, list.Items())
	assert.False(t, list.Has("a"))
}

func TestTotal(t *testing.T) {
	assert.Equal(t, "21", Total([]Item{item("a"), item("b")}).String())
	assert.True(t, Total(nil).IsZero())
}
