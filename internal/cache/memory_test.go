package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheRoundTripAndExpiry(t *testing.T) {
	now := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	c := NewMemory()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "forever", []byte("a"), 0))
	require.NoError(t, c.Set(ctx, "short", []byte("b"), time.Minute))

	v, ok, err := c.Get(ctx, "short")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b", string(v))

	now = now.Add(2 * time.Minute)
	_, ok, _ = c.Get(ctx, "short")
	assert.False(t, ok)

	v, ok, _ = c.Get(ctx, "forever")
	assert.True(t, ok)
	assert.Equal(t, "a", string(v))

	require.NoError(t, c.Delete(ctx, "forever"))
	_, ok, _ = c.Get(ctx, "forever")
	assert.False(t, ok)
}

func TestMemoryCacheCopiesValues(t *testing.T) {
	c := NewMemory()
	buf := []byte("abc")
	require.NoError(t, c.Set(context.Background(), "k", buf, 0))
	buf[0] = 'z'

	v, _, _ := c.Get(context.Background(), "k")
	assert.Equal(t, "abc", string(v))
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	type entry struct {
		Count int `json:"count"`
	}
	require.NoError(t, SetJSON(ctx, c, "k", entry{Count: 3}, 0))

	var got entry
	ok, err := GetJSON(ctx, c, "k", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, got.Count)

	require.NoError(t, c.Set(ctx, "bad", []byte("{"), 0))
	ok, err = GetJSON(ctx, c, "bad", &got)
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, err = GetJSON(ctx, c, "missing", &got)
	assert.NoError(t, err)
	assert.False(t, ok)
}
