package normalize

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarDefaults(t *testing.T) {
	d := map[string]any{
		"title":    "Go",
		"count":    "12",
		"rating":   int64(4),
		"price":    "49.90",
		"flag":     "true",
		"wrong":    []int{1},
		"floatish": 2.5,
	}

	assert.Equal(t, "Go", String(d, "title"))
	assert.Equal(t, "", String(d, "wrong"))
	assert.Equal(t, "4", String(d, "rating"))
	assert.Equal(t, "fallback", StringOr(d, "missing", "fallback"))
	assert.Equal(t, 12, Int(d, "count"))
	assert.Equal(t, 0, Int(d, "wrong"))
	assert.Equal(t, 2.5, Float(d, "floatish"))
	assert.True(t, Bool(d, "flag"))
	assert.False(t, Bool(d, "missing"))
	assert.Equal(t, "49.9", Decimal(d, "price").String())
	assert.True(t, Decimal(d, "title").IsZero())
}

func TestTimeFormats(t *testing.T) {
	want := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	now := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

	cases := map[string]any{
		"time":   want,
		"rfc":    "2026-03-01T10:00:00Z",
		"millis": want.UnixMilli(),
		"sdk":    map[string]any{"seconds": float64(want.Unix()), "nanoseconds": float64(0)},
	}
	for name, v := range cases {
		got := Time(map[string]any{"at": v}, "at", now)
		assert.True(t, want.Equal(got), name)
	}

	assert.True(t, now.Equal(Time(map[string]any{}, "at", now)))
	_, ok := OptionalTime(map[string]any{"at": "not a date"}, "at")
	assert.False(t, ok)
	_, ok = OptionalTime(map[string]any{"at": time.Time{}}, "at")
	assert.False(t, ok)
}

func TestLists(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Strings(map[string]any{"tags": []any{"a", 3, "b"}}, "tags"))
	assert.Equal(t, []string{"x", "y"}, Strings(map[string]any{"tags": "x, ,y"}, "tags"))
	assert.NotNil(t, Strings(map[string]any{}, "tags"))
	assert.Len(t, Maps(map[string]any{"items": []any{map[string]any{"id": "1"}, "skip"}}, "items"), 1)
	assert.NotNil(t, Map(map[string]any{}, "address"))
}

func TestNumberUnmarshal(t *testing.T) {
	var body struct {
		A Number `json:"a"`
		B Number `json:"b"`
		C Number `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 10.5, "b": " 20 ", "c": null}`), &body))
	assert.Equal(t, "10.5", body.A.Decimal().String())
	assert.Equal(t, 20.0, body.B.Float())
	assert.Equal(t, Number(""), body.C)

	assert.Error(t, json.Unmarshal([]byte(`{"a": true}`), &body))
}
