package httpx

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLimitOffset(t *testing.T) {
	limit, offset, err := ParseLimitOffset(url.Values{}, 20, 100)
	require.NoError(t, err)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)

	limit, offset, err = ParseLimitOffset(url.Values{"limit": {"500"}, "offset": {"40"}}, 20, 100)
	require.NoError(t, err)
	assert.Equal(t, 100, limit)
	assert.Equal(t, 40, offset)

	_, _, err = ParseLimitOffset(url.Values{"limit": {"0"}}, 20, 100)
	assert.Error(t, err)

	_, _, err = ParseLimitOffset(url.Values{"offset": {"-1"}}, 20, 100)
	assert.Error(t, err)
}

func TestDecodeJSONRejectsUnknownAndTrailing(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	require.NoError(t, DecodeJSON(strings.NewReader(`{"name":"go"}`), &dst))
	assert.Equal(t, "go", dst.Name)

	assert.Error(t, DecodeJSON(strings.NewReader(`{"name":"go","extra":1}`), &dst))
	assert.Error(t, DecodeJSON(strings.NewReader(`{"name":"go"}{}`), &dst))
}
