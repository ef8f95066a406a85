package workload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	args := map[string]any{"b": 2, "a": 1}
	err := cachePut(dir, "ns", "method", args, map[string]string{"hello": "world"})
	require.NoError(t, err)

	var got map[string]string
	ok, err := cacheGet(dir, "ns", "method", args, &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "world", got["hello"])
}

func TestCache_KeyOrderInsensitive(t *testing.T) {
	k1, err := cacheKey("ns", "m", map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)
	k2, err := cacheKey("ns", "m", map[string]any{"b": 2, "a": 1})
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
}

func TestCache_MissOnAbsentKey(t *testing.T) {
	dir := t.TempDir()
	var got map[string]string
	ok, err := cacheGet(dir, "ns", "method", map[string]any{"x": 1}, &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_DifferentArgsDifferentKey(t *testing.T) {
	k1, _ := cacheKey("ns", "m", map[string]any{"a": 1})
	k2, _ := cacheKey("ns", "m", map[string]any{"a": 2})
	assert.NotEqual(t, k1, k2)
}
