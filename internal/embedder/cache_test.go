package embedder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cached(text string, v float32) *Embedding {
	return &Embedding{Vector: []float32{v}, Dimension: 1, Hash: ComputeHash(text)}
}

func TestCache_CopiesOnReadAndWrite(t *testing.T) {
	cache := NewCache(10)
	orig := &Embedding{Vector: []float32{1, 2, 3}, Dimension: 3, Provider: "p", Model: "m", Hash: ComputeHash("k")}
	cache.Set("m", orig)

	orig.Vector[0] = 99
	got, ok := cache.Get("m", "k")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, got.Vector)

	got.Vector[1] = 42
	again, _ := cache.Get("m", "k")
	assert.Equal(t, []float32{1, 2, 3}, again.Vector)
}

func TestCache_KeyedByModel(t *testing.T) {
	cache := NewCache(10)
	cache.Set("small", cached("text", 1))

	_, ok := cache.Get("large", "text")
	assert.False(t, ok)

	cache.Set("large", cached("text", 2))
	got, ok := cache.Get("small", "text")
	require.True(t, ok)
	assert.Equal(t, []float32{1}, got.Vector)
	assert.Equal(t, 2, cache.Len())
}

func TestCache_Eviction(t *testing.T) {
	cache := NewCache(2)
	cache.Set("m", cached("a", 1))
	cache.Set("m", cached("b", 2))
	cache.Set("m", cached("c", 3))

	assert.Equal(t, 2, cache.Len())
	_, ok := cache.Get("m", "a")
	assert.False(t, ok)
}

func TestCache_DefaultSizeAndNil(t *testing.T) {
	cache := NewCache(0)
	require.NotNil(t, cache)
	cache.Set("m", cached("x", 1))
	assert.Equal(t, 1, cache.Len())

	var none *Cache
	none.Set("m", cached("x", 1))
	_, ok := none.Get("m", "x")
	assert.False(t, ok)
	assert.Equal(t, 0, none.Len())
}
