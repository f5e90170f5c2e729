package embedcache

import (
	"context"
	"testing"

	"github.com/promptvault/promptvault/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := Open("", true)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestCacheRoundTrip(t *testing.T) {
	cache := openTestCache(t)

	require.NoError(t, cache.Put("bge-small", "a cat", []float32{0.1, 0.2, 0.3}))

	vector, ok := cache.Get("bge-small", "a cat")
	require.True(t, ok)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
}

func TestCacheMiss(t *testing.T) {
	cache := openTestCache(t)

	_, ok := cache.Get("bge-small", "never stored")
	assert.False(t, ok)
}

func TestCacheKeyIncludesModel(t *testing.T) {
	cache := openTestCache(t)

	require.NoError(t, cache.Put("model-a", "same text", []float32{1}))

	_, ok := cache.Get("model-b", "same text")
	assert.False(t, ok)
}

func TestCachePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	cache, err := Open(dir, false)
	require.NoError(t, err)
	require.NoError(t, cache.Put("m", "text", []float32{0.5}))
	require.NoError(t, cache.Close())

	reopened, err := Open(dir, false)
	require.NoError(t, err)
	defer reopened.Close()

	vector, ok := reopened.Get("m", "text")
	require.True(t, ok)
	assert.Equal(t, []float32{0.5}, vector)
}

func TestEntrySerializationRoundTrip(t *testing.T) {
	entry := Entry{Model: "bge-small", Vector: []float32{0.25, -1.5}, CreatedAt: 1700000000}

	decoded, err := unmarshalEntry(marshalEntry(entry))
	require.NoError(t, err)
	assert.Equal(t, entry, decoded)
}

func TestUnmarshalCorruptEntry(t *testing.T) {
	_, err := unmarshalEntry([]byte{0xff})
	assert.Error(t, err)
}

func TestCachingEmbedderHitSkipsProvider(t *testing.T) {
	cache := openTestCache(t)
	inner := mock.NewEmbedder()
	embedder := NewCachingEmbedder(inner, cache, "bge-small", nil)

	first, err := embedder.EmbedText(context.Background(), "a cat")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.CallCount())

	second, err := embedder.EmbedText(context.Background(), "a cat")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.CallCount())
	assert.Equal(t, first, second)
}

func TestCachingEmbedderBatchEmbedsOnlyMisses(t *testing.T) {
	cache := openTestCache(t)
	inner := mock.NewEmbedder()
	embedder := NewCachingEmbedder(inner, cache, "bge-small", nil)

	_, err := embedder.EmbedText(context.Background(), "cached")
	require.NoError(t, err)

	var batchSizes []int
	inner.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		batchSizes = append(batchSizes, len(texts))
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{float32(i)}
		}
		return out, nil
	}

	vectors, err := embedder.EmbedTexts(context.Background(), []string{"cached", "new"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.NotNil(t, vectors[0])
	assert.NotNil(t, vectors[1])
	assert.Equal(t, []int{1}, batchSizes)
}
