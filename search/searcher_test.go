package search

import (
	"context"
	"errors"
	"testing"

	"github.com/promptvault/promptvault/ai/mock"
	"github.com/promptvault/promptvault/storage"
	"github.com/promptvault/promptvault/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	err := store.Upsert(context.Background(), []storage.Point{
		{ID: 1, Vector: []float32{1, 0}, Payload: map[string]any{
			"id": int64(1), "prompt": "a cat in the rain", "model_name": "Illustrious",
			"url": "https://example.com/1.png",
		}},
		{ID: 2, Vector: []float32{0, 1}, Payload: map[string]any{
			"id": int64(2), "prompt": "a dog on a hill", "model_name": "Pony",
			"url": "https://example.com/2.png",
		}},
		{ID: 3, Vector: []float32{0.9, 0.1}, Payload: map[string]any{
			"id": int64(3), "prompt": "a cat on a roof", "model_name": "Pony",
			"url": "https://example.com/3.png",
		}},
	}, true)
	require.NoError(t, err)
	return store
}

func fixedEmbedder(vector []float32) *mock.Embedder {
	m := mock.NewEmbedder()
	m.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return vector, nil
	}
	return m
}

func TestNewSearcherValidation(t *testing.T) {
	_, err := NewSearcher(nil, mock.NewEmbedder())
	assert.ErrorIs(t, err, ErrStoreRequired)

	_, err = NewSearcher(memory.NewStore(), nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestSimilarPromptsRanked(t *testing.T) {
	searcher, err := NewSearcher(seedStore(t), fixedEmbedder([]float32{1, 0}))
	require.NoError(t, err)

	matches, err := searcher.SimilarPrompts(context.Background(), "a cat", GeneralModel, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, int64(1), matches[0].ID)
	assert.Equal(t, "a cat in the rain", matches[0].Prompt)
	assert.Equal(t, "https://example.com/1.png", matches[0].URL)
	assert.Equal(t, int64(3), matches[1].ID)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestSimilarPromptsModelFilter(t *testing.T) {
	searcher, err := NewSearcher(seedStore(t), fixedEmbedder([]float32{1, 0}))
	require.NoError(t, err)

	matches, err := searcher.SimilarPrompts(context.Background(), "a cat", "Pony", 5)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, m := range matches {
		assert.Equal(t, "Pony", m.ModelName)
	}
}

func TestSimilarPromptsEmptyQuery(t *testing.T) {
	searcher, err := NewSearcher(seedStore(t), mock.NewEmbedder())
	require.NoError(t, err)

	_, err = searcher.SimilarPrompts(context.Background(), "   ", GeneralModel, 5)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSimilarPromptsEmbedderFailure(t *testing.T) {
	embedder := mock.NewEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("provider down")
	}

	searcher, err := NewSearcher(seedStore(t), embedder)
	require.NoError(t, err)

	_, err = searcher.SimilarPrompts(context.Background(), "a cat", GeneralModel, 5)
	assert.Error(t, err)
}

func TestSimilarPromptsDefaultLimit(t *testing.T) {
	searcher, err := NewSearcher(seedStore(t), fixedEmbedder([]float32{1, 0}))
	require.NoError(t, err)

	matches, err := searcher.SimilarPrompts(context.Background(), "a cat", "", 0)
	require.NoError(t, err)
	assert.Len(t, matches, 3)
}
