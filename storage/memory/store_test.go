package memory

import (
	"context"
	"testing"

	"github.com/promptvault/promptvault/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s *Store) {
	t.Helper()
	err := s.Upsert(context.Background(), []storage.Point{
		{ID: 1, Vector: []float32{1, 0}, Payload: map[string]any{"id": int64(1), "model_name": "Pony", "prompt": "a cat"}},
		{ID: 2, Vector: []float32{0, 1}, Payload: map[string]any{"id": int64(2), "model_name": "Illustrious", "prompt": "a dog"}},
		{ID: 3, Vector: []float32{1, 1}, Payload: map[string]any{"id": int64(3), "model_name": "Pony", "prompt": "a fox"}},
	}, true)
	require.NoError(t, err)
}

func TestExistsAndCount(t *testing.T) {
	s := NewStore()
	seed(t, s)

	exists, err := s.Exists(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.Exists(context.Background(), 99)
	require.NoError(t, err)
	assert.False(t, exists)

	count, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestUpsertOverwritesByID(t *testing.T) {
	s := NewStore()
	seed(t, s)

	err := s.Upsert(context.Background(), []storage.Point{
		{ID: 2, Vector: []float32{0.5, 0.5}, Payload: map[string]any{"prompt": "updated"}},
	}, true)
	require.NoError(t, err)

	count, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	points, _, err := s.Scroll(context.Background(), storage.ScrollOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, "updated", points[1].Payload["prompt"])
}

func TestScrollPagination(t *testing.T) {
	s := NewStore()
	seed(t, s)

	page1, next, err := s.Scroll(context.Background(), storage.ScrollOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.NotEmpty(t, next)

	page2, next, err := s.Scroll(context.Background(), storage.ScrollOptions{Limit: 2, Offset: next})
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Empty(t, next)

	assert.Equal(t, int64(3), page2[0].ID)
}

func TestScrollFilterNumericTolerance(t *testing.T) {
	s := NewStore()
	seed(t, s)

	// JSON decoding turns integers into float64; filters still match.
	points, _, err := s.Scroll(context.Background(), storage.ScrollOptions{
		Filter: &storage.Filter{Key: "id", Value: float64(2)},
		Limit:  1,
	})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, int64(2), points[0].ID)
}

func TestScrollVectorOmittedByDefault(t *testing.T) {
	s := NewStore()
	seed(t, s)

	points, _, err := s.Scroll(context.Background(), storage.ScrollOptions{Limit: 1})
	require.NoError(t, err)
	assert.Nil(t, points[0].Vector)

	points, _, err = s.Scroll(context.Background(), storage.ScrollOptions{Limit: 1, WithVectors: true})
	require.NoError(t, err)
	assert.NotNil(t, points[0].Vector)
}

func TestSearchRanksByCosine(t *testing.T) {
	s := NewStore()
	seed(t, s)

	results, err := s.Search(context.Background(), []float32{1, 0}, nil, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, int64(1), results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, int64(3), results[1].ID)
}

func TestSearchFilterByModel(t *testing.T) {
	s := NewStore()
	seed(t, s)

	results, err := s.Search(context.Background(), []float32{0, 1}, &storage.Filter{
		Key:   "model_name",
		Value: "Pony",
	}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, "Pony", r.Payload["model_name"])
	}
}

func TestClosedStoreErrors(t *testing.T) {
	s := NewStore()
	seed(t, s)
	require.NoError(t, s.Close())

	_, err := s.Exists(context.Background(), 1)
	assert.ErrorIs(t, err, storage.ErrStoreClosed)

	err = s.Upsert(context.Background(), []storage.Point{{ID: 9}}, true)
	assert.ErrorIs(t, err, storage.ErrStoreClosed)

	_, _, err = s.Scroll(context.Background(), storage.ScrollOptions{})
	assert.ErrorIs(t, err, storage.ErrStoreClosed)
}
