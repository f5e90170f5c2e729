package ingestion

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/promptvault/promptvault/ai/mock"
	"github.com/promptvault/promptvault/core"
	"github.com/promptvault/promptvault/storage"
	"github.com/promptvault/promptvault/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id int64, prompt string) *core.Record {
	return &core.Record{
		ID:        id,
		Prompt:    prompt,
		ModelName: "Illustrious",
		Meta:      map[string]any{},
	}
}

func TestWriteBatchStoresAndDeduplicates(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.Upsert(context.Background(), []storage.Point{
		{ID: 1, Vector: []float32{1}, Payload: map[string]any{"id": int64(1)}},
	}, true))

	writer, err := NewBatchWriter(store, mock.NewEmbedder(), nil)
	require.NoError(t, err)
	writer.subBatchPause = 0

	result, err := writer.WriteBatch(context.Background(), []*core.Record{
		record(1, "already here"),
		record(2, "a cat"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stored)
	assert.Equal(t, 1, result.SkippedDuplicate)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestWriteBatchIdempotent(t *testing.T) {
	store := memory.NewStore()
	writer, err := NewBatchWriter(store, mock.NewEmbedder(), nil)
	require.NoError(t, err)
	writer.subBatchPause = 0

	records := []*core.Record{record(1, "a cat"), record(2, "a dog")}

	first, err := writer.WriteBatch(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Stored)

	second, err := writer.WriteBatch(context.Background(), records)
	require.NoError(t, err)
	assert.Zero(t, second.Stored)
	assert.Equal(t, 2, second.SkippedDuplicate)
}

func TestWriteBatchEmbeddingFailureIsFatal(t *testing.T) {
	store := memory.NewStore()
	embedder := mock.NewEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("provider down")
	}

	writer, err := NewBatchWriter(store, embedder, nil)
	require.NoError(t, err)

	result, err := writer.WriteBatch(context.Background(), []*core.Record{record(1, "a cat")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
	assert.Zero(t, result.Stored)
}

func TestWriteBatchSkipsEmptyVector(t *testing.T) {
	store := memory.NewStore()
	embedder := mock.NewEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if text == "bad" {
			return nil, nil
		}
		return []float32{0.1}, nil
	}

	writer, err := NewBatchWriter(store, embedder, nil)
	require.NoError(t, err)
	writer.subBatchPause = 0

	result, err := writer.WriteBatch(context.Background(), []*core.Record{
		record(1, "bad"),
		record(2, "good"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stored)

	exists, err := store.Exists(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, exists)
}

// failingStore fails upserts after a set number of successes.
type failingStore struct {
	*memory.Store
	upserts     int
	failAfter   int
	existsError error
}

func (f *failingStore) Upsert(ctx context.Context, points []storage.Point, wait bool) error {
	f.upserts++
	if f.upserts > f.failAfter {
		return fmt.Errorf("%w: simulated outage", storage.ErrUpsertFailed)
	}
	return f.Store.Upsert(ctx, points, wait)
}

func (f *failingStore) Exists(ctx context.Context, id int64) (bool, error) {
	if f.existsError != nil {
		return false, f.existsError
	}
	return f.Store.Exists(ctx, id)
}

func TestWriteBatchAbortsAfterFailedSubBatch(t *testing.T) {
	store := &failingStore{Store: memory.NewStore(), failAfter: 1}
	writer, err := NewBatchWriter(store, mock.NewEmbedder(), nil)
	require.NoError(t, err)
	writer.subBatchPause = 0

	records := make([]*core.Record, 120)
	for i := range records {
		records[i] = record(int64(i+1), fmt.Sprintf("prompt %d", i))
	}

	result, err := writer.WriteBatch(context.Background(), records)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrUpsertFailed)

	// The first sub-batch of 50 was committed before the outage.
	assert.Equal(t, 50, result.Stored)
	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(50), count)
}

func TestWriteBatchLookupErrorTreatedAsNew(t *testing.T) {
	store := &failingStore{
		Store:       memory.NewStore(),
		failAfter:   1000,
		existsError: errors.New("scroll timeout"),
	}
	writer, err := NewBatchWriter(store, mock.NewEmbedder(), nil)
	require.NoError(t, err)
	writer.subBatchPause = 0

	result, err := writer.WriteBatch(context.Background(), []*core.Record{record(1, "a cat")})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stored)
	assert.Zero(t, result.SkippedDuplicate)
}
