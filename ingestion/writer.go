// Copyright 2025 The Promptvault Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/promptvault/promptvault/ai"
	"github.com/promptvault/promptvault/core"
	"github.com/promptvault/promptvault/storage"
)

const (
	defaultSubBatchSize  = 50
	defaultSubBatchPause = 500 * time.Millisecond
)

// WriteResult reports what a WriteBatch call committed to the store.
type WriteResult struct {
	Stored           int
	SkippedDuplicate int
}

// BatchWriter embeds and upserts validated records in sub-batches.
type BatchWriter struct {
	store         storage.PromptStore
	embedder      ai.Embedder
	subBatchSize  int
	subBatchPause time.Duration
	logger        *slog.Logger
}

// NewBatchWriter creates a writer over the given store and embedder.
func NewBatchWriter(store storage.PromptStore, embedder ai.Embedder, logger *slog.Logger) (*BatchWriter, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchWriter{
		store:         store,
		embedder:      embedder,
		subBatchSize:  defaultSubBatchSize,
		subBatchPause: defaultSubBatchPause,
		logger:        logger,
	}, nil
}

// WriteBatch deduplicates, embeds and upserts the records. The upsert is
// split into sub-batches written with wait semantics so a mid-batch
// failure leaves only a committed prefix behind; counts already written
// are reported alongside the error.
func (w *BatchWriter) WriteBatch(ctx context.Context, records []*core.Record) (WriteResult, error) {
	var result WriteResult

	points := make([]storage.Point, 0, len(records))
	for _, record := range records {
		exists, err := w.store.Exists(ctx, record.ID)
		if err != nil {
			// Upsert is idempotent on ID, so a failed lookup means at
			// worst a rewrite.
			w.logger.Warn("duplicate lookup failed, treating as new", "id", record.ID, "err", err)
			exists = false
		}
		if exists {
			result.SkippedDuplicate++
			continue
		}

		vector, err := w.embedder.EmbedText(ctx, record.Prompt)
		if err != nil {
			return result, fmt.Errorf("%w: record %d: %v", ErrEmbeddingFailed, record.ID, err)
		}
		if len(vector) == 0 {
			w.logger.Warn("empty embedding, skipping record", "id", record.ID)
			continue
		}

		points = append(points, storage.Point{
			ID:      record.ID,
			Vector:  vector,
			Payload: record.Payload(),
		})
	}

	for start := 0; start < len(points); start += w.subBatchSize {
		end := min(start+w.subBatchSize, len(points))
		sub := points[start:end]

		if err := w.store.Upsert(ctx, sub, true); err != nil {
			return result, fmt.Errorf("upsert sub-batch of %d: %w", len(sub), err)
		}
		result.Stored += len(sub)

		if end < len(points) {
			if err := sleep(ctx, w.subBatchPause); err != nil {
				return result, err
			}
		}
	}

	return result, nil
}

// sleep waits for d or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
