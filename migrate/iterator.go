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

package migrate

import (
	"context"

	"github.com/promptvault/promptvault/storage"
)

const (
	// DefaultBatchSize is the default number of points fetched per scroll.
	DefaultBatchSize = 100
)

// PointIterator scrolls every point in a store in batches, vectors
// included.
type PointIterator struct {
	store     storage.PromptStore
	batchSize int
}

// NewPointIterator creates a new point iterator.
// batchSize: number of points to fetch in each batch (must be > 0)
func NewPointIterator(store storage.PromptStore, batchSize int) *PointIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &PointIterator{
		store:     store,
		batchSize: batchSize,
	}
}

// ForEach iterates over all points, calling fn for each batch.
// Iteration stops on the first error from fn or when the collection is
// exhausted. Context cancellation is checked between batches.
func (it *PointIterator) ForEach(ctx context.Context, fn func([]storage.Point) error) error {
	offset := ""
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		points, next, err := it.store.Scroll(ctx, storage.ScrollOptions{
			Limit:       it.batchSize,
			Offset:      offset,
			WithVectors: true,
		})
		if err != nil {
			return err
		}
		if len(points) == 0 {
			return nil
		}

		if err := fn(points); err != nil {
			return err
		}

		if next == "" {
			return nil
		}
		offset = next
	}
}
