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
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/promptvault/promptvault/ai"
	"github.com/promptvault/promptvault/storage"
)

// ModelFieldMigration renames the payload field model_name to baseModel
// and regenerates the embedding for each renamed point. Points without a
// model_name field are already migrated and skipped.
type ModelFieldMigration struct {
	store    storage.PromptStore
	embedder ai.Embedder
	config   *Config
	progress io.Writer
	logger   *slog.Logger
}

// NewModelFieldMigration creates the migration.
// progress: where to write progress output (typically os.Stderr)
func NewModelFieldMigration(store storage.PromptStore, embedder ai.Embedder, config *Config, progress io.Writer) (*ModelFieldMigration, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	return &ModelFieldMigration{
		store:    store,
		embedder: embedder,
		config:   config.normalized(),
		progress: progress,
		logger:   slog.Default(),
	}, nil
}

// Run executes the migration over the whole collection.
func (m *ModelFieldMigration) Run(ctx context.Context) error {
	total, err := m.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count points: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(m.progress, "No records found (0 records)\n")
		return nil
	}

	fmt.Fprintf(m.progress, "Starting model field migration of %d records (batch size: %d)\n",
		total, m.config.BatchSize)

	pool, err := ants.NewPool(m.config.Workers)
	if err != nil {
		return err
	}
	defer pool.Release()

	tracker := NewProgressTracker(m.progress, int(total), m.config.ReportInterval)
	tracker.Start()

	updated := 0
	iterator := NewPointIterator(m.store, m.config.BatchSize)

	err = iterator.ForEach(ctx, func(points []storage.Point) error {
		batch, err := m.migrateBatch(ctx, pool, points)
		if err != nil {
			return err
		}

		if len(batch) > 0 {
			err := RetryWithBackoff(ctx, func() error {
				return m.store.Upsert(ctx, batch, true)
			}, m.config.MaxRetries, m.config.RetryDelay)
			if err != nil {
				return fmt.Errorf("failed to upsert batch: %w", err)
			}
			updated += len(batch)
		}

		tracker.Increment(len(points))
		return nil
	})
	if err != nil {
		return err
	}

	tracker.Finish()
	fmt.Fprintf(m.progress, "Migration complete. Total records updated: %d (%.1fs)\n",
		updated, tracker.Elapsed().Seconds())
	return nil
}

// migrateBatch rewrites the points of one batch that still carry a
// model_name field, fanning the embedding calls out on the pool.
func (m *ModelFieldMigration) migrateBatch(ctx context.Context, pool *ants.Pool, points []storage.Point) ([]storage.Point, error) {
	type job struct {
		point   storage.Point
		payload map[string]any
		prompt  string
	}

	var jobs []job
	for _, point := range points {
		model, ok := point.Payload["model_name"]
		if !ok {
			continue
		}

		prompt, _ := point.Payload["prompt"].(string)
		if prompt == "" {
			m.logger.Warn("record has no prompt, skipping", "id", point.ID)
			continue
		}

		payload := make(map[string]any, len(point.Payload))
		for k, v := range point.Payload {
			payload[k] = v
		}
		delete(payload, "model_name")
		payload["baseModel"] = model

		jobs = append(jobs, job{point: point, payload: payload, prompt: prompt})
	}
	if len(jobs) == 0 {
		return nil, nil
	}

	out := make([]storage.Point, len(jobs))
	errs := make([]error, len(jobs))

	var wg sync.WaitGroup
	for i := range jobs {
		wg.Add(1)
		j := &jobs[i]
		idx := i
		submitErr := pool.Submit(func() {
			defer wg.Done()

			var vector []float32
			err := RetryWithBackoff(ctx, func() error {
				var embedErr error
				vector, embedErr = m.embedder.EmbedText(ctx, j.prompt)
				return embedErr
			}, m.config.MaxRetries, m.config.RetryDelay)
			if err != nil {
				errs[idx] = fmt.Errorf("failed to embed record %d: %w", j.point.ID, err)
				return
			}

			out[idx] = storage.Point{
				ID:      j.point.ID,
				Vector:  vector,
				Payload: j.payload,
			}
		})
		if submitErr != nil {
			wg.Done()
			errs[idx] = submitErr
		}
	}
	wg.Wait()

	batch := make([]storage.Point, 0, len(jobs))
	for i := range jobs {
		if errs[i] != nil {
			return nil, errs[i]
		}
		batch = append(batch, out[i])
	}
	return batch, nil
}
