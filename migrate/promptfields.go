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

	"github.com/promptvault/promptvault/storage"
)

// PromptFieldsMigration moves the prompt and negativePrompt fields from
// the nested meta object to the payload root. Vectors are carried over
// untouched since the prompt text itself does not change.
type PromptFieldsMigration struct {
	store    storage.PromptStore
	config   *Config
	progress io.Writer
	logger   *slog.Logger
}

// NewPromptFieldsMigration creates the migration.
func NewPromptFieldsMigration(store storage.PromptStore, config *Config, progress io.Writer) (*PromptFieldsMigration, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	return &PromptFieldsMigration{
		store:    store,
		config:   config.normalized(),
		progress: progress,
		logger:   slog.Default(),
	}, nil
}

// Run executes the migration over the whole collection.
func (m *PromptFieldsMigration) Run(ctx context.Context) error {
	total, err := m.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count points: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(m.progress, "No records found (0 records)\n")
		return nil
	}

	fmt.Fprintf(m.progress, "Starting prompt fields migration of %d records (batch size: %d)\n",
		total, m.config.BatchSize)

	tracker := NewProgressTracker(m.progress, int(total), m.config.ReportInterval)
	tracker.Start()

	updated := 0
	iterator := NewPointIterator(m.store, m.config.BatchSize)

	err = iterator.ForEach(ctx, func(points []storage.Point) error {
		var batch []storage.Point
		for _, point := range points {
			migrated, changed := liftPromptFields(point)
			if changed {
				batch = append(batch, migrated)
			}
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

// liftPromptFields moves prompt and negativePrompt out of meta when they
// are missing at the root. Returns the rewritten point and whether
// anything moved.
func liftPromptFields(point storage.Point) (storage.Point, bool) {
	meta, _ := point.Payload["meta"].(map[string]any)
	if meta == nil {
		return point, false
	}

	_, hasPrompt := point.Payload["prompt"]
	_, metaPrompt := meta["prompt"]
	_, hasNegative := point.Payload["negativePrompt"]
	_, metaNegative := meta["negativePrompt"]

	needsPrompt := !hasPrompt && metaPrompt
	needsNegative := !hasNegative && metaNegative
	if !needsPrompt && !needsNegative {
		return point, false
	}

	payload := make(map[string]any, len(point.Payload)+2)
	for k, v := range point.Payload {
		payload[k] = v
	}
	newMeta := make(map[string]any, len(meta))
	for k, v := range meta {
		newMeta[k] = v
	}

	if needsPrompt {
		payload["prompt"] = newMeta["prompt"]
		delete(newMeta, "prompt")
	}
	if needsNegative {
		payload["negativePrompt"] = newMeta["negativePrompt"]
		delete(newMeta, "negativePrompt")
	}
	payload["meta"] = newMeta

	return storage.Point{ID: point.ID, Vector: point.Vector, Payload: payload}, true
}
