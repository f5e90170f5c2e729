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
	"log/slog"
	"time"

	"github.com/promptvault/promptvault/ai"
	"github.com/promptvault/promptvault/civitai"
	"github.com/promptvault/promptvault/core"
	"github.com/promptvault/promptvault/storage"
)

const (
	maxPageSize      = civitai.MaxPageSize
	defaultPagePause = time.Second
)

// Fetcher pulls one page of raw items starting at a cursor. An empty
// next cursor or an empty page marks the end of the stream.
type Fetcher interface {
	FetchPage(ctx context.Context, cursor string, limit int) ([]core.RawItem, string, error)
}

// Summary reports what a backfill run accomplished.
type Summary struct {
	Stored           int
	SkippedDuplicate int
	Rejected         int
	Pages            int
	Cursor           string
}

// Pipeline runs the sequential backfill loop: fetch, validate, write,
// save cursor, repeat.
type Pipeline struct {
	fetcher   Fetcher
	writer    *BatchWriter
	statePath string
	pagePause time.Duration
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPagePause sets the pause between page fetches.
// Default is one second.
func WithPagePause(d time.Duration) Option {
	return func(p *Pipeline) error {
		p.pagePause = d
		return nil
	}
}

// WithSubBatchPause sets the pause between upsert sub-batches.
func WithSubBatchPause(d time.Duration) Option {
	return func(p *Pipeline) error {
		p.writer.subBatchPause = d
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		p.writer.logger = logger
		return nil
	}
}

// NewPipeline creates a backfill pipeline persisting its resume cursor
// at statePath.
func NewPipeline(
	fetcher Fetcher,
	store storage.PromptStore,
	embedder ai.Embedder,
	statePath string,
	opts ...Option,
) (*Pipeline, error) {
	if fetcher == nil {
		return nil, ErrFetcherRequired
	}

	writer, err := NewBatchWriter(store, embedder, slog.Default())
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		fetcher:   fetcher,
		writer:    writer,
		statePath: statePath,
		pagePause: defaultPagePause,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			return nil, optErr
		}
	}

	return p, nil
}

// Run backfills until targetCount valid records have been processed in
// this run, the stream ends, or an error occurs. The persisted cursor is
// updated only after a page's valid batch has been fully written, so
// interrupted runs resume without losing committed work.
func (p *Pipeline) Run(ctx context.Context, targetCount int) (Summary, error) {
	state := LoadCursor(p.statePath, p.logger)
	cursor := state.Cursor
	prevProcessed := state.TotalProcessed

	var summary Summary
	newProcessed := 0

	p.logger.Info("backfill starting",
		"target", targetCount,
		"cursor", cursor,
		"previously_processed", prevProcessed)

	for newProcessed < targetCount {
		pageSize := min(maxPageSize, targetCount-newProcessed)

		p.logger.Info("fetching page", "cursor", cursor, "page_size", pageSize)
		items, nextCursor, err := p.fetcher.FetchPage(ctx, cursor, pageSize)
		if err != nil {
			p.logger.Error("page fetch failed", "cursor", cursor, "err", err)
			summary.Cursor = cursor
			return summary, err
		}
		if len(items) == 0 {
			p.logger.Info("stream exhausted", "cursor", cursor)
			break
		}
		summary.Pages++

		valid := make([]*core.Record, 0, len(items))
		for i := range items {
			record, err := core.Normalize(&items[i])
			if err != nil {
				summary.Rejected++
				p.logger.Debug("item rejected", "err", err)
				continue
			}
			valid = append(valid, record)
		}
		p.logger.Info("page validated",
			"items", len(items),
			"valid", len(valid),
			"rejected", len(items)-len(valid))

		if len(valid) > 0 {
			result, err := p.writer.WriteBatch(ctx, valid)
			summary.Stored += result.Stored
			summary.SkippedDuplicate += result.SkippedDuplicate
			if err != nil {
				p.logger.Error("batch write failed", "stored", result.Stored, "err", err)
				summary.Cursor = cursor
				return summary, err
			}
			newProcessed += len(valid)

			// A fully written batch advances the persisted cursor even when
			// every record was a duplicate; the overlap page a resumed run
			// re-fetches must not pin the cursor in place.
			next := CursorState{
				Cursor:         nextCursor,
				TotalProcessed: prevProcessed + newProcessed,
			}
			if err := SaveCursor(p.statePath, next); err != nil {
				p.logger.Error("cursor save failed", "path", p.statePath, "err", err)
				summary.Cursor = cursor
				return summary, err
			}
			p.logger.Info("cursor saved",
				"cursor", nextCursor,
				"total_processed", next.TotalProcessed)
		}

		cursor = nextCursor
		if nextCursor == "" {
			p.logger.Info("no next cursor, stopping")
			break
		}

		if newProcessed < targetCount {
			if err := sleep(ctx, p.pagePause); err != nil {
				summary.Cursor = cursor
				return summary, err
			}
		}
	}

	summary.Cursor = cursor
	p.logger.Info("backfill done",
		"stored", summary.Stored,
		"skipped_duplicates", summary.SkippedDuplicate,
		"rejected", summary.Rejected,
		"pages", summary.Pages)
	return summary, nil
}
