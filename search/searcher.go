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

package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/promptvault/promptvault/ai"
	"github.com/promptvault/promptvault/core"
	"github.com/promptvault/promptvault/storage"
)

// GeneralModel disables the base model filter when passed as the model
// name, searching across every stored model.
const GeneralModel = "general"

const defaultMaxHits = 5

// Match is a single similarity search hit.
type Match struct {
	ID        int64
	Prompt    string
	ModelName string
	URL       string
	Score     float32
}

// Searcher runs prompt similarity queries against a vector store.
type Searcher struct {
	store    storage.PromptStore
	embedder ai.Embedder
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(store storage.PromptStore, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		store:    store,
		embedder: embedder,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// SimilarPrompts finds stored prompts similar to the query, ranked by
// cosine similarity. Results are restricted to modelName unless it is
// empty or GeneralModel.
func (s *Searcher) SimilarPrompts(ctx context.Context, prompt, modelName string, maxHits int) ([]Match, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyQuery
	}
	if maxHits <= 0 {
		maxHits = defaultMaxHits
	}

	vector, err := s.embedder.EmbedText(ctx, prompt)
	if err != nil {
		s.logger.Error("error embedding query prompt", "err", err)
		return nil, err
	}

	var filter *storage.Filter
	if modelName != "" && modelName != GeneralModel {
		filter = &storage.Filter{Key: "model_name", Value: modelName}
	}

	scored, err := s.store.Search(ctx, vector, filter, maxHits)
	if err != nil {
		s.logger.Error("error querying for similar prompts", "err", err)
		return nil, err
	}

	matches := make([]Match, 0, len(scored))
	for _, point := range scored {
		record := core.RecordFromPayload(point.Payload)
		matches = append(matches, Match{
			ID:        point.ID,
			Prompt:    record.Prompt,
			ModelName: record.ModelName,
			URL:       record.URL,
			Score:     point.Score,
		})
	}
	return matches, nil
}
