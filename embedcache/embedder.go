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

package embedcache

import (
	"context"
	"log/slog"

	"github.com/promptvault/promptvault/ai"
)

// CachingEmbedder wraps an Embedder with a persistent cache. Cache
// failures degrade to plain embedding calls, so the wrapped provider
// remains the source of truth.
type CachingEmbedder struct {
	inner  ai.Embedder
	cache  *Cache
	model  string
	logger *slog.Logger
}

var _ ai.Embedder = (*CachingEmbedder)(nil)

// NewCachingEmbedder wraps inner with the cache. The model name is part
// of every cache key so switching models never serves stale vectors.
func NewCachingEmbedder(inner ai.Embedder, cache *Cache, model string, logger *slog.Logger) *CachingEmbedder {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachingEmbedder{
		inner:  inner,
		cache:  cache,
		model:  model,
		logger: logger,
	}
}

func (e *CachingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if vector, ok := e.cache.Get(e.model, text); ok {
		return vector, nil
	}

	vector, err := e.inner.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := e.cache.Put(e.model, text, vector); err != nil {
		e.logger.Warn("embedding cache write failed", "err", err)
	}
	return vector, nil
}

// EmbedTexts serves hits from the cache and embeds only the misses in a
// single provider call.
func (e *CachingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if vector, ok := e.cache.Get(e.model, text); ok {
			vectors[i] = vector
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	embedded, err := e.inner.EmbedTexts(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, vector := range embedded {
		vectors[missingIdx[j]] = vector
		if err := e.cache.Put(e.model, missing[j], vector); err != nil {
			e.logger.Warn("embedding cache write failed", "err", err)
		}
	}
	return vectors, nil
}
