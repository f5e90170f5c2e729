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

// Package promptvault assembles the backfill, search and migration
// components into a single application facade over one configuration.
package promptvault

import (
	"context"
	"io"
	"log/slog"

	"github.com/promptvault/promptvault/ai"
	"github.com/promptvault/promptvault/ai/openai"
	"github.com/promptvault/promptvault/civitai"
	"github.com/promptvault/promptvault/config"
	"github.com/promptvault/promptvault/core"
	"github.com/promptvault/promptvault/embedcache"
	"github.com/promptvault/promptvault/ingestion"
	"github.com/promptvault/promptvault/migrate"
	"github.com/promptvault/promptvault/search"
	"github.com/promptvault/promptvault/storage"
	"github.com/promptvault/promptvault/storage/qdrant"
)

// App wires the vector store, the embedding provider and the Civitai
// client together from a validated configuration.
type App struct {
	cfg      *config.Config
	store    *qdrant.Store
	embedder ai.Embedder
	cache    *embedcache.Cache
	client   *civitai.Client
	logger   *slog.Logger
}

// NewApp builds the application from the configuration, creating the
// collection if it does not exist yet. The embedding cache is optional
// and only opened when a cache path is configured.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store := qdrant.NewStore(cfg.QdrantURL, cfg.QdrantAPIKey, cfg.Collection)
	if err := store.EnsureCollection(ctx, cfg.VectorSize); err != nil {
		return nil, err
	}

	embedder, err := openai.NewEmbedder(ai.NewConfig(
		ai.WithHost(cfg.EmbeddingHost),
		ai.WithModel(cfg.EmbeddingModel),
	))
	if err != nil {
		return nil, err
	}

	var cache *embedcache.Cache
	if cfg.CachePath != "" {
		cache, err = embedcache.Open(cfg.CachePath, false)
		if err != nil {
			return nil, err
		}
		embedder = embedcache.NewCachingEmbedder(embedder, cache, cfg.EmbeddingModel, nil)
	}

	return &App{
		cfg:      cfg,
		store:    store,
		embedder: embedder,
		cache:    cache,
		client:   civitai.NewClient(cfg.CivitaiAPIKey),
		logger:   slog.Default(),
	}, nil
}

// Close tears the application down. The store client has no persistent
// connection; only the embedding cache holds resources.
func (a *App) Close() error {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("error closing embedding cache", "err", err)
			return err
		}
	}
	return a.store.Close()
}

// Store exposes the underlying prompt store.
func (a *App) Store() storage.PromptStore {
	return a.store
}

// NewBackfillPipeline creates a backfill pipeline using the configured
// state file.
func (a *App) NewBackfillPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(a.client, a.store, a.embedder, a.cfg.StatePath, opts...)
}

// NewSearcher creates a similarity searcher over the store.
func (a *App) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(a.store, a.embedder, opts...)
}

// NewModelFieldMigration creates the model field rename migration.
func (a *App) NewModelFieldMigration(cfg *migrate.Config, progress io.Writer) (*migrate.ModelFieldMigration, error) {
	return migrate.NewModelFieldMigration(a.store, a.embedder, cfg, progress)
}

// NewPromptFieldsMigration creates the prompt field lift migration.
func (a *App) NewPromptFieldsMigration(cfg *migrate.Config, progress io.Writer) (*migrate.PromptFieldsMigration, error) {
	return migrate.NewPromptFieldsMigration(a.store, cfg, progress)
}

// ListStored returns up to limit stored records in scroll order.
func (a *App) ListStored(ctx context.Context, limit int) ([]*core.Record, error) {
	points, _, err := a.store.Scroll(ctx, storage.ScrollOptions{Limit: limit})
	if err != nil {
		return nil, err
	}

	records := make([]*core.Record, 0, len(points))
	for _, point := range points {
		record := core.RecordFromPayload(point.Payload)
		if record.ID == 0 {
			record.ID = point.ID
		}
		records = append(records, record)
	}
	return records, nil
}
