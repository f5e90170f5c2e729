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


package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that must be present for any command touching the
// source API or the vector store.
var requiredKeys = []string{
	"CIVITAI_API_KEY",
	"QDRANT_URL",
	"QDRANT_API_KEY",
	"COLLECTION_NAME",
}

const (
	defaultEmbeddingHost  = "http://localhost:11434/v1"
	defaultEmbeddingModel = "bge-small-en-v1.5"
	defaultStatePath      = "backfill-state.json"
	defaultVectorSize     = 384
)

// Config holds everything needed to run the backfill, search, and migration
// commands. Required credentials come from the environment (optionally seeded
// from a .env file); the rest has defaults.
type Config struct {
	CivitaiAPIKey string
	QdrantURL     string
	QdrantAPIKey  string
	Collection    string

	// EmbeddingHost is the base URL of an OpenAI-compatible embedding API.
	EmbeddingHost string
	// EmbeddingModel is the embedding model identifier.
	EmbeddingModel string
	// VectorSize is the dimensionality of the embedding model's output.
	VectorSize int

	// StatePath is where the resumable cursor state file lives.
	StatePath string
	// CachePath is the directory for the local embedding cache.
	// Empty disables caching.
	CachePath string
}

// Load reads configuration from the process environment. When useDotenv is
// true, a .env file in the working directory is loaded first; a missing .env
// file is only a warning, matching how operators run this ad hoc.
func Load(useDotenv bool) (*Config, error) {
	if useDotenv {
		if err := godotenv.Load(); err != nil {
			slog.Warn("no .env file found", "err", err)
		}
	}

	cfg := &Config{
		CivitaiAPIKey:  os.Getenv("CIVITAI_API_KEY"),
		QdrantURL:      os.Getenv("QDRANT_URL"),
		QdrantAPIKey:   os.Getenv("QDRANT_API_KEY"),
		Collection:     os.Getenv("COLLECTION_NAME"),
		EmbeddingHost:  envOr("EMBEDDING_HOST", defaultEmbeddingHost),
		EmbeddingModel: envOr("EMBEDDING_MODEL", defaultEmbeddingModel),
		VectorSize:     defaultVectorSize,
		StatePath:      envOr("STATE_PATH", defaultStatePath),
		CachePath:      os.Getenv("EMBEDDING_CACHE_PATH"),
	}

	if v := os.Getenv("VECTOR_SIZE"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size <= 0 {
			return nil, fmt.Errorf("config: invalid VECTOR_SIZE %q", v)
		}
		cfg.VectorSize = size
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every required credential is present. All missing keys
// are reported at once so the operator fixes them in one pass.
func (c *Config) Validate() error {
	var missing []string
	for key, value := range map[string]string{
		"CIVITAI_API_KEY": c.CivitaiAPIKey,
		"QDRANT_URL":      c.QdrantURL,
		"QDRANT_API_KEY":  c.QdrantAPIKey,
		"COLLECTION_NAME": c.Collection,
	} {
		if value == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		// Deterministic order for the error message.
		ordered := make([]string, 0, len(missing))
		for _, key := range requiredKeys {
			for _, m := range missing {
				if m == key {
					ordered = append(ordered, key)
				}
			}
		}
		return fmt.Errorf("config: missing required settings: %s", strings.Join(ordered, ", "))
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
