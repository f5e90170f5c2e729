package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("CIVITAI_API_KEY", "civ-key")
	t.Setenv("QDRANT_URL", "https://qdrant.example.com")
	t.Setenv("QDRANT_API_KEY", "qd-key")
	t.Setenv("COLLECTION_NAME", "civitai_images")
}

func TestLoadWithDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("EMBEDDING_HOST", "")
	t.Setenv("EMBEDDING_MODEL", "")
	t.Setenv("VECTOR_SIZE", "")

	cfg, err := Load(false)
	require.NoError(t, err)

	assert.Equal(t, "civ-key", cfg.CivitaiAPIKey)
	assert.Equal(t, "civitai_images", cfg.Collection)
	assert.Equal(t, defaultEmbeddingHost, cfg.EmbeddingHost)
	assert.Equal(t, defaultEmbeddingModel, cfg.EmbeddingModel)
	assert.Equal(t, defaultVectorSize, cfg.VectorSize)
	assert.Equal(t, defaultStatePath, cfg.StatePath)
}

func TestLoadReportsEveryMissingKey(t *testing.T) {
	t.Setenv("CIVITAI_API_KEY", "")
	t.Setenv("QDRANT_URL", "")
	t.Setenv("QDRANT_API_KEY", "qd-key")
	t.Setenv("COLLECTION_NAME", "")

	_, err := Load(false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CIVITAI_API_KEY")
	assert.Contains(t, err.Error(), "QDRANT_URL")
	assert.Contains(t, err.Error(), "COLLECTION_NAME")
	assert.NotContains(t, err.Error(), "QDRANT_API_KEY")
}

func TestLoadRejectsBadVectorSize(t *testing.T) {
	setRequired(t)
	t.Setenv("VECTOR_SIZE", "not-a-number")

	_, err := Load(false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VECTOR_SIZE")
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("EMBEDDING_MODEL", "text-embedding-3-small")
	t.Setenv("VECTOR_SIZE", "1536")

	cfg, err := Load(false)
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, 1536, cfg.VectorSize)
}
