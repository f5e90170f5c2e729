package promptvault

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/promptvault/promptvault/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(qdrantURL string) *config.Config {
	return &config.Config{
		CivitaiAPIKey:  "civitai-key",
		QdrantURL:      qdrantURL,
		QdrantAPIKey:   "qdrant-key",
		Collection:     "prompts",
		EmbeddingHost:  "http://localhost:11434/v1",
		EmbeddingModel: "bge-small-en-v1.5",
		VectorSize:     384,
		StatePath:      "state.json",
	}
}

func TestNewAppEnsuresCollection(t *testing.T) {
	var createBody bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			http.Error(w, `{"status": {"error": "not found"}}`, http.StatusNotFound)
		case http.MethodPut:
			createBody = true
			w.Write([]byte(`{"status": "ok", "result": true}`))
		}
	}))
	defer server.Close()

	app, err := NewApp(context.Background(), testConfig(server.URL))
	require.NoError(t, err)
	defer app.Close()

	assert.True(t, createBody)
	assert.NotNil(t, app.Store())
}

func TestNewAppRejectsIncompleteConfig(t *testing.T) {
	cfg := testConfig("http://localhost:6333")
	cfg.QdrantAPIKey = ""

	_, err := NewApp(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QDRANT_API_KEY")
}

func TestListStored(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/collections/prompts/points/scroll" {
			w.Write([]byte(`{"status": "ok", "result": {
				"points": [
					{"id": 1, "payload": {"id": 1, "prompt": "a cat", "model_name": "Pony"}}
				],
				"next_page_offset": null
			}}`))
			return
		}
		w.Write([]byte(`{"status": "ok", "result": {}}`))
	}))
	defer server.Close()

	app, err := NewApp(context.Background(), testConfig(server.URL))
	require.NoError(t, err)
	defer app.Close()

	records, err := app.ListStored(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(1), records[0].ID)
	assert.Equal(t, "a cat", records[0].Prompt)
	assert.Equal(t, "Pony", records[0].ModelName)
}
