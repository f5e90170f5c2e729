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


package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/promptvault/promptvault/storage"
)

// Store implements storage.PromptStore over the Qdrant REST API.
type Store struct {
	baseURL    string
	apiKey     string
	collection string
	client     *http.Client
	logger     *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Store) {
		s.client = client
	}
}

var _ storage.PromptStore = (*Store)(nil)

// NewStore creates a store bound to one collection. No request is made until
// the first operation; use EnsureCollection to bootstrap a fresh deployment.
func NewStore(baseURL, apiKey, collection string, opts ...Option) *Store {
	s := &Store{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		collection: collection,
		client:     &http.Client{Timeout: 15 * time.Second},
		logger:     slog.Default().With("component", "qdrant", "collection", collection),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureCollection creates the collection with the given vector size and
// cosine distance if it does not exist yet.
func (s *Store) EnsureCollection(ctx context.Context, vectorSize int) error {
	path := "/collections/" + url.PathEscape(s.collection)

	var rsp envelope[json.RawMessage]
	err := s.do(ctx, http.MethodGet, path, nil, &rsp)
	if err == nil && rsp.Status.ok() {
		return nil
	}
	if err != nil && !errors.Is(err, storage.ErrCollectionMissing) {
		return err
	}

	s.logger.Info("creating collection", "vectorSize", vectorSize)

	req := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	var created envelope[json.RawMessage]
	if err := s.do(ctx, http.MethodPut, path, req, &created); err != nil {
		return err
	}
	if !created.Status.ok() {
		return fmt.Errorf("create collection: %s", created.Status.Error)
	}
	return nil
}

// Exists reports whether a point with the given payload id is stored, using a
// filtered scroll with limit 1.
func (s *Store) Exists(ctx context.Context, id int64) (bool, error) {
	req := map[string]any{
		"filter":       filterBody(&storage.Filter{Key: "id", Value: id}),
		"limit":        1,
		"with_payload": false,
		"with_vector":  false,
	}

	var rsp envelope[scrollResult]
	path := "/collections/" + url.PathEscape(s.collection) + "/points/scroll"
	if err := s.do(ctx, http.MethodPost, path, req, &rsp); err != nil {
		return false, err
	}

	return len(rsp.Result.Points) > 0, nil
}

// Upsert inserts or replaces points by id.
func (s *Store) Upsert(ctx context.Context, points []storage.Point, wait bool) error {
	if len(points) == 0 {
		return nil
	}

	body := make([]map[string]any, len(points))
	for i, p := range points {
		body[i] = map[string]any{
			"id":      p.ID,
			"vector":  p.Vector,
			"payload": p.Payload,
		}
	}

	req := map[string]any{"points": body}

	path := fmt.Sprintf("/collections/%s/points?wait=%t", url.PathEscape(s.collection), wait)

	var rsp envelope[json.RawMessage]
	if err := s.do(ctx, http.MethodPut, path, req, &rsp); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrUpsertFailed, err)
	}
	if !rsp.Status.ok() && rsp.Status.Error != "" {
		return fmt.Errorf("%w: %s", storage.ErrUpsertFailed, rsp.Status.Error)
	}

	return nil
}

// Scroll pages through stored points.
func (s *Store) Scroll(ctx context.Context, opts storage.ScrollOptions) ([]storage.Point, string, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	req := map[string]any{
		"limit":        limit,
		"with_payload": true,
		"with_vector":  opts.WithVectors,
	}
	if opts.Filter != nil {
		req["filter"] = filterBody(opts.Filter)
	}
	if opts.Offset != "" {
		req["offset"] = offsetBody(opts.Offset)
	}

	var rsp envelope[scrollResult]
	path := "/collections/" + url.PathEscape(s.collection) + "/points/scroll"
	if err := s.do(ctx, http.MethodPost, path, req, &rsp); err != nil {
		return nil, "", err
	}

	points := make([]storage.Point, 0, len(rsp.Result.Points))
	for _, p := range rsp.Result.Points {
		point, err := toPoint(p)
		if err != nil {
			s.logger.Warn("skipping undecodable point", "id", p.ID, "err", err)
			continue
		}
		points = append(points, point)
	}

	return points, decodeOffset(rsp.Result.NextPageOffset), nil
}

// Search returns the points closest to the query vector.
func (s *Store) Search(ctx context.Context, vector []float32, filter *storage.Filter, limit int) ([]storage.ScoredPoint, error) {
	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if filter != nil {
		req["filter"] = filterBody(filter)
	}

	var rsp envelope[[]pointResult]
	path := "/collections/" + url.PathEscape(s.collection) + "/points/search"
	if err := s.do(ctx, http.MethodPost, path, req, &rsp); err != nil {
		return nil, err
	}

	results := make([]storage.ScoredPoint, 0, len(rsp.Result))
	for _, p := range rsp.Result {
		point, err := toPoint(p)
		if err != nil {
			s.logger.Warn("skipping undecodable point", "id", p.ID, "err", err)
			continue
		}
		results = append(results, storage.ScoredPoint{Point: point, Score: p.Score})
	}

	return results, nil
}

// Count returns the exact number of stored points.
func (s *Store) Count(ctx context.Context) (int64, error) {
	req := map[string]any{"exact": true}

	var rsp envelope[countResult]
	path := "/collections/" + url.PathEscape(s.collection) + "/points/count"
	if err := s.do(ctx, http.MethodPost, path, req, &rsp); err != nil {
		return 0, err
	}

	return rsp.Result.Count, nil
}

// Close is a no-op; the store holds no persistent connection.
func (s *Store) Close() error {
	return nil
}

// do performs one JSON request/response round trip against the Qdrant API.
func (s *Store) do(ctx context.Context, method, path string, req any, rsp any) error {
	var buf io.Reader
	if req != nil {
		data, err := json.Marshal(req)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, buf)
	if err != nil {
		return err
	}

	request.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		request.Header.Set("api-key", s.apiKey)
		request.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	response, err := s.client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	if response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: qdrant http %d: %s", storage.ErrCollectionMissing, response.StatusCode, string(payload))
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("qdrant http %d: %s", response.StatusCode, string(payload))
	}

	if rsp != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, rsp); err != nil {
			return err
		}
	}

	return nil
}

// filterBody builds the Qdrant must/match filter for one exact-match condition.
func filterBody(f *storage.Filter) map[string]any {
	return map[string]any{
		"must": []map[string]any{
			{
				"key":   f.Key,
				"match": map[string]any{"value": f.Value},
			},
		},
	}
}

// offsetBody converts the opaque offset back into the type Qdrant handed out:
// numeric offsets go back as numbers, everything else as strings.
func offsetBody(offset string) any {
	if n, err := strconv.ParseInt(offset, 10, 64); err == nil {
		return n
	}
	return offset
}

// decodeOffset flattens the raw next_page_offset into an opaque string.
func decodeOffset(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return trimmed
}

func toPoint(p pointResult) (storage.Point, error) {
	id, err := p.ID.Int64()
	if err != nil {
		return storage.Point{}, fmt.Errorf("non-integer point id %q", p.ID)
	}
	return storage.Point{
		ID:      id,
		Vector:  p.Vector,
		Payload: p.Payload,
	}, nil
}
