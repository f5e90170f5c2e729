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


package civitai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/promptvault/promptvault/core"
)

const (
	// DefaultBaseURL is the public Civitai API endpoint.
	DefaultBaseURL = "https://civitai.com"

	// MaxPageSize is the hard cap the API enforces on the limit parameter.
	// Requests for more are clamped, never rejected.
	MaxPageSize = 200

	imagesPath = "/api/v1/images"

	// The backfill always reads the month's most-reacted images; that is the
	// slice of the feed worth keeping prompts from.
	sortParam   = "Most Reactions"
	periodParam = "Month"
)

// Client fetches pages of image records from the Civitai API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a client authenticating with the given bearer token.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default().With("component", "civitai-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchPage fetches one page of raw items starting at cursor. An empty cursor
// starts from the beginning of the stream; an empty returned cursor means the
// stream is exhausted. limit is clamped to MaxPageSize.
//
// Network failures and non-2xx responses are returned as errors and are fatal
// to the current run. A response body that decodes but lacks the expected
// items field is treated as end-of-stream with a logged error, not a failure.
func (c *Client) FetchPage(ctx context.Context, cursor string, limit int) ([]core.RawItem, string, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}

	query := url.Values{}
	query.Set("limit", fmt.Sprintf("%d", limit))
	query.Set("sort", sortParam)
	query.Set("period", periodParam)
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	endpoint := c.baseURL + imagesPath + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Debug("fetching page", "limit", limit, "cursor", cursor)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("civitai: fetch failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("civitai: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("civitai: http %d: %s", resp.StatusCode, truncate(body, 256))
	}

	// A body that isn't the expected shape ends the stream rather than
	// crashing the run; a single bad page should not lose saved progress.
	var page struct {
		Items    json.RawMessage `json:"items"`
		Metadata struct {
			NextCursor string `json:"nextCursor"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		c.logger.Error("malformed response body, treating as end of stream", "err", err)
		return nil, "", nil
	}
	if len(page.Items) == 0 {
		c.logger.Error("response has no items field, treating as end of stream")
		return nil, "", nil
	}

	var items []core.RawItem
	if err := json.Unmarshal(page.Items, &items); err != nil {
		c.logger.Error("undecodable items in response, treating as end of stream", "err", err)
		return nil, "", nil
	}

	c.logger.Debug("fetched page", "items", len(items), "nextCursor", page.Metadata.NextCursor)

	return items, page.Metadata.NextCursor, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
