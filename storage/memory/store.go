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

// Package memory provides an in-process PromptStore used by tests and
// offline tooling. Points are kept in insertion order so scroll results
// are deterministic.
package memory

import (
	"context"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/promptvault/promptvault/storage"
)

// Store is an in-memory implementation of storage.PromptStore.
type Store struct {
	mu     sync.RWMutex
	points map[int64]storage.Point
	order  []int64
	closed bool
}

var _ storage.PromptStore = (*Store)(nil)

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{points: make(map[int64]storage.Point)}
}

func (s *Store) Exists(ctx context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, storage.ErrStoreClosed
	}
	_, ok := s.points[id]
	return ok, nil
}

func (s *Store) Upsert(ctx context.Context, points []storage.Point, wait bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrStoreClosed
	}
	for _, p := range points {
		if _, ok := s.points[p.ID]; !ok {
			s.order = append(s.order, p.ID)
		}
		s.points[p.ID] = p
	}
	return nil
}

func (s *Store) Scroll(ctx context.Context, opts storage.ScrollOptions) ([]storage.Point, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, "", storage.ErrStoreClosed
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	start := 0
	if opts.Offset != "" {
		n, err := strconv.Atoi(opts.Offset)
		if err != nil {
			return nil, "", err
		}
		start = n
	}

	var out []storage.Point
	next := ""
	seen := 0
	for i, id := range s.order {
		if seen < start {
			seen++
			continue
		}
		p := s.points[id]
		if opts.Filter != nil && !matches(p.Payload, opts.Filter) {
			seen++
			continue
		}
		if len(out) == limit {
			next = strconv.Itoa(i)
			break
		}
		p = clonePoint(p, opts.WithVectors)
		out = append(out, p)
		seen++
	}
	return out, next, nil
}

func (s *Store) Search(ctx context.Context, vector []float32, filter *storage.Filter, limit int) ([]storage.ScoredPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storage.ErrStoreClosed
	}

	var scored []storage.ScoredPoint
	for _, id := range s.order {
		p := s.points[id]
		if filter != nil && !matches(p.Payload, filter) {
			continue
		}
		scored = append(scored, storage.ScoredPoint{
			Point: clonePoint(p, true),
			Score: cosine(vector, p.Vector),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, storage.ErrStoreClosed
	}
	return int64(len(s.points)), nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// matches compares a payload value against a filter, tolerating the
// numeric type drift JSON round-trips introduce.
func matches(payload map[string]any, f *storage.Filter) bool {
	got, ok := payload[f.Key]
	if !ok {
		return false
	}
	if gn, ok := asFloat(got); ok {
		if wn, ok := asFloat(f.Value); ok {
			return gn == wn
		}
		return false
	}
	return got == f.Value
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

func clonePoint(p storage.Point, withVector bool) storage.Point {
	out := storage.Point{ID: p.ID}
	if withVector {
		out.Vector = append([]float32(nil), p.Vector...)
	}
	if p.Payload != nil {
		out.Payload = make(map[string]any, len(p.Payload))
		for k, v := range p.Payload {
			out.Payload[k] = v
		}
	}
	return out
}
