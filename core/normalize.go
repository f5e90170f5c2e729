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


package core

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Normalize filters and reshapes a raw source item into a canonical Record.
//
// Checks run in a fixed order and the first failure wins:
//  1. id must be present and coercible to an integer (integer or numeric string)
//  2. baseModel must be a member of AllowedBaseModels
//  3. meta must be a JSON object
//  4. meta.prompt must be a non-empty string
//
// The returned error wraps ErrRejected plus the specific reason. Normalize
// performs no I/O.
func Normalize(item *RawItem) (*Record, error) {
	if item == nil {
		return nil, fmt.Errorf("%w: %w", ErrRejected, ErrMissingID)
	}

	id, err := coerceID(item.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRejected, err)
	}

	if item.BaseModel == "" || !slices.Contains(AllowedBaseModels, item.BaseModel) {
		return nil, fmt.Errorf("%w: %w: %q", ErrRejected, ErrDisallowedModel, item.BaseModel)
	}

	meta, err := decodeMeta(item.Meta)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRejected, err)
	}

	prompt, _ := meta["prompt"].(string)
	if prompt == "" {
		return nil, fmt.Errorf("%w: %w", ErrRejected, ErrMissingPrompt)
	}

	negative, _ := meta["negativePrompt"].(string)

	return &Record{
		ID:             id,
		URL:            item.URL,
		Prompt:         prompt,
		NegativePrompt: negative,
		ModelName:      item.BaseModel,
		CreatedAt:      item.CreatedAt,
		Meta:           pickMeta(meta),
	}, nil
}

// coerceID accepts a JSON number or a numeric string and returns the integer
// value. Anything else is a rejection.
func coerceID(raw json.RawMessage) (int64, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return 0, ErrMissingID
	}

	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		if id, err := num.Int64(); err == nil {
			return id, nil
		}
		return 0, fmt.Errorf("%w: %s", ErrInvalidID, num)
	}

	// Numeric strings are accepted too ("12345").
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return id, nil
		}
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}

	return 0, fmt.Errorf("%w: %s", ErrInvalidID, trimmed)
}

// decodeMeta requires the meta block to be a JSON object.
func decodeMeta(raw json.RawMessage) (map[string]any, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, ErrInvalidMeta
	}

	var meta map[string]any
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMeta, err)
	}
	return meta, nil
}

// pickMeta copies the known generation parameters out of the source meta
// block, passing their values through untouched. Absent keys stay absent.
func pickMeta(meta map[string]any) map[string]any {
	out := make(map[string]any, len(metaKeys))
	for _, key := range metaKeys {
		src := key
		// The source spells guidance scale as cfgScale.
		if key == "cfg_scale" {
			src = "cfgScale"
		}
		if v, ok := meta[src]; ok {
			out[key] = v
		}
	}
	return out
}
