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

import "errors"

// Rejection reasons returned by Normalize. All of them are non-fatal to the
// caller: a rejected item is logged and skipped, never aborts a run.
var (
	// ErrRejected is the common ancestor of every rejection reason.
	ErrRejected = errors.New("record rejected")

	// ErrMissingID indicates the item has no id field.
	ErrMissingID = errors.New("missing id")

	// ErrInvalidID indicates the id is neither an integer nor a numeric string.
	ErrInvalidID = errors.New("invalid id format")

	// ErrDisallowedModel indicates the base model is absent or not allow-listed.
	ErrDisallowedModel = errors.New("base model not allowed")

	// ErrInvalidMeta indicates the meta block is missing or not a mapping.
	ErrInvalidMeta = errors.New("invalid meta block")

	// ErrMissingPrompt indicates the meta block carries no prompt text.
	ErrMissingPrompt = errors.New("missing prompt")
)
