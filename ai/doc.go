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


// Package ai provides the embedding abstraction used by the ingestion,
// migration, and search paths.
//
// The Embedder interface hides the provider behind a flat-vector contract:
// no matter what shape the provider natively returns, callers receive plain
// []float32 values. Flatten is the single place where provider result shapes
// are collapsed; every implementation routes its output through it.
//
// Two implementations ship with the module:
//
//   - ai/openai: production implementation against any OpenAI-compatible
//     embeddings API (Ollama, LocalAI, vLLM, the hosted OpenAI API)
//   - ai/mock: deterministic test double that needs no network
package ai
