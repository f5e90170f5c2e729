// Package storage defines the vector store abstraction the rest of the module
// writes to and searches against.
//
// The PromptStore interface covers the four operations the pipelines need:
// existence checks by payload id (deduplication), bulk upsert, filtered
// scrolling (migrations and listing), and similarity search. Two
// implementations ship with the module:
//
//   - storage/qdrant: production implementation over the Qdrant REST API
//   - storage/memory: in-memory implementation for tests and offline runs
package storage
