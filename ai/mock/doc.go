// Package mock provides a deterministic ai.Embedder test double.
// The default behavior derives unit vectors from an FNV hash of the input
// text, so tests get stable embeddings without a network dependency.
package mock
