// Package search provides similarity search over stored prompt records.
//
// A query prompt is embedded and matched against the vector store,
// optionally constrained to a single base model. Results carry the
// original prompt text and the cosine similarity score.
package search
