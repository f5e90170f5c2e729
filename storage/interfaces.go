package storage

import "context"

// Point is one stored unit: an integer id, a flat embedding vector, and the
// record payload persisted alongside it.
type Point struct {
	ID      int64
	Vector  []float32
	Payload map[string]any
}

// ScoredPoint is a Point annotated with a similarity score from a search.
type ScoredPoint struct {
	Point
	Score float32
}

// Filter is an exact-match condition on a payload field.
type Filter struct {
	Key   string
	Value any
}

// ScrollOptions parameterizes a Scroll call.
type ScrollOptions struct {
	// Filter restricts the scroll to points whose payload matches. Nil scans
	// everything.
	Filter *Filter

	// Limit is the maximum number of points per page.
	Limit int

	// Offset is the opaque continuation token from a previous page.
	// Empty starts from the beginning.
	Offset string

	// WithVectors includes stored vectors in the results.
	WithVectors bool
}

// PromptStore is the vector store holding canonical prompt records.
// Implementations must be safe for use by a single writer plus any number of
// readers; all mutation goes through Upsert.
type PromptStore interface {
	// Exists reports whether a point with the given payload id is already
	// stored. Used for duplicate-checking during bulk ingestion.
	Exists(ctx context.Context, id int64) (bool, error)

	// Upsert inserts or replaces points by id. When wait is true the call
	// does not return until the store has made the write durable.
	Upsert(ctx context.Context, points []Point, wait bool) error

	// Scroll pages through stored points, optionally filtered. It returns the
	// page and an opaque offset for the next page; an empty offset means the
	// scan is complete.
	Scroll(ctx context.Context, opts ScrollOptions) ([]Point, string, error)

	// Search returns up to limit points closest to the query vector, highest
	// score first, optionally restricted by an exact-match payload filter.
	Search(ctx context.Context, vector []float32, filter *Filter, limit int) ([]ScoredPoint, error)

	// Count returns the number of stored points.
	Count(ctx context.Context) (int64, error)

	// Close releases the underlying connection or resources.
	Close() error
}
