package ai

import (
	"errors"
	"fmt"
)

// ErrBadVectorShape indicates that a provider result could not be collapsed
// into a flat sequence of floats.
var ErrBadVectorShape = errors.New("embedding is not a flat numeric vector")

// Flatten collapses whatever shape an embedding provider returns into a plain
// []float32. Providers variously hand back a single vector, a singleton batch
// of vectors, or loosely typed numeric slices decoded from JSON; every write
// path goes through this one function so the store only ever sees flat float
// sequences.
//
// Accepted shapes:
//   - []float32, []float64
//   - [][]float32, [][]float64 with exactly one element
//   - []any whose elements are all numbers
//   - [][]any / []any-of-slices with exactly one element
func Flatten(v any) ([]float32, error) {
	switch vec := v.(type) {
	case []float32:
		return vec, nil
	case []float64:
		out := make([]float32, len(vec))
		for i, f := range vec {
			out[i] = float32(f)
		}
		return out, nil
	case [][]float32:
		if len(vec) != 1 {
			return nil, fmt.Errorf("%w: batch of %d vectors", ErrBadVectorShape, len(vec))
		}
		return vec[0], nil
	case [][]float64:
		if len(vec) != 1 {
			return nil, fmt.Errorf("%w: batch of %d vectors", ErrBadVectorShape, len(vec))
		}
		return Flatten(vec[0])
	case []any:
		return flattenLoose(vec)
	case nil:
		return nil, fmt.Errorf("%w: nil", ErrBadVectorShape)
	}
	return nil, fmt.Errorf("%w: %T", ErrBadVectorShape, v)
}

// flattenLoose handles []any coming from a JSON decode: either a flat list of
// numbers, or a singleton list wrapping one vector.
func flattenLoose(vec []any) ([]float32, error) {
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrBadVectorShape)
	}

	// Singleton wrapping, e.g. [[0.1, 0.2, ...]].
	switch inner := vec[0].(type) {
	case []any, []float32, []float64:
		if len(vec) != 1 {
			return nil, fmt.Errorf("%w: batch of %d vectors", ErrBadVectorShape, len(vec))
		}
		return Flatten(inner)
	}

	out := make([]float32, len(vec))
	for i, e := range vec {
		f, ok := asFloat(e)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is %T", ErrBadVectorShape, i, e)
		}
		out[i] = f
	}
	return out, nil
}

func asFloat(v any) (float32, bool) {
	switch n := v.(type) {
	case float32:
		return n, true
	case float64:
		return float32(n), true
	case int:
		return float32(n), true
	case int64:
		return float32(n), true
	}
	return 0, false
}
