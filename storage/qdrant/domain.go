package qdrant

import (
	"encoding/json"
	"strings"
)

// envelope is the common wrapper around every Qdrant REST response.
type envelope[T any] struct {
	Status status `json:"status"`
	Result T      `json:"result"`
}

// status is either the string "ok" or an object carrying an error message,
// depending on the endpoint and outcome.
type status struct {
	State string
	Error string
}

func (s *status) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		s.State = strings.ToLower(v)
		return nil
	}

	var obj struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	if obj.Error != "" {
		s.State = "error"
		s.Error = obj.Error
	}
	return nil
}

func (s *status) ok() bool {
	return strings.EqualFold(s.State, "ok")
}

// pointResult is one point as returned by scroll and search. Stored ids are
// always integers in this module.
type pointResult struct {
	ID      json.Number    `json:"id"`
	Score   float32        `json:"score"`
	Payload map[string]any `json:"payload"`
	Vector  []float32      `json:"vector"`
}

// scrollResult is the result block of a scroll call. The continuation offset
// is kept raw because Qdrant returns it as a number, a string, or null.
type scrollResult struct {
	Points         []pointResult   `json:"points"`
	NextPageOffset json.RawMessage `json:"next_page_offset"`
}

// countResult is the result block of a count call.
type countResult struct {
	Count int64 `json:"count"`
}
