package core

import "encoding/json"

// AllowedBaseModels is the fixed set of base models whose prompts are worth
// keeping. Records generated with anything else are rejected during
// normalization.
var AllowedBaseModels = []string{"Illustrious", "Flux.1 D", "Pony"}

// metaKeys are the generation parameters carried through from the source
// record's meta block. Everything else in meta is dropped.
var metaKeys = []string{"seed", "steps", "cfg_scale", "sampler", "width", "height"}

// RawItem is a single record as returned by the source API. The shape is
// source-controlled and only partially trusted: ID and Meta are kept raw and
// validated during normalization.
type RawItem struct {
	ID        json.RawMessage `json:"id"`
	URL       string          `json:"url"`
	BaseModel string          `json:"baseModel"`
	CreatedAt string          `json:"createdAt"`
	Meta      json.RawMessage `json:"meta"`
}

// Record is the canonical unit persisted to the vector store. Every stored
// Record has a non-empty Prompt and a ModelName from AllowedBaseModels;
// ID is the externally assigned identifier and is unique across the store.
type Record struct {
	ID             int64          `json:"id"`
	URL            string         `json:"url"`
	Prompt         string         `json:"prompt"`
	NegativePrompt string         `json:"negative_prompt"`
	ModelName      string         `json:"model_name"`
	CreatedAt      string         `json:"created_at"` // source-provided, not validated
	Meta           map[string]any `json:"meta"`
}

// Payload converts the record to the payload mapping stored alongside its
// vector. The mapping mirrors the JSON shape of Record.
func (r *Record) Payload() map[string]any {
	meta := r.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	return map[string]any{
		"id":              r.ID,
		"url":             r.URL,
		"prompt":          r.Prompt,
		"negative_prompt": r.NegativePrompt,
		"model_name":      r.ModelName,
		"created_at":      r.CreatedAt,
		"meta":            meta,
	}
}

// RecordFromPayload reconstructs a Record from a stored payload mapping.
// Missing or mistyped fields are left at their zero values; the id field
// accepts any numeric representation the store hands back.
func RecordFromPayload(payload map[string]any) *Record {
	r := &Record{}
	if id, ok := payloadInt64(payload["id"]); ok {
		r.ID = id
	}
	r.URL, _ = payload["url"].(string)
	r.Prompt, _ = payload["prompt"].(string)
	r.NegativePrompt, _ = payload["negative_prompt"].(string)
	r.ModelName, _ = payload["model_name"].(string)
	r.CreatedAt, _ = payload["created_at"].(string)
	if meta, ok := payload["meta"].(map[string]any); ok {
		r.Meta = meta
	}
	return r
}

func payloadInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}
