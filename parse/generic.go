package parse

import (
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// genericParse handles a row key that matches neither a scalar field nor
// a relation on the model — a raw computed column or an aliased select
// the schema doesn't know about (§4.12 "Unknown keys: generic parse
// (string-heuristic JSON parse, preserve dates/buffers)"). []byte and
// time.Time values pass through untouched; a string that looks like a
// JSON object or array is decoded; everything else passes through as-is.
func genericParse(raw any) any {
	switch v := raw.(type) {
	case []byte, time.Time:
		return v
	case string:
		trimmed := strings.TrimSpace(v)
		if len(trimmed) == 0 {
			return v
		}
		if trimmed[0] != '{' && trimmed[0] != '[' {
			return v
		}
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
			return v
		}
		return decoded
	default:
		return v
	}
}
