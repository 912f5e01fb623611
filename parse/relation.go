package parse

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/beynar/relquery/schema"
)

// parseRelationValue decodes a relation column — a JSON array for a
// to-many edge, a JSON object or SQL NULL for a to-one edge (§4.12, §6
// "JSON aggregation shape") — and recurses Record/Records against the
// relation's target model.
func parseRelationValue(info *schema.RelationInfo, raw any) (any, error) {
	if info.IsToMany {
		return parseToMany(info.TargetModel, raw)
	}
	return parseToOne(info.TargetModel, raw)
}

// parseToMany decodes a to-many relation column into a []Row, recursing
// into each element. A JSON null or SQL NULL still yields an empty slice
// rather than nil: the aggregation layer never emits NULL for a to-many
// column (§6), but a defensive nil here stays consistent with that
// contract instead of surfacing a spurious NotLoaded-shaped gap.
func parseToMany(target *schema.Model, raw any) ([]Row, error) {
	items, err := decodeJSONArray(raw)
	if err != nil {
		return nil, fmt.Errorf("relation %q: %w", target.Name, err)
	}
	out := make([]Row, len(items))
	for i, item := range items {
		row, ok := item.(Row)
		if !ok {
			row = toRow(item)
		}
		parsed, err := Record(target, row)
		if err != nil {
			return nil, err
		}
		out[i] = parsed
	}
	return out, nil
}

// parseToOne decodes a to-one relation column: nil passes through, a
// decoded JSON object recurses into Record.
func parseToOne(target *schema.Model, raw any) (Row, error) {
	if raw == nil {
		return nil, nil
	}
	obj, err := decodeJSONObject(raw)
	if err != nil {
		return nil, fmt.Errorf("relation %q: %w", target.Name, err)
	}
	if obj == nil {
		return nil, nil
	}
	return Record(target, obj)
}

// decodeJSONArray normalizes a to-many column into a []any, parsing a
// JSON-text representation when the driver didn't decode it natively.
func decodeJSONArray(raw any) ([]any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []any:
		return v, nil
	case string:
		if v == "" {
			return nil, nil
		}
		var out []any
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, err
		}
		return out, nil
	case []byte:
		if len(v) == 0 {
			return nil, nil
		}
		var out []any
		if err := json.Unmarshal(v, &out); err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported to-many representation %T", raw)
	}
}

// decodeJSONObject normalizes a to-one column into a map[string]any.
func decodeJSONObject(raw any) (map[string]any, error) {
	switch v := raw.(type) {
	case map[string]any:
		return v, nil
	case string:
		var out map[string]any
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, err
		}
		return out, nil
	case []byte:
		var out map[string]any
		if err := json.Unmarshal(v, &out); err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported to-one representation %T", raw)
	}
}

// toRow coerces a decoded JSON array element into a Row, for the case
// where json.Unmarshal already produced map[string]any directly.
func toRow(v any) Row {
	if m, ok := v.(map[string]any); ok {
		return Row(m)
	}
	return nil
}
