package parse

import (
	json "github.com/goccy/go-json"

	"github.com/beynar/relquery/schema"
)

// aggregateBuckets lists the keys build.BuildAggregateSelect renders,
// mirrored here so the parser can tell a bucket column from a groupBy
// "by" field without needing the original query args.
var aggregateBuckets = map[string]bool{"_count": true, "_avg": true, "_sum": true, "_min": true, "_max": true}

// Aggregate decodes a single-row aggregate result: each `_count`/`_avg`/
// `_sum`/`_min`/`_max` column is a nested JSON object keyed by field name
// (or, for a bare `_count: true`, a plain number), per §4.10's "rendered
// as nested JSON objects".
func Aggregate(row Row) (Row, error) {
	out := make(Row, len(row))
	for key, raw := range row {
		v, err := decodeAggregateBucket(raw)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

// GroupByRow parses one groupBy result row: `by` columns are converted
// through the model's own scalar typing, and every remaining column is
// treated as an aggregate bucket (§4.10, E6).
func GroupByRow(model *schema.Model, row Row) (Row, error) {
	out := make(Row, len(row))
	for key, raw := range row {
		if field, ok := model.Field(key); ok && !aggregateBuckets[key] {
			v, err := convertScalar(field, raw)
			if err != nil {
				return nil, err
			}
			out[key] = v
			continue
		}
		v, err := decodeAggregateBucket(raw)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

// GroupByRows applies GroupByRow to every row, preserving order — groupBy
// results are a list of per-group buckets, never collapsed into a map
// the way findMany's single-model results might be post-processed
// downstream.
func GroupByRows(model *schema.Model, rows []Row) ([]Row, error) {
	out := make([]Row, len(rows))
	for i, row := range rows {
		parsed, err := GroupByRow(model, row)
		if err != nil {
			return nil, err
		}
		out[i] = parsed
	}
	return out, nil
}

// decodeAggregateBucket normalizes one bucket column: a bare number
// (the `_count: true` shortcut) passes through widened to int64; a JSON
// object (possibly still JSON text) decodes into a map with each value
// normalized.
func decodeAggregateBucket(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case map[string]any:
		return normalizeBucketMap(v), nil
	case string:
		var obj map[string]any
		if err := json.Unmarshal([]byte(v), &obj); err == nil {
			return normalizeBucketMap(obj), nil
		}
		return normalizeCount(raw), nil
	case []byte:
		var obj map[string]any
		if err := json.Unmarshal(v, &obj); err == nil {
			return normalizeBucketMap(obj), nil
		}
		return normalizeCount(raw), nil
	default:
		return normalizeCount(raw), nil
	}
}

func normalizeBucketMap(m map[string]any) Row {
	out := make(Row, len(m))
	for k, v := range m {
		if n, ok := v.(float64); ok {
			out[k] = n
			continue
		}
		out[k] = normalizeCount(v)
	}
	return out
}
