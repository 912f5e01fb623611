package parse

import "strconv"

// Count collapses a count operation's result row into either a bare
// number (the plain `COUNT(*)` case, aliased "count" by assemble.Count)
// or a `{key: count}` breakdown map when the caller requested a
// per-field count select (§4.12 "Count operations collapse to a single
// number or {key: count} map").
func Count(row Row) (any, error) {
	if row == nil {
		return int64(0), nil
	}
	if v, ok := row["count"]; ok && len(row) == 1 {
		return normalizeCount(v), nil
	}
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = normalizeCount(v)
	}
	return out, nil
}

// normalizeCount widens whatever integer shape the driver returned
// (int64, int32, []byte-encoded numeric strings from some MySQL
// configurations) into a plain int64.
func normalizeCount(v any) any {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case []byte:
		if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
			return i
		}
		return v
	default:
		return v
	}
}

// BatchResult builds the `{count}` shape a batch mutation (createMany/
// updateMany/deleteMany) reports from the driver's affected-row count
// (§4.12 "Batch operations yield {count} from the driver's reported
// affected-rows").
func BatchResult(rowCount int64) Row {
	return Row{"count": rowCount}
}
