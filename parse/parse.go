// Package parse implements the result parser (C9): the schema-aware walk
// that turns a raw driver row — a column-name-keyed map, possibly
// carrying JSON-aggregated relation columns — back into a typed record
// matching the shape the caller asked for (§4.12).
//
// Parsing never needs the QueryContext a builder used to compile the
// statement; a *schema.Model is enough to classify every top-level key as
// a scalar field, a relation, or unknown, and recurse accordingly.
package parse

import (
	"github.com/beynar/relquery"
	"github.com/beynar/relquery/schema"
)

// Row is one driver-returned record: column name (or relation/select
// alias) to raw value, exactly as the driver handed it back.
type Row = map[string]any

// Record walks row against model, producing a new map with every scalar
// field type-converted and every relation key recursively parsed against
// its target model (§4.12). Unknown keys pass through generic parsing so
// a raw computed column survives without a schema entry.
func Record(model *schema.Model, row Row) (Row, error) {
	if row == nil {
		return nil, nil
	}
	out := make(Row, len(row))
	for key, raw := range row {
		if field, ok := model.Field(key); ok {
			v, err := convertScalar(field, raw)
			if err != nil {
				return nil, relquery.NewQueryError(model.Name, "parse", err)
			}
			out[key] = v
			continue
		}
		if info, err := schema.ResolveRelation(model, key); err == nil {
			v, err := parseRelationValue(info, raw)
			if err != nil {
				return nil, relquery.NewQueryError(model.Name, "parse", err)
			}
			out[key] = v
			continue
		}
		out[key] = genericParse(raw)
	}
	return out, nil
}

// Records applies Record to every row in rows, in order.
func Records(model *schema.Model, rows []Row) ([]Row, error) {
	out := make([]Row, len(rows))
	for i, row := range rows {
		parsed, err := Record(model, row)
		if err != nil {
			return nil, err
		}
		out[i] = parsed
	}
	return out, nil
}
