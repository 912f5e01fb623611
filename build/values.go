package build

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/beynar/relquery"
	"github.com/beynar/relquery/dialect/sql"
	"github.com/beynar/relquery/schema"
)

// BuildValues compiles the data argument of a create/createMany into the
// (columns, rows) shape Mutations.Insert expects (§4.8). records holds one
// Fields per row: a single record for create, several for createMany. Relation keys are
// rejected here — the nested-write planner is responsible for splitting a
// create payload into its scalar and relation parts before this is called.
// A field whose generation strategy is "uuid" and that is missing from a
// record is filled in application-side with a fresh v4, rather than
// requiring the caller to supply one (§4.8's "AutoGenerate ... resolved
// by the values builder instead of a literal").
func BuildValues(ctx *Context, records []Fields) ([]string, [][]sql.Fragment, error) {
	columns := unionKeys(records)
	for _, f := range ctx.Model.Fields() {
		if f.AutoGenerate == "uuid" && !containsColumn(columns, f.Name) {
			columns = append(columns, f.Name)
		}
	}
	if len(columns) == 0 {
		return nil, nil, relquery.NewInvalidInputError(ctx.Model.Name, "create", "data", fmt.Errorf("no scalar fields present"))
	}

	rows := make([][]sql.Fragment, len(records))
	for i, rec := range records {
		row := make([]sql.Fragment, len(columns))
		for j, col := range columns {
			field, ok := ctx.Model.Field(col)
			if !ok {
				return nil, nil, relquery.NewCompileError(ctx.Model.Name, col, "create references unknown field")
			}
			v, present := rec.Get(col)
			if !present {
				if field.AutoGenerate == "uuid" {
					expr, err := buildValueExpr(ctx, field, uuid.NewString())
					if err != nil {
						return nil, nil, err
					}
					row[j] = expr
					continue
				}
				if err := checkRequiredID(field); err != nil {
					return nil, nil, relquery.NewInvalidInputError(ctx.Model.Name, "create", col, err)
				}
				row[j] = sql.Raw("NULL")
				continue
			}
			expr, err := buildValueExpr(ctx, field, v)
			if err != nil {
				return nil, nil, err
			}
			row[j] = expr
		}
		rows[i] = row
	}

	inColumns := make(map[string]bool, len(columns))
	for _, c := range columns {
		inColumns[c] = true
	}
	for _, f := range ctx.Model.Fields() {
		if inColumns[f.Name] {
			continue
		}
		if err := checkRequiredID(f); err != nil {
			return nil, nil, relquery.NewInvalidInputError(ctx.Model.Name, "create", f.Name, err)
		}
	}
	return columns, rows, nil
}

// checkRequiredID rejects a missing value for a non-nullable field whose
// generation strategy needs a caller-supplied value — every AutoGenerate
// kind except database-side autoincrement, which the column default
// handles without the statement naming the column at all (§4.8).
func checkRequiredID(f *schema.Field) error {
	if f.Nullable || f.Default != nil || f.AutoGenerate == "" || f.AutoGenerate == "autoincrement" {
		return nil
	}
	return fmt.Errorf("field %q requires a caller-supplied value (generation strategy %q is not database-side)", f.Name, f.AutoGenerate)
}

// containsColumn reports whether name is already present in columns.
func containsColumn(columns []string, name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}

// unionKeys collects the union of keys present across every record, in
// first-seen order, so a short row in a createMany batch doesn't shrink
// the column list (§4.8).
func unionKeys(records []Fields) []string {
	seen := map[string]bool{}
	var out []string
	for _, rec := range records {
		for _, kv := range rec {
			if !seen[kv.Key] {
				seen[kv.Key] = true
				out = append(out, kv.Key)
			}
		}
	}
	return out
}

// buildValueExpr renders one cell: a spliced Fragment verbatim (connect
// subqueries, lastInsertId() references), a JSON-typed value through the
// adapter's JSON encoding, or an ordinary bound parameter.
func buildValueExpr(ctx *Context, field *schema.Field, v any) (sql.Fragment, error) {
	if frag, ok := v.(sql.Fragment); ok {
		return frag, nil
	}
	if v == nil {
		return sql.Raw("NULL"), nil
	}
	if field.Type == schema.TypeJSON {
		encoded, err := json.Marshal(v)
		if err != nil {
			return sql.Empty(), fmt.Errorf("relquery: encoding %q for %s: %w", field.Name, ctx.Model.Name, err)
		}
		return sql.Param(string(encoded)), nil
	}
	return sql.Param(v), nil
}
