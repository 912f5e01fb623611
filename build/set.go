package build

import (
	"fmt"

	"github.com/beynar/relquery"
	"github.com/beynar/relquery/dialect/sql"
	"github.com/beynar/relquery/schema"
)

// BuildSet compiles an update's data argument into the []sql.KV list
// Mutations.Update expects (§4.9). Relation keys are skipped — the
// nested-write planner re-interprets them as connect/disconnect/nested
// writes requiring their own statements.
func BuildSet(ctx *Context, data Fields) ([]sql.KV, error) {
	var out []sql.KV
	for _, kv := range data {
		field, ok := ctx.Model.Field(kv.Key)
		if !ok {
			if _, isRelation := ctx.Model.Relation(kv.Key); isRelation {
				continue
			}
			return nil, relquery.NewCompileError(ctx.Model.Name, kv.Key, "update references unknown field")
		}
		expr, err := buildSetExpr(ctx, field, kv.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, sql.KV{Key: field.ColumnName(), Value: expr})
	}
	return out, nil
}

// buildSetExpr renders one update operation object into the expression
// that goes on the right-hand side of "col = ...".
func buildSetExpr(ctx *Context, field *schema.Field, value any) (sql.Fragment, error) {
	ops, ok := value.(Fields)
	if !ok {
		return buildValueExpr(ctx, field, value)
	}
	col := ctx.Adapter.Identifiers().Escape(field.ColumnName())
	for _, kv := range ops {
		switch kv.Key {
		case "set":
			return buildValueExpr(ctx, field, kv.Value)
		case "increment":
			return arithmetic(col, "+", kv.Value), nil
		case "decrement":
			return arithmetic(col, "-", kv.Value), nil
		case "multiply":
			return arithmetic(col, "*", kv.Value), nil
		case "divide":
			return arithmetic(col, "/", kv.Value), nil
		case "push":
			return ctx.Adapter.Arrays().Push(sql.Raw(col), kv.Value), nil
		case "unshift":
			return ctx.Adapter.Arrays().Unshift(sql.Raw(col), kv.Value), nil
		default:
			return sql.Empty(), relquery.NewInvalidInputError(ctx.Model.Name, "update", field.Name, fmt.Errorf("unknown update operator %q", kv.Key))
		}
	}
	return sql.Empty(), relquery.NewInvalidInputError(ctx.Model.Name, "update", field.Name, fmt.Errorf("empty update operation"))
}

// arithmetic renders "col <op> $n", the self-referencing column update
// every dialect in this module's scope spells identically.
func arithmetic(col, op string, delta any) sql.Fragment {
	return sql.Concat(sql.Raw(col+" "+op+" "), sql.Param(delta))
}
