package build

import (
	"fmt"

	"github.com/beynar/relquery"
	"github.com/beynar/relquery/dialect/sql"
	"github.com/beynar/relquery/schema"
)

// BuildWhere compiles a validator-normalized where object into a single
// boolean fragment, or the empty fragment when where is empty (§4.3).
func BuildWhere(ctx *Context, where Fields) (sql.Fragment, error) {
	if len(where) == 0 {
		return sql.Empty(), nil
	}
	var parts []sql.Fragment
	for _, kv := range where {
		f, err := buildWhereKey(ctx, kv.Key, kv.Value)
		if err != nil {
			return sql.Empty(), err
		}
		parts = append(parts, f)
	}
	return ctx.Adapter.Operators().And(parts...), nil
}

func buildWhereKey(ctx *Context, key string, value any) (sql.Fragment, error) {
	switch key {
	case "AND":
		return buildLogicalGroup(ctx, value, ctx.Adapter.Operators().And)
	case "OR":
		return buildLogicalGroup(ctx, value, ctx.Adapter.Operators().Or)
	case "NOT":
		inner, err := buildLogicalGroup(ctx, value, ctx.Adapter.Operators().And)
		if err != nil {
			return sql.Empty(), err
		}
		return ctx.Adapter.Operators().Not(inner), nil
	}
	if field, ok := ctx.Model.Field(key); ok {
		return buildScalarFilter(ctx, ctx.Column(field), field, asFields(value))
	}
	if _, ok := ctx.Model.Relation(key); ok {
		return buildRelationFilter(ctx, key, value)
	}
	return sql.Empty(), relquery.NewCompileError(ctx.Model.Name, key, "unknown where key")
}

// buildLogicalGroup compiles AND/OR/NOT's operand, which the validator
// allows as a bare object or an array of objects (§4.3).
func buildLogicalGroup(ctx *Context, value any, combine func(...sql.Fragment) sql.Fragment) (sql.Fragment, error) {
	items := asSlice(value)
	var parts []sql.Fragment
	for _, item := range items {
		f, err := BuildWhere(ctx, asFields(item))
		if err != nil {
			return sql.Empty(), err
		}
		parts = append(parts, f)
	}
	return combine(parts...), nil
}

// buildScalarFilter translates one scalar field's operator object into a
// fragment (§4.3). col is the field's already-qualified column reference.
func buildScalarFilter(ctx *Context, col sql.Fragment, field *schema.Field, ops Fields) (sql.Fragment, error) {
	operators := ctx.Adapter.Operators()
	var parts []sql.Fragment
	for _, kv := range ops {
		switch kv.Key {
		case "equals":
			if kv.Value == nil {
				parts = append(parts, operators.IsNull(col))
			} else {
				parts = append(parts, operators.EQ(col, kv.Value))
			}
		case "not":
			nested, err := buildScalarFilter(ctx, col, field, asFields(kv.Value))
			if err != nil {
				return sql.Empty(), err
			}
			parts = append(parts, operators.Not(nested))
		case "lt":
			parts = append(parts, operators.LT(col, kv.Value))
		case "lte":
			parts = append(parts, operators.LTE(col, kv.Value))
		case "gt":
			parts = append(parts, operators.GT(col, kv.Value))
		case "gte":
			parts = append(parts, operators.GTE(col, kv.Value))
		case "in":
			if vs := asSlice(kv.Value); len(vs) > 0 {
				parts = append(parts, operators.In(col, vs))
			}
		case "notIn":
			if vs := asSlice(kv.Value); len(vs) > 0 {
				parts = append(parts, operators.NotIn(col, vs))
			}
		case "contains":
			parts = append(parts, likeFilter(operators, col, ops, "%"+fmt.Sprint(kv.Value)+"%", false))
		case "startsWith":
			parts = append(parts, likeFilter(operators, col, ops, fmt.Sprint(kv.Value)+"%", false))
		case "endsWith":
			parts = append(parts, likeFilter(operators, col, ops, "%"+fmt.Sprint(kv.Value), false))
		case "has":
			parts = append(parts, ctx.Adapter.Arrays().Has(col, kv.Value))
		case "hasEvery":
			parts = append(parts, ctx.Adapter.Arrays().HasEvery(col, asSlice(kv.Value)))
		case "hasSome":
			parts = append(parts, ctx.Adapter.Arrays().HasSome(col, asSlice(kv.Value)))
		case "isEmpty":
			if truthy, _ := kv.Value.(bool); truthy {
				parts = append(parts, ctx.Adapter.Arrays().IsEmpty(col))
			}
		case "mode":
			// consumed by likeFilter via ops.Get("mode") above
		default:
			return sql.Empty(), fmt.Errorf("relquery: unknown filter operator %q", kv.Key)
		}
	}
	return operators.And(parts...), nil
}

// likeFilter renders a LIKE/ILIKE fragment, switching to the adapter's
// case-insensitive form when the sibling "mode" key is "insensitive".
func likeFilter(operators sql.Operators, col sql.Fragment, ops Fields, pattern string, negate bool) sql.Fragment {
	insensitive := false
	if mode, ok := ops.Get("mode"); ok {
		insensitive = mode == "insensitive"
	}
	switch {
	case insensitive && negate:
		return operators.NotILike(col, pattern)
	case insensitive:
		return operators.ILike(col, pattern)
	case negate:
		return operators.NotLike(col, pattern)
	default:
		return operators.Like(col, pattern)
	}
}
