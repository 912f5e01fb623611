package build

import (
	"fmt"

	"github.com/beynar/relquery"
	"github.com/beynar/relquery/dialect/sql"
	"github.com/beynar/relquery/schema"
)

// aggregateFns lists the top-level aggregate bucket names, in the order
// §4.10 names them.
var aggregateFns = []string{"_count", "_avg", "_sum", "_min", "_max"}

// BuildAggregateSelect compiles an aggregate/groupBy argument's buckets
// (`_count`, `_avg`, `_sum`, `_min`, `_max`) into one ColumnPair per
// bucket, each a nested JSON object keyed by the fields the caller listed
// under it (§4.10 "aggregate: single row ... rendered as nested JSON
// objects"). `by` fields (groupBy's grouping columns) are rendered
// separately by the caller and are not part of this pass.
func BuildAggregateSelect(ctx *Context, args Fields) ([]ColumnPair, error) {
	var out []ColumnPair
	for _, name := range aggregateFns {
		bucket, ok := args.Get(name)
		if !ok {
			continue
		}
		pair, err := buildAggregateBucket(ctx, name, bucket)
		if err != nil {
			return nil, err
		}
		out = append(out, pair)
	}
	return out, nil
}

func buildAggregateBucket(ctx *Context, name string, bucket any) (ColumnPair, error) {
	agg := ctx.Adapter.Aggregates()
	fields := asFields(bucket)

	// `_count: true` means COUNT(*) with no per-field breakdown.
	if name == "_count" {
		if truthy, isBool := bucket.(bool); isBool && truthy {
			return ColumnPair{Name: name, Expr: sql.Wrap(agg.CountStar())}, nil
		}
	}

	var kv []sql.KV
	for _, f := range fields {
		truthy, isBool := f.Value.(bool)
		if isBool && !truthy {
			continue
		}
		field, ok := ctx.Model.Field(f.Key)
		if !ok {
			return ColumnPair{}, relquery.NewCompileError(ctx.Model.Name, f.Key, fmt.Sprintf("aggregate %s references unknown field", name))
		}
		expr, err := aggregateExpr(ctx, name, agg, field)
		if err != nil {
			return ColumnPair{}, err
		}
		kv = append(kv, sql.KV{Key: f.Key, Value: expr})
	}
	obj := ctx.Adapter.JSON().Object(kv)
	return ColumnPair{Name: name, Expr: obj}, nil
}

func aggregateExpr(ctx *Context, bucket string, agg sql.Aggregates, field *schema.Field) (sql.Fragment, error) {
	col := ctx.Column(field)
	switch bucket {
	case "_count":
		return agg.Count(col), nil
	case "_avg":
		return agg.Avg(col), nil
	case "_sum":
		return agg.Sum(col), nil
	case "_min":
		return agg.Min(col), nil
	case "_max":
		return agg.Max(col), nil
	default:
		return sql.Empty(), fmt.Errorf("relquery: unknown aggregate bucket %q", bucket)
	}
}

// BuildHaving compiles a groupBy `having` argument: {field: {bucket:
// {op: v}}}, where field must be one of the `by` fields or an aggregate
// key the query already selects (§4.10 "Only fields listed in by or
// aggregate keys may appear in HAVING — others are rejected").
func BuildHaving(ctx *Context, having Fields, allowed map[string]bool) (sql.Fragment, error) {
	if len(having) == 0 {
		return sql.Empty(), nil
	}
	operators := ctx.Adapter.Operators()
	var parts []sql.Fragment
	for _, kv := range having {
		if !allowed[kv.Key] {
			return sql.Empty(), relquery.NewCompileError(ctx.Model.Name, kv.Key, "having references a field that is not a groupBy or aggregate key")
		}
		buckets := asFields(kv.Value)
		field, isScalar := ctx.Model.Field(kv.Key)
		for _, b := range buckets {
			var expr sql.Fragment
			var err error
			if isScalar && !isAggregateBucket(b.Key) {
				// Grouping field compared directly, e.g. {authorId: {equals: 1}}.
				expr, err = buildScalarFilter(ctx, ctx.Column(field), field, Fields{b})
			} else {
				expr, err = buildHavingAggregate(ctx, kv.Key, b)
			}
			if err != nil {
				return sql.Empty(), err
			}
			parts = append(parts, expr)
		}
	}
	return operators.And(parts...), nil
}

func isAggregateBucket(key string) bool {
	for _, b := range aggregateFns {
		if b == key {
			return true
		}
	}
	return false
}

// buildHavingAggregate renders one "_count: {gt: 5}"-shaped entry keyed
// by the grouped/aggregated field name.
func buildHavingAggregate(ctx *Context, fieldName string, bucket Field) (sql.Fragment, error) {
	agg := ctx.Adapter.Aggregates()
	field, ok := ctx.Model.Field(fieldName)
	if !ok {
		return sql.Empty(), relquery.NewCompileError(ctx.Model.Name, fieldName, "having aggregate references unknown field")
	}
	expr, err := aggregateExpr(ctx, bucket.Key, agg, field)
	if err != nil {
		return sql.Empty(), err
	}
	ops := asFields(bucket.Value)
	operators := ctx.Adapter.Operators()
	var parts []sql.Fragment
	for _, kv := range ops {
		switch kv.Key {
		case "equals":
			parts = append(parts, operators.EQ(expr, kv.Value))
		case "not":
			parts = append(parts, operators.Not(operators.EQ(expr, kv.Value)))
		case "lt":
			parts = append(parts, operators.LT(expr, kv.Value))
		case "lte":
			parts = append(parts, operators.LTE(expr, kv.Value))
		case "gt":
			parts = append(parts, operators.GT(expr, kv.Value))
		case "gte":
			parts = append(parts, operators.GTE(expr, kv.Value))
		default:
			return sql.Empty(), fmt.Errorf("relquery: unknown having operator %q", kv.Key)
		}
	}
	return operators.And(parts...), nil
}
