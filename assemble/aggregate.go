package assemble

import (
	"github.com/beynar/relquery"
	"github.com/beynar/relquery/build"
	"github.com/beynar/relquery/dialect/sql"
)

// CountArgs bundles a count operation's arguments (§4.10): Where filters
// the rows counted; Select, when present, requests a per-column count
// breakdown instead of a single COUNT(*).
type CountArgs struct {
	Where  build.Fields
	Select build.Fields
}

// Count assembles `SELECT COUNT(*) FROM table WHERE ...`, or, when
// Select lists fields, one COUNT(col) per listed field plus a `_all`
// COUNT(*) when requested, each rendered as its own column aliased by its
// key so the result parser can collapse the row into a `{key: count}` map.
// Selected keys that name no field of the model are skipped.
func Count(ctx *build.Context, args CountArgs) (sql.Fragment, error) {
	where, err := build.BuildWhere(ctx, args.Where)
	if err != nil {
		return sql.Empty(), err
	}

	agg := ctx.Adapter.Aggregates()
	var list sql.Fragment
	if len(args.Select) == 0 {
		list = sql.Concat(agg.CountStar(), sql.Raw(` AS "count"`))
	} else {
		var terms []sql.Fragment
		for _, kv := range args.Select {
			truthy, isBool := kv.Value.(bool)
			if isBool && !truthy {
				continue
			}
			if kv.Key == "_all" {
				terms = append(terms, sql.Concat(agg.CountStar(), sql.Raw(` AS "_all"`)))
				continue
			}
			field, ok := ctx.Model.Field(kv.Key)
			if !ok {
				continue
			}
			terms = append(terms, sql.Concat(agg.Count(ctx.Column(field)), sql.Raw(" AS "+ctx.Adapter.Identifiers().Escape(kv.Key))))
		}
		list = sql.Join(", ", terms...)
	}

	q := sql.Concat(sql.Raw("SELECT "), list, sql.Raw(" FROM "), ctx.Table())
	if !where.IsEmpty() {
		q = sql.Concat(q, sql.Raw(" WHERE "), where)
	}
	return q, nil
}

// AggregateArgs bundles an aggregate operation's arguments: a Where
// filter plus the `_count`/`_avg`/`_sum`/`_min`/`_max` buckets, compiled
// by build.BuildAggregateSelect into one nested-JSON-object column each.
type AggregateArgs struct {
	Where   build.Fields
	Buckets build.Fields
}

// Aggregate assembles the single-row aggregate statement (§4.10).
func Aggregate(ctx *build.Context, args AggregateArgs) (sql.Fragment, error) {
	where, err := build.BuildWhere(ctx, args.Where)
	if err != nil {
		return sql.Empty(), err
	}
	pairs, err := build.BuildAggregateSelect(ctx, args.Buckets)
	if err != nil {
		return sql.Empty(), err
	}
	list := build.RenderSelectList(ctx, pairs)

	q := sql.Concat(sql.Raw("SELECT "), list, sql.Raw(" FROM "), ctx.Table())
	if !where.IsEmpty() {
		q = sql.Concat(q, sql.Raw(" WHERE "), where)
	}
	return q, nil
}

// GroupByArgs bundles a groupBy operation's arguments (§4.10): By names
// the grouping columns, Buckets the aggregate selections, Having an
// optional post-aggregation filter restricted to By fields and aggregate
// keys, and OrderBy/Take/Skip the usual paging controls over the
// resulting groups.
type GroupByArgs struct {
	Where   build.Fields
	By      []string
	Buckets build.Fields
	Having  build.Fields
	OrderBy any
	Take    *int
	Skip    *int
}

// GroupBy assembles `SELECT by..., aggregates... FROM table WHERE ...
// GROUP BY by... HAVING ... ORDER BY ... LIMIT ... OFFSET ...` (§4.10,
// E6). The `allowed` set gating HAVING is derived here from By plus
// every bucket's listed field keys, enforcing "only by/aggregate keys
// may appear in HAVING" per §4.10.
func GroupBy(ctx *build.Context, args GroupByArgs) (sql.Fragment, error) {
	where, err := build.BuildWhere(ctx, args.Where)
	if err != nil {
		return sql.Empty(), err
	}

	byPairs := make([]build.ColumnPair, 0, len(args.By))
	var groupTerms []sql.Fragment
	for _, name := range args.By {
		field, ok := ctx.Model.Field(name)
		if !ok {
			return sql.Empty(), relquery.NewCompileError(ctx.Model.Name, name, "groupBy references unknown field")
		}
		col := ctx.Column(field)
		byPairs = append(byPairs, build.ColumnPair{Name: name, Expr: col})
		groupTerms = append(groupTerms, col)
	}

	aggPairs, err := build.BuildAggregateSelect(ctx, args.Buckets)
	if err != nil {
		return sql.Empty(), err
	}

	allowed := map[string]bool{}
	for _, name := range args.By {
		allowed[name] = true
	}
	for _, kv := range args.Buckets {
		bucket, _ := kv.Value.(build.Fields)
		for _, f := range bucket {
			allowed[f.Key] = true
		}
	}

	list := build.RenderSelectList(ctx, append(byPairs, aggPairs...))

	q := sql.Concat(sql.Raw("SELECT "), list, sql.Raw(" FROM "), ctx.Table())
	if !where.IsEmpty() {
		q = sql.Concat(q, sql.Raw(" WHERE "), where)
	}
	if len(groupTerms) > 0 {
		q = sql.Concat(q, sql.Raw(" GROUP BY "), sql.Join(", ", groupTerms...))
	}
	having, err := build.BuildHaving(ctx, args.Having, allowed)
	if err != nil {
		return sql.Empty(), err
	}
	if !having.IsEmpty() {
		q = sql.Concat(q, sql.Raw(" HAVING "), having)
	}
	orderBy, err := build.BuildOrderBy(ctx, args.OrderBy)
	if err != nil {
		return sql.Empty(), err
	}
	if !orderBy.IsEmpty() {
		q = sql.Concat(q, sql.Raw(" ORDER BY "), orderBy)
	}
	if args.Take != nil {
		q = sql.Concat(q, sql.Raw(" LIMIT "), sql.Param(*args.Take))
	}
	if args.Skip != nil {
		q = sql.Concat(q, sql.Raw(" OFFSET "), sql.Param(*args.Skip))
	}
	return q, nil
}
