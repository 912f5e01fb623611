package build

import (
	"github.com/beynar/relquery"
	"github.com/beynar/relquery/dialect/sql"
	"github.com/beynar/relquery/schema"
)

// ColumnPair is one (outputName, expression) pair produced by the
// select/include walk (§4.5). At top level these are rendered as
// "expr AS \"name\"" comma-joined into a SELECT list; inside a relation
// they are passed to adapter.JSON().ObjectFromColumns to build the
// nested JSON object a relation reconstructs from.
type ColumnPair struct {
	Name string
	Expr sql.Fragment
}

// RenderSelectList joins pairs into a top-level SELECT list.
func RenderSelectList(ctx *Context, pairs []ColumnPair) sql.Fragment {
	terms := make([]sql.Fragment, len(pairs))
	for i, p := range pairs {
		terms[i] = sql.Concat(p.Expr, sql.Raw(" AS "+ctx.Adapter.Identifiers().Escape(p.Name)))
	}
	return sql.Join(", ", terms...)
}

func kvFromPairs(pairs []ColumnPair) []sql.KV {
	kv := make([]sql.KV, len(pairs))
	for i, p := range pairs {
		kv[i] = sql.KV{Key: p.Name, Value: p.Expr}
	}
	return kv
}

// BuildSelectInclude walks select and include in one pass, yielding an
// ordered list of output pairs (§4.5). select present restricts scalars
// to those listed; select absent emits every scalar and include adds
// relation columns on top.
func BuildSelectInclude(ctx *Context, selectArg, includeArg Fields) ([]ColumnPair, error) {
	if len(selectArg) > 0 {
		return buildFromSelect(ctx, selectArg)
	}
	pairs := buildAllScalars(ctx)
	extra, err := buildFromInclude(ctx, includeArg)
	if err != nil {
		return nil, err
	}
	return append(pairs, extra...), nil
}

func buildAllScalars(ctx *Context) []ColumnPair {
	fields := ctx.Model.Fields()
	out := make([]ColumnPair, len(fields))
	for i, f := range fields {
		out[i] = ColumnPair{Name: f.Name, Expr: ctx.Column(f)}
	}
	return out
}

func buildFromSelect(ctx *Context, sel Fields) ([]ColumnPair, error) {
	var out []ColumnPair
	for _, kv := range sel {
		if kv.Key == "_count" {
			pairs, err := buildCountSelect(ctx, asFields(kv.Value))
			if err != nil {
				return nil, err
			}
			out = append(out, pairs...)
			continue
		}
		if field, ok := ctx.Model.Field(kv.Key); ok {
			if truthy, _ := kv.Value.(bool); truthy {
				out = append(out, ColumnPair{Name: kv.Key, Expr: ctx.Column(field)})
			}
			continue
		}
		if _, ok := ctx.Model.Relation(kv.Key); ok {
			if truthy, isBool := kv.Value.(bool); isBool && !truthy {
				continue
			}
			pair, err := buildRelationColumn(ctx, kv.Key, kv.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, pair)
			continue
		}
		return nil, relquery.NewCompileError(ctx.Model.Name, kv.Key, "unknown select key")
	}
	return out, nil
}

func buildFromInclude(ctx *Context, include Fields) ([]ColumnPair, error) {
	var out []ColumnPair
	for _, kv := range include {
		if kv.Key == "_count" {
			pairs, err := buildCountSelect(ctx, asFields(kv.Value))
			if err != nil {
				return nil, err
			}
			out = append(out, pairs...)
			continue
		}
		if _, ok := ctx.Model.Relation(kv.Key); ok {
			if truthy, isBool := kv.Value.(bool); isBool && !truthy {
				continue
			}
			pair, err := buildRelationColumn(ctx, kv.Key, kv.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, pair)
			continue
		}
		return nil, relquery.NewCompileError(ctx.Model.Name, kv.Key, "unknown include key")
	}
	return out, nil
}

// buildRelationColumn compiles one included/selected relation into its
// scalar-subquery expression (§4.5 plan 1, "always valid"). payload is
// true (meaning an empty nested selection), or Fields carrying any of
// select/include/where/orderBy/take/skip.
func buildRelationColumn(ctx *Context, name string, payload any) (ColumnPair, error) {
	info, err := schema.ResolveRelation(ctx.Model, name)
	if err != nil {
		return ColumnPair{}, err
	}
	nested := asFields(payload)

	var child *Context
	var fromClause, condClause sql.Fragment
	if info.Type == schema.ManyToMany {
		var parts manyToManyParts
		child, parts = buildManyToMany(ctx, info)
		fromClause = parts.From
		condClause = sql.Join(" AND ", parts.Correlation, parts.Join)
	} else {
		child = ctx.Child(info.TargetModel)
		dir, err := schema.ResolveFKDirection(ctx.Model, info)
		if err != nil {
			return ColumnPair{}, err
		}
		fromClause = child.Table()
		condClause = buildCorrelation(ctx, child, dir)
	}

	innerPairs, err := BuildSelectInclude(child, asFields(getField(nested, "select")), asFields(getField(nested, "include")))
	if err != nil {
		return ColumnPair{}, err
	}
	innerWhere, err := BuildWhere(child, asFields(getField(nested, "where")))
	if err != nil {
		return ColumnPair{}, err
	}
	if !innerWhere.IsEmpty() {
		condClause = sql.Concat(condClause, sql.Raw(" AND "), innerWhere)
	}

	if info.IsToMany {
		return buildToManyColumn(ctx, child, name, innerPairs, fromClause, condClause, nested)
	}
	return buildToOneColumn(child, name, innerPairs, fromClause, condClause)
}

func getField(f Fields, key string) any {
	v, _ := f.Get(key)
	return v
}

func buildToOneColumn(child *Context, name string, innerPairs []ColumnPair, from, cond sql.Fragment) (ColumnPair, error) {
	obj := child.Adapter.JSON().ObjectFromColumns(kvFromPairs(innerPairs))
	inner := sql.Concat(sql.Raw("SELECT "), obj, sql.Raw(" FROM "), from, sql.Raw(" WHERE "), cond, sql.Raw(" LIMIT 1"))
	return ColumnPair{Name: name, Expr: sql.Wrap(inner)}, nil
}

func buildToManyColumn(ctx, child *Context, name string, innerPairs []ColumnPair, from, cond sql.Fragment, nested Fields) (ColumnPair, error) {
	obj := child.Adapter.JSON().ObjectFromColumns(kvFromPairs(innerPairs))
	inner := sql.Concat(sql.Raw("SELECT "), obj, sql.Raw(" AS _json FROM "), from, sql.Raw(" WHERE "), cond)

	orderByArg, _ := nested.Get("orderBy")
	orderBy, err := BuildOrderBy(child, orderByArg)
	if err != nil {
		return ColumnPair{}, err
	}
	if !orderBy.IsEmpty() {
		inner = sql.Concat(inner, sql.Raw(" ORDER BY "), orderBy)
	}
	if take, ok := nested.Get("take"); ok {
		inner = sql.Concat(inner, sql.Raw(" LIMIT "), sql.Param(take))
	}
	if skip, ok := nested.Get("skip"); ok {
		inner = sql.Concat(inner, sql.Raw(" OFFSET "), sql.Param(skip))
	}

	agg := ctx.Adapter.JSON().Agg(sql.Raw("sub._json"))
	outer := sql.Concat(sql.Raw("(SELECT "), agg, sql.Raw(" FROM ("), inner, sql.Raw(") sub)"))
	return ColumnPair{Name: name, Expr: outer}, nil
}

// buildCountSelect compiles `_count: {select: {rel: true | {where}}}` into
// one (_count_rel, COUNT-subquery) pair per listed relation (§4.5, E3).
func buildCountSelect(ctx *Context, countArg Fields) ([]ColumnPair, error) {
	selectArg := asFields(getField(countArg, "select"))
	var out []ColumnPair
	for _, kv := range selectArg {
		truthy, isBool := kv.Value.(bool)
		if isBool && !truthy {
			continue
		}
		info, err := schema.ResolveRelation(ctx.Model, kv.Key)
		if err != nil {
			return nil, err
		}

		var child *Context
		var fromClause, condClause sql.Fragment
		if info.Type == schema.ManyToMany {
			var parts manyToManyParts
			child, parts = buildManyToMany(ctx, info)
			fromClause = parts.From
			condClause = sql.Join(" AND ", parts.Correlation, parts.Join)
		} else {
			child = ctx.Child(info.TargetModel)
			dir, err := schema.ResolveFKDirection(ctx.Model, info)
			if err != nil {
				return nil, err
			}
			fromClause = child.Table()
			condClause = buildCorrelation(ctx, child, dir)
		}

		whereArg := asFields(getField(asFields(kv.Value), "where"))
		innerWhere, err := BuildWhere(child, whereArg)
		if err != nil {
			return nil, err
		}
		if !innerWhere.IsEmpty() {
			condClause = sql.Concat(condClause, sql.Raw(" AND "), innerWhere)
		}

		countExpr := child.Adapter.Aggregates().CountStar()
		inner := sql.Concat(sql.Raw("SELECT "), countExpr, sql.Raw(" FROM "), fromClause, sql.Raw(" WHERE "), condClause)
		out = append(out, ColumnPair{Name: "_count_" + kv.Key, Expr: sql.Wrap(inner)})
	}
	return out, nil
}
