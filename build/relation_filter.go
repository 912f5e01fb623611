package build

import (
	"github.com/beynar/relquery/dialect/sql"
	"github.com/beynar/relquery/schema"
)

// buildRelationFilter compiles one `where` key that names a relation
// into the EXISTS/NOT EXISTS shape described in §4.4. payload is the
// validator-normalized filter: Fields{{"some"|"every"|"none", v}} for a
// to-many relation, Fields{{"is"|"isNot", v}} or nil for a to-one.
func buildRelationFilter(ctx *Context, name string, payload any) (sql.Fragment, error) {
	info, err := schema.ResolveRelation(ctx.Model, name)
	if err != nil {
		return sql.Empty(), err
	}
	filters := ctx.Adapter.Filters()

	fields, _ := payload.(Fields)

	if info.IsToMany {
		if some, ok := fields.Get("some"); ok {
			body, err := relationFilterBody(ctx, info, some)
			if err != nil {
				return sql.Empty(), err
			}
			return filters.Some(body), nil
		}
		if every, ok := fields.Get("every"); ok {
			correlation, inner, err := relationFilterParts(ctx, info, every)
			if err != nil {
				return sql.Empty(), err
			}
			return filters.Every(correlation, inner), nil
		}
		if none, ok := fields.Get("none"); ok {
			body, err := relationFilterBody(ctx, info, none)
			if err != nil {
				return sql.Empty(), err
			}
			return filters.None(body), nil
		}
		return sql.Empty(), nil
	}

	// To-one.
	if fields == nil && payload == nil {
		return shortcutFKNull(ctx, info, true), nil
	}
	if isVal, ok := fields.Get("is"); ok {
		if isVal == nil {
			if f, ok := shortcutFKNullOK(ctx, info, true); ok {
				return f, nil
			}
		}
		body, err := relationFilterBody(ctx, info, isVal)
		if err != nil {
			return sql.Empty(), err
		}
		return filters.Is(body), nil
	}
	if isNot, ok := fields.Get("isNot"); ok {
		if isNot == nil {
			if f, ok := shortcutFKNullOK(ctx, info, false); ok {
				return f, nil
			}
		}
		body, err := relationFilterBody(ctx, info, isNot)
		if err != nil {
			return sql.Empty(), err
		}
		return filters.IsNot(body), nil
	}
	return sql.Empty(), nil
}

// shortcutFKNullOK implements the §4.4 shortcut: a null check on a
// to-one relation whose current model holds the FK compiles directly to
// "fk IS NULL"/"fk IS NOT NULL" instead of an EXISTS subquery.
func shortcutFKNullOK(ctx *Context, info *schema.RelationInfo, isNull bool) (sql.Fragment, bool) {
	dir, err := schema.ResolveFKDirection(ctx.Model, info)
	if err != nil || !dir.HoldsFK {
		return sql.Empty(), false
	}
	return shortcutFKNull(ctx, info, isNull), true
}

func shortcutFKNull(ctx *Context, info *schema.RelationInfo, isNull bool) sql.Fragment {
	dir, err := schema.ResolveFKDirection(ctx.Model, info)
	if err != nil || !dir.HoldsFK || len(dir.FKFields) == 0 {
		return sql.Empty()
	}
	col := ctx.Adapter.Identifiers().Column(ctx.Alias, dir.FKFields[0])
	if isNull {
		return ctx.Adapter.Operators().IsNull(col)
	}
	return ctx.Adapter.Operators().IsNotNull(col)
}

// relationFilterBody renders the full subquery used by Some/None/Is/IsNot:
// "SELECT 1 FROM target alias WHERE correlation [AND innerWhere]".
func relationFilterBody(parent *Context, info *schema.RelationInfo, innerPayload any) (sql.Fragment, error) {
	correlation, inner, err := relationFilterParts(parent, info, innerPayload)
	if err != nil {
		return sql.Empty(), err
	}
	if inner.IsEmpty() {
		return correlation, nil
	}
	return sql.Concat(correlation, sql.Raw(" AND "), inner), nil
}

// relationFilterParts renders "SELECT 1 FROM ... WHERE correlation" as
// correlation, and the (separately renderable) inner where filter as
// inner, so Filters.Every can wrap them into NOT EXISTS(correlation AND
// NOT(inner)) without double-ANDing. It owns child-context creation so
// the many-to-many junction alias is minted before the target alias.
func relationFilterParts(parent *Context, info *schema.RelationInfo, innerPayload any) (correlation, inner sql.Fragment, err error) {
	if info.Type == schema.ManyToMany {
		child, parts := buildManyToMany(parent, info)
		innerWhere, err := BuildWhere(child, asFields(innerPayload))
		if err != nil {
			return sql.Empty(), sql.Empty(), err
		}
		cond := sql.Join(" AND ", parts.Correlation, parts.Join)
		correlation = sql.Concat(sql.Raw("SELECT 1 FROM "), parts.From, sql.Raw(" WHERE "), cond)
		return correlation, innerWhere, nil
	}

	child := parent.Child(info.TargetModel)
	innerWhere, err := BuildWhere(child, asFields(innerPayload))
	if err != nil {
		return sql.Empty(), sql.Empty(), err
	}
	dir, err := schema.ResolveFKDirection(parent.Model, info)
	if err != nil {
		return sql.Empty(), sql.Empty(), err
	}
	cond := buildCorrelation(parent, child, dir)
	correlation = sql.Concat(sql.Raw("SELECT 1 FROM "), child.Table(), sql.Raw(" WHERE "), cond)
	return correlation, innerWhere, nil
}
