// Package assemble implements the operation assemblers (C7, §4.10): the
// layer that takes a validated operation's full argument set and drives
// the C6 fragment builders to produce one complete, executable
// statement. Builders in package build only know how to render one
// clause at a time; assemble is where clauses become whole queries.
package assemble

import (
	"github.com/beynar/relquery"
	"github.com/beynar/relquery/build"
	"github.com/beynar/relquery/dialect/sql"
)

// FindArgs bundles a find{First,Many,Unique}'s argument set. WhereUnique
// is only consulted by findUnique; Where is consulted by findFirst and
// findMany. Cursor pairs a field name with the value of the record to
// start from (the cursor record itself is included), interpreted per
// §4.10's cursor semantics.
type FindArgs struct {
	Select     build.Fields
	Include    build.Fields
	Where      build.Fields
	WhereUnique build.Fields
	OrderBy    any
	Cursor     build.Fields
	Take       *int
	Skip       *int
	Distinct   []string
}

// FindMany assembles a findMany statement: column list, FROM, WHERE
// (with cursor condition if present), ORDER BY, LIMIT, OFFSET, DISTINCT.
func FindMany(ctx *build.Context, args FindArgs) (sql.Fragment, error) {
	return buildFind(ctx, args, false, false)
}

// FindFirst is findMany with LIMIT forced to 1 (§4.10).
func FindFirst(ctx *build.Context, args FindArgs) (sql.Fragment, error) {
	return buildFind(ctx, args, false, true)
}

// FindUnique forces LIMIT 1 and resolves WHERE through the where-unique
// shape rather than the general where builder (§4.10).
func FindUnique(ctx *build.Context, args FindArgs) (sql.Fragment, error) {
	return buildFind(ctx, args, true, true)
}

func buildFind(ctx *build.Context, args FindArgs, unique, forceSingle bool) (sql.Fragment, error) {
	pairs, err := build.BuildSelectInclude(ctx, args.Select, args.Include)
	if err != nil {
		return sql.Empty(), err
	}
	selectList := build.RenderSelectList(ctx, pairs)

	var where sql.Fragment
	if unique {
		where, err = build.BuildWhereUnique(ctx, args.WhereUnique)
	} else {
		where, err = build.BuildWhere(ctx, args.Where)
	}
	if err != nil {
		return sql.Empty(), err
	}

	if len(args.Cursor) > 0 {
		cursorFrag, err := buildCursor(ctx, args.Cursor, args.OrderBy)
		if err != nil {
			return sql.Empty(), err
		}
		if where.IsEmpty() {
			where = cursorFrag
		} else {
			where = sql.Concat(sql.Wrap(where), sql.Raw(" AND "), sql.Wrap(cursorFrag))
		}
	}

	orderBy, err := build.BuildOrderBy(ctx, args.OrderBy)
	if err != nil {
		return sql.Empty(), err
	}

	distinctKw := ""
	if len(args.Distinct) > 0 {
		distinctKw = "DISTINCT "
	}

	q := sql.Concat(sql.Raw("SELECT "+distinctKw), selectList, sql.Raw(" FROM "), ctx.Table())
	if !where.IsEmpty() {
		q = sql.Concat(q, sql.Raw(" WHERE "), where)
	}
	if !orderBy.IsEmpty() {
		q = sql.Concat(q, sql.Raw(" ORDER BY "), orderBy)
	}

	if forceSingle {
		q = sql.Concat(q, sql.Raw(" LIMIT 1"))
	} else if args.Take != nil {
		q = sql.Concat(q, sql.Raw(" LIMIT "), sql.Param(*args.Take))
	}
	if args.Skip != nil {
		q = sql.Concat(q, sql.Raw(" OFFSET "), sql.Param(*args.Skip))
	}
	return q, nil
}

// buildCursor renders the cursor condition described in §4.10: ascending
// order on a field ⇒ `col >= value`; descending ⇒ `col <= value`. A
// compound cursor (more than one field) must resolve to a single
// consistent direction across every field — ascending and descending
// fields cannot be mixed in one cursor, since there is no single
// comparison operator that orders a tuple consistently across mixed
// directions using plain column comparisons.
func buildCursor(ctx *build.Context, cursor build.Fields, orderBy any) (sql.Fragment, error) {
	dirs := cursorDirections(orderBy)

	var desc bool
	set := false
	for _, kv := range cursor {
		d := dirs[kv.Key]
		if !set {
			desc = d
			set = true
			continue
		}
		if d != desc {
			return sql.Empty(), relquery.NewCompileError(ctx.Model.Name, "cursor",
				"compound cursor fields must share a single sort direction")
		}
	}

	ops := ctx.Adapter.Operators()
	var parts []sql.Fragment
	for _, kv := range cursor {
		field, ok := ctx.Model.Field(kv.Key)
		if !ok {
			return sql.Empty(), relquery.NewCompileError(ctx.Model.Name, kv.Key, "cursor references unknown field")
		}
		col := ctx.Column(field)
		if desc {
			parts = append(parts, ops.LTE(col, kv.Value))
		} else {
			parts = append(parts, ops.GTE(col, kv.Value))
		}
	}
	return ops.And(parts...), nil
}

// cursorDirections maps each ordered field name to whether it sorts
// descending, defaulting any field the cursor names but orderBy doesn't
// mention to ascending.
func cursorDirections(orderBy any) map[string]bool {
	dirs := map[string]bool{}
	items := asSliceLocal(orderBy)
	for _, item := range items {
		fields, _ := item.(build.Fields)
		for _, kv := range fields {
			switch v := kv.Value.(type) {
			case string:
				dirs[kv.Key] = v == "desc"
			case build.Fields:
				sortVal, _ := v.Get("sort")
				s, _ := sortVal.(string)
				dirs[kv.Key] = s == "desc"
			}
		}
	}
	return dirs
}

func asSliceLocal(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case nil:
		return nil
	default:
		return []any{t}
	}
}
