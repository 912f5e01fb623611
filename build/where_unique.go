package build

import (
	"github.com/beynar/relquery"
	"github.com/beynar/relquery/dialect/sql"
)

// BuildWhereUnique compiles a where-unique shape: either {field: v} for
// a single unique scalar (id or isUnique field), or
// {compoundName: {f1: v1, f2: v2}} for a declared compound key. Produces
// the conjunction of equalities, or a CompileError-shaped error if the
// shape does not match any declared unique index (§4.3).
func BuildWhereUnique(ctx *Context, where Fields) (sql.Fragment, error) {
	if len(where) == 0 {
		return sql.Empty(), relquery.NewCompileError(ctx.Model.Name, "", "empty where-unique")
	}

	ops := ctx.Adapter.Operators()

	for _, set := range ctx.Model.UniqueFieldSets() {
		if len(set) == 1 {
			if v, ok := where.Get(set[0]); ok {
				field, _ := ctx.Model.Field(set[0])
				return ops.EQ(ctx.Column(field), v), nil
			}
			continue
		}
		// Compound unique: looked up under its declared name, holding a
		// nested Fields with one entry per member field.
		for _, cu := range ctx.Model.CompoundUniques {
			if !sameFieldSet(cu.Fields, set) {
				continue
			}
			nested, ok := where.Get(cu.Name)
			if !ok {
				continue
			}
			nf := asFields(nested)
			var parts []sql.Fragment
			complete := true
			for _, fname := range cu.Fields {
				v, ok := nf.Get(fname)
				if !ok {
					complete = false
					break
				}
				field, _ := ctx.Model.Field(fname)
				parts = append(parts, ops.EQ(ctx.Column(field), v))
			}
			if complete {
				return ops.And(parts...), nil
			}
		}
	}

	return sql.Empty(), relquery.NewCompileError(ctx.Model.Name, "", "where-unique does not match any declared unique key")
}

func sameFieldSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]bool, len(a))
	for _, f := range a {
		seen[f] = true
	}
	for _, f := range b {
		if !seen[f] {
			return false
		}
	}
	return true
}
