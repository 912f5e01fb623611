package build

import (
	"fmt"

	"github.com/beynar/relquery"
	"github.com/beynar/relquery/dialect/sql"
	"github.com/beynar/relquery/schema"
)

// BuildOrderBy compiles an orderBy argument — a single Fields object or
// an array of them — into the comma-joined list of terms that follows
// ORDER BY, or the empty fragment when absent (§4.6). Relation-path
// ordering is out of scope; every key must name a scalar field.
func BuildOrderBy(ctx *Context, orderBy any) (sql.Fragment, error) {
	items := asSlice(orderBy)
	var terms []sql.Fragment
	for _, item := range items {
		fields := asFields(item)
		for _, kv := range fields {
			field, ok := ctx.Model.Field(kv.Key)
			if !ok {
				return sql.Empty(), relquery.NewCompileError(ctx.Model.Name, kv.Key, "orderBy references unknown field")
			}
			term, err := buildOrderTerm(ctx, field, kv.Value)
			if err != nil {
				return sql.Empty(), err
			}
			terms = append(terms, term)
		}
	}
	return sql.Join(", ", terms...), nil
}

func buildOrderTerm(ctx *Context, field *schema.Field, value any) (sql.Fragment, error) {
	col := ctx.Column(field)
	switch v := value.(type) {
	case string:
		return ctx.Adapter.OrderBy().Order(col, v == "desc", ""), nil
	case Fields:
		sortVal, _ := v.Get("sort")
		nullsVal, _ := v.Get("nulls")
		desc, _ := sortVal.(string)
		nulls, _ := nullsVal.(string)
		return ctx.Adapter.OrderBy().Order(col, desc == "desc", nulls), nil
	default:
		return sql.Empty(), fmt.Errorf("relquery: invalid orderBy value for %q", field.Name)
	}
}
