package build

import (
	"github.com/beynar/relquery/dialect/sql"
	"github.com/beynar/relquery/schema"
)

// buildCorrelation ties a child row to its parent row for a direct
// (non many-to-many) relation: an L-way AND of column equalities paired
// field-by-field, in field order (§3.5, §8 property 3). parent is the
// context of the row already in scope; child is the context descending
// into the related table.
func buildCorrelation(parent, child *Context, dir *schema.FKDirection) sql.Fragment {
	eq := parent.Adapter.Operators().EQ
	var parts []sql.Fragment
	if dir.HoldsFK {
		// parent.fkFields[i] = child.pkFields[i]: parent holds the FK.
		for i, fk := range dir.FKFields {
			pk := dir.PKFields[i]
			parts = append(parts, eq(
				parent.Adapter.Identifiers().Column(parent.Alias, fk),
				rawColumn(child, pk),
			))
		}
	} else {
		// parent.pkFields[i] = child.fkFields[i]: the target model holds
		// the FK. Parent's PK leads, matching the worked-example ordering
		// ("t0"."id" = "t1"."authorId").
		for i, fk := range dir.FKFields {
			pk := dir.PKFields[i]
			parts = append(parts, eq(
				rawColumn(parent, pk),
				parent.Adapter.Identifiers().Column(child.Alias, fk),
			))
		}
	}
	return parent.Adapter.Operators().And(parts...)
}

// rawColumn returns a column reference fragment as a bare sql.Fragment
// value, suitable for splicing as the right-hand side of an EQ.
func rawColumn(ctx *Context, column string) sql.Fragment {
	return ctx.Adapter.Identifiers().Column(ctx.Alias, column)
}

// eqColumns pairs fields[i] under leftAlias with refs[i] under rightAlias
// as AND-ed column equalities, without needing a Context for either side.
// Nothing in the module calls it.
func eqColumns(adapter sql.Adapter, fields, refs []string, leftAlias, rightAlias string) sql.Fragment {
	var parts []sql.Fragment
	for i, f := range fields {
		parts = append(parts, adapter.Operators().EQ(
			adapter.Identifiers().Column(leftAlias, f),
			adapter.Identifiers().Column(rightAlias, refs[i]),
		))
	}
	return adapter.Operators().And(parts...)
}
