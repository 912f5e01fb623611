package build

import (
	"github.com/beynar/relquery/dialect/sql"
	"github.com/beynar/relquery/schema"
)

// manyToManyParts holds the three fragments every many-to-many consumer
// (include, relation filter, _count) needs: the junction+target FROM
// list, the junction-to-parent correlation, and the junction-to-target
// join condition (§4.7).
type manyToManyParts struct {
	From        sql.Fragment // "jt jtAlias, target targetAlias"
	Correlation sql.Fragment // jtAlias.sourceField = parent.sourcePK
	Join        sql.Fragment // targetAlias.targetPK = jtAlias.targetField
}

// buildManyToMany resolves the junction table for info and mints both the
// junction alias and the target model's child context, in that order —
// matching §4.7's "SELECT 1 FROM jt t1, target t2" aliasing, junction
// first. Callers must not create child themselves for a many-to-many
// relation; this is the sole place that does.
func buildManyToMany(parent *Context, info *schema.RelationInfo) (*Context, manyToManyParts) {
	j := schema.ResolveJunction(parent.Model, info)
	jtAlias := parent.aliases.Next()
	child := parent.Child(info.TargetModel)
	ident := parent.Adapter.Identifiers()
	ops := parent.Adapter.Operators()

	from := sql.Join(", ",
		ident.Table(j.Table, jtAlias),
		child.Table(),
	)

	// Junction tables hold exactly two FK columns (source, target)
	// regardless of how many fields make up either side's primary key;
	// composite-PK many-to-many relations are out of scope (§3.2).
	correlation := ops.EQ(
		ident.Column(jtAlias, j.SourceField),
		ident.Column(parent.Alias, j.SourcePKFields[0]),
	)
	join := ops.EQ(
		ident.Column(child.Alias, j.TargetPKFields[0]),
		ident.Column(jtAlias, j.TargetField),
	)

	return child, manyToManyParts{From: from, Correlation: correlation, Join: join}
}
