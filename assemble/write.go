package assemble

import (
	"fmt"

	"github.com/beynar/relquery"
	"github.com/beynar/relquery/build"
	"github.com/beynar/relquery/dialect/sql"
)

// scalarColumns collects every scalar column name of model, used to
// build a RETURNING list that mirrors a plain find (§4.10 "RETURNING
// when supported").
func scalarColumns(ctx *build.Context) []string {
	fields := ctx.Model.Fields()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.ColumnName()
	}
	return cols
}

// idColumns maps model's ID field names to their column names, used as
// the ON CONFLICT target for createMany's skipDuplicates (§4.10): a
// caller requesting skipDuplicates is relying on the primary key to
// detect the duplicate, since createMany carries no explicit where-
// unique shape the way upsert does.
func idColumns(ctx *build.Context) []string {
	idFields := ctx.Model.IDFields()
	cols := make([]string, len(idFields))
	for i, name := range idFields {
		field, _ := ctx.Model.Field(name)
		cols[i] = field.ColumnName()
	}
	return cols
}

// Create assembles a single-row INSERT, grounded on §4.8/§4.10. data is
// the scalar portion of the payload — the nested-write planner (package
// plan) is responsible for splitting relation mutations out before this
// is reached and, when a nested create requires more than simple
// connect-subquery splicing, choosing the transactional plan instead of
// calling this directly.
func Create(ctx *build.Context, data build.Fields) (sql.Fragment, error) {
	columns, rows, err := build.BuildValues(ctx, []build.Fields{data})
	if err != nil {
		return sql.Empty(), err
	}
	return insertStatement(ctx, columns, rows, false), nil
}

// CreateMany assembles a multi-row INSERT. skipDuplicates appends the
// dialect's ON CONFLICT DO NOTHING clause (§4.10).
func CreateMany(ctx *build.Context, records []build.Fields, skipDuplicates bool) (sql.Fragment, error) {
	columns, rows, err := build.BuildValues(ctx, records)
	if err != nil {
		return sql.Empty(), err
	}
	return insertStatement(ctx, columns, rows, skipDuplicates), nil
}

func insertStatement(ctx *build.Context, columns []string, rows [][]sql.Fragment, skipDuplicates bool) sql.Fragment {
	mutations := ctx.Adapter.Mutations()
	q := mutations.Insert(ctx.Model.TableName(), columns, rows)
	if skipDuplicates {
		q = sql.Concat(q, sql.Raw(" "), mutations.OnConflict(idColumns(ctx), nil, true))
	}
	if ctx.Adapter.Capabilities().SupportsReturning {
		q = sql.Concat(q, sql.Raw(" "), mutations.Returning(scalarColumns(ctx)))
	}
	return q
}

// Update assembles a single-row UPDATE bounded by a where-unique shape,
// matching findUnique's addressing (§4.10 "update: SET + WHERE").
func Update(ctx *build.Context, whereUnique, data build.Fields) (sql.Fragment, error) {
	where, err := build.BuildWhereUnique(ctx.Bare(), whereUnique)
	if err != nil {
		return sql.Empty(), err
	}
	return updateStatement(ctx, where, data)
}

// UpdateMany assembles a bulk UPDATE bounded by an ordinary where filter
// (possibly empty, matching every row).
func UpdateMany(ctx *build.Context, where, data build.Fields) (sql.Fragment, error) {
	whereFrag, err := build.BuildWhere(ctx.Bare(), where)
	if err != nil {
		return sql.Empty(), err
	}
	return updateStatement(ctx, whereFrag, data)
}

func updateStatement(ctx *build.Context, where sql.Fragment, data build.Fields) (sql.Fragment, error) {
	set, err := build.BuildSet(ctx.Bare(), data)
	if err != nil {
		return sql.Empty(), err
	}
	if len(set) == 0 {
		return sql.Empty(), relquery.NewInvalidInputError(ctx.Model.Name, "update", "data", fmt.Errorf("update data must set at least one scalar field"))
	}
	kv := make([]sql.KV, len(set))
	copy(kv, set)
	q := ctx.Adapter.Mutations().Update(ctx.Model.TableName(), kv, where)
	if ctx.Adapter.Capabilities().SupportsReturning {
		q = sql.Concat(q, sql.Raw(" "), ctx.Adapter.Mutations().Returning(scalarColumns(ctx)))
	}
	return q, nil
}

// Delete assembles a single-row DELETE bounded by a where-unique shape;
// a where is always required for `delete` (§4.10).
func Delete(ctx *build.Context, whereUnique build.Fields) (sql.Fragment, error) {
	where, err := build.BuildWhereUnique(ctx.Bare(), whereUnique)
	if err != nil {
		return sql.Empty(), err
	}
	return deleteStatement(ctx, where), nil
}

// DeleteMany assembles a bulk DELETE; where is optional here, matching
// every row when empty (§4.10).
func DeleteMany(ctx *build.Context, where build.Fields) (sql.Fragment, error) {
	whereFrag, err := build.BuildWhere(ctx.Bare(), where)
	if err != nil {
		return sql.Empty(), err
	}
	return deleteStatement(ctx, whereFrag), nil
}

func deleteStatement(ctx *build.Context, where sql.Fragment) sql.Fragment {
	mutations := ctx.Adapter.Mutations()
	q := mutations.Delete(ctx.Model.TableName(), where)
	if ctx.Adapter.Capabilities().SupportsReturning {
		q = sql.Concat(q, sql.Raw(" "), mutations.Returning(scalarColumns(ctx)))
	}
	return q
}

// Upsert assembles `INSERT ... ON CONFLICT (keys) DO UPDATE SET ...`
// (§4.10, E5). Conflict target columns are derived from the unique
// fields named in whereUnique, matching the where-unique shape's own
// field resolution so the two stay in lockstep.
func Upsert(ctx *build.Context, whereUnique, create, update build.Fields) (sql.Fragment, error) {
	conflictColumns, err := uniqueFieldNames(ctx, whereUnique)
	if err != nil {
		return sql.Empty(), err
	}

	columns, rows, err := build.BuildValues(ctx, []build.Fields{create})
	if err != nil {
		return sql.Empty(), err
	}
	set, err := build.BuildSet(ctx, update)
	if err != nil {
		return sql.Empty(), err
	}

	mutations := ctx.Adapter.Mutations()
	q := mutations.Insert(ctx.Model.TableName(), columns, rows)
	q = sql.Concat(q, sql.Raw(" "), mutations.OnConflict(conflictColumns, set, false))
	if ctx.Adapter.Capabilities().SupportsReturning {
		q = sql.Concat(q, sql.Raw(" "), mutations.Returning(scalarColumns(ctx)))
	}
	return q, nil
}

// uniqueFieldNames extracts the column names a where-unique payload
// names, in declared order, for use as an ON CONFLICT target list. It
// mirrors BuildWhereUnique's own matching against the model's declared
// unique field sets rather than re-deriving the rule independently.
func uniqueFieldNames(ctx *build.Context, whereUnique build.Fields) ([]string, error) {
	for _, set := range ctx.Model.UniqueFieldSets() {
		if len(set) == 1 {
			if _, ok := whereUnique.Get(set[0]); ok {
				field, _ := ctx.Model.Field(set[0])
				return []string{field.ColumnName()}, nil
			}
			continue
		}
		for _, cu := range ctx.Model.CompoundUniques {
			if _, ok := whereUnique.Get(cu.Name); ok {
				cols := make([]string, len(cu.Fields))
				for i, fname := range cu.Fields {
					field, _ := ctx.Model.Field(fname)
					cols[i] = field.ColumnName()
				}
				return cols, nil
			}
		}
	}
	return nil, relquery.NewCompileError(ctx.Model.Name, "", "upsert where does not match any declared unique key")
}
