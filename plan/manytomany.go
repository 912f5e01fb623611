package plan

import (
	"fmt"

	"github.com/beynar/relquery/build"
	"github.com/beynar/relquery/dialect/sql"
	"github.com/beynar/relquery/schema"
)

// planManyToMany builds the junction-row steps for one manyToMany
// relation (§4.11 step 4's manyToMany bullet): connect/create insert a
// row into the junction table referencing the parent's captured PK and
// the target's PK (looked up for connect, captured for create);
// disconnect/delete remove the matching junction row; set disconnects
// every current junction row for the parent, then connects each item.
// Junction tables always have exactly two FK columns regardless of
// composite PKs on either side, so this only ever binds
// SourcePKFields[0]/TargetPKFields[0] — the same simplification the
// read-side relation builder uses.
func planManyToMany(ctx *build.Context, b boundRelation, parentCapture string) ([]Step, error) {
	j := schema.ResolveJunction(ctx.Model, b.Info)
	var steps []Step

	for _, m := range b.Muts {
		switch m.Verb {
		case "connect":
			whereUnique, _ := m.Value.(build.Fields)
			steps = append(steps, junctionInsertStep(ctx, j, b.Info.TargetModel, parentCapture, whereUnique))
		case "create":
			childData, _ := m.Value.(build.Fields)
			childScalars, childRels, err := splitData(b.Info.TargetModel, childData)
			if err != nil {
				return nil, err
			}
			if len(childRels) > 0 {
				return nil, fmt.Errorf("relquery: plan: %s.%s: nested create does not support a second level of relation writes", b.Info.TargetModel.Name, b.Key)
			}
			childCtx := build.NewContext(ctx.Adapter, ctx.Registry, b.Info.TargetModel)
			childCapture := b.Key + "#create"
			idField := j.TargetPKFields[0]
			captureColumn := ""
			var literal any
			if v, has := childScalars.Get(idField); has {
				literal = v
			} else {
				captureColumn = idField
			}
			steps = append(steps, Step{
				Model: b.Info.TargetModel, CaptureAs: childCapture, CaptureColumn: captureColumn, Literal: literal,
				Build: func(Bindings) (sql.Fragment, error) {
					return insertRow(childCtx, childScalars)
				},
			})
			steps = append(steps, junctionInsertStepFromCapture(ctx, j, parentCapture, childCapture))
		case "disconnect":
			whereUnique, _ := m.Value.(build.Fields)
			steps = append(steps, junctionDeleteStep(ctx, j, b.Info.TargetModel, parentCapture, whereUnique))
		case "delete":
			whereUnique, _ := m.Value.(build.Fields)
			steps = append(steps, junctionDeleteStep(ctx, j, b.Info.TargetModel, parentCapture, whereUnique))
		case "set":
			steps = append(steps, junctionDeleteAllStep(ctx, j, parentCapture))
			for _, item := range asItems(m.Value) {
				whereUnique, _ := item.(build.Fields)
				steps = append(steps, junctionInsertStep(ctx, j, b.Info.TargetModel, parentCapture, whereUnique))
			}
		}
	}

	return steps, nil
}

// junctionInsertStep inserts one junction row whose target column is a
// connect-subquery resolving whereUnique against target.
func junctionInsertStep(ctx *build.Context, j *schema.JunctionInfo, target *schema.Model, parentCapture string, whereUnique build.Fields) Step {
	return Step{
		Model: ctx.Model,
		Build: func(bindings Bindings) (sql.Fragment, error) {
			parentPK, ok := bindings[parentCapture]
			if !ok {
				return sql.Empty(), fmt.Errorf("relquery: plan: missing captured parent PK %q", parentCapture)
			}
			targetFrag, err := connectSubquery(ctx.Adapter, ctx.Registry, target, j.TargetPKFields[0], whereUnique)
			if err != nil {
				return sql.Empty(), err
			}
			mutations := ctx.Adapter.Mutations()
			row := []sql.Fragment{sql.Param(parentPK), targetFrag}
			return mutations.Insert(j.Table, []string{j.SourceField, j.TargetField}, [][]sql.Fragment{row}), nil
		},
	}
}

// junctionInsertStepFromCapture inserts one junction row referencing two
// already-captured PKs (used after a nested many-to-many create).
// Kept distinct from junctionInsertStep since its target value is a
// bound literal (a captured PK) rather than a connect-subquery
// Fragment.
func junctionInsertStepFromCapture(ctx *build.Context, j *schema.JunctionInfo, parentCapture, childCapture string) Step {
	return Step{
		Model: ctx.Model,
		Build: func(bindings Bindings) (sql.Fragment, error) {
			parentPK, ok := bindings[parentCapture]
			if !ok {
				return sql.Empty(), fmt.Errorf("relquery: plan: missing captured parent PK %q", parentCapture)
			}
			childPK, ok := bindings[childCapture]
			if !ok {
				return sql.Empty(), fmt.Errorf("relquery: plan: missing captured value %q", childCapture)
			}
			mutations := ctx.Adapter.Mutations()
			row := []sql.Fragment{sql.Param(parentPK), sql.Param(childPK)}
			return mutations.Insert(j.Table, []string{j.SourceField, j.TargetField}, [][]sql.Fragment{row}), nil
		},
	}
}

// junctionDeleteStep removes the junction row matching the parent's PK
// and a target resolved from whereUnique.
func junctionDeleteStep(ctx *build.Context, j *schema.JunctionInfo, target *schema.Model, parentCapture string, whereUnique build.Fields) Step {
	return Step{
		Model: ctx.Model,
		Build: func(bindings Bindings) (sql.Fragment, error) {
			parentPK, ok := bindings[parentCapture]
			if !ok {
				return sql.Empty(), fmt.Errorf("relquery: plan: missing captured parent PK %q", parentCapture)
			}
			targetFrag, err := connectSubquery(ctx.Adapter, ctx.Registry, target, j.TargetPKFields[0], whereUnique)
			if err != nil {
				return sql.Empty(), err
			}
			ident := ctx.Adapter.Identifiers()
			where := sql.Concat(
				ident.Column("", j.SourceField), sql.Raw(" = "), sql.Param(parentPK), sql.Raw(" AND "),
				ident.Column("", j.TargetField), sql.Raw(" = "), targetFrag,
			)
			return ctx.Adapter.Mutations().Delete(j.Table, where), nil
		},
	}
}

// junctionDeleteAllStep removes every junction row for the parent,
// preparing for a "set" relation write's disconnect-then-connect.
func junctionDeleteAllStep(ctx *build.Context, j *schema.JunctionInfo, parentCapture string) Step {
	return Step{
		Model: ctx.Model,
		Build: func(bindings Bindings) (sql.Fragment, error) {
			parentPK, ok := bindings[parentCapture]
			if !ok {
				return sql.Empty(), fmt.Errorf("relquery: plan: missing captured parent PK %q", parentCapture)
			}
			ident := ctx.Adapter.Identifiers()
			where := sql.Concat(ident.Column("", j.SourceField), sql.Raw(" = "), sql.Param(parentPK))
			return ctx.Adapter.Mutations().Delete(j.Table, where), nil
		},
	}
}

// insertRow assembles a single-row INSERT for a bare model context,
// used for a many-to-many "create" target row where no whereUnique
// applies yet — the row itself is the thing being created.
func insertRow(ctx *build.Context, data build.Fields) (sql.Fragment, error) {
	columns, rows, err := build.BuildValues(ctx, []build.Fields{data})
	if err != nil {
		return sql.Empty(), err
	}
	mutations := ctx.Adapter.Mutations()
	q := mutations.Insert(ctx.Model.TableName(), columns, rows)
	if ctx.Adapter.Capabilities().SupportsReturning {
		q = sql.Concat(q, sql.Raw(" "), mutations.Returning(scalarColumnsOf(ctx.Model)))
	}
	return q, nil
}

func scalarColumnsOf(model *schema.Model) []string {
	fields := model.Fields()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.ColumnName()
	}
	return cols
}
