package plan

import (
	"github.com/beynar/relquery"
	"github.com/beynar/relquery/assemble"
	"github.com/beynar/relquery/build"
	"github.com/beynar/relquery/dialect/sql"
)

// Upsert plans a model's upsert operation (§4.11, E5). Only the
// single-statement strategy is supported here: both create and update
// payloads may carry simple to-one connect/disconnect relation writes
// (inlined as spliced subqueries/NULL, same as Create's single-
// statement case), but a nested create/connectOrCreate/delete/set or a
// manyToMany mutation in either payload is rejected with a CompileError
// — ON CONFLICT DO UPDATE has no natural multi-statement counterpart
// the way a plain create's transactional plan does, since the planner
// can't know ahead of the database round trip whether the insert or the
// update branch actually ran.
func Upsert(ctx *build.Context, whereUnique, create, update, selectFields, include build.Fields) (*Plan, error) {
	createScalars, createRels, err := splitData(ctx.Model, create)
	if err != nil {
		return nil, err
	}
	updateScalars, updateRels, err := splitData(ctx.Model, update)
	if err != nil {
		return nil, err
	}

	mergedCreate, err := inlineSimpleToOne(ctx, createScalars, createRels)
	if err != nil {
		return nil, err
	}
	mergedUpdate, err := inlineSimpleToOne(ctx, updateScalars, updateRels)
	if err != nil {
		return nil, err
	}

	const selfCapture = "__self__"
	idField := firstIDField(ctx.Model)
	captureColumn := ""
	var literal any
	if idField != "" {
		if v, ok := mergedCreate.Get(idField); ok {
			literal = v
		} else {
			captureColumn = idField
		}
	}

	return &Plan{
		Mode: SingleStatement,
		Steps: []Step{{
			Model: ctx.Model, CaptureAs: selfCapture, CaptureColumn: captureColumn, Literal: literal,
			Build: func(Bindings) (sql.Fragment, error) {
				return assemble.Upsert(ctx, whereUnique, mergedCreate, mergedUpdate)
			},
		}},
		Refetch: refetchSpecForWhere(ctx.Model, whereUnique, selfCapture, selectFields, include),
	}, nil
}

// inlineSimpleToOne buckets rels the same way Create does and requires
// every relation mutation to be a simple to-one connect/disconnect,
// splicing each into scalars; anything else fails with a CompileError
// (see Upsert's doc comment for why).
func inlineSimpleToOne(ctx *build.Context, scalars, rels build.Fields) (build.Fields, error) {
	toOneFK, targetFK, manyToMany, err := bucketRelations(ctx.Model, rels)
	if err != nil {
		return nil, err
	}
	if len(targetFK) > 0 || len(manyToMany) > 0 || !allToOneSimple(toOneFK) {
		return nil, relquery.NewCompileError(ctx.Model.Name, "upsert", "upsert only supports simple to-one connect/disconnect relation writes")
	}
	return inlineToOneConnects(ctx, scalars, toOneFK)
}
