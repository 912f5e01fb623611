package plan

import (
	"fmt"

	"github.com/beynar/relquery"
	"github.com/beynar/relquery/assemble"
	"github.com/beynar/relquery/build"
	"github.com/beynar/relquery/dialect/sql"
)

// Update plans a model's update operation addressed by a where-unique
// shape (§4.10's note that "a simple to-one connect/disconnect in the
// same data is inlined as FK assignment ... when the current model
// holds the FK", mirroring Create's single-statement strategy). The
// same one-level nesting limit as Create applies to nested creates
// reached through a relation write.
func Update(ctx *build.Context, whereUnique, data, selectFields, include build.Fields) (*Plan, error) {
	scalars, rels, err := splitData(ctx.Model, data)
	if err != nil {
		return nil, err
	}

	toOneFK, targetFK, manyToMany, err := bucketRelations(ctx.Model, rels)
	if err != nil {
		return nil, err
	}

	const selfCapture = "__self__"
	idField := firstIDField(ctx.Model)
	captureColumn := ""
	var literal any
	if idField != "" {
		if v, ok := whereUnique.Get(idField); ok {
			literal = v
		} else {
			captureColumn = idField
		}
	}

	if len(targetFK) == 0 && len(manyToMany) == 0 && allToOneSimple(toOneFK) {
		merged, err := inlineToOneConnects(ctx, scalars, toOneFK)
		if err != nil {
			return nil, err
		}
		return &Plan{
			Mode: SingleStatement,
			Steps: []Step{{
				Model: ctx.Model, CaptureAs: selfCapture, CaptureColumn: captureColumn, Literal: literal,
				Build: func(Bindings) (sql.Fragment, error) { return assemble.Update(ctx, whereUnique, merged) },
			}},
			Refetch: refetchSpecForWhere(ctx.Model, whereUnique, selfCapture, selectFields, include),
		}, nil
	}

	return transactionalUpdate(ctx, whereUnique, scalars, toOneFK, targetFK, manyToMany, selfCapture, captureColumn, literal, selectFields, include)
}

// transactionalUpdate mirrors transactionalCreate's shape: to-one
// relations whose data contains `create` run first so the new child's
// PK can be assigned into the parent's FK column; the parent UPDATE
// runs next, addressed by whereUnique; relations where the target holds
// the FK (plus manyToMany) run last, referencing the parent's captured
// PK (which is either the literal from whereUnique or read back from
// the UPDATE's own RETURNING/refetch when whereUnique doesn't name the
// id field directly).
func transactionalUpdate(ctx *build.Context, whereUnique, scalars build.Fields, toOneFK, targetFK, manyToMany []boundRelation, selfCapture, captureColumn string, literal any, selectFields, include build.Fields) (*Plan, error) {
	var steps []Step
	var pendingFK []struct {
		FKField   string
		CaptureAs string
	}
	finalScalars := append(build.Fields{}, scalars...)

	for _, b := range toOneFK {
		for _, m := range b.Muts {
			switch m.Verb {
			case "connect":
				wu, _ := m.Value.(build.Fields)
				for i, fkField := range b.Dir.FKFields {
					frag, err := connectSubquery(ctx.Adapter, ctx.Registry, b.Info.TargetModel, b.Dir.PKFields[i], wu)
					if err != nil {
						return nil, err
					}
					finalScalars = append(finalScalars, build.Field{Key: fkField, Value: frag})
				}
			case "disconnect":
				for _, fkField := range b.Dir.FKFields {
					finalScalars = append(finalScalars, build.Field{Key: fkField, Value: nil})
				}
			case "create":
				childData, _ := m.Value.(build.Fields)
				childScalars, childRels, err := splitData(b.Info.TargetModel, childData)
				if err != nil {
					return nil, err
				}
				if len(childRels) > 0 {
					return nil, relquery.NewCompileError(b.Info.TargetModel.Name, b.Key, "nested create does not support a second level of relation writes")
				}
				childCtx := build.NewContext(ctx.Adapter, ctx.Registry, b.Info.TargetModel)
				captureAs := b.Key + "#create"
				childIDField := firstIDField(b.Info.TargetModel)
				childCaptureColumn := ""
				var childLiteral any
				if v, has := childScalars.Get(childIDField); has {
					childLiteral = v
				} else {
					childCaptureColumn = childIDField
				}
				steps = append(steps, Step{
					Model: b.Info.TargetModel, CaptureAs: captureAs, CaptureColumn: childCaptureColumn, Literal: childLiteral,
					Build: func(Bindings) (sql.Fragment, error) { return assemble.Create(childCtx, childScalars) },
				})
				for _, fkField := range b.Dir.FKFields {
					pendingFK = append(pendingFK, struct {
						FKField   string
						CaptureAs string
					}{fkField, captureAs})
				}
			}
		}
	}

	steps = append(steps, Step{
		Model: ctx.Model, CaptureAs: selfCapture, CaptureColumn: captureColumn, Literal: literal,
		Build: func(b Bindings) (sql.Fragment, error) {
			merged := append(build.Fields{}, finalScalars...)
			for _, p := range pendingFK {
				v, ok := b[p.CaptureAs]
				if !ok {
					return sql.Empty(), fmt.Errorf("relquery: plan: missing captured value for %q", p.CaptureAs)
				}
				merged = append(merged, build.Field{Key: p.FKField, Value: v})
			}
			return assemble.Update(ctx, whereUnique, merged)
		},
	})

	childSteps, err := planChildWrites(ctx, targetFK, manyToMany, selfCapture)
	if err != nil {
		return nil, err
	}
	steps = append(steps, childSteps...)

	return &Plan{
		Mode:    Transactional,
		Steps:   steps,
		Refetch: refetchSpecForWhere(ctx.Model, whereUnique, selfCapture, selectFields, include),
	}, nil
}
