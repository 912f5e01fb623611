package plan

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/beynar/relquery"
	"github.com/beynar/relquery/assemble"
	"github.com/beynar/relquery/build"
	"github.com/beynar/relquery/dialect/sql"
	"github.com/beynar/relquery/schema"
)

// Create plans a model's create operation (§4.11). It supports one level
// of nested relation mutations — a nested create's own data may not
// itself carry further relation keys; deeper nesting is rejected with a
// CompileError rather than silently dropped, since recursing arbitrarily
// deep would require a second planner pass this module does not yet
// implement.
func Create(ctx *build.Context, data, selectFields, include build.Fields) (*Plan, error) {
	scalars, rels, err := splitData(ctx.Model, data)
	if err != nil {
		return nil, err
	}

	toOneFK, targetFK, manyToMany, err := bucketRelations(ctx.Model, rels)
	if err != nil {
		return nil, err
	}

	if len(targetFK) == 0 && len(manyToMany) == 0 && allToOneSimple(toOneFK) {
		merged, err := inlineToOneConnects(ctx, scalars, toOneFK)
		if err != nil {
			return nil, err
		}
		const selfCapture = "__self__"
		captureColumn := ""
		var literal any
		if idField := firstIDField(ctx.Model); idField != "" {
			if v, has := merged.Get(idField); has {
				literal = v
			} else {
				captureColumn = idField
			}
		}
		return &Plan{
			Mode: SingleStatement,
			Steps: []Step{{
				Model: ctx.Model, CaptureAs: selfCapture, CaptureColumn: captureColumn, Literal: literal,
				Build: func(Bindings) (sql.Fragment, error) { return assemble.Create(ctx, merged) },
			}},
			Refetch: refetchSpec(ctx.Model, merged, selfCapture, selectFields, include),
		}, nil
	}

	return transactionalCreate(ctx, scalars, toOneFK, targetFK, manyToMany, selectFields, include)
}

type boundRelation struct {
	Key  string
	Info *schema.RelationInfo
	Dir  *schema.FKDirection
	Muts []relationMutation
}

// bucketRelations classifies every relation key in rels by FK direction:
// toOneFK holds relations where ctx.Model itself holds the FK (the
// single-statement-eligible bucket), targetFK holds relations where the
// target model itself holds the FK (oneToMany children), and manyToMany
// holds junction-table relations (§4.11 step 2/3). Each relation key's
// classification — resolving its target, normalizing its mutation verbs,
// and resolving its FK direction — touches only that key's own slice of
// rels and the (read-only) schema, so every entry is independently
// compilable (§5); the resolution pass below runs them concurrently via
// errgroup and only the final bucket assignment, which must preserve
// declaration order for sibling-mutation ordering (§5), runs serially
// afterward.
func bucketRelations(model *schema.Model, rels build.Fields) (toOneFK, targetFK, manyToMany []boundRelation, err error) {
	resolved := make([]boundRelation, len(rels))
	var g errgroup.Group
	for i, kv := range rels {
		i, kv := i, kv
		g.Go(func() error {
			info, err := schema.ResolveRelation(model, kv.Key)
			if err != nil {
				return err
			}
			muts, err := classifyRelation(model, kv.Key, kv.Value, info.IsToMany)
			if err != nil {
				return err
			}
			b := boundRelation{Key: kv.Key, Info: info, Muts: muts}
			if info.Type != schema.ManyToMany {
				b.Dir, err = schema.ResolveFKDirection(model, info)
				if err != nil {
					return err
				}
			}
			resolved[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}

	for _, b := range resolved {
		switch {
		case b.Info.Type == schema.ManyToMany:
			manyToMany = append(manyToMany, b)
		case b.Dir.HoldsFK:
			toOneFK = append(toOneFK, b)
		default:
			targetFK = append(targetFK, b)
		}
	}
	return toOneFK, targetFK, manyToMany, nil
}

// allToOneSimple reports whether every to-one FK-holding relation's
// mutations are connect/disconnect only — the condition for the
// single-statement strategy (§4.11 step 3).
func allToOneSimple(toOneFK []boundRelation) bool {
	for _, b := range toOneFK {
		for _, m := range b.Muts {
			if m.Verb != "connect" && m.Verb != "disconnect" {
				return false
			}
		}
	}
	return true
}

// inlineToOneConnects splices each to-one FK-holding relation's connect/
// disconnect into scalars as spliced subqueries or NULL, ready for
// assemble.Create (§4.11 step 3's single-statement strategy).
func inlineToOneConnects(ctx *build.Context, scalars build.Fields, toOneFK []boundRelation) (build.Fields, error) {
	merged := append(build.Fields{}, scalars...)
	for _, b := range toOneFK {
		for _, m := range b.Muts {
			switch m.Verb {
			case "connect":
				whereUnique, _ := m.Value.(build.Fields)
				for i, fkField := range b.Dir.FKFields {
					frag, err := connectSubquery(ctx.Adapter, ctx.Registry, b.Info.TargetModel, b.Dir.PKFields[i], whereUnique)
					if err != nil {
						return nil, err
					}
					merged = append(merged, build.Field{Key: fkField, Value: frag})
				}
			case "disconnect":
				for _, fkField := range b.Dir.FKFields {
					merged = append(merged, build.Field{Key: fkField, Value: nil})
				}
			}
		}
	}
	return merged, nil
}

// transactionalCreate builds the multi-statement plan (§4.11 step 4): any
// to-one relation whose data contains `create` runs first so its PK can
// be assigned into the parent's FK column; the parent create runs next;
// every relation where the target holds the FK (plus manyToMany) runs
// after, referencing the parent's captured PK.
func transactionalCreate(ctx *build.Context, scalars build.Fields, toOneFK, targetFK, manyToMany []boundRelation, selectFields, include build.Fields) (*Plan, error) {
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
				whereUnique, _ := m.Value.(build.Fields)
				for i, fkField := range b.Dir.FKFields {
					frag, err := connectSubquery(ctx.Adapter, ctx.Registry, b.Info.TargetModel, b.Dir.PKFields[i], whereUnique)
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
				idField := firstIDField(b.Info.TargetModel)
				captureColumn := ""
				var literal any
				if v, has := childScalars.Get(idField); has {
					literal = v
				} else {
					captureColumn = idField
				}
				steps = append(steps, Step{
					Model: b.Info.TargetModel, CaptureAs: captureAs, CaptureColumn: captureColumn, Literal: literal,
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

	const selfCapture = "__self__"
	ownIDField := firstIDField(ctx.Model)
	ownCaptureColumn := ""
	var ownLiteral any
	if v, has := finalScalars.Get(ownIDField); has {
		ownLiteral = v
	} else {
		ownCaptureColumn = ownIDField
	}
	steps = append(steps, Step{
		Model: ctx.Model, CaptureAs: selfCapture, CaptureColumn: ownCaptureColumn, Literal: ownLiteral,
		Build: func(b Bindings) (sql.Fragment, error) {
			merged := append(build.Fields{}, finalScalars...)
			for _, p := range pendingFK {
				v, ok := b[p.CaptureAs]
				if !ok {
					return sql.Empty(), fmt.Errorf("relquery: plan: missing captured value for %q", p.CaptureAs)
				}
				merged = append(merged, build.Field{Key: p.FKField, Value: v})
			}
			return assemble.Create(ctx, merged)
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
		Refetch: refetchSpec(ctx.Model, finalScalars, selfCapture, selectFields, include),
	}, nil
}

func firstIDField(model *schema.Model) string {
	ids := model.IDFields()
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}
