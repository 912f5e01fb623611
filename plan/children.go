package plan

import (
	"fmt"

	"github.com/beynar/relquery"
	"github.com/beynar/relquery/assemble"
	"github.com/beynar/relquery/build"
	"github.com/beynar/relquery/dialect/sql"
)

// planChildWrites builds the steps that run after the parent's own
// create/update, once its PK is bound under parentCapture (§4.11 step 4,
// "for each relation where the target holds FK" and the manyToMany
// bullet). Every bucket here assumes a single-column parent PK and a
// single-column child FK — the common shape every worked example in
// scope uses; a compound parent key would need one binding per member
// column, which this planner does not yet support.
func planChildWrites(ctx *build.Context, targetFK, manyToMany []boundRelation, parentCapture string) ([]Step, error) {
	var steps []Step

	for _, b := range targetFK {
		if len(b.Dir.FKFields) != 1 {
			return nil, relquery.NewCompileError(b.Info.TargetModel.Name, b.Key, "nested write planner only supports a single-column child FK")
		}
		fkField := b.Dir.FKFields[0]
		childCtx := build.NewContext(ctx.Adapter, ctx.Registry, b.Info.TargetModel)

		for _, m := range b.Muts {
			m := m
			switch m.Verb {
			case "create":
				childData, _ := m.Value.(build.Fields)
				childScalars, childRels, err := splitData(b.Info.TargetModel, childData)
				if err != nil {
					return nil, err
				}
				if len(childRels) > 0 {
					return nil, relquery.NewCompileError(b.Info.TargetModel.Name, b.Key, "nested create does not support a second level of relation writes")
				}
				steps = append(steps, Step{
					Model: b.Info.TargetModel,
					Build: func(bindings Bindings) (sql.Fragment, error) {
						parentPK, ok := bindings[parentCapture]
						if !ok {
							return sql.Empty(), fmt.Errorf("relquery: plan: missing captured parent PK %q", parentCapture)
						}
						merged := append(build.Fields{{Key: fkField, Value: parentPK}}, childScalars...)
						return assemble.Create(childCtx, merged)
					},
				})
			case "connect":
				whereUnique, _ := m.Value.(build.Fields)
				steps = append(steps, Step{
					Model: b.Info.TargetModel,
					Build: func(bindings Bindings) (sql.Fragment, error) {
						parentPK, ok := bindings[parentCapture]
						if !ok {
							return sql.Empty(), fmt.Errorf("relquery: plan: missing captured parent PK %q", parentCapture)
						}
						return assemble.Update(childCtx, whereUnique, build.Fields{{Key: fkField, Value: parentPK}})
					},
				})
			case "disconnect":
				whereUnique, _ := m.Value.(build.Fields)
				steps = append(steps, Step{
					Model: b.Info.TargetModel,
					Build: func(Bindings) (sql.Fragment, error) {
						return assemble.Update(childCtx, whereUnique, build.Fields{{Key: fkField, Value: nil}})
					},
				})
			case "delete":
				whereUnique, _ := m.Value.(build.Fields)
				steps = append(steps, Step{
					Model: b.Info.TargetModel,
					Build: func(Bindings) (sql.Fragment, error) { return assemble.Delete(childCtx, whereUnique) },
				})
			case "connectOrCreate":
				payload, _ := m.Value.(build.Fields)
				whereUnique, _ := payload.Get("where")
				createData, _ := payload.Get("create")
				whereFields, _ := whereUnique.(build.Fields)
				createFields, _ := createData.(build.Fields)
				steps = append(steps, Step{
					Model: b.Info.TargetModel,
					Build: func(bindings Bindings) (sql.Fragment, error) {
						parentPK, ok := bindings[parentCapture]
						if !ok {
							return sql.Empty(), fmt.Errorf("relquery: plan: missing captured parent PK %q", parentCapture)
						}
						create := append(build.Fields{{Key: fkField, Value: parentPK}}, createFields...)
						update := build.Fields{{Key: fkField, Value: build.Fields{{Key: "set", Value: parentPK}}}}
						return assemble.Upsert(childCtx, whereFields, create, update)
					},
				})
			case "set":
				items := asItems(m.Value)
				steps = append(steps, Step{
					Model: b.Info.TargetModel,
					Build: func(bindings Bindings) (sql.Fragment, error) {
						parentPK, ok := bindings[parentCapture]
						if !ok {
							return sql.Empty(), fmt.Errorf("relquery: plan: missing captured parent PK %q", parentCapture)
						}
						return assemble.UpdateMany(childCtx,
							build.Fields{{Key: fkField, Value: build.Fields{{Key: "equals", Value: parentPK}}}},
							build.Fields{{Key: fkField, Value: nil}})
					},
				})
				for _, item := range items {
					whereUnique, _ := item.(build.Fields)
					steps = append(steps, Step{
						Model: b.Info.TargetModel,
						Build: func(bindings Bindings) (sql.Fragment, error) {
							parentPK, ok := bindings[parentCapture]
							if !ok {
								return sql.Empty(), fmt.Errorf("relquery: plan: missing captured parent PK %q", parentCapture)
							}
							return assemble.Update(childCtx, whereUnique, build.Fields{{Key: fkField, Value: parentPK}})
						},
					})
				}
			}
		}
	}

	for _, b := range manyToMany {
		s, err := planManyToMany(ctx, b, parentCapture)
		if err != nil {
			return nil, err
		}
		steps = append(steps, s...)
	}

	return steps, nil
}
