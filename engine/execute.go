package engine

import (
	"context"
	"fmt"

	"github.com/beynar/relquery"
	"github.com/beynar/relquery/assemble"
	"github.com/beynar/relquery/build"
	"github.com/beynar/relquery/dialect"
	"github.com/beynar/relquery/dialect/sql/sqlgraph"
	"github.com/beynar/relquery/parse"
	"github.com/beynar/relquery/plan"
	"github.com/beynar/relquery/schema"
	"github.com/beynar/relquery/validate"
)

// wrapDriverErr classifies a raw driver error through sqlgraph's
// constraint detection (AMBIENT STACK: "engine.Execute wraps driver
// errors through the existing constraint classifier before returning").
// Anything sqlgraph doesn't recognize propagates unchanged — it is
// neither retried nor reclassified, matching §7's DriverError semantics.
func (e *Engine) wrapDriverErr(err error) error {
	if err == nil {
		return nil
	}
	if sqlgraph.IsUniqueConstraintError(err) {
		return relquery.NewConstraintError("unique constraint violated", err)
	}
	if sqlgraph.IsForeignKeyConstraintError(err) {
		return relquery.NewConstraintError("foreign key constraint violated", err)
	}
	if sqlgraph.IsCheckConstraintError(err) {
		return relquery.NewConstraintError("check constraint violated", err)
	}
	return err
}

// Execute runs one operation end to end: validate the caller's input,
// compile it, send it to the driver, and parse the result back into
// plain Go values (§6's execute(model, operation, args) → T).
func (e *Engine) Execute(ctx context.Context, model, operation string, args Args) (any, error) {
	m, err := e.modelOrErr(model)
	if err != nil {
		return nil, err
	}

	switch operation {
	case "findFirst", "findMany", "findUnique":
		return e.executeFind(ctx, m, operation, args)
	case "count":
		return e.executeCount(ctx, m, args)
	case "exist":
		return e.executeExist(ctx, m, args)
	case "aggregate":
		return e.executeAggregate(ctx, m, args)
	case "groupBy":
		return e.executeGroupBy(ctx, m, args)
	case "createMany":
		return e.executeBatch(ctx, m, "createMany", args)
	case "updateMany":
		return e.executeBatch(ctx, m, "updateMany", args)
	case "deleteMany":
		return e.executeBatch(ctx, m, "deleteMany", args)
	case "delete":
		return e.executeDelete(ctx, m, args)
	case "create":
		data, err := validate.CreateData(m, "create", args.Data)
		if err != nil {
			return nil, err
		}
		p, err := plan.Create(build.NewContext(e.adapter, e.registry, m), data, args.Select, args.Include)
		if err != nil {
			return nil, err
		}
		return e.executePlan(ctx, m, p)
	case "update":
		data, err := validate.UpdateData(m, "update", args.Data)
		if err != nil {
			return nil, err
		}
		p, err := plan.Update(build.NewContext(e.adapter, e.registry, m), args.WhereUnique, data, args.Select, args.Include)
		if err != nil {
			return nil, err
		}
		return e.executePlan(ctx, m, p)
	case "upsert":
		create, err := validate.CreateData(m, "upsert", args.Create)
		if err != nil {
			return nil, err
		}
		update, err := validate.UpdateData(m, "upsert", args.Update)
		if err != nil {
			return nil, err
		}
		p, err := plan.Upsert(build.NewContext(e.adapter, e.registry, m), args.WhereUnique, create, update, args.Select, args.Include)
		if err != nil {
			return nil, err
		}
		return e.executePlan(ctx, m, p)
	default:
		return nil, fmt.Errorf("relquery: engine: unknown operation %q", operation)
	}
}

func (e *Engine) executeFind(ctx context.Context, m *schema.Model, operation string, args Args) (any, error) {
	built, err := e.Build(m.Name, operation, args)
	if err != nil {
		return nil, err
	}
	rows, err := e.query(ctx, built.SQL, built.Params)
	if err != nil {
		return nil, err
	}
	switch operation {
	case "findMany":
		return parse.Records(m, rows)
	default:
		if len(rows) == 0 {
			return nil, nil
		}
		return parse.Record(m, rows[0])
	}
}

func (e *Engine) executeCount(ctx context.Context, m *schema.Model, args Args) (any, error) {
	built, err := e.Build(m.Name, "count", args)
	if err != nil {
		return nil, err
	}
	rows, err := e.query(ctx, built.SQL, built.Params)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return int64(0), nil
	}
	return parse.Count(rows[0])
}

func (e *Engine) executeExist(ctx context.Context, m *schema.Model, args Args) (any, error) {
	built, err := e.Build(m.Name, "exist", args)
	if err != nil {
		return nil, err
	}
	rows, err := e.query(ctx, built.SQL, built.Params)
	if err != nil {
		return nil, err
	}
	return len(rows) > 0, nil
}

func (e *Engine) executeAggregate(ctx context.Context, m *schema.Model, args Args) (any, error) {
	built, err := e.Build(m.Name, "aggregate", args)
	if err != nil {
		return nil, err
	}
	rows, err := e.query(ctx, built.SQL, built.Params)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return parse.Row{}, nil
	}
	return parse.Aggregate(rows[0])
}

func (e *Engine) executeGroupBy(ctx context.Context, m *schema.Model, args Args) (any, error) {
	built, err := e.Build(m.Name, "groupBy", args)
	if err != nil {
		return nil, err
	}
	rows, err := e.query(ctx, built.SQL, built.Params)
	if err != nil {
		return nil, err
	}
	return parse.GroupByRows(m, rows)
}

func (e *Engine) executeBatch(ctx context.Context, m *schema.Model, operation string, args Args) (any, error) {
	built, err := e.Build(m.Name, operation, args)
	if err != nil {
		return nil, err
	}
	n, err := e.exec(ctx, built.SQL, built.Params)
	if err != nil {
		return nil, err
	}
	return parse.BatchResult(n), nil
}

func (e *Engine) executeDelete(ctx context.Context, m *schema.Model, args Args) (any, error) {
	ctxb := build.NewContext(e.adapter, e.registry, m)
	frag, err := assemble.Delete(ctxb, args.WhereUnique)
	if err != nil {
		return nil, err
	}
	text, params := frag.Render(e.adapter.Style())
	if e.adapter.Capabilities().SupportsReturning {
		rows, err := e.query(ctx, text, params)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, nil
		}
		return parse.Record(m, rows[0])
	}
	if _, err := e.exec(ctx, text, params); err != nil {
		return nil, err
	}
	return nil, nil
}

// executePlan runs every step of a nested-write plan, in a transaction
// when the plan needs more than one statement (§4.11 "Failure
// semantics": any step's error rolls the whole transaction back), then
// honors the plan's refetch or falls back to the last step's own
// RETURNING row.
func (e *Engine) executePlan(ctx context.Context, m *schema.Model, p *plan.Plan) (any, error) {
	if p.Mode == plan.SingleStatement {
		row, bindings, err := e.runSteps(ctx, e.driver, p.Steps)
		if err != nil {
			return nil, err
		}
		return e.finishPlan(ctx, m, p, row, bindings)
	}

	tx, err := e.driver.Tx(ctx)
	if err != nil {
		return nil, e.wrapDriverErr(err)
	}
	row, bindings, err := e.runSteps(ctx, tx, p.Steps)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, e.wrapDriverErr(err)
	}
	return e.finishPlan(ctx, m, p, row, bindings)
}

// runSteps executes each step against drv in order, threading captured
// PK bindings forward, and returns the last step's own RETURNING row. On
// a dialect without RETURNING support that row is nil; captured PKs are
// then only available through the returned bindings.
func (e *Engine) runSteps(ctx context.Context, drv dialect.Driver, steps []plan.Step) (parse.Row, plan.Bindings, error) {
	bindings := plan.Bindings{}
	var last parse.Row
	for _, step := range steps {
		row, err := e.runStep(ctx, drv, step, bindings)
		if err != nil {
			return nil, nil, err
		}
		last = row
	}
	return last, bindings, nil
}

func (e *Engine) runStep(ctx context.Context, drv dialect.Driver, step plan.Step, bindings plan.Bindings) (parse.Row, error) {
	frag, err := step.Build(bindings)
	if err != nil {
		return nil, err
	}
	text, params := frag.Render(e.adapter.Style())

	if step.CaptureColumn == "" {
		if step.CaptureAs != "" {
			bindings[step.CaptureAs] = step.Literal
		}
		rows, execErr := e.tryQuery(ctx, drv, text, params)
		if execErr != nil {
			return nil, execErr
		}
		if len(rows) > 0 {
			return rows[0], nil
		}
		return nil, nil
	}

	if e.adapter.Capabilities().SupportsReturning {
		rows, err := e.queryOn(ctx, drv, text, params)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, relquery.NewNotFoundError(step.Model.Name)
		}
		field, _ := step.Model.Field(step.CaptureColumn)
		col := step.CaptureColumn
		if field != nil {
			col = field.ColumnName()
		}
		bindings[step.CaptureAs] = rows[0][col]
		return rows[0], nil
	}

	if _, err := e.execOn(ctx, drv, text, params); err != nil {
		return nil, err
	}
	lidFrag := e.adapter.Mutations().LastInsertID()
	lidText, lidParams := lidFrag.Render(e.adapter.Style())
	rows, err := e.queryOn(ctx, drv, lidText, lidParams)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("relquery: engine: driver returned no last-insert-id row")
	}
	for _, v := range rows[0] {
		bindings[step.CaptureAs] = v
		break
	}
	return nil, nil
}

// tryQuery runs a statement expected to possibly return rows (an INSERT/
// UPDATE with RETURNING when the adapter supports it) and degrades to a
// plain exec otherwise, since a step with no CaptureColumn still may or
// may not carry a RETURNING clause depending on the dialect.
func (e *Engine) tryQuery(ctx context.Context, drv dialect.Driver, text string, params []any) ([]parse.Row, error) {
	if !e.adapter.Capabilities().SupportsReturning {
		_, err := e.execOn(ctx, drv, text, params)
		return nil, err
	}
	return e.queryOn(ctx, drv, text, params)
}

// finishPlan resolves a write's final response shape: the plan's refetch
// when select/include was requested, otherwise the write statement's own
// RETURNING row.
func (e *Engine) finishPlan(ctx context.Context, m *schema.Model, p *plan.Plan, writtenRow parse.Row, bindings plan.Bindings) (any, error) {
	if p.Refetch == nil {
		if writtenRow == nil {
			return nil, nil
		}
		return parse.Record(m, writtenRow)
	}
	refetchCtx := build.NewContext(e.adapter, e.registry, p.Refetch.Model)
	whereUnique := p.Refetch.WhereUnique
	if len(whereUnique) == 0 {
		whereUnique = build.Fields{{
			Key:   p.Refetch.IDField,
			Value: build.Fields{{Key: "equals", Value: bindings[p.Refetch.CaptureAs]}},
		}}
	}
	frag, err := assemble.FindUnique(refetchCtx, assemble.FindArgs{
		WhereUnique: whereUnique, Select: p.Refetch.Select, Include: p.Refetch.Include,
	})
	if err != nil {
		return nil, err
	}
	text, params := frag.Render(e.adapter.Style())
	rows, err := e.query(ctx, text, params)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, relquery.NewNotFoundError(p.Refetch.Model.Name)
	}
	return parse.Record(p.Refetch.Model, rows[0])
}
