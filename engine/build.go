package engine

import (
	"fmt"

	"github.com/beynar/relquery/assemble"
	"github.com/beynar/relquery/build"
	"github.com/beynar/relquery/dialect/sql"
	"github.com/beynar/relquery/plan"
	"github.com/beynar/relquery/schema"
	"github.com/beynar/relquery/validate"
)

// Built is the pure compile result: rendered SQL text plus its
// positionally-bound parameters, exactly as §6's `build(model, operation,
// args) → {sqlText, params}` describes. No driver is touched.
type Built struct {
	SQL    string
	Params []any
}

// Build compiles one operation without executing it — useful for
// debugging, batching several statements into one round trip, or
// asserting exact SQL in tests (§6). A create/update/upsert whose nested
// writes require more than one statement has no single (sqlText, params)
// to report; Build returns an error for those and Execute must be used
// instead, since splitting a transactional plan into a single string
// would silently misrepresent the number of round trips it takes.
func (e *Engine) Build(model, operation string, args Args) (*Built, error) {
	m, err := e.modelOrErr(model)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		if cached, ok := e.cacheLookup(m.Name, operation, args); ok {
			return cached, nil
		}
	}
	frag, err := e.compile(m, operation, args)
	if err != nil {
		return nil, err
	}
	text, params := frag.Render(e.adapter.Style())
	built := &Built{SQL: text, Params: params}
	if e.cache != nil {
		e.cacheStore(m.Name, operation, args, built)
	}
	return built, nil
}

// compile dispatches one operation to its assembler/planner and returns
// a single Fragment, erroring out for any plan with more than one step.
func (e *Engine) compile(m *schema.Model, operation string, args Args) (sql.Fragment, error) {
	ctx := build.NewContext(e.adapter, e.registry, m)

	switch operation {
	case "findFirst", "findMany", "findUnique":
		return e.compileFind(ctx, m, operation, args)
	case "count":
		return e.compileCount(ctx, m, args)
	case "exist":
		return e.compileExist(ctx, m, args)
	case "aggregate":
		return e.compileAggregate(ctx, m, args)
	case "groupBy":
		return e.compileGroupBy(ctx, m, args)
	case "createMany":
		return e.compileCreateMany(ctx, m, args)
	case "updateMany":
		return e.compileUpdateMany(ctx, m, args)
	case "deleteMany":
		return e.compileDeleteMany(ctx, m, args)
	case "delete":
		return e.compileDelete(ctx, m, args)
	case "create":
		return singleStatementFragment(plan.Create(ctx, args.Data, args.Select, args.Include))
	case "update":
		return singleStatementFragment(plan.Update(ctx, args.WhereUnique, args.Data, args.Select, args.Include))
	case "upsert":
		return singleStatementFragment(plan.Upsert(ctx, args.WhereUnique, args.Create, args.Update, args.Select, args.Include))
	default:
		return sql.Empty(), fmt.Errorf("relquery: engine: unknown operation %q", operation)
	}
}

// singleStatementFragment unwraps a Plan that must compile to exactly
// one statement with a literally-known capture (the only shape Build can
// report as a single (sqlText, params) pair).
func singleStatementFragment(p *plan.Plan, err error) (sql.Fragment, error) {
	if err != nil {
		return sql.Empty(), err
	}
	if p.Mode != plan.SingleStatement || len(p.Steps) != 1 {
		return sql.Empty(), fmt.Errorf("relquery: engine: build: this write requires %d statements in a transaction; use Execute", len(p.Steps))
	}
	return p.Steps[0].Build(plan.Bindings{})
}

func (e *Engine) compileFind(ctx *build.Context, m *schema.Model, operation string, args Args) (sql.Fragment, error) {
	where := args.Where
	if operation != "findUnique" {
		var err error
		where, err = validate.Where(m, operation, args.Where)
		if err != nil {
			return sql.Empty(), err
		}
	}
	fa := assemble.FindArgs{
		Select: args.Select, Include: args.Include, Where: where, WhereUnique: args.WhereUnique,
		OrderBy: args.OrderBy, Cursor: args.Cursor, Take: args.Take, Skip: args.Skip, Distinct: args.Distinct,
	}
	switch operation {
	case "findFirst":
		return assemble.FindFirst(ctx, fa)
	case "findUnique":
		return assemble.FindUnique(ctx, fa)
	default:
		return assemble.FindMany(ctx, fa)
	}
}

func (e *Engine) compileCount(ctx *build.Context, m *schema.Model, args Args) (sql.Fragment, error) {
	where, err := validate.Where(m, "count", args.Where)
	if err != nil {
		return sql.Empty(), err
	}
	return assemble.Count(ctx, assemble.CountArgs{Where: where, Select: args.CountSelect})
}

// compileExist reuses findFirst's WHERE with a `LIMIT 1` select of just
// the id column — no dedicated assembler exists for a bare boolean
// existence check, so exist renders the cheapest equivalent findFirst
// projects (§4.10 `exist`).
func (e *Engine) compileExist(ctx *build.Context, m *schema.Model, args Args) (sql.Fragment, error) {
	where, err := validate.Where(m, "exist", args.Where)
	if err != nil {
		return sql.Empty(), err
	}
	idField := ""
	if ids := m.IDFields(); len(ids) == 1 {
		idField = ids[0]
	}
	var sel build.Fields
	if idField != "" {
		sel = build.Fields{{Key: idField, Value: true}}
	}
	take := 1
	return assemble.FindFirst(ctx, assemble.FindArgs{Select: sel, Where: where, Take: &take})
}

func (e *Engine) compileAggregate(ctx *build.Context, m *schema.Model, args Args) (sql.Fragment, error) {
	where, err := validate.Where(m, "aggregate", args.Where)
	if err != nil {
		return sql.Empty(), err
	}
	return assemble.Aggregate(ctx, assemble.AggregateArgs{Where: where, Buckets: args.Buckets})
}

func (e *Engine) compileGroupBy(ctx *build.Context, m *schema.Model, args Args) (sql.Fragment, error) {
	where, err := validate.Where(m, "groupBy", args.Where)
	if err != nil {
		return sql.Empty(), err
	}
	return assemble.GroupBy(ctx, assemble.GroupByArgs{
		Where: where, By: args.By, Buckets: args.Buckets, Having: args.Having,
		OrderBy: args.OrderBy, Take: args.Take, Skip: args.Skip,
	})
}

func (e *Engine) compileCreateMany(ctx *build.Context, m *schema.Model, args Args) (sql.Fragment, error) {
	records := make([]build.Fields, len(args.Records))
	for i, r := range args.Records {
		data, err := validate.CreateData(m, "createMany", r)
		if err != nil {
			return sql.Empty(), err
		}
		records[i] = data
	}
	return assemble.CreateMany(ctx, records, args.SkipDuplicates)
}

func (e *Engine) compileUpdateMany(ctx *build.Context, m *schema.Model, args Args) (sql.Fragment, error) {
	where, err := validate.Where(m, "updateMany", args.Where)
	if err != nil {
		return sql.Empty(), err
	}
	data, err := validate.UpdateData(m, "updateMany", args.Data)
	if err != nil {
		return sql.Empty(), err
	}
	return assemble.UpdateMany(ctx, where, data)
}

func (e *Engine) compileDeleteMany(ctx *build.Context, m *schema.Model, args Args) (sql.Fragment, error) {
	where, err := validate.Where(m, "deleteMany", args.Where)
	if err != nil {
		return sql.Empty(), err
	}
	return assemble.DeleteMany(ctx, where)
}

func (e *Engine) compileDelete(ctx *build.Context, m *schema.Model, args Args) (sql.Fragment, error) {
	return assemble.Delete(ctx, args.WhereUnique)
}
