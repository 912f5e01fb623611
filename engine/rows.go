package engine

import (
	"context"

	"github.com/beynar/relquery/dialect"
	dsql "github.com/beynar/relquery/dialect/sql"
	"github.com/beynar/relquery/parse"
)

// queryOn runs a read statement against drv and decodes every row into a
// parse.Row, column name to raw driver value. drv is explicit rather than
// always e.driver so the same helper serves both a plain connection and
// an open transaction (dialect.Tx embeds dialect.Driver). dialect.
// ExecQuerier documents v as "a pointer to the destination the caller
// expects"; *dsql.Rows is the only shape dialect/sql's driver
// implementation accepts for Query.
func (e *Engine) queryOn(ctx context.Context, drv dialect.Driver, sqlText string, params []any) ([]parse.Row, error) {
	var rows dsql.Rows
	if err := drv.Query(ctx, sqlText, params, &rows); err != nil {
		return nil, e.wrapDriverErr(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, e.wrapDriverErr(err)
	}

	var out []parse.Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, e.wrapDriverErr(err)
		}
		row := make(parse.Row, len(cols))
		for i, c := range cols {
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, e.wrapDriverErr(err)
	}
	return out, nil
}

func (e *Engine) query(ctx context.Context, sqlText string, params []any) ([]parse.Row, error) {
	return e.queryOn(ctx, e.driver, sqlText, params)
}

// execOn runs a write statement against drv and reports the driver's
// affected-row count.
func (e *Engine) execOn(ctx context.Context, drv dialect.Driver, sqlText string, params []any) (int64, error) {
	var res dsql.Result
	if err := drv.Exec(ctx, sqlText, params, &res); err != nil {
		return 0, e.wrapDriverErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, e.wrapDriverErr(err)
	}
	return n, nil
}

func (e *Engine) exec(ctx context.Context, sqlText string, params []any) (int64, error) {
	return e.execOn(ctx, e.driver, sqlText, params)
}
