// Package sql provides the SQL fragment type, the per-dialect adapters that
// render fragments for PostgreSQL, MySQL and SQLite, and a database/sql-backed
// driver.
//
// # Fragments
//
// A Fragment is an immutable piece of SQL text with bound parameters. Raw
// marks verbatim text, Param holds a single bound value, and Concat, Join and
// Wrap combine fragments. Render produces the final text and argument list
// for a placeholder style:
//
//	f := sql.Concat(sql.Raw(`"t0"."name" = `), sql.Param("alice"))
//	text, args := f.Render(sql.DollarStyle{})
//	// text: "t0"."name" = $1    args: [alice]
//
// # Dialect Support
//
// NewPostgres, NewMySQL and NewSQLite return an Adapter. Each adapter
// supplies its placeholder style ($n, ?, ?n), identifier quoting, operators,
// JSON aggregation, array operators and mutation statements, and reports its
// optional features through Capabilities:
//
//	a := sql.NewMySQL()
//	f := a.Operators().ILike(sql.Raw("name"), "%bob%")
//	text, args := f.Render(a.Style())
//	// text: lower(name) LIKE ?    args: [%bob%]
//
// # Driver
//
// Open and OpenDB wrap a database/sql connection in a Driver that implements
// dialect.Driver. WithVar attaches session variables that are set before
// every statement run with that context.
package sql
