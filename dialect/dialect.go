package dialect

import "context"

// Supported dialect names. These are the only three the adapter layer
// (package sql) knows how to render fragments for.
const (
	Postgres = "postgres"
	MySQL    = "mysql"
	SQLite   = "sqlite"
)

// ExecQuerier wraps the two methods a statement executor must support.
// v is a pointer to the destination the caller expects: *sql.Result for
// Exec, *sql.Rows-like for Query. Implementations decide the concrete
// shape; the engine package only ever passes []any args and a known v.
type ExecQuerier interface {
	Exec(ctx context.Context, query string, args, v any) error
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the minimal contract the query engine requires from a
// database connection. Dialect-specific network/connection-pool code is
// outside this module's scope; only this surface matters to it.
type Driver interface {
	ExecQuerier
	// Tx starts a new transaction.
	Tx(ctx context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect reports one of Postgres, MySQL, SQLite.
	Dialect() string
}

// Tx extends Driver with commit/rollback, matching a single open
// transaction.
type Tx interface {
	Driver
	Commit() error
	Rollback() error
}
