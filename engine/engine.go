// Package engine implements the query engine facade (C10, §6): the
// published surface that ties the schema registry, dialect adapter, and
// driver together behind `Open`/`Build`/`Execute`, the way the teacher's
// `ent.Client` sits on top of its own `dialect.Driver` and generated
// builders.
package engine

import (
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/beynar/relquery"
	"github.com/beynar/relquery/dialect"
	"github.com/beynar/relquery/dialect/sql"
	"github.com/beynar/relquery/schema"
)

// Engine is the query engine facade: one per schema registry / database
// connection pair. It is safe for concurrent use — compilation holds no
// shared mutable state beyond a per-call alias generator (§5), and the
// driver/cache it wraps are expected to already be connection-safe.
type Engine struct {
	driver   dialect.Driver
	adapter  sql.Adapter
	registry *schema.Registry

	cache    relquery.Cache
	cacheTTL time.Duration
}

// Option configures optional Engine behavior at construction time.
type Option func(*Engine)

// WithCache attaches a compiled-query cache (§6, SPEC_FULL's plan cache):
// Build results are looked up and stored under a hash of (model,
// operation, args), keyed via cacheKeyFor. A zero ttl never expires the
// entry.
func WithCache(cache relquery.Cache, ttl time.Duration) Option {
	return func(e *Engine) {
		e.cache = cache
		e.cacheTTL = ttl
	}
}

// adapterFor resolves the dialect adapter implementation for a dialect
// name (§2's three supported dialects).
func adapterFor(dialectName string) (sql.Adapter, error) {
	switch dialectName {
	case dialect.Postgres:
		return sql.NewPostgres(), nil
	case dialect.MySQL:
		return sql.NewMySQL(), nil
	case dialect.SQLite:
		return sql.NewSQLite(), nil
	default:
		return nil, fmt.Errorf("relquery: engine: unknown dialect %q", dialectName)
	}
}

// Open mirrors the teacher's sql.Open/sql.OpenDB pair: dialectName
// selects both the registered database/sql driver (postgres via lib/pq,
// mysql via go-sql-driver/mysql, sqlite via modernc.org/sqlite — all
// three registered by this package's blank imports) and the matching
// fragment adapter. registry must already be fully hydrated; Open does
// not mutate it (§5 "registry read-only after construction").
func Open(dialectName, dataSourceName string, registry *schema.Registry, opts ...Option) (*Engine, error) {
	drv, err := sql.Open(dialectName, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("relquery: engine: open %s: %w", dialectName, err)
	}
	return OpenWithDriver(drv, registry, opts...)
}

// OpenWithDriver builds an Engine around an already-open dialect.Driver,
// for callers who manage their own *sql.DB (connection pooling,
// instrumentation wrappers) or who want to substitute a test double.
func OpenWithDriver(drv dialect.Driver, registry *schema.Registry, opts ...Option) (*Engine, error) {
	adapter, err := adapterFor(drv.Dialect())
	if err != nil {
		return nil, err
	}
	e := &Engine{driver: drv, adapter: adapter, registry: registry}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Close closes the underlying driver connection.
func (e *Engine) Close() error { return e.driver.Close() }

// Registry returns the engine's model registry.
func (e *Engine) Registry() *schema.Registry { return e.registry }

// Adapter returns the engine's dialect adapter.
func (e *Engine) Adapter() sql.Adapter { return e.adapter }

func (e *Engine) modelOrErr(name string) (*schema.Model, error) {
	m, ok := e.registry.Model(name)
	if !ok {
		return nil, relquery.NewCompileError(name, "", "unknown model")
	}
	return m, nil
}
