package sql

import "fmt"

// Adapter is the per-dialect capability bundle (§4.1, C2): a set of pure
// functions that produce Fragments for identifiers, operators, JSON,
// arrays, joins, mutations, ordering, and aggregation, plus a Capabilities
// flag set higher layers consult to pick an alternate plan. It is the
// *sole* place dialect-specific behaviour is switched on — builders in
// package build never branch on a dialect name directly.
type Adapter interface {
	Name() string
	Style() PlaceholderStyle
	Capabilities() Capabilities

	Identifiers() Identifiers
	Operators() Operators
	JSON() JSONOps
	Arrays() ArrayOps
	OrderBy() OrderByOps
	Aggregates() Aggregates
	Filters() Filters
	Mutations() Mutations
	Joins() Joins
	SetOps() SetOps
	Vector() VectorOps
	Geospatial() GeospatialOps
}

// Capabilities declares which optional adapter surfaces a dialect
// implements. Builders check these instead of doing runtime feature
// detection or switching on a dialect name (§4.1, §9).
type Capabilities struct {
	SupportsReturning        bool
	SupportsCteWithMutations bool
	SupportsFullOuterJoin    bool
	SupportsLateralJoins     bool
	SupportsTransactions     bool
	SupportsVector           bool
	SupportsGeospatial       bool
	// SupportsNativeILIKE reports whether the dialect has a native
	// case-insensitive LIKE operator; when false, Operators().ILike
	// degrades to lower(col) LIKE with the pattern lowercased before it
	// is bound (§4.1).
	SupportsNativeILIKE bool
}

// Identifiers quotes and qualifies column/table names per dialect.
type Identifiers interface {
	// Escape quotes a single identifier, e.g. "name" or `name`.
	Escape(name string) string
	// Column returns a qualified column reference fragment: alias.field.
	Column(alias, field string) Fragment
	// Table returns a table reference fragment, optionally aliased.
	Table(name, alias string) Fragment
}

// Operators builds boolean/comparison expression fragments. Every
// predicate in the where builder (§4.3) goes through here so a
// dialect's exact operator spelling (<>, ILIKE, ...) lives in one place.
type Operators interface {
	EQ(col Fragment, v any) Fragment
	NEQ(col Fragment, v any) Fragment
	LT(col Fragment, v any) Fragment
	LTE(col Fragment, v any) Fragment
	GT(col Fragment, v any) Fragment
	GTE(col Fragment, v any) Fragment
	Like(col Fragment, pattern string) Fragment
	NotLike(col Fragment, pattern string) Fragment
	ILike(col Fragment, pattern string) Fragment
	NotILike(col Fragment, pattern string) Fragment
	In(col Fragment, vs []any) Fragment
	NotIn(col Fragment, vs []any) Fragment
	IsNull(col Fragment) Fragment
	IsNotNull(col Fragment) Fragment
	Between(col Fragment, lo, hi any) Fragment
	NotBetween(col Fragment, lo, hi any) Fragment
	And(parts ...Fragment) Fragment
	Or(parts ...Fragment) Fragment
	Not(f Fragment) Fragment
	Exists(subquery Fragment) Fragment
	NotExists(subquery Fragment) Fragment
}

// JSONOps builds the JSON construction surface every include/select
// relation column goes through (§4.1 "hardcoding json_agg vs
// JSON_ARRAYAGG vs json_group_array is forbidden").
type JSONOps interface {
	// Object builds a JSON object literal from alternating key/value
	// pairs supplied as Go values (keys) and Fragments (values).
	Object(pairs []KV) Fragment
	// ObjectFromColumns is Object specialised for (outputName, exprFragment)
	// select-list pairs, used when reconstructing a relation's shape.
	ObjectFromColumns(pairs []KV) Fragment
	// Agg wraps a scalar sub-select's single column into a JSON array
	// aggregate, used for to-many relations.
	Agg(inner Fragment) Fragment
	// EmptyArray is the literal empty JSON array, '[]'.
	EmptyArray() Fragment
	// Extract pulls a JSON value out of a JSON-typed column at path.
	Extract(col Fragment, path string) Fragment
	// ExtractText is Extract coerced to text.
	ExtractText(col Fragment, path string) Fragment
}

// KV is a single (name, value) pair, used both for JSON object
// construction and ordinary SELECT-list aliasing.
type KV struct {
	Key   string
	Value Fragment
}

// ArrayOps builds the array/list scalar-filter and mutation operators
// (§4.3 "has, hasEvery, hasSome, isEmpty"; §4.9 "push, unshift").
type ArrayOps interface {
	Has(col Fragment, v any) Fragment
	HasEvery(col Fragment, vs []any) Fragment
	HasSome(col Fragment, vs []any) Fragment
	IsEmpty(col Fragment) Fragment
	Push(col Fragment, v any) Fragment
	Unshift(col Fragment, v any) Fragment
}

// OrderByOps renders one ORDER BY term.
type OrderByOps interface {
	// Order renders "col ASC|DESC [NULLS FIRST|LAST]"; nulls is "" when
	// unspecified, in which case the dialect default applies (or the
	// NULLS clause is elided on dialects that don't support it).
	Order(col Fragment, desc bool, nulls string) Fragment
}

// Aggregates builds aggregate-function call fragments.
type Aggregates interface {
	Count(expr Fragment) Fragment
	CountStar() Fragment
	Sum(expr Fragment) Fragment
	Avg(expr Fragment) Fragment
	Min(expr Fragment) Fragment
	Max(expr Fragment) Fragment
}

// Filters wraps a correlated subquery's body into the correct EXISTS /
// NOT EXISTS shape for to-many and to-one relation filters (§4.4).
type Filters interface {
	// Some wraps body (correlation AND innerWhere) in EXISTS(...).
	Some(body Fragment) Fragment
	// Every wraps body as NOT EXISTS(correlation AND NOT(innerWhere)).
	Every(correlation, innerWhere Fragment) Fragment
	// None wraps body in NOT EXISTS(...).
	None(body Fragment) Fragment
	// Is renders the to-one positive EXISTS form.
	Is(body Fragment) Fragment
	// IsNot renders the to-one negative NOT EXISTS form.
	IsNot(body Fragment) Fragment
}

// Mutations builds INSERT/UPDATE/DELETE statements and their dialect-
// specific upsert/returning surface (§4.1, §4.10, §4.11).
type Mutations interface {
	Insert(table string, columns []string, rows [][]Fragment) Fragment
	Update(table string, set []KV, where Fragment) Fragment
	Delete(table string, where Fragment) Fragment
	// Returning renders "RETURNING cols" or the empty fragment when the
	// dialect lacks RETURNING (§4.1).
	Returning(columns []string) Fragment
	// OnConflict renders the dialect's upsert clause: Postgres/SQLite
	// "ON CONFLICT (keys) DO UPDATE SET ..." / "DO NOTHING", MySQL
	// "ON DUPLICATE KEY UPDATE ...". doNothing takes priority over set.
	OnConflict(conflictColumns []string, set []KV, doNothing bool) Fragment
	// LastInsertID renders the statement used to recover an
	// auto-generated PK on dialects without RETURNING (§4.11).
	LastInsertID() Fragment
}

// Joins builds JOIN clause fragments. Lateral variants are only valid
// when Capabilities().SupportsLateralJoins is true; callers check the
// capability before calling Lateral/LateralLeft (§4.1).
type Joins interface {
	Inner(table Fragment, on Fragment) Fragment
	Left(table Fragment, on Fragment) Fragment
	Right(table Fragment, on Fragment) Fragment
	Full(table Fragment, on Fragment) Fragment
	Cross(table Fragment) Fragment
	Lateral(table Fragment, on Fragment) Fragment
	LateralLeft(table Fragment, on Fragment) Fragment
}

// SetOps builds set-operation fragments (UNION [ALL], INTERSECT, EXCEPT).
type SetOps interface {
	Union(a, b Fragment) Fragment
	UnionAll(a, b Fragment) Fragment
	Intersect(a, b Fragment) Fragment
	Except(a, b Fragment) Fragment
}

// VectorOps builds vector-similarity expressions, valid only when
// Capabilities().SupportsVector is true.
type VectorOps interface {
	// CosineDistance renders the dialect's nearest-neighbour distance
	// operator between a vector column and a literal query vector.
	CosineDistance(col Fragment, query []float32) Fragment
}

// GeospatialOps builds spatial predicate/expression fragments, valid only
// when Capabilities().SupportsGeospatial is true.
type GeospatialOps interface {
	DWithin(col Fragment, lon, lat, meters float64) Fragment
}

// unsupported is an error value naming a dialect and a feature it lacks.
// No adapter in this package returns it: the MySQL and SQLite
// Vector()/Geospatial() surfaces render the empty fragment instead, and
// callers are expected to consult Capabilities() before using them.
type unsupported struct {
	dialect, feature string
}

func (u unsupported) Error() string {
	return fmt.Sprintf("%s does not support %s", u.dialect, u.feature)
}
