package sql

// mysqlAdapter implements Adapter for MySQL: ? placeholders, backtick
// identifiers, JSON_ARRAYAGG-based aggregation, and ON DUPLICATE KEY
// UPDATE in place of RETURNING.
type mysqlAdapter struct {
	ident Identifiers
	ops   Operators
}

// NewMySQL returns the MySQL dialect adapter.
func NewMySQL() Adapter {
	ident := quotedIdentifiers{quote: '`'}
	return &mysqlAdapter{ident: ident, ops: mysqlOperators{baseOperators{ident: ident}}}
}

// mysqlOperators degrades ILike/NotILike to lower(col) LIKE ? with the
// pattern lowercased in Go (lowerFallbackILike): MySQL's LIKE is already
// case-insensitive under the default collation, but there is no ILIKE
// keyword to route callers through.
type mysqlOperators struct{ baseOperators }

func (o mysqlOperators) ILike(col Fragment, pattern string) Fragment {
	return lowerFallbackILike(col, pattern, false)
}

func (o mysqlOperators) NotILike(col Fragment, pattern string) Fragment {
	return lowerFallbackILike(col, pattern, true)
}

func (a *mysqlAdapter) Name() string            { return "mysql" }
func (a *mysqlAdapter) Style() PlaceholderStyle { return QuestionStyle{} }
func (a *mysqlAdapter) Identifiers() Identifiers { return a.ident }
func (a *mysqlAdapter) Operators() Operators     { return a.ops }
func (a *mysqlAdapter) Aggregates() Aggregates   { return baseAggregates{} }
func (a *mysqlAdapter) Filters() Filters         { return baseFilters{ops: a.ops} }
func (a *mysqlAdapter) SetOps() SetOps           { return baseSetOps{} }
func (a *mysqlAdapter) JSON() JSONOps            { return mysqlJSON{} }
func (a *mysqlAdapter) Arrays() ArrayOps         { return mysqlArrays{} }
func (a *mysqlAdapter) OrderBy() OrderByOps      { return mysqlOrderBy{} }
func (a *mysqlAdapter) Mutations() Mutations     { return mysqlMutations{} }
func (a *mysqlAdapter) Joins() Joins             { return mysqlJoins{} }
func (a *mysqlAdapter) Vector() VectorOps        { return mysqlVector{} }
func (a *mysqlAdapter) Geospatial() GeospatialOps { return mysqlGeospatial{} }

func (a *mysqlAdapter) Capabilities() Capabilities {
	return Capabilities{
		SupportsReturning:        false,
		SupportsCteWithMutations: false,
		SupportsFullOuterJoin:    false,
		SupportsLateralJoins:     false,
		SupportsTransactions:     true,
		SupportsVector:           false,
		SupportsGeospatial:       false,
		SupportsNativeILIKE:      false,
	}
}

type mysqlJSON struct{}

func (mysqlJSON) Object(pairs []KV) Fragment {
	if len(pairs) == 0 {
		return Raw("JSON_OBJECT()")
	}
	args := make([]Fragment, 0, len(pairs)*2)
	for _, p := range pairs {
		args = append(args, jsonKeyLiteral(p.Key), p.Value)
	}
	return Concat(Raw("JSON_OBJECT("), Join(", ", args...), Raw(")"))
}

func (j mysqlJSON) ObjectFromColumns(pairs []KV) Fragment { return j.Object(pairs) }

func (mysqlJSON) Agg(inner Fragment) Fragment {
	return Concat(Raw("COALESCE(JSON_ARRAYAGG("), inner, Raw("), JSON_ARRAY())"))
}

func (mysqlJSON) EmptyArray() Fragment { return Raw("JSON_ARRAY()") }

func (mysqlJSON) Extract(col Fragment, path string) Fragment {
	return Concat(Raw("JSON_EXTRACT("), col, Raw(", "), Param(path), Raw(")"))
}

func (mysqlJSON) ExtractText(col Fragment, path string) Fragment {
	return Concat(Raw("JSON_UNQUOTE(JSON_EXTRACT("), col, Raw(", "), Param(path), Raw("))"))
}

// mysqlArrays emulates list-valued columns on top of MySQL's JSON type:
// there is no native array, so "has"/"hasEvery"/"hasSome" compile to
// JSON_CONTAINS and push/unshift to JSON_ARRAY_APPEND/JSON_ARRAY_INSERT.
type mysqlArrays struct{}

func (mysqlArrays) Has(col Fragment, v any) Fragment {
	return Concat(Raw("JSON_CONTAINS("), col, Raw(", JSON_QUOTE("), Param(v), Raw("))"))
}

func (mysqlArrays) HasEvery(col Fragment, vs []any) Fragment {
	parts := make([]Fragment, len(vs))
	for i, v := range vs {
		parts[i] = Concat(Raw("JSON_CONTAINS("), col, Raw(", JSON_QUOTE("), Param(v), Raw("))"))
	}
	return Wrap(Join(" AND ", parts...))
}

func (mysqlArrays) HasSome(col Fragment, vs []any) Fragment {
	parts := make([]Fragment, len(vs))
	for i, v := range vs {
		parts[i] = Concat(Raw("JSON_CONTAINS("), col, Raw(", JSON_QUOTE("), Param(v), Raw("))"))
	}
	return Wrap(Join(" OR ", parts...))
}

func (mysqlArrays) IsEmpty(col Fragment) Fragment {
	return Concat(Raw("JSON_LENGTH("), col, Raw(") = 0"))
}

func (mysqlArrays) Push(col Fragment, v any) Fragment {
	return Concat(Raw("JSON_ARRAY_APPEND("), col, Raw(", '$', "), Param(v), Raw(")"))
}

func (mysqlArrays) Unshift(col Fragment, v any) Fragment {
	return Concat(Raw("JSON_ARRAY_INSERT("), col, Raw(", '$[0]', "), Param(v), Raw(")"))
}

type mysqlOrderBy struct{}

// Order ignores the nulls directive: MySQL has no NULLS FIRST/LAST and
// its default null-sorts-first ordering can't be overridden without a
// CASE expression the rest of this module doesn't need (§4.1 "degrades
// to a no-op on dialects that don't support it").
func (mysqlOrderBy) Order(col Fragment, desc bool, nulls string) Fragment {
	dir := " ASC"
	if desc {
		dir = " DESC"
	}
	return Concat(col, Raw(dir))
}

type mysqlMutations struct{}

func (mysqlMutations) Insert(table string, columns []string, rows [][]Fragment) Fragment {
	return renderInsert(quotedIdentifiers{quote: '`'}, table, columns, rows)
}

func (mysqlMutations) Update(table string, set []KV, where Fragment) Fragment {
	return renderUpdate(quotedIdentifiers{quote: '`'}, table, set, where)
}

func (mysqlMutations) Delete(table string, where Fragment) Fragment {
	return renderDelete(quotedIdentifiers{quote: '`'}, table, where)
}

func (mysqlMutations) Returning(columns []string) Fragment { return Empty() }

func (mysqlMutations) OnConflict(conflictColumns []string, set []KV, doNothing bool) Fragment {
	ident := quotedIdentifiers{quote: '`'}
	if doNothing {
		// MySQL has no "DO NOTHING"; the nearest equivalent re-assigns the
		// first conflict column to itself, a no-op write.
		if len(conflictColumns) == 0 {
			return Empty()
		}
		col := ident.Escape(conflictColumns[0])
		return Raw("ON DUPLICATE KEY UPDATE " + col + " = " + col)
	}
	return Concat(Raw("ON DUPLICATE KEY UPDATE "), renderSetList(ident, set))
}

func (mysqlMutations) LastInsertID() Fragment { return Raw("SELECT LAST_INSERT_ID()") }

// mysqlJoins embeds baseJoins for the standard forms; Lateral/LateralLeft
// are unreachable because Capabilities().SupportsLateralJoins is false —
// the build layer always falls back to a correlated subquery instead of
// calling these (§4.1).
type mysqlJoins struct{ baseJoins }

func (mysqlJoins) Lateral(table, on Fragment) Fragment     { return Concat(table, Raw(" ON "), on) }
func (mysqlJoins) LateralLeft(table, on Fragment) Fragment { return Concat(table, Raw(" ON "), on) }

// mysqlVector is unreachable: Capabilities().SupportsVector is false.
type mysqlVector struct{}

func (mysqlVector) CosineDistance(col Fragment, query []float32) Fragment { return Empty() }

// mysqlGeospatial is unreachable: Capabilities().SupportsGeospatial is false.
type mysqlGeospatial struct{}

func (mysqlGeospatial) DWithin(col Fragment, lon, lat, meters float64) Fragment { return Empty() }
