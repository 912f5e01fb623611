package sql

// sqliteAdapter implements Adapter for SQLite: ?N positional
// placeholders, double-quoted identifiers, json1-extension aggregation,
// and last_insert_rowid() in place of RETURNING.
type sqliteAdapter struct {
	ident Identifiers
	ops   Operators
}

// NewSQLite returns the SQLite dialect adapter.
func NewSQLite() Adapter {
	ident := quotedIdentifiers{quote: '"'}
	return &sqliteAdapter{ident: ident, ops: sqliteOperators{baseOperators{ident: ident}}}
}

func (a *sqliteAdapter) Name() string            { return "sqlite" }
func (a *sqliteAdapter) Style() PlaceholderStyle { return SQLitePositionalStyle{} }
func (a *sqliteAdapter) Identifiers() Identifiers { return a.ident }
func (a *sqliteAdapter) Operators() Operators     { return a.ops }
func (a *sqliteAdapter) Aggregates() Aggregates   { return baseAggregates{} }
func (a *sqliteAdapter) Filters() Filters         { return baseFilters{ops: a.ops} }
func (a *sqliteAdapter) SetOps() SetOps           { return baseSetOps{} }
func (a *sqliteAdapter) JSON() JSONOps            { return sqliteJSON{} }
func (a *sqliteAdapter) Arrays() ArrayOps         { return sqliteArrays{} }
func (a *sqliteAdapter) OrderBy() OrderByOps      { return sqliteOrderBy{} }
func (a *sqliteAdapter) Mutations() Mutations     { return sqliteMutations{} }
func (a *sqliteAdapter) Joins() Joins             { return sqliteJoins{} }
func (a *sqliteAdapter) Vector() VectorOps        { return sqliteVector{} }
func (a *sqliteAdapter) Geospatial() GeospatialOps { return sqliteGeospatial{} }

func (a *sqliteAdapter) Capabilities() Capabilities {
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

// sqliteOperators degrades ILike/NotILike the same way MySQL does: ASCII
// LIKE in SQLite is already case-insensitive, but there is no ILIKE
// keyword, so callers still get routed through lower(...) for
// consistency with non-ASCII collations that aren't case-folded by default.
type sqliteOperators struct{ baseOperators }

func (o sqliteOperators) ILike(col Fragment, pattern string) Fragment {
	return lowerFallbackILike(col, pattern, false)
}

func (o sqliteOperators) NotILike(col Fragment, pattern string) Fragment {
	return lowerFallbackILike(col, pattern, true)
}

type sqliteJSON struct{}

func (sqliteJSON) Object(pairs []KV) Fragment {
	if len(pairs) == 0 {
		return Raw("json_object()")
	}
	args := make([]Fragment, 0, len(pairs)*2)
	for _, p := range pairs {
		args = append(args, jsonKeyLiteral(p.Key), p.Value)
	}
	return Concat(Raw("json_object("), Join(", ", args...), Raw(")"))
}

func (j sqliteJSON) ObjectFromColumns(pairs []KV) Fragment { return j.Object(pairs) }

func (sqliteJSON) Agg(inner Fragment) Fragment {
	return Concat(Raw("COALESCE(json_group_array("), inner, Raw("), json_array())"))
}

func (sqliteJSON) EmptyArray() Fragment { return Raw("json_array()") }

func (sqliteJSON) Extract(col Fragment, path string) Fragment {
	return Concat(Raw("json_extract("), col, Raw(", "), Param(path), Raw(")"))
}

func (sqliteJSON) ExtractText(col Fragment, path string) Fragment {
	return Concat(Raw("json_extract("), col, Raw(", "), Param(path), Raw(")"))
}

// sqliteArrays emulates list-valued columns on top of SQLite's json1
// extension, via json_each table-valued function subqueries.
type sqliteArrays struct{}

func (sqliteArrays) Has(col Fragment, v any) Fragment {
	return Concat(Raw("EXISTS (SELECT 1 FROM json_each("), col, Raw(") WHERE json_each.value = "), Param(v), Raw(")"))
}

func (a sqliteArrays) HasEvery(col Fragment, vs []any) Fragment {
	parts := make([]Fragment, len(vs))
	for i, v := range vs {
		parts[i] = a.Has(col, v)
	}
	return Wrap(Join(" AND ", parts...))
}

func (a sqliteArrays) HasSome(col Fragment, vs []any) Fragment {
	parts := make([]Fragment, len(vs))
	for i, v := range vs {
		parts[i] = a.Has(col, v)
	}
	return Wrap(Join(" OR ", parts...))
}

func (sqliteArrays) IsEmpty(col Fragment) Fragment {
	return Concat(Raw("json_array_length("), col, Raw(") = 0"))
}

func (sqliteArrays) Push(col Fragment, v any) Fragment {
	return Concat(Raw("json_insert("), col, Raw(", '$[#]', "), Param(v), Raw(")"))
}

func (sqliteArrays) Unshift(col Fragment, v any) Fragment {
	return Concat(Raw("json_insert(json('[]'), '$[0]', "), Param(v), Raw(", '$[1]', json("), col, Raw("))"))
}

type sqliteOrderBy struct{}

func (sqliteOrderBy) Order(col Fragment, desc bool, nulls string) Fragment {
	dir := " ASC"
	if desc {
		dir = " DESC"
	}
	f := Concat(col, Raw(dir))
	switch nulls {
	case "first":
		f = Concat(f, Raw(" NULLS FIRST"))
	case "last":
		f = Concat(f, Raw(" NULLS LAST"))
	}
	return f
}

type sqliteMutations struct{}

func (sqliteMutations) Insert(table string, columns []string, rows [][]Fragment) Fragment {
	return renderInsert(quotedIdentifiers{quote: '"'}, table, columns, rows)
}

func (sqliteMutations) Update(table string, set []KV, where Fragment) Fragment {
	return renderUpdate(quotedIdentifiers{quote: '"'}, table, set, where)
}

func (sqliteMutations) Delete(table string, where Fragment) Fragment {
	return renderDelete(quotedIdentifiers{quote: '"'}, table, where)
}

func (sqliteMutations) Returning(columns []string) Fragment { return Empty() }

func (sqliteMutations) OnConflict(conflictColumns []string, set []KV, doNothing bool) Fragment {
	ident := quotedIdentifiers{quote: '"'}
	cols := make([]string, len(conflictColumns))
	for i, c := range conflictColumns {
		cols[i] = ident.Escape(c)
	}
	f := Concat(Raw("ON CONFLICT (" + joinStrings(cols, ", ") + ") DO "))
	if doNothing {
		return Concat(f, Raw("NOTHING"))
	}
	return Concat(f, Raw("UPDATE SET "), renderSetList(ident, set))
}

func (sqliteMutations) LastInsertID() Fragment { return Raw("SELECT last_insert_rowid()") }

// sqliteJoins embeds baseJoins for the standard forms; Lateral/LateralLeft
// are unreachable because Capabilities().SupportsLateralJoins is false.
type sqliteJoins struct{ baseJoins }

func (sqliteJoins) Lateral(table, on Fragment) Fragment     { return Concat(table, Raw(" ON "), on) }
func (sqliteJoins) LateralLeft(table, on Fragment) Fragment { return Concat(table, Raw(" ON "), on) }

// sqliteVector is unreachable: Capabilities().SupportsVector is false.
type sqliteVector struct{}

func (sqliteVector) CosineDistance(col Fragment, query []float32) Fragment { return Empty() }

// sqliteGeospatial is unreachable: Capabilities().SupportsGeospatial is false.
type sqliteGeospatial struct{}

func (sqliteGeospatial) DWithin(col Fragment, lon, lat, meters float64) Fragment { return Empty() }
