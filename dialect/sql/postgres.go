package sql

import "fmt"

// postgresAdapter implements Adapter for PostgreSQL: $n placeholders,
// native arrays, JSONB aggregation, RETURNING, LATERAL joins, and
// pgvector/PostGIS-shaped vector and geospatial operators.
type postgresAdapter struct {
	ident Identifiers
	ops   Operators
}

// NewPostgres returns the PostgreSQL dialect adapter.
func NewPostgres() Adapter {
	ident := quotedIdentifiers{quote: '"'}
	return &postgresAdapter{ident: ident, ops: postgresOperators{baseOperators{ident: ident}}}
}

func (a *postgresAdapter) Name() string             { return "postgresql" }
func (a *postgresAdapter) Style() PlaceholderStyle   { return DollarStyle{} }
func (a *postgresAdapter) Identifiers() Identifiers  { return a.ident }
func (a *postgresAdapter) Operators() Operators      { return a.ops }
func (a *postgresAdapter) Aggregates() Aggregates    { return baseAggregates{} }
func (a *postgresAdapter) Filters() Filters          { return baseFilters{ops: a.ops} }
func (a *postgresAdapter) SetOps() SetOps            { return baseSetOps{} }
func (a *postgresAdapter) JSON() JSONOps             { return postgresJSON{} }
func (a *postgresAdapter) Arrays() ArrayOps          { return postgresArrays{} }
func (a *postgresAdapter) OrderBy() OrderByOps       { return postgresOrderBy{} }
func (a *postgresAdapter) Mutations() Mutations      { return postgresMutations{} }
func (a *postgresAdapter) Joins() Joins              { return postgresJoins{} }
func (a *postgresAdapter) Vector() VectorOps         { return postgresVector{} }
func (a *postgresAdapter) Geospatial() GeospatialOps { return postgresGeospatial{} }

func (a *postgresAdapter) Capabilities() Capabilities {
	return Capabilities{
		SupportsReturning:        true,
		SupportsCteWithMutations: true,
		SupportsFullOuterJoin:    true,
		SupportsLateralJoins:     true,
		SupportsTransactions:     true,
		SupportsVector:           true,
		SupportsGeospatial:       true,
		SupportsNativeILIKE:      true,
	}
}

type postgresOperators struct{ baseOperators }

func (o postgresOperators) ILike(col Fragment, pattern string) Fragment {
	return Concat(col, Raw(" ILIKE "), Param(pattern))
}

func (o postgresOperators) NotILike(col Fragment, pattern string) Fragment {
	return Concat(col, Raw(" NOT ILIKE "), Param(pattern))
}

type postgresJSON struct{}

func (postgresJSON) Object(pairs []KV) Fragment {
	if len(pairs) == 0 {
		return Raw("json_build_object()")
	}
	args := make([]Fragment, 0, len(pairs)*2)
	for _, p := range pairs {
		args = append(args, jsonKeyLiteral(p.Key), p.Value)
	}
	return Concat(Raw("json_build_object("), Join(", ", args...), Raw(")"))
}

func (j postgresJSON) ObjectFromColumns(pairs []KV) Fragment { return j.Object(pairs) }

func (postgresJSON) Agg(inner Fragment) Fragment {
	return Concat(Raw("COALESCE(json_agg("), inner, Raw("), '[]'::json)"))
}

func (postgresJSON) EmptyArray() Fragment { return Raw("'[]'::json") }

func (postgresJSON) Extract(col Fragment, path string) Fragment {
	return Concat(col, Raw(" -> "), Param(path))
}

func (postgresJSON) ExtractText(col Fragment, path string) Fragment {
	return Concat(col, Raw(" ->> "), Param(path))
}

type postgresArrays struct{}

func (postgresArrays) Has(col Fragment, v any) Fragment {
	return Concat(col, Raw(" @> ARRAY["), Param(v), Raw("]"))
}

func (postgresArrays) HasEvery(col Fragment, vs []any) Fragment {
	parts := make([]Fragment, len(vs))
	for i, v := range vs {
		parts[i] = Param(v)
	}
	return Concat(col, Raw(" @> ARRAY["), Join(", ", parts...), Raw("]"))
}

func (postgresArrays) HasSome(col Fragment, vs []any) Fragment {
	parts := make([]Fragment, len(vs))
	for i, v := range vs {
		parts[i] = Param(v)
	}
	return Concat(col, Raw(" && ARRAY["), Join(", ", parts...), Raw("]"))
}

func (postgresArrays) IsEmpty(col Fragment) Fragment {
	return Concat(Raw("cardinality("), col, Raw(") = 0"))
}

func (postgresArrays) Push(col Fragment, v any) Fragment {
	return Concat(Raw("array_append("), col, Raw(", "), Param(v), Raw(")"))
}

func (postgresArrays) Unshift(col Fragment, v any) Fragment {
	return Concat(Raw("array_prepend("), Param(v), Raw(", "), col, Raw(")"))
}

type postgresOrderBy struct{}

func (postgresOrderBy) Order(col Fragment, desc bool, nulls string) Fragment {
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

type postgresMutations struct{}

func (postgresMutations) Insert(table string, columns []string, rows [][]Fragment) Fragment {
	return renderInsert(quotedIdentifiers{quote: '"'}, table, columns, rows)
}

func (postgresMutations) Update(table string, set []KV, where Fragment) Fragment {
	return renderUpdate(quotedIdentifiers{quote: '"'}, table, set, where)
}

func (postgresMutations) Delete(table string, where Fragment) Fragment {
	return renderDelete(quotedIdentifiers{quote: '"'}, table, where)
}

func (postgresMutations) Returning(columns []string) Fragment {
	return renderReturning(quotedIdentifiers{quote: '"'}, columns)
}

func (postgresMutations) OnConflict(conflictColumns []string, set []KV, doNothing bool) Fragment {
	ident := quotedIdentifiers{quote: '"'}
	cols := make([]string, len(conflictColumns))
	for i, c := range conflictColumns {
		cols[i] = ident.Escape(c)
	}
	f := Concat(Raw("ON CONFLICT ("+joinStrings(cols, ", ")+") DO "))
	if doNothing {
		return Concat(f, Raw("NOTHING"))
	}
	return Concat(f, Raw("UPDATE SET "), renderSetList(ident, set))
}

func (postgresMutations) LastInsertID() Fragment { return Empty() }

type postgresJoins struct{ baseJoins }

func (postgresJoins) Lateral(table, on Fragment) Fragment {
	return Concat(Raw("JOIN LATERAL "), table, Raw(" ON "), on)
}

func (postgresJoins) LateralLeft(table, on Fragment) Fragment {
	return Concat(Raw("LEFT JOIN LATERAL "), table, Raw(" ON "), on)
}

type postgresVector struct{}

func (postgresVector) CosineDistance(col Fragment, query []float32) Fragment {
	return Concat(col, Raw(" <=> "), Param(fmt.Sprint(query)), Raw("::vector"))
}

type postgresGeospatial struct{}

func (postgresGeospatial) DWithin(col Fragment, lon, lat, meters float64) Fragment {
	return Concat(Raw("ST_DWithin("), col, Raw(", ST_MakePoint("), Param(lon), Raw(", "), Param(lat),
		Raw(")::geography, "), Param(meters), Raw(")"))
}
