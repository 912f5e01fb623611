package sql

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// caseFolder performs Unicode-aware lowercasing of ILIKE patterns before
// they're bound as parameters. A plain strings.ToLower only handles the
// ASCII and simple Unicode cases; cases.Lower also folds the handful of
// multi-rune and locale-sensitive mappings (e.g. Turkish dotless i)
// correctly, so a pattern lowered here matches what lower(col) produces
// in the database for ordinary Unicode column data.
var caseFolder = cases.Lower(language.Und)

// baseOperators implements every Operators method whose SQL spelling is
// identical across PostgreSQL, MySQL, and SQLite. Each dialect embeds it
// and overrides only the handful of methods that actually vary (ILIKE).
type baseOperators struct{ ident Identifiers }

func (o baseOperators) binary(col Fragment, op string, v any) Fragment {
	return Concat(col, Raw(" "+op+" "), Param(v))
}

func (o baseOperators) EQ(col Fragment, v any) Fragment  { return o.binary(col, "=", v) }
func (o baseOperators) NEQ(col Fragment, v any) Fragment { return o.binary(col, "<>", v) }
func (o baseOperators) LT(col Fragment, v any) Fragment  { return o.binary(col, "<", v) }
func (o baseOperators) LTE(col Fragment, v any) Fragment { return o.binary(col, "<=", v) }
func (o baseOperators) GT(col Fragment, v any) Fragment  { return o.binary(col, ">", v) }
func (o baseOperators) GTE(col Fragment, v any) Fragment { return o.binary(col, ">=", v) }

func (o baseOperators) Like(col Fragment, pattern string) Fragment {
	return Concat(col, Raw(" LIKE "), Param(pattern))
}

func (o baseOperators) NotLike(col Fragment, pattern string) Fragment {
	return Concat(col, Raw(" NOT LIKE "), Param(pattern))
}

// lowerFallbackILike renders a case-insensitive match on dialects without
// a native ILIKE operator: lower(col) LIKE ? (§4.1 "ilike degrades on
// dialects lacking native case-insensitive LIKE"). The pattern is folded
// to lowercase in Go via caseFolder rather than with a second SQL
// lower(...) call, so the comparison uses the same Unicode case-folding
// rules applied to the pattern before the column's own lower(col).
func lowerFallbackILike(col Fragment, pattern string, negate bool) Fragment {
	op := " LIKE "
	if negate {
		op = " NOT LIKE "
	}
	return Concat(Raw("lower("), col, Raw(")"+op), Param(caseFolder.String(pattern)))
}

func (o baseOperators) In(col Fragment, vs []any) Fragment {
	if len(vs) == 0 {
		// §4.3: empty array elides; the where builder never calls In
		// with an empty slice, but guard for direct callers too.
		return Raw("1 = 0")
	}
	parts := make([]Fragment, len(vs))
	for i, v := range vs {
		parts[i] = Param(v)
	}
	return Concat(col, Raw(" IN ("), Join(", ", parts...), Raw(")"))
}

func (o baseOperators) NotIn(col Fragment, vs []any) Fragment {
	if len(vs) == 0 {
		return Raw("1 = 1")
	}
	parts := make([]Fragment, len(vs))
	for i, v := range vs {
		parts[i] = Param(v)
	}
	return Concat(col, Raw(" NOT IN ("), Join(", ", parts...), Raw(")"))
}

func (o baseOperators) IsNull(col Fragment) Fragment    { return Concat(col, Raw(" IS NULL")) }
func (o baseOperators) IsNotNull(col Fragment) Fragment { return Concat(col, Raw(" IS NOT NULL")) }

func (o baseOperators) Between(col Fragment, lo, hi any) Fragment {
	return Concat(col, Raw(" BETWEEN "), Param(lo), Raw(" AND "), Param(hi))
}

func (o baseOperators) NotBetween(col Fragment, lo, hi any) Fragment {
	return Concat(col, Raw(" NOT BETWEEN "), Param(lo), Raw(" AND "), Param(hi))
}

func (o baseOperators) And(parts ...Fragment) Fragment {
	return wrapLogical(parts, " AND ")
}

func (o baseOperators) Or(parts ...Fragment) Fragment {
	return wrapLogical(parts, " OR ")
}

// wrapLogical joins non-empty parts with sep, wrapping each multi-token
// operand in parens so precedence survives composition, and elides the
// whole group when every operand is empty (§4.3 "Empty logical groups
// produce nothing and are elided").
func wrapLogical(parts []Fragment, sep string) Fragment {
	var kept []Fragment
	for _, p := range parts {
		if !p.IsEmpty() {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return Empty()
	case 1:
		return kept[0]
	default:
		wrapped := make([]Fragment, len(kept))
		for i, k := range kept {
			wrapped[i] = Wrap(k)
		}
		return Join(sep, wrapped...)
	}
}

func (o baseOperators) Not(f Fragment) Fragment {
	if f.IsEmpty() {
		return Empty()
	}
	return Concat(Raw("NOT "), Wrap(f))
}

func (o baseOperators) Exists(subquery Fragment) Fragment {
	return Concat(Raw("EXISTS ("), subquery, Raw(")"))
}

func (o baseOperators) NotExists(subquery Fragment) Fragment {
	return Concat(Raw("NOT EXISTS ("), subquery, Raw(")"))
}

// baseFilters implements Filters identically for every dialect: the
// EXISTS/NOT EXISTS shape in §4.4 does not vary by dialect, only the
// correlation/inner-where fragments spliced into it do.
type baseFilters struct{ ops Operators }

func (f baseFilters) Some(body Fragment) Fragment { return f.ops.Exists(body) }
func (f baseFilters) None(body Fragment) Fragment { return f.ops.NotExists(body) }
func (f baseFilters) Is(body Fragment) Fragment   { return f.ops.Exists(body) }
func (f baseFilters) IsNot(body Fragment) Fragment { return f.ops.NotExists(body) }

func (f baseFilters) Every(correlation, innerWhere Fragment) Fragment {
	body := correlation
	if !innerWhere.IsEmpty() {
		body = Concat(correlation, Raw(" AND "), f.ops.Not(innerWhere))
	}
	return f.ops.NotExists(body)
}

// baseAggregates implements Aggregates identically across dialects.
type baseAggregates struct{}

func (baseAggregates) Count(expr Fragment) Fragment { return Concat(Raw("COUNT("), expr, Raw(")")) }
func (baseAggregates) CountStar() Fragment          { return Raw("COUNT(*)") }
func (baseAggregates) Sum(expr Fragment) Fragment   { return Concat(Raw("SUM("), expr, Raw(")")) }
func (baseAggregates) Avg(expr Fragment) Fragment   { return Concat(Raw("AVG("), expr, Raw(")")) }
func (baseAggregates) Min(expr Fragment) Fragment   { return Concat(Raw("MIN("), expr, Raw(")")) }
func (baseAggregates) Max(expr Fragment) Fragment   { return Concat(Raw("MAX("), expr, Raw(")")) }

// baseSetOps implements the ANSI set operations identically.
type baseSetOps struct{}

func (baseSetOps) Union(a, b Fragment) Fragment     { return Concat(a, Raw(" UNION "), b) }
func (baseSetOps) UnionAll(a, b Fragment) Fragment  { return Concat(a, Raw(" UNION ALL "), b) }
func (baseSetOps) Intersect(a, b Fragment) Fragment { return Concat(a, Raw(" INTERSECT "), b) }
func (baseSetOps) Except(a, b Fragment) Fragment    { return Concat(a, Raw(" EXCEPT "), b) }

// baseJoins implements the non-lateral join forms identically; lateral
// forms are dialect-specific (only Postgres in this module supports
// them) and are provided by each adapter directly.
type baseJoins struct{}

func (baseJoins) Inner(table, on Fragment) Fragment {
	return Concat(Raw("JOIN "), table, Raw(" ON "), on)
}

func (baseJoins) Left(table, on Fragment) Fragment {
	return Concat(Raw("LEFT JOIN "), table, Raw(" ON "), on)
}

func (baseJoins) Right(table, on Fragment) Fragment {
	return Concat(Raw("RIGHT JOIN "), table, Raw(" ON "), on)
}

func (baseJoins) Full(table, on Fragment) Fragment {
	return Concat(Raw("FULL JOIN "), table, Raw(" ON "), on)
}

func (baseJoins) Cross(table Fragment) Fragment {
	return Concat(Raw("CROSS JOIN "), table)
}

// joinStrings is strings.Join without importing strings into every file
// that only needs this one call.
func joinStrings(parts []string, sep string) string {
	return strings.Join(parts, sep)
}

// jsonKeyLiteral renders a JSON object key as a single-quoted SQL string
// literal, not a bound parameter: keys are statically known at build time
// (the output column name), and every JSON-object-building function
// (json_build_object, JSON_OBJECT, json_object) accepts a literal there.
// Embedded single quotes are doubled per standard SQL string escaping.
func jsonKeyLiteral(key string) Fragment {
	return Raw("'" + strings.ReplaceAll(key, "'", "''") + "'")
}

// renderSetList renders "col1 = $1, col2 = $2, ..." for UPDATE/upsert
// statements; identical shape across dialects, only the identifier
// quoting varies.
func renderSetList(ident Identifiers, set []KV) Fragment {
	parts := make([]Fragment, len(set))
	for i, kv := range set {
		parts[i] = Concat(Raw(ident.Escape(kv.Key)+" = "), kv.Value)
	}
	return Join(", ", parts...)
}

// renderInsert renders "INSERT INTO table (cols) VALUES (...), (...)",
// shared by every dialect; only identifier quoting differs.
func renderInsert(ident Identifiers, table string, columns []string, rows [][]Fragment) Fragment {
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = ident.Escape(c)
	}
	rowFrags := make([]Fragment, len(rows))
	for i, row := range rows {
		rowFrags[i] = Wrap(Join(", ", row...))
	}
	return Concat(
		Raw("INSERT INTO "+ident.Escape(table)+" ("+joinStrings(cols, ", ")+") VALUES "),
		Join(", ", rowFrags...),
	)
}

// renderUpdate renders "UPDATE table SET ... [WHERE ...]".
func renderUpdate(ident Identifiers, table string, set []KV, where Fragment) Fragment {
	f := Concat(Raw("UPDATE "+ident.Escape(table)+" SET "), renderSetList(ident, set))
	if !where.IsEmpty() {
		f = Concat(f, Raw(" WHERE "), where)
	}
	return f
}

// renderDelete renders "DELETE FROM table [WHERE ...]".
func renderDelete(ident Identifiers, table string, where Fragment) Fragment {
	f := Raw("DELETE FROM " + ident.Escape(table))
	if !where.IsEmpty() {
		f = Concat(f, Raw(" WHERE "), where)
	}
	return f
}

// renderReturning renders "RETURNING col1, col2, ...".
func renderReturning(ident Identifiers, columns []string) Fragment {
	if len(columns) == 0 {
		return Empty()
	}
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = ident.Escape(c)
	}
	return Raw("RETURNING " + joinStrings(cols, ", "))
}
