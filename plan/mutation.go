package plan

import (
	"fmt"

	"github.com/beynar/relquery"
	"github.com/beynar/relquery/build"
	"github.com/beynar/relquery/dialect/sql"
	"github.com/beynar/relquery/schema"
)

// relationMutation is one relation key's normalized mutation payload
// (§4.11 step 2): exactly one of the named verbs is set per entry. A
// to-many relation's payload is a slice of entries (one "set" entry
// holding every disconnect-then-connect target in its Value); a to-one
// relation's payload is always a single-entry slice.
type relationMutation struct {
	Verb  string // "connect", "disconnect", "create", "connectOrCreate", "delete", "set"
	Value any    // where-unique (connect/disconnect/delete), create data (create), {where,create} (connectOrCreate), or []any (set)
}

var relationVerbs = map[string]bool{
	"connect": true, "disconnect": true, "create": true,
	"connectOrCreate": true, "delete": true, "set": true,
}

// classifyRelation normalizes one relation key's raw payload into its
// mutation entries. A to-many payload may be a Fields object naming one
// verb (applied to a single item) or naming "create"/"connect"/... with
// an array Value (applied to each item); bare boolean `true`/object
// shorthand is not accepted here — the validator is responsible for
// ensuring nested-write payloads already name an explicit verb.
func classifyRelation(model *schema.Model, key string, payload any, isToMany bool) ([]relationMutation, error) {
	fields, ok := payload.(build.Fields)
	if !ok {
		return nil, relquery.NewCompileError(model.Name, key, "relation write payload must be an object naming a mutation verb")
	}
	var out []relationMutation
	for _, kv := range fields {
		if !relationVerbs[kv.Key] {
			return nil, relquery.NewCompileError(model.Name, key, fmt.Sprintf("unknown relation write verb %q", kv.Key))
		}
		if isToMany && (kv.Key == "create" || kv.Key == "connect" || kv.Key == "disconnect" || kv.Key == "delete" || kv.Key == "connectOrCreate") {
			for _, item := range asItems(kv.Value) {
				out = append(out, relationMutation{Verb: kv.Key, Value: item})
			}
			continue
		}
		out = append(out, relationMutation{Verb: kv.Key, Value: kv.Value})
	}
	return out, nil
}

// asItems accepts either a bare Fields/value (a single item) or a []any
// of them, always returning a slice — a to-many relation write accepts
// either shorthand.
func asItems(v any) []any {
	if items, ok := v.([]any); ok {
		return items
	}
	return []any{v}
}

// connectSubquery renders `(SELECT pkCol FROM target WHERE unique LIMIT
// 1)` for splicing directly into an INSERT/UPDATE value list or a
// junction row (§4.11 step 3's single-statement strategy, and the
// manyToMany connect bucket). It mints its own standalone root context
// rather than descending from the caller's — a write statement's target
// has no meaningful parent alias to correlate against, unlike a SELECT's
// relation filter.
func connectSubquery(adapter sql.Adapter, registry *schema.Registry, target *schema.Model, pkField string, whereUnique build.Fields) (sql.Fragment, error) {
	child := build.NewContext(adapter, registry, target)
	where, err := build.BuildWhereUnique(child, whereUnique)
	if err != nil {
		return sql.Empty(), err
	}
	field, ok := target.Field(pkField)
	if !ok {
		return sql.Empty(), relquery.NewCompileError(target.Name, pkField, "connect references unknown target field")
	}
	return sql.Concat(
		sql.Raw("(SELECT "), child.Column(field), sql.Raw(" FROM "), child.Table(),
		sql.Raw(" WHERE "), where, sql.Raw(" LIMIT 1)"),
	), nil
}
