// Package build implements the recursive fragment builders (C6) that
// walk a validated operation's where/select/include/orderBy/data
// payloads against a schema model, producing SQL fragments through a
// dialect adapter (C2). Builders are pure functions of their inputs: the
// only mutable collaborator threaded through them is the alias generator
// held by Context (§3.3, §5 "fragment builders are pure functions over
// immutable inputs").
package build

import (
	"strconv"

	"github.com/beynar/relquery/dialect/sql"
	"github.com/beynar/relquery/schema"
)

// AliasGenerator hands out monotonically increasing table aliases
// (t0, t1, ...) unique across the compilation of a single operation
// (§3.3). It is the sole mutable state shared by a tree of builder calls.
type AliasGenerator struct {
	n int
}

// NewAliasGenerator returns a generator starting at t0.
func NewAliasGenerator() *AliasGenerator {
	return &AliasGenerator{}
}

// Next returns the next alias and advances the counter.
func (g *AliasGenerator) Next() string {
	a := "t" + strconv.Itoa(g.n)
	g.n++
	return a
}

// Context is the immutable bundle threaded through every builder: the
// current model and its table alias, the adapter compiling fragments for
// the target dialect, the registry resolving relation targets, and the
// alias generator shared by the whole operation (§3.3).
type Context struct {
	Adapter  sql.Adapter
	Registry *schema.Registry
	Model    *schema.Model
	Alias    string
	aliases  *AliasGenerator
}

// NewContext starts a fresh compilation: a new alias generator and a
// root alias for model.
func NewContext(adapter sql.Adapter, registry *schema.Registry, model *schema.Model) *Context {
	aliases := NewAliasGenerator()
	return &Context{
		Adapter:  adapter,
		Registry: registry,
		Model:    model,
		Alias:    aliases.Next(),
		aliases:  aliases,
	}
}

// Child returns a new Context descending into model, sharing this
// context's alias generator and registry but taking a fresh alias
// (§3.3 "A child context shares the alias generator and registry,
// replacing model + root alias when descending into a related table").
func (c *Context) Child(model *schema.Model) *Context {
	return &Context{
		Adapter:  c.Adapter,
		Registry: c.Registry,
		Model:    model,
		Alias:    c.aliases.Next(),
		aliases:  c.aliases,
	}
}

// Column returns a qualified reference to one of the current model's
// scalar fields, using the field's column-name override when present.
func (c *Context) Column(field *schema.Field) sql.Fragment {
	return c.Adapter.Identifiers().Column(c.Alias, field.ColumnName())
}

// Bare returns a copy of this context with no table alias, so Column
// renders unqualified column references. Single-table UPDATE/DELETE
// statements have no FROM-clause alias to qualify against (§4.9, E5),
// unlike the SELECT-path contexts that always sit inside an aliased
// FROM/subquery.
func (c *Context) Bare() *Context {
	cp := *c
	cp.Alias = ""
	return &cp
}

// Table returns the current model's table reference, aliased.
func (c *Context) Table() sql.Fragment {
	return c.Adapter.Identifiers().Table(c.Model.TableName(), c.Alias)
}
