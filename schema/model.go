package schema

import "fmt"

// CompoundUnique names a set of fields that, together, form a unique
// index. Used by the where-unique builder (§4.3) to accept
// `{compoundName: {f1: v1, f2: v2}}` shapes.
type CompoundUnique struct {
	Name   string
	Fields []string
}

// Model describes one table: its logical/physical names, its scalar
// fields, and its relations to other models (§3.2).
type Model struct {
	Name   string // logical name, e.g. "Post"
	Table  string // table name; defaults to Name when empty

	scalars   map[string]*Field
	fieldOrd  []string
	relations map[string]*Relation
	relOrd    []string

	CompoundID      []string
	CompoundUniques []CompoundUnique
}

// NewModel constructs an empty Model. Fields and relations are added with
// AddField/AddRelation, usually from a Registry builder.
func NewModel(name, table string) *Model {
	if table == "" {
		table = name
	}
	return &Model{
		Name:      name,
		Table:     table,
		scalars:   map[string]*Field{},
		relations: map[string]*Relation{},
	}
}

// TableName returns the physical table name.
func (m *Model) TableName() string { return m.Table }

// AddField registers a scalar field on the model.
func (m *Model) AddField(f *Field) *Model {
	if _, exists := m.scalars[f.Name]; !exists {
		m.fieldOrd = append(m.fieldOrd, f.Name)
	}
	m.scalars[f.Name] = f
	return m
}

// AddRelation registers a relation on the model.
func (m *Model) AddRelation(r *Relation) *Model {
	if _, exists := m.relations[r.Name]; !exists {
		m.relOrd = append(m.relOrd, r.Name)
	}
	m.relations[r.Name] = r
	return m
}

// Field looks up a scalar field by logical name.
func (m *Model) Field(name string) (*Field, bool) {
	f, ok := m.scalars[name]
	return f, ok
}

// Fields returns scalar fields in declaration order.
func (m *Model) Fields() []*Field {
	out := make([]*Field, 0, len(m.fieldOrd))
	for _, n := range m.fieldOrd {
		out = append(out, m.scalars[n])
	}
	return out
}

// Relation looks up a relation by name.
func (m *Model) Relation(name string) (*Relation, bool) {
	r, ok := m.relations[name]
	return r, ok
}

// Relations returns relations in declaration order.
func (m *Model) Relations() []*Relation {
	out := make([]*Relation, 0, len(m.relOrd))
	for _, n := range m.relOrd {
		out = append(out, m.relations[n])
	}
	return out
}

// IDFields returns the field(s) forming the model's primary key: either
// the single IsID field, or CompoundID. Panics-free: returns nil if the
// model declares neither. Validate accepts such a model when it declares
// a unique field or a compound unique instead.
func (m *Model) IDFields() []string {
	if len(m.CompoundID) > 0 {
		return m.CompoundID
	}
	for _, n := range m.fieldOrd {
		if m.scalars[n].IsID {
			return []string{n}
		}
	}
	return nil
}

// UniqueFieldSets returns every independently-unique key shape the model
// declares: the id, any single IsUnique scalar, and any CompoundUniques.
// Used by the where-unique builder (§4.3) to validate a `where` shape.
func (m *Model) UniqueFieldSets() [][]string {
	var sets [][]string
	if id := m.IDFields(); len(id) > 0 {
		sets = append(sets, id)
	}
	for _, n := range m.fieldOrd {
		if m.scalars[n].IsUnique {
			sets = append(sets, []string{n})
		}
	}
	for _, cu := range m.CompoundUniques {
		sets = append(sets, cu.Fields)
	}
	return sets
}

// Validate checks the invariants spec.md §3.2 requires of a fully-hydrated
// model: at least one identifying key, and fields/references parity on
// every relation that declares them.
func (m *Model) Validate() error {
	if len(m.IDFields()) == 0 && len(m.CompoundUniques) == 0 {
		hasUnique := false
		for _, n := range m.fieldOrd {
			if m.scalars[n].IsUnique {
				hasUnique = true
				break
			}
		}
		if !hasUnique {
			return fmt.Errorf("model %q declares no id, compound id, or unique field", m.Name)
		}
	}
	for _, name := range m.relOrd {
		r := m.relations[name]
		if r.Type == ManyToMany {
			if len(r.Fields) > 0 || len(r.References) > 0 {
				return fmt.Errorf("model %q relation %q: manyToMany must not declare fields/references", m.Name, name)
			}
			continue
		}
		if len(r.Fields) != len(r.References) {
			return fmt.Errorf("model %q relation %q: fields/references length mismatch (%d vs %d)", m.Name, name, len(r.Fields), len(r.References))
		}
	}
	return nil
}
