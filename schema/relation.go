package schema

// RelationType enumerates the four relation shapes a Model can declare.
// Names follow the same to-one/to-many vocabulary spec.md uses throughout
// (§3.2, §3.5): manyToOne and the to-one side of oneToOne hold the foreign
// key; oneToMany and the inverse oneToOne side do not.
type RelationType uint8

const (
	OneToOne RelationType = iota
	ManyToOne
	OneToMany
	ManyToMany
)

// IsToMany reports whether a relation of this type yields a collection.
func (t RelationType) IsToMany() bool {
	return t == OneToMany || t == ManyToMany
}

// ModelThunk lazily resolves the target Model of a relation. Models are
// declared independently of their definition order and reference each
// other cyclically, so the target is resolved through the Registry rather
// than stored as a direct pointer (§3.2 "represented via thunks to break
// definition-order cycles").
type ModelThunk func() *Model

// Relation describes one named edge from a Model to another.
type Relation struct {
	Name   string
	Type   RelationType
	Target ModelThunk

	// Fields/References pair up scalar columns on this model with scalar
	// columns on the target model, one-to-one, in order. Only valid (and
	// only ever set) on the FK-holding side of oneToOne/manyToOne; the
	// inverse side and manyToMany leave both nil (§3.2, §3.5).
	Fields     []string
	References []string

	Optional bool

	// JunctionTable/JunctionSourceField/JunctionTargetField override the derived many-to-many
	// junction naming (§4.7). Zero value means "derive it".
	JunctionTable          string
	JunctionSourceField    string
	JunctionTargetField    string
}

// resolve calls the thunk, memoizing nothing: thunks are expected to be
// cheap registry lookups and are only ever called during compilation, not
// on a hot per-row path.
func (r *Relation) resolve() *Model {
	if r.Target == nil {
		return nil
	}
	return r.Target()
}
