package schema

import "sort"

// Registry is a read-only-after-construction index of every Model in a
// schema. It is the thunk-resolution target: a Relation's Target closure
// typically calls registry.MustModel(name) rather than holding a direct
// pointer, which is what lets models reference each other regardless of
// declaration order (§3.2, §9 "Cyclic model graph").
type Registry struct {
	byName      map[string]*Model
	byTableName map[string]*Model
}

// NewRegistry builds a Registry from a name -> Model map, mirroring the
// engine surface's `createModelRegistry({name: Model, ...})` (§6). It is
// the only place the indexes are built; afterwards the Registry is shared
// freely and never mutated (§5 "Shared resources").
func NewRegistry(models map[string]*Model) (*Registry, error) {
	r := &Registry{
		byName:      make(map[string]*Model, len(models)),
		byTableName: make(map[string]*Model, len(models)),
	}
	for name, m := range models {
		r.byName[name] = m
		r.byTableName[m.TableName()] = m
	}
	for _, name := range r.sortedNames() {
		if err := r.byName[name].Validate(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) sortedNames() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Model looks up a model by logical name.
func (r *Registry) Model(name string) (*Model, bool) {
	m, ok := r.byName[name]
	return m, ok
}

// MustModel looks up a model by logical name, intended for use inside a
// ModelThunk where the name is known to exist by construction; returns nil
// rather than panicking so a genuinely missing model surfaces as a
// CompileError at the call site instead of a stack trace.
func (r *Registry) MustModel(name string) *Model {
	return r.byName[name]
}

// ModelByTable looks up a model by its physical table name.
func (r *Registry) ModelByTable(table string) (*Model, bool) {
	m, ok := r.byTableName[table]
	return m, ok
}

// Models returns every registered model, sorted by name for deterministic
// iteration (tests, migrations-adjacent tooling).
func (r *Registry) Models() []*Model {
	names := r.sortedNames()
	out := make([]*Model, 0, len(names))
	for _, n := range names {
		out = append(out, r.byName[n])
	}
	return out
}
