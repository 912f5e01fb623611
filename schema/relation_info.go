package schema

import (
	"fmt"

	"github.com/beynar/relquery"
)

// RelationInfo is the derived view of a Relation spec.md §3.4 describes:
// everything a builder needs without re-deriving it from the raw Relation
// and target Model on every use.
type RelationInfo struct {
	Name        string
	Relation    *Relation
	TargetModel *Model
	Type        RelationType
	IsToMany    bool
	IsToOne     bool
	IsOptional  bool
	Fields      []string
	References  []string
}

// ResolveRelation looks up a named relation on model and resolves its
// target, returning the derived RelationInfo. Returns a CompileError if the
// relation or its target is unknown.
func ResolveRelation(model *Model, name string) (*RelationInfo, error) {
	r, ok := model.Relation(name)
	if !ok {
		return nil, relquery.NewCompileError(model.Name, name, "unknown relation")
	}
	target := r.resolve()
	if target == nil {
		return nil, relquery.NewCompileError(model.Name, name, "relation target did not resolve")
	}
	return &RelationInfo{
		Name:        name,
		Relation:    r,
		TargetModel: target,
		Type:        r.Type,
		IsToMany:    r.Type.IsToMany(),
		IsToOne:     !r.Type.IsToMany(),
		IsOptional:  r.Optional,
		Fields:      r.Fields,
		References:  r.References,
	}, nil
}

// FKDirection describes which side of a relation owns the foreign key
// column(s), resolved per spec.md §3.5.
type FKDirection struct {
	HoldsFK  bool
	FKFields []string // on the FK-holding model
	PKFields []string // on the referenced model
}

// ResolveFKDirection computes the FK direction for a relation already
// resolved into a RelationInfo. For manyToOne/oneToOne with explicit
// fields, the current model holds the FK. For the inverse side (oneToMany,
// or oneToOne without fields) the target model holds it; its fields are
// discovered by scanning the target's relations for one pointing back at
// model with matching fields (§3.5). manyToMany has no direct FK and
// returns HoldsFK=false with empty field lists — callers must route it
// through the junction-table path instead (§4.7).
func ResolveFKDirection(model *Model, info *RelationInfo) (*FKDirection, error) {
	switch info.Type {
	case ManyToMany:
		return &FKDirection{}, nil
	case ManyToOne:
		if len(info.Fields) == 0 {
			return nil, relquery.NewCompileError(model.Name, info.Name, "manyToOne relation must declare fields")
		}
		return &FKDirection{HoldsFK: true, FKFields: info.Fields, PKFields: info.References}, nil
	case OneToOne:
		if len(info.Fields) > 0 {
			return &FKDirection{HoldsFK: true, FKFields: info.Fields, PKFields: info.References}, nil
		}
		fallthrough
	case OneToMany:
		inv, err := findInverse(model, info.TargetModel, info.Name)
		if err != nil {
			return nil, err
		}
		return &FKDirection{HoldsFK: false, FKFields: inv.Fields, PKFields: inv.References}, nil
	default:
		return nil, relquery.NewCompileError(model.Name, info.Name, "unknown relation type")
	}
}

// findInverse scans target's relations for one whose resolved target is
// model and which declares explicit fields (i.e. the FK-holding side).
func findInverse(model, target *Model, forward string) (*Relation, error) {
	for _, r := range target.Relations() {
		if len(r.Fields) == 0 {
			continue
		}
		rt := r.resolve()
		if rt == nil || rt.Name != model.Name {
			continue
		}
		return r, nil
	}
	return nil, relquery.NewCompileError(model.Name, forward,
		fmt.Sprintf("no inverse relation found on %q pointing back with explicit fields", target.Name))
}
