package schema

import (
	"sort"
	"strings"

	"github.com/go-openapi/inflect"
)

// JunctionInfo resolves the auxiliary table naming for a manyToMany
// relation (§4.7): the junction table name, the columns on it pointing at
// the source and target primary keys, and the PK field names on each side.
type JunctionInfo struct {
	Table             string
	SourceField       string
	TargetField       string
	SourcePKFields    []string
	TargetPKFields    []string
}

// ResolveJunction derives the junction metadata for a manyToMany relation
// from model to info.TargetModel. Honors explicit overrides on the
// Relation; otherwise derives a deterministic name from the alphabetically
// lower of the two singularized model names, the convention spec.md §4.7
// specifies.
func ResolveJunction(model *Model, info *RelationInfo) *JunctionInfo {
	r := info.Relation
	j := &JunctionInfo{
		SourcePKFields: model.IDFields(),
		TargetPKFields: info.TargetModel.IDFields(),
	}
	if r.JunctionTable != "" {
		j.Table = r.JunctionTable
	} else {
		j.Table = deriveJunctionName(model.Name, info.TargetModel.Name)
	}
	if r.JunctionSourceField != "" {
		j.SourceField = r.JunctionSourceField
	} else {
		j.SourceField = "A"
	}
	if r.JunctionTargetField != "" {
		j.TargetField = r.JunctionTargetField
	} else {
		j.TargetField = "B"
	}
	return j
}

// deriveJunctionName builds "_LowerHigher" from two model names, singular
// and ordered alphabetically, mirroring the common ORM convention of a
// leading underscore plus the two related types joined in sorted order.
func deriveJunctionName(a, b string) string {
	sa, sb := inflect.Singularize(a), inflect.Singularize(b)
	names := []string{sa, sb}
	sort.Strings(names)
	var sb2 strings.Builder
	sb2.WriteByte('_')
	sb2.WriteString(names[0])
	sb2.WriteString(names[1])
	return sb2.String()
}
