package schema

import (
	"strings"

	atlas "ariga.io/atlas/sql/schema"
)

// FromAtlas builds Models from an already-introspected Atlas schema,
// for callers who ran `atlas inspect` (or atlas's Go driver) themselves
// and would rather hydrate a Registry from that than hand-write every
// Model. It only reads Table/Column shape: no relation is inferred, the
// way the teacher's own atlas usage (compiler/gen/type_field.go) only
// ever asks atlas for column type strings to drive postgres migration
// diffing, never for a full object graph.
//
// Every returned Model still needs AddRelation calls before it is useful
// for nested reads/writes; FromAtlas only saves the scalar-field
// boilerplate.
func FromAtlas(s *atlas.Schema) map[string]*Model {
	models := make(map[string]*Model, len(s.Tables))
	for _, table := range s.Tables {
		m := NewModel(table.Name, table.Name)
		for _, col := range table.Columns {
			m.AddField(fieldFromAtlasColumn(col))
		}
		if pk := table.PrimaryKey; pk != nil {
			names := make([]string, 0, len(pk.Parts))
			for _, part := range pk.Parts {
				if part.C == nil {
					continue
				}
				if f, ok := m.Field(part.C.Name); ok {
					f.IsID = true
				}
				names = append(names, part.C.Name)
			}
			if len(names) > 1 {
				m.CompoundID = names
			}
		}
		models[table.Name] = m
	}
	return models
}

// fieldFromAtlasColumn converts one atlas.Column into a Field, sniffing
// the underlying type from the raw DB type string rather than the
// dialect-specific atlas Type implementations (*postgres.SerialType,
// *mysql.BitType, ...) — raw strings are portable across the three
// atlas drivers this module cares about, dialect-specific Go types are
// not.
func fieldFromAtlasColumn(col *atlas.Column) *Field {
	f := &Field{Name: col.Name, Column: col.Name}
	if col.Type != nil {
		f.Nullable = col.Type.Null
		f.Type = atlasRawTypeToFieldType(col.Type.Raw)
	}
	return f
}

func atlasRawTypeToFieldType(raw string) Type {
	t := strings.ToLower(raw)
	switch {
	case strings.Contains(t, "uuid"):
		return TypeUUID
	case strings.Contains(t, "json"):
		return TypeJSON
	case strings.Contains(t, "bool"):
		return TypeBoolean
	case strings.Contains(t, "bigint") || strings.Contains(t, "int8"):
		return TypeBigInt
	case strings.Contains(t, "int"):
		return TypeInt
	case strings.Contains(t, "numeric") || strings.Contains(t, "decimal"):
		return TypeDecimal
	case strings.Contains(t, "double") || strings.Contains(t, "float") || strings.Contains(t, "real"):
		return TypeFloat64
	case strings.Contains(t, "timestamp") || strings.Contains(t, "datetime"):
		return TypeDateTime
	case strings.Contains(t, "date"):
		return TypeDate
	case strings.Contains(t, "time"):
		return TypeTime
	case strings.Contains(t, "blob") || strings.Contains(t, "bytea") || strings.Contains(t, "binary"):
		return TypeBlob
	case strings.Contains(t, "char") || strings.Contains(t, "text"):
		return TypeString
	default:
		return TypeString
	}
}
