// Package schema describes the in-memory model graph the query engine
// compiles against: models, their scalar fields, and their relations to
// other models. Unlike a fluent codegen DSL, Model/Field/Relation here are
// plain data produced by a Registry and consumed only at runtime.
package schema

// Type enumerates the scalar kinds a Field can hold. Names mirror the
// vocabulary used throughout the dialect adapters so a Field.Type can be
// switched on directly when choosing a literal encoding or a result-parser
// conversion.
type Type uint8

const (
	TypeInvalid Type = iota
	TypeString
	TypeInt
	TypeInt64
	TypeFloat64
	TypeDecimal
	TypeBigInt
	TypeBoolean
	TypeDateTime
	TypeDate
	TypeTime
	TypeJSON
	TypeBlob
	TypeEnum
	TypeUUID
	TypeVector
)

// String returns a human-readable name, used in error messages.
func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeInt64:
		return "int64"
	case TypeFloat64:
		return "float"
	case TypeDecimal:
		return "decimal"
	case TypeBigInt:
		return "bigint"
	case TypeBoolean:
		return "boolean"
	case TypeDateTime:
		return "datetime"
	case TypeDate:
		return "date"
	case TypeTime:
		return "time"
	case TypeJSON:
		return "json"
	case TypeBlob:
		return "blob"
	case TypeEnum:
		return "enum"
	case TypeUUID:
		return "uuid"
	case TypeVector:
		return "vector"
	default:
		return "invalid"
	}
}

// Field describes one scalar column of a Model.
type Field struct {
	Name     string // logical field name, as referenced in args
	Column   string // column name; defaults to Name when empty
	Type     Type
	Nullable bool
	Array    bool
	IsID     bool
	IsUnique bool
	// Default holds a static default value, or nil. AutoGenerate, when
	// set, names a generation strategy ("uuid", "autoincrement", "now")
	// resolved by the values builder (C8/4.8) instead of a literal.
	Default      any
	AutoGenerate string
	// EnumValues lists the legal values for a TypeEnum field.
	EnumValues []string
}

// ColumnName returns the column this field maps to.
func (f *Field) ColumnName() string {
	if f.Column != "" {
		return f.Column
	}
	return f.Name
}
