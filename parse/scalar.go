package parse

import (
	"fmt"
	"math/big"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/beynar/relquery/schema"
)

// convertScalar restores a field's language-native type from whatever
// shape the driver or a JSON aggregation handed back (§4.12). nil always
// passes through untouched regardless of field type.
func convertScalar(field *schema.Field, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if field.Array {
		items, err := asSlice(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field.Name, err)
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := convertScalarValue(field, item)
			if err != nil {
				return nil, fmt.Errorf("field %q[%d]: %w", field.Name, i, err)
			}
			out[i] = v
		}
		return out, nil
	}
	return convertScalarValue(field, raw)
}

// convertScalarValue converts one non-array, non-nil value per the
// field's scalar type.
func convertScalarValue(field *schema.Field, raw any) (any, error) {
	switch field.Type {
	case schema.TypeDateTime, schema.TypeDate, schema.TypeTime:
		return convertTemporal(raw)
	case schema.TypeBigInt:
		return convertBigInt(raw)
	case schema.TypeDecimal:
		return convertDecimal(raw)
	case schema.TypeJSON:
		return convertJSON(raw)
	case schema.TypeBlob:
		return convertBlob(raw)
	default:
		// enum, string, int, float, boolean, uuid, vector: passthrough,
		// already schema-typed by the driver's native column decoding.
		return raw, nil
	}
}

// convertTemporal parses an ISO-8601 string or a Unix epoch number into
// time.Time; a value the driver already decoded to time.Time passes
// through (§4.12 "passthrough if already a date").
func convertTemporal(raw any) (any, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t, nil
		}
		if t, err := time.Parse("2006-01-02 15:04:05.999999999", v); err == nil {
			return t, nil
		}
		if t, err := time.Parse("2006-01-02", v); err == nil {
			return t, nil
		}
		return nil, fmt.Errorf("relquery: parse: %q is not a recognized timestamp", v)
	case int64:
		return time.Unix(v, 0).UTC(), nil
	case float64:
		return time.Unix(int64(v), 0).UTC(), nil
	default:
		return nil, fmt.Errorf("relquery: parse: unsupported datetime representation %T", raw)
	}
}

// convertBigInt converts a driver-returned number or string into
// math/big's arbitrary-precision integer (§4.12 "bigint ... arbitrary-
// precision integer type"). No third-party arbitrary-precision integer
// type appears anywhere in the example pack — the available candidates
// (shopspring/decimal, cockroachdb/apd) are fixed-point decimal types, a
// different semantic than an exact unbounded integer — so this is the
// one scalar conversion that stays on the standard library; see
// DESIGN.md.
func convertBigInt(raw any) (any, error) {
	switch v := raw.(type) {
	case *big.Int:
		return v, nil
	case string:
		n, ok := new(big.Int).SetString(v, 10)
		if !ok {
			return nil, fmt.Errorf("relquery: parse: %q is not a valid bigint", v)
		}
		return n, nil
	case int64:
		return big.NewInt(v), nil
	case float64:
		return big.NewInt(int64(v)), nil
	default:
		return nil, fmt.Errorf("relquery: parse: unsupported bigint representation %T", raw)
	}
}

// convertDecimal converts a driver-returned number or string into
// shopspring/decimal's fixed-point decimal, preserving the precision a
// plain float64 would lose.
func convertDecimal(raw any) (any, error) {
	switch v := raw.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		return decimal.NewFromString(v)
	case float64:
		return decimal.NewFromFloat(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	default:
		return nil, fmt.Errorf("relquery: parse: unsupported decimal representation %T", raw)
	}
}

// convertJSON parses a JSON-typed column returned as text; a value the
// driver already decoded into a map/slice passes through untouched
// (§4.12 "if already structured, recurse" — here "recurse" means no
// further work is needed since Go's json package has already produced
// the structured value).
func convertJSON(raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		var out any
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, fmt.Errorf("relquery: parse: invalid json column: %w", err)
		}
		return out, nil
	case []byte:
		var out any
		if err := json.Unmarshal(v, &out); err != nil {
			return nil, fmt.Errorf("relquery: parse: invalid json column: %w", err)
		}
		return out, nil
	default:
		return v, nil
	}
}

// convertBlob preserves a binary column as []byte regardless of how the
// driver surfaced it.
func convertBlob(raw any) (any, error) {
	switch v := raw.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("relquery: parse: unsupported blob representation %T", raw)
	}
}

// asSlice normalizes an array-valued field's raw value into a []any,
// decoding a JSON-string array first when the driver returned one (e.g.
// SQLite, which has no native array column type).
func asSlice(raw any) ([]any, error) {
	switch v := raw.(type) {
	case []any:
		return v, nil
	case string:
		var out []any
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, fmt.Errorf("invalid array column: %w", err)
		}
		return out, nil
	case []byte:
		var out []any
		if err := json.Unmarshal(v, &out); err != nil {
			return nil, fmt.Errorf("invalid array column: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported array representation %T", raw)
	}
}
