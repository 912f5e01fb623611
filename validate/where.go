// Package validate implements the input validator (C5): it normalizes
// raw operation arguments against a model's schema before they reach the
// build package's fragment builders, and rejects shapes the schema
// cannot support with an InvalidInputError rather than letting a
// malformed payload surface as a confusing CompileError deeper in the
// pipeline (§4.2). Normalization is pure and offline — it never touches
// a dialect adapter or produces SQL.
package validate

import (
	"fmt"

	"github.com/beynar/relquery"
	"github.com/beynar/relquery/build"
	"github.com/beynar/relquery/schema"
)

var scalarOperators = map[string]bool{
	"equals": true, "not": true, "lt": true, "lte": true, "gt": true, "gte": true,
	"in": true, "notIn": true, "contains": true, "startsWith": true, "endsWith": true,
	"mode": true, "has": true, "hasEvery": true, "hasSome": true, "isEmpty": true,
}

// Where normalizes a findMany/updateMany/deleteMany-style where argument
// (§4.2): scalar bare values become `{equals: v}`, bare to-one relation
// objects become `{is: payload}`, and AND/OR/NOT operands recurse. The
// result is fed to build.BuildWhere unchanged — buildWhere(W) ==
// buildWhere(normalize(W)) (§4.2's idempotence invariant) because a
// payload that is already normalized round-trips through every branch
// below as itself.
func Where(model *schema.Model, operation string, raw build.Fields) (build.Fields, error) {
	out := make(build.Fields, 0, len(raw))
	for _, kv := range raw {
		switch kv.Key {
		case "AND", "NOT":
			items, err := normalizeLogicalGroup(model, operation, "AND/NOT", kv.Value, false)
			if err != nil {
				return nil, err
			}
			out = append(out, build.Field{Key: kv.Key, Value: items})
			continue
		case "OR":
			items, err := normalizeLogicalGroup(model, operation, "OR", kv.Value, true)
			if err != nil {
				return nil, err
			}
			out = append(out, build.Field{Key: kv.Key, Value: items})
			continue
		}

		if field, ok := model.Field(kv.Key); ok {
			normalized, err := normalizeScalarFilter(model, operation, field, kv.Key, kv.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, build.Field{Key: kv.Key, Value: normalized})
			continue
		}

		if rel, ok := model.Relation(kv.Key); ok {
			normalized, err := normalizeRelationFilter(model, operation, rel, kv.Key, kv.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, build.Field{Key: kv.Key, Value: normalized})
			continue
		}

		return nil, relquery.NewInvalidInputError(model.Name, operation, "where."+kv.Key,
			fmt.Errorf("unknown field or relation %q", kv.Key))
	}
	return out, nil
}

// normalizeLogicalGroup normalizes AND/OR/NOT's operand. requireArray
// enforces OR's "array only" rule (§4.2); AND/NOT accept a bare object
// too, normalized as a one-element array of itself.
func normalizeLogicalGroup(model *schema.Model, operation, label string, value any, requireArray bool) ([]any, error) {
	var rawItems []any
	switch v := value.(type) {
	case []any:
		rawItems = v
	case build.Fields:
		if requireArray {
			return nil, relquery.NewInvalidInputError(model.Name, operation, "where."+label,
				fmt.Errorf("%s requires an array of where objects", label))
		}
		rawItems = []any{v}
	case nil:
		return nil, nil
	default:
		return nil, relquery.NewInvalidInputError(model.Name, operation, "where."+label,
			fmt.Errorf("%s must be a where object or array of where objects", label))
	}

	out := make([]any, 0, len(rawItems))
	for _, item := range rawItems {
		fields, ok := item.(build.Fields)
		if !ok {
			return nil, relquery.NewInvalidInputError(model.Name, operation, "where."+label,
				fmt.Errorf("%s entries must be where objects", label))
		}
		normalized, err := Where(model, operation, fields)
		if err != nil {
			return nil, err
		}
		out = append(out, normalized)
	}
	return out, nil
}

// normalizeScalarFilter normalizes one scalar field's filter value:
// a bare value (anything but a Fields operator object) becomes
// `{equals: v}`, preserving `nil` as `{equals: nil}` (§4.2).
func normalizeScalarFilter(model *schema.Model, operation string, field *schema.Field, key string, value any) (build.Fields, error) {
	ops, ok := value.(build.Fields)
	if !ok {
		return build.Fields{{Key: "equals", Value: value}}, nil
	}
	out := make(build.Fields, 0, len(ops))
	for _, kv := range ops {
		if !scalarOperators[kv.Key] {
			return nil, relquery.NewInvalidInputError(model.Name, operation, "where."+key+"."+kv.Key,
				fmt.Errorf("unknown filter operator %q", kv.Key))
		}
		if kv.Key == "not" {
			nested, err := normalizeScalarFilter(model, operation, field, key, kv.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, build.Field{Key: "not", Value: nested})
			continue
		}
		out = append(out, kv)
	}
	return out, nil
}

// normalizeRelationFilter normalizes one relation field's filter value
// (§4.2): a to-many payload must already name some/every/none; a to-one
// payload that is a bare object becomes `{is: payload}`, and nil becomes
// `{is: nil}`.
func normalizeRelationFilter(model *schema.Model, operation string, rel *schema.Relation, key string, value any) (any, error) {
	if rel.Type.IsToMany() {
		ops, ok := value.(build.Fields)
		if !ok {
			return nil, relquery.NewInvalidInputError(model.Name, operation, "where."+key,
				fmt.Errorf("to-many relation filter must use some/every/none explicitly"))
		}
		target := rel.Target()
		out := make(build.Fields, 0, len(ops))
		found := false
		for _, kv := range ops {
			switch kv.Key {
			case "some", "every", "none":
				found = true
				inner, ok := kv.Value.(build.Fields)
				if !ok {
					return nil, relquery.NewInvalidInputError(model.Name, operation, "where."+key+"."+kv.Key,
						fmt.Errorf("%s must be a where object", kv.Key))
				}
				normalized, err := Where(target, operation, inner)
				if err != nil {
					return nil, err
				}
				out = append(out, build.Field{Key: kv.Key, Value: normalized})
			default:
				return nil, relquery.NewInvalidInputError(model.Name, operation, "where."+key+"."+kv.Key,
					fmt.Errorf("unknown to-many relation operator %q", kv.Key))
			}
		}
		if !found {
			return nil, relquery.NewInvalidInputError(model.Name, operation, "where."+key,
				fmt.Errorf("to-many relation filter must use some/every/none explicitly"))
		}
		return out, nil
	}

	target := rel.Target()
	if value == nil {
		if !rel.Optional {
			return nil, relquery.NewInvalidInputError(model.Name, operation, "where."+key,
				fmt.Errorf("relation %q is not optional, cannot filter for null", key))
		}
		return build.Fields{{Key: "is", Value: nil}}, nil
	}
	ops, ok := value.(build.Fields)
	if !ok {
		return nil, relquery.NewInvalidInputError(model.Name, operation, "where."+key,
			fmt.Errorf("relation filter must be a where object"))
	}
	// Already-tagged is/isNot payload, or a bare relation-field payload
	// shorthand for `is`.
	if _, hasIs := ops.Get("is"); hasIs {
		return normalizeTaggedToOne(model, operation, target, key, ops, "is")
	}
	if _, hasIsNot := ops.Get("isNot"); hasIsNot {
		return normalizeTaggedToOne(model, operation, target, key, ops, "isNot")
	}
	normalized, err := Where(target, operation, ops)
	if err != nil {
		return nil, err
	}
	return build.Fields{{Key: "is", Value: normalized}}, nil
}

func normalizeTaggedToOne(model *schema.Model, operation string, target *schema.Model, key string, ops build.Fields, tag string) (build.Fields, error) {
	v, _ := ops.Get(tag)
	if v == nil {
		return build.Fields{{Key: tag, Value: nil}}, nil
	}
	inner, ok := v.(build.Fields)
	if !ok {
		return nil, relquery.NewInvalidInputError(model.Name, operation, "where."+key+"."+tag,
			fmt.Errorf("%s must be a where object or null", tag))
	}
	normalized, err := Where(target, operation, inner)
	if err != nil {
		return nil, err
	}
	return build.Fields{{Key: tag, Value: normalized}}, nil
}
