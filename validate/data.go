package validate

import (
	"fmt"

	"github.com/beynar/relquery"
	"github.com/beynar/relquery/build"
	"github.com/beynar/relquery/schema"
)

var updateOperators = map[string]bool{
	"set": true, "increment": true, "decrement": true, "multiply": true, "divide": true,
	"push": true, "unshift": true,
}

// CreateData validates a create/createMany payload's keys against model
// (§4.2's "unknown keys fail with InvalidInput"). Scalar values pass
// through unnormalized — build.BuildValues consumes bare values directly,
// and relation keys are left for the nested-write planner to split out.
func CreateData(model *schema.Model, operation string, raw build.Fields) (build.Fields, error) {
	for _, kv := range raw {
		if _, ok := model.Field(kv.Key); ok {
			continue
		}
		if _, ok := model.Relation(kv.Key); ok {
			continue
		}
		return nil, relquery.NewInvalidInputError(model.Name, operation, "data."+kv.Key,
			fmt.Errorf("unknown field or relation %q", kv.Key))
	}
	return raw, nil
}

// UpdateData normalizes an update/updateMany payload (§4.2): a bare
// scalar value becomes `{set: v}`, including `nil` becoming `{set: nil}`.
// Relation keys pass through for the nested-write planner.
func UpdateData(model *schema.Model, operation string, raw build.Fields) (build.Fields, error) {
	out := make(build.Fields, 0, len(raw))
	for _, kv := range raw {
		if _, ok := model.Relation(kv.Key); ok {
			out = append(out, kv)
			continue
		}
		field, ok := model.Field(kv.Key)
		if !ok {
			return nil, relquery.NewInvalidInputError(model.Name, operation, "data."+kv.Key,
				fmt.Errorf("unknown field or relation %q", kv.Key))
		}
		normalized, err := normalizeUpdateValue(model, operation, field, kv.Key, kv.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, build.Field{Key: kv.Key, Value: normalized})
	}
	return out, nil
}

func normalizeUpdateValue(model *schema.Model, operation string, field *schema.Field, key string, value any) (any, error) {
	ops, ok := value.(build.Fields)
	if !ok {
		return build.Fields{{Key: "set", Value: value}}, nil
	}
	for _, kv := range ops {
		if !updateOperators[kv.Key] {
			return nil, relquery.NewInvalidInputError(model.Name, operation, "data."+key+"."+kv.Key,
				fmt.Errorf("unknown update operator %q", kv.Key))
		}
	}
	return ops, nil
}
