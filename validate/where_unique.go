package validate

import (
	"fmt"

	"github.com/beynar/relquery"
	"github.com/beynar/relquery/build"
	"github.com/beynar/relquery/schema"
)

// WhereUnique validates that raw resolves to one of model's declared
// unique key shapes — the id, a single IsUnique scalar, or a compound
// unique named by its declared name — before it reaches
// build.BuildWhereUnique (§4.2). A shape mismatch here is the user's
// fault (InvalidInput), distinct from build.BuildWhereUnique's own
// CompileError guard against the same condition, which exists as a
// defense against a validator that was skipped rather than as the
// primary check.
func WhereUnique(model *schema.Model, operation string, raw build.Fields) (build.Fields, error) {
	if len(raw) == 0 {
		return nil, relquery.NewInvalidInputError(model.Name, operation, "where",
			fmt.Errorf("where-unique must name at least one unique key"))
	}

	for _, set := range model.UniqueFieldSets() {
		if len(set) == 1 {
			if _, ok := raw.Get(set[0]); ok {
				return raw, nil
			}
			continue
		}
		for _, cu := range model.CompoundUniques {
			if !sameFieldSet(cu.Fields, set) {
				continue
			}
			nested, ok := raw.Get(cu.Name)
			if !ok {
				continue
			}
			nf, ok := nested.(build.Fields)
			if !ok {
				return nil, relquery.NewInvalidInputError(model.Name, operation, "where."+cu.Name,
					fmt.Errorf("compound unique %q must be an object naming every member field", cu.Name))
			}
			for _, fname := range cu.Fields {
				if _, ok := nf.Get(fname); !ok {
					return nil, relquery.NewInvalidInputError(model.Name, operation, "where."+cu.Name,
						fmt.Errorf("compound unique %q missing member field %q", cu.Name, fname))
				}
			}
			return raw, nil
		}
	}

	return nil, relquery.NewInvalidInputError(model.Name, operation, "where",
		fmt.Errorf("where does not match any declared unique key (id, compound id, or unique field)"))
}

func sameFieldSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]bool, len(a))
	for _, f := range a {
		seen[f] = true
	}
	for _, f := range b {
		if !seen[f] {
			return false
		}
	}
	return true
}
