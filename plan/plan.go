// Package plan implements the nested-write planner (C8): given a
// create/update/upsert's data payload, it splits scalar fields from
// relation mutations and decides between a single INSERT/UPDATE with
// spliced connect-subqueries and a multi-statement transactional plan
// (§4.11).
package plan

import (
	"github.com/beynar/relquery"
	"github.com/beynar/relquery/build"
	"github.com/beynar/relquery/dialect/sql"
	"github.com/beynar/relquery/schema"
)

// Bindings holds PK values threaded between a Plan's steps, keyed by the
// binding name a Step.CaptureAs assigns. A caller-supplied (non-
// autogenerated) PK is known at plan-build time and baked into Bindings
// immediately; an autogenerated PK is only known once the step that
// creates it has actually run, so the executor fills it in before
// building the next Step (§4.11, "if the caller provided the PK
// explicitly ... the planner uses that literal everywhere instead of
// issuing a lookup").
type Bindings map[string]any

// Mode distinguishes the two nested-write strategies (§4.11 step 3).
type Mode int

const (
	// SingleStatement: every relation mutation inlined into one INSERT/
	// UPDATE via spliced connect-subqueries or NULL assignment — no
	// second statement, no transaction required.
	SingleStatement Mode = iota
	// Transactional: statements run in order; a later statement may
	// reference an earlier one's captured PK. Any step's error aborts
	// the remainder and rolls back (§4.11 "Failure semantics").
	Transactional
)

// Step is one statement of a Plan. Build is deferred rather than a
// precomputed Fragment because a transactional plan's later steps need
// values — captured PKs — that are only known once earlier steps have
// actually executed; the executor calls Build with the Bindings
// accumulated so far immediately before running the statement.
type Step struct {
	Model *schema.Model
	// CaptureAs, when non-empty, names the binding this step's resulting
	// PK should be recorded under for later steps to reference.
	CaptureAs string
	// CaptureColumn names the PK column to read back after running this
	// step (via RETURNING, or a dialect's last-insert-id plus refetch),
	// when the PK's value isn't already known at plan-build time. Empty
	// when the caller supplied the PK literally, or the row already
	// existed and whereUnique named it directly — in that case Literal
	// holds the value to record under CaptureAs instead.
	CaptureColumn string
	// Literal holds the PK value to bind under CaptureAs when
	// CaptureColumn is empty. Ignored when CaptureAs is empty.
	Literal any
	Build   func(Bindings) (sql.Fragment, error)
}

// RefetchSpec describes the standard find issued after a write whose
// caller requested select/include, so the response shape matches an
// equivalent read (§4.11 step 5). WhereUnique is set directly when the
// PK was already a literal at plan-build time (caller-supplied id);
// otherwise it's empty and the executor builds {IDField: {equals:
// bindings[CaptureAs]}} once the step that captures the PK has run.
type RefetchSpec struct {
	Model       *schema.Model
	WhereUnique build.Fields
	IDField     string
	CaptureAs   string
	Select      build.Fields
	Include     build.Fields
}

// refetchSpec builds the refetch description for a just-planned write,
// or nil when the caller asked for neither select nor include — a bare
// write needs nothing beyond its own RETURNING (§4.11 step 5). scalars
// is the model's own scalar payload as of its create/update step; when
// it already carries the PK literally (caller-supplied id), WhereUnique
// is resolved now. Otherwise the PK is database-autogenerated and the
// executor must resolve it from captureAs's binding once that step has
// run.
func refetchSpec(model *schema.Model, scalars build.Fields, captureAs string, selectFields, include build.Fields) *RefetchSpec {
	if len(selectFields) == 0 && len(include) == 0 {
		return nil
	}
	idField := ""
	if ids := model.IDFields(); len(ids) == 1 {
		idField = ids[0]
	}
	spec := &RefetchSpec{Model: model, Select: selectFields, Include: include, IDField: idField}
	if idField != "" {
		if v, ok := scalars.Get(idField); ok {
			spec.WhereUnique = build.Fields{{Key: idField, Value: build.Fields{{Key: "equals", Value: v}}}}
			return spec
		}
	}
	spec.CaptureAs = captureAs
	return spec
}

// refetchSpecForWhere builds the refetch description for an update/
// upsert, which already carries a where-unique shape addressing the
// row directly — reused as-is, since an update's own where-unique
// remains valid after the write unless the write itself retargets the
// unique field it names, an edge case left to the caller to avoid.
func refetchSpecForWhere(model *schema.Model, whereUnique build.Fields, captureAs string, selectFields, include build.Fields) *RefetchSpec {
	if len(selectFields) == 0 && len(include) == 0 {
		return nil
	}
	return &RefetchSpec{Model: model, WhereUnique: whereUnique, CaptureAs: captureAs, Select: selectFields, Include: include}
}

// Plan is the nested-write planner's output: an ordered list of
// statements, the mode governing whether they run as one round-trip or
// inside a transaction, and an optional refetch to reproduce a read's
// response shape.
type Plan struct {
	Mode    Mode
	Steps   []Step
	Refetch *RefetchSpec
}

// splitData partitions a create/update data payload into its scalar
// fields and its relation-keyed mutation objects (§4.11 step 1).
func splitData(model *schema.Model, data build.Fields) (scalars build.Fields, relations build.Fields, err error) {
	for _, kv := range data {
		if _, ok := model.Field(kv.Key); ok {
			scalars = append(scalars, kv)
			continue
		}
		if _, ok := model.Relation(kv.Key); ok {
			relations = append(relations, kv)
			continue
		}
		return nil, nil, relquery.NewCompileError(model.Name, kv.Key, "unknown field or relation in write payload")
	}
	return scalars, relations, nil
}
