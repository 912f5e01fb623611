package engine

import "github.com/beynar/relquery/build"

// Args bundles every argument shape an operation might need. Only the
// fields relevant to the operation being called are consulted; the rest
// are ignored, mirroring how a single generated-client call in the
// teacher's style accepts one args struct per operation but the
// underlying wire shape is the same "extra keys ignored" object.
type Args struct {
	Where       build.Fields
	WhereUnique build.Fields
	Select      build.Fields
	Include     build.Fields
	OrderBy     any
	Cursor      build.Fields
	Take        *int
	Skip        *int
	Distinct    []string

	// Data is create/update's scalar+relation payload.
	Data build.Fields
	// Records is createMany's batch payload.
	Records        []build.Fields
	SkipDuplicates bool
	// Create/Update are upsert's two payloads.
	Create build.Fields
	Update build.Fields

	// CountSelect requests a per-field count breakdown (§4.10).
	CountSelect build.Fields

	// Buckets is aggregate/groupBy's `_count`/`_avg`/`_sum`/`_min`/`_max`
	// selection.
	Buckets build.Fields
	// By names groupBy's grouping columns.
	By []string
	// Having filters groupBy's aggregated rows.
	Having build.Fields
}
