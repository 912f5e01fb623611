package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/beynar/relquery"
)

// cacheEntry is the msgpack-encoded payload stored under a compiled
// query's cache key — the teacher's cache.go stores arbitrary result
// bytes, so the plan cache follows the same shape rather than inventing
// a second cache abstraction.
type cacheEntry struct {
	SQL    string
	Params []any
}

// cacheKeyFor derives a deterministic cache key for (model, operation,
// args): the normalized args are msgpack-encoded and hashed, since Args
// carries nested build.Fields slices and arbitrary OrderBy values that
// have no natural short string form. relquery.CacheKey supplies the
// human-readable table/operation prefix so entries stay groupable for
// DeletePrefix invalidation (e.g. clearing every cached query for a
// model after a write).
func cacheKeyFor(model, operation string, args Args) (string, error) {
	encoded, err := msgpack.Marshal(args)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(encoded)
	key := relquery.CacheKey{
		Table:      model,
		Operation:  operation,
		Predicates: hex.EncodeToString(sum[:]),
	}
	return key.String(), nil
}

// cacheLookup returns a previously-built statement for (model, operation,
// args), if present and still decodable.
func (e *Engine) cacheLookup(model, operation string, args Args) (*Built, bool) {
	key, err := cacheKeyFor(model, operation, args)
	if err != nil {
		return nil, false
	}
	raw, err := e.cache.Get(context.Background(), key)
	if err != nil || raw == nil {
		return nil, false
	}
	var entry cacheEntry
	if err := msgpack.Unmarshal(raw, &entry); err != nil {
		return nil, false
	}
	return &Built{SQL: entry.SQL, Params: entry.Params}, true
}

// cacheStore records a compiled statement under (model, operation, args).
// Encoding failures are swallowed: a cache miss next time just recompiles,
// it never fails the call that asked to populate the cache.
func (e *Engine) cacheStore(model, operation string, args Args, built *Built) {
	key, err := cacheKeyFor(model, operation, args)
	if err != nil {
		return
	}
	encoded, err := msgpack.Marshal(cacheEntry{SQL: built.SQL, Params: built.Params})
	if err != nil {
		return
	}
	_ = e.cache.Set(context.Background(), key, encoded, e.cacheTTL)
}
