package cache

// Cache key prefixes for use with GenerateKey(prefix, parts...), which joins
// a prefix and its parts with colons. The /api/optimize handler stores search
// results under the bare optimizer.CacheKey digest, without any prefix, and
// no code outside this package's tests references these constants.
const (
	// SearchResultPrefix names a namespace for memoized search_builds
	// responses.
	SearchResultPrefix = "search_result"

	// ObjectiveListPrefix names a namespace for a GET /api/objectives
	// payload; that endpoint does not cache its response.
	ObjectiveListPrefix = "objective_list"

	// InventoryDigestPrefix names a namespace for a digest of a caller's
	// decoded rune inventory.
	InventoryDigestPrefix = "inventory_digest"

	// BenchProfilePrefix names a namespace for cmd/bench timing runs;
	// cmd/bench does not use the cache.
	BenchProfilePrefix = "bench_profile_v1" // bump version if the payload shape changes
)
