package domain

import "time"

// Category names a cache partition. Each category has its own TTL policy
// and never shares keys with another one.
type Category string

const (
	CategoryList   Category = "list"
	CategoryDetail Category = "detail"
	CategoryFilter Category = "filter"
	CategorySearch Category = "search"
)

// Metadata fields added to every cached payload
const (
	FieldCached         = "cached"
	FieldCacheAge       = "cacheAge"
	FieldCacheType      = "cacheType"
	FieldCacheTimestamp = "cacheTimestamp"
)

// Result is a payload decorated with cache metadata. It is what handlers
// serialize as the response body on both the hit and the miss path.
type Result map[string]interface{}

// Cached reports whether the result was served from the cache
func (r Result) Cached() bool {
	cached, _ := r[FieldCached].(bool)
	return cached
}

// CacheAge returns the age in seconds; ok is false for freshly stored results
func (r Result) CacheAge() (age int64, ok bool) {
	age, ok = r[FieldCacheAge].(int64)
	return age, ok
}

// CacheType returns the category a hit was served from
func (r Result) CacheType() Category {
	c, _ := r[FieldCacheType].(Category)
	return c
}

// Cache defines the interface for caching operations used by the usecases
type Cache interface {
	// Get returns the decorated payload for key, or false on a miss
	Get(key string, category Category) (Result, bool)

	// Set stores value and returns it decorated as a fresh (uncached) result.
	// A ttl of zero uses the category default.
	Set(key string, value Payload, category Category, ttl time.Duration) Result

	// Delete removes key and reports whether anything was removed
	Delete(key string, category Category) bool
}
