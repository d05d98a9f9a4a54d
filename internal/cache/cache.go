package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/wanted/internal/domain"
	"github.com/your-org/wanted/internal/metrics"
)

// Options configures a Cache. The zero value is usable.
type Options struct {
	// Policies defines the categories; empty means DefaultPolicies
	Policies []Policy

	// Shards is the number of lock shards per partition
	Shards int

	// Clock overrides time.Now (tests)
	Clock func() time.Time

	// Metrics receives cache events; nil disables them
	Metrics *metrics.Metrics

	// Source is used by Warmup; nil disables warmup
	Source ListSource
}

// Cache is the facade over all category partitions. It decorates every
// returned payload with cache metadata and keeps hit/miss/set/delete
// counters across partitions.
type Cache struct {
	registry *Registry
	now      func() time.Time
	metrics  *metrics.Metrics
	source   ListSource
	logger   *zap.Logger

	// Get/Set/Delete/Stats hold mu shared, Clear holds it exclusively so
	// nobody observes a half-cleared cache or counters out of sync with it.
	mu sync.RWMutex

	hits    atomic.Int64
	misses  atomic.Int64
	sets    atomic.Int64
	deletes atomic.Int64
}

// New creates a cache. Sweepers are not running until Start is called.
func New(opts Options, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Cache{
		registry: NewRegistry(opts.Policies, opts.Shards, clock, opts.Metrics, logger),
		now:      clock,
		metrics:  opts.Metrics,
		source:   opts.Source,
		logger:   logger,
	}
}

// Start launches the sweeper of every partition
func (c *Cache) Start() {
	c.registry.Each(func(p *Partition) {
		p.StartCleanupWorker()
	})
	c.logger.Info("cache sweepers started", zap.Int("categories", len(c.registry.Categories())))
}

// Stop stops every sweeper and waits for them to exit
func (c *Cache) Stop() {
	c.registry.Each(func(p *Partition) {
		p.StopCleanupWorker()
	})
	c.logger.Info("cache sweepers stopped")
}

// Get returns the payload stored under key decorated with cached=true,
// its age in seconds and the category it came from. Unknown categories
// are looked up in DefaultCategory.
func (c *Cache) Get(key string, category domain.Category) (domain.Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	category = c.registry.Resolve(category)
	entry, ok := c.registry.Partition(category).Lookup(key)
	if !ok {
		c.misses.Add(1)
		c.metrics.RecordMiss(string(category))
		return nil, false
	}

	c.hits.Add(1)
	c.metrics.RecordHit(string(category))

	age := int64(c.now().Sub(entry.StoredAt) / time.Second)
	if age < 0 {
		age = 0
	}

	result := decorate(entry)
	result[domain.FieldCached] = true
	result[domain.FieldCacheAge] = age
	result[domain.FieldCacheType] = category
	return result, true
}

// Set stores value under key and returns it decorated with cached=false.
// A ttl <= 0 uses the category default.
func (c *Cache) Set(key string, value domain.Payload, category domain.Category, ttl time.Duration) domain.Result {
	c.mu.RLock()
	defer c.mu.RUnlock()

	category = c.registry.Resolve(category)
	entry := c.registry.Partition(category).Put(key, value.Clone(), ttl)

	c.sets.Add(1)
	c.metrics.RecordSet(string(category))

	result := decorate(entry)
	result[domain.FieldCached] = false
	return result
}

// Delete removes key and reports whether a live entry was removed
func (c *Cache) Delete(key string, category domain.Category) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	category = c.registry.Resolve(category)
	if !c.registry.Partition(category).Remove(key) {
		return false
	}

	c.deletes.Add(1)
	c.metrics.RecordDelete(string(category))
	return true
}

// Clear empties every partition and resets all counters
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.registry.Each(func(p *Partition) {
		p.RemoveAll()
	})
	c.hits.Store(0)
	c.misses.Store(0)
	c.sets.Store(0)
	c.deletes.Store(0)

	c.metrics.RecordClear()
	c.logger.Info("cache cleared")
}

// Stats returns the counters, hit rate and live key counts
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sizes := make(map[domain.Category]int)
	c.registry.Each(func(p *Partition) {
		n := p.Len()
		sizes[p.Category()] = n
		c.metrics.UpdateCacheKeys(string(p.Category()), n)
	})

	return BuildStats(Counters{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Sets:    c.sets.Load(),
		Deletes: c.deletes.Load(),
	}, sizes)
}

// Keys returns the live keys of a category
func (c *Cache) Keys(category domain.Category) []string {
	return c.registry.Partition(category).Keys()
}

// Categories returns the configured categories
func (c *Cache) Categories() []domain.Category {
	return c.registry.Categories()
}

// decorate copies the stored payload so callers can never mutate the entry
func decorate(entry Entry) domain.Result {
	result := domain.Result(entry.Value.Clone())
	result[domain.FieldCacheTimestamp] = entry.StoredAt.UnixMilli()
	return result
}

// Verify that Cache implements domain.Cache interface
var _ domain.Cache = (*Cache)(nil)
