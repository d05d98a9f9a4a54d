package cache

import (
	"context"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/wanted/internal/domain"
	"github.com/your-org/wanted/internal/metrics"
)

const (
	// Default settings
	defaultShardCount      = 16
	defaultTTL             = 5 * time.Minute
	defaultCleanupInterval = 1 * time.Minute
)

// Entry is a stored payload with its storage time. Entries are never
// mutated; a re-set replaces the whole entry.
type Entry struct {
	Value     domain.Payload
	StoredAt  time.Time
	ExpiresAt time.Time
}

// expiredAt reports whether the entry is past its TTL at now
func (e *Entry) expiredAt(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// partitionShard is a single shard of a partition with its own lock
type partitionShard struct {
	mu    sync.RWMutex
	items map[string]*Entry
}

// Partition is a TTL-indexed key/value store for one cache category.
// Keys are spread over shards by FNV hash so concurrent handlers rarely
// contend on the same lock.
type Partition struct {
	category        domain.Category
	shards          []*partitionShard
	shardCount      int
	ttl             time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
	metrics         *metrics.Metrics
	logger          *zap.Logger

	// Cleanup worker management
	cleanupWorkerRunning bool
	cleanupWorkerMu      sync.Mutex
	cleanupWorkerStop    chan struct{}
	cleanupWorkerWg      sync.WaitGroup
}

// NewPartition creates a partition for the given policy.
// A nil clock means time.Now; nil metrics and logger are allowed.
func NewPartition(policy Policy, shardCount int, clock func() time.Time, m *metrics.Metrics, logger *zap.Logger) *Partition {
	if shardCount < 1 {
		shardCount = defaultShardCount
	}
	ttl := policy.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	interval := policy.CheckPeriod
	if interval <= 0 {
		interval = defaultCleanupInterval
	}
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	shards := make([]*partitionShard, shardCount)
	for i := range shards {
		shards[i] = &partitionShard{
			items: make(map[string]*Entry),
		}
	}

	return &Partition{
		category:          policy.Category,
		shards:            shards,
		shardCount:        shardCount,
		ttl:               ttl,
		cleanupInterval:   interval,
		now:               clock,
		metrics:           m,
		logger:            logger.With(zap.String("category", string(policy.Category))),
		cleanupWorkerStop: make(chan struct{}),
	}
}

// Category returns the category this partition serves
func (p *Partition) Category() domain.Category {
	return p.category
}

// TTL returns the default time-to-live of the partition
func (p *Partition) TTL() time.Duration {
	return p.ttl
}

// getShard returns the shard for a given key using FNV hash
func (p *Partition) getShard(key string) *partitionShard {
	hash := fnv.New32a()
	hash.Write([]byte(key))
	return p.shards[hash.Sum32()%uint32(p.shardCount)]
}

// Put stores value under key, overwriting any previous entry and restarting
// its TTL countdown. A ttl <= 0 uses the partition default.
func (p *Partition) Put(key string, value domain.Payload, ttl time.Duration) Entry {
	if ttl <= 0 {
		ttl = p.ttl
	}
	now := p.now()
	entry := &Entry{
		Value:     value,
		StoredAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	shard := p.getShard(key)
	shard.mu.Lock()
	shard.items[key] = entry
	shard.mu.Unlock()

	return *entry
}

// Lookup returns the live entry for key. Expired entries are invisible even
// before the sweep removes them.
func (p *Partition) Lookup(key string) (Entry, bool) {
	shard := p.getShard(key)
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	entry, exists := shard.items[key]
	if !exists || entry.expiredAt(p.now()) {
		return Entry{}, false
	}
	return *entry, true
}

// Remove deletes key and reports whether a live entry was removed
func (p *Partition) Remove(key string) bool {
	shard := p.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	entry, exists := shard.items[key]
	if !exists {
		return false
	}
	delete(shard.items, key)
	return !entry.expiredAt(p.now())
}

// RemoveAll empties the partition. TTL and sweep settings are kept.
func (p *Partition) RemoveAll() {
	for _, shard := range p.shards {
		shard.mu.Lock()
		shard.items = make(map[string]*Entry)
		shard.mu.Unlock()
	}
}

// Keys returns the live keys in sorted order
func (p *Partition) Keys() []string {
	now := p.now()
	keys := make([]string, 0)
	for _, shard := range p.shards {
		shard.mu.RLock()
		for key, entry := range shard.items {
			if !entry.expiredAt(now) {
				keys = append(keys, key)
			}
		}
		shard.mu.RUnlock()
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of live keys
func (p *Partition) Len() int {
	now := p.now()
	n := 0
	for _, shard := range p.shards {
		shard.mu.RLock()
		for _, entry := range shard.items {
			if !entry.expiredAt(now) {
				n++
			}
		}
		shard.mu.RUnlock()
	}
	return n
}

// CleanExpired removes all expired entries and returns how many were removed
func (p *Partition) CleanExpired(ctx context.Context) (int, error) {
	removed := 0
	for _, shard := range p.shards {
		select {
		case <-ctx.Done():
			return removed, ctx.Err()
		default:
		}

		now := p.now()
		shard.mu.Lock()
		for key, entry := range shard.items {
			if entry.expiredAt(now) {
				delete(shard.items, key)
				removed++
			}
		}
		shard.mu.Unlock()
	}
	return removed, nil
}

// StartCleanupWorker starts a background goroutine that periodically removes expired entries
func (p *Partition) StartCleanupWorker() {
	p.cleanupWorkerMu.Lock()
	defer p.cleanupWorkerMu.Unlock()

	if p.cleanupWorkerRunning {
		return
	}

	p.cleanupWorkerRunning = true
	p.cleanupWorkerStop = make(chan struct{})

	p.cleanupWorkerWg.Add(1)
	go p.cleanupWorker()
}

// StopCleanupWorker stops the background cleanup worker gracefully
func (p *Partition) StopCleanupWorker() {
	p.cleanupWorkerMu.Lock()
	defer p.cleanupWorkerMu.Unlock()

	if !p.cleanupWorkerRunning {
		return
	}

	close(p.cleanupWorkerStop)
	p.cleanupWorkerWg.Wait()
	p.cleanupWorkerRunning = false
}

// cleanupWorker sweeps the partition every cleanupInterval
func (p *Partition) cleanupWorker() {
	defer p.cleanupWorkerWg.Done()

	ticker := time.NewTicker(p.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.cleanupWorkerStop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			removed, err := p.CleanExpired(ctx)
			cancel()

			if err != nil {
				p.logger.Warn("cache sweep interrupted", zap.Int("removed", removed), zap.Error(err))
			} else if removed > 0 {
				p.logger.Debug("cache sweep removed expired entries", zap.Int("removed", removed))
			}
			p.metrics.RecordExpired(string(p.category), removed)
		}
	}
}
