package cache

import (
	"time"

	"go.uber.org/zap"

	"github.com/your-org/wanted/internal/domain"
	"github.com/your-org/wanted/internal/metrics"
)

// DefaultCategory receives every lookup for an unregistered category
const DefaultCategory = domain.CategoryList

// Policy is the expiry policy of one category
type Policy struct {
	Category    domain.Category
	TTL         time.Duration
	CheckPeriod time.Duration
}

// DefaultPolicies returns the built-in category policies
func DefaultPolicies() []Policy {
	return []Policy{
		{Category: domain.CategoryList, TTL: 5 * time.Minute, CheckPeriod: 60 * time.Second},
		{Category: domain.CategoryDetail, TTL: 30 * time.Minute, CheckPeriod: 120 * time.Second},
		{Category: domain.CategoryFilter, TTL: 60 * time.Minute, CheckPeriod: 300 * time.Second},
		{Category: domain.CategorySearch, TTL: 10 * time.Minute, CheckPeriod: 60 * time.Second},
	}
}

// Registry maps categories to their partitions
type Registry struct {
	partitions map[domain.Category]*Partition
	order      []domain.Category
}

// NewRegistry builds one partition per policy. The default category is
// always present; an empty policy list means DefaultPolicies.
func NewRegistry(policies []Policy, shardCount int, clock func() time.Time, m *metrics.Metrics, logger *zap.Logger) *Registry {
	if len(policies) == 0 {
		policies = DefaultPolicies()
	}

	r := &Registry{
		partitions: make(map[domain.Category]*Partition, len(policies)+1),
	}
	for _, policy := range policies {
		if _, exists := r.partitions[policy.Category]; exists || policy.Category == "" {
			continue
		}
		r.partitions[policy.Category] = NewPartition(policy, shardCount, clock, m, logger)
		r.order = append(r.order, policy.Category)
	}

	if _, exists := r.partitions[DefaultCategory]; !exists {
		policy := DefaultPolicies()[0]
		r.partitions[DefaultCategory] = NewPartition(policy, shardCount, clock, m, logger)
		r.order = append([]domain.Category{DefaultCategory}, r.order...)
	}

	return r
}

// Resolve returns category if it is registered and DefaultCategory otherwise
func (r *Registry) Resolve(category domain.Category) domain.Category {
	if _, ok := r.partitions[category]; ok {
		return category
	}
	return DefaultCategory
}

// Partition returns the partition for category, falling back to DefaultCategory
func (r *Registry) Partition(category domain.Category) *Partition {
	return r.partitions[r.Resolve(category)]
}

// Categories returns the registered categories in registration order
func (r *Registry) Categories() []domain.Category {
	out := make([]domain.Category, len(r.order))
	copy(out, r.order)
	return out
}

// Each calls fn for every partition in registration order
func (r *Registry) Each(fn func(*Partition)) {
	for _, category := range r.order {
		fn(r.partitions[category])
	}
}
