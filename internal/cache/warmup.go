package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/wanted/internal/domain"
)

const (
	// Warmup fetches this page of the list category
	WarmupPage     = 1
	WarmupPageSize = 20

	warmupTimeout = 10 * time.Second
)

// ListSource is the part of the upstream Warmup needs
type ListSource interface {
	List(ctx context.Context, params domain.ListParams) (domain.Payload, error)
}

// Warmup pre-populates the first page of the list category. It never
// fails: upstream errors are logged and dropped.
func (c *Cache) Warmup(ctx context.Context) {
	if c.source == nil {
		c.logger.Warn("cache warmup skipped, no upstream source configured")
		return
	}

	c.logger.Info("warming up cache")
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, warmupTimeout)
	defer cancel()

	data, err := c.source.List(ctx, domain.ListParams{
		Page:     WarmupPage,
		PageSize: WarmupPageSize,
	})
	if err != nil {
		c.logger.Warn("cache warmup failed", zap.Error(err))
		return
	}

	key := ListKey(WarmupPage, WarmupPageSize)
	c.Set(key, data, domain.CategoryList, 0)
	c.logger.Info("cache warmup completed",
		zap.String("key", key),
		zap.Duration("duration", time.Since(start)),
	)
}
