package cache

import (
	"math"

	"github.com/your-org/wanted/internal/domain"
)

// Counters are the process-lifetime cache counters
type Counters struct {
	Hits    int64
	Misses  int64
	Sets    int64
	Deletes int64
}

// Stats is a point-in-time cache report
type Stats struct {
	Hits       int64                   `json:"hits"`
	Misses     int64                   `json:"misses"`
	Sets       int64                   `json:"sets"`
	Deletes    int64                   `json:"deletes"`
	HitRate    int                     `json:"hitRate"`
	CacheSizes map[domain.Category]int `json:"cacheSizes"`
	TotalKeys  int                     `json:"totalKeys"`
}

// BuildStats derives the report from the counters and per-category key counts
func BuildStats(c Counters, sizes map[domain.Category]int) Stats {
	stats := Stats{
		Hits:       c.Hits,
		Misses:     c.Misses,
		Sets:       c.Sets,
		Deletes:    c.Deletes,
		HitRate:    HitRate(c.Hits, c.Misses),
		CacheSizes: make(map[domain.Category]int, len(sizes)),
	}
	for category, n := range sizes {
		stats.CacheSizes[category] = n
		stats.TotalKeys += n
	}
	return stats
}

// HitRate returns hits/(hits+misses) as a rounded percentage, 0 without lookups
func HitRate(hits, misses int64) int {
	total := hits + misses
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(hits) / float64(total) * 100))
}
