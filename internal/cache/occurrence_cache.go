package cache

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"service-scheduler/internal/domain"
)

// OccurrenceCache keeps recently projected windows keyed by (start, days).
// Any mutation purges the whole cache: exceptions and slot deletions can
// affect arbitrary cached windows, so per-key invalidation buys nothing.
// A nil *OccurrenceCache is valid and behaves as a disabled cache.
type OccurrenceCache struct {
	cache *lru.Cache[string, []domain.Occurrence]
	mu    sync.RWMutex
}

func NewOccurrenceCache(size int) (*OccurrenceCache, error) {
	cache, err := lru.New[string, []domain.Occurrence](size)
	if err != nil {
		return nil, err
	}
	return &OccurrenceCache{cache: cache}, nil
}

func (c *OccurrenceCache) Get(start time.Time, days int) ([]domain.Occurrence, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.cache.Get(windowKey(start, days))
}

func (c *OccurrenceCache) Store(start time.Time, days int, occurrences []domain.Occurrence) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Add(windowKey(start, days), occurrences)
}

func (c *OccurrenceCache) Purge() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Purge()
}

func windowKey(start time.Time, days int) string {
	return fmt.Sprintf("%s/%d", start.Format("2006-01-02"), days)
}
