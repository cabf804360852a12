package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/walletwise/walletwise/internal/shared/logger"
)

// MemoryCounterCache is a process-local counter cache. Each write resets
// the entry's TTL; reads never extend it. When capacity is reached the
// least recently used counter is evicted.
type MemoryCounterCache struct {
	mu     sync.Mutex
	lru    *expirable.LRU[string, int64]
	logger logger.Interface
}

// NewMemoryCounterCache creates a counter cache holding at most maxEntries
// keys, each living ttl after its last write.
func NewMemoryCounterCache(maxEntries int, ttl time.Duration, logger logger.Interface) *MemoryCounterCache {
	return &MemoryCounterCache{
		lru:    expirable.NewLRU[string, int64](maxEntries, nil, ttl),
		logger: logger,
	}
}

// Increment adds one to the counter and returns the new value. A missing
// or expired key starts from zero.
func (c *MemoryCounterCache) Increment(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, _ := c.lru.Get(key)
	current++
	c.lru.Add(key, current)

	return current, nil
}

// Decrement subtracts one from a live counter, never going below zero.
func (c *MemoryCounterCache) Decrement(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, ok := c.lru.Get(key)
	if !ok || current <= 0 {
		return nil
	}
	c.lru.Add(key, current-1)

	return nil
}

func (c *MemoryCounterCache) Peek(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, _ := c.lru.Peek(key)
	return current, nil
}

func (c *MemoryCounterCache) Invalidate(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Remove(key)
	c.logger.Debugw("counter invalidated", "key", key)
	return nil
}

// Len reports the number of live counters.
func (c *MemoryCounterCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
