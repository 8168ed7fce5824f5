package contract

import (
	"context"
	"sync"
	"time"

	"github.com/gearscope/spec-factory/internal/model"
)

// DefaultCacheTTL bounds how long a cached contract is served before the
// store is consulted again.
const DefaultCacheTTL = 5 * time.Minute

type cacheEntry struct {
	contract *model.FieldContract
	loadedAt time.Time
}

// Cache is the process-wide contract cache, keyed by category with a bounded
// TTL and explicit invalidation. Compilation writes through it.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	store   *Store
}

// NewCache creates a cache over the given contract store. ttl <= 0 selects
// DefaultCacheTTL.
func NewCache(store *Store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		store:   store,
	}
}

// Get returns the category's contract, serving from cache within the TTL.
// A nil contract with nil error means the category is not compiled yet;
// absence is cached like any other result.
func (c *Cache) Get(ctx context.Context, category string) (*model.FieldContract, error) {
	c.mu.Lock()
	if e, ok := c.entries[category]; ok && time.Since(e.loadedAt) < c.ttl {
		c.mu.Unlock()
		return e.contract, nil
	}
	c.mu.Unlock()

	contract, err := c.store.LoadContract(ctx, category)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[category] = cacheEntry{contract: contract, loadedAt: time.Now()}
	c.mu.Unlock()
	return contract, nil
}

// Put stores a freshly compiled contract in the cache.
func (c *Cache) Put(category string, contract *model.FieldContract) {
	c.mu.Lock()
	c.entries[category] = cacheEntry{contract: contract, loadedAt: time.Now()}
	c.mu.Unlock()
}

// Invalidate drops the cached entry for a category.
func (c *Cache) Invalidate(category string) {
	c.mu.Lock()
	delete(c.entries, category)
	c.mu.Unlock()
}
