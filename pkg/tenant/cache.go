package tenant

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Cache stores tenants by ID for a limited time.
type Cache interface {
	// Get retrieves a tenant from cache by ID.
	Get(ctx context.Context, id uuid.UUID) (*Tenant, bool)

	// Set stores a tenant in cache with the given TTL.
	Set(ctx context.Context, t *Tenant, ttl time.Duration)

	// Delete removes a tenant from cache.
	Delete(ctx context.Context, id uuid.UUID)

	// Close releases any resources held by the cache.
	Close() error
}

// inMemoryCache is the default in-memory cache implementation.
type inMemoryCache struct {
	mu      sync.Mutex
	items   map[uuid.UUID]cacheItem
	lru     []uuid.UUID // least recently used first
	maxSize int
	stop    chan struct{}
	done    chan struct{}
	closed  bool
}

type cacheItem struct {
	tenant    *Tenant
	expiresAt time.Time
}

// DefaultCacheSize is the default maximum number of items in the cache.
const DefaultCacheSize = 1000

// NewInMemoryCache creates an LRU cache with periodic cleanup of expired entries.
// A non-positive maxSize falls back to DefaultCacheSize.
func NewInMemoryCache(maxSize int) Cache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}

	cache := &inMemoryCache{
		items:   make(map[uuid.UUID]cacheItem),
		lru:     make([]uuid.UUID, 0, maxSize),
		maxSize: maxSize,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	go cache.cleanup()

	return cache
}

func (c *inMemoryCache) Get(ctx context.Context, id uuid.UUID) (*Tenant, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, exists := c.items[id]
	if !exists {
		return nil, false
	}

	if !time.Now().Before(item.expiresAt) {
		delete(c.items, id)
		c.removeLRU(id)
		return nil, false
	}

	c.touch(id)
	return item.tenant.Clone(), true
}

func (c *inMemoryCache) Set(ctx context.Context, t *Tenant, ttl time.Duration) {
	if t == nil || ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[t.ID]; !exists && len(c.items) >= c.maxSize && len(c.lru) > 0 {
		evict := c.lru[0]
		delete(c.items, evict)
		c.lru = c.lru[1:]
	}

	c.items[t.ID] = cacheItem{
		tenant:    t.Clone(),
		expiresAt: time.Now().Add(ttl),
	}
	c.touch(t.ID)
}

func (c *inMemoryCache) Delete(ctx context.Context, id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, id)
	c.removeLRU(id)
}

func (c *inMemoryCache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *inMemoryCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for id, item := range c.items {
		if !now.Before(item.expiresAt) {
			delete(c.items, id)
			c.removeLRU(id)
		}
	}
}

// touch moves id to the most recently used end.
func (c *inMemoryCache) touch(id uuid.UUID) {
	c.removeLRU(id)
	c.lru = append(c.lru, id)
}

func (c *inMemoryCache) removeLRU(id uuid.UUID) {
	for i, k := range c.lru {
		if k == id {
			c.lru = append(c.lru[:i], c.lru[i+1:]...)
			return
		}
	}
}

// Close stops the cleanup goroutine and waits for it to finish.
func (c *inMemoryCache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.stop)
	<-c.done
	return nil
}

// DefaultCacheTTL is how long CachedStore keeps a tenant.
const DefaultCacheTTL = 5 * time.Minute

// CachedStore wraps a Store with a read-through cache.
// Save writes through and invalidates the cached copy.
type CachedStore struct {
	store Store
	cache Cache
	ttl   time.Duration
}

// NewCachedStore panics if store or cache is nil.
// A non-positive ttl falls back to DefaultCacheTTL.
func NewCachedStore(store Store, cache Cache, ttl time.Duration) *CachedStore {
	if store == nil {
		panic("tenant: store cannot be nil")
	}
	if cache == nil {
		panic("tenant: cache cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedStore{store: store, cache: cache, ttl: ttl}
}

// Get implements Provider.
func (s *CachedStore) Get(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	if t, ok := s.cache.Get(ctx, id); ok {
		return t, nil
	}

	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, t, s.ttl)
	return t, nil
}

// GetByProviderSubscription implements SubscriptionFinder when the wrapped
// store does and returns ErrTenantNotFound otherwise. Lookups always reach the
// wrapped store, the loaded tenant is cached by ID.
func (s *CachedStore) GetByProviderSubscription(ctx context.Context, subscriptionID string) (*Tenant, error) {
	finder, ok := s.store.(SubscriptionFinder)
	if !ok {
		return nil, ErrTenantNotFound
	}

	t, err := finder.GetByProviderSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, t, s.ttl)
	return t, nil
}

// Save implements Store.
func (s *CachedStore) Save(ctx context.Context, t *Tenant) error {
	s.cache.Delete(ctx, t.ID)
	if err := s.store.Save(ctx, t); err != nil {
		return err
	}
	s.cache.Delete(ctx, t.ID)
	return nil
}

// Invalidate drops the cached copy of a tenant.
func (s *CachedStore) Invalidate(ctx context.Context, id uuid.UUID) {
	s.cache.Delete(ctx, id)
}
