package cache

import (
	"log"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jonboulle/clockwork"

	"pitch-pipeline/internal/models"
)

// Category selects the TTL applied to an entry. Fallback and error results
// are cached briefly so the pipeline re-attempts once upstream health may
// have recovered.
type Category string

const (
	CategoryShorts   Category = "shorts"
	CategoryVideo    Category = "video"
	CategoryMetadata Category = "metadata"
	CategoryFallback Category = "fallback"
	CategoryError    Category = "error"
)

type entry struct {
	value        *models.AcquisitionResult
	category     Category
	createdAt    time.Time
	ttl          time.Duration
	hitCount     int64
	lastAccessed time.Time
}

// Stats is a point-in-time snapshot for the health surface.
type Stats struct {
	Size      int   `json:"size"`
	Capacity  int   `json:"capacity"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Expired   int64 `json:"expired"`
}

// Cache is a bounded key/value store for acquisition results with
// per-category TTLs and least-recently-used eviction. A Get never returns
// a value whose TTL has elapsed.
type Cache struct {
	mu    sync.Mutex
	store *lru.Cache[string, *entry]
	ttls  map[Category]time.Duration
	clock clockwork.Clock

	capacity  int
	hits      int64
	misses    int64
	evictions int64
	expired   int64
}

func New(capacity int, ttlSeconds map[string]int, clock clockwork.Clock) (*Cache, error) {
	c := &Cache{
		ttls:     make(map[Category]time.Duration, len(ttlSeconds)),
		clock:    clock,
		capacity: capacity,
	}
	for category, seconds := range ttlSeconds {
		c.ttls[Category(category)] = time.Duration(seconds) * time.Second
	}

	store, err := lru.NewWithEvict[string, *entry](capacity, func(key string, _ *entry) {
		c.evictions++
	})
	if err != nil {
		return nil, err
	}
	c.store = store
	return c, nil
}

// Get returns the cached result for key, bumping its hit count and recency.
// Expired entries are removed lazily and reported as a miss.
func (c *Cache) Get(key string) (*models.AcquisitionResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.store.Get(key)
	if !ok {
		c.misses++
		return nil, false
	}

	now := c.clock.Now()
	if now.After(e.createdAt.Add(e.ttl)) {
		c.store.Remove(key)
		c.expired++
		c.misses++
		return nil, false
	}

	e.hitCount++
	e.lastAccessed = now
	c.hits++
	return e.value, true
}

// Set stores value under key with the TTL of its category. When capacity is
// exceeded the least-recently-used entry is evicted.
func (c *Cache) Set(key string, value *models.AcquisitionResult, category Category) {
	ttl, ok := c.ttls[category]
	if !ok {
		// Unknown categories get the short fallback TTL rather than
		// lingering with a long one.
		ttl = c.ttls[CategoryFallback]
		log.Printf("cache: unknown category %q for key %s, using fallback TTL", category, key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	c.store.Add(key, &entry{
		value:        value,
		category:     category,
		createdAt:    now,
		ttl:          ttl,
		lastAccessed: now,
	})
}

// Cleanup sweeps every expired entry and returns how many were removed.
// Expiry is otherwise lazy, so this keeps long-idle keys from pinning
// memory between accesses.
func (c *Cache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	removed := 0
	for _, key := range c.store.Keys() {
		e, ok := c.store.Peek(key)
		if !ok {
			continue
		}
		if now.After(e.createdAt.Add(e.ttl)) {
			c.store.Remove(key)
			c.expired++
			removed++
		}
	}
	if removed > 0 {
		log.Printf("cache: cleanup removed %d expired entries", removed)
	}
	return removed
}

// HitCount reports the per-entry hit counter, for tests and diagnostics.
func (c *Cache) HitCount(key string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.store.Peek(key); ok {
		return e.hitCount
	}
	return 0
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Size:      c.store.Len(),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Expired:   c.expired,
	}
}
