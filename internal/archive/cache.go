package archive

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/hydroframe/point-obs/internal/domain"
)

// CachedIndex wraps a SiteLister with an in-memory TTL'd LRU cache keyed by
// var_id. It is a read-through throughput optimization: entries expire after
// ttl so the cache can never diverge from the archive for longer than that.
type CachedIndex struct {
	inner SiteLister
	ttl   time.Duration
	clock clockwork.Clock
	cache *lruCache

	// onLookup, when set, observes each lookup as "hit" or "miss".
	onLookup func(result string)
}

// NewCachedIndex creates a cache decorator over an index reader.
func NewCachedIndex(inner SiteLister, maxEntries int, ttl time.Duration) *CachedIndex {
	return &CachedIndex{
		inner: inner,
		ttl:   ttl,
		clock: clockwork.NewRealClock(),
		cache: newLRUCache(maxEntries),
	}
}

// SetClock swaps the time source. Pass nil to reset to real time.
func (c *CachedIndex) SetClock(clk clockwork.Clock) {
	if clk == nil {
		c.clock = clockwork.NewRealClock()
		return
	}
	c.clock = clk
}

// OnLookup registers a hit/miss observer, typically a metrics counter.
func (c *CachedIndex) OnLookup(fn func(result string)) { c.onLookup = fn }

// ListSites returns the cached index rows for varID, falling through to the
// archive on miss or expiry. Errors are never cached.
func (c *CachedIndex) ListSites(ctx context.Context, varID int) ([]domain.SiteRecord, error) {
	if e, ok := c.cache.get(varID, c.expired); ok {
		c.observe("hit")
		return e.sites, nil
	}
	c.observe("miss")

	sites, err := c.inner.ListSites(ctx, varID)
	if err != nil {
		return nil, err
	}
	c.cache.put(varID, cachedSites{sites: sites, fetchedAt: c.clock.Now()})
	return sites, nil
}

func (c *CachedIndex) observe(result string) {
	if c.onLookup != nil {
		c.onLookup(result)
	}
}

func (c *CachedIndex) expired(v cachedSites) bool {
	return c.clock.Since(v.fetchedAt) >= c.ttl
}

type cachedSites struct {
	sites     []domain.SiteRecord
	fetchedAt time.Time
}

// lruCache is a small thread-safe LRU keyed by var_id.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[int]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   int
	value cachedSites
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[int]*entry),
	}
}

// get returns the live entry for key. Entries the stale predicate rejects
// are evicted on sight, never promoted: a stale key must not displace a
// fresher one at capacity.
func (c *lruCache) get(key int, stale func(cachedSites) bool) (cachedSites, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return cachedSites{}, false
	}
	if stale(e.value) {
		delete(c.entries, e.key)
		c.remove(e)
		return cachedSites{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key int, value cachedSites) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
