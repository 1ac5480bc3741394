// Package cache implements a bounded LRU cache with optional TTL and
// tag-based invalidation.
package cache

import (
	"container/list"
	"sync"
	"time"
)

type entry[K comparable, V any] struct {
	key         K
	value       V
	createdAt   time.Time
	lastAccess  time.Time
	accessCount int64
	ttl         time.Duration // zero means no expiry
	tags        []string
}

// Stats is a snapshot of cache effectiveness counters.
type Stats struct {
	Hits          int64
	Misses        int64
	Evictions     int64
	Invalidations int64
	Entries       int
	HitRate       float64
}

type config struct {
	ttl time.Duration
	now func() time.Time
}

// Option configures a Cache.
type Option func(*config)

// WithTTL sets the default time-to-live for entries. Expired entries are
// treated as misses and removed on access.
func WithTTL(d time.Duration) Option {
	return func(c *config) { c.ttl = d }
}

// withNow overrides the clock, for tests.
func withNow(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

// Cache is an LRU cache capped by entry count. All methods are safe for
// concurrent use.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	cfg      config

	// ll holds *entry values, front is most recently used.
	ll    *list.List
	items map[K]*list.Element

	hits          int64
	misses        int64
	evictions     int64
	invalidations int64
}

// New returns a cache holding at most capacity entries. A non-positive
// capacity means a single entry.
func New[K comparable, V any](capacity int, opts ...Option) *Cache[K, V] {
	if capacity <= 0 {
		capacity = 1
	}
	cfg := config{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Cache[K, V]{
		capacity: capacity,
		cfg:      cfg,
		ll:       list.New(),
		items:    make(map[K]*list.Element),
	}
}

// Get returns the cached value for key. Expired entries count as misses.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	e := el.Value.(*entry[K, V])
	if c.expired(e) {
		c.removeLocked(el)
		c.misses++
		var zero V
		return zero, false
	}
	e.lastAccess = c.cfg.now()
	e.accessCount++
	c.ll.MoveToFront(el)
	c.hits++
	return e.value, true
}

// Set stores value under key with the default TTL and no tags.
func (c *Cache[K, V]) Set(key K, value V) {
	c.SetTagged(key, value, nil)
}

// SetTagged stores value under key, associating it with tags for later
// invalidation.
func (c *Cache[K, V]) SetTagged(key K, value V, tags []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.cfg.now()
	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[K, V])
		e.value = value
		e.createdAt = now
		e.lastAccess = now
		e.tags = tags
		c.ll.MoveToFront(el)
		return
	}

	for len(c.items) >= c.capacity {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest)
		c.evictions++
	}

	e := &entry[K, V]{
		key:         key,
		value:       value,
		createdAt:   now,
		lastAccess:  now,
		accessCount: 1,
		ttl:         c.cfg.ttl,
		tags:        tags,
	}
	c.items[key] = c.ll.PushFront(e)
}

// GetOrSet returns the cached value for key, or computes and stores it.
func (c *Cache[K, V]) GetOrSet(key K, fn func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := fn()
	if err != nil {
		var zero V
		return zero, err
	}
	c.Set(key, v)
	return v, nil
}

// InvalidateTags removes every entry carrying any of the given tags and
// returns the number removed.
func (c *Cache[K, V]) InvalidateTags(tags ...string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	want := make(map[string]bool, len(tags))
	for _, t := range tags {
		want[t] = true
	}

	var toRemove []*list.Element
	for el := c.ll.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry[K, V])
		for _, t := range e.tags {
			if want[t] {
				toRemove = append(toRemove, el)
				break
			}
		}
	}
	for _, el := range toRemove {
		c.removeLocked(el)
	}
	c.invalidations += int64(len(toRemove))
	return len(toRemove)
}

// Delete removes key from the cache.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.removeLocked(el)
	}
}

// Clear removes all entries. Counters are preserved.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	clear(c.items)
}

// Len returns the number of live entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Stats{
		Hits:          c.hits,
		Misses:        c.misses,
		Evictions:     c.evictions,
		Invalidations: c.invalidations,
		Entries:       len(c.items),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

func (c *Cache[K, V]) expired(e *entry[K, V]) bool {
	return e.ttl > 0 && c.cfg.now().After(e.createdAt.Add(e.ttl))
}

func (c *Cache[K, V]) removeLocked(el *list.Element) {
	e := el.Value.(*entry[K, V])
	c.ll.Remove(el)
	delete(c.items, e.key)
}
