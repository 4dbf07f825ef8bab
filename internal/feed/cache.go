package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/couchcryptid/storm-dol-engine/internal/domain"
)

// CachedSource wraps a Source with an in-memory LRU cache keyed by bounding
// box and window. It exists for the interactive path: repeated on-demand
// requests for the same property within one process do not re-hit the feed.
// The cache is constructed explicitly and injected, never package-level state,
// so parallel workers stay independent.
type CachedSource struct {
	inner Source
	cache *lruCache
}

// NewCachedSource creates a cache decorator around a source adapter.
func NewCachedSource(inner Source, maxEntries int) *CachedSource {
	return &CachedSource{
		inner: inner,
		cache: newLRUCache(maxEntries),
	}
}

func (c *CachedSource) Name() string { return c.inner.Name() }

func (c *CachedSource) Fetch(ctx context.Context, bbox domain.BoundingBox, start, end time.Time) ([]domain.WeatherEvent, error) {
	key := fmt.Sprintf("%.4f,%.4f,%.4f,%.4f|%d|%d",
		bbox.MinLat, bbox.MaxLat, bbox.MinLng, bbox.MaxLng, start.Unix(), end.Unix())
	if events, ok := c.cache.get(key); ok {
		return events, nil
	}
	events, err := c.inner.Fetch(ctx, bbox, start, end)
	if err != nil {
		return nil, err
	}
	// Only cache non-empty results so a transiently empty feed can be retried.
	if len(events) > 0 {
		c.cache.put(key, events)
	}
	return events, nil
}

// lruCache is a simple thread-safe LRU cache of fetch results.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value []domain.WeatherEvent
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) ([]domain.WeatherEvent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value []domain.WeatherEvent) {
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
