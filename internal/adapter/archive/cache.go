package archive

import (
	"context"
	"slices"
	"sync"

	"github.com/couchcryptid/pgn-l0-service/internal/domain"
	"github.com/couchcryptid/pgn-l0-service/internal/observability"
)

// CachedArchive wraps an Archive with in-memory LRU caches for listings and
// fetched files. Errors are never cached.
type CachedArchive struct {
	inner    domain.Archive
	listings *lruCache[[]string]
	files    *lruCache[domain.RawBlob]
	metrics  *observability.Metrics
}

// NewCachedArchive creates a cache decorator around an archive.
func NewCachedArchive(inner domain.Archive, maxEntries int, metrics *observability.Metrics) *CachedArchive {
	return &CachedArchive{
		inner:    inner,
		listings: newLRUCache[[]string](maxEntries),
		files:    newLRUCache[domain.RawBlob](maxEntries),
		metrics:  metrics,
	}
}

func (c *CachedArchive) List(ctx context.Context, path string) ([]string, error) {
	if entries, ok := c.listings.get(path); ok {
		c.metrics.ArchiveCache.WithLabelValues("list", "hit").Inc()
		return slices.Clone(entries), nil
	}
	c.metrics.ArchiveCache.WithLabelValues("list", "miss").Inc()
	entries, err := c.inner.List(ctx, path)
	if err != nil {
		return nil, err
	}
	c.listings.put(path, slices.Clone(entries))
	return entries, nil
}

func (c *CachedArchive) Fetch(ctx context.Context, path string) (domain.RawBlob, error) {
	if blob, ok := c.files.get(path); ok {
		c.metrics.ArchiveCache.WithLabelValues("fetch", "hit").Inc()
		return blob, nil
	}
	c.metrics.ArchiveCache.WithLabelValues("fetch", "miss").Inc()
	blob, err := c.inner.Fetch(ctx, path)
	if err != nil {
		return blob, err
	}
	c.files.put(path, blob)
	return blob, nil
}

// lruCache is a simple thread-safe LRU cache.
type lruCache[V any] struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry[V]
	head       *entry[V] // most recently used
	tail       *entry[V] // least recently used
}

type entry[V any] struct {
	key   string
	value V
	prev  *entry[V]
	next  *entry[V]
}

func newLRUCache[V any](maxEntries int) *lruCache[V] {
	return &lruCache[V]{
		maxEntries: max(maxEntries, 1),
		entries:    make(map[string]*entry[V]),
	}
}

func (c *lruCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry[V]{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache[V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache[V]) moveToFront(e *entry[V]) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache[V]) addToFront(e *entry[V]) {
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

func (c *lruCache[V]) remove(e *entry[V]) {
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

func (c *lruCache[V]) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
