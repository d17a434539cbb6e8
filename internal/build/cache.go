package build

import (
	"sync"
	"sync/atomic"
)

// PageCache remembers, per document, the content hash and output path of
// the last successful build. It also stores the metadata-to-hash mappings
// of the HashProvider. Entries are evicted least recently used first once
// the byte budget is exceeded.
type PageCache struct {
	entries     map[string]*cacheEntry
	mutex       sync.Mutex
	maxSize     int64
	currentSize int64
	// LRU list with sentinel head and tail
	head *cacheEntry
	tail *cacheEntry

	hits      int64
	misses    int64
	evictions int64
}

type cacheEntry struct {
	key    string
	hash   string
	output string
	size   int64

	prev *cacheEntry
	next *cacheEntry
}

// CacheStats is a snapshot of the cache counters.
type CacheStats struct {
	Entries   int
	Size      int64
	MaxSize   int64
	Hits      int64
	Misses    int64
	Evictions int64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

const pageKeyPrefix = "page:"

// NewPageCache creates a cache bounded to maxSize bytes of keys and values.
func NewPageCache(maxSize int64) *PageCache {
	c := &PageCache{
		entries: make(map[string]*cacheEntry),
		maxSize: maxSize,
		head:    &cacheEntry{},
		tail:    &cacheEntry{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Fresh reports whether doc was last built from content with the given
// hash, and returns the output path recorded for it.
func (c *PageCache) Fresh(doc, hash string) (string, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, ok := c.entries[pageKeyPrefix+doc]
	if !ok || entry.hash != hash {
		atomic.AddInt64(&c.misses, 1)
		return "", false
	}
	c.moveToFront(entry)
	atomic.AddInt64(&c.hits, 1)
	return entry.output, true
}

// Store records a successful build of doc.
func (c *PageCache) Store(doc, hash, output string) {
	c.set(pageKeyPrefix+doc, hash, output)
}

// Invalidate forgets doc so that the next build converts it again.
func (c *PageCache) Invalidate(doc string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if entry, ok := c.entries[pageKeyPrefix+doc]; ok {
		c.remove(entry)
	}
}

// GetHash returns the hash stored under a metadata key.
func (c *PageCache) GetHash(key string) (string, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	c.moveToFront(entry)
	return entry.hash, true
}

// SetHash stores a hash under a metadata key.
func (c *PageCache) SetHash(key, hash string) {
	c.set(key, hash, "")
}

// Clear drops every entry and resets the counters.
func (c *PageCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.currentSize = 0
	c.head.next = c.tail
	c.tail.prev = c.head

	atomic.StoreInt64(&c.hits, 0)
	atomic.StoreInt64(&c.misses, 0)
	atomic.StoreInt64(&c.evictions, 0)
}

// Stats returns the current counters.
func (c *PageCache) Stats() CacheStats {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return CacheStats{
		Entries:   len(c.entries),
		Size:      c.currentSize,
		MaxSize:   c.maxSize,
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Evictions: atomic.LoadInt64(&c.evictions),
	}
}

func (c *PageCache) set(key, hash, output string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	size := int64(len(key) + len(hash) + len(output))

	if existing, ok := c.entries[key]; ok {
		c.currentSize += size - existing.size
		existing.hash = hash
		existing.output = output
		existing.size = size
		c.moveToFront(existing)
		c.evictIfNeeded(0)
		return
	}

	if size > c.maxSize {
		return
	}
	c.evictIfNeeded(size)

	entry := &cacheEntry{key: key, hash: hash, output: output, size: size}
	c.entries[key] = entry
	c.addToFront(entry)
	c.currentSize += size
}

// evictIfNeeded drops least recently used entries until extra more bytes fit.
func (c *PageCache) evictIfNeeded(extra int64) {
	for c.currentSize+extra > c.maxSize && c.tail.prev != c.head {
		c.remove(c.tail.prev)
		atomic.AddInt64(&c.evictions, 1)
	}
}

func (c *PageCache) remove(entry *cacheEntry) {
	c.unlink(entry)
	delete(c.entries, entry.key)
	c.currentSize -= entry.size
}

func (c *PageCache) addToFront(entry *cacheEntry) {
	entry.prev = c.head
	entry.next = c.head.next
	c.head.next.prev = entry
	c.head.next = entry
}

func (c *PageCache) unlink(entry *cacheEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
}

func (c *PageCache) moveToFront(entry *cacheEntry) {
	c.unlink(entry)
	c.addToFront(entry)
}
