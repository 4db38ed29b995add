// Package cache provides an LRU cache with optional expiry, used to keep
// compiled statements between calls.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Stats represents cache statistics
type Stats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Size      int     `json:"size"`
	MaxSize   int     `json:"maxSize"`
	Evictions int64   `json:"evictions"`
	HitRate   float64 `json:"hitRate"`
}

// LRU is a size-bounded cache that evicts the least recently used entry.
// A zero TTL keeps entries until they are evicted.
type LRU[V any] struct {
	mu      sync.Mutex
	data    map[string]*node[V]
	maxSize int
	ttl     time.Duration
	head    *node[V]
	tail    *node[V]
	stats   Stats
	now     func() time.Time
}

type node[V any] struct {
	key       string
	value     V
	expiresAt time.Time
	prev      *node[V]
	next      *node[V]
}

// NewLRU creates a cache holding at most maxSize entries.
func NewLRU[V any](maxSize int, ttl time.Duration) *LRU[V] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &LRU[V]{
		data:    make(map[string]*node[V]),
		maxSize: maxSize,
		ttl:     ttl,
		stats:   Stats{MaxSize: maxSize},
		now:     time.Now,
	}
}

// Get returns the value for key and marks it recently used.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.data[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}
	if !n.expiresAt.IsZero() && c.now().After(n.expiresAt) {
		c.remove(n)
		c.stats.Misses++
		var zero V
		return zero, false
	}

	c.moveToFront(n)
	c.stats.Hits++
	return n.value, true
}

// Set stores value under key, evicting the oldest entry when full.
func (c *LRU[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}

	if n, ok := c.data[key]; ok {
		n.value = value
		n.expiresAt = expiresAt
		c.moveToFront(n)
		return
	}

	for len(c.data) >= c.maxSize && c.tail != nil {
		c.remove(c.tail)
		c.stats.Evictions++
	}

	n := &node[V]{key: key, value: value, expiresAt: expiresAt}
	c.data[key] = n
	c.addToFront(n)
}

// Invalidate removes key.
func (c *LRU[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.data[key]; ok {
		c.remove(n)
	}
}

// Clear removes every entry. Counters are kept.
func (c *LRU[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[string]*node[V])
	c.head = nil
	c.tail = nil
}

// Stats returns a copy of the counters.
func (c *LRU[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Size = len(c.data)
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total) * 100
	}
	return stats
}

func (c *LRU[V]) addToFront(n *node[V]) {
	n.prev = nil
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *LRU[V]) moveToFront(n *node[V]) {
	if n == c.head {
		return
	}
	c.unlink(n)
	c.addToFront(n)
}

func (c *LRU[V]) unlink(n *node[V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev = nil
	n.next = nil
}

func (c *LRU[V]) remove(n *node[V]) {
	c.unlink(n)
	delete(c.data, n.key)
}

// Key hashes parts into a fixed-length cache key.
func Key(parts ...[]byte) string {
	hasher := sha256.New()
	for _, p := range parts {
		hasher.Write(p)
		hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}
