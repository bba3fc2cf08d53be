// Driftdeck - Swipe-Based Destination Recommendations
// Copyright 2026 Driftdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/driftdeck/driftdeck

// Package cache provides a thread-safe LRU cache with TTL support, used to
// memoize computed recommendation lists.
package cache

import (
	"math/rand/v2"
	"sync"
	"time"
)

// EvictReason describes why an entry left the cache.
type EvictReason string

// Eviction reasons.
const (
	EvictCapacity EvictReason = "capacity"
	EvictExpired  EvictReason = "expired"
)

// entry is a node in the doubly-linked recency list.
type entry[K comparable, V any] struct {
	key       K
	value     V
	prev      *entry[K, V]
	next      *entry[K, V]
	expiresAt time.Time
}

// LRUCache implements a thread-safe Least Recently Used cache with TTL.
// It provides O(1) Get, Add, and eviction.
//
// Expiry semantics: an entry's lifetime is fixed at insertion time. A hit
// moves the entry to the front of the recency list but does not extend its
// TTL, so cached values are never served beyond ttl after they were computed.
//
// Expired entries are removed lazily on access, and a configurable fraction
// of inserts additionally triggers a full expiry sweep so that idle keys do
// not linger at capacity.
//
// This implementation uses a doubly-linked list for ordering and a hashmap
// for lookups.
type LRUCache[K comparable, V any] struct {
	mu sync.RWMutex

	capacity     int
	ttl          time.Duration
	sweepPercent int

	// items maps keys to linked list nodes for O(1) lookup
	items map[K]*entry[K, V]

	// head and tail are sentinel nodes for the doubly-linked list.
	// head.next is the most recently used, tail.prev is the least recently used.
	head *entry[K, V]
	tail *entry[K, V]

	// OnEvict, if set, is called for every entry removed by capacity
	// eviction or expiry. Called with the lock held; must not re-enter
	// the cache.
	OnEvict func(key K, reason EvictReason)

	hits   int64
	misses int64
}

// New creates an LRU cache with the given capacity, TTL, and sweep chance.
// sweepPercent is the percentage of Add calls that trigger a full expiry
// sweep (0 disables sweeping, 100 sweeps on every insert).
func New[K comparable, V any](capacity int, ttl time.Duration, sweepPercent int) *LRUCache[K, V] {
	if capacity <= 0 {
		capacity = 100
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if sweepPercent < 0 {
		sweepPercent = 0
	}
	if sweepPercent > 100 {
		sweepPercent = 100
	}

	c := &LRUCache[K, V]{
		capacity:     capacity,
		ttl:          ttl,
		sweepPercent: sweepPercent,
		items:        make(map[K]*entry[K, V], capacity),
		head:         &entry[K, V]{},
		tail:         &entry[K, V]{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Get retrieves an entry from the cache. Returns the value and true if found
// and not expired. Found entries are moved to the front of the recency list;
// their expiry is unchanged.
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, exists := c.items[key]; exists {
		if time.Now().After(e.expiresAt) {
			c.removeEntry(e, EvictExpired)
			c.misses++
			var zero V
			return zero, false
		}
		c.moveToFront(e)
		c.hits++
		return e.value, true
	}

	c.misses++
	var zero V
	return zero, false
}

// Add inserts or replaces an entry. Replacement resets the entry's TTL.
// If the cache is over capacity the least recently used entry is evicted.
// Some inserts additionally sweep out all expired entries.
func (c *LRUCache[K, V]) Add(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()

	if c.sweepPercent > 0 && rand.IntN(100) < c.sweepPercent {
		c.sweepExpired(now)
	}

	expiresAt := now.Add(c.ttl)

	if e, exists := c.items[key]; exists {
		e.value = value
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return
	}

	e := &entry[K, V]{
		key:       key,
		value:     value,
		expiresAt: expiresAt,
	}
	c.addToFront(e)
	c.items[key] = e

	for len(c.items) > c.capacity {
		c.evictOldest()
	}
}

// GetOrCompute returns the cached value for key, computing and caching it on
// a miss. The compute function runs outside the cache lock, so concurrent
// misses for the same key may each compute; the last writer wins. Compute
// errors are returned without caching anything.
func (c *LRUCache[K, V]) GetOrCompute(key K, compute func() (V, error)) (V, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	v, err := compute()
	if err != nil {
		var zero V
		return zero, false, err
	}

	c.Add(key, v)
	return v, false, nil
}

// Remove removes an entry from the cache. Returns true if it was present.
func (c *LRUCache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, exists := c.items[key]; exists {
		c.unlink(e)
		delete(c.items, key)
		return true
	}
	return false
}

// Len returns the current number of entries, expired ones included.
func (c *LRUCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear removes all entries from the cache.
func (c *LRUCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]*entry[K, V], c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
}

// CleanupExpired removes all expired entries. Returns the number removed.
func (c *LRUCache[K, V]) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweepExpired(time.Now())
}

// Stats returns cache hit/miss counts and the current size.
func (c *LRUCache[K, V]) Stats() (hits, misses int64, size int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses, len(c.items)
}

// Internal methods (must be called with lock held)

func (c *LRUCache[K, V]) sweepExpired(now time.Time) int {
	removed := 0
	// Walk from tail (oldest recency) to head. Expiry does not follow
	// recency order, so the whole list is scanned.
	for e := c.tail.prev; e != c.head; {
		prev := e.prev
		if now.After(e.expiresAt) {
			c.removeEntry(e, EvictExpired)
			removed++
		}
		e = prev
	}
	return removed
}

func (c *LRUCache[K, V]) addToFront(e *entry[K, V]) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

func (c *LRUCache[K, V]) moveToFront(e *entry[K, V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	c.addToFront(e)
}

func (c *LRUCache[K, V]) unlink(e *entry[K, V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
}

func (c *LRUCache[K, V]) removeEntry(e *entry[K, V], reason EvictReason) {
	c.unlink(e)
	delete(c.items, e.key)
	if c.OnEvict != nil {
		c.OnEvict(e.key, reason)
	}
}

func (c *LRUCache[K, V]) evictOldest() {
	oldest := c.tail.prev
	if oldest == c.head {
		return
	}
	c.removeEntry(oldest, EvictCapacity)
}
