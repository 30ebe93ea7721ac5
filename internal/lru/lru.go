// Package lru provides a small bounded map with least-recently-used
// eviction, used to memoize per-request match outcomes.
package lru

import "container/list"

// Cache is a bounded key-value store that evicts the least recently
// used entry when a new key is inserted at capacity. A lookup that
// hits refreshes the entry's recency.
//
// Cache is not safe for concurrent use. Every instance is expected to
// have a single owner; callers that share work across goroutines give
// each goroutine its own cache.
type Cache[K comparable, V any] struct {
	items    map[K]*list.Element
	order    *list.List // front = most recently used
	capacity int
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// New creates a cache holding at most capacity entries. It panics if
// capacity is not positive; callers that want no caching should not
// construct a cache at all.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity <= 0 {
		panic("lru: capacity must be positive")
	}
	return &Cache[K, V]{
		items:    make(map[K]*list.Element, capacity),
		order:    list.New(),
		capacity: capacity,
	}
}

// Get returns the value stored for key and refreshes its recency.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	elem, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*entry[K, V]).value, true
}

// Put stores value under key. Storing an existing key overwrites its
// value and refreshes its recency; storing a new key at capacity
// evicts the least recently used entry first.
func (c *Cache[K, V]) Put(key K, value V) {
	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*entry[K, V]).value = value
		return
	}

	if c.order.Len() >= c.capacity {
		c.evictOldest()
	}

	c.items[key] = c.order.PushFront(&entry[K, V]{key: key, value: value})
}

// Len returns the number of entries currently stored.
func (c *Cache[K, V]) Len() int {
	return c.order.Len()
}

// Cap returns the capacity the cache was created with.
func (c *Cache[K, V]) Cap() int {
	return c.capacity
}

func (c *Cache[K, V]) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}
	delete(c.items, oldest.Value.(*entry[K, V]).key)
	c.order.Remove(oldest)
}
