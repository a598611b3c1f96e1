// Package cache provides a small in-memory TTL cache.
package cache

import (
	"sync"
	"time"
)

// Cache holds values until their TTL passes. Expired entries are dropped on
// read and by Sweep.
type Cache[T any] struct {
	mu   sync.RWMutex
	data map[string]entry[T]
	now  func() time.Time
}

type entry[T any] struct {
	value T
	exp   time.Time
}

// New returns an empty cache.
func New[T any]() *Cache[T] {
	return &Cache[T]{data: make(map[string]entry[T]), now: time.Now}
}

// Get returns the cached value or false if absent or expired.
func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T

	c.mu.RLock()
	item, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if !c.now().Before(item.exp) {
		c.mu.Lock()
		if cur, still := c.data[key]; still && cur.exp.Equal(item.exp) {
			delete(c.data, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return item.value, true
}

// Set stores a value for ttl. A non-positive ttl is a no-op.
func (c *Cache[T]) Set(key string, value T, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.data[key] = entry[T]{value: value, exp: c.now().Add(ttl)}
	c.mu.Unlock()
}

// Sweep removes expired entries and returns how many were dropped.
func (c *Cache[T]) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, e := range c.data {
		if !now.Before(e.exp) {
			delete(c.data, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
