package asset

import (
	"sync"
	"weak"
)

// Cache deduplicates expensive decodes keyed by K, typically bustup
// blocks shared between expressions. Values are held weakly; an entry
// survives only while something still references the decoded value.
// Concurrent lookups of the same key share a single load.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*cacheEntry[V]
}

type cacheEntry[V any] struct {
	done  chan struct{}
	value weak.Pointer[V]
	err   error
}

// NewCache returns an empty cache.
func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{entries: make(map[K]*cacheEntry[V])}
}

// GetOrLoad returns the value for key, invoking load at most once per
// live entry. Waiters on an in-flight load block until it finishes. A
// failed load is not cached; the next caller retries.
func (c *Cache[K, V]) GetOrLoad(key K, load func() (*V, error)) (*V, error) {
	for {
		c.mu.Lock()
		entry, ok := c.entries[key]
		if !ok {
			entry = &cacheEntry[V]{done: make(chan struct{})}
			c.entries[key] = entry
			c.mu.Unlock()

			v, err := load()
			c.mu.Lock()
			if err != nil {
				entry.err = err
				delete(c.entries, key)
			} else {
				entry.value = weak.Make(v)
			}
			close(entry.done)
			c.mu.Unlock()
			return v, err
		}
		c.mu.Unlock()

		<-entry.done
		if entry.err != nil {
			return nil, entry.err
		}
		if v := entry.value.Value(); v != nil {
			return v, nil
		}

		// The value was collected between load and lookup. Drop the
		// stale entry and load again.
		c.mu.Lock()
		if c.entries[key] == entry {
			delete(c.entries, key)
		}
		c.mu.Unlock()
	}
}

// Len reports the number of entries, live or stale.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
