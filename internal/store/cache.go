/*-------------------------------------------------------------------------
 *
 * BankSight Analytics Server - Read-Through Query Cache
 *
 * Copyright (c) 2026, the BankSight authors
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package store

import "sync"

// queryCache memoizes read results keyed by statement text. The invalidation
// policy is deliberately coarse: every write clears everything. Cached
// results are treated as immutable by all readers.
type queryCache struct {
	mu      sync.RWMutex
	entries map[string]Result
}

func newQueryCache() *queryCache {
	return &queryCache{
		entries: make(map[string]Result),
	}
}

// Get returns the cached result for a key if present
func (c *queryCache) Get(key string) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.entries[key]
	return res, ok
}

// Put stores a result under a key
func (c *queryCache) Put(key string, res Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = res
}

// Clear drops every cached entry
func (c *queryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Result)
}

// Len reports the number of cached entries, for tests
func (c *queryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
