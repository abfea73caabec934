// Package cache provides a small generic LRU cache.
//
// The engine keeps compiled filters and their visible record sets here,
// keyed by the filter wire form and the dataset generation, so toggling
// between recently used filters does not rescan the dataset.
//
//	c := cache.New[string, int](16)
//	c.Set("key", 42)
//	v, ok := c.Get("key")
//
// # Thread Safety
//
// Cache is safe for concurrent use.
package cache
