package depends

import (
	"sync"
)

// instanceCache holds the values produced within one scope, keyed by the
// identity of the producer that ran.
type instanceCache struct {
	instances map[uintptr]any
	mu        sync.RWMutex
}

// newInstanceCache creates a new instance cache
func newInstanceCache() *instanceCache {
	return &instanceCache{
		instances: make(map[uintptr]any),
	}
}

// get retrieves an instance from the cache
func (c *instanceCache) get(key uintptr) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	instance, ok := c.instances[key]
	return instance, ok
}

// set stores an instance in the cache. The first value stored for a key wins.
func (c *instanceCache) set(key uintptr, instance any) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.instances[key]; ok {
		return existing
	}
	c.instances[key] = instance
	return instance
}

// len returns the number of cached instances
func (c *instanceCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.instances)
}

// clear removes all instances from the cache
func (c *instanceCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instances = make(map[uintptr]any)
}
