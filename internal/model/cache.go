package model

import "sync"

// Cache is a single-slot store for the last model that produced a valid plan.
type Cache struct {
	mu    sync.Mutex
	model string
}

func NewCache() *Cache {
	return &Cache{}
}

// Get returns the cached model and whether one is set.
func (c *Cache) Get() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model, c.model != ""
}

func (c *Cache) Set(model string) {
	c.mu.Lock()
	c.model = model
	c.mu.Unlock()
}

// CompareAndClear empties the slot only if it still holds model. It reports
// whether the slot was cleared.
func (c *Cache) CompareAndClear(model string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if model == "" || c.model != model {
		return false
	}
	c.model = ""
	return true
}

func (c *Cache) Reset() {
	c.Set("")
}
