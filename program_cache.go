package controls

import "sync"

// DefaultProgramCacheSize bounds the cache a Manager shares between its
// stacks when none is configured.
const DefaultProgramCacheSize = 512

// ProgramCache stores compiled condition and tag programs keyed by
// expression.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// MemoryProgramCache is a ProgramCache safe for concurrent use. A bounded
// cache evicts the oldest entry once full.
type MemoryProgramCache struct {
	mu       sync.RWMutex
	limit    int
	order    []string
	programs map[string]any
}

// NewMemoryProgramCache returns an unbounded cache.
func NewMemoryProgramCache() *MemoryProgramCache {
	return &MemoryProgramCache{programs: map[string]any{}}
}

// NewBoundedProgramCache returns a cache holding at most limit programs.
// A limit below one means unbounded.
func NewBoundedProgramCache(limit int) *MemoryProgramCache {
	cache := NewMemoryProgramCache()
	if limit > 0 {
		cache.limit = limit
	}
	return cache
}

func (c *MemoryProgramCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	program, ok := c.programs[key]
	return program, ok
}

func (c *MemoryProgramCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.programs == nil {
		c.programs = map[string]any{}
	}
	if _, ok := c.programs[key]; !ok {
		if c.limit > 0 && len(c.order) >= c.limit {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.programs, oldest)
		}
		c.order = append(c.order, key)
	}
	c.programs[key] = value
}

// Len returns the number of cached programs.
func (c *MemoryProgramCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.programs)
}

// WithProgramCache shares cache between the evaluators of a stack.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *config) {
		cfg.programCache = cache
	}
}
