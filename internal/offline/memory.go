package offline

import (
	"context"
	"sync"
)

// MemoryStorage keeps all caches in process memory. Suitable for tests and
// short-lived CLI invocations where persistence across runs is not needed.
type MemoryStorage struct {
	caches map[string]*memoryCache
	mu     sync.RWMutex
}

var _ Storage = (*MemoryStorage)(nil)

// NewMemoryStorage creates an empty in-memory cache storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		caches: make(map[string]*memoryCache),
	}
}

// Open returns the named cache, creating it if needed.
func (s *MemoryStorage) Open(ctx context.Context, name string) (Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache, ok := s.caches[name]
	if !ok {
		cache = &memoryCache{entries: make(map[string]*Entry)}
		s.caches[name] = cache
	}
	return cache, nil
}

// Delete removes an entire named cache.
func (s *MemoryStorage) Delete(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.caches[name]
	delete(s.caches, name)
	return ok, nil
}

// Names lists all existing cache names.
func (s *MemoryStorage) Names(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.caches))
	for name := range s.caches {
		names = append(names, name)
	}
	return names, nil
}

// Close is a no-op for in-memory storage.
func (s *MemoryStorage) Close() error {
	return nil
}

type memoryCache struct {
	entries map[string]*Entry
	mu      sync.RWMutex
}

func (c *memoryCache) Match(ctx context.Context, key string) (*Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[key].Clone(), nil
}

func (c *memoryCache) Put(ctx context.Context, key string, entry *Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry.Clone()
	return nil
}

func (c *memoryCache) Keys(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	return keys, nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[key]
	delete(c.entries, key)
	return ok, nil
}
