package cache

import (
	"context"
	"sync"
	"time"
)

// entry represents a cached contact id with expiration
type entry struct {
	contactID int64
	expiresAt time.Time
}

// InMemoryContactCache implements ContactCache using an in-memory map
// This is suitable for single-instance deployments and testing
type InMemoryContactCache struct {
	mu        sync.RWMutex
	entries   map[string]entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryContactCache creates a new in-memory contact cache
// It starts a background goroutine to clean up expired entries
func NewInMemoryContactCache() *InMemoryContactCache {
	cache := &InMemoryContactCache{
		entries:  make(map[string]entry),
		stopChan: make(chan struct{}),
	}

	cache.wg.Add(1)
	go cache.cleanupLoop()

	return cache
}

func cacheKey(companySlug, externalID string) string {
	return companySlug + ":" + externalID
}

// Get returns the cached contact id and whether it was present
func (c *InMemoryContactCache) Get(ctx context.Context, companySlug, externalID string) (int64, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[cacheKey(companySlug, externalID)]
	if !exists {
		return 0, false, nil
	}

	if time.Now().After(e.expiresAt) {
		return 0, false, nil // Expired, treat as a miss
	}

	return e.contactID, true, nil
}

// Set records a contact id with a TTL
func (c *InMemoryContactCache) Set(ctx context.Context, companySlug, externalID string, contactID int64, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey(companySlug, externalID)] = entry{
		contactID: contactID,
		expiresAt: time.Now().Add(ttl),
	}

	return nil
}

// Close stops the cleanup goroutine and releases resources
// Safe to call multiple times
func (c *InMemoryContactCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired entries
func (c *InMemoryContactCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

// cleanup removes expired entries from the cache
func (c *InMemoryContactCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// Size returns the number of entries in the cache (for testing/monitoring)
func (c *InMemoryContactCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Ensure InMemoryContactCache implements ContactCache
var _ ContactCache = (*InMemoryContactCache)(nil)
