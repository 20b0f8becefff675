package printer

import (
	"context"
	"sync"
	"time"
)

// AddressCache remembers the discovered printer address per routing key so
// the subnet is not rescanned on every job.
type AddressCache interface {
	Get(ctx context.Context, routingKey string) (string, bool, error)
	Set(ctx context.Context, routingKey, addr string, ttl time.Duration) error
	Forget(ctx context.Context, routingKey string) error
	Close() error
}

type cacheEntry struct {
	addr      string
	expiresAt time.Time
}

// InMemoryAddressCache implements AddressCache with a mutex-guarded map.
// Suitable for single-instance deployments and testing.
type InMemoryAddressCache struct {
	mu        sync.RWMutex
	entries   map[string]cacheEntry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryAddressCache creates the cache and starts a background
// goroutine that evicts expired entries.
func NewInMemoryAddressCache() *InMemoryAddressCache {
	c := &InMemoryAddressCache{
		entries:  make(map[string]cacheEntry),
		stopChan: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop()

	return c
}

func (c *InMemoryAddressCache) Get(_ context.Context, routingKey string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[routingKey]
	if !exists || time.Now().After(e.expiresAt) {
		return "", false, nil
	}
	return e.addr, true, nil
}

func (c *InMemoryAddressCache) Set(_ context.Context, routingKey, addr string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[routingKey] = cacheEntry{
		addr:      addr,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (c *InMemoryAddressCache) Forget(_ context.Context, routingKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, routingKey)
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (c *InMemoryAddressCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

func (c *InMemoryAddressCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *InMemoryAddressCache) evictExpired() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

var _ AddressCache = (*InMemoryAddressCache)(nil)
