package agent

import (
	"context"
	"sync"
	"time"
)

// Cache hands out one live agent per (session, model) pair. Get-or-create is
// atomic: a single lock covers lookup and insert, so concurrent first
// requests for the same key construct exactly one agent.
//
// Entries are bounded: when maxEntries is exceeded the least recently used
// entry is evicted, and entries idle longer than idleTTL are swept on access.
type Cache struct {
	mu         sync.Mutex
	factory    *Factory
	entries    map[string]*cacheEntry
	maxEntries int
	idleTTL    time.Duration
	now        func() time.Time
}

type cacheEntry struct {
	agent    Agent
	lastUsed time.Time
}

func NewCache(factory *Factory, maxEntries int, idleTTL time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	if idleTTL <= 0 {
		idleTTL = time.Hour
	}
	return &Cache{
		factory:    factory,
		entries:    make(map[string]*cacheEntry),
		maxEntries: maxEntries,
		idleTTL:    idleTTL,
		now:        time.Now,
	}
}

func cacheKey(sessionID, model string) string {
	return sessionID + "\x00" + model
}

// GetOrCreate returns the cached agent for the pair, constructing and
// inserting one under the lock on first use.
func (c *Cache) GetOrCreate(ctx context.Context, sessionID, model string) (Agent, error) {
	key := cacheKey(sessionID, model)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweepLocked()

	if e, ok := c.entries[key]; ok {
		e.lastUsed = c.now()
		return e.agent, nil
	}

	a, err := c.factory.New(ctx, sessionID, model)
	if err != nil {
		return nil, err
	}

	if len(c.entries) >= c.maxEntries {
		c.evictLRULocked()
	}
	c.entries[key] = &cacheEntry{agent: a, lastUsed: c.now()}
	return a, nil
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) sweepLocked() {
	cutoff := c.now().Add(-c.idleTTL)
	for key, e := range c.entries {
		if e.lastUsed.Before(cutoff) {
			delete(c.entries, key)
		}
	}
}

func (c *Cache) evictLRULocked() {
	var oldestKey string
	var oldestTime time.Time
	for key, e := range c.entries {
		if oldestKey == "" || e.lastUsed.Before(oldestTime) {
			oldestKey = key
			oldestTime = e.lastUsed
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
