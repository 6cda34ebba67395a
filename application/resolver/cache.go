package resolver

import (
	"sync"
	"time"

	"github.com/kryoon/backend/application/ports"
)

// profileCache holds resolved user profiles with a TTL so a tree full of
// nodes by the same author costs one identity lookup per window.
type profileCache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[string]profileCacheItem
}

type profileCacheItem struct {
	profile   ports.Profile
	expiresAt time.Time
}

func newProfileCache(ttl time.Duration) *profileCache {
	return &profileCache{
		ttl:   ttl,
		items: make(map[string]profileCacheItem),
	}
}

func (c *profileCache) get(userID string) (ports.Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[userID]
	if !exists || time.Now().After(item.expiresAt) {
		return ports.Profile{}, false
	}
	return item.profile, true
}

func (c *profileCache) set(userID string, p ports.Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[userID] = profileCacheItem{
		profile:   p,
		expiresAt: time.Now().Add(c.ttl),
	}
}
