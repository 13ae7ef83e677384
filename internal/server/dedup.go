package server

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	seenTTL  = 5 * time.Minute
	seenSize = 10000
)

// seenCache remembers recently handled message IDs so redelivered events are dropped
type seenCache struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, struct{}]
}

func newSeenCache(ttl time.Duration) *seenCache {
	return &seenCache{cache: expirable.NewLRU[string, struct{}](seenSize, nil, ttl)}
}

// firstSeen marks id as seen and reports whether this is the first time
func (c *seenCache) firstSeen(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.cache.Peek(id); ok {
		return false
	}
	c.cache.Add(id, struct{}{})
	return true
}
