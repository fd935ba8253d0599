package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/suran0330/kicholgy-sub001/internal/catalog"
)

// homeFeed is the cached /v1/remote/home payload.
type homeFeed struct {
	Featured    []catalog.RemoteProduct `json:"featured"`
	Recent      []catalog.RemoteProduct `json:"recent"`
	BestSelling []catalog.RemoteProduct `json:"bestSelling"`
	Errors      map[string]string       `json:"errors,omitempty"`
	Cached      bool                    `json:"cached"`
}

type cacheItem struct {
	Feed    *homeFeed
	Product *catalog.RemoteProduct
	Expires time.Time
}

// remoteCache holds short-lived copies of remote responses that are the
// same for every shopper. A zero ttl disables it.
type remoteCache struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]cacheItem
}

func newRemoteCache(ttl time.Duration) *remoteCache {
	return &remoteCache{ttl: ttl, now: time.Now, items: make(map[string]cacheItem)}
}

func (c *remoteCache) get(key string) (cacheItem, bool) {
	if c.ttl <= 0 {
		return cacheItem{}, false
	}
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || c.now().After(item.Expires) {
		return cacheItem{}, false
	}
	return item, true
}

func (c *remoteCache) set(key string, item cacheItem) {
	if c.ttl <= 0 {
		return
	}
	item.Expires = c.now().Add(c.ttl)
	c.mu.Lock()
	c.items[key] = item
	c.mu.Unlock()
}

func (c *remoteCache) invalidatePrefix(prefix string) {
	c.mu.Lock()
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
		}
	}
	c.mu.Unlock()
}

func homeCacheKey(count int) string {
	return fmt.Sprintf("home|%d", count)
}

func productCacheKey(handle string) string {
	return "product|" + strings.ToLower(strings.TrimSpace(handle))
}
