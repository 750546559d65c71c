package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheItem[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a fixed-size LRU whose entries also expire after a TTL.
type Cache[V any] struct {
	lruCache *lru.Cache[string, cacheItem[V]]
	ttl      time.Duration
	now      func() time.Time
}

func NewCache[V any](size int, ttl time.Duration) (*Cache[V], error) {
	l, err := lru.New[string, cacheItem[V]](size)
	if err != nil {
		return nil, err
	}
	return &Cache[V]{lruCache: l, ttl: ttl, now: time.Now}, nil
}

func (c *Cache[V]) Set(key string, value V) {
	c.lruCache.Add(key, cacheItem[V]{
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	})
}

// Get returns the cached value, dropping it first if it has expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	item, ok := c.lruCache.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().After(item.expiresAt) {
		c.lruCache.Remove(key)
		var zero V
		return zero, false
	}
	return item.value, true
}

func (c *Cache[V]) Delete(key string) {
	c.lruCache.Remove(key)
}

func (c *Cache[V]) Len() int {
	return c.lruCache.Len()
}
