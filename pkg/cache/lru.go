package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// lruCache wraps an expirable LRU. Entries share one TTL taken from
// LocalConfig.DefaultExpiration; the per-call expiration is ignored.
type lruCache struct {
	lru *expirable.LRU[string, string]
}

// NewLRUCache 创建本地LRU缓存
func NewLRUCache(config LocalConfig) Cache {
	size := config.MaxSize
	if size <= 0 {
		size = 64
	}
	return &lruCache{lru: expirable.NewLRU[string, string](size, nil, config.DefaultExpiration)}
}

func (lc *lruCache) Get(ctx context.Context, key string) (string, bool) {
	return lc.lru.Get(key)
}

func (lc *lruCache) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	lc.lru.Add(key, value)
	return nil
}

func (lc *lruCache) Delete(ctx context.Context, key string) error {
	lc.lru.Remove(key)
	return nil
}

func (lc *lruCache) Exists(ctx context.Context, key string) bool {
	return lc.lru.Contains(key)
}

func (lc *lruCache) Clear(ctx context.Context) error {
	lc.lru.Purge()
	return nil
}

func (lc *lruCache) Close() error { return nil }
