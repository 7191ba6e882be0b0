package cache

import (
	"context"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	gocache_store "github.com/eko/gocache/store/go_cache/v4"
	"github.com/flanksource/commons/logger"
	gocache "github.com/patrickmn/go-cache"
)

// Cache is a named in-memory cache of T keyed by string.
type Cache[T any] struct {
	Name  string
	store cache.CacheInterface[T]
}

func NewCache[T any](name string, expiration time.Duration) *Cache[T] {
	return &Cache[T]{
		Name:  name,
		store: cache.New[T](gocache_store.NewGoCache(gocache.New(expiration, expiration))),
	}
}

// GetOrSet returns the value cached under key, calling fn and storing its
// result on a miss. Errors returned by fn are not cached.
func (c *Cache[T]) GetOrSet(ctx context.Context, key string, fn func() (T, error)) (T, error) {
	if v, err := c.store.Get(ctx, key); err == nil {
		logger.GetLogger("cache").V(5).Infof("[%s] hit: %s", c.Name, key)
		return v, nil
	}

	v, err := fn()
	if err != nil {
		return v, err
	}

	if err := c.store.Set(ctx, key, v); err != nil {
		logger.GetLogger("cache").V(3).Infof("[%s] failed to cache %s: %v", c.Name, key, err)
	}
	return v, nil
}

func (c *Cache[T]) Clear(ctx context.Context) error {
	return c.store.Clear(ctx)
}
