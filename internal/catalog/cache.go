package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/primefit/storefront/pkg/logger"
	"github.com/primefit/storefront/pkg/redis"
	"golang.org/x/sync/singleflight"
)

// readCache fronts public catalog reads with Redis. Misses and Redis errors
// fall through to the loader; concurrent misses for one key share a load.
type readCache struct {
	store redis.Cache
	ttl   time.Duration
	group singleflight.Group
	logg  *logger.Logger
}

func newReadCache(store redis.Cache, ttl time.Duration, logg *logger.Logger) *readCache {
	return &readCache{store: store, ttl: ttl, logg: logg}
}

func (c *readCache) enabled() bool {
	return c != nil && c.store != nil && c.ttl > 0
}

func (c *readCache) key(parts ...string) string {
	if !c.enabled() {
		return ""
	}
	return c.store.CacheKey(append([]string{"catalog"}, parts...)...)
}

// cachedLoad returns the cached value at key, calling fn and caching its
// result on a miss.
func cachedLoad[T any](ctx context.Context, c *readCache, key string, fn func(context.Context) (T, error)) (T, error) {
	if !c.enabled() {
		return fn(ctx)
	}

	var cached T
	err := c.store.GetJSON(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, redis.ErrCacheMiss) {
		c.warn(ctx, key, "catalog cache read failed", err)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		loaded, err := fn(ctx)
		if err != nil {
			return loaded, err
		}
		if setErr := c.store.SetJSON(ctx, key, loaded, c.ttl); setErr != nil {
			c.warn(ctx, key, "catalog cache write failed", setErr)
		}
		return loaded, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (c *readCache) invalidate(ctx context.Context, keys ...string) {
	if !c.enabled() {
		return
	}
	if err := c.store.Del(ctx, keys...); err != nil {
		c.warn(ctx, "", "catalog cache invalidation failed", err)
	}
}

func (c *readCache) warn(ctx context.Context, key, msg string, err error) {
	if c.logg == nil {
		return
	}
	fields := map[string]any{"error": err.Error()}
	if key != "" {
		fields["cache_key"] = key
	}
	c.logg.Warn(c.logg.WithFields(ctx, fields), msg)
}
