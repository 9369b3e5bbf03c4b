package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache stores JSON values in Redis under a shared key prefix.
type Cache struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
}

func NewCache(redis *redis.Client, prefix string, ttl time.Duration) *Cache {
	return &Cache{
		redis:  redis,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.redis.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return ErrMiss
		}
		return errors.Wrap(err, "failed to get from cache")
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return errors.Wrap(err, "failed to unmarshal cached data")
	}
	return nil
}

// Set stores value with the cache's default TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}) error {
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

func (c *Cache) SetWithTTL(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "failed to marshal data for cache")
	}

	if err := c.redis.Set(ctx, c.prefix+key, data, expiration).Err(); err != nil {
		return errors.Wrap(err, "failed to set cache")
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = c.prefix + k
	}
	if err := c.redis.Del(ctx, prefixed...).Err(); err != nil {
		return errors.Wrap(err, "failed to delete from cache")
	}
	return nil
}

func (c *Cache) Clear(ctx context.Context) error {
	iter := c.redis.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			return errors.Wrap(err, "failed to clear cache")
		}
	}
	if err := iter.Err(); err != nil {
		return errors.Wrap(err, "failed to iterate over cache keys")
	}
	return nil
}
