package services

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// TypeCache is a shared key/value cache for type lookups.
// Get returns ok=false on a miss.
type TypeCache interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type redisTypeCache struct {
	client *redis.Client
	prefix string
}

// NewRedisTypeCache stores type lookups in Redis under the "grafeo:types:" prefix.
func NewRedisTypeCache(client *redis.Client) TypeCache {
	return &redisTypeCache{client: client, prefix: "grafeo:types:"}
}

func (c *redisTypeCache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (c *redisTypeCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}

var _ TypeCache = (*redisTypeCache)(nil)
