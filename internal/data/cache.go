package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"SearchLane/internal/conf"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

const (
	// CacheKeySearchJob is the prefix for terminal job view caches: search_job:{id}
	CacheKeySearchJob = "search_job"
)

const (
	// TTLSearchJob is the default TTL for terminal job views (10 minutes)
	TTLSearchJob = 10 * time.Minute
)

// ErrCacheNotFound is returned when a cache key does not exist
var ErrCacheNotFound = errors.New("cache: key not found")

// CacheClient defines the interface for cache operations.
// Implementations must be thread-safe and handle serialization/deserialization.
type CacheClient interface {
	// Get retrieves a value from cache and deserializes it into dest.
	// Returns ErrCacheNotFound if key doesn't exist.
	Get(ctx context.Context, key string, dest interface{}) error

	// Set stores a value in cache with the specified TTL.
	// The value is serialized to JSON before storage.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	Delete(ctx context.Context, key string) error
}

// NewCacheClient creates the cache used by repositories.
// With data.local_cache.size > 0 an in-process LRU sits in front of Redis.
func NewCacheClient(c *conf.Data, rdb *redis.Client) CacheClient {
	remote := &redisCache{client: rdb}
	if c == nil || c.LocalCache == nil || c.LocalCache.Size <= 0 {
		return remote
	}

	ttl := TTLSearchJob
	if c.Redis != nil && c.Redis.JobTtl != nil && c.Redis.JobTtl.AsDuration() > 0 {
		ttl = c.Redis.JobTtl.AsDuration()
	}
	return &tieredCache{
		local:  expirable.NewLRU[string, []byte](int(c.LocalCache.Size), nil, ttl),
		remote: remote,
	}
}

// redisCache is the Redis-based implementation of CacheClient.
type redisCache struct {
	client *redis.Client
}

func (c *redisCache) getRaw(ctx context.Context, key string) ([]byte, error) {
	if c.client == nil {
		return nil, errors.New("cache: redis client is nil")
	}

	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheNotFound
		}
		return nil, fmt.Errorf("cache: failed to get key %s: %w", key, err)
	}
	return val, nil
}

func (c *redisCache) setRaw(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if c.client == nil {
		return errors.New("cache: redis client is nil")
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache: failed to set key %s: %w", key, err)
	}
	return nil
}

// Get retrieves a value from cache and deserializes it into dest.
// Returns ErrCacheNotFound if the key doesn't exist (redis.Nil).
func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := c.getRaw(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return fmt.Errorf("cache: failed to unmarshal value for key %s: %w", key, err)
	}
	return nil
}

// Set stores a value in cache with the specified TTL.
func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: failed to marshal value for key %s: %w", key, err)
	}
	return c.setRaw(ctx, key, data, ttl)
}

// Delete removes a key from cache.
func (c *redisCache) Delete(ctx context.Context, key string) error {
	if c.client == nil {
		return errors.New("cache: redis client is nil")
	}

	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache: failed to delete key %s: %w", key, err)
	}
	return nil
}

// tieredCache 本地 LRU + Redis 两级缓存
// Redis 不可用时仍可命中本地缓存
type tieredCache struct {
	local  *expirable.LRU[string, []byte]
	remote *redisCache
}

func (c *tieredCache) Get(ctx context.Context, key string, dest interface{}) error {
	val, ok := c.local.Get(key)
	if !ok {
		var err error
		val, err = c.remote.getRaw(ctx, key)
		if err != nil {
			return err
		}
		c.local.Add(key, val)
	}
	if err := json.Unmarshal(val, dest); err != nil {
		c.local.Remove(key)
		return fmt.Errorf("cache: failed to unmarshal value for key %s: %w", key, err)
	}
	return nil
}

// Set writes both tiers. A Redis failure is returned after the local write.
func (c *tieredCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: failed to marshal value for key %s: %w", key, err)
	}
	c.local.Add(key, data)
	return c.remote.setRaw(ctx, key, data, ttl)
}

func (c *tieredCache) Delete(ctx context.Context, key string) error {
	c.local.Remove(key)
	return c.remote.Delete(ctx, key)
}

// BuildCacheKey constructs a cache key with the appropriate prefix.
// Examples:
//   - BuildCacheKey(CacheKeySearchJob, "9f1c") -> "search_job:9f1c"
func BuildCacheKey(prefix string, parts ...string) string {
	key := prefix
	for _, part := range parts {
		key += ":" + part
	}
	return key
}
