// Package data provides data access layer implementations.
// It handles database connections, caching and the outbound search service client.
package data

import (
	"time"

	"SearchLane/internal/biz"
	"SearchLane/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
)

// SearchProviderSet is data providers for the search microservice.
var SearchProviderSet = wire.NewSet(
	NewData,
	NewRedisClient,
	NewCacheClient,
	NewMySQLClient,
	NewSearchJobRepo,
	wire.Bind(new(biz.SearchJobRepo), new(*SearchJobRepo)),
)

// GatewayProviderSet is data providers for the api-gateway.
var GatewayProviderSet = wire.NewSet(
	NewSearchClient,
	wire.Bind(new(biz.SearchServiceRepo), new(*SearchClient)),
)

// Data contains all data layer dependencies.
type Data struct {
	// redisClient is the Redis client for caching
	redisClient *redis.Client
	// cache is the cache interface for repository use
	cache CacheClient
	// jobTTL 终态任务视图缓存时间
	jobTTL time.Duration
	// Note: MySQL DB is not stored here, it's injected directly to repositories
}

// NewData creates a new Data instance with all data layer dependencies.
// Redis connection failure does not prevent application startup (graceful degradation).
func NewData(c *conf.Data, logger log.Logger, rdb *redis.Client, cache CacheClient) (*Data, func(), error) {
	helper := log.NewHelper(logger)

	if rdb == nil {
		helper.Warn("Redis client is nil, search job views will only use the local cache")
	}

	ttl := TTLSearchJob
	if c != nil && c.Redis != nil && c.Redis.JobTtl != nil && c.Redis.JobTtl.AsDuration() > 0 {
		ttl = c.Redis.JobTtl.AsDuration()
	}

	d := &Data{
		redisClient: rdb,
		cache:       cache,
		jobTTL:      ttl,
	}

	cleanup := func() {
		helper.Info("closing the data resources")
		// Redis and MySQL are closed by their own cleanup functions, called by Wire
	}

	return d, cleanup, nil
}

// GetCache returns the cache client for repository use.
func (d *Data) GetCache() CacheClient {
	return d.cache
}

// GetRedisClient returns the Redis client for advanced operations.
func (d *Data) GetRedisClient() *redis.Client {
	return d.redisClient
}

// JobTTL returns how long terminal job views stay cached.
func (d *Data) JobTTL() time.Duration {
	return d.jobTTL
}
