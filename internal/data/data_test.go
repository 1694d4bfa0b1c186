package data

import (
	"testing"
	"time"

	"SearchLane/internal/conf"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/durationpb"
)

func TestNewData_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	c := &conf.Data{
		Redis: &conf.Data_Redis{
			Addr:         mr.Addr(),
			ReadTimeout:  durationpb.New(200 * time.Millisecond),
			WriteTimeout: durationpb.New(200 * time.Millisecond),
			JobTtl:       durationpb.New(5 * time.Minute),
		},
		LocalCache: &conf.Data_LocalCache{Size: 8},
	}
	logger := log.DefaultLogger

	rdb, redisCleanup, err := NewRedisClient(c, logger)
	require.NoError(t, err)
	require.NotNil(t, rdb)
	defer redisCleanup()

	cache := NewCacheClient(c, rdb)
	require.NotNil(t, cache)

	data, cleanup, err := NewData(c, logger, rdb, cache)
	require.NoError(t, err)
	require.NotNil(t, data)
	defer cleanup()

	assert.Equal(t, rdb, data.GetRedisClient())
	assert.Equal(t, cache, data.GetCache())
	assert.Equal(t, 5*time.Minute, data.JobTTL())
}

func TestNewData_WithoutRedis(t *testing.T) {
	data, cleanup, err := NewData(&conf.Data{}, log.DefaultLogger, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, data)
	defer cleanup()

	assert.Nil(t, data.GetRedisClient())
	assert.Nil(t, data.GetCache())
	// 未配置时使用默认 TTL
	assert.Equal(t, TTLSearchJob, data.JobTTL())
}

func TestNewData_NilConfig(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	data, cleanup, err := NewData(nil, log.DefaultLogger, rdb, NewCacheClient(nil, rdb))
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, TTLSearchJob, data.JobTTL())
	assert.NotNil(t, data.GetCache())
}
