package data

import (
	"context"
	"testing"
	"time"

	"SearchLane/internal/conf"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/durationpb"
)

// cachedView is a test struct for serialization
type cachedView struct {
	ID      string   `json:"id"`
	Status  string   `json:"status"`
	Count   int      `json:"count"`
	Results []string `json:"results"`
}

func setupTestCache(t *testing.T, localSize int32) (CacheClient, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	rdb := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = rdb.Close() })

	c := &conf.Data{
		Redis:      &conf.Data_Redis{JobTtl: durationpb.New(time.Minute)},
		LocalCache: &conf.Data_LocalCache{Size: localSize},
	}
	return NewCacheClient(c, rdb), mr
}

func TestNewCacheClient_Tiering(t *testing.T) {
	redisOnly, _ := setupTestCache(t, 0)
	assert.IsType(t, &redisCache{}, redisOnly)

	tiered, _ := setupTestCache(t, 16)
	assert.IsType(t, &tieredCache{}, tiered)

	assert.IsType(t, &redisCache{}, NewCacheClient(nil, nil))
}

func TestCacheSetGet(t *testing.T) {
	for _, size := range []int32{0, 16} {
		cache, mr := setupTestCache(t, size)
		ctx := context.Background()

		view := cachedView{ID: "job-1", Status: "completed", Count: 2, Results: []string{"a", "b"}}
		key := BuildCacheKey(CacheKeySearchJob, "job-1")
		require.NoError(t, cache.Set(ctx, key, view, TTLSearchJob))

		// 写入 Redis 并带 TTL
		assert.True(t, mr.Exists(key))
		assert.Equal(t, TTLSearchJob, mr.TTL(key))

		var got cachedView
		require.NoError(t, cache.Get(ctx, key, &got))
		assert.Equal(t, view, got)
	}
}

func TestCacheGet_KeyNotFound(t *testing.T) {
	for _, size := range []int32{0, 16} {
		cache, _ := setupTestCache(t, size)

		var got cachedView
		err := cache.Get(context.Background(), "search_job:missing", &got)
		assert.ErrorIs(t, err, ErrCacheNotFound)
	}
}

func TestCacheGet_InvalidJSON(t *testing.T) {
	cache, mr := setupTestCache(t, 16)

	key := "search_job:invalid"
	_ = mr.Set(key, "invalid json {{{")

	var got cachedView
	err := cache.Get(context.Background(), key, &got)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestTieredCache_LocalHitSurvivesRedisLoss(t *testing.T) {
	cache, mr := setupTestCache(t, 16)
	ctx := context.Background()

	key := BuildCacheKey(CacheKeySearchJob, "job-2")
	require.NoError(t, cache.Set(ctx, key, cachedView{ID: "job-2"}, TTLSearchJob))

	mr.Close()

	var got cachedView
	require.NoError(t, cache.Get(ctx, key, &got))
	assert.Equal(t, "job-2", got.ID)
}

func TestTieredCache_PopulatesLocalFromRedis(t *testing.T) {
	cache, mr := setupTestCache(t, 16)
	ctx := context.Background()

	key := BuildCacheKey(CacheKeySearchJob, "job-3")
	require.NoError(t, mr.Set(key, `{"id":"job-3","status":"failed"}`))

	var got cachedView
	require.NoError(t, cache.Get(ctx, key, &got))
	assert.Equal(t, "failed", got.Status)

	// 第二次读取来自本地
	mr.Del(key)
	got = cachedView{}
	require.NoError(t, cache.Get(ctx, key, &got))
	assert.Equal(t, "job-3", got.ID)
}

func TestCacheDelete(t *testing.T) {
	for _, size := range []int32{0, 16} {
		cache, mr := setupTestCache(t, size)
		ctx := context.Background()

		key := BuildCacheKey(CacheKeySearchJob, "job-4")
		require.NoError(t, cache.Set(ctx, key, cachedView{ID: "job-4"}, TTLSearchJob))
		require.NoError(t, cache.Delete(ctx, key))

		assert.False(t, mr.Exists(key))
		var got cachedView
		assert.ErrorIs(t, cache.Get(ctx, key, &got), ErrCacheNotFound)

		// 删除不存在的 key 不报错
		assert.NoError(t, cache.Delete(ctx, "search_job:never"))
	}
}

func TestCacheTTLExpiration(t *testing.T) {
	cache, mr := setupTestCache(t, 0)
	ctx := context.Background()

	key := BuildCacheKey(CacheKeySearchJob, "expire")
	require.NoError(t, cache.Set(ctx, key, cachedView{ID: "expire"}, 100*time.Millisecond))

	assert.True(t, mr.Exists(key))

	mr.FastForward(200 * time.Millisecond)

	assert.False(t, mr.Exists(key))
	var got cachedView
	assert.ErrorIs(t, cache.Get(ctx, key, &got), ErrCacheNotFound)
}

func TestCacheClient_NilRedisClient(t *testing.T) {
	cache := NewCacheClient(nil, nil)
	ctx := context.Background()

	err := cache.Set(ctx, "key", cachedView{ID: "test"}, TTLSearchJob)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis client is nil")

	var got cachedView
	err = cache.Get(ctx, "key", &got)
	assert.Contains(t, err.Error(), "redis client is nil")

	err = cache.Delete(ctx, "key")
	assert.Contains(t, err.Error(), "redis client is nil")
}

func TestTieredCache_NilRedisKeepsLocal(t *testing.T) {
	c := &conf.Data{LocalCache: &conf.Data_LocalCache{Size: 4}}
	cache := NewCacheClient(c, nil)
	ctx := context.Background()

	err := cache.Set(ctx, "search_job:x", cachedView{ID: "x"}, TTLSearchJob)
	assert.Error(t, err)

	var got cachedView
	require.NoError(t, cache.Get(ctx, "search_job:x", &got))
	assert.Equal(t, "x", got.ID)
}

func TestBuildCacheKey(t *testing.T) {
	tests := []struct {
		prefix string
		parts  []string
		want   string
	}{
		{CacheKeySearchJob, []string{"abc"}, "search_job:abc"},
		{CacheKeySearchJob, nil, "search_job"},
		{"a", []string{"b", "c"}, "a:b:c"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BuildCacheKey(tt.prefix, tt.parts...))
	}
}
