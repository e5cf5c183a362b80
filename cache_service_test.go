package restblog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisCache(t *testing.T) (*RedisCacheService, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCacheService(client), mr
}

func TestRedisCacheService_SetAndGet(t *testing.T) {
	service, mr := setupRedisCache(t)
	ctx := context.Background()

	err := service.Set(ctx, "key1", []byte("value1"), []string{"tag1"}, time.Minute)
	require.NoError(t, err)

	got, err := service.Get(ctx, "key1")
	assert.NoError(t, err)
	assert.Equal(t, []byte("value1"), got)

	assert.True(t, mr.Exists(CachePartitionPrefix+"key1"))
	members, err := mr.Members(TagPartitionPrefix + "tag1")
	assert.NoError(t, err)
	assert.Equal(t, []string{CachePartitionPrefix + "key1"}, members)
}

func TestRedisCacheService_Miss(t *testing.T) {
	service, _ := setupRedisCache(t)

	got, err := service.Get(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCacheService_Expiry(t *testing.T) {
	service, mr := setupRedisCache(t)
	ctx := context.Background()

	require.NoError(t, service.Set(ctx, "short", []byte("v"), []string{"tag"}, time.Second))
	mr.FastForward(2 * time.Second)

	got, err := service.Get(ctx, "short")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCacheService_Invalidate(t *testing.T) {
	service, mr := setupRedisCache(t)
	ctx := context.Background()

	require.NoError(t, service.Set(ctx, "k1", []byte("v1"), []string{"tag1"}, time.Minute))
	require.NoError(t, service.Set(ctx, "k2", []byte("v2"), []string{"tag1", "tag2"}, time.Minute))
	require.NoError(t, service.Set(ctx, "k3", []byte("v3"), []string{"tag2"}, time.Minute))

	require.NoError(t, service.Invalidate(ctx, "tag1"))

	got1, _ := service.Get(ctx, "k1")
	got2, _ := service.Get(ctx, "k2")
	got3, _ := service.Get(ctx, "k3")
	assert.Nil(t, got1)
	assert.Nil(t, got2)
	assert.Equal(t, []byte("v3"), got3)
	assert.False(t, mr.Exists(TagPartitionPrefix+"tag1"))
}

func TestRedisCacheService_Generation(t *testing.T) {
	service, mr := setupRedisCache(t)
	ctx := context.Background()

	gen, err := service.Generation(ctx, "posts")
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)

	require.NoError(t, service.Invalidate(ctx, "posts"))
	require.NoError(t, service.Invalidate(ctx, "posts", "other"))

	gen, err = service.Generation(ctx, "posts")
	require.NoError(t, err)
	assert.Equal(t, int64(2), gen)

	gen, err = service.Generation(ctx, "posts", "other")
	require.NoError(t, err)
	assert.Equal(t, int64(3), gen)
	assert.True(t, mr.Exists(GenerationPartitionPrefix+"posts"))
}

func TestRedisCacheService_Delete(t *testing.T) {
	service, _ := setupRedisCache(t)
	ctx := context.Background()

	require.NoError(t, service.Set(ctx, "k", []byte("v"), []string{"tag"}, time.Minute))
	require.NoError(t, service.Delete(ctx, "k"))
	require.NoError(t, service.Delete(ctx, "never-set"))

	got, err := service.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCacheService_ConnectionError(t *testing.T) {
	service, mr := setupRedisCache(t)
	mr.Close()

	_, err := service.Get(context.Background(), "any")
	assert.Error(t, err)
	assert.Error(t, service.Invalidate(context.Background(), "tag"))
	_, err = service.Generation(context.Background(), "tag")
	assert.Error(t, err)
}

func TestNewRedisClient(t *testing.T) {
	client, err := NewRedisClient("localhost:6380")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", client.Options().Addr)

	client, err = NewRedisClient("redis://:secret@cache:6379/2")
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", client.Options().Addr)
	assert.Equal(t, 2, client.Options().DB)

	_, err = NewRedisClient("http://nope")
	assert.Error(t, err)
}
