package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedThing struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, "test"), mr
}

func TestRedisCache_SetGet(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", cachedThing{Name: "a", Count: 2}, time.Minute))
	assert.True(t, mr.Exists("test:a"))

	var got cachedThing
	found, err := c.Get(ctx, "a", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, cachedThing{Name: "a", Count: 2}, got)

	mr.FastForward(2 * time.Minute)
	found, err = c.Get(ctx, "a", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_Miss(t *testing.T) {
	c, _ := setupTestRedis(t)

	var got cachedThing
	found, err := c.Get(context.Background(), "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, cachedThing{}, got)
}

func TestRedisCache_DeleteAndPattern(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	for _, k := range []string{"article:1", "article:2", "other:1"} {
		require.NoError(t, c.Set(ctx, k, cachedThing{Name: k}, 0))
	}

	require.NoError(t, c.Delete(ctx, "other:1"))
	assert.False(t, mr.Exists("test:other:1"))

	require.NoError(t, c.DeletePattern(ctx, "article:*"))
	assert.False(t, mr.Exists("test:article:1"))
	assert.False(t, mr.Exists("test:article:2"))
}
