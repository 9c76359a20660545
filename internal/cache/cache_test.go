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

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestStore_GetSetDelete(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewStore(client, "test:")
	ctx := context.Background()

	_, ok := store.Get(ctx, "missing")
	assert.False(t, ok)

	store.Set(ctx, "key", "value", time.Minute)
	got, ok := store.Get(ctx, "key")
	require.True(t, ok)
	assert.Equal(t, "value", got)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, store.makeKey("key"), keys[0])
	assert.Contains(t, keys[0], "test:")

	store.Delete(ctx, "key")
	_, ok = store.Get(ctx, "key")
	assert.False(t, ok)
}

func TestStore_TTL(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewStore(client, "test:")
	ctx := context.Background()

	store.Set(ctx, "key", "value", time.Hour)
	mr.FastForward(2 * time.Hour)

	_, ok := store.Get(ctx, "key")
	assert.False(t, ok)
}

func TestStore_NilClient(t *testing.T) {
	store := NewStore(nil, "test:")
	ctx := context.Background()

	store.Set(ctx, "key", "value", time.Minute)
	_, ok := store.Get(ctx, "key")
	assert.False(t, ok)
	store.Delete(ctx, "key")
}

func TestStore_RedisDown(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewStore(client, "test:")
	mr.Close()

	store.Set(context.Background(), "key", "value", time.Minute)
	_, ok := store.Get(context.Background(), "key")
	assert.False(t, ok)
}

func TestImageCache_NormalizesKeywords(t *testing.T) {
	_, client := newTestRedis(t)
	c := NewImageCache(client, 24*time.Hour)
	ctx := context.Background()

	c.Set(ctx, "Fried  Rice", "https://cdn.example/a.jpeg")

	got, ok := c.Get(ctx, " fried rice ")
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example/a.jpeg", got)

	c.Delete(ctx, "FRIED RICE")
	_, ok = c.Get(ctx, "fried rice")
	assert.False(t, ok)
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	for _, url := range []string{mr.Addr(), "redis://" + mr.Addr() + "/0"} {
		client, err := NewClient(url)
		require.NoError(t, err)
		require.NoError(t, client.Ping(context.Background()).Err())
		client.Close()
	}

	_, err := NewClient("redis://:bad url")
	assert.Error(t, err)
}
