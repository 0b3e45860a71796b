package storage_test

import (
	"context"
	"testing"
	"time"

	"digital-menu/catalog-svc/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCache(t *testing.T) (*storage.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })
	return storage.NewRedisCache(client, time.Hour, time.Minute), server
}

func TestSessionLifecycle(t *testing.T) {
	cache, server := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SaveSession(ctx, "token-1", "owner-1"))

	ownerID, err := cache.LookupSession(ctx, "token-1")
	require.NoError(t, err)
	assert.Equal(t, "owner-1", ownerID)

	server.FastForward(2 * time.Hour)

	ownerID, err = cache.LookupSession(ctx, "token-1")
	require.NoError(t, err)
	assert.Empty(t, ownerID)
}

func TestDeleteSession(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SaveSession(ctx, "token-1", "owner-1"))
	require.NoError(t, cache.DeleteSession(ctx, "token-1"))

	ownerID, err := cache.LookupSession(ctx, "token-1")
	require.NoError(t, err)
	assert.Empty(t, ownerID)
}

func TestPublicMenuCache(t *testing.T) {
	cache, server := setupCache(t)
	ctx := context.Background()

	_, ok, err := cache.GetPublicMenu(ctx, "warung")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.SetPublicMenu(ctx, "warung", []byte(`{"items":[]}`)))
	payload, ok, err := cache.GetPublicMenu(ctx, "warung")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"items":[]}`, string(payload))
	assert.Equal(t, time.Minute, server.TTL("public-menu:warung"))

	require.NoError(t, cache.InvalidatePublicMenu(ctx, "warung"))
	_, ok, err = cache.GetPublicMenu(ctx, "warung")
	require.NoError(t, err)
	assert.False(t, ok)
}
