package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	Client     *redis.Client
	SessionTTL time.Duration
	MenuTTL    time.Duration
}

func NewRedisCache(client *redis.Client, sessionTTL, menuTTL time.Duration) *RedisCache {
	return &RedisCache{Client: client, SessionTTL: sessionTTL, MenuTTL: menuTTL}
}

func sessionKey(token string) string {
	return "session:" + token
}

func publicMenuKey(slug string) string {
	return "public-menu:" + slug
}

func (c *RedisCache) SaveSession(ctx context.Context, token, ownerID string) error {
	return c.Client.Set(ctx, sessionKey(token), ownerID, c.SessionTTL).Err()
}

// LookupSession returns "" with no error when the token is unknown or expired.
func (c *RedisCache) LookupSession(ctx context.Context, token string) (string, error) {
	ownerID, err := c.Client.Get(ctx, sessionKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return ownerID, err
}

func (c *RedisCache) DeleteSession(ctx context.Context, token string) error {
	return c.Client.Del(ctx, sessionKey(token)).Err()
}

func (c *RedisCache) GetPublicMenu(ctx context.Context, slug string) ([]byte, bool, error) {
	payload, err := c.Client.Get(ctx, publicMenuKey(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

func (c *RedisCache) SetPublicMenu(ctx context.Context, slug string, payload []byte) error {
	return c.Client.Set(ctx, publicMenuKey(slug), payload, c.MenuTTL).Err()
}

func (c *RedisCache) InvalidatePublicMenu(ctx context.Context, slug string) error {
	return c.Client.Del(ctx, publicMenuKey(slug)).Err()
}
