package storage

import (
	"context"
	"errors"
	"time"

	"foodcourt/app-svc/internal/domain"
	"foodcourt/app-svc/internal/service"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStorage persists the serialized session under one device key.
type RedisSessionStorage struct {
	Client *redis.Client
	Key    string
	TTL    time.Duration
}

func NewRedisSessionStorage(client *redis.Client, deviceKey string, ttl time.Duration) *RedisSessionStorage {
	return &RedisSessionStorage{Client: client, Key: SessionKey(deviceKey), TTL: ttl}
}

func SessionKey(deviceKey string) string {
	return "session:" + deviceKey
}

func (s *RedisSessionStorage) Get(ctx context.Context) (string, error) {
	value, err := s.Client.Get(ctx, s.Key).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrNotFound
	}
	return value, err
}

func (s *RedisSessionStorage) Set(ctx context.Context, serialized string) error {
	return s.Client.Set(ctx, s.Key, serialized, s.TTL).Err()
}

func (s *RedisSessionStorage) Clear(ctx context.Context) error {
	return s.Client.Del(ctx, s.Key).Err()
}

var _ service.SessionStorage = (*RedisSessionStorage)(nil)
