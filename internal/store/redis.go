package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisBackend stores every namespace as a single JSON string key.
// A zero ttl keeps the data until it is explicitly deleted.
func NewRedisBackend(client *redis.Client, ttl time.Duration) *RedisBackend {
	return &RedisBackend{
		client: client,
		ttl:    ttl,
	}
}

type RedisBackend struct {
	client *redis.Client
	ttl    time.Duration
}

func (r RedisBackend) Load(ctx context.Context, namespace string) ([]byte, error) {
	data, err := r.client.Get(ctx, storageKey(namespace)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (r RedisBackend) Save(ctx context.Context, namespace string, data []byte) error {
	if err := r.client.Set(ctx, storageKey(namespace), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisBackend) Delete(ctx context.Context, namespace string) error {
	if err := r.client.Del(ctx, storageKey(namespace)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func storageKey(namespace string) string {
	return fmt.Sprintf("storefront:%s", namespace)
}
