package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/go_cart/storefront-session/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ResultCache keeps recent search responses for a short while
type ResultCache interface {
	Get(ctx context.Context, query string) ([]domain.ProductSummary, error)
	Set(ctx context.Context, query string, results []domain.ProductSummary) error
}

var ErrCacheMiss = errors.New("cache miss")

const DefaultResultTTL = 2 * time.Minute

func NewRedisResultCache(client *redis.Client, ttl time.Duration) *RedisResultCache {
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	return &RedisResultCache{
		client:  client,
		baseTTL: ttl,
	}
}

type RedisResultCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisResultCache) Get(ctx context.Context, query string) ([]domain.ProductSummary, error) {
	data, err := r.client.Get(ctx, cacheKey(query)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var results []domain.ProductSummary
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("unmarshal results failed: %w", err)
	}
	return results, nil
}

// Set stores results with up to 30s of jitter so hot queries do not expire together
func (r RedisResultCache) Set(ctx context.Context, query string, results []domain.ProductSummary) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal results failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(30)) * time.Second
	if err := r.client.Set(ctx, cacheKey(query), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func cacheKey(query string) string {
	return fmt.Sprintf("search:%s", query)
}
