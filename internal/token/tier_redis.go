package token

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// redisTier is the durable persistence tier. The token survives process
// restarts; no TTL is applied because expiry policy lives in the claims,
// not in the storage layer.
type redisTier struct {
	client *redis.Client
	key    string
}

// NewRedisClient parses a redis URL and verifies connectivity.
func NewRedisClient(url string, poolSize int) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	opt.PoolSize = poolSize

	client := redis.NewClient(opt)

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// NewRedisTier returns a durable Tier storing the bearer token under
// "<prefix>:auth:bearer".
func NewRedisTier(client *redis.Client, prefix string) Tier {
	if prefix == "" {
		prefix = "helpdesk"
	}
	return &redisTier{client: client, key: prefix + ":auth:bearer"}
}

func (t *redisTier) Get(ctx context.Context) (string, error) {
	raw, err := t.client.Get(ctx, t.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get token from redis: %w", err)
	}
	return raw, nil
}

func (t *redisTier) Set(ctx context.Context, raw string) error {
	if err := t.client.Set(ctx, t.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to set token in redis: %w", err)
	}
	return nil
}

func (t *redisTier) Clear(ctx context.Context) error {
	if err := t.client.Del(ctx, t.key).Err(); err != nil {
		return fmt.Errorf("failed to clear token in redis: %w", err)
	}
	return nil
}
