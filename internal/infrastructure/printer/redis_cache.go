package printer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kthimi/invoicer/internal/infrastructure/config"
)

const redisKeyPrefix = "printer:addr:"

// RedisAddressCache implements AddressCache on Redis so multiple worker
// instances share discovered printer addresses.
type RedisAddressCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisAddressCache connects to Redis and verifies the connection.
func NewRedisAddressCache(cfg config.RedisConfig) (*RedisAddressCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisAddressCache{
		client:    client,
		keyPrefix: redisKeyPrefix,
	}, nil
}

// NewRedisAddressCacheWithClient wraps an existing client. Useful for
// testing or sharing a client across components.
func NewRedisAddressCacheWithClient(client *redis.Client, keyPrefix string) *RedisAddressCache {
	if keyPrefix == "" {
		keyPrefix = redisKeyPrefix
	}
	return &RedisAddressCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (c *RedisAddressCache) Get(ctx context.Context, routingKey string) (string, bool, error) {
	addr, err := c.client.Get(ctx, c.keyPrefix+routingKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get printer address: %w", err)
	}
	return addr, true, nil
}

func (c *RedisAddressCache) Set(ctx context.Context, routingKey, addr string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.keyPrefix+routingKey, addr, ttl).Err(); err != nil {
		return fmt.Errorf("redis set printer address: %w", err)
	}
	return nil
}

func (c *RedisAddressCache) Forget(ctx context.Context, routingKey string) error {
	if err := c.client.Del(ctx, c.keyPrefix+routingKey).Err(); err != nil {
		return fmt.Errorf("redis delete printer address: %w", err)
	}
	return nil
}

func (c *RedisAddressCache) Close() error {
	return c.client.Close()
}

var _ AddressCache = (*RedisAddressCache)(nil)
