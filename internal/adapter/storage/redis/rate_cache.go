package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"custodial-ledger/internal/core/ports"

	goredis "github.com/redis/go-redis/v9"
)

// RateCache implements ports.RateCache using Redis. Quotes are stored as JSON
// under rates:<feed>:<code>; the refresh lock is a plain SETNX key whose TTL
// bounds how long a crashed refresher can block others.
type RateCache struct {
	client     *goredis.Client
	prefix     string
	lockPrefix string
}

// NewRateCache creates a new Redis-backed quote cache.
func NewRateCache(client *goredis.Client) *RateCache {
	return &RateCache{
		client:     client,
		prefix:     "rates:",
		lockPrefix: "rates:lock:",
	}
}

// Get retrieves a cached quote. Returns nil, nil if the key does not exist.
func (c *RateCache) Get(ctx context.Context, key string) (*ports.Quote, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis rate get: %w", err)
	}

	quote := &ports.Quote{}
	if err := json.Unmarshal(val, quote); err != nil {
		return nil, fmt.Errorf("decode cached quote: %w", err)
	}
	return quote, nil
}

// Set stores a quote with TTL.
func (c *RateCache) Set(ctx context.Context, key string, quote ports.Quote, ttl time.Duration) error {
	payload, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("encode quote: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis rate set: %w", err)
	}
	return nil
}

// AcquireRefresh takes the per-key refresh lock. Returns false when another
// caller already holds it.
func (c *RateCache) AcquireRefresh(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	acquired, err := c.client.SetNX(ctx, c.lockPrefix+key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis refresh lock: %w", err)
	}
	return acquired, nil
}

// ReleaseRefresh drops the per-key refresh lock.
func (c *RateCache) ReleaseRefresh(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.lockPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis refresh unlock: %w", err)
	}
	return nil
}
