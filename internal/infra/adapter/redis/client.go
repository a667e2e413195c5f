// Package redis adapts github.com/redis/go-redis/v9 into the cache/
// queue gateway (Q) the job runtime depends on, following the teacher
// repository's adapter-package-per-backend layout
// (internal/infra/adapter/postgres) rather than the package-level
// global var style seen elsewhere in the example pack.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps a *redis.Client for job-record storage and pub/sub
// notification.
type Client struct {
	rdb *redis.Client
}

// Connect parses redisURL (e.g. "redis://host:6379/0") and verifies
// connectivity with a Ping.
func Connect(ctx context.Context, redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Set stores pre-serialized data under key with the given TTL.
func (c *Client) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

// Get retrieves the raw bytes stored under key. It reports
// redis.Nil (via errors.Is) when the key is absent or expired.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Publish sends pre-serialized data to channel, for job-completion
// notification fan-out.
func (c *Client) Publish(ctx context.Context, channel string, data []byte) error {
	return c.rdb.Publish(ctx, channel, data).Err()
}

// Subscribe returns a PubSub listening to channel.
func (c *Client) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	return c.rdb.Subscribe(ctx, channel)
}

// Push enqueues a value onto the head of the list at key (LPUSH).
func (c *Client) Push(ctx context.Context, key string, value []byte) error {
	return c.rdb.LPush(ctx, key, value).Err()
}

// BlockingPop waits up to timeout for a value at the tail of the list
// at key (BRPOP), returning it, or redis.Nil (via errors.Is) on
// timeout.
func (c *Client) BlockingPop(ctx context.Context, key string, timeout time.Duration) ([]byte, error) {
	result, err := c.rdb.BRPop(ctx, timeout, key).Result()
	if err != nil {
		return nil, err
	}
	// BRPop returns [key, value]; the caller only cares about value.
	return []byte(result[1]), nil
}
