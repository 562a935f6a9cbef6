package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aryan0dhankhar/rentdesk/internal/reliability/circuitbreaker"
)

// ErrMiss is returned by Get when the key does not exist
var ErrMiss = redis.Nil

// Client wraps the Redis client. Every call goes through a circuit breaker
// so a failing Redis degrades to cache misses instead of slow requests.
type Client struct {
	rdb     *redis.Client
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewClient creates a new Redis client
func NewClient(url string, logger *slog.Logger) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewFromClient(rdb, logger), nil
}

// NewFromClient wraps an existing go-redis client
func NewFromClient(rdb *redis.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	breaker := circuitbreaker.NewCircuitBreaker(5, 2, 30*time.Second)
	breaker.SetStateChangeCallback(func(from, to circuitbreaker.State) {
		logger.Warn("redis circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})
	return &Client{rdb: rdb, breaker: breaker, logger: logger}
}

func isMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}

// Set stores a value with optional TTL
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.breaker.Execute(func() error {
		return c.rdb.Set(ctx, key, value, ttl).Err()
	}, nil)
}

// Get retrieves a value; a missing key yields ErrMiss
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	err := c.breaker.Execute(func() error {
		b, err := c.rdb.Get(ctx, key).Bytes()
		out = b
		return err
	}, isMiss)
	return out, err
}

// Delete removes keys
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.breaker.Execute(func() error {
		return c.rdb.Del(ctx, keys...).Err()
	}, nil)
}

// Ping checks connectivity, bypassing the breaker so readiness reflects reality
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}
