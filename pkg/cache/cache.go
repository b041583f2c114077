// Package cache provides a byte-oriented key/value cache backed by Redis,
// with a no-op implementation used when no Redis address is configured.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JaimeStill/callbook/pkg/lifecycle"
)

// System stores opaque values by key.
type System interface {
	// Get returns the value for key. A miss returns ok=false and a nil error.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set stores value under key with the configured TTL.
	Set(ctx context.Context, key string, value []byte) error
	// Start registers startup and shutdown hooks with the lifecycle coordinator.
	Start(lc *lifecycle.Coordinator) error
	Enabled() bool
}

type redisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// New returns a Redis-backed cache, or a no-op cache when cfg has no address.
// No connection is made until Start.
func New(cfg *Config, logger *slog.Logger) System {
	logger = logger.With("system", "cache")

	if !cfg.Enabled() {
		logger.Info("cache disabled")
		return Noop{}
	}

	return &redisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		prefix: cfg.Prefix,
		ttl:    cfg.TTLDuration(),
		logger: logger,
	}
}

// NewWithClient wraps an existing Redis client.
func NewWithClient(client *redis.Client, prefix string, ttl time.Duration, logger *slog.Logger) System {
	return &redisCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.With("system", "cache"),
	}
}

func (c *redisCache) Enabled() bool { return true }

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	return data, true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte) error {
	if err := c.client.Set(ctx, c.prefix+key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *redisCache) Start(lc *lifecycle.Coordinator) error {
	c.logger.Info("starting cache")

	lc.OnStartup("cache", func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := c.client.Ping(ctx).Err(); err != nil {
			c.logger.Warn("redis ping failed, cache lookups will miss", "error", err)
			return nil
		}
		c.logger.Info("redis connection established")
		return nil
	})

	lc.OnShutdown("cache", func() error {
		if err := c.client.Close(); err != nil {
			return fmt.Errorf("redis close: %w", err)
		}
		c.logger.Info("redis connection closed")
		return nil
	})

	return nil
}

// Noop is a cache that never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, string, []byte) error         { return nil }
func (Noop) Start(*lifecycle.Coordinator) error                { return nil }
func (Noop) Enabled() bool                                     { return false }
