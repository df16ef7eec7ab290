// Package redis provides the Redis-backed persistent tier of the two-level
// result cache.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vigiajus/vigiajus/internal/config"
	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/logging"
	"github.com/vigiajus/vigiajus/pkg/errors"
)

// Client wraps a go-redis client configured from config.RedisConfig.
type Client struct {
	rdb    *redis.Client
	logger logging.Logger
}

// NewClient opens and pings a Redis connection.
func NewClient(cfg config.RedisConfig, logger logging.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "redis inacessível")
	}

	logger.Info("redis connected", logging.String("addr", cfg.Addr), logging.Int("db", cfg.DB))
	return &Client{rdb: rdb, logger: logger}, nil
}

// Raw exposes the underlying go-redis client.
func (c *Client) Raw() *redis.Client { return c.rdb }

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Client) Close() error {
	err := c.rdb.Close()
	if err == nil {
		c.logger.Info("redis connection closed")
	}
	return err
}
