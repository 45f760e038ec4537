package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/pocketpet/api/internal/config"
)

// Client wraps the Redis client
type Client struct {
	*redis.Client
}

// NewClient creates a new Redis client with the provided configuration and
// verifies the connection with a ping.
func NewClient(ctx context.Context, cfg config.RedisConfig, log logrus.FieldLogger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.WithFields(logrus.Fields{
		"addr":      cfg.Addr,
		"db":        cfg.DB,
		"pool_size": cfg.PoolSize,
	}).Info("connected to redis")

	return &Client{rdb}, nil
}

// PingContext checks the connection; used by the health endpoint
func (c *Client) PingContext(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
