// Package redis coordinates automatic promotion runs across processes.
// The only state kept in Redis is the per-year batch lock.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable is returned when Redis cannot be reached at connect time.
var ErrUnavailable = errors.New("redis: unavailable")

// LockPrefix namespaces lock keys.
const LockPrefix = "lock:"

// LockKey returns the Redis key for a named lock.
func LockKey(name string) string {
	return LockPrefix + name
}

// Config holds Redis connection settings.
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int

	PoolSize    int
	DialTimeout time.Duration
	// IOTimeout bounds each read and write on the socket.
	IOTimeout time.Duration
	// MaxRetries of -1 disables command retries.
	MaxRetries int
}

// DefaultConfig returns settings for a local Redis.
func DefaultConfig() Config {
	return Config{
		Host:        "localhost",
		Port:        6379,
		PoolSize:    5,
		DialTimeout: 5 * time.Second,
		IOTimeout:   3 * time.Second,
		MaxRetries:  2,
	}
}

// Addr returns "host:port".
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c Config) options() *redis.Options {
	return &redis.Options{
		Addr:         c.Addr(),
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		MaxRetries:   c.MaxRetries,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.IOTimeout,
		WriteTimeout: c.IOTimeout,
	}
}

// Client is a connected Redis client.
type Client struct {
	rdb *redis.Client
}

// Connect opens a client and pings the server within DialTimeout.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	c := &Client{rdb: redis.NewClient(cfg.options())}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	if err := c.Ping(pingCtx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("%w at %s: %v", ErrUnavailable, cfg.Addr(), err)
	}
	return c, nil
}

// Ping checks that Redis answers. It doubles as a health check.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}
