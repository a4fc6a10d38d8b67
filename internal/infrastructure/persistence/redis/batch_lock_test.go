package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolhub/school-hub/internal/domain/shared"
)

func unreachableConfig() Config {
	cfg := DefaultConfig()
	cfg.Port = 1
	cfg.MaxRetries = -1
	cfg.DialTimeout = 50 * time.Millisecond
	return cfg
}

// unreachable returns a client that was never pinged.
func unreachable() *Client {
	return &Client{rdb: redis.NewClient(unreachableConfig().options())}
}

func TestLockKey(t *testing.T) {
	assert.Equal(t, "lock:promotion:2024", LockKey("promotion:2024"))
}

func TestConfig_Options(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "cache"
	cfg.DB = 3

	opts := cfg.options()
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 3, opts.DB)
	assert.Equal(t, cfg.IOTimeout, opts.ReadTimeout)
	assert.Equal(t, cfg.IOTimeout, opts.WriteTimeout)
}

func TestNewBatchLocker_DefaultTTL(t *testing.T) {
	l := NewBatchLocker(unreachable(), 0)
	assert.Equal(t, DefaultLockTTL, l.ttl)

	l = NewBatchLocker(unreachable(), time.Minute)
	assert.Equal(t, time.Minute, l.ttl)
}

func TestBatchLocker_ConnectionErrorIsNotInProgress(t *testing.T) {
	c := unreachable()
	defer c.Close()

	release, err := NewBatchLocker(c, time.Minute).Acquire(context.Background(), "promotion:2024")
	require.Error(t, err)
	assert.Nil(t, release)
	assert.NotErrorIs(t, err, shared.ErrPromotionInProgress)
}

func TestBatchLocker_EmptyKey(t *testing.T) {
	c := unreachable()
	defer c.Close()

	_, err := NewBatchLocker(c, time.Minute).Acquire(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyLockKey)
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect(context.Background(), unreachableConfig())
	assert.ErrorIs(t, err, ErrUnavailable)
}
