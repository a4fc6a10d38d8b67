package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/schoolhub/school-hub/internal/application/command"
	"github.com/schoolhub/school-hub/internal/domain/shared"
)

// DefaultLockTTL bounds how long a crashed holder can block other runs.
const DefaultLockTTL = 10 * time.Minute

// ErrEmptyLockKey is returned by Acquire for an empty key.
var ErrEmptyLockKey = errors.New("redis: empty lock key")

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// BatchLocker implements command.BatchLocker with SET NX and a random token,
// so a holder whose lock expired cannot release someone else's.
type BatchLocker struct {
	client *Client
	ttl    time.Duration
}

// NewBatchLocker creates a locker. A non-positive ttl uses DefaultLockTTL.
func NewBatchLocker(client *Client, ttl time.Duration) *BatchLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &BatchLocker{client: client, ttl: ttl}
}

var _ command.BatchLocker = (*BatchLocker)(nil)

// Acquire takes the lock for key or fails with shared.ErrPromotionInProgress.
func (l *BatchLocker) Acquire(ctx context.Context, key string) (command.ReleaseFunc, error) {
	if key == "" {
		return nil, ErrEmptyLockKey
	}
	redisKey := LockKey(key)
	token := uuid.NewString()

	ok, err := l.client.rdb.SetNX(ctx, redisKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", redisKey, err)
	}
	if !ok {
		return nil, shared.ErrPromotionInProgress
	}

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client.rdb, []string{redisKey}, token).Err(); err != nil {
			return fmt.Errorf("release lock %s: %w", redisKey, err)
		}
		return nil
	}, nil
}
