// Package redislock serializes report runs across service replicas with a
// Redis key per report slot.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/couchcryptid/surf-report-service/internal/domain"
)

const keyPrefix = "surf_report_run:"

// releaseScript deletes the lock only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker implements pipeline.Locker on Redis.
type Locker struct {
	redis *redis.Client
}

// New creates a Locker on an existing client.
func New(client *redis.Client) *Locker {
	return &Locker{redis: client}
}

// Acquire sets the run key with a random token if absent. The key expires
// after ttl so a crashed holder cannot block the slot forever.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	redisKey := lockKey(key)
	token := uuid.NewString()

	ok, err := l.redis.SetNX(ctx, redisKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrRunInProgress
	}

	release := func(ctx context.Context) error {
		err := releaseScript.Run(ctx, l.redis, []string{redisKey}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("release run lock: %w", err)
		}
		return nil
	}
	return release, nil
}

// CheckReadiness pings Redis.
func (l *Locker) CheckReadiness(ctx context.Context) error {
	return l.redis.Ping(ctx).Err()
}

func lockKey(key string) string {
	return keyPrefix + key
}
