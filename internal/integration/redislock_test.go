//go:build integration

package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/surf-report-service/internal/adapter/redislock"
	"github.com/couchcryptid/surf-report-service/internal/domain"
)

func TestRedisLocker(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: startRedis(ctx, t)})
	t.Cleanup(func() { client.Close() })
	locker := redislock.New(client)
	require.NoError(t, locker.CheckReadiness(ctx))

	key := domain.ReportKey{Date: "2024-06-01", Location: "ocean-beach"}.String()

	release, err := locker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, key, time.Minute)
	require.ErrorIs(t, err, domain.ErrRunInProgress)

	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx), "double release is harmless")

	release2, err := locker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	require.NoError(t, release2(ctx))
}

func TestRedisLocker_ExpiredHolderCannotReleaseNewLock(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: startRedis(ctx, t)})
	t.Cleanup(func() { client.Close() })
	locker := redislock.New(client)

	stale, err := locker.Acquire(ctx, "k", 100*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(300 * time.Millisecond)

	fresh, err := locker.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)

	require.NoError(t, stale(ctx))
	_, err = locker.Acquire(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, domain.ErrRunInProgress, "stale release must not drop the fresh lock")
	require.NoError(t, fresh(ctx))
}
