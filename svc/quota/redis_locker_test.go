package quota_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/restokit/pkg/limits"
	restoredis "github.com/dmitrymomot/restokit/pkg/redis"
	"github.com/dmitrymomot/restokit/svc/quota"
)

func redisClient(t *testing.T) (redis.UniversalClient, string) {
	t.Helper()
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" || testing.Short() {
		t.Skip("REDIS_TEST_URL not set")
	}
	cfg := restoredis.Config{
		ConnectionURL:  url,
		KeyPrefix:      "restokit-test:",
		RetryAttempts:  1,
		ConnectTimeout: 5 * time.Second,
	}
	client, err := restoredis.Connect(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, cfg.Key(uuid.NewString()) + ":"
}

func TestNewRedisLocker(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { quota.NewRedisLocker(nil) })
}

func TestRedisLocker(t *testing.T) {
	client, prefix := redisClient(t)
	ctx := context.Background()

	t.Run("exclusive", func(t *testing.T) {
		l := quota.NewRedisLocker(client, quota.WithKeyPrefix(prefix), quota.WithRetryInterval(5*time.Millisecond))

		unlock, err := l.Lock(ctx, "k")
		require.NoError(t, err)

		waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		_, err = l.Lock(waitCtx, "k")
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		require.NoError(t, unlock(ctx))
		again, err := l.Lock(ctx, "k")
		require.NoError(t, err)
		require.NoError(t, again(ctx))
	})

	t.Run("expired lock", func(t *testing.T) {
		l := quota.NewRedisLocker(client, quota.WithKeyPrefix(prefix), quota.WithLockTTL(20*time.Millisecond))

		unlock, err := l.Lock(ctx, "ttl")
		require.NoError(t, err)
		time.Sleep(50 * time.Millisecond)

		// Another holder took the key after expiry; the stale release must not delete it.
		other, err := l.Lock(ctx, "ttl")
		require.NoError(t, err)
		assert.ErrorIs(t, unlock(ctx), quota.ErrLockExpired)
		require.NoError(t, other(ctx))
	})

	t.Run("reserve across services", func(t *testing.T) {
		counter := newStubCounter(nil)
		cfg := quota.Config{LockTTL: time.Second, LockRetry: 2 * time.Millisecond}
		a := newService(t, counter, quota.WithLocker(quota.NewRedisLockerFromConfig(client, prefix, cfg)))
		b := newService(t, counter, quota.WithLocker(quota.NewRedisLockerFromConfig(client, prefix, cfg)))
		tn := activeTenant(limits.PlanFree)

		create := func(context.Context) error {
			counter.add(limits.ResourceUsers)
			return nil
		}
		done := make(chan error, 6)
		for i := range 6 {
			svc := a
			if i%2 == 1 {
				svc = b
			}
			go func() { done <- svc.Reserve(ctx, tn, limits.ResourceUsers, create) }()
		}
		for range 6 {
			<-done
		}
		assert.Equal(t, int64(2), counter.get(limits.ResourceUsers))
	})
}
