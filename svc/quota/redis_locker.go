package quota

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var ErrLockExpired = errors.New("quota: reservation lock expired before release")

// RedisLocker is a Locker shared by every process using the same Redis.
// Locks expire after ttl so a crashed holder cannot block a key forever.
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	retry  time.Duration
}

// RedisLockerOption configures a RedisLocker.
type RedisLockerOption func(*RedisLocker)

// WithKeyPrefix namespaces lock keys, e.g. "restokit:".
func WithKeyPrefix(prefix string) RedisLockerOption {
	return func(l *RedisLocker) { l.prefix = prefix }
}

// WithLockTTL sets how long a lock lives if never released.
func WithLockTTL(ttl time.Duration) RedisLockerOption {
	return func(l *RedisLocker) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithRetryInterval sets the poll interval while waiting for a held lock.
func WithRetryInterval(d time.Duration) RedisLockerOption {
	return func(l *RedisLocker) {
		if d > 0 {
			l.retry = d
		}
	}
}

// NewRedisLocker panics if client is nil.
func NewRedisLocker(client redis.UniversalClient, opts ...RedisLockerOption) *RedisLocker {
	if client == nil {
		panic("quota: redis client is required")
	}
	l := &RedisLocker{client: client, ttl: 10 * time.Second, retry: 25 * time.Millisecond}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewRedisLockerFromConfig applies the lock settings of cfg.
func NewRedisLockerFromConfig(client redis.UniversalClient, prefix string, cfg Config) *RedisLocker {
	return NewRedisLocker(client, WithKeyPrefix(prefix), WithLockTTL(cfg.LockTTL), WithRetryInterval(cfg.LockRetry))
}

// Lock implements Locker.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(context.Context) error, error) {
	key = l.prefix + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}

	return func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrLockExpired
		}
		return nil
	}, nil
}
