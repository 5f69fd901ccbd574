package redis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/restokit/pkg/redis"
)

func TestConfig_Key(t *testing.T) {
	t.Parallel()

	cfg := redis.Config{KeyPrefix: "restokit:"}
	assert.Equal(t, "restokit:lock:t1:products", cfg.Key("lock", "t1", "products"))
	assert.Equal(t, "restokit:", cfg.Key())
	assert.Equal(t, "a:b", redis.Config{}.Key("a", "b"))
}

func TestConnect_Errors(t *testing.T) {
	t.Parallel()

	_, err := redis.Connect(context.Background(), redis.Config{})
	assert.ErrorIs(t, err, redis.ErrEmptyConnectionURL)

	_, err = redis.Connect(context.Background(), redis.Config{ConnectionURL: "http://not-redis"})
	assert.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = redis.Connect(ctx, redis.Config{
		ConnectionURL: "redis://127.0.0.1:1/0",
		RetryAttempts: 3,
		RetryInterval: time.Second,
	})
	assert.ErrorIs(t, err, redis.ErrRedisNotReady)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) *goredis.StatusCmd {
	cmd := goredis.NewStatusCmd(ctx, "ping")
	if err := f(ctx); err != nil {
		cmd.SetErr(err)
		return cmd
	}
	cmd.SetVal("PONG")
	return cmd
}

func TestHealthcheck(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	assert.NoError(t, redis.Healthcheck(pingerFunc(func(context.Context) error { return nil }))(ctx))

	cause := errors.New("connection refused")
	err := redis.Healthcheck(pingerFunc(func(context.Context) error { return cause }))(ctx)
	assert.ErrorIs(t, err, redis.ErrHealthcheckFailed)
	assert.ErrorIs(t, err, cause)
}
