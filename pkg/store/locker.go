package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrLockFailed   = errors.New("store: failed to acquire advisory lock")
	ErrUnlockFailed = errors.New("store: failed to release advisory lock")
)

// AdvisoryLocker serializes work across processes with Postgres session-level
// advisory locks. Each held lock pins one pooled connection until released.
type AdvisoryLocker struct {
	pool *pgxpool.Pool
}

func NewAdvisoryLocker(pool *pgxpool.Pool) *AdvisoryLocker {
	if pool == nil {
		panic("store: pool cannot be nil")
	}
	return &AdvisoryLocker{pool: pool}
}

// Lock blocks until the lock for key is held or ctx is done.
// The returned function releases the lock and the connection.
func (l *AdvisoryLocker) Lock(ctx context.Context, key string) (func(context.Context) error, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, errors.Join(ErrLockFailed, err)
	}

	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock(hashtextextended($1, 0))`, key); err != nil {
		conn.Release()
		return nil, errors.Join(ErrLockFailed, err)
	}

	return func(ctx context.Context) error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, `SELECT pg_advisory_unlock(hashtextextended($1, 0))`, key); err != nil {
			// Closing the session drops every lock it holds.
			_ = conn.Conn().Close(ctx)
			return errors.Join(ErrUnlockFailed, err)
		}
		return nil
	}, nil
}
