package quota

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrymomot/restokit/pkg/limits"
	"github.com/dmitrymomot/restokit/pkg/logger"
	"github.com/dmitrymomot/restokit/pkg/tenant"
)

// Locker provides mutual exclusion per key.
// Lock blocks until the lock is held or ctx is done; the returned function releases it.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(context.Context) error, err error)
}

// Reserve runs create only if t may add one more res, holding a lock on
// (tenant, resource) across the check and create. Concurrent Reserve calls
// for the same pair therefore never exceed the limit, provided every writer
// goes through Reserve with a shared Locker. Unlimited resources skip the lock.
//
// Returns the same denial errors as Check, ErrLockFailed, or create's error.
func (s *Service) Reserve(ctx context.Context, t *tenant.Tenant, res limits.Resource, create func(ctx context.Context) error) error {
	limits.MustValid(res)
	if t == nil {
		return ErrTenantRequired
	}
	if create == nil {
		panic("quota: create func is required")
	}

	if err := t.Access(s.now()); err != nil {
		return err
	}
	limit, err := s.effectiveLimit(t, res)
	if err != nil {
		return err
	}
	if limit == limits.Unlimited {
		return create(ctx)
	}

	unlock, err := s.locker.Lock(ctx, lockKey(t, res))
	if err != nil {
		return errors.Join(ErrLockFailed, err)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			s.log.ErrorContext(ctx, "failed to release reservation lock",
				logger.TenantID(t.ID), logger.Resource(res), logger.Error(err))
		}
	}()

	if err := s.Check(ctx, t, res); err != nil {
		return err
	}
	return create(ctx)
}

func lockKey(t *tenant.Tenant, res limits.Resource) string {
	return "quota:" + t.ID.String() + ":" + string(res)
}

// MemoryLocker is a Locker for a single process.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*memoryLock
}

type memoryLock struct {
	sem  chan struct{}
	refs int
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]*memoryLock)}
}

// Lock implements Locker.
func (l *MemoryLocker) Lock(ctx context.Context, key string) (func(context.Context) error, error) {
	l.mu.Lock()
	ml, ok := l.locks[key]
	if !ok {
		ml = &memoryLock{sem: make(chan struct{}, 1)}
		l.locks[key] = ml
	}
	ml.refs++
	l.mu.Unlock()

	select {
	case ml.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key, ml)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-ml.sem
			l.release(key, ml)
		})
		return nil
	}, nil
}

// release drops a reference and forgets idle keys.
func (l *MemoryLocker) release(key string, ml *memoryLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ml.refs--
	if ml.refs == 0 {
		delete(l.locks, key)
	}
}
