package usage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/restokit/pkg/limits"
)

// Snapshot is the usage of a set of resources at one point in time.
type Snapshot map[limits.Resource]int64

// Collect counts every resource in resources concurrently.
// The first failure cancels the remaining counts and is returned.
func Collect(ctx context.Context, c Counter, tenantID uuid.UUID, now time.Time, resources ...limits.Resource) (Snapshot, error) {
	var mu sync.Mutex
	snap := make(Snapshot, len(resources))

	g, ctx := errgroup.WithContext(ctx)
	for _, res := range resources {
		g.Go(func() error {
			n, err := c.Count(ctx, tenantID, res, now)
			if err != nil {
				return err
			}
			mu.Lock()
			snap[res] = n
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}
