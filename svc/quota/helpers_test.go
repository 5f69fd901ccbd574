package quota_test

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/restokit/pkg/audit"
	"github.com/dmitrymomot/restokit/pkg/limits"
	"github.com/dmitrymomot/restokit/pkg/logger"
	"github.com/dmitrymomot/restokit/pkg/store"
	"github.com/dmitrymomot/restokit/pkg/subscription"
	"github.com/dmitrymomot/restokit/pkg/tenant"
	"github.com/dmitrymomot/restokit/pkg/usage"
	"github.com/dmitrymomot/restokit/svc/quota"
)

var (
	_ quota.Locker             = (*quota.MemoryLocker)(nil)
	_ quota.Locker             = (*quota.RedisLocker)(nil)
	_ quota.Locker             = (*store.AdvisoryLocker)(nil)
	_ quota.SubscriptionFinder = (*store.TenantStore)(nil)
	_ quota.SubscriptionFinder = (*tenant.CachedStore)(nil)
	_ quota.SubscriptionFinder = (*tenant.MemoryStore)(nil)
	_ quota.Auditor            = (*audit.Recorder)(nil)
	_ usage.Counter            = (*stubCounter)(nil)
)

var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func ptr(t time.Time) *time.Time { return &t }

func testCatalog(t *testing.T) *limits.Catalog {
	t.Helper()
	catalog, err := limits.NewCatalog(context.Background(), limits.NewInMemSource(
		limits.Plan{
			ID:   limits.PlanFree,
			Name: "Free",
			Limits: map[limits.Resource]int64{
				limits.ResourceProducts:        15,
				limits.ResourceUsers:           2,
				limits.ResourceOrdersThisMonth: 100,
				limits.ResourceCategories:      10,
				limits.ResourceCoupons:         0,
				limits.ResourceMotoboys:        1,
				limits.ResourceStorageMB:       100,
				limits.ResourceStockItems:      limits.Unlimited,
			},
			ShowWatermark: true,
		},
		limits.Plan{
			ID:   limits.PlanBasic,
			Name: "Basic",
			Limits: map[limits.Resource]int64{
				limits.ResourceProducts:        1500,
				limits.ResourceUsers:           5,
				limits.ResourceOrdersThisMonth: 2000,
			},
			Features: []limits.Feature{limits.FeatureLoyalty},
		},
		limits.Plan{
			ID:       limits.PlanPro,
			Name:     "Pro",
			Limits:   map[limits.Resource]int64{limits.ResourceUsers: 20},
			Features: []limits.Feature{limits.FeatureLoyalty, limits.FeatureWhatsAppBot, limits.FeatureReports},
		},
		limits.Plan{ID: limits.PlanCustom, Name: "Custom"},
	))
	require.NoError(t, err)
	return catalog
}

// stubCounter serves fixed counts and records how often it was asked.
type stubCounter struct {
	mu     sync.Mutex
	counts map[limits.Resource]int64
	err    error
	calls  atomic.Int64
	delay  time.Duration
}

func newStubCounter(counts map[limits.Resource]int64) *stubCounter {
	if counts == nil {
		counts = make(map[limits.Resource]int64)
	}
	return &stubCounter{counts: counts}
}

func (c *stubCounter) Count(ctx context.Context, _ uuid.UUID, res limits.Resource, _ time.Time) (int64, error) {
	c.calls.Add(1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	if c.err != nil {
		return 0, c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[res], nil
}

func (c *stubCounter) set(res limits.Resource, n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[res] = n
}

func (c *stubCounter) add(res limits.Resource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[res]++
}

func (c *stubCounter) get(res limits.Resource) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[res]
}

func activeTenant(plan limits.PlanID) *tenant.Tenant {
	return &tenant.Tenant{
		ID:           uuid.New(),
		Name:         "Cantina",
		Slug:         "cantina-" + uuid.NewString()[:8],
		PlanID:       plan,
		Subscription: subscription.State{Status: subscription.StatusActive, UpdatedAt: now},
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func newService(t *testing.T, counter *stubCounter, opts ...quota.Option) *quota.Service {
	t.Helper()
	opts = append([]quota.Option{quota.WithClock(clock), quota.WithLogger(discardLogger())}, opts...)
	return quota.NewService(testCatalog(t), counter, opts...)
}

func discardLogger() *slog.Logger {
	return logger.Discard()
}

func bufferLogger(buf *bytes.Buffer) *slog.Logger {
	return logger.New(logger.WithOutput(buf), logger.WithLevel(slog.LevelDebug))
}
