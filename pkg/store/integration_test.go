package store_test

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/restokit/migrations"
	"github.com/dmitrymomot/restokit/pkg/audit"
	"github.com/dmitrymomot/restokit/pkg/limits"
	"github.com/dmitrymomot/restokit/pkg/logger"
	"github.com/dmitrymomot/restokit/pkg/pg"
	"github.com/dmitrymomot/restokit/pkg/store"
	"github.com/dmitrymomot/restokit/pkg/subscription"
	"github.com/dmitrymomot/restokit/pkg/tenant"
	"github.com/dmitrymomot/restokit/pkg/usage"
)

// testPool connects to the database in PG_TEST_URL and applies migrations.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	url := os.Getenv("PG_TEST_URL")
	if url == "" {
		t.Skip("PG_TEST_URL not set")
	}

	ctx := context.Background()
	cfg := pg.Config{
		ConnectionString: url,
		MaxOpenConns:     10,
		RetryAttempts:    1,
		MigrationsTable:  "schema_migrations",
	}
	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pg.Migrate(ctx, pool, cfg, migrations.FS, logger.New(logger.WithDevelopment("store-test")))
	require.NoError(t, err)
	return pool
}

func seedPlans(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	err := store.NewPlanSource(pool).UpsertPlans(context.Background(),
		limits.Plan{
			ID:            limits.PlanFree,
			Name:          "Free",
			Limits:        map[limits.Resource]int64{limits.ResourceProducts: 15, limits.ResourceOrdersThisMonth: 100},
			ShowWatermark: true,
		},
		limits.Plan{
			ID:       limits.PlanPro,
			Name:     "Pro",
			Features: []limits.Feature{limits.FeatureReports, limits.FeaturePOS},
			Price:    limits.Money{Amount: 19900, Currency: "BRL"},
		},
	)
	require.NoError(t, err)
}

func TestPlanSource_Integration(t *testing.T) {
	pool := testPool(t)
	seedPlans(t, pool)

	catalog, err := limits.NewCatalog(context.Background(), store.NewPlanSource(pool))
	require.NoError(t, err)

	free, err := catalog.Plan(limits.PlanFree)
	require.NoError(t, err)
	assert.Equal(t, int64(15), free.Limit(limits.ResourceProducts))
	assert.Equal(t, limits.Unlimited, free.Limit(limits.ResourceUsers))
	assert.True(t, free.ShowWatermark)

	assert.True(t, catalog.HasFeature(limits.PlanPro, limits.FeatureReports))
}

func TestTenantStore_Integration(t *testing.T) {
	pool := testPool(t)
	seedPlans(t, pool)
	ctx := context.Background()
	tenants := store.NewTenantStore(pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	tn, err := tenant.New("Cantina", "cantina-"+uuid.NewString()[:8], limits.PlanFree, now, now.AddDate(0, 0, 14))
	require.NoError(t, err)
	tn.CustomLimits = limits.Overrides{limits.ResourceProducts: 40}
	require.NoError(t, tenants.Save(ctx, tn))

	got, err := tenants.Get(ctx, tn.ID)
	require.NoError(t, err)
	assert.Equal(t, tn.Slug, got.Slug)
	assert.Equal(t, limits.PlanFree, got.PlanID)
	assert.Equal(t, tn.CustomLimits, got.CustomLimits)
	assert.Equal(t, subscription.StatusTrialing, got.Subscription.Status)
	require.NotNil(t, got.Subscription.TrialEndsAt)
	assert.True(t, tn.Subscription.TrialEndsAt.Equal(*got.Subscription.TrialEndsAt))

	got.PlanID = limits.PlanPro
	got.Subscription.Status = subscription.StatusActive
	got.Subscription.ProviderSubID = "sub_" + uuid.NewString()
	require.NoError(t, tenants.Save(ctx, got))

	bySub, err := tenants.GetByProviderSubscription(ctx, got.Subscription.ProviderSubID)
	require.NoError(t, err)
	assert.Equal(t, tn.ID, bySub.ID)
	assert.Equal(t, limits.PlanPro, bySub.PlanID)

	bySlug, err := tenants.GetBySlug(ctx, tn.Slug)
	require.NoError(t, err)
	assert.Equal(t, tn.ID, bySlug.ID)

	_, err = tenants.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, tenant.ErrTenantNotFound)

	dup := tn.Clone()
	dup.ID = uuid.New()
	assert.ErrorIs(t, tenants.Save(ctx, dup), tenant.ErrDuplicateSlug)
}

func TestUsageRepository_Integration(t *testing.T) {
	pool := testPool(t)
	seedPlans(t, pool)
	ctx := context.Background()

	now := time.Now().UTC()
	tn, err := tenant.New("Cantina", "usage-"+uuid.NewString()[:8], limits.PlanFree, now, now)
	require.NoError(t, err)
	require.NoError(t, store.NewTenantStore(pool).Save(ctx, tn))

	for range 3 {
		_, err := pool.Exec(ctx, `INSERT INTO products (id, tenant_id, name) VALUES ($1, $2, 'x')`, uuid.New(), tn.ID)
		require.NoError(t, err)
	}
	_, err = pool.Exec(ctx, `INSERT INTO orders (id, tenant_id, created_at) VALUES ($1, $2, $3), ($4, $2, $5)`,
		uuid.New(), tn.ID, now, uuid.New(), now.AddDate(0, -2, 0))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO media (id, tenant_id, path, size_bytes) VALUES ($1, $2, 'a.jpg', 1572864)`, uuid.New(), tn.ID)
	require.NoError(t, err)

	counter := usage.FromRepository(store.NewUsageRepository(pool))
	snap, err := usage.Collect(ctx, counter, tn.ID, now, limits.AllResources()...)
	require.NoError(t, err)
	assert.Equal(t, int64(3), snap[limits.ResourceProducts])
	assert.Equal(t, int64(1), snap[limits.ResourceOrdersThisMonth])
	assert.Equal(t, int64(2), snap[limits.ResourceStorageMB], "1.5 MB rounds up")
	assert.Equal(t, int64(0), snap[limits.ResourceCoupons])
}

func TestAdvisoryLocker_Integration(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	locker := store.NewAdvisoryLocker(pool)
	key := "test:" + uuid.NewString()

	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, key)
			if !assert.NoError(t, err) {
				return
			}
			n := inside.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			time.Sleep(5 * time.Millisecond)
			inside.Add(-1)
			assert.NoError(t, unlock(ctx))
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxSeen.Load())
}

func TestAuditStorage_Integration(t *testing.T) {
	pool := testPool(t)
	seedPlans(t, pool)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	tn, err := tenant.New("Padaria", "padaria-"+uuid.NewString()[:8], limits.PlanFree, now, now.AddDate(0, 0, 14))
	require.NoError(t, err)
	require.NoError(t, store.NewTenantStore(pool).Save(ctx, tn))

	storage := store.NewAuditStorage(pool)
	rec := audit.NewRecorder(storage)
	require.NoError(t, rec.Record(ctx, tn.ID, audit.ActionPlanChanged))
	require.NoError(t, rec.Record(ctx, tn.ID, audit.ActionPlanOverride,
		audit.WithActor("ops@restokit.io"),
		audit.WithReason("migration from legacy billing"),
		audit.WithMetadata("to_plan", "free"),
	))

	events, err := storage.Recent(ctx, tn.ID, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	var override audit.Event
	for _, e := range events {
		if e.Action == audit.ActionPlanOverride {
			override = e
		}
	}
	assert.Equal(t, "ops@restokit.io", override.Actor)
	assert.Equal(t, "migration from legacy billing", override.Reason)
	assert.Equal(t, "free", override.Metadata["to_plan"])
}
