package tenant_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/restokit/pkg/limits"
	"github.com/dmitrymomot/restokit/pkg/tenant"
)

func TestContext(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		tn := createTestTenant(t, "acme")
		ctx := tenant.WithTenant(context.Background(), tn)

		got, ok := tenant.FromContext(ctx)
		assert.True(t, ok)
		assert.Same(t, tn, got)

		got, err := tenant.Require(ctx)
		require.NoError(t, err)
		assert.Same(t, tn, got)
	})

	t.Run("empty context", func(t *testing.T) {
		t.Parallel()
		_, ok := tenant.FromContext(context.Background())
		assert.False(t, ok)

		_, ok = tenant.FromContext(tenant.WithTenant(context.Background(), nil))
		assert.False(t, ok, "nil tenant counts as absent")

		_, err := tenant.Require(context.Background())
		assert.ErrorIs(t, err, tenant.ErrNoTenantInContext)
	})

	t.Run("logger extractors", func(t *testing.T) {
		t.Parallel()
		extractID, extractPlan := tenant.LoggerExtractor(), tenant.PlanExtractor()

		_, ok := extractID(context.Background())
		assert.False(t, ok)
		_, ok = extractPlan(context.Background())
		assert.False(t, ok)

		tn := createTestTenant(t, "acme")
		ctx := tenant.WithTenant(context.Background(), tn)

		attr, ok := extractID(ctx)
		assert.True(t, ok)
		assert.Equal(t, "tenant_id", attr.Key)
		assert.Equal(t, tn.ID.String(), attr.Value.String())

		attr, ok = extractPlan(ctx)
		assert.True(t, ok)
		assert.Equal(t, "plan_id", attr.Key)
		assert.Equal(t, string(limits.PlanFree), attr.Value.String())
	})
}
