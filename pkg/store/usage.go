package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/dmitrymomot/restokit/pkg/usage"
)

const bytesPerMB = 1024 * 1024

// UsageRepository counts tenant resources. It implements usage.Repository.
type UsageRepository struct {
	db DB
}

func NewUsageRepository(db DB) *UsageRepository {
	if db == nil {
		panic("store: db cannot be nil")
	}
	return &UsageRepository{db: db}
}

func (r *UsageRepository) CountProducts(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return r.count(ctx, `SELECT count(*) FROM products WHERE tenant_id = $1 AND deleted_at IS NULL`, tenantID)
}

func (r *UsageRepository) CountUsers(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return r.count(ctx, `SELECT count(*) FROM users WHERE tenant_id = $1 AND active`, tenantID)
}

// CountOrdersInMonth counts orders created within the UTC calendar month.
func (r *UsageRepository) CountOrdersInMonth(ctx context.Context, tenantID uuid.UUID, month usage.YearMonth) (int64, error) {
	start, end := month.Bounds()
	return r.count(ctx,
		`SELECT count(*) FROM orders WHERE tenant_id = $1 AND created_at >= $2 AND created_at < $3`,
		tenantID, start, end)
}

func (r *UsageRepository) CountCategories(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return r.count(ctx, `SELECT count(*) FROM categories WHERE tenant_id = $1`, tenantID)
}

func (r *UsageRepository) CountCoupons(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return r.count(ctx, `SELECT count(*) FROM coupons WHERE tenant_id = $1 AND active`, tenantID)
}

func (r *UsageRepository) CountMotoboys(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return r.count(ctx, `SELECT count(*) FROM motoboys WHERE tenant_id = $1 AND active`, tenantID)
}

// StorageUsedMB sums media sizes, rounding partial megabytes up.
func (r *UsageRepository) StorageUsedMB(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return r.count(ctx,
		`SELECT CEIL(COALESCE(SUM(size_bytes), 0)::numeric / $2)::bigint FROM media WHERE tenant_id = $1`,
		tenantID, bytesPerMB)
}

func (r *UsageRepository) CountStockItems(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return r.count(ctx, `SELECT count(*) FROM stock_items WHERE tenant_id = $1`, tenantID)
}

func (r *UsageRepository) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, errors.Join(ErrQueryFailed, err)
	}
	return n, nil
}
