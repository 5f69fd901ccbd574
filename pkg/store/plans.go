package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/restokit/pkg/limits"
)

// Limit columns in canonical resource order.
var planLimitColumns = []struct {
	res    limits.Resource
	column string
}{
	{limits.ResourceProducts, "max_products"},
	{limits.ResourceUsers, "max_users"},
	{limits.ResourceOrdersThisMonth, "max_orders_per_month"},
	{limits.ResourceCategories, "max_categories"},
	{limits.ResourceCoupons, "max_coupons"},
	{limits.ResourceMotoboys, "max_motoboys"},
	{limits.ResourceStorageMB, "max_storage_mb"},
	{limits.ResourceStockItems, "max_stock_items"},
}

const selectPlans = `
SELECT id, name, description,
       max_products, max_users, max_orders_per_month, max_categories,
       max_coupons, max_motoboys, max_storage_mb, max_stock_items,
       show_watermark, features, public, trial_days, price_amount, price_currency
FROM plan_limits`

const upsertPlan = `
INSERT INTO plan_limits (
    id, name, description,
    max_products, max_users, max_orders_per_month, max_categories,
    max_coupons, max_motoboys, max_storage_mb, max_stock_items,
    show_watermark, features, public, trial_days, price_amount, price_currency, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, now())
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    max_products = EXCLUDED.max_products,
    max_users = EXCLUDED.max_users,
    max_orders_per_month = EXCLUDED.max_orders_per_month,
    max_categories = EXCLUDED.max_categories,
    max_coupons = EXCLUDED.max_coupons,
    max_motoboys = EXCLUDED.max_motoboys,
    max_storage_mb = EXCLUDED.max_storage_mb,
    max_stock_items = EXCLUDED.max_stock_items,
    show_watermark = EXCLUDED.show_watermark,
    features = EXCLUDED.features,
    public = EXCLUDED.public,
    trial_days = EXCLUDED.trial_days,
    price_amount = EXCLUDED.price_amount,
    price_currency = EXCLUDED.price_currency,
    updated_at = now()`

// PlanSource reads the plan catalog from the plan_limits table.
// It implements limits.Source.
type PlanSource struct {
	db DB
}

func NewPlanSource(db DB) *PlanSource {
	if db == nil {
		panic("store: db cannot be nil")
	}
	return &PlanSource{db: db}
}

// Load implements limits.Source.
func (s *PlanSource) Load(ctx context.Context) (map[limits.PlanID]limits.Plan, error) {
	rows, err := s.db.Query(ctx, selectPlans)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	defer rows.Close()

	plans := make(map[limits.PlanID]limits.Plan)
	for rows.Next() {
		var (
			row      planRow
			features []string
		)
		if err := rows.Scan(
			&row.id, &row.name, &row.description,
			&row.limits[0], &row.limits[1], &row.limits[2], &row.limits[3],
			&row.limits[4], &row.limits[5], &row.limits[6], &row.limits[7],
			&row.showWatermark, &features, &row.public, &row.trialDays,
			&row.priceAmount, &row.priceCurrency,
		); err != nil {
			return nil, errors.Join(ErrScanFailed, err)
		}
		row.features = features

		plan := row.plan()
		plans[plan.ID] = plan
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	return plans, nil
}

// UpsertPlans writes plans in a single transaction.
func (s *PlanSource) UpsertPlans(ctx context.Context, plans ...limits.Plan) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		for _, p := range plans {
			if _, err := tx.Exec(ctx, upsertPlan, planArgs(p)...); err != nil {
				return errors.Join(ErrQueryFailed, err)
			}
		}
		return nil
	})
}

type planRow struct {
	id            string
	name          string
	description   string
	limits        [8]*int64
	showWatermark bool
	features      []string
	public        bool
	trialDays     int
	priceAmount   int64
	priceCurrency string
}

// plan converts NULL limit columns to limits.Unlimited.
func (r planRow) plan() limits.Plan {
	p := limits.Plan{
		ID:            limits.PlanID(r.id),
		Name:          r.name,
		Description:   r.description,
		Limits:        make(map[limits.Resource]int64, len(planLimitColumns)),
		ShowWatermark: r.showWatermark,
		Public:        r.public,
		TrialDays:     r.trialDays,
		Price:         limits.Money{Amount: r.priceAmount, Currency: r.priceCurrency},
	}
	for i, col := range planLimitColumns {
		if v := r.limits[i]; v != nil {
			p.Limits[col.res] = *v
		} else {
			p.Limits[col.res] = limits.Unlimited
		}
	}
	for _, f := range r.features {
		p.Features = append(p.Features, limits.Feature(f))
	}
	return p
}

// planArgs orders plan fields for upsertPlan; unlimited becomes NULL.
func planArgs(p limits.Plan) []any {
	args := []any{string(p.ID), p.Name, p.Description}
	for _, col := range planLimitColumns {
		if v := p.Limit(col.res); v == limits.Unlimited {
			args = append(args, nil)
		} else {
			args = append(args, v)
		}
	}
	features := make([]string, 0, len(p.Features))
	for _, f := range p.Features {
		features = append(features, string(f))
	}
	currency := p.Price.Currency
	if currency == "" {
		currency = "BRL"
	}
	return append(args, p.ShowWatermark, features, p.Public, p.TrialDays, p.Price.Amount, currency)
}
