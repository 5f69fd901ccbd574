package limits

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Resource is a countable tenant resource type subject to a plan limit.
// The set is closed: only the constants below are valid.
type Resource string

const (
	ResourceProducts        Resource = "products"
	ResourceUsers           Resource = "users"
	ResourceOrdersThisMonth Resource = "orders_this_month" // scoped to the current calendar month (UTC)
	ResourceCategories      Resource = "categories"
	ResourceCoupons         Resource = "coupons"
	ResourceMotoboys        Resource = "motoboys"
	ResourceStorageMB       Resource = "storage_mb" // measured in megabytes
	ResourceStockItems      Resource = "stock_items"
)

// allResources is the canonical resource order used for deterministic output.
var allResources = [...]Resource{
	ResourceProducts,
	ResourceUsers,
	ResourceOrdersThisMonth,
	ResourceCategories,
	ResourceCoupons,
	ResourceMotoboys,
	ResourceStorageMB,
	ResourceStockItems,
}

// AllResources returns every resource type in canonical order.
func AllResources() []Resource {
	return slices.Clone(allResources[:])
}

// Valid reports whether r belongs to the closed resource enumeration.
func (r Resource) Valid() bool {
	return slices.Contains(allResources[:], r)
}

// Index returns the position of r in canonical order, or -1 for unknown resources.
func (r Resource) Index() int {
	return slices.Index(allResources[:], r)
}

// Label returns a human-readable name used in messages shown to tenants.
func (r Resource) Label() string {
	switch r {
	case ResourceOrdersThisMonth:
		return "orders this month"
	case ResourceStorageMB:
		return "storage (MB)"
	case ResourceStockItems:
		return "stock items"
	default:
		return string(r)
	}
}

func (r Resource) String() string {
	return string(r)
}

// ParseResource converts untrusted input into a Resource.
func ParseResource(s string) (Resource, error) {
	r := Resource(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", errors.Join(ErrUnknownResource, fmt.Errorf("resource %q", s))
	}
	return r, nil
}

// MustValid panics when r is not a known resource type.
// Passing an unknown resource to the evaluator is a programming error.
func MustValid(r Resource) {
	if !r.Valid() {
		panic(fmt.Sprintf("limits: unknown resource type %q", string(r)))
	}
}

// PlanID identifies a plan tier.
type PlanID string

const (
	PlanFree   PlanID = "free"
	PlanBasic  PlanID = "basic"
	PlanPro    PlanID = "pro"
	PlanCustom PlanID = "custom" // limits come from tenant overrides
)

var allPlans = [...]PlanID{PlanFree, PlanBasic, PlanPro, PlanCustom}

// Valid reports whether p is one of the known plan tiers.
func (p PlanID) Valid() bool {
	return slices.Contains(allPlans[:], p)
}

// Rank orders plan tiers from cheapest to most capable.
func (p PlanID) Rank() int {
	return slices.Index(allPlans[:], p)
}

func (p PlanID) String() string {
	return string(p)
}

// ParsePlanID converts untrusted input into a PlanID.
func ParsePlanID(s string) (PlanID, error) {
	p := PlanID(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", errors.Join(ErrUnknownPlan, fmt.Errorf("plan %q", s))
	}
	return p, nil
}

// Unlimited marks a resource with no limit (-1 chosen for SQL compatibility).
const Unlimited int64 = -1

// Feature is a plan-specific capability flag.
type Feature string

const (
	FeatureWhatsAppBot      Feature = "whatsapp_bot"
	FeatureMultiUnit        Feature = "multi_unit"
	FeatureLoyalty          Feature = "loyalty"
	FeaturePOS              Feature = "pos"
	FeatureDeliveryDispatch Feature = "delivery_dispatch"
	FeatureReports          Feature = "reports"
	FeatureCustomDomain     Feature = "custom_domain"
)

// UsageInfo contains the current usage and the effective limit for a resource.
type UsageInfo struct {
	Current int64 `json:"current"`
	Limit   int64 `json:"limit"`
}

// Unlimited reports whether the resource has no limit.
func (u UsageInfo) Unlimited() bool {
	return u.Limit == Unlimited
}

// Money is an amount in the smallest currency unit, e.g. 4990 BRL cents.
type Money struct {
	Amount   int64  `json:"amount" yaml:"amount"`
	Currency string `json:"currency" yaml:"currency"` // ISO 4217
}
