package tenant

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store for tests and single-node tools.
// Tenants are copied on the way in and out.
type MemoryStore struct {
	mu      sync.RWMutex
	tenants map[uuid.UUID]*Tenant
}

// NewMemoryStore returns a store seeded with tenants.
func NewMemoryStore(tenants ...*Tenant) *MemoryStore {
	s := &MemoryStore{tenants: make(map[uuid.UUID]*Tenant, len(tenants))}
	for _, t := range tenants {
		s.tenants[t.ID] = t.Clone()
	}
	return s
}

// Get implements Provider.
func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[id]
	if !ok {
		return nil, ErrTenantNotFound
	}
	return t.Clone(), nil
}

// GetByProviderSubscription implements SubscriptionFinder.
func (s *MemoryStore) GetByProviderSubscription(ctx context.Context, subscriptionID string) (*Tenant, error) {
	if subscriptionID == "" {
		return nil, ErrTenantNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tenants {
		if t.Subscription.ProviderSubID == subscriptionID {
			return t.Clone(), nil
		}
	}
	return nil, ErrTenantNotFound
}

// Save implements Store. Slugs must stay unique across tenants.
func (s *MemoryStore) Save(ctx context.Context, t *Tenant) error {
	if err := ValidateSlug(t.Slug); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, other := range s.tenants {
		if id != t.ID && other.Slug == t.Slug {
			return ErrDuplicateSlug
		}
	}
	s.tenants[t.ID] = t.Clone()
	return nil
}
