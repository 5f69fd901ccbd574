package audit

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemoryStorage keeps events in process, for tests and local tools.
type MemoryStorage struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Store implements Storage.
func (s *MemoryStorage) Store(ctx context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns the tenant's events in insertion order.
func (s *MemoryStorage) Events(tenantID uuid.UUID) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.DeleteFunc(slices.Clone(s.events), func(e Event) bool {
		return e.TenantID != tenantID
	})
}
