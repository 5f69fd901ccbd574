package limits

import (
	"context"
	"sync"
)

// inMemSource implements Source over a fixed set of plans.
type inMemSource struct {
	mu    sync.RWMutex
	plans map[PlanID]Plan
}

// NewInMemSource returns a Source holding deep copies of the given plans.
func NewInMemSource(plans ...Plan) Source {
	plansCopy := make(map[PlanID]Plan, len(plans))
	for _, plan := range plans {
		plansCopy[plan.ID] = plan.Clone()
	}
	return &inMemSource{plans: plansCopy}
}

// Load returns a copy of all plans.
func (s *inMemSource) Load(ctx context.Context) (map[PlanID]Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plansCopy := make(map[PlanID]Plan, len(s.plans))
	for id, plan := range s.plans {
		plansCopy[id] = plan.Clone()
	}
	return plansCopy, nil
}
