package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Storage persists audit events.
type Storage interface {
	Store(ctx context.Context, event Event) error
}

// Recorder writes audit events for tenants.
type Recorder struct {
	storage        Storage
	actorExtractor func(context.Context) (string, bool)
	now            func() time.Time
}

// Option configures Recorder behavior during initialization
type Option func(*Recorder)

// WithActorExtractor fills Actor from the request context when no WithActor
// option is given, e.g. the signed-in admin.
func WithActorExtractor(fn func(context.Context) (string, bool)) Option {
	return func(r *Recorder) {
		r.actorExtractor = fn
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRecorder creates a new audit recorder
func NewRecorder(storage Storage, opts ...Option) *Recorder {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}

	r := &Recorder{
		storage: storage,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record stores an event for the tenant. Actor defaults to "system".
func (r *Recorder) Record(ctx context.Context, tenantID uuid.UUID, action Action, opts ...EventOption) error {
	event := Event{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Action:    action,
		Result:    ResultSuccess,
		CreatedAt: r.now().UTC(),
	}
	if r.actorExtractor != nil {
		if actor, ok := r.actorExtractor(ctx); ok {
			event.Actor = actor
		}
	}

	for _, opt := range opts {
		opt(&event)
	}
	if event.Actor == "" {
		event.Actor = "system"
	}

	if err := event.Validate(); err != nil {
		return err
	}
	if err := r.storage.Store(ctx, event); err != nil {
		return errors.Join(ErrStorageNotAvailable, err)
	}
	return nil
}
