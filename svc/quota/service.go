package quota

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dmitrymomot/restokit/pkg/audit"
	"github.com/dmitrymomot/restokit/pkg/limits"
	"github.com/dmitrymomot/restokit/pkg/logger"
	"github.com/dmitrymomot/restokit/pkg/subscription"
	"github.com/dmitrymomot/restokit/pkg/tenant"
	"github.com/dmitrymomot/restokit/pkg/usage"
)

// Service evaluates plan limits and subscription access for tenants.
// It is safe for concurrent use.
type Service struct {
	catalog   *limits.Catalog
	counter   usage.Counter
	tenants   tenant.Store
	locker    Locker
	lifecycle *subscription.Lifecycle
	log       *slog.Logger
	now       func() time.Time
	threshold float64
	printer   *message.Printer
	auditor   Auditor
}

// Auditor records plan and subscription changes. *audit.Recorder implements it.
type Auditor interface {
	Record(ctx context.Context, tenantID uuid.UUID, action audit.Action, opts ...audit.EventOption) error
}

// Option configures a Service.
type Option func(*Service)

// WithTenantStore enables operations that persist tenants:
// ChangePlan, Transition and HandleBillingEvent.
func WithTenantStore(store tenant.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.tenants = store
		}
	}
}

// WithLocker replaces the in-process locker used by Reserve.
// Use a distributed locker when several processes serve the same tenants.
func WithLocker(l Locker) Option {
	return func(s *Service) {
		if l != nil {
			s.locker = l
		}
	}
}

// WithAuditor records plan changes and subscription transitions.
// Admin overrides are refused when they cannot be recorded.
func WithAuditor(a Auditor) Option {
	return func(s *Service) {
		if a != nil {
			s.auditor = a
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides the time source, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithWarningThreshold sets the usage percent at which ResourceWarnings reports a resource.
// Non-positive values are ignored.
func WithWarningThreshold(percent float64) Option {
	return func(s *Service) {
		if percent > 0 {
			s.threshold = percent
		}
	}
}

// WithLanguage selects number formatting for downgrade action messages.
func WithLanguage(tag language.Tag) Option {
	return func(s *Service) {
		s.printer = message.NewPrinter(tag)
	}
}

// WithConfig applies an env-loaded Config.
// A Language that does not parse falls back to English.
func WithConfig(cfg Config) Option {
	return func(s *Service) {
		WithWarningThreshold(cfg.WarningThreshold)(s)
		if cfg.Language != "" {
			tag, err := language.Parse(cfg.Language)
			if err != nil {
				tag = language.English
			}
			WithLanguage(tag)(s)
		}
	}
}

// NewService panics if catalog or counter is nil.
func NewService(catalog *limits.Catalog, counter usage.Counter, opts ...Option) *Service {
	if catalog == nil {
		panic("quota: catalog is required")
	}
	if counter == nil {
		panic("quota: usage counter is required")
	}

	s := &Service{
		catalog:   catalog,
		counter:   counter,
		locker:    NewMemoryLocker(),
		lifecycle: subscription.NewLifecycle(),
		log:       slog.Default(),
		now:       time.Now,
		threshold: DefaultWarningThreshold,
		printer:   message.NewPrinter(language.English),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("quota"))

	return s
}

// Catalog returns the plan catalog the service evaluates against.
func (s *Service) Catalog() *limits.Catalog {
	return s.catalog
}

// record writes an audit event when an auditor is configured.
// Failures are logged and returned.
func (s *Service) record(ctx context.Context, tenantID uuid.UUID, action audit.Action, opts ...audit.EventOption) error {
	if s.auditor == nil {
		return nil
	}
	if err := s.auditor.Record(ctx, tenantID, action, opts...); err != nil {
		s.log.ErrorContext(ctx, "failed to record audit event",
			logger.TenantID(tenantID), "action", action, logger.Error(err))
		return err
	}
	return nil
}
