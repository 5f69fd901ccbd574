package quota

import "time"

// Config holds env-tunable settings of the quota service.
type Config struct {
	WarningThreshold float64       `env:"QUOTA_WARNING_THRESHOLD" envDefault:"80"` // percent of a limit that triggers a warning
	Language         string        `env:"QUOTA_LANGUAGE" envDefault:"en"`           // BCP 47 tag for action messages
	LockTTL          time.Duration `env:"QUOTA_LOCK_TTL" envDefault:"10s"`          // lifetime of distributed reservation locks
	LockRetry        time.Duration `env:"QUOTA_LOCK_RETRY" envDefault:"25ms"`       // poll interval while waiting for a distributed lock
}

// DefaultWarningThreshold is the usage percent at which warnings start.
const DefaultWarningThreshold = 80.0
