package logger

import (
	"fmt"
	"log/slog"
	"strings"
)

// Config is the env-populated logger setup used by the binaries.
type Config struct {
	Service string `env:"LOG_SERVICE" envDefault:"restokit"`
	Env     string `env:"APP_ENV" envDefault:"development"`
	Level   string `env:"LOG_LEVEL"` // overrides the environment default when set
}

// FromConfig applies environment defaults and then the explicit level, if any.
// Panics on an unknown level name.
func FromConfig(cfg Config) Option {
	return func(c *config) {
		WithEnvironment(cfg.Env, cfg.Service)(c)
		if cfg.Level == "" {
			return
		}
		level, err := ParseLevel(cfg.Level)
		if err != nil {
			panic(err)
		}
		c.level = level
	}
}

// ParseLevel accepts debug, info, warn/warning and error in any case.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
}
