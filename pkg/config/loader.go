package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// configCache stores parsed configurations keyed by type and prefix.
type configCache struct {
	mu     sync.Mutex
	values map[string]any
}

var (
	globalCache = &configCache{values: make(map[string]any)}

	defaultEnvLoaded sync.Once
)

type options struct {
	prefix  string
	environ map[string]string
	noCache bool
}

// Option configures a single Load call.
type Option func(*options)

// WithPrefix reads every variable as prefix+NAME, e.g. "TEST_PG_CONN_URL".
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithEnvironment parses from environ instead of the process environment.
// Results are never cached.
func WithEnvironment(environ map[string]string) Option {
	return func(o *options) {
		o.environ = environ
		o.noCache = true
	}
}

// WithoutCache forces a fresh parse and does not store the result.
func WithoutCache() Option {
	return func(o *options) { o.noCache = true }
}

// Load parses environment variables into v based on its `env` struct tags.
//
// The default .env file is loaded once, if present. Each configuration type
// is parsed once per prefix; later calls copy the cached value.
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T, opts ...Option) error {
	defaultEnvLoaded.Do(func() {
		// The .env file is optional.
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	key := o.prefix + getTypeName[T]()
	if !o.noCache {
		globalCache.mu.Lock()
		defer globalCache.mu.Unlock()
		if cached, ok := globalCache.values[key]; ok {
			*v = cached.(T)
			return nil
		}
	}

	var parsed T
	if err := env.ParseWithOptions(&parsed, env.Options{
		Prefix:      o.prefix,
		Environment: o.environ,
	}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	if !o.noCache {
		globalCache.values[key] = parsed
	}
	*v = parsed
	return nil
}

// MustLoad works like Load but panics if configuration loading fails.
func MustLoad[T any](v *T, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

// LoadEnv loads variables from the given files into the process environment.
// Later files override earlier ones, and both override existing variables.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	if err := godotenv.Overload(paths...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	return nil
}

// ResetCache drops every cached configuration.
func ResetCache() {
	globalCache.mu.Lock()
	defer globalCache.mu.Unlock()
	clear(globalCache.values)
}

func getTypeName[T any]() string {
	t := reflect.TypeFor[T]()
	return t.PkgPath() + "." + t.String()
}
