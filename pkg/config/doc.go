// Package config loads typed configuration from environment variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11:
// Load reads the optional .env file once, parses the environment into a
// struct using `env` tags and caches the result per type and prefix.
//
//	var cfg quota.Config
//	config.MustLoad(&cfg)
//
// WithPrefix namespaces variables, WithEnvironment parses from an explicit
// map (handy in tests) and WithoutCache forces a fresh parse. LoadEnv loads
// additional dotenv files and ResetCache clears the cache.
package config
