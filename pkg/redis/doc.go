// Package redis connects to Redis with go-redis/v9.
//
// Connect parses an env-populated Config, retries until the server answers
// PING and returns a *redis.Client. Healthcheck wraps PING for readiness
// probes. Config.Key builds namespaced keys:
//
//	cfg.Key("lock", tenantID.String(), "products") // "restokit:lock:<id>:products"
package redis
