// Package store implements the persistence interfaces of restokit on PostgreSQL
// with pgx/v5: the plan catalog source, the tenant store, per-resource usage
// counters, the audit trail and an advisory-lock based locker.
//
// The schema lives in the migrations directory and is applied with pg.Migrate.
package store
