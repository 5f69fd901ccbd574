// Package audit records who changed a tenant's plan or subscription and why.
//
// A Recorder validates events and hands them to a Storage. MemoryStorage
// serves tests; store.AuditStorage persists to PostgreSQL.
//
//	rec := audit.NewRecorder(store.NewAuditStorage(pool))
//	err := rec.Record(ctx, tenantID, audit.ActionPlanOverride,
//	    audit.WithActor("ops@example.com"),
//	    audit.WithReason("contract signed"),
//	    audit.WithMetadata("to_plan", "free"),
//	)
//
// Actor falls back to the WithActorExtractor result and then to "system".
package audit
