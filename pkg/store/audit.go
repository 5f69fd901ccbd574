package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/dmitrymomot/restokit/pkg/audit"
)

const insertAuditEvent = `
INSERT INTO audit_events (id, tenant_id, actor, action, result, reason, error, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const selectAuditEvents = `
SELECT id, tenant_id, actor, action, result, reason, error, metadata, created_at
FROM audit_events
WHERE tenant_id = $1
ORDER BY created_at DESC, id
LIMIT $2`

// AuditStorage persists audit events in the audit_events table. It implements audit.Storage.
type AuditStorage struct {
	db DB
}

func NewAuditStorage(db DB) *AuditStorage {
	if db == nil {
		panic("store: db cannot be nil")
	}
	return &AuditStorage{db: db}
}

// Store implements audit.Storage.
func (s *AuditStorage) Store(ctx context.Context, e audit.Event) error {
	metadata, err := encodeMetadata(e.Metadata)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, insertAuditEvent,
		e.ID, e.TenantID, e.Actor, string(e.Action), string(e.Result), e.Reason, e.Error, metadata, e.CreatedAt)
	if err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	return nil
}

// Recent returns up to limit events of the tenant, newest first.
func (s *AuditStorage) Recent(ctx context.Context, tenantID uuid.UUID, limit int) ([]audit.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, selectAuditEvents, tenantID, limit)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			e              audit.Event
			action, result string
			metadata       []byte
		)
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Actor, &action, &result, &e.Reason, &e.Error, &metadata, &e.CreatedAt); err != nil {
			return nil, errors.Join(ErrScanFailed, err)
		}
		e.Action, e.Result = audit.Action(action), audit.Result(result)
		if len(metadata) > 0 && string(metadata) != "{}" {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, errors.Join(ErrScanFailed, err)
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	return events, nil
}

func encodeMetadata(m map[string]any) ([]byte, error) {
	if len(m) == 0 {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	return b, nil
}
