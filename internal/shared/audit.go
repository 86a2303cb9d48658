package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLog represents a record stored in audit_logs.
type AuditLog struct {
	OrganizationID uuid.UUID
	ActorID        uuid.UUID
	Action         string
	Module         string
	Entity         string
	EntityID       string
	OldValues      map[string]any
	NewValues      map[string]any
	At             time.Time
}

// AuditLogger writes records into audit_logs. Callers treat it as a
// best-effort sink: a failed Record must never abort the primary operation.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	oldJSON, err := json.Marshal(log.OldValues)
	if err != nil {
		return err
	}
	newJSON, err := json.Marshal(log.NewValues)
	if err != nil {
		return err
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO audit_logs (organization_id, actor_id, action, module, entity, entity_id, old_values, new_values, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		log.OrganizationID, log.ActorID, log.Action, log.Module, log.Entity, log.EntityID, oldJSON, newJSON, log.occurredAt())
	return err
}

// occurredAt falls back to the wall clock for callers that leave At unset.
func (log AuditLog) occurredAt() time.Time {
	if log.At.IsZero() {
		return time.Now()
	}
	return log.At
}
