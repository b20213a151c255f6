package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const auditDDL = `
CREATE TABLE IF NOT EXISTS kpi_audit_log (
	id          BIGSERIAL PRIMARY KEY,
	actor       TEXT NOT NULL,
	action      TEXT NOT NULL,
	tenant      TEXT NOT NULL,
	module      TEXT NOT NULL,
	meta        JSONB NOT NULL DEFAULT '{}'::jsonb,
	occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS kpi_audit_log_tenant_idx ON kpi_audit_log (tenant, occurred_at DESC);`

// ErrIncompleteAudit indicates an audit entry missing action, tenant or module.
var ErrIncompleteAudit = errors.New("audit log requires action/tenant/module")

// AuditLog is one change made to a tenant dataset.
type AuditLog struct {
	Actor  string
	Action string
	Tenant string
	Module string
	Meta   map[string]any
	At     time.Time
}

// AuditLogger writes records into kpi_audit_log.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// EnsureSchema creates the audit table when missing.
func (l *AuditLogger) EnsureSchema(ctx context.Context) error {
	if _, err := l.pool.Exec(ctx, auditDDL); err != nil {
		return fmt.Errorf("shared: audit schema: %w", err)
	}
	return nil
}

// Record persists the log entry. A zero At is stamped by the database.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil || l.pool == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Tenant == "" || log.Module == "" {
		return ErrIncompleteAudit
	}
	if log.Actor == "" {
		log.Actor = "anonymous"
	}
	if log.Meta == nil {
		log.Meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	var at *time.Time
	if !log.At.IsZero() {
		at = &log.At
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO kpi_audit_log (actor, action, tenant, module, meta, occurred_at) VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`,
		log.Actor, log.Action, log.Tenant, log.Module, metaJSON, at)
	return err
}
