package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospitalops/kpi-engine/internal/platform/db"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS kpi_datasets (
	tenant     TEXT        NOT NULL,
	module     TEXT        NOT NULL,
	payload    JSONB       NOT NULL DEFAULT '[]'::jsonb,
	revision   BIGINT      NOT NULL DEFAULT 1,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (tenant, module)
)`

// PostgresSource reads and writes the system-of-record copy of tenant datasets.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource wires the source to a pool.
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

// EnsureSchema creates the kpi_datasets table when missing.
func (s *PostgresSource) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("dataset: ensure schema: %w", err)
	}
	return nil
}

// Load returns the stored row for tenant and module.
func (s *PostgresSource) Load(ctx context.Context, tenant, module string) (Snapshot, error) {
	if err := ValidateModule(module); err != nil {
		return Snapshot{}, err
	}
	const query = `SELECT payload, revision, updated_at FROM kpi_datasets WHERE tenant = $1 AND module = $2`
	var (
		payload  []byte
		revision int64
		updated  time.Time
	)
	err := s.pool.QueryRow(ctx, query, tenant, module).Scan(&payload, &revision, &updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("%w: %s/%s", ErrNotFound, tenant, module)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("dataset: query: %w", err)
	}
	return Snapshot{
		Tenant:   tenant,
		Module:   module,
		Version:  revision,
		StoredAt: updated.UTC(),
		Payload:  json.RawMessage(payload),
	}, nil
}

// Modules lists the modules with a stored row for tenant.
func (s *PostgresSource) Modules(ctx context.Context, tenant string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT module FROM kpi_datasets WHERE tenant = $1 ORDER BY module`, tenant)
	if err != nil {
		return nil, fmt.Errorf("dataset: list modules: %w", err)
	}
	modules, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("dataset: scan modules: %w", err)
	}
	return modules, nil
}

// Tenants lists every tenant with at least one dataset.
func (s *PostgresSource) Tenants(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT tenant FROM kpi_datasets ORDER BY tenant`)
	if err != nil {
		return nil, fmt.Errorf("dataset: list tenants: %w", err)
	}
	tenants, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("dataset: scan tenants: %w", err)
	}
	return tenants, nil
}

// Save upserts the payload after checking it decodes into the module's records. The row
// revision increases on every write.
func (s *PostgresSource) Save(ctx context.Context, tenant, module string, payload json.RawMessage) (Snapshot, error) {
	if err := ValidateModule(module); err != nil {
		return Snapshot{}, err
	}
	var probe Bundle
	if err := probe.Set(module, payload); err != nil {
		return Snapshot{}, err
	}
	const upsert = `
INSERT INTO kpi_datasets (tenant, module, payload, revision, updated_at)
VALUES ($1, $2, $3, 1, now())
ON CONFLICT (tenant, module)
DO UPDATE SET payload = EXCLUDED.payload, revision = kpi_datasets.revision + 1, updated_at = now()
RETURNING revision, updated_at`
	snap := Snapshot{Tenant: tenant, Module: module, Payload: payload}
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		var updated time.Time
		if err := tx.QueryRow(ctx, upsert, tenant, module, []byte(payload)).Scan(&snap.Version, &updated); err != nil {
			return fmt.Errorf("dataset: upsert: %w", err)
		}
		snap.StoredAt = updated.UTC()
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
