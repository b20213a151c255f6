package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/hospitalops/kpi-engine/internal/dataset"
	jobmetrics "github.com/hospitalops/kpi-engine/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// SnapshotSource is the system of record datasets are copied from.
type SnapshotSource interface {
	Tenants(ctx context.Context) ([]string, error)
	Modules(ctx context.Context, tenant string) ([]string, error)
	Load(ctx context.Context, tenant, module string) (dataset.Snapshot, error)
}

// SnapshotSink receives the copied datasets.
type SnapshotSink interface {
	Put(ctx context.Context, tenant, module string, payload json.RawMessage) (dataset.Snapshot, error)
}

// DatasetSyncJob refreshes the Redis snapshots of tenants from Postgres.
type DatasetSyncJob struct {
	Source  SnapshotSource
	Sink    SnapshotSink
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewDatasetSyncJob wires dependencies for the sync handler.
func NewDatasetSyncJob(source SnapshotSource, sink SnapshotSink, logger *slog.Logger, metrics *jobmetrics.Metrics) *DatasetSyncJob {
	return &DatasetSyncJob{
		Source:  source,
		Sink:    sink,
		Logger:  logger,
		Metrics: metrics,
		clock:   time.Now,
	}
}

// Handle processes TaskDatasetSync tasks.
func (j *DatasetSyncJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Source == nil || j.Sink == nil {
		return errors.New("dataset sync: handler not configured")
	}
	var payload DatasetSyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("dataset sync: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	for _, m := range payload.Modules {
		if err := dataset.ValidateModule(m); err != nil {
			return fmt.Errorf("dataset sync: %v: %w", err, asynq.SkipRetry)
		}
	}
	_, err := j.Run(ctx, payload)
	return err
}

// Run copies the selected datasets and reports how many snapshots were written.
func (j *DatasetSyncJob) Run(ctx context.Context, payload DatasetSyncPayload) (synced int, resultErr error) {
	tracker := j.metrics().Track(TaskDatasetSync)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	start := j.now()
	logger := j.logger().With(slog.String("tenant", payload.Tenant))
	logger.Info("starting dataset sync")

	tenants := []string{payload.Tenant}
	if payload.Tenant == "" || payload.Tenant == AllTenants {
		list, err := j.Source.Tenants(ctx)
		if err != nil {
			logger.Error("list tenants", slog.Any("error", err))
			return 0, err
		}
		tenants = list
	}

	for _, tenant := range tenants {
		n, err := j.syncTenant(ctx, tenant, payload.Modules)
		synced += n
		if err != nil {
			logger.Error("sync tenant", slog.String("sync_tenant", tenant), slog.Any("error", err))
			return synced, err
		}
	}
	logger.Info("completed dataset sync",
		slog.Int("tenants", len(tenants)),
		slog.Int("snapshots", synced),
		slog.Duration("duration", j.now().Sub(start)))
	return synced, nil
}

func (j *DatasetSyncJob) syncTenant(ctx context.Context, tenant string, modules []string) (int, error) {
	tenantCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if len(modules) == 0 {
		stored, err := j.Source.Modules(tenantCtx, tenant)
		if err != nil {
			return 0, err
		}
		modules = stored
	}
	synced := 0
	for _, module := range modules {
		snap, err := j.Source.Load(tenantCtx, tenant, module)
		if errors.Is(err, dataset.ErrNotFound) {
			continue
		}
		if err != nil {
			return synced, err
		}
		if _, err := j.Sink.Put(tenantCtx, tenant, module, snap.Payload); err != nil {
			return synced, fmt.Errorf("put %s: %w", module, err)
		}
		j.metrics().AddSynced(module, 1)
		synced++
	}
	return synced, nil
}

func (j *DatasetSyncJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DatasetSyncJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *DatasetSyncJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now()
}
