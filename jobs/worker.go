package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"
)

// DefaultConcurrency bounds parallel tasks when WorkerConfig leaves it unset. Sync
// tasks are I/O bound on one Postgres pool, so a small number suffices.
const DefaultConcurrency = 2

// syncTimeout caps a single dataset sync run, all tenants included.
const syncTimeout = 5 * time.Minute

// syncOptions are applied to every dataset sync, queued or scheduled.
func syncOptions() []asynq.Option {
	return []asynq.Option{asynq.Queue(QueueDefault), asynq.MaxRetry(3), asynq.Timeout(syncTimeout)}
}

// TaskHandler binds a task type to its handler.
type TaskHandler struct {
	Type    string
	Handler asynq.HandlerFunc
}

// CronRegistration wires a cron expression to a prepared task.
type CronRegistration struct {
	Spec    string
	Task    *asynq.Task
	Options []asynq.Option
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Logger      *slog.Logger
	Concurrency int
	Handlers    []TaskHandler
	Cron        []CronRegistration

	// Location evaluates cron specs; nil means UTC.
	Location *time.Location
}

// Worker processes queued tasks and, when cron entries exist, enqueues scheduled ones.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
}

// NewWorker validates cfg and builds the server and scheduler. Nothing connects to
// Redis until Run.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	mux := asynq.NewServeMux()
	for _, h := range cfg.Handlers {
		if h.Type == "" || h.Handler == nil {
			return nil, fmt.Errorf("worker: incomplete handler %q", h.Type)
		}
		mux.HandleFunc(h.Type, h.Handler)
	}

	var scheduler *asynq.Scheduler
	if len(cfg.Cron) > 0 {
		scheduler = asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{Location: loc})
		for _, entry := range cfg.Cron {
			if entry.Task == nil {
				return nil, fmt.Errorf("worker: cron %q has no task", entry.Spec)
			}
			if _, err := scheduler.Register(entry.Spec, entry.Task, entry.Options...); err != nil {
				return nil, fmt.Errorf("worker: register cron %q: %w", entry.Spec, err)
			}
		}
	}

	server := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{QueueDefault: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Warn("task failed",
				slog.String("type", task.Type()),
				slog.Int("retried", retried),
				slog.Int("max_retry", maxRetry),
				slog.Any("error", err))
		}),
	})
	return &Worker{server: server, mux: mux, scheduler: scheduler}, nil
}

// Run processes tasks until ctx is cancelled, then drains the server.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.server == nil {
		return errors.New("worker: not configured")
	}
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("worker: start server: %w", err)
	}
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			w.server.Shutdown()
			return fmt.Errorf("worker: start scheduler: %w", err)
		}
	}
	<-ctx.Done()
	if w.scheduler != nil {
		w.scheduler.Shutdown()
	}
	w.server.Shutdown()
	return ctx.Err()
}

// NewSyncCron builds one sync registration per distinct tenant. Blank tenants are
// skipped; an empty list schedules nothing.
func NewSyncCron(spec string, tenants []string) ([]CronRegistration, error) {
	if strings.TrimSpace(spec) == "" && len(tenants) > 0 {
		return nil, errors.New("sync cron: empty schedule")
	}
	seen := make(map[string]struct{}, len(tenants))
	out := make([]CronRegistration, 0, len(tenants))
	for _, tenant := range tenants {
		tenant = strings.TrimSpace(tenant)
		if tenant == "" {
			continue
		}
		if _, dup := seen[tenant]; dup {
			continue
		}
		seen[tenant] = struct{}{}
		task, err := NewDatasetSyncTask(DatasetSyncPayload{Tenant: tenant})
		if err != nil {
			return nil, err
		}
		out = append(out, CronRegistration{Spec: spec, Task: task, Options: syncOptions()})
	}
	return out, nil
}
