package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/hospitalops/kpi-engine/internal/app"
	"github.com/hospitalops/kpi-engine/internal/auth"
	"github.com/hospitalops/kpi-engine/internal/dashboard"
	dashboardhttp "github.com/hospitalops/kpi-engine/internal/dashboard/http"
	"github.com/hospitalops/kpi-engine/internal/dataset"
	"github.com/hospitalops/kpi-engine/internal/observability"
	"github.com/hospitalops/kpi-engine/internal/platform/cache"
	"github.com/hospitalops/kpi-engine/internal/platform/db"
	"github.com/hospitalops/kpi-engine/internal/rbac"
	"github.com/hospitalops/kpi-engine/internal/shared"
	"github.com/hospitalops/kpi-engine/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	loc, err := cfg.Location()
	if err != nil {
		logger.Error("load timezone", slog.Any("error", err))
		os.Exit(1)
	}

	dbpool, err := db.New(ctx, cfg.PGDSN, db.WithMaxConns(cfg.PGMaxConns), db.WithApplicationName("kpi-engine"))
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()
	if err := dataset.NewPostgresSource(dbpool).EnsureSchema(ctx); err != nil {
		logger.Error("ensure dataset schema", slog.Any("error", err))
		os.Exit(1)
	}
	auditLogger := shared.NewAuditLogger(dbpool)
	if err := auditLogger.EnsureSchema(ctx); err != nil {
		logger.Error("ensure audit schema", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cache.WithPassword(cfg.RedisPassword), cache.WithDB(cfg.RedisDB))
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	ring, err := auth.NewKeyRing(cfg.APIKeys, cfg.APIKeyRoles)
	if err != nil {
		logger.Error("load api keys", slog.Any("error", err))
		os.Exit(1)
	}
	if ring.Len() == 0 {
		logger.Warn("no api keys configured, every api request will be rejected")
	}

	metrics := observability.NewMetrics()
	store := dataset.NewRedisStore(redisClient, cfg.DatasetTTL)
	engine := dashboard.NewService(store, cfg.EngineOptions(), metrics, logger)

	go func() {
		err := store.ListenForInvalidation(ctx, func(tenant string, version int64) {
			logger.Debug("dataset version bumped", slog.String("tenant", tenant), slog.Int64("version", version))
		})
		if err != nil && ctx.Err() == nil {
			logger.Warn("dataset invalidation listener", slog.Any("error", err))
		}
	}()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	dashboardHandler := dashboardhttp.NewHandler(logger, engine, store, metrics, dashboardhttp.Config{
		DefaultTenant: cfg.DefaultTenant,
		Location:      loc,
		ExportLimit:   cfg.ExportRateLimit,
	})
	dashboardHandler.WithAuditor(auditLogger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AuthHandler:        auth.NewHandler(logger, ring),
		DashboardHandler:   dashboardHandler,
		PermissionsHandler: rbac.NewPermissionsHandler(),
		JobHandler:         jobs.NewHandler(inspector, logger),
		Metrics:            metrics,
		Ready: func(r *http.Request) error {
			if err := redisClient.Ping(r.Context()).Err(); err != nil {
				return err
			}
			return dbpool.Ping(r.Context())
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("timezone", loc.String()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
