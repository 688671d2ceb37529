package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jordanmarch/upkeep-backend/internal/cron"
	"github.com/jordanmarch/upkeep-backend/internal/properties"
	"github.com/jordanmarch/upkeep-backend/internal/tasks"
	"github.com/jordanmarch/upkeep-backend/internal/users"
	"github.com/jordanmarch/upkeep-backend/pkg/config"
	"github.com/jordanmarch/upkeep-backend/pkg/db"
	"github.com/jordanmarch/upkeep-backend/pkg/logger"
	"github.com/jordanmarch/upkeep-backend/pkg/metrics"
	"github.com/jordanmarch/upkeep-backend/pkg/migrate"
	"github.com/jordanmarch/upkeep-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	userRepo := users.NewRepository(dbClient.DB())
	propertyRepo := properties.NewRepository(dbClient.DB())
	taskRepo := tasks.NewRepository(dbClient.DB())

	propertyService, err := properties.NewService(
		propertyRepo,
		&users.LinkedRepository{Repository: userRepo},
		properties.NewRecordCache(redisClient),
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create property service", err)
		os.Exit(1)
	}

	taskService, err := tasks.NewService(taskRepo, propertyService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create task service", err)
		os.Exit(1)
	}

	cronMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	taskMetrics := metrics.NewTaskMetrics(prometheus.DefaultRegisterer)

	reconcileJob, err := cron.NewSuccessorReconcileJob(cron.SuccessorReconcileJobParams{
		Logger: logg,
		Tasks:  taskService,
		Limit:  cfg.Cron.ReconcileLimit,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile job", err)
		os.Exit(1)
	}

	snapshotJob, err := cron.NewOverdueSnapshotJob(cron.OverdueSnapshotJobParams{
		Logger:     logg,
		Tasks:      taskService,
		Properties: propertyRepo,
		Metrics:    taskMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create snapshot job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker:"+cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(reconcileJob, snapshotJob),
		Lock:     lock,
		Metrics:  cronMetrics,
		Schedule: cfg.Cron.Schedule,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"schedule": cfg.Cron.Schedule,
	})
	logg.Info(ctx, "starting cron worker")

	go serveMetrics(ctx, logg, cfg.Cron.MetricsPort)

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func serveMetrics(ctx context.Context, logg *logger.Logger, port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: ":" + port, Handler: mux}

	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "metrics server stopped unexpectedly", err)
	}
}
