package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/jordanmarch/upkeep-backend/api/routes"
	"github.com/jordanmarch/upkeep-backend/internal/auth"
	"github.com/jordanmarch/upkeep-backend/internal/properties"
	"github.com/jordanmarch/upkeep-backend/internal/tasks"
	"github.com/jordanmarch/upkeep-backend/internal/users"
	"github.com/jordanmarch/upkeep-backend/pkg/auth/session"
	"github.com/jordanmarch/upkeep-backend/pkg/config"
	"github.com/jordanmarch/upkeep-backend/pkg/db"
	"github.com/jordanmarch/upkeep-backend/pkg/logger"
	"github.com/jordanmarch/upkeep-backend/pkg/migrate"
	"github.com/jordanmarch/upkeep-backend/pkg/oauth"
	"github.com/jordanmarch/upkeep-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	verifier, err := oauth.NewClient(cfg.OAuth)
	if err != nil {
		logg.Error(context.Background(), "failed to create oauth client", err)
		os.Exit(1)
	}

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

	userService, err := users.NewService(userRepo, propertyService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}

	taskService, err := tasks.NewService(taskRepo, propertyService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create task service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Verifier:       verifier,
		Users:          userService,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			authService,
			userService,
			propertyService,
			taskService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
