package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/wolfman30/healthcare-booking/cmd/mainconfig"
	"github.com/wolfman30/healthcare-booking/internal/app/bootstrap"
	appconfig "github.com/wolfman30/healthcare-booking/internal/config"
	"github.com/wolfman30/healthcare-booking/pkg/logging"
)

func main() {
	// .env is a development convenience; production sets real env vars.
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting healthcare-booking API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()
	deps, cleanup, err := connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect dependencies", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	app, err := bootstrap.Build(ctx, cfg, deps, logger)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if app.Reminders != nil {
		app.Reminders.Start()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      app.Handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if app.Reminders != nil {
		app.Reminders.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	logger.Info("server stopped")
}

// connect opens the optional external stores. Missing DATABASE_URL or
// REDIS_ADDR select in-memory fallbacks; a configured but unreachable
// database is fatal outside development.
func connect(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (bootstrap.Deps, func(), error) {
	var deps bootstrap.Deps

	deps.Pool = bootstrap.ConnectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if deps.Pool == nil && cfg.DatabaseURL != "" && cfg.Env == "production" {
		return deps, func() {}, errors.New("database configured but unreachable")
	}
	deps.Redis = bootstrap.BuildRedisClient(ctx, cfg, logger, true)

	if bootstrap.NeedsAWS(cfg) {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			closeDeps(deps)
			return deps, func() {}, err
		}
		deps.AWS = &awsCfg
	}
	return deps, func() { closeDeps(deps) }, nil
}

func closeDeps(deps bootstrap.Deps) {
	if deps.Pool != nil {
		deps.Pool.Close()
	}
	if deps.Redis != nil {
		_ = deps.Redis.Close()
	}
}
