package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"incubator_console/internal/backend"
	"incubator_console/internal/cache"
	"incubator_console/internal/config"
	"incubator_console/internal/handlers"
	"incubator_console/internal/logger"
	"incubator_console/internal/metrics"
	"incubator_console/internal/repository"
	"incubator_console/internal/repository/db"
	"incubator_console/internal/server"
	"incubator_console/internal/service"
	"incubator_console/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(cfg.LogLevel)

	sqlDB, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// context for background poll loops
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	services := wireServices(ctx, cfg, sqlDB, log)
	apiHandler := handlers.NewHandler(services, log)

	srv := &server.Server{}
	go func() {
		log.Infow("console listening", "port", cfg.Port, "backend", cfg.APIBaseURL)
		if err := srv.Run(cfg.Port, apiHandler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()

	waitForShutdown(cancel, srv, log)
}

// wireServices builds the dependency graph: sqlite repos, session, backend
// client (with the global 401/403 teardown hook), cache and services.
func wireServices(ctx context.Context, cfg config.Config, sqlDB *sql.DB, log *logger.Logger) *service.Service {
	repos := repository.NewRepository(sqlDB)

	sessions := session.NewManager(repos.Session)
	if err := sessions.Init(ctx); err != nil {
		log.Warnw("could not restore persisted session", "err", err)
	}

	client := backend.New(cfg.APIBaseURL, cfg.APITimeout, sessions, func() {
		// Auth failures are global: tear the session down and force re-login.
		log.Infow("backend rejected session, logging out")
		if err := sessions.Clear(context.Background()); err != nil {
			log.Errorw("failed to clear session", "err", err)
		}
	})

	return service.NewService(ctx, service.Deps{
		Backend:           client,
		Store:             cache.New(),
		Sessions:          sessions,
		Repos:             repos,
		Metrics:           metrics.NewConsoleMetrics(),
		Log:               log,
		DeviceInterval:    cfg.DeviceInterval,
		TelemetryInterval: cfg.TelemetryInterval,
	})
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down...")

	// stop poll loops
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
