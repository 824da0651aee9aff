// Command server runs the incident report API: HTTP server, email
// worker, and the notification purge scheduler in one process.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/incidenthq/api/internal/config"
	"github.com/incidenthq/api/internal/infra/http"
	"github.com/incidenthq/api/internal/infra/http/middleware"
	"github.com/incidenthq/api/internal/infra/http/routes"
	"github.com/incidenthq/api/internal/infra/jobs"
	"github.com/incidenthq/api/internal/infra/postgres"
	"github.com/incidenthq/api/internal/infra/redis"
	"github.com/incidenthq/api/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		log := logger.NewDefault()
		log.Error("failed to load configuration", "error", err)
		return 1
	}

	log := initLogger(cfg)
	log.Info("starting application", "app", cfg.App.Name, "env", cfg.App.Env)

	// Infrastructure.
	db, err := postgres.New(&cfg.Database)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		return 1
	}
	defer closeWithLog(db, "database", log)
	log.Info("database connected")

	redisClient, err := redis.New(&cfg.Redis, log)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		return 1
	}
	defer closeWithLog(redisClient, "redis", log)
	log.Info("redis connected")

	jobClient, err := jobs.NewClient(jobs.ClientConfig{
		RedisAddr:     cfg.Redis.Addr(),
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
	}, log)
	if err != nil {
		log.Error("failed to initialize job client", "error", err)
		return 1
	}
	defer closeWithLog(jobClient, "job client", log)

	// Repositories and services.
	repos := NewRepositories(db)

	services, err := NewServices(&ServiceDeps{
		Config:      cfg,
		Log:         log,
		Repos:       repos,
		RedisClient: redisClient,
		JobClient:   jobClient,
	})
	if err != nil {
		log.Error("failed to initialize services", "error", err)
		return 1
	}
	log.Info("services initialized")

	// HTTP server.
	authenticator := middleware.NewAuthenticator(services.JWTGenerator, log)

	server := http.NewServer(cfg, log)
	routes.RegisterAll(server.Router(), NewHandlers(services, db, redisClient, log), routes.Options{
		RequireAuth:  authenticator.RequireAuth(),
		OptionalAuth: authenticator.OptionalAuth(),
		Decompress:   middleware.Decompress(nil),
	})

	// Background workers.
	workers, err := NewWorkers(cfg, services, log)
	if err != nil {
		log.Error("failed to initialize workers", "error", err)
		return 1
	}

	if err := workers.Start(log); err != nil {
		log.Error("failed to start workers", "error", err)
		return 1
	}

	go func() {
		if err := server.Start(); err != nil {
			log.Error("server error", "error", err)
		}
	}()
	log.Info("application started", "http_addr", cfg.Server.Addr())

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	workers.Stop(log)

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
		return 1
	}

	log.Info("application stopped")
	return 0
}

func initLogger(cfg *config.Config) *logger.Logger {
	var log *logger.Logger
	if cfg.IsDevelopment() {
		log = logger.NewDevelopment()
	} else {
		log = logger.New(logger.Config{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
		})
	}
	log.SetDefault()
	return log
}

type closer interface {
	Close() error
}

func closeWithLog(c closer, name string, log *logger.Logger) {
	if err := c.Close(); err != nil {
		log.Error("failed to close "+name, "error", err)
	}
}
