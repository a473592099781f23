package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/i474232898/weather-odds/internal/api/http"
	"github.com/i474232898/weather-odds/internal/bootstrap"
	"github.com/i474232898/weather-odds/internal/config"
	"github.com/i474232898/weather-odds/internal/export"
	"github.com/i474232898/weather-odds/internal/observability"
	"github.com/i474232898/weather-odds/internal/scheduler"
	"github.com/i474232898/weather-odds/pkg/logger"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.NewWithWriter(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	clock := clockwork.NewRealClock()
	metrics := observability.NewMetrics()

	service, err := bootstrap.Service(cfg, clock, log, metrics)
	if err != nil {
		log.Error("failed to build query service", "error", err)
		os.Exit(1)
	}

	artifacts, closeStore, err := bootstrap.ArtifactStore(cfg, clock, log)
	if err != nil {
		log.Error("failed to open artifact store", "store", cfg.ArtifactStore, "error", err)
		os.Exit(1)
	}
	defer closeStore()
	exports := export.NewManager(artifacts, clock, log, metrics)

	// Periodic audit of artifacts that were never downloaded.
	sched := scheduler.New(exports, cfg.AuditInterval, cfg.AuditMaxAge, clock, log, metrics)
	if err := sched.Start(); err != nil {
		log.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-odds",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          time.Minute,
		ErrorHandler:          httpapi.ErrorHandler(log),
	})

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-odds",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpapi.RegisterRoutes(app, httpapi.Dependencies{
		Service:   service,
		Exports:   exports,
		Logger:    log,
		JWTSecret: cfg.JWTSecret,
	})

	go func() {
		log.Info("listening", "port", cfg.Port, "artifact_store", cfg.ArtifactStore)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", "error", err)
	}
}
