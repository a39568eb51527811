// Package main provides the entrypoint for the FlightRisk API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/flightrisk/flightrisk/internal/api"
	"github.com/flightrisk/flightrisk/internal/api/middleware"
	"github.com/flightrisk/flightrisk/internal/app"
	"github.com/flightrisk/flightrisk/internal/config"
	"github.com/flightrisk/flightrisk/internal/telemetry"
	"github.com/flightrisk/flightrisk/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "flightrisk-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting FlightRisk API")

	if err := config.LoadDotEnv(); err != nil {
		log.Fatal().Err(err).Msg("failed to load .env")
	}

	cfg, err := config.FromEnv(serviceName, Version)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Initialize OpenTelemetry
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.Telemetry.Enabled {
		log.Info().
			Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	pipeline, err := app.New(ctx, cfg, app.Options{Instrument: true}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to assemble assessment pipeline")
	}
	defer pipeline.Close()

	if cfg.RequireTLS {
		log.Info().Msg("TLS enforcement enabled")
	}
	if pipeline.Tokens == nil {
		log.Warn().Msg("ADMIN_JWT_SIGNING_KEY not set - admin endpoints disabled")
	}

	// Weather warm-up
	warmConfig := worker.DefaultRefreshConfig()
	if targets := worker.TargetsFromList(cfg.WarmAirports); targets != nil {
		warmConfig.Targets = targets
	}
	refreshJob := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:  warmConfig,
		Weather: pipeline.Weather,
		Logger:  log,
	})

	scheduler, err := worker.NewScheduler(worker.SchedulerConfig{
		Schedule: cfg.WarmSchedule,
		Job:      refreshJob,
		Logger:   log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create warm-up scheduler")
	}
	scheduler.Start()

	if cfg.PubSubProjectID != "" {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.PubSubProjectID,
			SubscriptionName: cfg.PubSubSubscription,
			Processor: worker.NewJobProcessor(worker.ProcessorConfig{
				RefreshJob: refreshJob,
				Purge:      pipeline.Assessments.InvalidateCache,
				Logger:     log,
			}),
			Logger: log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer handler.Close()

		go func() {
			if err := handler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	}

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:            Version,
		BuildTime:          BuildTime,
		Logger:             log,
		ServiceName:        serviceName,
		RequireTLS:         cfg.RequireTLS,
		Metrics:            metrics,
		AssessmentService:  pipeline.Assessments,
		TokenService:       pipeline.Tokens,
		FeatureFlagService: pipeline.FeatureFlags,
		WeatherService:     pipeline.Weather,
		Registry:           pipeline.Registry,
		ReadinessChecks:    pipeline.Checks,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := scheduler.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("warm-up job still running at shutdown")
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}
