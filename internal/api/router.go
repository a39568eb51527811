// Package api provides the HTTP API for FlightRisk.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/flightrisk/flightrisk/internal/api/handler"
	"github.com/flightrisk/flightrisk/internal/api/middleware"
	"github.com/flightrisk/flightrisk/internal/api/response"
	"github.com/flightrisk/flightrisk/internal/assessment"
	"github.com/flightrisk/flightrisk/internal/auth"
	"github.com/flightrisk/flightrisk/internal/featureflags"
	"github.com/flightrisk/flightrisk/internal/provider/resilience"
	"github.com/flightrisk/flightrisk/internal/weather"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version            string
	BuildTime          string
	Logger             zerolog.Logger
	ServiceName        string
	RequireTLS         bool
	Metrics            *middleware.Metrics
	AssessmentService  *assessment.Service
	TokenService       *auth.TokenService
	FeatureFlagService *featureflags.Service
	WeatherService     *weather.Service
	Registry           *resilience.Registry
	ReadinessChecks    map[string]handler.CheckFunc
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "flightrisk-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		response.NotFound(w, req, "no route matches "+req.Method+" "+req.URL.Path)
	})

	// A nil *assessment.Service must not become a non-nil interface
	var assessor handler.Assessor
	if cfg.AssessmentService != nil {
		assessor = cfg.AssessmentService
	}

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:      cfg.Version,
		BuildTime:    cfg.BuildTime,
		Registry:     cfg.Registry,
		FeatureFlags: cfg.FeatureFlagService,
		Assessments:  cfg.AssessmentService,
		Weather:      cfg.WeatherService,
		Checks:       cfg.ReadinessChecks,
	})
	assessmentHandler := handler.NewAssessmentHandler(assessor, cfg.Logger)
	featureFlagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlagService, cfg.Logger)
	adminHandler := handler.NewAdminHandler(cfg.AssessmentService, cfg.WeatherService, cfg.FeatureFlagService, cfg.Logger)

	adminAuth := middleware.AdminAuth(cfg.TokenService)

	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(standardRateLimit).Get("/status", opsHandler.SystemStatus)
		})

		// Assessments - expensive compute, strict rate limiting
		r.With(expensiveRateLimit, middleware.RequireJSON).Post("/assessments", assessmentHandler.CreateAssessment)

		// Admin endpoints (service token with admin scope)
		r.Route("/admin", func(r chi.Router) {
			r.Use(adminAuth)
			r.Use(middleware.RateLimitBySubject(middleware.AdminRateLimit))
			r.Use(middleware.RequireJSON)

			r.Route("/feature-flags", func(r chi.Router) {
				r.Get("/", featureFlagsHandler.ListFeatureFlags)
				r.Put("/", featureFlagsHandler.UpsertFeatureFlags)
				r.Post("/invalidate", featureFlagsHandler.InvalidateCache)
			})

			r.Post("/cache/invalidate", adminHandler.InvalidateCaches)
		})
	})

	return r
}
