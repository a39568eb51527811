// Package handler provides HTTP handlers for the FlightRisk API.
package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/flightrisk/flightrisk/internal/api/models"
	"github.com/flightrisk/flightrisk/internal/api/response"
	"github.com/flightrisk/flightrisk/internal/assessment"
	"github.com/flightrisk/flightrisk/internal/featureflags"
	"github.com/flightrisk/flightrisk/internal/provider/resilience"
	"github.com/flightrisk/flightrisk/internal/weather"
)

// readinessTimeout bounds each dependency check.
const readinessTimeout = 2 * time.Second

// CheckFunc probes a dependency. A nil error means the dependency is usable.
type CheckFunc func(ctx context.Context) error

// OpsConfig holds the dependencies reported by the ops endpoints.
type OpsConfig struct {
	Version   string
	BuildTime string

	// Registry tracks outbound provider health (optional).
	Registry *resilience.Registry

	// FeatureFlags reports active degradation flags (optional).
	FeatureFlags *featureflags.Service

	// Assessments supplies result cache statistics (optional).
	Assessments *assessment.Service

	// Weather supplies weather cache statistics (optional).
	Weather *weather.Service

	// Checks are readiness probes keyed by subsystem name.
	Checks map[string]CheckFunc
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
	now func() time.Time
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg, now: time.Now}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
		Details: map[string]any{
			"version":    h.cfg.Version,
			"build_time": h.cfg.BuildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
// The service is ready when the assessment pipeline is wired and every
// readiness probe succeeds.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	subsystems := h.runChecks(r.Context())

	status := models.HealthStatusOK
	if h.cfg.Assessments == nil {
		status = models.HealthStatusFail
	}
	for _, s := range subsystems {
		if s.Status != models.HealthStatusOK {
			status = models.HealthStatusFail
		}
	}

	details := make(map[string]any, len(subsystems))
	for _, s := range subsystems {
		details[s.Name] = s.Status
	}

	code := http.StatusOK
	if status != models.HealthStatusOK {
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, r, code, models.Health{
		Status:  status,
		Time:    models.Timestamp(h.now()),
		Details: details,
	})
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
// Provider failures degrade the status rather than fail it: assessments are
// still produced with fallback signals.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(h.now()),
		Subsystems: h.runChecks(ctx),
		Providers:  h.providerStatuses(),
		Caches:     h.cacheStatuses(),
	}

	for _, s := range status.Subsystems {
		if s.Status != models.HealthStatusOK {
			status.Status = models.HealthStatusFail
		}
	}
	if status.Status == models.HealthStatusOK {
		for _, p := range status.Providers {
			if p.Status != models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
			}
		}
	}

	if h.cfg.FeatureFlags != nil {
		for key, flag := range h.cfg.FeatureFlags.GetAllFlags(ctx) {
			if flag.BoolValue(false) {
				status.ActiveDegradationFlags = append(status.ActiveDegradationFlags, key)
			}
		}
		sort.Strings(status.ActiveDegradationFlags)
		if len(status.ActiveDegradationFlags) > 0 && status.Status == models.HealthStatusOK {
			status.Status = models.HealthStatusDegraded
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) runChecks(ctx context.Context) []models.SubsystemStatus {
	names := make([]string, 0, len(h.cfg.Checks))
	for name := range h.cfg.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]models.SubsystemStatus, 0, len(names))
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, readinessTimeout)
		err := h.cfg.Checks[name](checkCtx)
		cancel()

		s := models.SubsystemStatus{Name: name, Status: models.HealthStatusOK}
		if err != nil {
			detail := err.Error()
			s.Status = models.HealthStatusFail
			s.Detail = &detail
		}
		out = append(out, s)
	}
	return out
}

func (h *OpsHandler) providerStatuses() []models.ProviderStatus {
	if h.cfg.Registry == nil {
		return []models.ProviderStatus{}
	}

	healths := h.cfg.Registry.GetAllHealth()
	out := make([]models.ProviderStatus, 0, len(healths))
	for _, ph := range healths {
		ps := models.ProviderStatus{
			Provider:      ph.Name,
			Status:        providerHealthStatus(ph),
			CircuitState:  ph.CircuitState.String(),
			LastSuccessAt: models.TimestampPtr(ph.LastSuccessAt),
			LastFailureAt: models.TimestampPtr(ph.LastFailureAt),
		}
		if ph.LastError != "" {
			msg := ph.LastError
			ps.Message = &msg
		}
		out = append(out, ps)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out
}

func providerHealthStatus(ph *resilience.ProviderHealth) models.HealthStatus {
	switch {
	case ph.IsUnhealthy():
		return models.HealthStatusFail
	case ph.IsDegraded():
		return models.HealthStatusDegraded
	default:
		return models.HealthStatusOK
	}
}

func (h *OpsHandler) cacheStatuses() []models.CacheStatus {
	out := []models.CacheStatus{}
	if h.cfg.Assessments != nil {
		stats := h.cfg.Assessments.CacheStats()
		hits, misses := stats.Hits, stats.Misses
		out = append(out, models.CacheStatus{
			Name:         "assessments",
			Entries:      stats.Entries,
			FreshEntries: stats.FreshEntries,
			Hits:         &hits,
			Misses:       &misses,
			TTLSeconds:   int(stats.TTL.Seconds()),
		})
	}
	if h.cfg.Weather != nil {
		stats := h.cfg.Weather.CacheStats()
		out = append(out, models.CacheStatus{
			Name:         "weather:" + stats.Provider,
			Entries:      stats.Entries,
			FreshEntries: stats.FreshEntries,
		})
	}
	return out
}
