package handler

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/flightrisk/flightrisk/internal/api/middleware"
	"github.com/flightrisk/flightrisk/internal/api/models"
	"github.com/flightrisk/flightrisk/internal/api/response"
	"github.com/flightrisk/flightrisk/internal/assessment"
	"github.com/flightrisk/flightrisk/internal/featureflags"
	"github.com/flightrisk/flightrisk/internal/weather"
)

// AdminHandler handles cache administration endpoints.
type AdminHandler struct {
	assessments *assessment.Service
	weather     *weather.Service
	flags       *featureflags.Service
	logger      zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler. Any dependency may be nil.
func NewAdminHandler(assessments *assessment.Service, weatherSvc *weather.Service, flags *featureflags.Service, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		assessments: assessments,
		weather:     weatherSvc,
		flags:       flags,
		logger:      logger,
	}
}

// InvalidateCaches handles POST /v1/admin/cache/invalidate.
// It drops cached assessments, cached weather risk and cached flags.
func (h *AdminHandler) InvalidateCaches(w http.ResponseWriter, r *http.Request) {
	result := models.CacheInvalidation{Time: models.Timestamp(time.Now())}

	if h.assessments != nil {
		result.Assessments = h.assessments.InvalidateCache()
	}
	if h.weather != nil {
		h.weather.InvalidateCache()
		result.Weather = true
	}
	if h.flags != nil {
		h.flags.InvalidateCache()
		result.Flags = true
	}

	h.logger.Info().
		Str("subject", middleware.GetSubject(r.Context())).
		Int("assessments", result.Assessments).
		Bool("weather", result.Weather).
		Msg("caches invalidated")

	response.JSON(w, r, http.StatusOK, result)
}
