package handler

import (
	"errors"
	"net/http"
	"sort"

	"github.com/rs/zerolog"

	"github.com/flightrisk/flightrisk/internal/api/middleware"
	"github.com/flightrisk/flightrisk/internal/api/models"
	"github.com/flightrisk/flightrisk/internal/api/response"
	"github.com/flightrisk/flightrisk/internal/featureflags"
)

// FeatureFlagsHandler handles feature flag endpoints.
type FeatureFlagsHandler struct {
	service *featureflags.Service
	logger  zerolog.Logger
}

// NewFeatureFlagsHandler creates a new FeatureFlagsHandler.
func NewFeatureFlagsHandler(service *featureflags.Service, logger zerolog.Logger) *FeatureFlagsHandler {
	return &FeatureFlagsHandler{service: service, logger: logger}
}

// ListFeatureFlags handles GET /v1/admin/feature-flags - list all feature flags.
func (h *FeatureFlagsHandler) ListFeatureFlags(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, h.list(r))
}

// UpsertFeatureFlags handles PUT /v1/admin/feature-flags - update feature flags.
func (h *FeatureFlagsHandler) UpsertFeatureFlags(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		response.ServiceUnavailable(w, r, "feature flags are not configured")
		return
	}

	var req featureflags.FlagUpdateRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, r, "invalid request body: "+err.Error(), nil)
		return
	}
	if req.Reason == "" {
		req.Reason = "updated by " + middleware.GetSubject(r.Context())
	}

	if _, err := h.service.ApplyUpdates(r.Context(), req); err != nil {
		switch {
		case errors.Is(err, featureflags.ErrUnknownFlag), errors.Is(err, featureflags.ErrInvalidFlagValue):
			response.BadRequest(w, r, err.Error(), []models.FieldError{
				{Field: "updates", Message: err.Error(), Code: "INVALID"},
			})
		case errors.Is(err, featureflags.ErrFlagPinned):
			response.BadRequest(w, r, err.Error(), []models.FieldError{
				{Field: "updates", Message: err.Error(), Code: "PINNED"},
			})
		default:
			h.logger.Error().Err(err).Msg("failed to update feature flags")
			response.InternalError(w, r, "failed to update feature flags")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, h.list(r))
}

// InvalidateCache handles POST /v1/admin/feature-flags/invalidate - invalidate flag cache.
func (h *FeatureFlagsHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	if h.service != nil {
		h.service.InvalidateCache()
	}
	response.NoContent(w, r)
}

func (h *FeatureFlagsHandler) list(r *http.Request) featureflags.FlagList {
	all := featureflags.DefaultFlags()
	if h.service != nil {
		all = h.service.GetAllFlags(r.Context())
	}
	list := featureflags.FlagList{Items: make([]featureflags.Flag, 0, len(all))}
	for _, f := range all {
		list.Items = append(list.Items, *f)
	}
	sort.Slice(list.Items, func(i, j int) bool { return list.Items[i].Key < list.Items[j].Key })
	return list
}
