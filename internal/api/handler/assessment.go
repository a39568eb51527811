package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/flightrisk/flightrisk/internal/api/middleware"
	"github.com/flightrisk/flightrisk/internal/api/models"
	"github.com/flightrisk/flightrisk/internal/api/response"
	"github.com/flightrisk/flightrisk/internal/assessment"
)

// Assessor produces risk assessments for itineraries.
type Assessor interface {
	Assess(ctx context.Context, req assessment.Request) (*assessment.Output, error)
}

// AssessmentHandler handles risk assessment endpoints.
type AssessmentHandler struct {
	service Assessor
	logger  zerolog.Logger
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(service Assessor, logger zerolog.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		service: service,
		logger:  logger.With().Str("handler", "assessment").Logger(),
	}
}

// CreateAssessment handles POST /v1/assessments.
func (h *AssessmentHandler) CreateAssessment(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		response.ServiceUnavailable(w, r, "risk assessment is not configured")
		return
	}

	var req assessment.Request
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, r, "invalid request body: "+err.Error(), nil)
		return
	}

	out, err := h.service.Assess(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, out)
}

func (h *AssessmentHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *assessment.ValidationError
	var cerr *assessment.ComputationError

	switch {
	case errors.As(err, &verr):
		fields := make([]models.FieldError, len(verr.Fields))
		for i, f := range verr.Fields {
			fields[i] = models.FieldError{Field: f.Field, Message: f.Message, Code: "INVALID"}
		}
		response.BadRequest(w, r, "request validation failed", fields)

	case errors.Is(err, assessment.ErrInvalidRequest):
		response.BadRequest(w, r, err.Error(), nil)

	case errors.As(err, &cerr):
		h.logger.Error().
			Err(cerr.Err).
			Str("flight", cerr.Flight).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("risk computation failed")
		response.ComputationError(w, r, "risk computation failed for flight "+cerr.Flight)

	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		response.ServiceUnavailable(w, r, "assessment did not complete in time")

	default:
		h.logger.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("assessment failed")
		response.InternalError(w, r, "an unexpected error occurred")
	}
}
