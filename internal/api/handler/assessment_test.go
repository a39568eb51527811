package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightrisk/flightrisk/internal/api/handler"
	"github.com/flightrisk/flightrisk/internal/api/models"
	"github.com/flightrisk/flightrisk/internal/assessment"
	"github.com/flightrisk/flightrisk/internal/risk"
)

type stubAssessor struct {
	out *assessment.Output
	err error
	got assessment.Request
}

func (s *stubAssessor) Assess(_ context.Context, req assessment.Request) (*assessment.Output, error) {
	s.got = req
	return s.out, s.err
}

func postAssessment(t *testing.T, h *handler.AssessmentHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/assessments", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.CreateAssessment(rec, req)
	return rec
}

const validBody = `{"airline_code":"DL","flight_number":"45","origin":"ATL","destination":"LGA","date":"2025-07-04"}`

func TestCreateAssessment_Success(t *testing.T) {
	stub := &stubAssessor{out: &assessment.Output{AssessmentID: "a-1", OverallRiskScore: 22, RiskLevel: risk.LevelLow}}
	h := handler.NewAssessmentHandler(stub, zerolog.Nop())

	rec := postAssessment(t, h, validBody)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DL", stub.got.AirlineCode)
	assert.Equal(t, "2025-07-04", stub.got.Date)

	var out map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, "a-1", out["assessment_id"])
	assert.Equal(t, float64(22), out["overall_risk_score"])
}

func TestCreateAssessment_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "validation",
			err:        &assessment.ValidationError{Fields: []assessment.FieldError{{Field: "origin", Message: "must be an airport code"}}},
			wantStatus: http.StatusBadRequest,
			wantType:   models.ProblemTypeValidation,
		},
		{
			name:       "computation",
			err:        &assessment.ComputationError{Flight: "DL45", Err: risk.ErrComputation},
			wantStatus: http.StatusInternalServerError,
			wantType:   models.ProblemTypeComputation,
		},
		{
			name:       "deadline",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusServiceUnavailable,
			wantType:   models.ProblemTypeUnavailable,
		},
		{
			name:       "unexpected",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   models.ProblemTypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewAssessmentHandler(&stubAssessor{err: tt.err}, zerolog.Nop())

			rec := postAssessment(t, h, validBody)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var problem models.Problem
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&problem))
			assert.Equal(t, tt.wantType, problem.Type)
		})
	}
}

func TestCreateAssessment_ValidationFieldsReported(t *testing.T) {
	verr := &assessment.ValidationError{Fields: []assessment.FieldError{
		{Field: "origin", Message: "must be an airport code"},
		{Field: "date", Message: "must be formatted as YYYY-MM-DD"},
	}}
	h := handler.NewAssessmentHandler(&stubAssessor{err: verr}, zerolog.Nop())

	rec := postAssessment(t, h, validBody)

	var problem models.Problem
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&problem))
	require.Len(t, problem.Errors, 2)
	assert.Equal(t, "origin", problem.Errors[0].Field)
	assert.Equal(t, "date", problem.Errors[1].Field)
}

func TestCreateAssessment_ComputationErrorHidesPartialResult(t *testing.T) {
	stub := &stubAssessor{
		out: &assessment.Output{OverallRiskScore: 50},
		err: &assessment.ComputationError{Flight: "DL45", Err: risk.ErrComputation},
	}
	h := handler.NewAssessmentHandler(stub, zerolog.Nop())

	rec := postAssessment(t, h, validBody)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "overall_risk_score")
	assert.Contains(t, rec.Body.String(), "DL45")
}

func TestCreateAssessment_RejectsUnknownFields(t *testing.T) {
	h := handler.NewAssessmentHandler(&stubAssessor{}, zerolog.Nop())

	rec := postAssessment(t, h, `{"airline_code":"DL","seat":"12A"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
