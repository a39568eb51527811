package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/flightrisk/flightrisk/internal/api/models"
	"github.com/flightrisk/flightrisk/internal/risk"
)

// Recovery turns a handler panic into a problem response. A panic carrying a
// risk computation error is reported as a computation-error problem so
// clients see the same type as a failed assessment; anything else is an
// internal error. http.ErrAbortHandler is re-raised.
func Recovery(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler { //nolint:errorlint // sentinel compared by identity
					panic(rec)
				}

				requestID := GetRequestID(r.Context())
				log.Error().
					Str("request_id", requestID).
					Str("path", r.URL.Path).
					Str("panic", fmt.Sprint(rec)).
					Str("stack", string(debug.Stack())).
					Msg("panic recovered")

				problem := recoveredProblem(requestID, rec)
				problem.Instance = r.URL.Path
				problem.Write(w)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func recoveredProblem(requestID string, rec any) *models.Problem {
	if err, ok := rec.(error); ok && errors.Is(err, risk.ErrComputation) {
		return models.NewComputationError(requestID, "the risk assessment could not be computed")
	}
	return models.NewInternalError(requestID, "an unexpected error occurred")
}
