package middleware

import (
	"net/http"
	"strings"

	"github.com/flightrisk/flightrisk/internal/api/models"
)

// securityHeaders are set on every response before the handler runs, so a
// handler may still override any of them.
var securityHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Strict-Transport-Security", "max-age=31536000; includeSubDomains"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Referrer-Policy", "no-referrer"},
	// Assessments are per flight and per day; intermediaries must not reuse them.
	{"Cache-Control", "no-store"},
}

// SecurityHeaders adds the API's security and caching headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range securityHeaders {
			h.Set(kv[0], kv[1])
		}
		next.ServeHTTP(w, r)
	})
}

// probePaths are reachable over plain HTTP so load balancer health checks work
// behind TLS termination.
var probePaths = []string{"/v1/ops/health", "/v1/ops/ready"}

// RequireTLS rejects requests whose X-Forwarded-Proto is not https. Requests
// without the header are direct connections and pass. A disabled middleware
// is a pass-through.
func RequireTLS(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			proto := strings.ToLower(r.Header.Get("X-Forwarded-Proto"))
			if proto == "" || proto == "https" || isProbe(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			problem := models.NewProblem(
				models.ProblemTypeTLSRequired,
				"TLS required",
				http.StatusForbidden,
				GetRequestID(r.Context()),
			)
			problem.Detail = "risk assessments are only served over HTTPS"
			problem.Instance = r.URL.Path
			problem.Write(w)
		})
	}
}

func isProbe(path string) bool {
	for _, p := range probePaths {
		if path == p {
			return true
		}
	}
	return false
}
