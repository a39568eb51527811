package resilience_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightrisk/flightrisk/internal/provider/resilience"
)

// forecastResponse mirrors the part of an OpenWeatherMap forecast reply the
// weather provider reads.
type forecastResponse struct {
	List []struct {
		Weather []struct {
			ID   int    `json:"id"`
			Main string `json:"main"`
		} `json:"weather"`
		Visibility int   `json:"visibility"`
		Dt         int64 `json:"dt"`
	} `json:"list"`
}

const ordForecast = `{"list":[{"weather":[{"id":601,"main":"Snow"}],"visibility":800,"dt":1739275200}]}`

func neverTrip(name string) *resilience.CircuitBreakerConfig {
	cb := resilience.DefaultCircuitBreakerConfig(name)
	cb.ReadyToTrip = func(gobreaker.Counts) bool { return false }
	return &cb
}

func TestClient_ForecastSurvivesTransientOutage(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ORD", r.URL.Query().Get("q"))
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(ordForecast))
	}))
	defer server.Close()

	cfg := fastConfig("openweathermap", nil)
	cfg.MaxRetries = 5
	cfg.CircuitBreaker = neverTrip("openweathermap")
	client := resilience.NewClient(cfg)

	var out forecastResponse
	require.NoError(t, client.GetJSON(context.Background(), server.URL+"/forecast?q=ORD", &out))

	require.Len(t, out.List, 1)
	assert.Equal(t, 601, out.List[0].Weather[0].ID)
	assert.Equal(t, 800, out.List[0].Visibility)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestClient_InvalidAPIKeyIsNotRetried(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
	}))
	defer server.Close()

	client := resilience.NewClient(fastConfig("openweathermap", nil))

	var out forecastResponse
	err := client.GetJSON(context.Background(), server.URL, &out)

	var statusErr *resilience.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestClient_GeneratorOutageOpensCircuit(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cb := resilience.CircuitBreakerConfig{
		Name:        "textgen",
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 3 },
	}
	registry := resilience.NewRegistry()
	cfg := fastConfig("textgen", registry)
	cfg.MaxRetries = 1
	cfg.CircuitBreaker = &cb
	client := resilience.NewClient(cfg)

	prompt := map[string]any{"prompt": "Explain the risk of UA1234", "max_tokens": 300}
	var out struct {
		Text string `json:"text"`
	}

	// Two attempts on the first call, one more trips the breaker.
	for range 2 {
		err := client.PostJSON(context.Background(), server.URL, nil, prompt, &out)
		var statusErr *resilience.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	}
	assert.Equal(t, gobreaker.StateOpen, client.CircuitBreakerState())

	err := client.PostJSON(context.Background(), server.URL, nil, prompt, &out)
	require.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(3), attempts.Load())

	health := registry.GetHealth("textgen")
	require.NotNil(t, health)
	assert.Equal(t, "unhealthy", health.Status())
	assert.True(t, registry.AnyUnhealthy())
}

func TestClient_SlowProviderTimesOut(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	defer close(release)

	cfg := fastConfig("openweathermap", nil)
	cfg.Timeout = 50 * time.Millisecond
	cfg.MaxRetries = 1
	cfg.CircuitBreaker = neverTrip("openweathermap")
	client := resilience.NewClient(cfg)

	start := time.Now()
	err := client.GetJSON(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestClient_CanceledContextStopsRetries(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := fastConfig("textgen", nil)
	cfg.MaxRetries = 50
	cfg.InitialInterval = 20 * time.Millisecond
	cfg.MaxInterval = 20 * time.Millisecond
	cfg.CircuitBreaker = neverTrip("textgen")
	client := resilience.NewClient(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	payload, err := json.Marshal(map[string]string{"prompt": "hello"})
	require.NoError(t, err)

	_ = client.PostJSON(ctx, server.URL, nil, json.RawMessage(payload), nil)
	assert.Less(t, attempts.Load(), int32(50))
}

func TestDefaultReadyToTrip(t *testing.T) {
	tests := []struct {
		name   string
		counts gobreaker.Counts
		want   bool
	}{
		{"too few calls", gobreaker.Counts{Requests: 4, TotalFailures: 4}, false},
		{"mostly healthy", gobreaker.Counts{Requests: 10, TotalFailures: 4}, false},
		{"half failing", gobreaker.Counts{Requests: 10, TotalFailures: 5}, true},
		{"five straight failures", gobreaker.Counts{Requests: 5, TotalFailures: 5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resilience.DefaultReadyToTrip(tt.counts))
		})
	}
}

func TestDefaultClientConfig(t *testing.T) {
	cfg := resilience.DefaultClientConfig("openweathermap")

	assert.Equal(t, "openweathermap", cfg.Name)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, uint64(3), cfg.MaxRetries)
	require.NotNil(t, cfg.CircuitBreaker)
	assert.Equal(t, "openweathermap", cfg.CircuitBreaker.Name)
	assert.Equal(t, 60*time.Second, cfg.CircuitBreaker.Timeout)
}

func TestServerError(t *testing.T) {
	err := &resilience.ServerError{StatusCode: http.StatusBadGateway}
	assert.Equal(t, "server error: Bad Gateway", err.Error())
}
