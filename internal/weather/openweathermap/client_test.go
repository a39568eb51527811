package openweathermap_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightrisk/flightrisk/internal/provider/resilience"
	"github.com/flightrisk/flightrisk/internal/weather"
	"github.com/flightrisk/flightrisk/internal/weather/openweathermap"
)

var fixedNow = time.Date(2025, time.February, 11, 9, 0, 0, 0, time.UTC)

func slot(dt time.Time, main, desc string, wind, gust float64, visibility int) map[string]any {
	return map[string]any{
		"coord":      map[string]float64{"lat": 41.9742, "lon": -87.9073},
		"weather":    []map[string]any{{"id": 800, "main": main, "description": desc}},
		"main":       map[string]float64{"temp": 2.0},
		"visibility": visibility,
		"wind":       map[string]float64{"speed": wind, "gust": gust},
		"dt":         dt.Unix(),
	}
}

func fastHTTPClient() *resilience.Client {
	cfg := resilience.DefaultClientConfig("test")
	cfg.MaxRetries = 1
	cfg.InitialInterval = 5 * time.Millisecond
	cfg.MaxInterval = 10 * time.Millisecond
	return resilience.NewClient(cfg)
}

func newTestClient(baseURL string) *openweathermap.Client {
	return openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     "****",
		BaseURL:    baseURL,
		HTTPClient: fastHTTPClient(),
		Logger:     zerolog.Nop(),
		Now:        func() time.Time { return fixedNow },
	})
}

func TestClient_GetWeatherRisk_Today(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		assert.Equal(t, "41.9742", r.URL.Query().Get("lat"))
		assert.Equal(t, "-87.9073", r.URL.Query().Get("lon"))
		assert.Equal(t, "****", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(slot(fixedNow, "Snow", "heavy snow", 8, 12, 1500))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	risk, err := client.GetWeatherRisk(context.Background(), "ORD", fixedNow)
	require.NoError(t, err)

	assert.Equal(t, "ORD", risk.Airport)
	assert.Equal(t, weather.RiskHigh, risk.Level)
	assert.Equal(t, "openweathermap", risk.Source)
	assert.Contains(t, risk.Description, "heavy snow")
}

func TestClient_GetWeatherRisk_ForecastPicksWorstSlot(t *testing.T) {
	day := fixedNow.AddDate(0, 0, 2)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)

		resp := map[string]any{
			"list": []map[string]any{
				slot(day.AddDate(0, 0, -1), "Thunderstorm", "storm on the previous day", 10, 30, 5000),
				slot(time.Date(day.Year(), day.Month(), day.Day(), 6, 0, 0, 0, time.UTC), "Clear", "clear sky", 3, 0, 10000),
				slot(time.Date(day.Year(), day.Month(), day.Day(), 15, 0, 0, 0, time.UTC), "Rain", "moderate rain", 6, 0, 6000),
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	risk, err := client.GetWeatherRisk(context.Background(), "ord", day)
	require.NoError(t, err)

	assert.Equal(t, weather.RiskMedium, risk.Level)
	assert.Contains(t, risk.Description, "moderate rain")
}

func TestClient_GetWeatherRisk_BeyondHorizonUsesFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("provider should not be called beyond the forecast horizon")
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     "****",
		BaseURL:    server.URL,
		HTTPClient: fastHTTPClient(),
		Fallback:   weather.NewClimatologyProvider().WithOverride("ORD", weather.RiskVeryHigh),
		Now:        func() time.Time { return fixedNow },
	})

	risk, err := client.GetWeatherRisk(context.Background(), "ORD", fixedNow.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, weather.RiskVeryHigh, risk.Level)
	assert.Equal(t, "climatology", risk.Source)
}

func TestClient_GetWeatherRisk_UnknownAirportUsesFallback(t *testing.T) {
	client := newTestClient("http://127.0.0.1:0")

	risk, err := client.GetWeatherRisk(context.Background(), "XQP", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "climatology", risk.Source)
}

func TestClient_GetCurrentWeather_AllConditions(t *testing.T) {
	conditions := map[string]weather.Condition{
		"Clear":        weather.ConditionClear,
		"Clouds":       weather.ConditionClouds,
		"Rain":         weather.ConditionRain,
		"Drizzle":      weather.ConditionDrizzle,
		"Thunderstorm": weather.ConditionThunderstorm,
		"Snow":         weather.ConditionSnow,
		"Mist":         weather.ConditionMist,
		"Fog":          weather.ConditionFog,
		"Haze":         weather.ConditionHaze,
		"Tornado":      weather.ConditionSevere,
		"Unknown":      weather.ConditionUnknown,
	}

	for owm, expected := range conditions {
		t.Run(owm, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(slot(fixedNow, owm, "test", 3, 0, 10000))
			}))
			defer server.Close()

			obs, err := newTestClient(server.URL).GetCurrentWeather(context.Background(), 41.97, -87.9)
			require.NoError(t, err)
			assert.Equal(t, expected, obs.Condition)
		})
	}
}

func TestClient_GetCurrentWeather_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetCurrentWeather(context.Background(), 41.97, -87.9)
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "500")
}

func TestClient_GetCurrentWeather_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetCurrentWeather(context.Background(), 41.97, -87.9)
	assert.ErrorIs(t, err, weather.ErrNoDataForAirport)
}

func TestClient_GetCurrentWeather_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(server.URL).GetCurrentWeather(ctx, 41.97, -87.9)
	require.Error(t, err)
}

func TestClient_Name(t *testing.T) {
	client := openweathermap.NewClient(openweathermap.ClientConfig{APIKey: "****"})
	assert.Equal(t, "openweathermap", client.Name())
}
