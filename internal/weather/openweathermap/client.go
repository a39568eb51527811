// Package openweathermap maps OpenWeatherMap observations and forecasts at
// airport coordinates to weather disruption risk.
package openweathermap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/flightrisk/flightrisk/internal/airport"
	"github.com/flightrisk/flightrisk/internal/provider/resilience"
	"github.com/flightrisk/flightrisk/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "openweathermap"

	// DefaultBaseURL is the OpenWeatherMap API base URL.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

	// forecastHorizon is how far ahead the 5 day / 3 hour forecast reaches.
	forecastHorizon = 5 * 24 * time.Hour
)

// ClientConfig holds configuration for the OpenWeatherMap client.
type ClientConfig struct {
	// APIKey is the OpenWeatherMap API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to OpenWeatherMap API).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Fallback serves dates beyond the forecast horizon (optional).
	// Defaults to the climatology provider.
	Fallback weather.Provider

	// Logger for client operations.
	Logger zerolog.Logger

	// Now overrides the clock (optional, for tests).
	Now func() time.Time
}

// Client is an OpenWeatherMap-backed weather.Provider.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	fallback   weather.Provider
	logger     zerolog.Logger
	now        func() time.Time
}

// NewClient creates a new OpenWeatherMap client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	fallback := cfg.Fallback
	if fallback == nil {
		fallback = weather.NewClimatologyProvider()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		fallback:   fallback,
		logger:     cfg.Logger,
		now:        now,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GetWeatherRisk returns weather risk for an airport on a date. Today uses
// current conditions, the next five days use the worst forecast slot on that
// date, and anything later falls back to climatology.
func (c *Client) GetWeatherRisk(ctx context.Context, code string, date time.Time) (*weather.Risk, error) {
	loc, ok := airport.LocationOf(code)
	if !ok {
		c.logger.Debug().Str("airport", code).Msg("no coordinates for airport, using fallback")
		return c.fallback.GetWeatherRisk(ctx, code, date)
	}

	now := c.now()
	day := date.Format(time.DateOnly)

	switch {
	case day == now.Format(time.DateOnly):
		obs, err := c.GetCurrentWeather(ctx, loc.Lat, loc.Lon)
		if err != nil {
			return nil, err
		}
		risk := weather.RiskFromObservation(code, obs)
		risk.Date = date
		risk.Source = ProviderName
		return risk, nil

	case date.After(now) && date.Sub(now) <= forecastHorizon:
		slots, err := c.GetForecast(ctx, loc.Lat, loc.Lon)
		if err != nil {
			return nil, err
		}
		risk := worstOnDay(code, slots, day)
		if risk == nil {
			return c.fallback.GetWeatherRisk(ctx, code, date)
		}
		risk.Date = date
		risk.Source = ProviderName
		return risk, nil

	default:
		return c.fallback.GetWeatherRisk(ctx, code, date)
	}
}

// GetCurrentWeather fetches current weather for a location.
func (c *Client) GetCurrentWeather(ctx context.Context, lat, lon float64) (*weather.Observation, error) {
	var resp currentWeatherResponse
	if err := c.httpClient.GetJSON(ctx, c.endpoint("weather", lat, lon), &resp); err != nil {
		return nil, c.wrap(err)
	}
	return toObservation(&resp), nil
}

// GetForecast fetches the 3-hourly forecast for a location.
func (c *Client) GetForecast(ctx context.Context, lat, lon float64) ([]*weather.Observation, error) {
	var resp forecastResponse
	if err := c.httpClient.GetJSON(ctx, c.endpoint("forecast", lat, lon), &resp); err != nil {
		return nil, c.wrap(err)
	}

	slots := make([]*weather.Observation, 0, len(resp.List))
	for i := range resp.List {
		slots = append(slots, toObservation(&resp.List[i]))
	}
	return slots, nil
}

func (c *Client) endpoint(path string, lat, lon float64) string {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.4f", lat))
	q.Set("lon", fmt.Sprintf("%.4f", lon))
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")
	return c.baseURL + "/" + path + "?" + q.Encode()
}

func (c *Client) wrap(err error) error {
	var statusErr *resilience.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %w", weather.ErrNoDataForAirport, err)
	}
	return fmt.Errorf("%w: %w", weather.ErrProviderUnavailable, err)
}

// worstOnDay picks the highest risk among forecast slots falling on day.
func worstOnDay(code string, slots []*weather.Observation, day string) *weather.Risk {
	var worst *weather.Risk
	for _, obs := range slots {
		if obs.ObservedAt.UTC().Format(time.DateOnly) != day {
			continue
		}
		r := weather.RiskFromObservation(code, obs)
		if worst == nil || r.Score > worst.Score {
			worst = r
		}
	}
	return worst
}

func toObservation(resp *currentWeatherResponse) *weather.Observation {
	obs := &weather.Observation{
		Lat:         resp.Coord.Lat,
		Lon:         resp.Coord.Lon,
		Temperature: resp.Main.Temp,
		WindSpeed:   resp.Wind.Speed,
		WindGust:    resp.Wind.Gust,
		Visibility:  float64(resp.Visibility),
		ObservedAt:  time.Unix(resp.Dt, 0).UTC(),
		Condition:   weather.ConditionUnknown,
	}

	if len(resp.Weather) > 0 {
		obs.Condition = mapCondition(resp.Weather[0].Main)
		obs.Description = resp.Weather[0].Description
	}

	return obs
}

// mapCondition maps an OpenWeatherMap condition group to a domain condition.
func mapCondition(owmCondition string) weather.Condition {
	switch owmCondition {
	case "Clear":
		return weather.ConditionClear
	case "Clouds":
		return weather.ConditionClouds
	case "Rain":
		return weather.ConditionRain
	case "Drizzle":
		return weather.ConditionDrizzle
	case "Thunderstorm":
		return weather.ConditionThunderstorm
	case "Snow":
		return weather.ConditionSnow
	case "Mist":
		return weather.ConditionMist
	case "Fog":
		return weather.ConditionFog
	case "Squall", "Tornado", "Ash":
		return weather.ConditionSevere
	case "Haze", "Dust", "Sand", "Smoke":
		return weather.ConditionHaze
	default:
		return weather.ConditionUnknown
	}
}

// OpenWeatherMap API response structures.

type currentWeatherResponse struct {
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Weather []struct {
		ID          int    `json:"id"`
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Visibility int `json:"visibility"`
	Wind       struct {
		Speed float64 `json:"speed"`
		Gust  float64 `json:"gust"`
	} `json:"wind"`
	Dt int64 `json:"dt"`
}

type forecastResponse struct {
	List []currentWeatherResponse `json:"list"`
}
