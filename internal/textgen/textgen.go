// Package textgen calls an external text-generation service used to phrase
// explanations and batch layover assessments.
package textgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/flightrisk/flightrisk/internal/provider/resilience"
)

// ProviderName identifies the text-generation service in the provider registry.
const ProviderName = "textgen"

// Errors returned by generators.
var (
	ErrNotConfigured = errors.New("text generation not configured")
	ErrEmptyResponse = errors.New("empty text generation response")
	ErrNoJSON        = errors.New("no JSON object in text")
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ClientConfig holds configuration for the HTTP text-generation client.
type ClientConfig struct {
	// URL is the completion endpoint (required).
	URL string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// MaxTokens bounds the response length (default: 800).
	MaxTokens int

	// Temperature controls sampling (default: 0.2).
	Temperature float64

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with a 20 second timeout.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Generator backed by an HTTP completion endpoint.
type Client struct {
	url         string
	apiKey      string
	maxTokens   int
	temperature float64
	httpClient  *resilience.Client
	logger      zerolog.Logger
}

type completionRequest struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type completionResponse struct {
	Text string `json:"text"`
}

// NewClient creates a new text-generation client.
func NewClient(cfg ClientConfig) *Client {
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 800
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.2
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		rc := resilience.DefaultClientConfig(ProviderName)
		rc.Timeout = 20 * time.Second
		rc.MaxRetries = 1
		httpClient = resilience.NewClient(rc)
	}

	return &Client{
		url:         cfg.URL,
		apiKey:      cfg.APIKey,
		maxTokens:   maxTokens,
		temperature: temperature,
		httpClient:  httpClient,
		logger:      cfg.Logger,
	}
}

// Generate sends the prompt and returns the generated text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.url == "" {
		return "", ErrNotConfigured
	}

	headers := map[string]string{}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}

	start := time.Now()
	var resp completionResponse
	err := c.httpClient.PostJSON(ctx, c.url, headers, completionRequest{
		Prompt:      prompt,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}, &resp)
	if err != nil {
		c.logger.Warn().Err(err).
			Dur("duration", time.Since(start)).
			Msg("text generation request failed")
		return "", fmt.Errorf("generating text: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrEmptyResponse
	}

	c.logger.Debug().
		Int("prompt_chars", len(prompt)).
		Int("response_chars", len(text)).
		Dur("duration", time.Since(start)).
		Msg("text generated")

	return text, nil
}

// ExtractJSON returns the outermost JSON object in text, tolerating code
// fences and prose around it.
func ExtractJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", ErrNoJSON
	}
	return text[start : end+1], nil
}
