package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// Job types accepted on the worker subscription.
const (
	JobWeatherRefresh = "weather_refresh"
	JobCachePurge     = "cache_purge"
	JobHealthCheck    = "health_check"
)

var (
	// ErrMalformedMessage indicates a message body that is not a JobMessage.
	ErrMalformedMessage = errors.New("malformed job message")

	// ErrUnknownJobType indicates a job type the worker does not handle.
	ErrUnknownJobType = errors.New("unknown job type")
)

// JobMessage is the body of a worker Pub/Sub message.
type JobMessage struct {
	JobType string `json:"job_type"`

	// Airports restricts a weather refresh to these codes (default: all targets).
	Airports []string `json:"airports,omitempty"`
}

// JobProcessor executes job messages independently of the transport.
type JobProcessor struct {
	refreshJob *RefreshJob
	purge      func() int
	logger     zerolog.Logger
}

// ProcessorConfig holds configuration for a JobProcessor.
type ProcessorConfig struct {
	RefreshJob *RefreshJob

	// Purge drops cached assessments and returns how many were removed (optional).
	Purge func() int

	Logger zerolog.Logger
}

// NewJobProcessor creates a job processor.
func NewJobProcessor(cfg ProcessorConfig) *JobProcessor {
	return &JobProcessor{
		refreshJob: cfg.RefreshJob,
		purge:      cfg.Purge,
		logger:     cfg.Logger,
	}
}

// Process decodes and runs one job message.
func (p *JobProcessor) Process(ctx context.Context, data []byte) error {
	var msg JobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch msg.JobType {
	case JobWeatherRefresh:
		return p.handleWeatherRefresh(ctx, msg)
	case JobCachePurge:
		return p.handleCachePurge()
	case JobHealthCheck:
		return p.handleHealthCheck(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownJobType, msg.JobType)
	}
}

func (p *JobProcessor) handleWeatherRefresh(ctx context.Context, msg JobMessage) error {
	if p.refreshJob == nil {
		return errors.New("weather refresh not configured")
	}

	var result *RefreshResult
	if len(msg.Airports) > 0 {
		result = p.refreshJob.RunAirports(ctx, msg.Airports)
	} else {
		result = p.refreshJob.Run(ctx)
	}

	// Consider it successful if at least half succeeded.
	if result.Failed > result.Successful {
		return fmt.Errorf("too many refresh failures: %d/%d", result.Failed, result.Failed+result.Successful)
	}
	return nil
}

func (p *JobProcessor) handleCachePurge() error {
	if p.purge == nil {
		return errors.New("cache purge not configured")
	}
	removed := p.purge()
	p.logger.Info().Int("removed", removed).Msg("assessment cache purged")
	return nil
}

func (p *JobProcessor) handleHealthCheck(ctx context.Context) error {
	if p.refreshJob == nil || p.refreshJob.weather == nil {
		return errors.New("weather refresh not configured")
	}

	airports := p.refreshJob.config.AllAirports()
	if len(airports) == 0 {
		return errors.New("no airports configured")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := p.refreshJob.weather.Refresh(ctx, airports[0], p.refreshJob.now()); err != nil {
		return fmt.Errorf("health check failed for %s: %w", airports[0], err)
	}

	p.logger.Debug().Str("airport", airports[0]).Msg("health check passed")
	return nil
}

// PubSubHandler receives job messages from a Pub/Sub subscription.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	processor        *JobProcessor
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Processor        *JobProcessor
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	if cfg.Processor == nil {
		return nil, errors.New("pubsub handler requires a job processor")
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		processor:        cfg.Processor,
		logger:           cfg.Logger,
	}, nil
}

// Start processes messages until ctx is cancelled.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	err := h.processor.Process(ctx, msg.Data)
	switch {
	case err == nil:
		logger.Info().Dur("duration", time.Since(startTime)).Msg("job completed successfully")
		msg.Ack()
	case errors.Is(err, ErrMalformedMessage), errors.Is(err, ErrUnknownJobType):
		// Redelivery cannot fix these.
		logger.Warn().Err(err).Msg("dropping job message")
		msg.Ack()
	default:
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
	}
}
