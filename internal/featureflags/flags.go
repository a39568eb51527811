// Package featureflags provides runtime switches for degrading the risk pipeline.
package featureflags

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Well-known feature flag keys.
const (
	// FlagNarrativeExplanationsDisabled skips the text-generation call and
	// always uses the deterministic explanation.
	FlagNarrativeExplanationsDisabled = "narrative_explanations_disabled"

	// FlagLayoverBatchAnalysisDisabled skips the batch feasibility call and
	// uses duration-based fallback verdicts for every layover.
	FlagLayoverBatchAnalysisDisabled = "layover_batch_analysis_disabled"

	// FlagWeatherCachedOnly serves weather risk from cache only.
	FlagWeatherCachedOnly = "weather_cached_only"
)

// Validation errors for flag updates.
var (
	ErrUnknownFlag      = errors.New("unknown feature flag")
	ErrInvalidFlagValue = errors.New("invalid feature flag value")
)

// Flag represents a feature flag with its current value.
type Flag struct {
	Key       string    `json:"key"`
	Value     any       `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FlagList represents a list of feature flags.
type FlagList struct {
	Items []Flag `json:"items"`
}

// FlagUpdate represents a single flag update request.
type FlagUpdate struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// FlagUpdateRequest represents a request to update feature flags.
type FlagUpdateRequest struct {
	Updates []FlagUpdate `json:"updates"`
	Reason  string       `json:"reason"`
}

// Validate checks that every update targets a known flag with a boolean value.
func (r *FlagUpdateRequest) Validate() error {
	if len(r.Updates) == 0 {
		return fmt.Errorf("%w: no updates", ErrInvalidFlagValue)
	}
	known := DefaultFlags()
	for _, u := range r.Updates {
		if _, ok := known[u.Key]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownFlag, u.Key)
		}
		if _, ok := u.Value.(bool); !ok {
			return fmt.Errorf("%w: %q must be a boolean", ErrInvalidFlagValue, u.Key)
		}
	}
	return nil
}

// BoolValue returns the flag value as a boolean.
// Returns the default value if the flag is nil or not a boolean.
func (f *Flag) BoolValue(defaultValue bool) bool {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case bool:
		return v
	case float64:
		// JSON unmarshals numbers as float64
		return v != 0
	default:
		return defaultValue
	}
}

// StringValue returns the flag value as a string.
func (f *Flag) StringValue(defaultValue string) string {
	if f == nil {
		return defaultValue
	}
	if v, ok := f.Value.(string); ok {
		return v
	}
	return defaultValue
}

// JSONValue unmarshals the flag value into target.
func (f *Flag) JSONValue(target any) error {
	if f == nil {
		return nil
	}
	data, err := json.Marshal(f.Value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

func (f *Flag) clone() *Flag {
	return &Flag{Key: f.Key, Value: f.Value, UpdatedAt: f.UpdatedAt}
}

// DefaultFlags returns the default feature flags. Every flag defaults to off.
func DefaultFlags() map[string]*Flag {
	now := time.Now()
	keys := []string{
		FlagNarrativeExplanationsDisabled,
		FlagLayoverBatchAnalysisDisabled,
		FlagWeatherCachedOnly,
	}
	flags := make(map[string]*Flag, len(keys))
	for _, k := range keys {
		flags[k] = &Flag{Key: k, Value: false, UpdatedAt: now}
	}
	return flags
}
