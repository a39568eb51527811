package airport

import (
	"context"
	"errors"
	"fmt"
)

// Complexity errors.
var (
	ErrProviderUnavailable = errors.New("airport complexity provider unavailable")
	ErrUnknownAirport      = errors.New("unknown airport")
)

// ComplexityLevel is the operational complexity of an airport.
type ComplexityLevel string

const (
	ComplexityLow    ComplexityLevel = "low"
	ComplexityMedium ComplexityLevel = "medium"
	ComplexityHigh   ComplexityLevel = "high"
)

// Valid reports whether the level is one of the known values.
func (l ComplexityLevel) Valid() bool {
	switch l {
	case ComplexityLow, ComplexityMedium, ComplexityHigh:
		return true
	default:
		return false
	}
}

// Complexity describes how hard an airport is to operate through.
type Complexity struct {
	Airport     string
	Level       ComplexityLevel
	Description string
	Concerns    []string
}

// ComplexityProvider fetches airport complexity.
type ComplexityProvider interface {
	// GetComplexity returns the complexity of an airport.
	GetComplexity(ctx context.Context, code string) (*Complexity, error)

	// Name returns the provider name for logging.
	Name() string
}

// StaticProvider derives complexity from tier membership.
type StaticProvider struct {
	overrides map[string]*Complexity
}

// NewStaticProvider creates a tier-based complexity provider.
// Overrides replace the derived complexity for specific airports.
func NewStaticProvider(overrides ...*Complexity) *StaticProvider {
	p := &StaticProvider{overrides: make(map[string]*Complexity, len(overrides))}
	for _, o := range overrides {
		p.overrides[NormalizeCode(o.Airport)] = o
	}
	return p
}

// Name returns the provider name.
func (p *StaticProvider) Name() string {
	return "static"
}

// GetComplexity returns the complexity for an airport.
func (p *StaticProvider) GetComplexity(_ context.Context, code string) (*Complexity, error) {
	c := NormalizeCode(code)
	if c == "" {
		return nil, fmt.Errorf("%w: empty code", ErrUnknownAirport)
	}
	if o, ok := p.overrides[c]; ok {
		cp := *o
		cp.Airport = c
		return &cp, nil
	}

	switch TierFor(c) {
	case TierMajorHub:
		return &Complexity{
			Airport:     c,
			Level:       ComplexityHigh,
			Description: "Major international hub with multiple terminals and heavy traffic",
			Concerns: []string{
				"Inter-terminal transfers may require a train or shuttle",
				"Long security and immigration queues at peak times",
				"Frequent ground delays during congestion",
			},
		}, nil
	case TierLargeHub:
		return &Complexity{
			Airport:     c,
			Level:       ComplexityMedium,
			Description: "Large hub with moderate connection complexity",
			Concerns: []string{
				"Gate changes are common",
				"Walking distances between concourses",
			},
		}, nil
	default:
		return &Complexity{
			Airport:     c,
			Level:       ComplexityLow,
			Description: "Standard airport with straightforward connections",
		}, nil
	}
}
