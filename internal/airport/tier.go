// Package airport classifies airports into operational tiers and provides
// cached airport complexity signals.
package airport

import "strings"

// Tier is the operational tier of an airport.
type Tier string

const (
	TierMajorHub Tier = "major_hub"
	TierLargeHub Tier = "large_hub"
	TierStandard Tier = "standard"
)

// ConnectionClass classifies a connection duration against tier thresholds.
type ConnectionClass string

const (
	ConnectionTight    ConnectionClass = "tight"
	ConnectionStandard ConnectionClass = "standard"
	ConnectionPlenty   ConnectionClass = "plenty_of_time"
)

// Thresholds are the connection time thresholds for a tier, in minutes.
type Thresholds struct {
	// Tight is the duration below which a connection is tight.
	Tight int

	// Reasonable is the duration at or above which a connection has plenty of time.
	Reasonable int
}

// TierProfile holds everything a tier implies for connection scoring.
type TierProfile struct {
	Tier       Tier
	Thresholds Thresholds

	// DurationMultiplier scales the duration-based connection penalty.
	DurationMultiplier float64

	// MissedMultiplier scales the per-minute missed-connection penalty.
	MissedMultiplier float64
}

var profiles = map[Tier]TierProfile{
	TierMajorHub: {
		Tier:               TierMajorHub,
		Thresholds:         Thresholds{Tight: 90, Reasonable: 240},
		DurationMultiplier: 1.2,
		MissedMultiplier:   2.5,
	},
	TierLargeHub: {
		Tier:               TierLargeHub,
		Thresholds:         Thresholds{Tight: 75, Reasonable: 180},
		DurationMultiplier: 1.1,
		MissedMultiplier:   2.0,
	},
	TierStandard: {
		Tier:               TierStandard,
		Thresholds:         Thresholds{Tight: 60, Reasonable: 120},
		DurationMultiplier: 1.0,
		MissedMultiplier:   1.5,
	},
}

// NormalizeCode upper-cases and trims an airport code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// TierFor returns the tier of an airport. Unknown codes are standard.
func TierFor(code string) Tier {
	c := NormalizeCode(code)
	if _, ok := majorHubs[c]; ok {
		return TierMajorHub
	}
	if _, ok := largeHubs[c]; ok {
		return TierLargeHub
	}
	return TierStandard
}

// ProfileFor returns the tier profile of an airport.
func ProfileFor(code string) TierProfile {
	return ProfileOf(TierFor(code))
}

// ProfileOf returns the profile for a tier.
func ProfileOf(t Tier) TierProfile {
	if p, ok := profiles[t]; ok {
		return p
	}
	return profiles[TierStandard]
}

// ThresholdsFor returns the connection thresholds of an airport.
func ThresholdsFor(code string) Thresholds {
	return ProfileFor(code).Thresholds
}

// IsMajorHub reports whether the airport is a major international hub.
func IsMajorHub(code string) bool {
	return TierFor(code) == TierMajorHub
}

// ClassifyConnection classifies a connection of the given length at an airport.
func ClassifyConnection(code string, minutes int) ConnectionClass {
	return ProfileFor(code).Thresholds.Classify(minutes)
}

// Classify classifies a connection duration against the thresholds.
func (t Thresholds) Classify(minutes int) ConnectionClass {
	switch {
	case minutes < t.Tight:
		return ConnectionTight
	case minutes >= t.Reasonable:
		return ConnectionPlenty
	default:
		return ConnectionStandard
	}
}
