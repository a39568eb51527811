// Package worker warms provider caches in the background for FlightRisk.
package worker

import (
	"sort"
	"strings"
	"time"

	"github.com/flightrisk/flightrisk/internal/airport"
)

// RefreshTarget is a group of airports refreshed together.
type RefreshTarget struct {
	// Name is the human-readable name of the target.
	Name string

	// Airports are IATA codes.
	Airports []string

	// Priority determines refresh order (lower = higher priority).
	Priority int
}

// RefreshConfig holds configuration for the weather refresh job.
type RefreshConfig struct {
	// Targets are the airport groups to refresh.
	// If empty, uses DefaultRefreshTargets.
	Targets []RefreshTarget

	// Concurrency is the number of concurrent refresh operations.
	// Default: 4
	Concurrency int

	// Timeout bounds each airport/day refresh.
	// Default: 30 seconds
	Timeout time.Duration

	// Days is how many days, starting today, are refreshed per airport.
	// Default: 2 (today and tomorrow)
	Days int
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Targets:     DefaultRefreshTargets(),
		Concurrency: 4,
		Timeout:     30 * time.Second,
		Days:        2,
	}
}

// DefaultRefreshTargets returns the major hubs, which carry the most
// connections and therefore the most layover lookups.
func DefaultRefreshTargets() []RefreshTarget {
	hubs := airport.MajorHubs()
	sort.Strings(hubs)
	return []RefreshTarget{
		{Name: "major-hubs", Airports: hubs, Priority: 1},
	}
}

// TargetsFromList builds a single target from a comma-separated list of
// airport codes, as read from the environment. Invalid entries are skipped.
func TargetsFromList(list string) []RefreshTarget {
	var codes []string
	for _, part := range strings.Split(list, ",") {
		code := airport.NormalizeCode(part)
		if len(code) == 3 {
			codes = append(codes, code)
		}
	}
	if len(codes) == 0 {
		return nil
	}
	return []RefreshTarget{{Name: "configured", Airports: codes, Priority: 1}}
}

// withDefaults fills zero fields from DefaultRefreshConfig.
func (c RefreshConfig) withDefaults() RefreshConfig {
	def := DefaultRefreshConfig()
	if len(c.Targets) == 0 {
		c.Targets = def.Targets
	}
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.Days <= 0 {
		c.Days = def.Days
	}
	return c
}

// AllAirports returns every airport once, ordered by target priority.
func (c RefreshConfig) AllAirports() []string {
	targets := make([]RefreshTarget, len(c.Targets))
	copy(targets, c.Targets)
	sort.SliceStable(targets, func(i, j int) bool { return targets[i].Priority < targets[j].Priority })

	seen := make(map[string]struct{})
	var codes []string
	for _, t := range targets {
		for _, code := range t.Airports {
			code = airport.NormalizeCode(code)
			if _, ok := seen[code]; ok || code == "" {
				continue
			}
			seen[code] = struct{}{}
			codes = append(codes, code)
		}
	}
	return codes
}

// TotalAirports returns the number of distinct airports to refresh.
func (c RefreshConfig) TotalAirports() int {
	return len(c.AllAirports())
}
