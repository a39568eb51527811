// Package history provides historical on-time and cancellation statistics
// for flights and routes.
package history

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNoData is returned when no records match a query.
var ErrNoData = errors.New("no historical data")

// OnTimeThresholdMinutes is the departure delay at or under which a flight counts as on time.
const OnTimeThresholdMinutes = 15

// Reliability grades how much weight the statistics can bear.
type Reliability string

const (
	ReliabilityHigh        Reliability = "high"
	ReliabilityMedium      Reliability = "medium"
	ReliabilityLow         Reliability = "low"
	ReliabilityUnavailable Reliability = "unavailable"
)

// ReliabilityFor grades a sample size.
func ReliabilityFor(totalFlights int) Reliability {
	switch {
	case totalFlights >= 100:
		return ReliabilityHigh
	case totalFlights >= 30:
		return ReliabilityMedium
	case totalFlights > 0:
		return ReliabilityLow
	default:
		return ReliabilityUnavailable
	}
}

// Performance summarizes historical outcomes. Rates are percentages in [0, 100].
type Performance struct {
	TotalFlights     int
	CancellationRate float64
	AvgDelayMinutes  float64
	OnTimePercent    float64
	Reliability      Reliability
}

// Available reports whether the statistics come from at least one flight.
func (p *Performance) Available() bool {
	return p != nil && p.TotalFlights > 0
}

// Unavailable returns the placeholder used when no history exists.
func Unavailable() *Performance {
	return &Performance{Reliability: ReliabilityUnavailable}
}

// Query selects the flights to summarize. FlightNumber is optional; when set
// and matching rows exist, the flight-level statistics are used, otherwise
// the route-level statistics for the airline.
type Query struct {
	Airline      string
	FlightNumber string
	Origin       string
	Destination  string

	// Since limits records to flight dates on or after this day (optional).
	Since time.Time
}

// Normalize upper-cases and trims the codes.
func (q Query) Normalize() Query {
	q.Airline = strings.ToUpper(strings.TrimSpace(q.Airline))
	q.FlightNumber = strings.ToUpper(strings.TrimSpace(q.FlightNumber))
	q.Origin = strings.ToUpper(strings.TrimSpace(q.Origin))
	q.Destination = strings.ToUpper(strings.TrimSpace(q.Destination))
	return q
}

// Provider returns historical performance for a query.
type Provider interface {
	GetPerformance(ctx context.Context, q Query) (*Performance, error)
}

// FlightRecord is a single operated (or cancelled) flight.
type FlightRecord struct {
	Airline      string
	FlightNumber string
	Origin       string
	Destination  string
	FlightDate   time.Time
	Cancelled    bool

	// DepartureDelayMinutes is negative for early departures and ignored when cancelled.
	DepartureDelayMinutes int
}

// tally accumulates the counters every backend produces.
type tally struct {
	total          int
	cancelled      int
	onTime         int
	delayMinutes   float64
	operatedFlight int
}

func (t *tally) add(r FlightRecord) {
	t.total++
	if r.Cancelled {
		t.cancelled++
		return
	}
	t.operatedFlight++
	if r.DepartureDelayMinutes <= OnTimeThresholdMinutes {
		t.onTime++
	}
	if r.DepartureDelayMinutes > 0 {
		t.delayMinutes += float64(r.DepartureDelayMinutes)
	}
}

func (t tally) performance() *Performance {
	if t.total == 0 {
		return Unavailable()
	}
	p := &Performance{
		TotalFlights:     t.total,
		CancellationRate: 100 * float64(t.cancelled) / float64(t.total),
		OnTimePercent:    100 * float64(t.onTime) / float64(t.total),
		Reliability:      ReliabilityFor(t.total),
	}
	if t.operatedFlight > 0 {
		p.AvgDelayMinutes = t.delayMinutes / float64(t.operatedFlight)
	}
	return p
}

// Summarize computes performance over a set of records.
func Summarize(records []FlightRecord) *Performance {
	var t tally
	for _, r := range records {
		t.add(r)
	}
	return t.performance()
}
