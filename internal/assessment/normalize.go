package assessment

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/flightrisk/flightrisk/internal/airport"
	"github.com/flightrisk/flightrisk/internal/duration"
	"github.com/flightrisk/flightrisk/internal/layover"
)

// ErrInvalidRequest is returned when a request cannot be normalized.
var ErrInvalidRequest = errors.New("invalid assessment request")

// DateLayout is the travel date format.
const DateLayout = "2006-01-02"

// MaxLayovers bounds the connections in one itinerary.
const MaxLayovers = 10

var (
	airlineCodePattern  = regexp.MustCompile(`^[A-Z0-9]{2,3}$`)
	airportCodePattern  = regexp.MustCompile(`^[A-Z]{3,4}$`)
	flightNumberPattern = regexp.MustCompile(`^[A-Z0-9]{1,3}?[0-9]{1,5}[A-Z]?$`)
)

// Request is an itinerary to assess.
type Request struct {
	AirlineCode  string         `json:"airline_code"`
	FlightNumber string         `json:"flight_number"`
	Origin       string         `json:"origin"`
	Destination  string         `json:"destination"`
	Date         string         `json:"date"`
	Layovers     []LayoverInput `json:"layovers,omitempty"`
}

// LayoverInput is one connection as supplied by the caller.
// Duration accepts the forms understood by duration.Parse.
type LayoverInput struct {
	AirportCode string `json:"airport_code"`
	Duration    string `json:"duration"`
}

// FlightLeg identifies the flight being assessed.
type FlightLeg struct {
	AirlineCode  string
	FlightNumber string
	Origin       string
	Destination  string
	Date         time.Time
}

// Itinerary is a normalized request.
type Itinerary struct {
	Leg         FlightLeg
	Connections []layover.Connection
}

// FieldError reports an invalid request field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError collects every invalid field of a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return fmt.Sprintf("%s: %s", ErrInvalidRequest, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

// Normalize validates a request and converts it to the canonical itinerary.
// Codes are upper-cased and trimmed, the flight number carries the airline
// prefix, and layover durations are parsed once.
func Normalize(req Request) (Itinerary, error) {
	verr := &ValidationError{}

	airline := airport.NormalizeCode(req.AirlineCode)
	if !airlineCodePattern.MatchString(airline) {
		verr.add("airline_code", "must be a 2 or 3 character airline code")
	}

	flight := NormalizeFlightNumber(airline, req.FlightNumber)
	if !flightNumberPattern.MatchString(flight) {
		verr.add("flight_number", "must be a flight number such as UA123 or 123")
	}

	origin := airport.NormalizeCode(req.Origin)
	if !airportCodePattern.MatchString(origin) {
		verr.add("origin", "must be an airport code")
	}
	dest := airport.NormalizeCode(req.Destination)
	if !airportCodePattern.MatchString(dest) {
		verr.add("destination", "must be an airport code")
	}

	date, err := time.Parse(DateLayout, strings.TrimSpace(req.Date))
	if err != nil {
		verr.add("date", "must be formatted as YYYY-MM-DD")
	}

	if len(req.Layovers) > MaxLayovers {
		verr.add("layovers", fmt.Sprintf("at most %d layovers are supported", MaxLayovers))
	}

	var conns []layover.Connection
	for i, l := range req.Layovers {
		code := airport.NormalizeCode(l.AirportCode)
		if !airportCodePattern.MatchString(code) {
			verr.add(fmt.Sprintf("layovers[%d].airport_code", i), "must be an airport code")
			continue
		}
		d := duration.Parse(l.Duration)
		conns = append(conns, layover.Connection{
			AirportCode:       code,
			DurationMinutes:   d.Minutes,
			DurationEstimated: d.Estimated,
		})
	}

	if len(verr.Fields) > 0 {
		return Itinerary{}, verr
	}

	return Itinerary{
		Leg: FlightLeg{
			AirlineCode:  airline,
			FlightNumber: flight,
			Origin:       origin,
			Destination:  dest,
			Date:         date,
		},
		Connections: conns,
	}, nil
}

// NormalizeFlightNumber returns the flight number with the airline prefix,
// so "123", "ua123" and "UA 123" all become "UA123".
func NormalizeFlightNumber(airline, number string) string {
	n := strings.ToUpper(strings.Join(strings.Fields(number), ""))
	if n == "" || airline == "" {
		return n
	}
	if strings.HasPrefix(n, airline) {
		return n
	}
	if n[0] >= '0' && n[0] <= '9' {
		return airline + n
	}
	return n
}
