// Package duration converts free-form layover and segment durations into minutes.
package duration

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultMinutes is returned for input that matches none of the accepted shapes.
const DefaultMinutes = 60

const (
	hourUnit   = `(?:h|hr|hrs|hour|hours)`
	minuteUnit = `(?:m|min|mins|minute|minutes)`
)

// Accepted shapes, tried in order. The first full match wins.
var patterns = []struct {
	name string
	re   *regexp.Regexp
	conv func(m []string) (int, bool)
}{
	{
		name: "hours_minutes",
		re:   regexp.MustCompile(`^(\d+)\s*` + hourUnit + `\s*(\d+)\s*` + minuteUnit + `$`),
		conv: func(m []string) (int, bool) { return hoursAndMinutes(m[1], m[2]) },
	},
	{
		name: "hours",
		re:   regexp.MustCompile(`^(\d+)\s*` + hourUnit + `$`),
		conv: func(m []string) (int, bool) { return hoursAndMinutes(m[1], "0") },
	},
	{
		name: "minutes",
		re:   regexp.MustCompile(`^(\d+)\s*` + minuteUnit + `$`),
		conv: func(m []string) (int, bool) { return hoursAndMinutes("0", m[1]) },
	},
	{
		name: "clock",
		re:   regexp.MustCompile(`^(\d+)\s*:\s*(\d{1,2})$`),
		conv: func(m []string) (int, bool) {
			mins, err := strconv.Atoi(m[2])
			if err != nil || mins >= 60 {
				return 0, false
			}
			return hoursAndMinutes(m[1], m[2])
		},
	},
	{
		name: "bare",
		re:   regexp.MustCompile(`^(\d+)$`),
		conv: func(m []string) (int, bool) { return hoursAndMinutes("0", m[1]) },
	},
}

// Result is a parsed duration.
type Result struct {
	// Minutes is the parsed duration, or DefaultMinutes when Estimated.
	Minutes int

	// Estimated is true when the input could not be parsed.
	Estimated bool
}

// String renders the result for display, marking estimated values.
func (r Result) String() string {
	s := Format(r.Minutes)
	if r.Estimated {
		return s + " (estimated)"
	}
	return s
}

// Parse converts text such as "4h 38m", "2h", "90m", "1:30" or "45" into minutes.
// It never fails: unrecognized input yields DefaultMinutes flagged as estimated.
func Parse(s string) Result {
	text := strings.ToLower(strings.TrimSpace(s))
	if text == "" {
		return estimated()
	}

	for _, p := range patterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		mins, ok := p.conv(m)
		if !ok {
			return estimated()
		}
		return Result{Minutes: mins}
	}

	return estimated()
}

// Minutes is a convenience wrapper returning only the minute count.
func Minutes(s string) int {
	return Parse(s).Minutes
}

// Format renders minutes as "<h>h <m>m", dropping zero parts.
func Format(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	h, m := minutes/60, minutes%60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

func estimated() Result {
	return Result{Minutes: DefaultMinutes, Estimated: true}
}

// hoursAndMinutes guards against overflow from absurdly long digit runs.
func hoursAndMinutes(hours, minutes string) (int, bool) {
	h, err := strconv.Atoi(hours)
	if err != nil || h > 10_000 {
		return 0, false
	}
	m, err := strconv.Atoi(minutes)
	if err != nil || m > 1_000_000 {
		return 0, false
	}
	return h*60 + m, true
}
