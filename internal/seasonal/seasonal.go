// Package seasonal derives a travel-date risk contribution from seasons,
// moving holidays, weekdays and peak months.
package seasonal

import "time"

// Season of the travel date.
type Season string

const (
	SeasonWinter Season = "winter"
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonFall   Season = "fall"
)

// Holiday identifies a holiday travel window.
type Holiday string

const (
	HolidayNone         Holiday = ""
	HolidayChristmas    Holiday = "christmas_new_year"
	HolidayThanksgiving Holiday = "thanksgiving"
	HolidayIndependence Holiday = "independence_day"
	HolidayMemorialDay  Holiday = "memorial_day"
	HolidayLaborDay     Holiday = "labor_day"
	HolidaySpringBreak  Holiday = "spring_break"
)

const (
	weekendAddition = 5
	peakAddition    = 8
)

type seasonProfile struct {
	base    float64
	factors []string
}

var seasons = map[Season]seasonProfile{
	SeasonWinter: {15, []string{
		"Winter storms and de-icing can delay departures",
		"Snow and ice reduce airport capacity",
	}},
	SeasonSpring: {12, []string{
		"Spring thunderstorms can disrupt schedules",
		"Variable weather patterns",
	}},
	SeasonSummer: {18, []string{
		"Afternoon thunderstorms cause ground stops",
		"High summer passenger volumes",
	}},
	SeasonFall: {10, []string{
		"Generally stable fall weather",
	}},
}

type holidayWindow struct {
	holiday    Holiday
	delta      float64
	multiplier float64
	label      string
	contains   func(d time.Time) bool
}

// Ordered by priority. Only the first match compounds.
var holidayWindows = []holidayWindow{
	{
		holiday: HolidayChristmas, delta: 25, multiplier: 1.6,
		label: "Christmas and New Year holiday travel peak",
		contains: func(d time.Time) bool {
			return within(d, date(d.Year(), time.December, 20), date(d.Year(), time.December, 31)) ||
				within(d, date(d.Year(), time.January, 1), date(d.Year(), time.January, 5))
		},
	},
	{
		holiday: HolidayThanksgiving, delta: 20, multiplier: 1.5,
		label: "Thanksgiving week travel rush",
		contains: func(d time.Time) bool {
			t := Thanksgiving(d.Year())
			return within(d, t.AddDate(0, 0, -1), t.AddDate(0, 0, 3))
		},
	},
	{
		holiday: HolidayIndependence, delta: 15, multiplier: 1.3,
		label: "Independence Day week travel",
		contains: func(d time.Time) bool {
			return within(d, date(d.Year(), time.July, 1), date(d.Year(), time.July, 7))
		},
	},
	{
		holiday: HolidayMemorialDay, delta: 12, multiplier: 1.2,
		label: "Memorial Day weekend travel",
		contains: func(d time.Time) bool {
			m := MemorialDay(d.Year())
			return within(d, m.AddDate(0, 0, -3), m.AddDate(0, 0, 3))
		},
	},
	{
		holiday: HolidayLaborDay, delta: 12, multiplier: 1.2,
		label: "Labor Day weekend travel",
		contains: func(d time.Time) bool {
			l := LaborDay(d.Year())
			return within(d, l.AddDate(0, 0, -3), l.AddDate(0, 0, 3))
		},
	},
	{
		holiday: HolidaySpringBreak, delta: 15, multiplier: 1.3,
		label: "Spring break travel period",
		contains: func(d time.Time) bool {
			return within(d, date(d.Year(), time.March, 8), date(d.Year(), time.April, 15))
		},
	},
}

// Context is the seasonal risk contribution for a travel date.
type Context struct {
	Season            Season
	Holiday           Holiday
	HolidayMultiplier float64
	IsWeekend         bool
	IsPeakMonth       bool

	// BaseScore is the season's base before additions and multiplier.
	BaseScore float64

	// Score is (base + additions) × multiplier.
	Score float64

	// Factors are human-readable seasonal factors, most specific first.
	Factors []string
}

// SeasonOf returns the meteorological season for a month.
func SeasonOf(m time.Month) Season {
	switch m {
	case time.December, time.January, time.February:
		return SeasonWinter
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	default:
		return SeasonFall
	}
}

// Calculate derives the seasonal context for a travel date.
func Calculate(travelDate time.Time) Context {
	d := civil(travelDate)
	season := SeasonOf(d.Month())
	profile := seasons[season]

	ctx := Context{
		Season:            season,
		HolidayMultiplier: 1.0,
		BaseScore:         profile.base,
	}

	score := profile.base
	var factors []string

	for _, w := range holidayWindows {
		if w.contains(d) {
			ctx.Holiday = w.holiday
			ctx.HolidayMultiplier = w.multiplier
			score += w.delta
			factors = append(factors, w.label)
			break
		}
	}

	switch d.Weekday() {
	case time.Friday, time.Saturday, time.Sunday:
		ctx.IsWeekend = true
		score += weekendAddition
		factors = append(factors, "Weekend travel demand")
	}

	switch d.Month() {
	case time.July, time.August, time.December:
		ctx.IsPeakMonth = true
		score += peakAddition
		factors = append(factors, "Peak travel month")
	}

	ctx.Score = score * ctx.HolidayMultiplier
	ctx.Factors = append(factors, profile.factors...)
	return ctx
}
