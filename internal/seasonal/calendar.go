package seasonal

import "time"

// civil truncates t to a UTC calendar date so comparisons ignore clock and zone.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// nthWeekday returns the nth (1-based) occurrence of weekday in the month.
func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	first := date(year, month, 1)
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+7*(n-1))
}

// lastWeekday returns the last occurrence of weekday in the month.
func lastWeekday(year int, month time.Month, weekday time.Weekday) time.Time {
	last := date(year, month+1, 0)
	offset := (int(last.Weekday()) - int(weekday) + 7) % 7
	return last.AddDate(0, 0, -offset)
}

// Thanksgiving returns US Thanksgiving, the fourth Thursday of November.
func Thanksgiving(year int) time.Time {
	return nthWeekday(year, time.November, time.Thursday, 4)
}

// MemorialDay returns US Memorial Day, the last Monday of May.
func MemorialDay(year int) time.Time {
	return lastWeekday(year, time.May, time.Monday)
}

// LaborDay returns US Labor Day, the first Monday of September.
func LaborDay(year int) time.Time {
	return nthWeekday(year, time.September, time.Monday, 1)
}

// within reports whether d lies in [from, to], all as civil dates.
func within(d, from, to time.Time) bool {
	return !d.Before(from) && !d.After(to)
}
