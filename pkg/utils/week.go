package utils

import "time"

// ISOWeek returns the ISO-8601 week-year and week number for t.
func ISOWeek(t time.Time) (year, week int) {
	return t.ISOWeek()
}

// PreviousISOWeek returns the ISO week that is offset weeks before t.
func PreviousISOWeek(t time.Time, offset int) (year, week int) {
	return t.AddDate(0, 0, -7*offset).ISOWeek()
}

// ISOWeekStart returns the Monday starting the given ISO week, at midnight
// UTC.
func ISOWeekStart(year, week int) time.Time {
	// Jan 4 is always in ISO week 1 of its week-year.
	t := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)

	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	monday := t.AddDate(0, 0, 1-weekday)

	return monday.AddDate(0, 0, (week-1)*7)
}

// ValidISOWeek reports whether week is a valid week number for the ISO
// week-year.
func ValidISOWeek(year, week int) bool {
	if week < 1 || week > 53 {
		return false
	}
	if week <= 52 {
		return true
	}
	// Week 53 exists only in long years.
	y, w := ISOWeekStart(year, 53).ISOWeek()
	return y == year && w == 53
}
