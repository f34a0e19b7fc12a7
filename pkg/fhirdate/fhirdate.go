// Package fhirdate parses FHIR date/time strings into UTC-normalized instants
// tagged with the accuracy of the source text.
//
// The accepted grammar is YYYY(-MM(-DD(THH:MM:SS(.fraction)?(Z|±HH:MM))?)?)?.
// A time group is only accepted as a whole, zone designator included; a
// partial time is a malformed string, not a date-only value.
package fhirdate

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Accuracy describes which date/time components were textually present.
type Accuracy int

// Accuracy levels, from coarsest to finest.
const (
	Year Accuracy = iota
	YearMonth
	YearMonthDay
	YearMonthDayTime
)

// String returns the accuracy name.
func (a Accuracy) String() string {
	switch a {
	case Year:
		return "year"
	case YearMonth:
		return "year-month"
	case YearMonthDay:
		return "year-month-day"
	case YearMonthDayTime:
		return "year-month-day-time"
	default:
		return ""
	}
}

// Instant is a parsed date/time, normalized to UTC. Components not present in
// the source text hold their minimum valid value (month 1, day 1, time zero).
type Instant struct {
	// Time is the UTC instant.
	Time time.Time

	// Accuracy reflects exactly the components present in the source text.
	Accuracy Accuracy

	// LeapSecond is true when the source seconds field was 60; the stored
	// seconds value is clamped to 59.
	LeapSecond bool
}

// Parse failure classes. Parse wraps these with the offending text, so both
// errors.Is and the message identify the failure.
var (
	ErrInvalidFormat      = errors.New("invalid date format")
	ErrInvalidYear        = errors.New("invalid year")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidDayForMonth = errors.New("invalid day for month")
	ErrInvalidHours       = errors.New("invalid hours")
	ErrInvalidMinutes     = errors.New("invalid minutes")
	ErrInvalidSeconds     = errors.New("invalid seconds")
)

// dateTimePattern captures year, month, day, hour, minute, second, fractional
// seconds and zone. The time group is a single unit: hour through zone must
// appear together or not at all.
var dateTimePattern = regexp.MustCompile(
	`^(\d{1,4})(?:-(\d{2})(?:-(\d{2})(?:T(\d{2}):(\d{2}):(\d{2})(?:\.(\d+))?(Z|[+-]\d{2}:\d{2}))?)?)?$`)

// Parse parses a FHIR date/time string into a UTC Instant.
func Parse(text string) (Instant, error) {
	m := dateTimePattern.FindStringSubmatch(text)
	if m == nil {
		return Instant{}, fmt.Errorf("%w: %q", ErrInvalidFormat, text)
	}

	year := mustAtoi(m[1])
	if year == 0 {
		return Instant{}, fmt.Errorf("%w: %q", ErrInvalidYear, text)
	}

	accuracy := Year
	month, day := 1, 1
	hour, minute, second, millis := 0, 0, 0, 0
	leapSecond := false

	if m[2] != "" {
		accuracy = YearMonth
		month = mustAtoi(m[2])
		if month < 1 || month > 12 {
			return Instant{}, fmt.Errorf("%w: %q", ErrInvalidMonth, text)
		}
	}

	if m[3] != "" {
		accuracy = YearMonthDay
		day = mustAtoi(m[3])
		// The calendar engine would silently roll an out-of-range day into
		// the next month, so the bound is checked against the actual month
		// length up front.
		if day < 1 || day > daysInMonth(year, time.Month(month)) {
			return Instant{}, fmt.Errorf("%w: %q", ErrInvalidDayForMonth, text)
		}
	}

	if m[4] != "" {
		accuracy = YearMonthDayTime

		hour = mustAtoi(m[4])
		if hour > 23 {
			return Instant{}, fmt.Errorf("%w: %q", ErrInvalidHours, text)
		}
		minute = mustAtoi(m[5])
		if minute > 59 {
			return Instant{}, fmt.Errorf("%w: %q", ErrInvalidMinutes, text)
		}
		second = mustAtoi(m[6])
		if second > 60 {
			return Instant{}, fmt.Errorf("%w: %q", ErrInvalidSeconds, text)
		}
		if second == 60 {
			second = 59
			leapSecond = true
		}
		millis = parseMillis(m[7])
	}

	t := time.Date(year, time.Month(month), day, hour, minute, second, millis*int(time.Millisecond), time.UTC)

	if zone := m[8]; zone != "" && zone != "Z" {
		// The text carries a local time; UTC is local minus the offset.
		t = t.Add(-zoneOffset(zone))
	}

	return Instant{Time: t, Accuracy: accuracy, LeapSecond: leapSecond}, nil
}

// daysInMonth returns the length of a month, leap-year aware.
func daysInMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// parseMillis converts a fractional-seconds string to milliseconds. Only the
// first three digits are significant; shorter values are right-padded.
func parseMillis(frac string) int {
	if frac == "" {
		return 0
	}
	if len(frac) > 3 {
		frac = frac[:3]
	}
	for len(frac) < 3 {
		frac += "0"
	}
	return mustAtoi(frac)
}

// zoneOffset converts a signed ±HH:MM designator to a duration.
func zoneOffset(zone string) time.Duration {
	sign := time.Duration(1)
	if zone[0] == '-' {
		sign = -1
	}
	hours := time.Duration(mustAtoi(zone[1:3]))
	minutes := time.Duration(mustAtoi(zone[4:6]))
	return sign * (hours*time.Hour + minutes*time.Minute)
}

// mustAtoi parses digits already vetted by the grammar regex.
func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		panic(fmt.Sprintf("fhirdate: non-numeric match %q", s))
	}
	return n
}
