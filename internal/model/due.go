package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidDue = errors.New("model: invalid due date")

const defaultDueClock = 9 * time.Hour

var dueLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseDue interprets user input relative to now. Dates without a clock
// time resolve to 09:00 in now's location.
func ParseDue(raw string, now time.Time) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDue)
	}
	loc := now.Location()

	if strings.HasPrefix(s, "+") {
		d, err := time.ParseDuration(s[1:])
		if err != nil || d <= 0 {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDue, raw)
		}
		return now.Add(d).Truncate(time.Minute), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range dueLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		y, m, d := t.Date()
		return AtClock(y, m, d, defaultDueClock, loc), nil
	}

	fields := strings.Fields(strings.ToLower(s))
	y, m, d := now.Date()
	switch fields[0] {
	case "today":
	case "tomorrow":
		d++
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDue, raw)
	}
	if len(fields) == 1 {
		return AtClock(y, m, d, defaultDueClock, loc), nil
	}
	clock, err := time.Parse("15:04", fields[1])
	if err != nil || len(fields) > 2 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDue, raw)
	}
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, loc), nil
}

// AtClock returns the wall-clock time of day on the given date. Day
// overflow normalizes as in time.Date.
func AtClock(y int, m time.Month, d int, clock time.Duration, loc *time.Location) time.Time {
	return time.Date(y, m, d, int(clock/time.Hour), int(clock%time.Hour/time.Minute), 0, 0, loc)
}
