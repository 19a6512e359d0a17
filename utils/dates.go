package utils

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts YYYY-MM-DD or a full RFC3339 timestamp.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", raw)
	}
	return DateOnly(t), nil
}

// NightsBetween counts calendar days from in to out.
func NightsBetween(in, out time.Time) int {
	return int(DateOnly(out).Sub(DateOnly(in)).Hours() / 24)
}

// EachDate calls fn for every day in [from, to). The checkout day is not visited.
func EachDate(from, to time.Time, fn func(day time.Time) error) error {
	end := DateOnly(to)
	for d := DateOnly(from); d.Before(end); d = d.AddDate(0, 0, 1) {
		if err := fn(d); err != nil {
			return err
		}
	}
	return nil
}

// DatesInRange lists the days of [from, to).
func DatesInRange(from, to time.Time) []time.Time {
	var out []time.Time
	_ = EachDate(from, to, func(d time.Time) error {
		out = append(out, d)
		return nil
	})
	return out
}

// MonthBounds returns [first day of month, first day of next month).
func MonthBounds(month, year int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
