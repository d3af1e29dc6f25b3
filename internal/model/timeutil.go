package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout wire format of dates.
const DateLayout = "2006-01-02"

// DaysInWeek days of a schedule week, Monday first.
const DaysInWeek = 7

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses "2006-01-02".
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// WeekStart the Monday on or before t.
func WeekStart(t time.Time) time.Time {
	d := DateOnly(t)
	return d.AddDate(0, 0, -DayIndex(d))
}

// DayIndex 0 for Monday through 6 for Sunday.
func DayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// IsMonday reports whether t falls on a Monday.
func IsMonday(t time.Time) bool {
	return t.Weekday() == time.Monday
}

// ParseClock parses "HH:MM" or "HH:MM:SS" into minutes after midnight.
// "24:00" is accepted as end of day.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes after midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
