package model

import (
	"strings"
	"time"
)

// DateLayout is the calendar-day format used by forms and flags
const DateLayout = "2006-01-02"

// ParseDate parses an RFC3339 timestamp or a plain calendar day.
// Layouts without a zone are read in local time, so a calendar day starts
// at local midnight. Empty or unparsable input yields nil, which callers
// treat as "absent".
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	for _, layout := range []string{"2006-01-02 15:04:05", DateLayout} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &t
		}
	}
	return nil
}

// FormatDate renders an optional date for storage, empty when absent
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// EndOfDay moves t to the last instant of its calendar day
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
