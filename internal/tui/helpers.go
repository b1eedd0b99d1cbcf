package tui

import (
	"strings"
	"time"
)

// Truncate shortens a string to max runes with ellipsis
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// Bar renders value against max as a fixed-width gauge
func Bar(value, max float64, width int) string {
	filled := 0
	if max > 0 {
		filled = int(value / max * float64(width))
	}
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// FormatDay shows a date as its local calendar day, or "-" when unset
func FormatDay(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("Jan 2")
}
