package parse

import (
	"strings"
	"time"
)

// Layouts observed across the vendor exports. Date-only cells parse to
// midnight; bare clock cells are rejected here because they carry no date.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006-01-02",
	"02.01.2006",
	"Jan 2, 2006 3:04:05 PM",
	"2 Jan 2006 15:04:05",
	"2 Jan 2006 15:04",
}

// ParseTimestamp parses a vendor date/time cell. The second return is false
// when no known layout matched.
func ParseTimestamp(cell string) (time.Time, bool) {
	text := strings.TrimSpace(cell)
	if text == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// LooksLikeTime reports whether a cell plausibly holds a timestamp. Used by
// the heuristic HTML row scan when no header could be located.
func LooksLikeTime(cell string) bool {
	if _, ok := ParseTimestamp(cell); ok {
		return true
	}
	text := strings.TrimSpace(cell)
	// bare clock, e.g. "09:15" or "09:15:30"
	if len(text) >= 4 && len(text) <= 8 && strings.Count(text, ":") >= 1 {
		if _, err := time.Parse("15:04:05", text); err == nil {
			return true
		}
		if _, err := time.Parse("15:04", text); err == nil {
			return true
		}
	}
	return false
}
