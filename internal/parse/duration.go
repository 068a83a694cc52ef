package parse

import (
	"regexp"
	"strconv"
	"strings"
)

// Vendor exports report stop durations in several shapes. The patterns are
// tried strictly in order; the clock form must win before the decimal-minute
// form so "1:23" reads as one hour twenty-three minutes.
var durationPatterns = []struct {
	re      *regexp.Regexp
	extract func(m []string) (float64, bool)
}{
	{
		// H:MM or H:MM:SS
		re: regexp.MustCompile(`^(\d+):(\d{1,2})(?::(\d{1,2}(?:\.\d+)?))?$`),
		extract: func(m []string) (float64, bool) {
			hours, _ := strconv.ParseFloat(m[1], 64)
			mins, _ := strconv.ParseFloat(m[2], 64)
			total := hours*60 + mins
			if m[3] != "" {
				secs, _ := strconv.ParseFloat(m[3], 64)
				total += secs / 60
			}
			return total, true
		},
	},
	{
		// composite "1h 12min 30s", any subset of segments
		re: regexp.MustCompile(`^(?:(\d+(?:\.\d+)?)\s*h(?:ours?|rs?)?)?\s*(?:(\d+(?:\.\d+)?)\s*min(?:utes?|s)?)?\s*(?:(\d+(?:\.\d+)?)\s*s(?:ec(?:onds?)?)?)?\.?$`),
		extract: func(m []string) (float64, bool) {
			if m[1] == "" && m[2] == "" && m[3] == "" {
				return 0, false
			}
			total := 0.0
			if m[1] != "" {
				hours, _ := strconv.ParseFloat(m[1], 64)
				total += hours * 60
			}
			if m[2] != "" {
				mins, _ := strconv.ParseFloat(m[2], 64)
				total += mins
			}
			if m[3] != "" {
				secs, _ := strconv.ParseFloat(m[3], 64)
				total += secs / 60
			}
			return total, true
		},
	},
	{
		// decimal minutes "12.5 min"
		re: regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*min(?:utes?|s)?\.?$`),
		extract: func(m []string) (float64, bool) {
			mins, _ := strconv.ParseFloat(m[1], 64)
			return mins, true
		},
	},
	{
		// bare seconds "45 s"
		re: regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*s(?:ec(?:onds?)?)?\.?$`),
		extract: func(m []string) (float64, bool) {
			secs, _ := strconv.ParseFloat(m[1], 64)
			return secs / 60, true
		},
	},
}

// ParseDuration converts a vendor duration string into minutes. It never
// fails: unparseable input yields 0 so one bad cell cannot abort an upload.
func ParseDuration(text string) float64 {
	text = strings.TrimSpace(strings.ToLower(text))
	if text == "" {
		return 0
	}
	for _, p := range durationPatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if v, ok := p.extract(m); ok {
			return v
		}
	}
	if v, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", "."), 64); err == nil {
		return v
	}
	return 0
}
