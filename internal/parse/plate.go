package parse

import (
	"regexp"
	"strings"
)

// Vendor exports name the same physical vehicle inconsistently: company
// suffixes glued on, missing spaces, lowercase. The attempts below run in
// order and the first hit wins, so the strict plate shape always beats the
// loose one.
var platePatterns = []struct {
	re     *regexp.Regexp
	render func(m []string) string
}{
	{
		// canonical "KDG 320Z" with any internal whitespace
		re: regexp.MustCompile(`([A-Z]{3})\s+(\d{3,4})([A-Z]?)`),
		render: func(m []string) string {
			return m[1] + " " + m[2] + m[3]
		},
	},
	{
		// same shape with no separator, often embedded in a company string
		re: regexp.MustCompile(`([A-Z]{3})(\d{3,4})([A-Z]?)`),
		render: func(m []string) string {
			return m[1] + " " + m[2] + m[3]
		},
	},
	{
		// loose: short letter block, short digit block, optional letters
		re: regexp.MustCompile(`([A-Z]{2,4})\s*(\d{1,4})\s*([A-Z]*)`),
		render: func(m []string) string {
			return m[1] + " " + m[2] + m[3]
		},
	},
}

var nonWordRe = regexp.MustCompile(`\W+`)

var plateSentinels = map[string]struct{}{
	"unknown":         {},
	"unknown vehicle": {},
}

// NormalizePlate extracts a canonical plate token from a noisy vehicle name.
// The empty string means no plate could be recovered. The function is
// idempotent: feeding its own output back yields the same token.
func NormalizePlate(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if _, sentinel := plateSentinels[strings.ToLower(trimmed)]; sentinel {
		return ""
	}

	upper := strings.ToUpper(trimmed)
	for _, p := range platePatterns {
		if m := p.re.FindStringSubmatch(upper); m != nil {
			return p.render(m)
		}
	}

	return nonWordRe.ReplaceAllString(upper, "")
}
