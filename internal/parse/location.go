package parse

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Location is the result of extracting a stop-position cell. Coordinates are
// nil when the cell held only free text.
type Location struct {
	Address   string
	Latitude  *float64
	Longitude *float64
}

var (
	// map link query parameter, e.g. href="...maps?q=-1.275198,36.812071&t=m"
	mapQueryRe = regexp.MustCompile(`[?&]q=(-?\d+(?:\.\d+)?),(-?\d+(?:\.\d+)?)`)
	// trailing address after the closing anchor: "</a> - Thika Road, Nairobi"
	anchorTailRe = regexp.MustCompile(`(?i)</a>\s*-?\s*(.*)$`)
	// bare decimal pair, optionally followed by "- address"
	plainPairRe = regexp.MustCompile(`^(-?\d+\.\d+)\s*,\s*(-?\d+\.\d+)\s*(?:-\s*(.+))?$`)
	// directional suffix pair "1.275198S, 36.812071E"
	directionalRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([NS])\s*,\s*(\d+(?:\.\d+)?)\s*([EW])$`)
)

// ExtractLocation pulls decimal coordinates and address text out of a
// stop-position cell. Cells arrive either as plain text or as HTML with the
// coordinates embedded in a map link; all tags are stripped from the
// returned address regardless of which shape matched.
func ExtractLocation(cell string) Location {
	raw := strings.TrimSpace(cell)
	if raw == "" {
		return Location{}
	}

	if m := mapQueryRe.FindStringSubmatch(raw); m != nil {
		lat, _ := strconv.ParseFloat(m[1], 64)
		lon, _ := strconv.ParseFloat(m[2], 64)
		address := ""
		if tail := anchorTailRe.FindStringSubmatch(raw); tail != nil {
			address = StripTags(tail[1])
		}
		return Location{Address: address, Latitude: &lat, Longitude: &lon}
	}

	text := StripTags(raw)

	if m := plainPairRe.FindStringSubmatch(text); m != nil {
		lat, _ := strconv.ParseFloat(m[1], 64)
		lon, _ := strconv.ParseFloat(m[2], 64)
		return Location{Address: strings.TrimSpace(m[3]), Latitude: &lat, Longitude: &lon}
	}

	if m := directionalRe.FindStringSubmatch(text); m != nil {
		lat, _ := strconv.ParseFloat(m[1], 64)
		lon, _ := strconv.ParseFloat(m[3], 64)
		if m[2] == "S" {
			lat = -lat
		}
		if m[4] == "W" {
			lon = -lon
		}
		return Location{Latitude: &lat, Longitude: &lon}
	}

	return Location{Address: text}
}

// FallbackAddress renders the "{lat}, {lon}" substitute used when no
// reverse-geocoded address is available for a coordinate pair.
func FallbackAddress(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + ", " + strconv.FormatFloat(lon, 'f', -1, 64)
}

var spaceRe = regexp.MustCompile(`\s+`)

// StripTags removes HTML markup and collapses whitespace. Plain text passes
// through untouched apart from trimming.
func StripTags(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
	}
	tok := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		tt := tok.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			b.WriteString(tok.Token().Data)
			b.WriteByte(' ')
		}
	}
	return strings.TrimSpace(spaceRe.ReplaceAllString(b.String(), " "))
}
