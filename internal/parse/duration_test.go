package parse

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  float64
	}{
		{"clock with seconds", "0:15:00", 15},
		{"clock without seconds", "1:23", 83},
		{"clock long", "12:05:30", 725.5},
		{"composite full", "1h 12min 30s", 72.5},
		{"composite hours only", "2h", 120},
		{"composite min sec", "12 min 30 s", 12.5},
		{"decimal minutes", "45 min", 45},
		{"fractional minutes", "12.5 min", 12.5},
		{"bare seconds", "45 s", 0.75},
		{"bare seconds long", "90 sec", 1.5},
		{"plain number", "7", 7},
		{"comma decimal", "3,5", 3.5},
		{"empty", "", 0},
		{"garbage", "n/a", 0},
		{"whitespace", "   ", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, ParseDuration(tc.input), 1e-9)
		})
	}
}

func TestParseDurationClockBeatsDecimal(t *testing.T) {
	// "1:23" must be hours:minutes, never 1.23 minutes.
	assert.InDelta(t, 83.0, ParseDuration("1:23"), 1e-9)
}

func TestParseDurationRoundTrip(t *testing.T) {
	for _, minutes := range []float64{0, 1, 15, 83, 725.5, 1439.25} {
		whole := int(minutes)
		secs := (minutes - float64(whole)) * 60
		formatted := fmt.Sprintf("%d:%02d:%02.0f", whole/60, whole%60, secs)
		assert.InDelta(t, minutes, ParseDuration(formatted), 1e-6, "input %q", formatted)
	}
}
