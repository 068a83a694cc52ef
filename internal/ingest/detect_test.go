package ingest

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/nurpe/fleetops-idle/internal/model"
)

func TestDetectorScoresSignatures(t *testing.T) {
	detector := NewDetector(zerolog.Nop(), nil)

	doc := gridDoc([][]string{
		{"Status", "Stop position", "Start", "End", "Duration"},
	})
	detection := detector.Detect(doc, "")
	assert.Equal(t, model.FormatStopReport, detection.Format)
	assert.Equal(t, 2, detection.Scores[model.FormatStopReport])
	assert.False(t, detection.HintApplied)
}

func TestDetectorContractorHintOverridesScore(t *testing.T) {
	// the document looks like a stop report by column signature, but the
	// uploading contractor is known to use the trip-summary vendor
	detector := NewDetector(zerolog.Nop(), map[string]model.SourceFormat{
		"Paschal Construction": model.FormatTripSummary,
	})

	doc := gridDoc([][]string{
		{"Status", "Stop position", "Start", "End", "Duration"},
	})
	detection := detector.Detect(doc, "paschal construction")
	assert.Equal(t, model.FormatTripSummary, detection.Format)
	assert.True(t, detection.HintApplied)
	// the scores are still recorded for the audit trail
	assert.Equal(t, 2, detection.Scores[model.FormatStopReport])
}

func TestDetectorUnknownHintFallsBackToScore(t *testing.T) {
	detector := NewDetector(zerolog.Nop(), map[string]model.SourceFormat{
		"Paschal Construction": model.FormatTripSummary,
	})

	doc := gridDoc([][]string{
		{"Status", "Stop position"},
	})
	detection := detector.Detect(doc, "Some Other Contractor")
	assert.Equal(t, model.FormatStopReport, detection.Format)
	assert.False(t, detection.HintApplied)
}

func TestDetectorZeroScoresIsUnknown(t *testing.T) {
	detector := NewDetector(zerolog.Nop(), nil)
	doc := gridDoc([][]string{
		{"Alpha", "Beta"},
		{"1", "2"},
	})
	detection := detector.Detect(doc, "")
	assert.Equal(t, model.FormatUnknown, detection.Format)
}

func TestDetectorHTMLMarkers(t *testing.T) {
	detector := NewDetector(zerolog.Nop(), nil)

	stopDoc := htmlDoc(`<html><table><tr><td>Status</td><td>Stop position</td></tr></table></html>`)
	assert.Equal(t, model.FormatStopReportHTML, detector.Detect(stopDoc, "").Format)

	idleDoc := htmlDoc(`<html><body><h1>Engine Idle Report</h1><table><tr><td>Coordinate</td></tr></table></body></html>`)
	assert.Equal(t, model.FormatEngineIdleHTML, detector.Detect(idleDoc, "").Format)
}

func TestDetectorScanDepthLimit(t *testing.T) {
	// a signature buried past the scan window is not found
	rows := make([][]string, headerScanDepth+5)
	for i := range rows {
		rows[i] = []string{"filler"}
	}
	rows[headerScanDepth+2] = []string{"Status", "Stop position"}
	detection := NewDetector(zerolog.Nop(), nil).Detect(gridDoc(rows), "")
	assert.Equal(t, model.FormatUnknown, detection.Format)
}
