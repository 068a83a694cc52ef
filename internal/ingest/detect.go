package ingest

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/nurpe/fleetops-idle/internal/model"
	"github.com/nurpe/fleetops-idle/internal/parse"
)

// How deep into the grid the detector scans for header signatures. Vendor
// exports put headers within the first few rows but some prepend preamble
// blocks, so the scan window is generous.
const headerScanDepth = 50

// Each tabular vendor is identified by two fixed header column names that
// never appear together in another vendor's export.
var formatSignatures = map[model.SourceFormat][2]string{
	model.FormatStopReport:  {"status", "stop position"},
	model.FormatTripSummary: {"stop duration", "address"},
	model.FormatEngineIdle:  {"idle duration", "coordinates"},
}

// HTML exports are recognized by marker tokens in the raw markup rather
// than by header cells.
var htmlMarkers = map[model.SourceFormat][]string{
	model.FormatStopReportHTML: {"stop position", "status"},
	model.FormatEngineIdleHTML: {"engine idle report", "coordinate"},
}

// scoreOrder fixes the winner on equal scores.
var scoreOrder = []model.SourceFormat{
	model.FormatStopReport,
	model.FormatTripSummary,
	model.FormatEngineIdle,
}

// Detection is the detector's full verdict, kept for the audit log.
type Detection struct {
	Format       model.SourceFormat
	Scores       map[model.SourceFormat]int
	HintApplied  bool
	ContractorID string
}

// Detector scores an uploaded document against the known vendor
// signatures. A contractor hint, when configured, overrides the score.
type Detector struct {
	log zerolog.Logger
	// contractor name (lowercased) -> that contractor's vendor format
	hints map[string]model.SourceFormat
}

func NewDetector(log zerolog.Logger, hints map[string]model.SourceFormat) *Detector {
	normalized := make(map[string]model.SourceFormat, len(hints))
	for name, format := range hints {
		normalized[strings.ToLower(strings.TrimSpace(name))] = format
	}
	return &Detector{log: log, hints: normalized}
}

// Detect picks the normalizer format for a document. Unknown is a valid,
// non-fatal outcome: the caller surfaces it as a warning with zero events.
func (d *Detector) Detect(doc *Document, contractorHint string) Detection {
	scores := make(map[model.SourceFormat]int)

	if doc.IsHTML() {
		markup := strings.ToLower(doc.Raw)
		for format, markers := range htmlMarkers {
			for _, marker := range markers {
				if strings.Contains(markup, marker) {
					scores[format]++
				}
			}
		}
	} else {
		depth := min(len(doc.Grid), headerScanDepth)
		for row := 0; row < depth; row++ {
			for col := range doc.Grid[row] {
				cell := strings.ToLower(parse.StripTags(doc.Cell(row, col)))
				for format, sig := range formatSignatures {
					if cell == sig[0] || cell == sig[1] {
						scores[format]++
					}
				}
			}
		}
	}

	if hint := strings.ToLower(strings.TrimSpace(contractorHint)); hint != "" {
		if format, ok := d.hints[hint]; ok {
			d.log.Info().
				Str("contractor", contractorHint).
				Str("format", string(format)).
				Interface("scores", scores).
				Msg("detector: contractor hint overrides signature scores")
			return Detection{Format: format, Scores: scores, HintApplied: true}
		}
	}

	best := model.FormatUnknown
	bestScore := 0
	if doc.IsHTML() {
		for _, format := range []model.SourceFormat{model.FormatStopReportHTML, model.FormatEngineIdleHTML} {
			if scores[format] > bestScore {
				best, bestScore = format, scores[format]
			}
		}
	} else {
		for _, format := range scoreOrder {
			if scores[format] > bestScore {
				best, bestScore = format, scores[format]
			}
		}
	}

	d.log.Debug().
		Str("format", string(best)).
		Interface("scores", scores).
		Bool("html", doc.IsHTML()).
		Msg("detector: signature scan")

	return Detection{Format: best, Scores: scores}
}
