package ingest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nurpe/fleetops-idle/internal/model"
	"github.com/nurpe/fleetops-idle/internal/parse"
)

// Fixed layout of the trip-summary export: a preamble holding the vehicle
// name (plate in parentheses) and a date-range line, then tabular data
// starting at row index 4 with positional columns.
const (
	tripDataStartRow = 4

	tripColIndex    = 0
	tripColStart    = 1
	tripColEnd      = 2
	tripColDuration = 3
	tripColAddress  = 4
)

var parenPlateRe = regexp.MustCompile(`\(([^)]+)\)`)

// bare decimal coordinate pair with nothing else in the cell
var coordOnlyRe = regexp.MustCompile(`^-?\d+\.\d+\s*,\s*-?\d+\.\d+$`)

// TripSummaryNormalizer parses the preamble-style export. Addresses split
// across two rows (coordinate pair first, place name on a continuation row)
// are merged into one event.
type TripSummaryNormalizer struct {
	log    zerolog.Logger
	lookup ContractorLookup
}

func NewTripSummaryNormalizer(log zerolog.Logger, lookup ContractorLookup) *TripSummaryNormalizer {
	return &TripSummaryNormalizer{log: log, lookup: lookup}
}

func (n *TripSummaryNormalizer) Format() model.SourceFormat { return model.FormatTripSummary }

func (n *TripSummaryNormalizer) Normalize(doc *Document) ([]model.IdleEvent, error) {
	if len(doc.Grid) <= tripDataStartRow {
		return nil, fmt.Errorf("%s: document shorter than fixed preamble", model.FormatTripSummary)
	}

	builder := &eventBuilder{
		log:    n.log,
		lookup: n.lookup,
		format: model.FormatTripSummary,
		plate:  n.preamblePlate(doc),
	}

	var events []model.IdleEvent
	for row := tripDataStartRow; row < len(doc.Grid); row++ {
		if rowEmpty(doc, row) {
			continue
		}
		start := doc.Cell(row, tripColStart)
		end := doc.Cell(row, tripColEnd)
		duration := doc.Cell(row, tripColDuration)
		address := doc.Cell(row, tripColAddress)

		// skip a repeated header row inside the data block
		if strings.EqualFold(parse.StripTags(start), "start time") {
			continue
		}

		if merged, ok := n.mergeContinuation(doc, row, address); ok {
			address = merged
			row++
		}

		event, ok := builder.build("", start, end, duration, address)
		if !ok {
			continue
		}
		events = append(events, event)
	}

	n.log.Debug().
		Int("events", len(events)).
		Str("plate", builder.plate).
		Msg("normalize: trip summary parsed")
	return events, nil
}

// preamblePlate pulls the plate out of the parenthesized vehicle name in the
// document's first row, e.g. "Idle report - Lorry 7 (KDG 320Z)".
func (n *TripSummaryNormalizer) preamblePlate(doc *Document) string {
	for col := range doc.Grid[0] {
		cell := parse.StripTags(doc.Cell(0, col))
		if m := parenPlateRe.FindStringSubmatch(cell); m != nil {
			if plate := parse.NormalizePlate(m[1]); plate != "" {
				return plate
			}
		}
	}
	// fall back to the whole first row when the parentheses are missing
	for col := range doc.Grid[0] {
		if plate := parse.NormalizePlate(parse.StripTags(doc.Cell(0, col))); plate != "" {
			return plate
		}
	}
	return ""
}

// mergeContinuation joins a coordinate-only address cell with the place name
// carried by the following row, when that row holds nothing else.
func (n *TripSummaryNormalizer) mergeContinuation(doc *Document, row int, address string) (string, bool) {
	if !coordOnlyRe.MatchString(strings.TrimSpace(parse.StripTags(address))) {
		return "", false
	}
	next := row + 1
	if next >= len(doc.Grid) {
		return "", false
	}
	if parse.StripTags(doc.Cell(next, tripColStart)) != "" ||
		parse.StripTags(doc.Cell(next, tripColEnd)) != "" ||
		parse.StripTags(doc.Cell(next, tripColDuration)) != "" {
		return "", false
	}
	place := parse.StripTags(doc.Cell(next, tripColAddress))
	if place == "" {
		return "", false
	}
	return strings.TrimSpace(parse.StripTags(address)) + " - " + place, true
}
