package ingest

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/nurpe/fleetops-idle/internal/model"
	"github.com/nurpe/fleetops-idle/internal/parse"
)

// Keywords that mark a data row during the heuristic fallback scan.
var idleRowKeywords = []string{"idle", "stopped", "parking", "parked"}

// HTMLNormalizer parses an HTML vendor export. The primary path scans <td>
// header cells for known column text and then indexes rows positionally;
// when no header can be located it degrades to a per-row keyword scan that
// assigns cells greedily.
type HTMLNormalizer struct {
	log    zerolog.Logger
	lookup ContractorLookup
	format model.SourceFormat
}

func NewHTMLNormalizer(log zerolog.Logger, lookup ContractorLookup, format model.SourceFormat) *HTMLNormalizer {
	return &HTMLNormalizer{log: log, lookup: lookup, format: format}
}

func (n *HTMLNormalizer) Format() model.SourceFormat { return n.format }

func (n *HTMLNormalizer) Normalize(doc *Document) ([]model.IdleEvent, error) {
	if len(doc.Grid) == 0 {
		return nil, fmt.Errorf("%s: no table rows in markup", n.format)
	}

	builder := &eventBuilder{
		log:    n.log,
		lookup: n.lookup,
		format: n.format,
		plate:  objectPlate(doc, 0),
	}

	if headerRow, cols, ok := headerColumns(doc); ok {
		return n.normalizeWithHeader(doc, builder, headerRow, cols), nil
	}

	n.log.Debug().Str("format", string(n.format)).Msg("normalize: html header not found, using heuristic row scan")
	return n.normalizeHeuristic(doc, builder), nil
}

func (n *HTMLNormalizer) normalizeWithHeader(doc *Document, builder *eventBuilder, headerRow int, cols map[string]int) []model.IdleEvent {
	statusCol, hasStatus := cols["status"]
	cell := func(row int, field string) string {
		col, found := cols[field]
		if !found {
			return ""
		}
		return doc.Cell(row, col)
	}

	var events []model.IdleEvent
	for row := headerRow + 1; row < len(doc.Grid); row++ {
		if rowEmpty(doc, row) {
			continue
		}
		if hasStatus && !isStopped(doc.Cell(row, statusCol)) {
			continue
		}
		event, ok := builder.build(
			cell(row, "vehicle"),
			cell(row, "start"),
			cell(row, "end"),
			cell(row, "duration"),
			cell(row, "location"),
		)
		if !ok {
			continue
		}
		if !hasStatus && event.DurationMinutes <= 0 {
			continue
		}
		events = append(events, event)
	}
	return events
}

// normalizeHeuristic treats any row mentioning an idle/stopped/parking
// keyword as a data row. The first two time-like cells become start and end,
// the first duration-like cell among the rest becomes the duration, and the
// first cell with extractable coordinates becomes the location.
func (n *HTMLNormalizer) normalizeHeuristic(doc *Document, builder *eventBuilder) []model.IdleEvent {
	var events []model.IdleEvent
	for row := range doc.Grid {
		if !rowMentionsIdle(doc, row) {
			continue
		}

		var start, end, duration, location string
		for col := range doc.Grid[row] {
			raw := doc.Cell(row, col)
			text := parse.StripTags(raw)
			if start == "" && parse.LooksLikeTime(text) {
				start = text
				continue
			}
			if end == "" && parse.LooksLikeTime(text) {
				end = text
				continue
			}
			if duration == "" && looksLikeDuration(text) {
				duration = text
				continue
			}
			if location == "" && hasCoordinates(raw) {
				location = raw
			}
		}
		if start == "" && duration == "" {
			continue
		}

		event, ok := builder.build("", start, end, duration, location)
		if !ok {
			continue
		}
		if event.DurationMinutes <= 0 {
			continue
		}
		events = append(events, event)
	}
	return events
}

func rowMentionsIdle(doc *Document, row int) bool {
	for col := range doc.Grid[row] {
		cell := strings.ToLower(parse.StripTags(doc.Cell(row, col)))
		for _, keyword := range idleRowKeywords {
			if strings.Contains(cell, keyword) {
				return true
			}
		}
	}
	return false
}

// looksLikeDuration accepts clock and unit forms but not bare numbers, so a
// row-index cell cannot be mistaken for a duration.
func looksLikeDuration(text string) bool {
	if parse.ParseDuration(text) <= 0 {
		return false
	}
	if strings.Contains(text, ":") {
		return true
	}
	return strings.IndexFunc(text, unicode.IsLetter) >= 0
}

func hasCoordinates(raw string) bool {
	loc := parse.ExtractLocation(raw)
	return loc.Latitude != nil && loc.Longitude != nil
}
