package ingest

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nurpe/fleetops-idle/internal/model"
	"github.com/nurpe/fleetops-idle/internal/parse"
)

// GridNormalizer handles the column-headed tabular families: the stop-report
// export (keyed on a status column) and the engine-idle export (no status
// column, rows filtered by positive duration).
type GridNormalizer struct {
	log    zerolog.Logger
	lookup ContractorLookup
	format model.SourceFormat
}

func NewGridNormalizer(log zerolog.Logger, lookup ContractorLookup, format model.SourceFormat) *GridNormalizer {
	return &GridNormalizer{log: log, lookup: lookup, format: format}
}

func (n *GridNormalizer) Format() model.SourceFormat { return n.format }

func (n *GridNormalizer) Normalize(doc *Document) ([]model.IdleEvent, error) {
	headerRow, cols, ok := headerColumns(doc)
	if !ok {
		return nil, fmt.Errorf("%s: no header row located", n.format)
	}

	builder := &eventBuilder{
		log:    n.log,
		lookup: n.lookup,
		format: n.format,
		plate:  objectPlate(doc, headerRow),
	}

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
			// without a status column only a positive duration marks an idle row
			continue
		}
		events = append(events, event)
	}

	n.log.Debug().
		Str("format", string(n.format)).
		Int("rows", len(doc.Grid)-headerRow-1).
		Int("events", len(events)).
		Msg("normalize: grid export parsed")
	return events, nil
}

func rowEmpty(doc *Document, row int) bool {
	if row < 0 || row >= len(doc.Grid) {
		return true
	}
	for col := range doc.Grid[row] {
		if parse.StripTags(doc.Cell(row, col)) != "" {
			return false
		}
	}
	return true
}

// objectPlate recovers a document-level vehicle plate from an "Object:"
// metadata line in the preamble rows above the data table.
func objectPlate(doc *Document, limit int) string {
	if limit <= 0 || limit > len(doc.Grid) {
		limit = min(len(doc.Grid), headerScanDepth)
	}
	for row := 0; row < limit; row++ {
		for col := range doc.Grid[row] {
			cell := parse.StripTags(doc.Cell(row, col))
			lower := strings.ToLower(cell)
			if !strings.HasPrefix(lower, "object") {
				continue
			}
			rest := cell[len("object"):]
			rest = strings.TrimLeft(rest, ": \t")
			if rest == "" {
				// label cell; plate sits in the next cell over
				rest = parse.StripTags(doc.Cell(row, col+1))
			}
			if plate := parse.NormalizePlate(rest); plate != "" {
				return plate
			}
		}
	}
	return ""
}
