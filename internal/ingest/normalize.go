package ingest

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/nurpe/fleetops-idle/internal/model"
	"github.com/nurpe/fleetops-idle/internal/parse"
)

// Normalizer turns one detected vendor document into canonical idle events.
// Row-level problems are absorbed; a normalizer only fails when the document
// as a whole cannot be walked.
type Normalizer interface {
	Format() model.SourceFormat
	Normalize(doc *Document) ([]model.IdleEvent, error)
}

// Header cell synonyms per canonical field name, shared by the tabular
// normalizers. Matching is exact after trimming, tag-stripping and
// lowercasing.
var fieldSynonyms = map[string][]string{
	"vehicle":  {"vehicle", "object", "asset", "vehicle name", "plate"},
	"status":   {"status", "state"},
	"start":    {"start", "start time", "from", "idle start", "begin"},
	"end":      {"end", "end time", "to", "idle end", "finish"},
	"duration": {"duration", "stop duration", "idle duration", "idle time"},
	"location": {"stop position", "address", "coordinates", "location", "position"},
}

// headerColumns scans the top of the grid for a row containing at least two
// recognizable header cells and returns its index plus a field->column map.
func headerColumns(doc *Document) (int, map[string]int, bool) {
	depth := min(len(doc.Grid), headerScanDepth)
	for row := 0; row < depth; row++ {
		cols := map[string]int{}
		for col := range doc.Grid[row] {
			cell := strings.ToLower(parse.StripTags(doc.Cell(row, col)))
			if cell == "" {
				continue
			}
			for field, names := range fieldSynonyms {
				if _, taken := cols[field]; taken {
					continue
				}
				for _, name := range names {
					if cell == name {
						cols[field] = col
						break
					}
				}
			}
		}
		if len(cols) >= 2 {
			return row, cols, true
		}
	}
	return 0, nil, false
}

// eventBuilder assembles IdleEvents from raw cells, resolving contractors
// through the plate lookup and absorbing every cell-level parse failure.
type eventBuilder struct {
	log    zerolog.Logger
	lookup ContractorLookup
	format model.SourceFormat
	plate  string // document-level plate, used when rows carry none
}

func (b *eventBuilder) build(plateCell, startCell, endCell, durationCell, locationCell string) (model.IdleEvent, bool) {
	plate := parse.NormalizePlate(parse.StripTags(plateCell))
	if plate == "" {
		plate = b.plate
	}

	start, hasStart := parse.ParseTimestamp(parse.StripTags(startCell))
	end, hasEnd := parse.ParseTimestamp(parse.StripTags(endCell))
	if hasStart && hasEnd && end.Before(start) {
		// swapped columns or vendor glitch; an inverted interval is useless
		b.log.Debug().Str("start", startCell).Str("end", endCell).Msg("normalize: dropping inverted interval")
		return model.IdleEvent{}, false
	}

	duration := 0.0
	if hasStart && hasEnd {
		duration = end.Sub(start).Minutes()
	} else {
		duration = parse.ParseDuration(parse.StripTags(durationCell))
	}

	loc := parse.ExtractLocation(locationCell)
	address := loc.Address
	if address == "" && loc.Latitude != nil && loc.Longitude != nil {
		address = parse.FallbackAddress(*loc.Latitude, *loc.Longitude)
	}

	event := model.IdleEvent{
		VehiclePlate:    plate,
		IdleStart:       start,
		IdleEnd:         end,
		DurationMinutes: duration,
		LocationAddress: address,
		Latitude:        loc.Latitude,
		Longitude:       loc.Longitude,
		SourceFormat:    b.format,
	}
	if b.lookup != nil && plate != "" {
		event.ContractorID = b.lookup(plate)
	}
	return event, true
}

// isStopped applies the idle-row filter of the status-keyed families.
func isStopped(statusCell string) bool {
	return strings.EqualFold(strings.TrimSpace(parse.StripTags(statusCell)), "stopped")
}
