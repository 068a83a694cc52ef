package ingest

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/fleetops-idle/internal/model"
)

// ContractorLookup resolves a normalized plate to its contractor, nil when
// the vehicle is not registered. Supplied by the storage layer.
type ContractorLookup func(plate string) *uuid.UUID

// Result is what one processed upload yields: the detected format, the
// normalized events awaiting user review, and any non-fatal warnings.
type Result struct {
	Format        model.SourceFormat
	Events        []model.IdleEvent
	Warnings      []string
	DetectedPlate string
}

// Pipeline wires the detector to the vendor normalizers. One upload is
// processed synchronously and fully in memory; nothing is persisted here.
type Pipeline struct {
	log      zerolog.Logger
	detector *Detector
	lookup   ContractorLookup
	generic  *GenericNormalizer
	byFormat map[model.SourceFormat]Normalizer
}

func NewPipeline(log zerolog.Logger, hints map[string]model.SourceFormat, lookup ContractorLookup) *Pipeline {
	p := &Pipeline{
		log:      log,
		detector: NewDetector(log, hints),
		lookup:   lookup,
		generic:  NewGenericNormalizer(log),
	}
	p.byFormat = map[model.SourceFormat]Normalizer{
		model.FormatStopReport:     NewGridNormalizer(log, lookup, model.FormatStopReport),
		model.FormatEngineIdle:     NewGridNormalizer(log, lookup, model.FormatEngineIdle),
		model.FormatTripSummary:    NewTripSummaryNormalizer(log, lookup),
		model.FormatStopReportHTML: NewHTMLNormalizer(log, lookup, model.FormatStopReportHTML),
		model.FormatEngineIdleHTML: NewHTMLNormalizer(log, lookup, model.FormatEngineIdleHTML),
	}
	return p
}

// Process reads, detects and normalizes one uploaded document. An
// unrecognized format is a warning with zero events, not an error; only a
// structurally unreadable document fails.
func (p *Pipeline) Process(data []byte, contractorHint string) (*Result, error) {
	doc, err := ReadDocument(data)
	if err != nil {
		return nil, err
	}
	return p.ProcessDocument(doc, contractorHint)
}

// ProcessDocument runs detection and normalization over an already
// materialized document.
func (p *Pipeline) ProcessDocument(doc *Document, contractorHint string) (*Result, error) {
	detection := p.detector.Detect(doc, contractorHint)

	result := &Result{Format: detection.Format}
	if detection.HintApplied {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("format %s selected by contractor hint %q", detection.Format, contractorHint))
	}

	if detection.Format == model.FormatUnknown {
		result.DetectedPlate = p.generic.Plate(doc)
		_, _ = p.generic.Normalize(doc)
		result.Warnings = append(result.Warnings, "unrecognized export format: no idle events extracted")
		return result, nil
	}

	normalizer, ok := p.byFormat[detection.Format]
	if !ok {
		return nil, fmt.Errorf("no normalizer registered for format %s", detection.Format)
	}

	events, err := normalizer.Normalize(doc)
	if err != nil {
		return nil, err
	}
	result.Events = events

	unresolved := 0
	for _, event := range events {
		if event.ContractorID == nil {
			unresolved++
		}
	}
	if unresolved > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d of %d events have no registered contractor for their plate", unresolved, len(events)))
	}

	p.log.Info().
		Str("format", string(detection.Format)).
		Int("events", len(events)).
		Bool("hint_applied", detection.HintApplied).
		Msg("ingest: document processed")
	return result, nil
}
