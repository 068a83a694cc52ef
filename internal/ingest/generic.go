package ingest

import (
	"github.com/rs/zerolog"

	"github.com/nurpe/fleetops-idle/internal/model"
)

// GenericNormalizer is the zero-score fallback. It cannot recover idle rows
// from an unrecognized layout; it only tries to salvage the vehicle plate
// from an "Object:" metadata line so the warning shown to the user can name
// the vehicle. It never fails and always yields zero events.
type GenericNormalizer struct {
	log zerolog.Logger
}

func NewGenericNormalizer(log zerolog.Logger) *GenericNormalizer {
	return &GenericNormalizer{log: log}
}

func (n *GenericNormalizer) Format() model.SourceFormat { return model.FormatUnknown }

func (n *GenericNormalizer) Normalize(doc *Document) ([]model.IdleEvent, error) {
	plate := objectPlate(doc, 0)
	n.log.Warn().Str("plate", plate).Msg("normalize: unrecognized format, no idle rows recovered")
	return nil, nil
}

// Plate returns the salvaged document plate, if any.
func (n *GenericNormalizer) Plate(doc *Document) string {
	return objectPlate(doc, 0)
}
