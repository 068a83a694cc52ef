package model

import (
	"time"

	"github.com/google/uuid"
)

type IntervalKind string

const (
	IntervalIncident IntervalKind = "INCIDENT"
	IntervalBreak    IntervalKind = "BREAK"
	IntervalPickup   IntervalKind = "PICKUP"
)

// IntervalRecord abstracts the incident/break/pickup rows owned by the CRUD
// layer. A nil IntervalEnd means the interval is still open and extends
// indefinitely for overlap purposes.
type IntervalRecord struct {
	ID            uuid.UUID
	Kind          IntervalKind
	VehiclePlate  string
	IntervalStart time.Time
	IntervalEnd   *time.Time
	Justification string
}

// Overlaps reports whether the record's interval touches [start, end],
// bounds inclusive on both sides.
func (r IntervalRecord) Overlaps(start, end time.Time) bool {
	if r.IntervalStart.After(end) {
		return false
	}
	if r.IntervalEnd == nil {
		return true
	}
	return !r.IntervalEnd.Before(start)
}
