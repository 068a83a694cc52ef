package model

import (
	"time"

	"github.com/google/uuid"
)

type SourceFormat string

const (
	FormatStopReport     SourceFormat = "STOP_REPORT"
	FormatTripSummary    SourceFormat = "TRIP_SUMMARY"
	FormatEngineIdle     SourceFormat = "ENGINE_IDLE"
	FormatStopReportHTML SourceFormat = "STOP_REPORT_HTML"
	FormatEngineIdleHTML SourceFormat = "ENGINE_IDLE_HTML"
	FormatUnknown        SourceFormat = "UNKNOWN"
)

// IdleEvent is the canonical idle record produced by a vendor normalizer.
// DurationMinutes equals IdleEnd-IdleStart when both timestamps are known,
// otherwise it carries the vendor's reported duration.
type IdleEvent struct {
	ID              uuid.UUID
	VehiclePlate    string
	IdleStart       time.Time
	IdleEnd         time.Time
	DurationMinutes float64
	LocationAddress string
	Latitude        *float64
	Longitude       *float64
	SourceFormat    SourceFormat
	ContractorID    *uuid.UUID
	UploadedByID    *uuid.UUID
	CreatedAt       time.Time
}

// ClassifiedIdleEvent attributes the event's full duration to exactly one
// bucket. Precedence on overlap is incident, then break, then pickup;
// nothing matching leaves the duration unjustified.
type ClassifiedIdleEvent struct {
	IdleEvent
	IncidentMinutes    float64
	BreakMinutes       float64
	PickupMinutes      float64
	UnjustifiedMinutes float64
	Justification      string
}
