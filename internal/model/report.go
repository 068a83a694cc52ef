package model

import (
	"time"

	"github.com/google/uuid"
)

type ReportGranularity string

const (
	GranularityWeek  ReportGranularity = "WEEK"
	GranularityMonth ReportGranularity = "MONTH"
)

// Marker labels interleaved into report rows. Downstream export code keys
// off these exact strings; do not reword them.
const (
	MarkerDayTotal            = "DAY TOTAL"
	MarkerWeekTotal           = "WEEK TOTAL"
	MarkerAvailability        = "Availability (%)"
	MarkerGrandMonthlyTotal   = "GRAND MONTHLY TOTAL"
	MarkerMonthlyAvailability = "Monthly Availability (%)"
)

type ReportRowKind string

const (
	RowEvent               ReportRowKind = "EVENT"
	RowDayTotal            ReportRowKind = "DAY_TOTAL"
	RowWeekTotal           ReportRowKind = "WEEK_TOTAL"
	RowAvailability        ReportRowKind = "AVAILABILITY"
	RowMonthTotal          ReportRowKind = "MONTH_TOTAL"
	RowMonthalAvailability ReportRowKind = "MONTH_AVAILABILITY"
)

type BucketTotals struct {
	IncidentMinutes    float64
	BreakMinutes       float64
	PickupMinutes      float64
	UnjustifiedMinutes float64
}

func (b *BucketTotals) Add(other BucketTotals) {
	b.IncidentMinutes += other.IncidentMinutes
	b.BreakMinutes += other.BreakMinutes
	b.PickupMinutes += other.PickupMinutes
	b.UnjustifiedMinutes += other.UnjustifiedMinutes
}

func (b BucketTotals) DurationMinutes() float64 {
	return b.IncidentMinutes + b.BreakMinutes + b.PickupMinutes + b.UnjustifiedMinutes
}

// ReportRow is one rendered line of an availability report. Event rows fill
// the time and location columns; total and availability rows carry a marker
// label and the rolled-up buckets or percentage.
type ReportRow struct {
	Kind                ReportRowKind
	Label               string
	Period              string
	Start               string
	End                 string
	DurationMinutes     float64
	Location            string
	Buckets             BucketTotals
	AvailabilityPercent *float64
}

type WeekSummary struct {
	WeekStart           time.Time
	WeekEnd             time.Time
	Buckets             BucketTotals
	AvailabilityPercent float64
}

type VehicleReport struct {
	VehiclePlate        string
	ContractorID        *uuid.UUID
	Rows                []ReportRow
	Weeks               []WeekSummary
	Totals              BucketTotals
	AvailabilityPercent float64
}

type AvailabilityReport struct {
	Granularity ReportGranularity
	PeriodStart time.Time
	PeriodEnd   time.Time
	Vehicles    []VehicleReport
}
