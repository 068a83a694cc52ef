package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/fleetops-idle/internal/model"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func classifiedAt(plate string, start time.Time, minutes float64, bucket model.IntervalKind) model.ClassifiedIdleEvent {
	event := model.ClassifiedIdleEvent{
		IdleEvent: model.IdleEvent{
			VehiclePlate:    plate,
			IdleStart:       start,
			IdleEnd:         start.Add(time.Duration(minutes) * time.Minute),
			DurationMinutes: minutes,
		},
	}
	switch bucket {
	case model.IntervalIncident:
		event.IncidentMinutes = minutes
	case model.IntervalBreak:
		event.BreakMinutes = minutes
	case model.IntervalPickup:
		event.PickupMinutes = minutes
	default:
		event.UnjustifiedMinutes = minutes
	}
	return event
}

func TestAvailabilityPercentFormula(t *testing.T) {
	percent := AvailabilityPercent(model.BucketTotals{BreakMinutes: 120, UnjustifiedMinutes: 60})
	assert.InDelta(t, (1-180.0/10080.0)*100, percent, 0.01)
	assert.InDelta(t, 98.214, percent, 0.01)
}

func TestAvailabilityPercentUnclamped(t *testing.T) {
	// more break time than a week holds: the metric goes negative and is
	// reported as-is
	percent := AvailabilityPercent(model.BucketTotals{BreakMinutes: 20000})
	assert.Less(t, percent, 0.0)

	// incident and pickup minutes do not reduce availability
	percent = AvailabilityPercent(model.BucketTotals{IncidentMinutes: 500, PickupMinutes: 300})
	assert.InDelta(t, 100.0, percent, 1e-9)
}

func TestAggregateWeekly(t *testing.T) {
	events := []model.ClassifiedIdleEvent{
		classifiedAt("KDG 320Z", day(4).Add(9*time.Hour), 120, model.IntervalBreak),
		classifiedAt("KDG 320Z", day(4).Add(14*time.Hour), 60, ""),
		classifiedAt("KDG 320Z", day(6).Add(10*time.Hour), 30, model.IntervalIncident),
	}

	report := Aggregate(events, day(4), day(11), model.GranularityWeek, nil)
	require.Len(t, report.Vehicles, 1)
	vehicle := report.Vehicles[0]

	assert.Equal(t, "KDG 320Z", vehicle.VehiclePlate)
	assert.InDelta(t, 120, vehicle.Totals.BreakMinutes, 1e-9)
	assert.InDelta(t, 60, vehicle.Totals.UnjustifiedMinutes, 1e-9)
	assert.InDelta(t, 30, vehicle.Totals.IncidentMinutes, 1e-9)
	assert.InDelta(t, (1-180.0/10080.0)*100, vehicle.AvailabilityPercent, 0.01)

	require.Len(t, vehicle.Weeks, 1)
	assert.InDelta(t, vehicle.AvailabilityPercent, vehicle.Weeks[0].AvailabilityPercent, 1e-9)
}

func TestAggregateWeeklyRowLayout(t *testing.T) {
	events := []model.ClassifiedIdleEvent{
		classifiedAt("KDG 320Z", day(4).Add(9*time.Hour), 15, model.IntervalBreak),
		classifiedAt("KDG 320Z", day(4).Add(11*time.Hour), 5, ""),
		classifiedAt("KDG 320Z", day(5).Add(8*time.Hour), 10, model.IntervalPickup),
	}

	report := Aggregate(events, day(4), day(11), model.GranularityWeek, nil)
	require.Len(t, report.Vehicles, 1)
	rows := report.Vehicles[0].Rows

	var kinds []model.ReportRowKind
	for _, row := range rows {
		kinds = append(kinds, row.Kind)
	}
	assert.Equal(t, []model.ReportRowKind{
		model.RowEvent, model.RowEvent, model.RowDayTotal,
		model.RowEvent, model.RowDayTotal,
		model.RowWeekTotal, model.RowAvailability,
	}, kinds)

	// marker rows must carry the exact literal labels the export keys on
	assert.Equal(t, "DAY TOTAL", rows[2].Label)
	assert.Equal(t, "WEEK TOTAL", rows[5].Label)
	assert.Equal(t, "Availability (%)", rows[6].Label)

	assert.InDelta(t, 20, rows[2].DurationMinutes, 1e-9)
	assert.InDelta(t, 10, rows[4].DurationMinutes, 1e-9)
	assert.InDelta(t, 30, rows[5].DurationMinutes, 1e-9)
	require.NotNil(t, rows[6].AvailabilityPercent)
}

func TestAggregateMonthly(t *testing.T) {
	// breaks in weeks 1 and 3 of a 4-week month
	events := []model.ClassifiedIdleEvent{
		classifiedAt("KDG 320Z", day(1).Add(9*time.Hour), 504, model.IntervalBreak),  // week 1: 5% of a week
		classifiedAt("KDG 320Z", day(16).Add(9*time.Hour), 1008, model.IntervalBreak), // week 3: 10%
	}

	report := Aggregate(events, day(1), day(29), model.GranularityMonth, nil)
	require.Len(t, report.Vehicles, 1)
	vehicle := report.Vehicles[0]

	require.Len(t, vehicle.Weeks, 4)
	assert.InDelta(t, 95.0, vehicle.Weeks[0].AvailabilityPercent, 1e-6)
	assert.InDelta(t, 100.0, vehicle.Weeks[1].AvailabilityPercent, 1e-6)
	assert.InDelta(t, 90.0, vehicle.Weeks[2].AvailabilityPercent, 1e-6)
	assert.InDelta(t, 100.0, vehicle.Weeks[3].AvailabilityPercent, 1e-6)

	// monthly percentage is the arithmetic mean of the week percentages,
	// never a recomputation against a monthly capacity
	assert.InDelta(t, (95.0+100+90+100)/4, vehicle.AvailabilityPercent, 1e-6)

	last := vehicle.Rows[len(vehicle.Rows)-1]
	assert.Equal(t, "Monthly Availability (%)", last.Label)
	grand := vehicle.Rows[len(vehicle.Rows)-2]
	assert.Equal(t, "GRAND MONTHLY TOTAL", grand.Label)
	assert.InDelta(t, 1512, grand.DurationMinutes, 1e-9)
}

func TestAggregateMonthlyRemainderFallsIntoFourthWeek(t *testing.T) {
	// March has 31 days: days 29-31 belong to the fourth window
	events := []model.ClassifiedIdleEvent{
		classifiedAt("KDG 320Z", day(30).Add(9*time.Hour), 60, ""),
	}
	report := Aggregate(events, day(1), time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), model.GranularityMonth, nil)
	require.Len(t, report.Vehicles, 1)
	vehicle := report.Vehicles[0]
	require.Len(t, vehicle.Weeks, 4)
	assert.InDelta(t, 60, vehicle.Weeks[3].Buckets.UnjustifiedMinutes, 1e-9)
}

func TestAggregateEmptyPeriod(t *testing.T) {
	report := Aggregate(nil, day(4), day(11), model.GranularityWeek, []string{"KDG 320Z"})
	require.Len(t, report.Vehicles, 1)
	vehicle := report.Vehicles[0]
	assert.Zero(t, vehicle.Totals.DurationMinutes())
	assert.InDelta(t, 100.0, vehicle.AvailabilityPercent, 1e-9)
}

func TestAggregateFiltersByPeriod(t *testing.T) {
	events := []model.ClassifiedIdleEvent{
		classifiedAt("KDG 320Z", day(3).Add(9*time.Hour), 60, ""),  // before period
		classifiedAt("KDG 320Z", day(4).Add(9*time.Hour), 30, ""),  // inside
		classifiedAt("KDG 320Z", day(11).Add(9*time.Hour), 45, ""), // at end bound, excluded
	}
	report := Aggregate(events, day(4), day(11), model.GranularityWeek, nil)
	require.Len(t, report.Vehicles, 1)
	assert.InDelta(t, 30, report.Vehicles[0].Totals.UnjustifiedMinutes, 1e-9)
}

func TestAggregateGroupsVehicles(t *testing.T) {
	events := []model.ClassifiedIdleEvent{
		classifiedAt("KDG 320Z", day(4).Add(9*time.Hour), 30, ""),
		classifiedAt("KAA 111A", day(4).Add(9*time.Hour), 10, model.IntervalBreak),
	}
	report := Aggregate(events, day(4), day(11), model.GranularityWeek, nil)
	require.Len(t, report.Vehicles, 2)
	// sorted by plate
	assert.Equal(t, "KAA 111A", report.Vehicles[0].VehiclePlate)
	assert.Equal(t, "KDG 320Z", report.Vehicles[1].VehiclePlate)
}
