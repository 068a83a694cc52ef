package reconcile

import (
	"sort"
	"time"

	"github.com/nurpe/fleetops-idle/internal/model"
	"github.com/nurpe/fleetops-idle/internal/parse"
)

// WeekCapacityMinutes is the fixed availability divisor: the minutes in one
// calendar week. The reports apply it to every aggregation window no matter
// the window's actual length, so a non-week period reads as "share of a
// standard week consumed", not "share of the period". Existing report
// consumers depend on these numbers; keep the divisor fixed.
const WeekCapacityMinutes = 10080.0

// Months are rolled up as at most this many week windows; the last window
// absorbs any remainder days.
const maxWeekWindows = 4

// AvailabilityPercent computes the availability metric for one window's
// bucket totals. The result is intentionally unclamped and can leave
// [0, 100] for unusual inputs.
func AvailabilityPercent(b model.BucketTotals) float64 {
	return (1 - (b.BreakMinutes+b.UnjustifiedMinutes)/WeekCapacityMinutes) * 100
}

// Aggregate rolls classified events up into one availability report. Events
// are grouped per vehicle; only events whose idle start falls inside
// [periodStart, periodEnd) count. extraPlates forces report sections for
// vehicles with zero events in the period, which come out all-zero with
// availability 100.
func Aggregate(
	events []model.ClassifiedIdleEvent,
	periodStart, periodEnd time.Time,
	granularity model.ReportGranularity,
	extraPlates []string,
) model.AvailabilityReport {
	byPlate := make(map[string][]model.ClassifiedIdleEvent)
	for _, event := range events {
		if event.IdleStart.Before(periodStart) || !event.IdleStart.Before(periodEnd) {
			continue
		}
		plate := parse.NormalizePlate(event.VehiclePlate)
		byPlate[plate] = append(byPlate[plate], event)
	}
	for _, raw := range extraPlates {
		plate := parse.NormalizePlate(raw)
		if _, ok := byPlate[plate]; !ok && plate != "" {
			byPlate[plate] = nil
		}
	}

	plates := make([]string, 0, len(byPlate))
	for plate := range byPlate {
		plates = append(plates, plate)
	}
	sort.Strings(plates)

	report := model.AvailabilityReport{
		Granularity: granularity,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	}
	for _, plate := range plates {
		report.Vehicles = append(report.Vehicles,
			aggregateVehicle(plate, byPlate[plate], periodStart, periodEnd, granularity))
	}
	return report
}

type weekWindow struct {
	start, end time.Time
}

func weekWindows(periodStart, periodEnd time.Time) []weekWindow {
	var windows []weekWindow
	s := periodStart
	for i := 0; i < maxWeekWindows && s.Before(periodEnd); i++ {
		e := s.AddDate(0, 0, 7)
		if e.After(periodEnd) || i == maxWeekWindows-1 && periodEnd.After(e) {
			e = periodEnd
		}
		windows = append(windows, weekWindow{start: s, end: e})
		s = e
	}
	if len(windows) == 0 {
		windows = []weekWindow{{start: periodStart, end: periodEnd}}
	}
	return windows
}

func aggregateVehicle(
	plate string,
	events []model.ClassifiedIdleEvent,
	periodStart, periodEnd time.Time,
	granularity model.ReportGranularity,
) model.VehicleReport {
	sort.Slice(events, func(i, j int) bool {
		return events[i].IdleStart.Before(events[j].IdleStart)
	})

	vehicle := model.VehicleReport{VehiclePlate: plate}
	for _, event := range events {
		if event.ContractorID != nil {
			vehicle.ContractorID = event.ContractorID
			break
		}
	}

	windows := weekWindows(periodStart, periodEnd)
	var weekPercents []float64
	next := 0

	for _, window := range windows {
		var windowEvents []model.ClassifiedIdleEvent
		for next < len(events) && events[next].IdleStart.Before(window.end) {
			windowEvents = append(windowEvents, events[next])
			next++
		}

		weekTotals := appendWindowRows(&vehicle, windowEvents)
		percent := AvailabilityPercent(weekTotals)
		weekPercents = append(weekPercents, percent)

		vehicle.Rows = append(vehicle.Rows, model.ReportRow{
			Kind:            model.RowWeekTotal,
			Label:           model.MarkerWeekTotal,
			Period:          formatDay(window.start) + " - " + formatDay(window.end.AddDate(0, 0, -1)),
			DurationMinutes: weekTotals.DurationMinutes(),
			Buckets:         weekTotals,
		})
		p := percent
		vehicle.Rows = append(vehicle.Rows, model.ReportRow{
			Kind:                model.RowAvailability,
			Label:               model.MarkerAvailability,
			AvailabilityPercent: &p,
		})

		vehicle.Weeks = append(vehicle.Weeks, model.WeekSummary{
			WeekStart:           window.start,
			WeekEnd:             window.end,
			Buckets:             weekTotals,
			AvailabilityPercent: percent,
		})
		vehicle.Totals.Add(weekTotals)
	}

	if granularity == model.GranularityMonth {
		vehicle.AvailabilityPercent = mean(weekPercents)
		vehicle.Rows = append(vehicle.Rows, model.ReportRow{
			Kind:            model.RowMonthTotal,
			Label:           model.MarkerGrandMonthlyTotal,
			DurationMinutes: vehicle.Totals.DurationMinutes(),
			Buckets:         vehicle.Totals,
		})
		p := vehicle.AvailabilityPercent
		vehicle.Rows = append(vehicle.Rows, model.ReportRow{
			Kind:                model.RowMonthalAvailability,
			Label:               model.MarkerMonthlyAvailability,
			AvailabilityPercent: &p,
		})
	} else {
		vehicle.AvailabilityPercent = AvailabilityPercent(vehicle.Totals)
	}

	return vehicle
}

// appendWindowRows emits the event rows of one week window, interleaving a
// DAY TOTAL marker row after each day, and returns the window's totals.
func appendWindowRows(vehicle *model.VehicleReport, events []model.ClassifiedIdleEvent) model.BucketTotals {
	var windowTotals, dayTotals model.BucketTotals
	currentDay := ""

	flushDay := func() {
		if currentDay == "" {
			return
		}
		vehicle.Rows = append(vehicle.Rows, model.ReportRow{
			Kind:            model.RowDayTotal,
			Label:           model.MarkerDayTotal,
			Period:          currentDay,
			DurationMinutes: dayTotals.DurationMinutes(),
			Buckets:         dayTotals,
		})
		dayTotals = model.BucketTotals{}
	}

	for _, event := range events {
		day := formatDay(event.IdleStart)
		if day != currentDay {
			flushDay()
			currentDay = day
		}

		buckets := eventBuckets(event)
		vehicle.Rows = append(vehicle.Rows, model.ReportRow{
			Kind:            model.RowEvent,
			Period:          day,
			Start:           formatClock(event.IdleStart),
			End:             formatClock(event.IdleEnd),
			DurationMinutes: event.DurationMinutes,
			Location:        event.LocationAddress,
			Buckets:         buckets,
		})
		dayTotals.Add(buckets)
		windowTotals.Add(buckets)
	}
	flushDay()
	return windowTotals
}

func eventBuckets(event model.ClassifiedIdleEvent) model.BucketTotals {
	return model.BucketTotals{
		IncidentMinutes:    event.IncidentMinutes,
		BreakMinutes:       event.BreakMinutes,
		PickupMinutes:      event.PickupMinutes,
		UnjustifiedMinutes: event.UnjustifiedMinutes,
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 100
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatClock(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("15:04")
}
