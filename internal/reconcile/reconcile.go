// Package reconcile classifies normalized idle events against the recorded
// incident, break and pickup streams and rolls the classified events up
// into availability reports.
package reconcile

import (
	"github.com/nurpe/fleetops-idle/internal/model"
	"github.com/nurpe/fleetops-idle/internal/parse"
)

// Reconcile attributes each idle event's full duration to exactly one
// bucket. An event is tested against incidents first, then breaks, then
// pickups; the first interval kind with any overlap takes the whole
// duration and the remaining kinds are not consulted. An event overlapping
// nothing is unjustified. The single-bucket attribution is deliberate: the
// duration is never split across kinds even when intervals of several kinds
// overlap it.
func Reconcile(events []model.IdleEvent, incidents, breaks, pickups []model.IntervalRecord) []model.ClassifiedIdleEvent {
	incidentsByPlate := indexByPlate(incidents)
	breaksByPlate := indexByPlate(breaks)
	pickupsByPlate := indexByPlate(pickups)

	classified := make([]model.ClassifiedIdleEvent, 0, len(events))
	for _, event := range events {
		out := model.ClassifiedIdleEvent{IdleEvent: event}
		plate := parse.NormalizePlate(event.VehiclePlate)

		if match := firstOverlap(incidentsByPlate[plate], event); match != nil {
			out.IncidentMinutes = event.DurationMinutes
			out.Justification = match.Justification
		} else if match := firstOverlap(breaksByPlate[plate], event); match != nil {
			out.BreakMinutes = event.DurationMinutes
			out.Justification = match.Justification
		} else if match := firstOverlap(pickupsByPlate[plate], event); match != nil {
			out.PickupMinutes = event.DurationMinutes
			out.Justification = match.Justification
		} else {
			out.UnjustifiedMinutes = event.DurationMinutes
		}

		classified = append(classified, out)
	}
	return classified
}

func indexByPlate(records []model.IntervalRecord) map[string][]model.IntervalRecord {
	byPlate := make(map[string][]model.IntervalRecord, len(records))
	for _, record := range records {
		plate := parse.NormalizePlate(record.VehiclePlate)
		byPlate[plate] = append(byPlate[plate], record)
	}
	return byPlate
}

func firstOverlap(records []model.IntervalRecord, event model.IdleEvent) *model.IntervalRecord {
	for i := range records {
		if records[i].Overlaps(event.IdleStart, event.IdleEnd) {
			return &records[i]
		}
	}
	return nil
}
