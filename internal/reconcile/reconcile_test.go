package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/fleetops-idle/internal/model"
)

func ts(hour, minute int) time.Time {
	return time.Date(2024, 3, 4, hour, minute, 0, 0, time.UTC)
}

func idleEvent(plate string, start, end time.Time) model.IdleEvent {
	return model.IdleEvent{
		VehiclePlate:    plate,
		IdleStart:       start,
		IdleEnd:         end,
		DurationMinutes: end.Sub(start).Minutes(),
	}
}

func interval(kind model.IntervalKind, plate string, start time.Time, end *time.Time) model.IntervalRecord {
	return model.IntervalRecord{
		Kind:          kind,
		VehiclePlate:  plate,
		IntervalStart: start,
		IntervalEnd:   end,
		Justification: string(kind) + " record",
	}
}

func ptr(t time.Time) *time.Time { return &t }

func TestReconcileBreakOverlap(t *testing.T) {
	// 20-minute idle, break covering its middle: the full duration goes to
	// the break bucket.
	events := []model.IdleEvent{idleEvent("KDG 320Z", ts(9, 0), ts(9, 20))}
	breaks := []model.IntervalRecord{
		interval(model.IntervalBreak, "KDG 320Z", ts(9, 5), ptr(ts(9, 15))),
	}

	classified := Reconcile(events, nil, breaks, nil)
	require.Len(t, classified, 1)
	assert.InDelta(t, 20.0, classified[0].BreakMinutes, 1e-9)
	assert.Zero(t, classified[0].IncidentMinutes)
	assert.Zero(t, classified[0].PickupMinutes)
	assert.Zero(t, classified[0].UnjustifiedMinutes)
}

func TestReconcileIncidentBeatsBreak(t *testing.T) {
	events := []model.IdleEvent{idleEvent("KDG 320Z", ts(9, 0), ts(9, 20))}
	incidents := []model.IntervalRecord{
		interval(model.IntervalIncident, "KDG 320Z", ts(9, 10), ptr(ts(9, 30))),
	}
	breaks := []model.IntervalRecord{
		interval(model.IntervalBreak, "KDG 320Z", ts(9, 0), ptr(ts(9, 20))),
	}

	classified := Reconcile(events, incidents, breaks, nil)
	require.Len(t, classified, 1)
	assert.InDelta(t, 20.0, classified[0].IncidentMinutes, 1e-9)
	assert.Zero(t, classified[0].BreakMinutes)
}

func TestReconcileBreakBeatsPickup(t *testing.T) {
	events := []model.IdleEvent{idleEvent("KDG 320Z", ts(9, 0), ts(9, 20))}
	breaks := []model.IntervalRecord{
		interval(model.IntervalBreak, "KDG 320Z", ts(9, 0), ptr(ts(9, 5))),
	}
	pickups := []model.IntervalRecord{
		interval(model.IntervalPickup, "KDG 320Z", ts(9, 0), ptr(ts(9, 20))),
	}

	classified := Reconcile(events, nil, breaks, pickups)
	require.Len(t, classified, 1)
	assert.InDelta(t, 20.0, classified[0].BreakMinutes, 1e-9)
	assert.Zero(t, classified[0].PickupMinutes)
}

func TestReconcileNoOverlapIsUnjustified(t *testing.T) {
	events := []model.IdleEvent{idleEvent("KDG 320Z", ts(9, 0), ts(9, 20))}
	breaks := []model.IntervalRecord{
		interval(model.IntervalBreak, "KDG 320Z", ts(11, 0), ptr(ts(11, 30))),
	}

	classified := Reconcile(events, nil, breaks, nil)
	require.Len(t, classified, 1)
	assert.InDelta(t, 20.0, classified[0].UnjustifiedMinutes, 1e-9)
	assert.Empty(t, classified[0].Justification)
}

func TestReconcileOpenIntervalExtendsForever(t *testing.T) {
	// a break with no recorded end overlaps any later idle time
	events := []model.IdleEvent{idleEvent("KDG 320Z", ts(15, 0), ts(15, 45))}
	breaks := []model.IntervalRecord{
		interval(model.IntervalBreak, "KDG 320Z", ts(9, 0), nil),
	}

	classified := Reconcile(events, nil, breaks, nil)
	require.Len(t, classified, 1)
	assert.InDelta(t, 45.0, classified[0].BreakMinutes, 1e-9)
}

func TestReconcileInclusiveBounds(t *testing.T) {
	// interval touching the idle event only at its very end still overlaps
	events := []model.IdleEvent{idleEvent("KDG 320Z", ts(9, 0), ts(9, 20))}
	pickups := []model.IntervalRecord{
		interval(model.IntervalPickup, "KDG 320Z", ts(9, 20), ptr(ts(9, 40))),
	}

	classified := Reconcile(events, nil, nil, pickups)
	require.Len(t, classified, 1)
	assert.InDelta(t, 20.0, classified[0].PickupMinutes, 1e-9)
}

func TestReconcileDifferentVehicleDoesNotMatch(t *testing.T) {
	events := []model.IdleEvent{idleEvent("KDG 320Z", ts(9, 0), ts(9, 20))}
	breaks := []model.IntervalRecord{
		interval(model.IntervalBreak, "KAA 111A", ts(9, 0), ptr(ts(9, 20))),
	}

	classified := Reconcile(events, nil, breaks, nil)
	require.Len(t, classified, 1)
	assert.InDelta(t, 20.0, classified[0].UnjustifiedMinutes, 1e-9)
}

func TestReconcilePlateNormalizationApplied(t *testing.T) {
	// vendor export says "kdg320z", the break record says "KDG 320Z"
	events := []model.IdleEvent{idleEvent("kdg320z", ts(9, 0), ts(9, 20))}
	breaks := []model.IntervalRecord{
		interval(model.IntervalBreak, "KDG 320Z", ts(9, 0), ptr(ts(9, 20))),
	}

	classified := Reconcile(events, nil, breaks, nil)
	require.Len(t, classified, 1)
	assert.InDelta(t, 20.0, classified[0].BreakMinutes, 1e-9)
}

func TestReconcileExclusivity(t *testing.T) {
	events := []model.IdleEvent{
		idleEvent("KDG 320Z", ts(8, 0), ts(8, 10)),
		idleEvent("KDG 320Z", ts(9, 0), ts(9, 20)),
		idleEvent("KAA 111A", ts(10, 0), ts(10, 30)),
		idleEvent("KBX 123A", ts(11, 0), ts(11, 5)),
	}
	incidents := []model.IntervalRecord{
		interval(model.IntervalIncident, "KDG 320Z", ts(8, 5), ptr(ts(8, 30))),
	}
	breaks := []model.IntervalRecord{
		interval(model.IntervalBreak, "KDG 320Z", ts(9, 0), ptr(ts(9, 30))),
	}
	pickups := []model.IntervalRecord{
		interval(model.IntervalPickup, "KAA 111A", ts(10, 15), nil),
	}

	for _, c := range Reconcile(events, incidents, breaks, pickups) {
		nonZero := 0
		total := 0.0
		for _, v := range []float64{c.IncidentMinutes, c.BreakMinutes, c.PickupMinutes, c.UnjustifiedMinutes} {
			if v != 0 {
				nonZero++
				total = v
			}
		}
		assert.Equal(t, 1, nonZero, "exactly one bucket must be set for %s %s", c.VehiclePlate, c.IdleStart)
		assert.InDelta(t, c.DurationMinutes, total, 1e-9)
	}
}
