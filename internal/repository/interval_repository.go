package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/fleetops-idle/internal/model"
)

// Table layout of the three interval-record kinds, all owned by the main
// CRUD application. Only the table and justification column names differ.
var intervalSources = map[model.IntervalKind]struct {
	table         string
	justification string
}{
	model.IntervalIncident: {table: "incidents", justification: "description"},
	model.IntervalBreak:    {table: "breaks", justification: "reason"},
	model.IntervalPickup:   {table: "pickups", justification: "notes"},
}

// IntervalRepository reads the incident/break/pickup streams consumed by
// reconciliation. This service never writes these tables.
type IntervalRepository struct {
	db *gorm.DB
}

func NewIntervalRepository(db *gorm.DB) *IntervalRepository {
	return &IntervalRepository{db: db}
}

// ListIntervals returns one kind's records touching the window [from, to),
// optionally narrowed to a plate list. Open-ended records (NULL ended_at)
// always qualify once started before the window's end.
func (r *IntervalRepository) ListIntervals(
	ctx context.Context,
	kind model.IntervalKind,
	plates []string,
	from, to time.Time,
) ([]model.IntervalRecord, error) {
	source, ok := intervalSources[kind]
	if !ok {
		return nil, fmt.Errorf("unknown interval kind %q", kind)
	}

	baseQuery := fmt.Sprintf(`
		SELECT
			id,
			vehicle_plate,
			started_at AS interval_start,
			ended_at AS interval_end,
			COALESCE(%s, '') AS justification
		FROM %s
		WHERE started_at < ?
			AND (ended_at IS NULL OR ended_at >= ?)
	`, source.justification, source.table)
	args := []interface{}{to, from}
	if len(plates) > 0 {
		baseQuery += " AND vehicle_plate = ANY(?)"
		args = append(args, plates)
	}
	baseQuery += " ORDER BY started_at ASC"

	var rows []struct {
		ID            uuid.UUID
		VehiclePlate  string
		IntervalStart time.Time
		IntervalEnd   *time.Time
		Justification string
	}
	if err := r.db.WithContext(ctx).Raw(baseQuery, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", source.table, err)
	}

	records := make([]model.IntervalRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, model.IntervalRecord{
			ID:            row.ID,
			Kind:          kind,
			VehiclePlate:  row.VehiclePlate,
			IntervalStart: row.IntervalStart,
			IntervalEnd:   row.IntervalEnd,
			Justification: row.Justification,
		})
	}
	return records, nil
}
