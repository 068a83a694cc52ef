package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/fleetops-idle/internal/model"
)

type IdleEventRepository struct {
	db *gorm.DB
}

func NewIdleEventRepository(db *gorm.DB) *IdleEventRepository {
	return &IdleEventRepository{db: db}
}

// BulkInsert appends confirmed idle events in one transaction. Events are
// append-only: nothing here updates an existing row.
func (r *IdleEventRepository) BulkInsert(ctx context.Context, events []model.IdleEvent) ([]uuid.UUID, error) {
	if len(events) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(events))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, event := range events {
			var id uuid.UUID
			err := tx.Raw(`
				INSERT INTO idle_events (
					vehicle_plate,
					idle_start,
					idle_end,
					duration_minutes,
					location_address,
					latitude,
					longitude,
					source_format,
					contractor_id,
					uploaded_by_id
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				RETURNING id
			`,
				event.VehiclePlate,
				nullableTime(event.IdleStart),
				nullableTime(event.IdleEnd),
				event.DurationMinutes,
				event.LocationAddress,
				event.Latitude,
				event.Longitude,
				event.SourceFormat,
				event.ContractorID,
				event.UploadedByID,
			).Scan(&id).Error
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// DeleteByIDs removes persisted events in bulk and reports how many rows
// actually existed.
func (r *IdleEventRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Exec(`
		DELETE FROM idle_events WHERE id = ANY(?)
	`, ids)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ListForPeriod returns events whose idle start falls in [from, to),
// optionally narrowed to a plate list or one contractor.
func (r *IdleEventRepository) ListForPeriod(
	ctx context.Context,
	plates []string,
	contractorID *uuid.UUID,
	from, to time.Time,
) ([]model.IdleEvent, error) {
	baseQuery := `
		SELECT
			id,
			vehicle_plate,
			idle_start,
			idle_end,
			duration_minutes,
			location_address,
			latitude,
			longitude,
			source_format,
			contractor_id,
			uploaded_by_id,
			created_at
		FROM idle_events
		WHERE idle_start >= ?
			AND idle_start < ?
	`
	args := []interface{}{from, to}
	var filters []string
	if len(plates) > 0 {
		filters = append(filters, "vehicle_plate = ANY(?)")
		args = append(args, plates)
	}
	if contractorID != nil {
		filters = append(filters, "contractor_id = ?")
		args = append(args, *contractorID)
	}
	if len(filters) > 0 {
		baseQuery += " AND " + strings.Join(filters, " AND ")
	}
	baseQuery += " ORDER BY vehicle_plate ASC, idle_start ASC"

	var rows []struct {
		ID              uuid.UUID
		VehiclePlate    string
		IdleStart       *time.Time
		IdleEnd         *time.Time
		DurationMinutes float64
		LocationAddress string
		Latitude        *float64
		Longitude       *float64
		SourceFormat    string
		ContractorID    *uuid.UUID
		UploadedByID    *uuid.UUID
		CreatedAt       time.Time
	}
	if err := r.db.WithContext(ctx).Raw(baseQuery, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list idle events: %w", err)
	}

	events := make([]model.IdleEvent, 0, len(rows))
	for _, row := range rows {
		event := model.IdleEvent{
			ID:              row.ID,
			VehiclePlate:    row.VehiclePlate,
			DurationMinutes: row.DurationMinutes,
			LocationAddress: row.LocationAddress,
			Latitude:        row.Latitude,
			Longitude:       row.Longitude,
			SourceFormat:    model.SourceFormat(row.SourceFormat),
			ContractorID:    row.ContractorID,
			UploadedByID:    row.UploadedByID,
			CreatedAt:       row.CreatedAt,
		}
		if row.IdleStart != nil {
			event.IdleStart = *row.IdleStart
		}
		if row.IdleEnd != nil {
			event.IdleEnd = *row.IdleEnd
		}
		events = append(events, event)
	}
	return events, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
