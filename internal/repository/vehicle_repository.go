package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/fleetops-idle/internal/model"
)

// VehicleRepository resolves plates to contractors from the vehicle
// register owned by the main CRUD application.
type VehicleRepository struct {
	db *gorm.DB
}

func NewVehicleRepository(db *gorm.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// ContractorForPlate returns the contractor owning the plate, nil when the
// vehicle is not registered. Plates in the register are stored normalized.
func (r *VehicleRepository) ContractorForPlate(ctx context.Context, plate string) (*uuid.UUID, error) {
	var rows []struct {
		ContractorID *uuid.UUID
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT contractor_id
		FROM vehicles
		WHERE plate = ?
		LIMIT 1
	`, plate).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].ContractorID, nil
}

// ListPlatesForContractor returns the plates registered to one contractor,
// used to scope contractor-issued report requests.
func (r *VehicleRepository) ListPlatesForContractor(ctx context.Context, contractorID uuid.UUID) ([]string, error) {
	var plates []string
	err := r.db.WithContext(ctx).Raw(`
		SELECT plate
		FROM vehicles
		WHERE contractor_id = ?
		ORDER BY plate ASC
	`, contractorID).Scan(&plates).Error
	if err != nil {
		return nil, err
	}
	return plates, nil
}

// GetContractor loads one contractor for report headers.
func (r *VehicleRepository) GetContractor(ctx context.Context, id uuid.UUID) (*model.Contractor, error) {
	var contractor model.Contractor
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, phone, address
		FROM contractors
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&contractor).Error
	if err != nil {
		return nil, err
	}
	if contractor.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &contractor, nil
}
