package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/fleetops-idle/internal/config"
	"github.com/nurpe/fleetops-idle/internal/ingest"
	"github.com/nurpe/fleetops-idle/internal/model"
)

// IdleEventStore is the persistence surface the ingest service needs.
type IdleEventStore interface {
	BulkInsert(ctx context.Context, events []model.IdleEvent) ([]uuid.UUID, error)
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// VehicleStore resolves plates and contractor scoping.
type VehicleStore interface {
	ContractorForPlate(ctx context.Context, plate string) (*uuid.UUID, error)
	ListPlatesForContractor(ctx context.Context, contractorID uuid.UUID) ([]string, error)
}

// IngestService runs the upload pipeline and owns the explicit
// confirm/delete persistence steps. Preview never persists anything.
type IngestService struct {
	events   IdleEventStore
	vehicles VehicleStore
	hints    map[string]model.SourceFormat
	log      zerolog.Logger
}

func NewIngestService(events IdleEventStore, vehicles VehicleStore, cfg *config.Config, log zerolog.Logger) *IngestService {
	return &IngestService{
		events:   events,
		vehicles: vehicles,
		hints:    cfg.Ingest.ContractorFormats,
		log:      log,
	}
}

// Preview detects, normalizes and returns the upload's events for user
// review. Contractor principals implicitly supply their own name as the
// detector hint.
func (s *IngestService) Preview(ctx context.Context, data []byte, principal model.Principal) (*ingest.Result, error) {
	if principal.IsDriver() {
		return nil, ErrPermissionDenied
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrInvalidInput)
	}

	contractorHint := ""
	if principal.IsContractor() {
		contractorHint = principal.ContractorName
	}

	lookup := func(plate string) *uuid.UUID {
		contractorID, err := s.vehicles.ContractorForPlate(ctx, plate)
		if err != nil {
			// an unresolved contractor is a warning on the preview, not a
			// reason to abort the whole upload
			s.log.Warn().Err(err).Str("plate", plate).Msg("ingest: contractor lookup failed")
			return nil
		}
		return contractorID
	}

	pipeline := ingest.NewPipeline(s.log, s.hints, lookup)
	result, err := pipeline.Process(data, contractorHint)
	if err != nil {
		return nil, err
	}

	for i := range result.Events {
		userID := principal.UserID
		result.Events[i].UploadedByID = &userID
	}
	return result, nil
}

// Confirm is the single explicit persistence step: the reviewed events are
// appended in one bulk insert. Contractors may only confirm events resolved
// to their own organization.
func (s *IngestService) Confirm(ctx context.Context, events []model.IdleEvent, principal model.Principal) ([]uuid.UUID, error) {
	if principal.IsDriver() {
		return nil, ErrPermissionDenied
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: no events to confirm", ErrInvalidInput)
	}

	for i := range events {
		event := &events[i]
		if event.DurationMinutes < 0 {
			return nil, fmt.Errorf("%w: negative duration on event %d", ErrInvalidInput, i)
		}
		if !event.IdleStart.IsZero() && !event.IdleEnd.IsZero() && event.IdleEnd.Before(event.IdleStart) {
			return nil, fmt.Errorf("%w: idle_end before idle_start on event %d", ErrInvalidInput, i)
		}
		if principal.IsContractor() {
			if event.ContractorID == nil || *event.ContractorID != principal.OrgID {
				return nil, ErrPermissionDenied
			}
		}
		userID := principal.UserID
		event.UploadedByID = &userID
	}

	ids, err := s.events.BulkInsert(ctx, events)
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Int("count", len(ids)).
		Str("user", principal.UserID.String()).
		Msg("ingest: events confirmed")
	return ids, nil
}

// Delete removes persisted events in bulk. Engineer only.
func (s *IngestService) Delete(ctx context.Context, ids []uuid.UUID, principal model.Principal) (int64, error) {
	if !principal.IsEngineer() {
		return 0, ErrPermissionDenied
	}
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: no event ids", ErrInvalidInput)
	}
	deleted, err := s.events.DeleteByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	if deleted == 0 {
		return 0, ErrNotFound
	}
	return deleted, nil
}
