package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/fleetops-idle/internal/config"
	"github.com/nurpe/fleetops-idle/internal/model"
)

type stubEventStore struct {
	inserted []model.IdleEvent
	ids      []uuid.UUID
	deleted  int64
	err      error
}

func (s *stubEventStore) BulkInsert(_ context.Context, events []model.IdleEvent) ([]uuid.UUID, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.inserted = events
	if s.ids == nil {
		for range events {
			s.ids = append(s.ids, uuid.New())
		}
	}
	return s.ids, nil
}

func (s *stubEventStore) DeleteByIDs(_ context.Context, _ []uuid.UUID) (int64, error) {
	return s.deleted, s.err
}

type stubVehicleStore struct {
	byPlate map[string]uuid.UUID
	plates  []string
	err     error
}

func (s *stubVehicleStore) ContractorForPlate(_ context.Context, plate string) (*uuid.UUID, error) {
	if s.err != nil {
		return nil, s.err
	}
	if id, ok := s.byPlate[plate]; ok {
		return &id, nil
	}
	return nil, nil
}

func (s *stubVehicleStore) ListPlatesForContractor(_ context.Context, _ uuid.UUID) ([]string, error) {
	return s.plates, s.err
}

func newIngestService(events *stubEventStore, vehicles *stubVehicleStore, hints map[string]model.SourceFormat) *IngestService {
	cfg := &config.Config{}
	cfg.Ingest.ContractorFormats = hints
	return NewIngestService(events, vehicles, cfg, zerolog.Nop())
}

const stopReportHTML = `<html><body>
<table>
<tr><th>Status</th><th>Stop position</th><th>Start</th><th>End</th><th>Duration</th><th>Vehicle</th></tr>
<tr><td>Stopped</td><td>Thika Road, Nairobi</td><td>09:00</td><td>09:15</td><td>0:15:00</td><td>KDG 320Z</td></tr>
<tr><td>Moving</td><td></td><td>09:15</td><td>09:40</td><td>0:25:00</td><td>KDG 320Z</td></tr>
</table>
</body></html>`

func engineerPrincipal() model.Principal {
	return model.Principal{UserID: uuid.New(), OrgID: uuid.New(), Role: model.RoleEngineer}
}

func contractorPrincipal(name string) model.Principal {
	return model.Principal{UserID: uuid.New(), OrgID: uuid.New(), Role: model.RoleContractor, ContractorName: name}
}

func TestPreviewDriverDenied(t *testing.T) {
	svc := newIngestService(&stubEventStore{}, &stubVehicleStore{}, nil)

	_, err := svc.Preview(context.Background(), []byte(stopReportHTML), model.Principal{Role: model.RoleDriver})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestPreviewEmptyUpload(t *testing.T) {
	svc := newIngestService(&stubEventStore{}, &stubVehicleStore{}, nil)

	_, err := svc.Preview(context.Background(), nil, engineerPrincipal())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPreviewStampsUploader(t *testing.T) {
	contractorID := uuid.New()
	vehicles := &stubVehicleStore{byPlate: map[string]uuid.UUID{"KDG 320Z": contractorID}}
	svc := newIngestService(&stubEventStore{}, vehicles, nil)
	principal := engineerPrincipal()

	result, err := svc.Preview(context.Background(), []byte(stopReportHTML), principal)
	require.NoError(t, err)
	assert.Equal(t, model.FormatStopReportHTML, result.Format)
	require.Len(t, result.Events, 1)
	require.NotNil(t, result.Events[0].UploadedByID)
	assert.Equal(t, principal.UserID, *result.Events[0].UploadedByID)
	require.NotNil(t, result.Events[0].ContractorID)
	assert.Equal(t, contractorID, *result.Events[0].ContractorID)
}

func TestPreviewContractorNameIsHint(t *testing.T) {
	// an all-numeric grid carries no signature; the contractor's configured
	// format decides
	hints := map[string]model.SourceFormat{"acme logistics": model.FormatStopReportHTML}
	svc := newIngestService(&stubEventStore{}, &stubVehicleStore{}, hints)

	upload := `<html><table>
<tr><td>1</td><td>2</td></tr>
</table></html>`
	result, err := svc.Preview(context.Background(), []byte(upload), contractorPrincipal("Acme Logistics"))
	require.NoError(t, err)
	assert.Equal(t, model.FormatStopReportHTML, result.Format)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "contractor hint")
}

func TestConfirmValidation(t *testing.T) {
	store := &stubEventStore{}
	svc := newIngestService(store, &stubVehicleStore{}, nil)
	principal := engineerPrincipal()

	_, err := svc.Confirm(context.Background(), nil, principal)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Confirm(context.Background(), []model.IdleEvent{
		{VehiclePlate: "KDG 320Z", DurationMinutes: -5},
	}, principal)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Confirm(context.Background(), []model.IdleEvent{{}}, model.Principal{Role: model.RoleDriver})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestConfirmContractorScope(t *testing.T) {
	store := &stubEventStore{}
	svc := newIngestService(store, &stubVehicleStore{}, nil)
	principal := contractorPrincipal("Acme Logistics")

	other := uuid.New()
	_, err := svc.Confirm(context.Background(), []model.IdleEvent{
		{VehiclePlate: "KDG 320Z", DurationMinutes: 10, ContractorID: &other},
	}, principal)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	own := principal.OrgID
	ids, err := svc.Confirm(context.Background(), []model.IdleEvent{
		{VehiclePlate: "KDG 320Z", DurationMinutes: 10, ContractorID: &own},
	}, principal)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
	require.Len(t, store.inserted, 1)
	require.NotNil(t, store.inserted[0].UploadedByID)
	assert.Equal(t, principal.UserID, *store.inserted[0].UploadedByID)
}

func TestDeleteEngineerOnly(t *testing.T) {
	svc := newIngestService(&stubEventStore{deleted: 2}, &stubVehicleStore{}, nil)

	_, err := svc.Delete(context.Background(), []uuid.UUID{uuid.New()}, contractorPrincipal("Acme"))
	assert.ErrorIs(t, err, ErrPermissionDenied)

	deleted, err := svc.Delete(context.Background(), []uuid.UUID{uuid.New(), uuid.New()}, engineerPrincipal())
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
}

func TestDeleteNotFound(t *testing.T) {
	svc := newIngestService(&stubEventStore{deleted: 0}, &stubVehicleStore{}, nil)

	_, err := svc.Delete(context.Background(), []uuid.UUID{uuid.New()}, engineerPrincipal())
	assert.ErrorIs(t, err, ErrNotFound)
}
