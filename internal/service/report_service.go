package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/fleetops-idle/internal/model"
	"github.com/nurpe/fleetops-idle/internal/parse"
	"github.com/nurpe/fleetops-idle/internal/reconcile"
)

// IdleEventReader is the report side's view of persisted events.
type IdleEventReader interface {
	ListForPeriod(ctx context.Context, plates []string, contractorID *uuid.UUID, from, to time.Time) ([]model.IdleEvent, error)
}

// IntervalStore reads the incident/break/pickup streams. A failure here
// propagates: the engine never guesses interval data.
type IntervalStore interface {
	ListIntervals(ctx context.Context, kind model.IntervalKind, plates []string, from, to time.Time) ([]model.IntervalRecord, error)
}

// ReportGenerator renders an availability report into a file body.
type ReportGenerator interface {
	Generate(report model.AvailabilityReport) ([]byte, error)
}

type ReportService struct {
	events    IdleEventReader
	intervals IntervalStore
	vehicles  VehicleStore
	excel     ReportGenerator
	pdf       ReportGenerator
	log       zerolog.Logger
}

func NewReportService(
	events IdleEventReader,
	intervals IntervalStore,
	vehicles VehicleStore,
	excel ReportGenerator,
	pdf ReportGenerator,
	log zerolog.Logger,
) *ReportService {
	return &ReportService{
		events:    events,
		intervals: intervals,
		vehicles:  vehicles,
		excel:     excel,
		pdf:       pdf,
		log:       log,
	}
}

type ReportInput struct {
	Granularity model.ReportGranularity
	PeriodStart time.Time
	PeriodEnd   time.Time
	Plates      []string
	Principal   model.Principal
}

type ExportResult struct {
	FileName string
	Content  []byte
}

// GenerateReport runs the reconciliation and aggregation pipeline over the
// persisted events of the requested period. Contractor principals are
// scoped to their own fleet regardless of the requested plate list.
func (s *ReportService) GenerateReport(ctx context.Context, input ReportInput) (*model.AvailabilityReport, error) {
	if input.Principal.IsDriver() {
		return nil, ErrPermissionDenied
	}
	if input.PeriodStart.IsZero() || input.PeriodEnd.IsZero() {
		return nil, fmt.Errorf("%w: period dates are required", ErrInvalidInput)
	}

	periodStart := dateOnly(input.PeriodStart)
	periodEnd := dateOnly(input.PeriodEnd)
	if periodStart.After(periodEnd) {
		return nil, fmt.Errorf("%w: period_start must be before or equal to period_end", ErrInvalidInput)
	}
	endExclusive := periodEnd.Add(24 * time.Hour)

	plates := normalizePlates(input.Plates)
	var contractorID *uuid.UUID
	if input.Principal.IsContractor() {
		orgID := input.Principal.OrgID
		contractorID = &orgID
		if len(plates) == 0 {
			// include the contractor's zero-event vehicles in the report
			owned, err := s.vehicles.ListPlatesForContractor(ctx, orgID)
			if err != nil {
				return nil, err
			}
			plates = normalizePlates(owned)
		}
	}

	events, err := s.events.ListForPeriod(ctx, plates, contractorID, periodStart, endExclusive)
	if err != nil {
		return nil, err
	}

	intervalPlates := plates
	if len(intervalPlates) == 0 {
		intervalPlates = eventPlates(events)
	}

	incidents, err := s.intervals.ListIntervals(ctx, model.IntervalIncident, intervalPlates, periodStart, endExclusive)
	if err != nil {
		return nil, err
	}
	breaks, err := s.intervals.ListIntervals(ctx, model.IntervalBreak, intervalPlates, periodStart, endExclusive)
	if err != nil {
		return nil, err
	}
	pickups, err := s.intervals.ListIntervals(ctx, model.IntervalPickup, intervalPlates, periodStart, endExclusive)
	if err != nil {
		return nil, err
	}

	classified := reconcile.Reconcile(events, incidents, breaks, pickups)
	report := reconcile.Aggregate(classified, periodStart, endExclusive, input.Granularity, plates)

	s.log.Info().
		Str("granularity", string(input.Granularity)).
		Int("events", len(events)).
		Int("vehicles", len(report.Vehicles)).
		Msg("report: generated")
	return &report, nil
}

func (s *ReportService) ExportXLSX(ctx context.Context, input ReportInput) (*ExportResult, error) {
	report, err := s.GenerateReport(ctx, input)
	if err != nil {
		return nil, err
	}
	content, err := s.excel.Generate(*report)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		FileName: buildFileName(*report, "xlsx"),
		Content:  content,
	}, nil
}

func (s *ReportService) ExportPDF(ctx context.Context, input ReportInput) (*ExportResult, error) {
	report, err := s.GenerateReport(ctx, input)
	if err != nil {
		return nil, err
	}
	content, err := s.pdf.Generate(*report)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		FileName: buildFileName(*report, "pdf"),
		Content:  content,
	}, nil
}

func buildFileName(report model.AvailabilityReport, extension string) string {
	granularity := strings.ToLower(string(report.Granularity))
	period := fmt.Sprintf("%s-%s",
		report.PeriodStart.Format("20060102"),
		report.PeriodEnd.AddDate(0, 0, -1).Format("20060102"))
	return fmt.Sprintf("availability-%s-%s.%s", granularity, period, extension)
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func normalizePlates(raw []string) []string {
	plates := make([]string, 0, len(raw))
	for _, candidate := range raw {
		if plate := parse.NormalizePlate(candidate); plate != "" {
			plates = append(plates, plate)
		}
	}
	return plates
}

func eventPlates(events []model.IdleEvent) []string {
	seen := make(map[string]struct{}, len(events))
	var plates []string
	for _, event := range events {
		plate := parse.NormalizePlate(event.VehiclePlate)
		if plate == "" {
			continue
		}
		if _, ok := seen[plate]; ok {
			continue
		}
		seen[plate] = struct{}{}
		plates = append(plates, plate)
	}
	return plates
}
