package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/fleetops-idle/internal/http/middleware"
	"github.com/nurpe/fleetops-idle/internal/ingest"
	"github.com/nurpe/fleetops-idle/internal/model"
	"github.com/nurpe/fleetops-idle/internal/service"
)

type Handler struct {
	ingest    *service.IngestService
	reports   *service.ReportService
	maxUpload int64
	log       zerolog.Logger
}

func NewHandler(ingestSvc *service.IngestService, reportSvc *service.ReportService, maxUpload int64, log zerolog.Logger) *Handler {
	return &Handler{ingest: ingestSvc, reports: reportSvc, maxUpload: maxUpload, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)
	protected.POST("/idle-reports/preview", h.previewIdleReport)
	protected.POST("/idle-reports/confirm", h.confirmIdleReport)
	protected.DELETE("/idle-reports", h.deleteIdleEvents)
	protected.POST("/reports/availability", h.availabilityReport)
	protected.POST("/reports/availability/export", h.exportAvailabilityXLSX)
	protected.POST("/reports/availability/export/pdf", h.exportAvailabilityPDF)
}

type idleEventPayload struct {
	ID              string   `json:"id,omitempty"`
	VehiclePlate    string   `json:"vehicle_plate"`
	IdleStart       string   `json:"idle_start,omitempty"`
	IdleEnd         string   `json:"idle_end,omitempty"`
	DurationMinutes float64  `json:"duration_minutes"`
	LocationAddress string   `json:"location_address"`
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
	SourceFormat    string   `json:"source_format"`
	ContractorID    string   `json:"contractor_id,omitempty"`
}

type previewResponse struct {
	Format        string             `json:"format"`
	DetectedPlate string             `json:"detected_plate,omitempty"`
	Events        []idleEventPayload `json:"events"`
	Warnings      []string           `json:"warnings,omitempty"`
}

func (h *Handler) previewIdleReport(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file upload"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}
	if int64(len(data)) > h.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload exceeds size limit"})
		return
	}

	result, err := h.ingest.Preview(c.Request.Context(), data, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildPreviewResponse(result))
}

func buildPreviewResponse(result *ingest.Result) previewResponse {
	resp := previewResponse{
		Format:        string(result.Format),
		DetectedPlate: result.DetectedPlate,
		Events:        make([]idleEventPayload, 0, len(result.Events)),
		Warnings:      result.Warnings,
	}
	for _, event := range result.Events {
		resp.Events = append(resp.Events, buildEventPayload(event))
	}
	return resp
}

func buildEventPayload(event model.IdleEvent) idleEventPayload {
	payload := idleEventPayload{
		VehiclePlate:    event.VehiclePlate,
		DurationMinutes: event.DurationMinutes,
		LocationAddress: event.LocationAddress,
		Latitude:        event.Latitude,
		Longitude:       event.Longitude,
		SourceFormat:    string(event.SourceFormat),
	}
	if event.ID != uuid.Nil {
		payload.ID = event.ID.String()
	}
	if !event.IdleStart.IsZero() {
		payload.IdleStart = event.IdleStart.Format(time.RFC3339)
	}
	if !event.IdleEnd.IsZero() {
		payload.IdleEnd = event.IdleEnd.Format(time.RFC3339)
	}
	if event.ContractorID != nil {
		payload.ContractorID = event.ContractorID.String()
	}
	return payload
}

type confirmRequest struct {
	Events []idleEventPayload `json:"events" binding:"required"`
}

func (h *Handler) confirmIdleReport(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	events := make([]model.IdleEvent, 0, len(req.Events))
	for i, payload := range req.Events {
		event, err := parseEventPayload(payload)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event at index " + strconv.Itoa(i) + ": " + err.Error()})
			return
		}
		events = append(events, event)
	}

	ids, err := h.ingest.Confirm(c.Request.Context(), events, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	saved := make([]string, 0, len(ids))
	for _, id := range ids {
		saved = append(saved, id.String())
	}
	c.JSON(http.StatusCreated, gin.H{"ids": saved, "count": len(saved)})
}

func parseEventPayload(payload idleEventPayload) (model.IdleEvent, error) {
	event := model.IdleEvent{
		VehiclePlate:    strings.TrimSpace(payload.VehiclePlate),
		DurationMinutes: payload.DurationMinutes,
		LocationAddress: strings.TrimSpace(payload.LocationAddress),
		Latitude:        payload.Latitude,
		Longitude:       payload.Longitude,
		SourceFormat:    model.SourceFormat(payload.SourceFormat),
	}
	if payload.IdleStart != "" {
		start, err := parseDate(payload.IdleStart)
		if err != nil {
			return model.IdleEvent{}, errors.New("invalid idle_start")
		}
		event.IdleStart = start
	}
	if payload.IdleEnd != "" {
		end, err := parseDate(payload.IdleEnd)
		if err != nil {
			return model.IdleEvent{}, errors.New("invalid idle_end")
		}
		event.IdleEnd = end
	}
	if payload.ContractorID != "" {
		contractorID, err := uuid.Parse(strings.TrimSpace(payload.ContractorID))
		if err != nil {
			return model.IdleEvent{}, errors.New("invalid contractor_id")
		}
		event.ContractorID = &contractorID
	}
	return event, nil
}

type deleteEventsRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

func (h *Handler) deleteIdleEvents(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req deleteEventsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
			return
		}
		ids = append(ids, id)
	}

	deleted, err := h.ingest.Delete(c.Request.Context(), ids, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

type availabilityRequest struct {
	Granularity string   `json:"granularity" binding:"required"`
	PeriodStart string   `json:"period_start" binding:"required"`
	PeriodEnd   string   `json:"period_end" binding:"required"`
	Plates      []string `json:"plates"`
}

func (h *Handler) availabilityReport(c *gin.Context) {
	input, ok := h.bindReportInput(c)
	if !ok {
		return
	}

	report, err := h.reports.GenerateReport(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildReportResponse(*report))
}

func (h *Handler) exportAvailabilityXLSX(c *gin.Context) {
	input, ok := h.bindReportInput(c)
	if !ok {
		return
	}

	result, err := h.reports.ExportXLSX(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	const contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, contentType, result.Content)
}

func (h *Handler) exportAvailabilityPDF(c *gin.Context) {
	input, ok := h.bindReportInput(c)
	if !ok {
		return
	}

	result, err := h.reports.ExportPDF(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

func (h *Handler) bindReportInput(c *gin.Context) (service.ReportInput, bool) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return service.ReportInput{}, false
	}

	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return service.ReportInput{}, false
	}

	granularity, err := parseGranularity(req.Granularity)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid granularity"})
		return service.ReportInput{}, false
	}

	start, err := parseDate(req.PeriodStart)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_start"})
		return service.ReportInput{}, false
	}

	end, err := parseDate(req.PeriodEnd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_end"})
		return service.ReportInput{}, false
	}

	return service.ReportInput{
		Granularity: granularity,
		PeriodStart: start,
		PeriodEnd:   end,
		Plates:      req.Plates,
		Principal:   principal,
	}, true
}

type bucketPayload struct {
	IncidentMinutes    float64 `json:"incident_minutes"`
	BreakMinutes       float64 `json:"break_minutes"`
	PickupMinutes      float64 `json:"pickup_minutes"`
	UnjustifiedMinutes float64 `json:"unjustified_minutes"`
}

type reportRowPayload struct {
	Kind                string        `json:"kind"`
	Label               string        `json:"label,omitempty"`
	Period              string        `json:"period,omitempty"`
	Start               string        `json:"start,omitempty"`
	End                 string        `json:"end,omitempty"`
	DurationMinutes     float64       `json:"duration_minutes"`
	Location            string        `json:"location,omitempty"`
	Buckets             bucketPayload `json:"buckets"`
	AvailabilityPercent *float64      `json:"availability_percent,omitempty"`
}

type weekSummaryPayload struct {
	WeekStart           string        `json:"week_start"`
	WeekEnd             string        `json:"week_end"`
	Buckets             bucketPayload `json:"buckets"`
	AvailabilityPercent float64       `json:"availability_percent"`
}

type vehicleReportPayload struct {
	VehiclePlate        string               `json:"vehicle_plate"`
	ContractorID        string               `json:"contractor_id,omitempty"`
	Rows                []reportRowPayload   `json:"rows"`
	Weeks               []weekSummaryPayload `json:"weeks"`
	Totals              bucketPayload        `json:"totals"`
	AvailabilityPercent float64              `json:"availability_percent"`
}

type reportResponse struct {
	Granularity string                 `json:"granularity"`
	PeriodStart string                 `json:"period_start"`
	PeriodEnd   string                 `json:"period_end"`
	Vehicles    []vehicleReportPayload `json:"vehicles"`
}

func buildReportResponse(report model.AvailabilityReport) reportResponse {
	resp := reportResponse{
		Granularity: string(report.Granularity),
		PeriodStart: report.PeriodStart.Format("2006-01-02"),
		PeriodEnd:   report.PeriodEnd.AddDate(0, 0, -1).Format("2006-01-02"),
		Vehicles:    make([]vehicleReportPayload, 0, len(report.Vehicles)),
	}
	for _, vehicle := range report.Vehicles {
		payload := vehicleReportPayload{
			VehiclePlate:        vehicle.VehiclePlate,
			Rows:                make([]reportRowPayload, 0, len(vehicle.Rows)),
			Weeks:               make([]weekSummaryPayload, 0, len(vehicle.Weeks)),
			Totals:              buildBucketPayload(vehicle.Totals),
			AvailabilityPercent: vehicle.AvailabilityPercent,
		}
		if vehicle.ContractorID != nil {
			payload.ContractorID = vehicle.ContractorID.String()
		}
		for _, row := range vehicle.Rows {
			payload.Rows = append(payload.Rows, reportRowPayload{
				Kind:                string(row.Kind),
				Label:               row.Label,
				Period:              row.Period,
				Start:               row.Start,
				End:                 row.End,
				DurationMinutes:     row.DurationMinutes,
				Location:            row.Location,
				Buckets:             buildBucketPayload(row.Buckets),
				AvailabilityPercent: row.AvailabilityPercent,
			})
		}
		for _, week := range vehicle.Weeks {
			payload.Weeks = append(payload.Weeks, weekSummaryPayload{
				WeekStart:           week.WeekStart.Format("2006-01-02"),
				WeekEnd:             week.WeekEnd.AddDate(0, 0, -1).Format("2006-01-02"),
				Buckets:             buildBucketPayload(week.Buckets),
				AvailabilityPercent: week.AvailabilityPercent,
			})
		}
		resp.Vehicles = append(resp.Vehicles, payload)
	}
	return resp
}

func buildBucketPayload(b model.BucketTotals) bucketPayload {
	return bucketPayload{
		IncidentMinutes:    b.IncidentMinutes,
		BreakMinutes:       b.BreakMinutes,
		PickupMinutes:      b.PickupMinutes,
		UnjustifiedMinutes: b.UnjustifiedMinutes,
	}
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ingest.ErrUnreadableDocument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseGranularity(raw string) (model.ReportGranularity, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "WEEK", "WEEKLY":
		return model.GranularityWeek, nil
	case "MONTH", "MONTHLY":
		return model.GranularityMonth, nil
	default:
		return "", service.ErrInvalidInput
	}
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}
