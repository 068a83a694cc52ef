package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/fleetops-idle/internal/model"
)

type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Arial"}
}

func (g *Generator) Generate(report model.AvailabilityReport) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "Fleet Availability Report", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("%s, %s - %s",
		granularityLabel(report.Granularity),
		formatDate(report.PeriodStart),
		formatDate(report.PeriodEnd.AddDate(0, 0, -1)),
	), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	for i, vehicle := range report.Vehicles {
		if i > 0 {
			pdf.AddPage()
		}
		g.writeVehicle(pdf, vehicle)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var columnWidths = []float64{28, 16, 16, 24, 75, 24, 24, 24, 28}

func (g *Generator) writeVehicle(pdf *gofpdf.Fpdf, vehicle model.VehicleReport) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Vehicle %s", vehicle.VehiclePlate), "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Availability: %.2f%%", vehicle.AvailabilityPercent), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	headers := []string{
		"Date", "Start", "End", "Duration (min)", "Location",
		"Incident (min)", "Breaks (min)", "Pickups (min)", "Unjustified (min)",
	}
	drawRow(pdf, g.fontName, headers, true)

	for _, row := range vehicle.Rows {
		drawRow(pdf, g.fontName, reportRowCells(row), row.Label != "")
	}
	pdf.Ln(4)
}

func reportRowCells(row model.ReportRow) []string {
	switch row.Kind {
	case model.RowAvailability, model.RowMonthalAvailability:
		percent := ""
		if row.AvailabilityPercent != nil {
			percent = fmt.Sprintf("%.2f", *row.AvailabilityPercent)
		}
		return []string{row.Label, "", "", "", "", "", "", "", percent}
	case model.RowDayTotal, model.RowWeekTotal, model.RowMonthTotal:
		label := row.Label
		if row.Period != "" {
			label = fmt.Sprintf("%s (%s)", row.Label, row.Period)
		}
		return []string{
			label, "", "",
			formatMinutes(row.DurationMinutes),
			"",
			formatMinutes(row.Buckets.IncidentMinutes),
			formatMinutes(row.Buckets.BreakMinutes),
			formatMinutes(row.Buckets.PickupMinutes),
			formatMinutes(row.Buckets.UnjustifiedMinutes),
		}
	default:
		return []string{
			row.Period,
			row.Start,
			row.End,
			formatMinutes(row.DurationMinutes),
			truncate(row.Location, 52),
			formatMinutes(row.Buckets.IncidentMinutes),
			formatMinutes(row.Buckets.BreakMinutes),
			formatMinutes(row.Buckets.PickupMinutes),
			formatMinutes(row.Buckets.UnjustifiedMinutes),
		}
	}
}

func drawRow(pdf *gofpdf.Fpdf, fontName string, cols []string, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	pdf.SetFont(fontName, style, 8)
	for i, col := range cols {
		align := "L"
		if i >= 3 && i != 4 {
			align = "R"
		}
		pdf.CellFormat(columnWidths[i], 6, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func granularityLabel(granularity model.ReportGranularity) string {
	switch granularity {
	case model.GranularityMonth:
		return "Monthly"
	case model.GranularityWeek:
		return "Weekly"
	default:
		return "Availability"
	}
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit-3] + "..."
}

func formatMinutes(value float64) string {
	return fmt.Sprintf("%.1f", value)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
