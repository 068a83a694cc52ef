package excel

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/fleetops-idle/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(report model.AvailabilityReport) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Summary"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeSummary(file, summarySheet, report); err != nil {
		return nil, err
	}

	usedNames := map[string]struct{}{summarySheet: {}}
	for _, vehicle := range report.Vehicles {
		sheetName := buildSheetName(vehicle.VehiclePlate, usedNames)
		usedNames[sheetName] = struct{}{}

		file.NewSheet(sheetName)
		if err := g.writeVehicle(file, sheetName, report, vehicle); err != nil {
			return nil, err
		}
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, report model.AvailabilityReport) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Report type")
	set("B1", granularityLabel(report.Granularity))
	set("A2", "Period start")
	set("B2", formatDate(report.PeriodStart))
	set("A3", "Period end")
	set("B3", formatDate(report.PeriodEnd.AddDate(0, 0, -1)))
	set("A4", "Vehicles")
	set("B4", len(report.Vehicles))

	tableRow := 6
	headers := []string{
		"Vehicle",
		"Incident (min)",
		"Breaks (min)",
		"Pickups (min)",
		"Unjustified (min)",
		"Availability (%)",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, vehicle := range report.Vehicles {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), vehicle.VehiclePlate)
		set(fmt.Sprintf("B%d", row), formatMinutes(vehicle.Totals.IncidentMinutes))
		set(fmt.Sprintf("C%d", row), formatMinutes(vehicle.Totals.BreakMinutes))
		set(fmt.Sprintf("D%d", row), formatMinutes(vehicle.Totals.PickupMinutes))
		set(fmt.Sprintf("E%d", row), formatMinutes(vehicle.Totals.UnjustifiedMinutes))
		set(fmt.Sprintf("F%d", row), formatPercent(vehicle.AvailabilityPercent))
	}

	_ = file.SetColWidth(sheet, "A", "A", 20)
	_ = file.SetColWidth(sheet, "B", "F", 16)
	return nil
}

func (g *Generator) writeVehicle(file *excelize.File, sheet string, report model.AvailabilityReport, vehicle model.VehicleReport) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Vehicle")
	set("B1", vehicle.VehiclePlate)
	set("A2", "Period start")
	set("B2", formatDate(report.PeriodStart))
	set("A3", "Period end")
	set("B3", formatDate(report.PeriodEnd.AddDate(0, 0, -1)))

	tableRow := 5
	headers := []string{
		"Date",
		"Start",
		"End",
		"Duration (min)",
		"Location",
		"Incident (min)",
		"Breaks (min)",
		"Pickups (min)",
		"Unjustified (min)",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, row := range vehicle.Rows {
		rowNum := tableRow + 1 + i
		switch row.Kind {
		case model.RowAvailability, model.RowMonthalAvailability:
			set(fmt.Sprintf("A%d", rowNum), row.Label)
			if row.AvailabilityPercent != nil {
				set(fmt.Sprintf("I%d", rowNum), formatPercent(*row.AvailabilityPercent))
			}
		case model.RowDayTotal, model.RowWeekTotal, model.RowMonthTotal:
			label := row.Label
			if row.Period != "" {
				label = fmt.Sprintf("%s (%s)", row.Label, row.Period)
			}
			set(fmt.Sprintf("A%d", rowNum), label)
			set(fmt.Sprintf("D%d", rowNum), formatMinutes(row.DurationMinutes))
			set(fmt.Sprintf("F%d", rowNum), formatMinutes(row.Buckets.IncidentMinutes))
			set(fmt.Sprintf("G%d", rowNum), formatMinutes(row.Buckets.BreakMinutes))
			set(fmt.Sprintf("H%d", rowNum), formatMinutes(row.Buckets.PickupMinutes))
			set(fmt.Sprintf("I%d", rowNum), formatMinutes(row.Buckets.UnjustifiedMinutes))
		default:
			set(fmt.Sprintf("A%d", rowNum), row.Period)
			set(fmt.Sprintf("B%d", rowNum), row.Start)
			set(fmt.Sprintf("C%d", rowNum), row.End)
			set(fmt.Sprintf("D%d", rowNum), formatMinutes(row.DurationMinutes))
			set(fmt.Sprintf("E%d", rowNum), row.Location)
			set(fmt.Sprintf("F%d", rowNum), formatMinutes(row.Buckets.IncidentMinutes))
			set(fmt.Sprintf("G%d", rowNum), formatMinutes(row.Buckets.BreakMinutes))
			set(fmt.Sprintf("H%d", rowNum), formatMinutes(row.Buckets.PickupMinutes))
			set(fmt.Sprintf("I%d", rowNum), formatMinutes(row.Buckets.UnjustifiedMinutes))
		}
	}

	_ = file.SetColWidth(sheet, "A", "A", 28)
	_ = file.SetColWidth(sheet, "B", "D", 14)
	_ = file.SetColWidth(sheet, "E", "E", 40)
	_ = file.SetColWidth(sheet, "F", "I", 15)
	return nil
}

func granularityLabel(granularity model.ReportGranularity) string {
	switch granularity {
	case model.GranularityMonth:
		return "Monthly availability"
	case model.GranularityWeek:
		return "Weekly availability"
	default:
		return "Availability"
	}
}

func buildSheetName(plate string, used map[string]struct{}) string {
	base := sanitizeSheetName(plate)
	if base == "" {
		base = "Vehicle"
	}
	if len(base) > 31 {
		base = base[:31]
	}

	nameCandidate := base
	counter := 2
	for {
		if _, exists := used[nameCandidate]; !exists {
			return nameCandidate
		}
		suffix := fmt.Sprintf("-%d", counter)
		trimmed := base
		if len(trimmed)+len(suffix) > 31 {
			trimmed = trimmed[:31-len(suffix)]
		}
		nameCandidate = trimmed + suffix
		counter++
	}
}

func sanitizeSheetName(value string) string {
	replacer := strings.NewReplacer(
		"[", "-",
		"]", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"/", "-",
		"\\", "-",
	)
	return strings.TrimSpace(replacer.Replace(strings.TrimSpace(value)))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatMinutes(value float64) string {
	return fmt.Sprintf("%.1f", value)
}

func formatPercent(value float64) string {
	return fmt.Sprintf("%.2f", value)
}
