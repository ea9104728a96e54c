package reports

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	devices "energy-cloud/internal/devices/domain"
)

// FleetSummary aggregates the device fleet for export headers.
type FleetSummary struct {
	Total        int
	Assigned     int
	Available    int
	TotalMaximum float64
	TotalPower   float64
	GeneratedAt  time.Time
}

// Summarize computes a FleetSummary from a device list.
func Summarize(list []devices.Device, now time.Time) FleetSummary {
	summary := FleetSummary{Total: len(list), GeneratedAt: now.UTC()}
	for _, d := range list {
		if d.Assigned() {
			summary.Assigned++
		} else {
			summary.Available++
		}
		summary.TotalMaximum += d.MaximumConsumption
		summary.TotalPower += d.PowerConsumption
	}
	return summary
}

// BuildFleetPDF renders a device fleet report as PDF.
func BuildFleetPDF(list []devices.Device, summary FleetSummary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Device Fleet Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", summary.GeneratedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Devices: %d (assigned %d, available %d)", summary.Total, summary.Assigned, summary.Available))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Maximum Consumption (kW): %.3f", summary.TotalMaximum))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Power Consumption (kW): %.3f", summary.TotalPower))
	pdf.Ln(8)

	// Fleet table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(55, 6, "Name", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Max (kW)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Power (kW)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(55, 6, "Owner", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, d := range list {
		owner := d.OwnerID
		if owner == "" {
			owner = "-"
		}
		pdf.CellFormat(55, 6, d.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.3f", d.MaximumConsumption), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.3f", d.PowerConsumption), "1", 0, "R", false, 0, "")
		pdf.CellFormat(55, 6, owner, "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	err := pdf.Output(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildFleetXLSX renders a device fleet report as XLSX.
func BuildFleetXLSX(list []devices.Device, summary FleetSummary) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	fleetSheet := "devices"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(fleetSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Device Fleet Report")
	_ = f.SetCellValue(summarySheet, "A3", "Generated")
	_ = f.SetCellValue(summarySheet, "B3", summary.GeneratedAt.Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A4", "Devices")
	_ = f.SetCellValue(summarySheet, "B4", summary.Total)
	_ = f.SetCellValue(summarySheet, "A5", "Assigned")
	_ = f.SetCellValue(summarySheet, "B5", summary.Assigned)
	_ = f.SetCellValue(summarySheet, "A6", "Available")
	_ = f.SetCellValue(summarySheet, "B6", summary.Available)
	_ = f.SetCellValue(summarySheet, "A7", "Total Maximum Consumption (kW)")
	_ = f.SetCellValue(summarySheet, "B7", summary.TotalMaximum)
	_ = f.SetCellValue(summarySheet, "A8", "Total Power Consumption (kW)")
	_ = f.SetCellValue(summarySheet, "B8", summary.TotalPower)

	_ = f.SetCellValue(fleetSheet, "A1", "ID")
	_ = f.SetCellValue(fleetSheet, "B1", "Name")
	_ = f.SetCellValue(fleetSheet, "C1", "Description")
	_ = f.SetCellValue(fleetSheet, "D1", "Max (kW)")
	_ = f.SetCellValue(fleetSheet, "E1", "Power (kW)")
	_ = f.SetCellValue(fleetSheet, "F1", "Owner")
	for i, d := range list {
		row := i + 2
		_ = f.SetCellValue(fleetSheet, fmt.Sprintf("A%d", row), d.ID)
		_ = f.SetCellValue(fleetSheet, fmt.Sprintf("B%d", row), d.Name)
		_ = f.SetCellValue(fleetSheet, fmt.Sprintf("C%d", row), d.Description)
		_ = f.SetCellValue(fleetSheet, fmt.Sprintf("D%d", row), d.MaximumConsumption)
		_ = f.SetCellValue(fleetSheet, fmt.Sprintf("E%d", row), d.PowerConsumption)
		_ = f.SetCellValue(fleetSheet, fmt.Sprintf("F%d", row), d.OwnerID)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
