// Package reports renders booking lists into Excel files for download.
package reports

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"washdesk/internal/models"
	"washdesk/internal/status"
	"washdesk/internal/view"
)

const bookingsSheet = "Bookings"

type Exporter struct {
	dir    string
	logger zerolog.Logger
}

func NewExporter(dir string, logger *zerolog.Logger) *Exporter {
	return &Exporter{
		dir:    dir,
		logger: logger.With().Str("component", "reports").Logger(),
	}
}

// BookingsToExcel writes the booking list to an .xlsx file and returns its path.
func (e *Exporter) BookingsToExcel(bookings []models.Booking) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(bookingsSheet)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(bookingsSheet, "A1", fmt.Sprintf("Bookings as of %s", time.Now().Format("01/02/2006 15:04")))
	_ = f.MergeCell(bookingsSheet, "A1", "J1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(bookingsSheet, "A1", "A1", titleStyle)

	headers := []string{
		"ID", "Customer", "Service", "Vehicle", "Date", "Time",
		"Payment", "Price", "Status", "Employee",
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(bookingsSheet, cell, header)
		_ = f.SetCellStyle(bookingsSheet, cell, cell, headerStyle)
	}

	var revenue float64
	for i, b := range bookings {
		row := i + 3
		revenue += b.Price
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("A%d", row), b.ID)
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("B%d", row), b.DisplayName())
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("C%d", row), b.ServiceName)
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("D%d", row), b.VehicleType)
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("E%d", row), view.FormatDate(b.WashDate))
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("F%d", row), view.FormatTime12h(b.WashTime))
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("G%d", row), b.PaymentType)
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("H%d", row), b.Price)
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("I%d", row), string(b.Status))
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("J%d", row), b.EmployeeInfo())

		if styleID, err := e.statusStyle(f, b.Status); err == nil {
			cell := fmt.Sprintf("I%d", row)
			_ = f.SetCellStyle(bookingsSheet, cell, cell, styleID)
		}
	}

	if len(bookings) > 0 {
		totalRow := len(bookings) + 3
		totalStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("G%d", totalRow), "Total")
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("H%d", totalRow), revenue)
		_ = f.SetCellStyle(bookingsSheet, fmt.Sprintf("G%d", totalRow), fmt.Sprintf("H%d", totalRow), totalStyle)
	}

	_ = f.SetColWidth(bookingsSheet, "A", "A", 8)
	_ = f.SetColWidth(bookingsSheet, "B", "D", 20)
	_ = f.SetColWidth(bookingsSheet, "E", "G", 12)
	_ = f.SetColWidth(bookingsSheet, "H", "H", 10)
	_ = f.SetColWidth(bookingsSheet, "I", "J", 22)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("bookings_export_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(e.dir, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("bookings", len(bookings)).Msg("Excel file created")
	return filePath, nil
}

func (e *Exporter) statusStyle(f *excelize.File, st status.Status) (int, error) {
	var color string
	switch status.Canonical(string(st)) {
	case status.Approved, status.Completed:
		color = "#C6EFCE"
	case status.Pending:
		color = "#FFEB9C"
	case status.Rejected, status.Cancelled:
		color = "#FFC7CE"
	default:
		color = "#FFFFFF"
	}

	return f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
}
