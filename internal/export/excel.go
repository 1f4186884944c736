// Package export renders dashboard rows and payment schedules as .xlsx workbooks.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"cpap-admin-server/internal/dates"
	"cpap-admin-server/internal/overdue"
	"cpap-admin-server/internal/payment"
)

// ContentType is the MIME type of the generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DeviceStatusHeader is the column order of the dashboard export.
var DeviceStatusHeader = []string{
	"Appareil",
	"Modèle",
	"N° de série",
	"Mode de paiement",
	"Statut",
	"Fin de période",
	"Rappel",
	"Total",
	"Payé",
	"Reste",
	"Jours de retard",
}

// ScheduleHeader is the column order of the schedule export.
var ScheduleHeader = []string{"Date", "Montant", "Description"}

// DeviceStatuses renders the device payment dashboard.
func DeviceStatuses(rows []overdue.DeviceWithPaymentStatus) ([]byte, error) {
	data := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		var late interface{}
		if r.OverdueDays != nil {
			late = *r.OverdueDays
		}
		data = append(data, []interface{}{
			r.Name,
			r.Model,
			r.SerialNumber,
			string(r.PaymentType),
			string(r.PaymentStatus),
			dates.Format(r.PaymentEndDate),
			dates.Format(r.ReminderDate),
			r.TotalAmount,
			r.PaidAmount,
			r.OutstandingAmount,
			late,
		})
	}
	return workbook("Paiements appareils", DeviceStatusHeader, []float64{25, 18, 20, 16, 14, 14, 14, 12, 12, 12, 14}, data)
}

// Schedule renders a payment schedule preview.
func Schedule(entries []payment.ScheduleEntry) ([]byte, error) {
	data := make([][]interface{}, 0, len(entries))
	for _, e := range entries {
		data = append(data, []interface{}{e.Date.Format(dates.Layout), e.Amount, e.Description})
	}
	return workbook("Échéancier", ScheduleHeader, []float64{14, 12, 30}, data)
}

func workbook(sheetName string, headers []string, widths []float64, rows [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		if col < len(widths) {
			name, _ := excelize.ColumnNumberToName(col + 1)
			if err := f.SetColWidth(sheetName, name, name, widths[col]); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}

	for i, row := range rows {
		for j, value := range row {
			if value == nil || value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				f.Close()
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename builds a dated download name.
func Filename(prefix string, at time.Time) string {
	return fmt.Sprintf("%s-%s.xlsx", prefix, at.Format(dates.Layout))
}
