package backoffice

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
)

const exportSheet = "Bookings"

var exportHeaders = []string{"Booking ID", "Customer ID", "Booked at", "Status", "Paid", "Payment ID", "Total", "Handled by", "Note"}

// Export writes the filtered bookings as an .xlsx workbook with a totals
// row.
func (m *Manager) Export(ctx context.Context, actor *model.Session, f model.BookingFilter, w io.Writer) error {
	list, err := m.Bookings(ctx, actor, f)
	if err != nil {
		return err
	}

	x := excelize.NewFile()
	defer func() {
		if err := x.Close(); err != nil {
			m.log.WithError(err).Warn("export: closing workbook failed")
		}
	}()
	if err := x.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}
	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := x.SetCellValue(exportSheet, cell, h); err != nil {
			return err
		}
	}

	var total, paid float64
	for i, b := range list {
		row := i + 2
		vals := []any{
			b.BookingID,
			b.CustomerID,
			b.BookingTime.Format("2006-01-02 15:04"),
			string(b.BookingStatus),
			yesNo(b.PaymentStatus),
			optionalID(b.PaymentID),
			b.TotalAmount,
			optionalID(b.EmployeeID),
			b.Note,
		}
		for col, v := range vals {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := x.SetCellValue(exportSheet, cell, v); err != nil {
				return err
			}
		}
		total += b.TotalAmount
		if b.PaymentStatus {
			paid += b.TotalAmount
		}
	}

	summary := len(list) + 3
	_ = x.SetCellValue(exportSheet, fmt.Sprintf("A%d", summary), "Total")
	_ = x.SetCellValue(exportSheet, fmt.Sprintf("G%d", summary), total)
	_ = x.SetCellValue(exportSheet, fmt.Sprintf("A%d", summary+1), "Paid")
	_ = x.SetCellValue(exportSheet, fmt.Sprintf("G%d", summary+1), paid)

	_, err = x.WriteTo(w)
	return err
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func optionalID(id *int64) any {
	if id == nil {
		return ""
	}
	return *id
}
