// Package report builds spreadsheet exports for venue owners.
package report

import (
	"bytes"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joshua-takyi/venuely/internal/models"
	"github.com/xuri/excelize/v2"
)

const BookingsSheet = "Bookings"

var bookingHeaders = []interface{}{
	"Booking ID", "Venue", "Renter", "Email", "Phone", "Start", "End",
	"Duration", "Unit", "Guests", "Unit price", "Service fee", "Total", "Status", "Paid at", "Created at",
}

// BookingsWorkbook writes one row per booking into an xlsx workbook.
func BookingsWorkbook(bookings []models.Booking) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", BookingsSheet); err != nil {
		return nil, errors.Wrap(err, "rename sheet")
	}
	if err := f.SetSheetRow(BookingsSheet, "A1", &bookingHeaders); err != nil {
		return nil, errors.Wrap(err, "write header")
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, errors.Wrap(err, "header style")
	}
	if err := f.SetRowStyle(BookingsSheet, 1, 1, header); err != nil {
		return nil, errors.Wrap(err, "apply header style")
	}

	for i, b := range bookings {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, errors.Wrap(err, "cell name")
		}
		row := []interface{}{
			b.ID.String(),
			venueName(b),
			b.RenterName,
			b.RenterEmail,
			b.RenterPhone,
			b.StartAt.UTC().Format(time.RFC3339),
			b.EndAt.UTC().Format(time.RFC3339),
			b.Duration,
			unitLabel(b.PricingMode),
			b.GuestCount,
			b.UnitPrice,
			b.ServiceFee,
			b.TotalPrice,
			string(b.Status),
			formatOptional(b.PaidAt),
			b.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := f.SetSheetRow(BookingsSheet, cell, &row); err != nil {
			return nil, errors.Wrapf(err, "write row %d", i+2)
		}
	}

	if err := f.SetColWidth(BookingsSheet, "A", "A", 38); err != nil {
		return nil, errors.Wrap(err, "column width")
	}
	if err := f.SetColWidth(BookingsSheet, "B", "G", 22); err != nil {
		return nil, errors.Wrap(err, "column width")
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "write workbook")
	}
	return buf, nil
}

func venueName(b models.Booking) string {
	if b.Venue != nil {
		return b.Venue.Name
	}
	return b.VenueID.String()
}

func unitLabel(m models.PricingMode) string {
	if m == models.PricingDaily {
		return "days"
	}
	return "hours"
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
