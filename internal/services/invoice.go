package services

import (
	"fmt"

	"github.com/joshua-takyi/venuely/internal/invoice"
	"github.com/joshua-takyi/venuely/internal/mailer"
	"github.com/joshua-takyi/venuely/internal/models"
)

const scheduleLayout = "Mon 02 Jan 2006 15:04 MST"

func durationUnit(mode models.PricingMode, n int) string {
	unit := "hour"
	if mode == models.PricingDaily {
		unit = "day"
	}
	if n != 1 {
		unit += "s"
	}
	return unit
}

// bookingInvoice builds the invoice of a paid booking. It is issued at the
// payment time.
func bookingInvoice(b *models.Booking, currency string) invoice.Invoice {
	issued := b.UpdatedAt
	if b.PaidAt != nil {
		issued = *b.PaidAt
	}

	venueName, venueAddr := b.VenueID.String(), ""
	if b.Venue != nil {
		venueName, venueAddr = b.Venue.Name, b.Venue.Address
	}

	lines := []invoice.Line{{
		Description: fmt.Sprintf("%s rental, %d %s", venueName, b.Duration, durationUnit(b.PricingMode, b.Duration)),
		Quantity:    b.Duration,
		UnitPrice:   b.UnitPrice,
	}}
	if b.ServiceFee > 0 {
		lines = append(lines, invoice.Line{Description: "Service fee", Quantity: 1, UnitPrice: b.ServiceFee})
	}

	return invoice.Invoice{
		Number:      invoice.Number(issued, b.ID.String()),
		IssuedAt:    issued.UTC(),
		Currency:    currency,
		Status:      string(b.Status),
		RenterName:  b.RenterName,
		RenterEmail: b.RenterEmail,
		RenterPhone: b.RenterPhone,
		VenueName:   venueName,
		VenueAddr:   venueAddr,
		StartAt:     b.StartAt.UTC(),
		EndAt:       b.EndAt.UTC(),
		PaymentType: b.PaymentType,
		Lines:       lines,
	}
}

func invoiceFilename(inv invoice.Invoice) string {
	return inv.Number + ".pdf"
}

// invoiceMessage renders the confirmation email carrying the invoice PDF.
func invoiceMessage(b *models.Booking, inv invoice.Invoice, pdf []byte) (mailer.Message, error) {
	schedule := fmt.Sprintf("%s to %s", inv.StartAt.Format(scheduleLayout), inv.EndAt.Format(scheduleLayout))
	total := invoice.Money(inv.Currency, inv.Total())

	html, err := mailer.RenderInvoiceEmail(mailer.InvoiceEmail{
		RenterName:    b.RenterName,
		VenueName:     inv.VenueName,
		InvoiceNumber: inv.Number,
		Schedule:      schedule,
		Total:         total,
	})
	if err != nil {
		return mailer.Message{}, err
	}

	return mailer.Message{
		To:      []string{b.RenterEmail},
		Subject: fmt.Sprintf("Your booking at %s is confirmed (%s)", inv.VenueName, inv.Number),
		Text: fmt.Sprintf("Hi %s,\n\nYour booking at %s is confirmed.\nInvoice: %s\nWhen: %s\nTotal paid: %s\n\nThe invoice is attached as a PDF.\n",
			b.RenterName, inv.VenueName, inv.Number, schedule, total),
		HTML: html,
		Attachments: []mailer.Attachment{{
			Filename:    invoiceFilename(inv),
			ContentType: "application/pdf",
			Data:        pdf,
		}},
	}, nil
}
