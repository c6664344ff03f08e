// Package invoice renders booking invoices as PDF documents.
package invoice

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-pdf/fpdf"
)

type Line struct {
	Description string
	Quantity    int
	UnitPrice   int64
}

func (l Line) Amount() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

type Invoice struct {
	Number      string
	IssuedAt    time.Time
	Currency    string
	Status      string
	RenterName  string
	RenterEmail string
	RenterPhone string
	VenueName   string
	VenueAddr   string
	StartAt     time.Time
	EndAt       time.Time
	PaymentType string
	Lines       []Line
}

func (inv Invoice) Total() int64 {
	var t int64
	for _, l := range inv.Lines {
		t += l.Amount()
	}
	return t
}

// Number formats an invoice number from the issue date and the booking id.
func Number(issued time.Time, bookingID string) string {
	id := strings.ToUpper(strings.ReplaceAll(bookingID, "-", ""))
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("INV-%s-%s", issued.UTC().Format("20060102"), id)
}

const (
	pageMargin = 15.0
	lineHeight = 7.0
	dateLayout = "02 Jan 2006 15:04 MST"
)

// Render produces an A4 PDF.
func Render(inv Invoice) ([]byte, error) {
	if len(inv.Lines) == 0 {
		return nil, errors.New("invoice has no lines")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetTitle(inv.Number, true)
	pdf.SetCreator("venuely", true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, "INVOICE", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, lineHeight, "Invoice no: "+inv.Number, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, lineHeight, "Issued: "+inv.IssuedAt.Format(dateLayout), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, lineHeight, "Status: "+inv.Status, "", 1, "L", false, 0, "")
	if inv.PaymentType != "" {
		pdf.CellFormat(0, lineHeight, "Paid with: "+strings.ReplaceAll(inv.PaymentType, "_", " "), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	section(pdf, "Billed to")
	pdf.CellFormat(0, lineHeight, tr(inv.RenterName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, lineHeight, inv.RenterEmail, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, lineHeight, inv.RenterPhone, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	section(pdf, "Venue")
	pdf.CellFormat(0, lineHeight, tr(inv.VenueName), "", 1, "L", false, 0, "")
	pdf.MultiCell(0, lineHeight, tr(inv.VenueAddr), "", "L", false)
	pdf.CellFormat(0, lineHeight, fmt.Sprintf("From %s to %s", inv.StartAt.Format(dateLayout), inv.EndAt.Format(dateLayout)), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	widths := []float64{90, 20, 35, 35}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	for i, h := range []string{"Description", "Qty", "Unit price", "Amount"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], lineHeight+1, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, l := range inv.Lines {
		pdf.CellFormat(widths[0], lineHeight, tr(l.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], lineHeight, strconv.Itoa(l.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], lineHeight, Money(inv.Currency, l.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], lineHeight, Money(inv.Currency, l.Amount()), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(widths[0]+widths[1]+widths[2], lineHeight+1, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], lineHeight+1, Money(inv.Currency, inv.Total()), "1", 1, "R", false, 0, "")

	if err := pdf.Error(); err != nil {
		return nil, errors.Wrap(err, "render invoice")
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "write invoice")
	}
	return buf.Bytes(), nil
}

func section(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, lineHeight, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
}

// Money formats whole currency units with thousands separators.
func Money(currency string, amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	s := b.String()
	if neg {
		s = "-" + s
	}
	if currency == "" {
		return s
	}
	return currency + " " + s
}
