package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/joshua-takyi/venuely/internal/invoice"
	"github.com/joshua-takyi/venuely/internal/metrics"
	"github.com/joshua-takyi/venuely/internal/models"
	"github.com/joshua-takyi/venuely/internal/payment"
	"github.com/joshua-takyi/venuely/internal/report"
)

const (
	MaxHourlyDuration = 24 * 30
	MaxDailyDuration  = 365
)

type BookingSettings struct {
	ServiceFee    int64
	PaymentWindow time.Duration
	Currency      string
}

type BookingService struct {
	bookingsRepo models.BookingsRepo
	venuesRepo   models.VenuesRepo
	gateway      payment.Gateway
	settings     BookingSettings
	logger       *slog.Logger
	now          func() time.Time
}

func NewBookingService(bookingsRepo models.BookingsRepo, venuesRepo models.VenuesRepo, gateway payment.Gateway, settings BookingSettings, logger *slog.Logger) *BookingService {
	return &BookingService{
		bookingsRepo: bookingsRepo,
		venuesRepo:   venuesRepo,
		gateway:      gateway,
		settings:     settings,
		logger:       logger,
		now:          time.Now,
	}
}

// Quote is the price breakdown of a booking.
type Quote struct {
	UnitPrice  int64
	Duration   int
	ServiceFee int64
	Total      int64
}

// QuoteBooking computes unit price x duration + service fee for a venue.
func QuoteBooking(v *models.Venue, duration int, serviceFee int64) Quote {
	unit := v.UnitPrice()
	return Quote{
		UnitPrice:  unit,
		Duration:   duration,
		ServiceFee: serviceFee,
		Total:      unit*int64(duration) + serviceFee,
	}
}

func maxDuration(mode models.PricingMode) int {
	if mode == models.PricingDaily {
		return MaxDailyDuration
	}
	return MaxHourlyDuration
}

func (bs *BookingService) validate(in models.BookingInput, venue *models.Venue, now time.Time) error {
	fields := models.FieldErrors{}
	if !in.StartAt.After(now) {
		fields["start_at"] = "must be in the future"
	}
	if unit := venue.UnitPrice(); unit <= 0 || unit > models.MaxUnitPrice {
		fields["venue_id"] = "venue has no bookable price"
	}
	if limit := maxDuration(venue.PricingMode); in.Duration < 1 || in.Duration > limit {
		fields["duration"] = fmt.Sprintf("must be between 1 and %d %s", limit, durationUnit(venue.PricingMode, limit))
	}
	if in.GuestCount > venue.Capacity {
		fields["guest_count"] = fmt.Sprintf("must not exceed the venue capacity of %d", venue.Capacity)
	}
	if len(fields) > 0 {
		return fields
	}
	return nil
}

// CreateBooking stores a PENDING booking and opens a checkout session for it.
// When the gateway rejects the session the booking is marked FAILURE.
func (bs *BookingService) CreateBooking(ctx context.Context, actor models.Actor, in models.BookingInput) (*models.Booking, error) {
	if err := models.ValidateStruct(in); err != nil {
		return nil, err
	}
	venueID, err := uuid.Parse(in.VenueID)
	if err != nil {
		return nil, models.NewFieldError("venue_id", "must be a valid id")
	}
	venue, err := bs.venuesRepo.GetVenueByID(ctx, venueID)
	if err != nil {
		return nil, err
	}

	now := bs.now().UTC()
	if err := bs.validate(in, venue, now); err != nil {
		return nil, err
	}

	quote := QuoteBooking(venue, in.Duration, bs.settings.ServiceFee)

	start := in.StartAt.UTC()
	booking := &models.Booking{
		VenueID:     venue.ID,
		RenterID:    actor.ID,
		RenterName:  strings.TrimSpace(in.RenterName),
		RenterEmail: strings.ToLower(strings.TrimSpace(in.RenterEmail)),
		RenterPhone: strings.TrimSpace(in.RenterPhone),
		StartAt:     start,
		EndAt:       start.Add(time.Duration(in.Duration) * venue.UnitDuration()),
		Duration:    in.Duration,
		PricingMode: venue.PricingMode,
		GuestCount:  in.GuestCount,
		Notes:       strings.TrimSpace(in.Notes),
		UnitPrice:   quote.UnitPrice,
		ServiceFee:  quote.ServiceFee,
		TotalPrice:  quote.Total,
		Status:      models.BookingPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := bs.bookingsRepo.CreateBooking(ctx, booking, now.Add(-bs.settings.PaymentWindow)); err != nil {
		return nil, err
	}
	metrics.IncBookingCreated()

	tx, err := bs.gateway.CreateTransaction(ctx, bs.transactionRequest(booking, venue))
	if err != nil {
		bs.logger.Error("payment transaction failed", "booking_id", booking.ID, "error", err)
		_, _, uerr := bs.bookingsRepo.UpdateBookingStatus(ctx, booking.ID, models.BookingStatusUpdate{
			Status: models.BookingFailure,
			At:     bs.now().UTC(),
		})
		if uerr != nil {
			bs.logger.Error("failed to mark booking as failed", "booking_id", booking.ID, "error", uerr)
		}
		return nil, errors.Mark(errors.Wrap(err, "create payment transaction"), models.ErrPaymentGateway)
	}

	if err := bs.bookingsRepo.SetPaymentDetails(ctx, booking.ID, tx.Token, tx.RedirectURL); err != nil {
		return nil, err
	}
	booking.PaymentToken = tx.Token
	booking.PaymentRedirectURL = tx.RedirectURL
	booking.Venue = venue

	bs.logger.Info("booking created",
		"booking_id", booking.ID,
		"venue_id", venue.ID,
		"renter_id", actor.ID,
		"total", booking.TotalPrice,
	)
	return booking, nil
}

func (bs *BookingService) transactionRequest(b *models.Booking, v *models.Venue) payment.TransactionRequest {
	items := []payment.Item{{
		ID:       v.ID.String(),
		Name:     fmt.Sprintf("%s (%d %s)", v.Name, b.Duration, durationUnit(b.PricingMode, b.Duration)),
		Price:    b.UnitPrice,
		Quantity: int32(b.Duration),
	}}
	if b.ServiceFee > 0 {
		items = append(items, payment.Item{ID: "service-fee", Name: "Service fee", Price: b.ServiceFee, Quantity: 1})
	}

	first, last := splitName(b.RenterName)
	return payment.TransactionRequest{
		OrderID:     b.ID.String(),
		GrossAmount: b.TotalPrice,
		Items:       items,
		Customer: payment.Customer{
			FirstName: first,
			LastName:  last,
			Email:     b.RenterEmail,
			Phone:     b.RenterPhone,
		},
		ExpiryHours: int64(math.Ceil(bs.settings.PaymentWindow.Hours())),
	}
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func canViewBooking(actor models.Actor, b *models.Booking) bool {
	if actor.IsAdmin() || b.RenterID == actor.ID {
		return true
	}
	return b.Venue != nil && b.Venue.OwnerID == actor.ID
}

// GetBooking returns a booking to its renter, the venue owner or an admin.
func (bs *BookingService) GetBooking(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Booking, error) {
	b, err := bs.bookingsRepo.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canViewBooking(actor, b) {
		return nil, models.ErrForbidden
	}
	return b, nil
}

// ParseBookingStatus accepts an empty string as "any status".
func ParseBookingStatus(s string) (models.BookingStatus, error) {
	if s = strings.TrimSpace(s); s == "" {
		return "", nil
	}
	st := models.BookingStatus(strings.ToUpper(s))
	if !st.Valid() {
		return "", models.NewFieldError("status", "must be one of: PENDING SUCCESS FAILURE EXPIRED")
	}
	return st, nil
}

func (bs *BookingService) ListMyBookings(ctx context.Context, actor models.Actor, status string, offset, limit int) ([]models.Booking, int64, error) {
	st, err := ParseBookingStatus(status)
	if err != nil {
		return nil, 0, err
	}
	offset, limit = clampPage(offset, limit)
	return bs.bookingsRepo.ListBookings(ctx, models.BookingFilter{
		RenterID: actor.ID,
		Status:   st,
		Offset:   offset,
		Limit:    limit,
	})
}

func (bs *BookingService) ListOwnerBookings(ctx context.Context, actor models.Actor, status string, offset, limit int) ([]models.Booking, int64, error) {
	if !actor.CanManageVenues() {
		return nil, 0, models.ErrForbidden
	}
	st, err := ParseBookingStatus(status)
	if err != nil {
		return nil, 0, err
	}
	offset, limit = clampPage(offset, limit)
	return bs.bookingsRepo.ListBookings(ctx, models.BookingFilter{
		OwnerID: actor.ID,
		Status:  st,
		Offset:  offset,
		Limit:   limit,
	})
}

// ExportOwnerBookings writes every booking on the caller's venues to an xlsx
// workbook.
func (bs *BookingService) ExportOwnerBookings(ctx context.Context, actor models.Actor, status string) (*bytes.Buffer, error) {
	if !actor.CanManageVenues() {
		return nil, models.ErrForbidden
	}
	st, err := ParseBookingStatus(status)
	if err != nil {
		return nil, err
	}
	bookings, _, err := bs.bookingsRepo.ListBookings(ctx, models.BookingFilter{OwnerID: actor.ID, Status: st})
	if err != nil {
		return nil, err
	}
	return report.BookingsWorkbook(bookings)
}

// Invoice renders the PDF invoice of a paid booking.
func (bs *BookingService) Invoice(ctx context.Context, actor models.Actor, id uuid.UUID) ([]byte, string, error) {
	b, err := bs.GetBooking(ctx, actor, id)
	if err != nil {
		return nil, "", err
	}
	if b.Status != models.BookingSuccess {
		return nil, "", models.ErrInvoiceNotReady
	}
	inv := bookingInvoice(b, bs.settings.Currency)
	pdf, err := invoice.Render(inv)
	if err != nil {
		return nil, "", err
	}
	return pdf, invoiceFilename(inv), nil
}
