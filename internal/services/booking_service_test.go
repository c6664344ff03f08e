package services

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/joshua-takyi/venuely/internal/models"
	"github.com/joshua-takyi/venuely/internal/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testBookingSettings = BookingSettings{
	ServiceFee:    5000,
	PaymentWindow: 24 * time.Hour,
	Currency:      "IDR",
}

func newBookingService(t *testing.T) (*BookingService, *models.GormRepo, *mockGateway) {
	t.Helper()
	repo := newTestRepo(t)
	gw := &mockGateway{}
	bs := NewBookingService(repo, repo, gw, testBookingSettings, discardLogger())
	bs.now = func() time.Time { return fixedNow }
	return bs, repo, gw
}

func bookingInput(venueID uuid.UUID, start time.Time, duration, guests int) models.BookingInput {
	return models.BookingInput{
		VenueID:     venueID.String(),
		RenterName:  " Rina Kartika Sari ",
		RenterEmail: "Rina@Example.com",
		RenterPhone: "081234567890",
		StartAt:     start,
		Duration:    duration,
		GuestCount:  guests,
	}
}

func TestQuoteBooking(t *testing.T) {
	v := &models.Venue{PricingMode: models.PricingDaily, PricePerDay: int64p(750000)}
	q := QuoteBooking(v, 3, 5000)
	assert.Equal(t, Quote{UnitPrice: 750000, Duration: 3, ServiceFee: 5000, Total: 2255000}, q)

	v = &models.Venue{PricingMode: models.PricingHourly, PricePerHour: int64p(models.MaxUnitPrice)}
	q = QuoteBooking(v, MaxHourlyDuration, 5000)
	assert.Equal(t, models.MaxUnitPrice*MaxHourlyDuration+5000, q.Total)
}

func TestCreateBooking(t *testing.T) {
	bs, repo, gw := newBookingService(t)
	renter := models.Actor{ID: uuid.New(), Role: models.RoleRenter}
	venue := seedVenue(t, repo, uuid.New(), models.PricingHourly, 100000, 50)
	start := fixedNow.Add(72 * time.Hour)

	gw.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(req payment.TransactionRequest) bool {
		var sum int64
		for _, it := range req.Items {
			sum += it.Price * int64(it.Quantity)
		}
		return req.GrossAmount == 305000 && sum == req.GrossAmount &&
			len(req.Items) == 2 && req.ExpiryHours == 24 &&
			req.Customer.FirstName == "Rina" && req.Customer.LastName == "Kartika Sari" &&
			req.Customer.Email == "rina@example.com"
	})).Return(&payment.Transaction{Token: "snap-1", RedirectURL: "https://pay.example.com/snap-1"}, nil).Once()

	b, err := bs.CreateBooking(context.Background(), renter, bookingInput(venue.ID, start, 3, 20))
	require.NoError(t, err)
	gw.AssertExpectations(t)

	assert.Equal(t, models.BookingPending, b.Status)
	assert.Equal(t, int64(100000), b.UnitPrice)
	assert.Equal(t, int64(5000), b.ServiceFee)
	assert.Equal(t, int64(305000), b.TotalPrice)
	assert.Equal(t, start.Add(3*time.Hour), b.EndAt)
	assert.Equal(t, "Rina Kartika Sari", b.RenterName)
	assert.Equal(t, "snap-1", b.PaymentToken)

	stored, err := repo.GetBookingByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/snap-1", stored.PaymentRedirectURL)
	assert.Equal(t, renter.ID, stored.RenterID)

	_, err = bs.CreateBooking(context.Background(), models.Actor{ID: uuid.New(), Role: models.RoleRenter},
		bookingInput(venue.ID, start.Add(2*time.Hour), 2, 10))
	assert.ErrorIs(t, err, models.ErrBookingConflict)
}

func TestCreateBookingDailyEnd(t *testing.T) {
	bs, repo, gw := newBookingService(t)
	venue := seedVenue(t, repo, uuid.New(), models.PricingDaily, 1000000, 100)
	gw.On("CreateTransaction", mock.Anything, mock.Anything).
		Return(&payment.Transaction{Token: "t", RedirectURL: "u"}, nil)

	start := fixedNow.Add(48 * time.Hour)
	b, err := bs.CreateBooking(context.Background(), models.Actor{ID: uuid.New(), Role: models.RoleRenter},
		bookingInput(venue.ID, start, 2, 80))
	require.NoError(t, err)
	assert.Equal(t, start.Add(48*time.Hour), b.EndAt)
	assert.Equal(t, int64(2005000), b.TotalPrice)
}

func TestCreateBookingValidation(t *testing.T) {
	bs, repo, _ := newBookingService(t)
	venue := seedVenue(t, repo, uuid.New(), models.PricingHourly, 100000, 50)
	pricey := seedVenue(t, repo, uuid.New(), models.PricingDaily, models.MaxUnitPrice*1000, 50)
	renter := models.Actor{ID: uuid.New(), Role: models.RoleRenter}

	tests := []struct {
		name  string
		in    models.BookingInput
		field string
	}{
		{"start in the past", bookingInput(venue.ID, fixedNow.Add(-time.Hour), 2, 10), "start_at"},
		{"too long", bookingInput(venue.ID, fixedNow.Add(time.Hour), MaxHourlyDuration+1, 10), "duration"},
		{"over capacity", bookingInput(venue.ID, fixedNow.Add(time.Hour), 2, 51), "guest_count"},
		{"bad email", func() models.BookingInput {
			in := bookingInput(venue.ID, fixedNow.Add(time.Hour), 2, 10)
			in.RenterEmail = "nope"
			return in
		}(), "renter_email"},
		{"price out of range", bookingInput(pricey.ID, fixedNow.Add(time.Hour), MaxDailyDuration, 10), "venue_id"},
		{"bad venue id", func() models.BookingInput {
			in := bookingInput(venue.ID, fixedNow.Add(time.Hour), 2, 10)
			in.VenueID = "venue-1"
			return in
		}(), "venue_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := bs.CreateBooking(context.Background(), renter, tt.in)
			var fields models.FieldErrors
			require.True(t, errors.As(err, &fields), "got %v", err)
			assert.Contains(t, fields, tt.field)
		})
	}

	_, err := bs.CreateBooking(context.Background(), renter, bookingInput(uuid.New(), fixedNow.Add(time.Hour), 2, 10))
	assert.ErrorIs(t, err, models.ErrVenueNotFound)
}

func TestCreateBookingGatewayFailure(t *testing.T) {
	bs, repo, gw := newBookingService(t)
	venue := seedVenue(t, repo, uuid.New(), models.PricingHourly, 100000, 50)
	renter := models.Actor{ID: uuid.New(), Role: models.RoleRenter}
	start := fixedNow.Add(24 * time.Hour)

	gw.On("CreateTransaction", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused")).Once()
	_, err := bs.CreateBooking(context.Background(), renter, bookingInput(venue.ID, start, 2, 10))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrPaymentGateway), "got %v", err)

	list, total, err := repo.ListBookings(context.Background(), models.BookingFilter{RenterID: renter.ID})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, models.BookingFailure, list[0].Status)

	// the failed booking does not hold the slot
	gw.On("CreateTransaction", mock.Anything, mock.Anything).Return(&payment.Transaction{Token: "t", RedirectURL: "u"}, nil).Once()
	_, err = bs.CreateBooking(context.Background(), renter, bookingInput(venue.ID, start, 2, 10))
	assert.NoError(t, err)
}

func TestBookingAccess(t *testing.T) {
	bs, repo, gw := newBookingService(t)
	owner := models.Actor{ID: uuid.New(), Role: models.RoleOwner}
	renter := models.Actor{ID: uuid.New(), Role: models.RoleRenter}
	venue := seedVenue(t, repo, owner.ID, models.PricingHourly, 100000, 50)
	gw.On("CreateTransaction", mock.Anything, mock.Anything).Return(&payment.Transaction{Token: "t", RedirectURL: "u"}, nil)

	ctx := context.Background()
	b, err := bs.CreateBooking(ctx, renter, bookingInput(venue.ID, fixedNow.Add(24*time.Hour), 2, 10))
	require.NoError(t, err)

	for _, actor := range []models.Actor{renter, owner, {ID: uuid.New(), Role: models.RoleAdmin}} {
		got, err := bs.GetBooking(ctx, actor, b.ID)
		require.NoError(t, err, actor.Role)
		assert.Equal(t, b.ID, got.ID)
	}
	_, err = bs.GetBooking(ctx, models.Actor{ID: uuid.New(), Role: models.RoleOwner}, b.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	mine, total, err := bs.ListMyBookings(ctx, renter, "pending", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, mine, 1)

	_, _, err = bs.ListMyBookings(ctx, renter, "paid", 0, 10)
	var fields models.FieldErrors
	assert.True(t, errors.As(err, &fields))

	owned, total, err := bs.ListOwnerBookings(ctx, owner, "", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, b.ID, owned[0].ID)

	_, _, err = bs.ListOwnerBookings(ctx, renter, "", 0, 10)
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestInvoiceAndExport(t *testing.T) {
	bs, repo, gw := newBookingService(t)
	owner := models.Actor{ID: uuid.New(), Role: models.RoleOwner}
	renter := models.Actor{ID: uuid.New(), Role: models.RoleRenter}
	venue := seedVenue(t, repo, owner.ID, models.PricingHourly, 100000, 50)
	gw.On("CreateTransaction", mock.Anything, mock.Anything).Return(&payment.Transaction{Token: "t", RedirectURL: "u"}, nil)

	ctx := context.Background()
	b, err := bs.CreateBooking(ctx, renter, bookingInput(venue.ID, fixedNow.Add(24*time.Hour), 2, 10))
	require.NoError(t, err)

	_, _, err = bs.Invoice(ctx, renter, b.ID)
	assert.ErrorIs(t, err, models.ErrInvoiceNotReady)

	_, _, err = repo.UpdateBookingStatus(ctx, b.ID, models.BookingStatusUpdate{Status: models.BookingSuccess, At: fixedNow})
	require.NoError(t, err)

	pdf, filename, err := bs.Invoice(ctx, renter, b.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	assert.True(t, strings.HasPrefix(filename, "INV-20260501-"))
	assert.True(t, strings.HasSuffix(filename, ".pdf"))

	buf, err := bs.ExportOwnerBookings(ctx, owner, "success")
	require.NoError(t, err)
	assert.NotZero(t, buf.Len())

	_, err = bs.ExportOwnerBookings(ctx, renter, "")
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestParseBookingStatus(t *testing.T) {
	st, err := ParseBookingStatus(" expired ")
	require.NoError(t, err)
	assert.Equal(t, models.BookingExpired, st)

	st, err = ParseBookingStatus("")
	require.NoError(t, err)
	assert.Empty(t, st)

	_, err = ParseBookingStatus("refunded")
	assert.Error(t, err)
}
