package models

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return GormNewRepo(db)
}

func price(v int64) *int64 { return &v }

func hourlyVenue(owner uuid.UUID, name, city string, perHour int64, capacity int) *Venue {
	return &Venue{
		OwnerID:      owner,
		Name:         name,
		Capacity:     capacity,
		PricingMode:  PricingHourly,
		PricePerHour: price(perHour),
		Address:      "Jl. Sudirman 1",
		City:         city,
		Description:  "A bright room for meetings and parties",
	}
}

func dailyVenue(owner uuid.UUID, name, city string, perDay int64, capacity int) *Venue {
	v := hourlyVenue(owner, name, city, 0, capacity)
	v.PricingMode = PricingDaily
	v.PricePerHour = nil
	v.PricePerDay = price(perDay)
	return v
}

func categoryNames(v *Venue) []string {
	out := make([]string, 0, len(v.Categories))
	for _, c := range v.Categories {
		out = append(out, c.Name)
	}
	return out
}

func facilityNames(v *Venue) []string {
	out := make([]string, 0, len(v.Facilities))
	for _, f := range v.Facilities {
		out = append(out, f.Name)
	}
	return out
}

func TestCreateVenueWithAssociations(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	v := hourlyVenue(uuid.New(), "Rooftop Hall", "Jakarta", 100000, 80)
	err := repo.CreateVenue(ctx, v, VenueAssociations{
		Images: []VenueImage{
			{URL: "https://img.example.com/a.jpg", PublicID: "venues/a"},
			{URL: "https://img.example.com/b.jpg"},
		},
		Categories: []string{"Wedding", " wedding ", "Party  Hall"},
		Facilities: []string{"Wifi", "Parking"},
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, v.ID)

	got, err := repo.GetVenueByID(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, got.Images, 2)
	assert.Equal(t, "https://img.example.com/a.jpg", got.Images[0].URL)
	assert.Equal(t, 0, got.Images[0].Position)
	assert.Equal(t, 1, got.Images[1].Position)
	assert.Equal(t, []string{"Party Hall", "Wedding"}, categoryNames(got))
	assert.Equal(t, []string{"Parking", "Wifi"}, facilityNames(got))

	// a second venue reuses the lookup rows regardless of case
	other := dailyVenue(uuid.New(), "Garden", "Bandung", 2000000, 200)
	require.NoError(t, repo.CreateVenue(ctx, other, VenueAssociations{
		Categories: []string{"WEDDING"},
		Facilities: []string{"wifi"},
	}))

	cats, err := repo.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 2)
	facs, err := repo.ListFacilities(ctx)
	require.NoError(t, err)
	assert.Len(t, facs, 2)
}

func TestGetVenueNotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetVenueByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrVenueNotFound)
}

func TestUpdateVenueReplacesAssociations(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	v := hourlyVenue(uuid.New(), "Studio", "Jakarta", 50000, 20)
	require.NoError(t, repo.CreateVenue(ctx, v, VenueAssociations{
		Images:     []VenueImage{{URL: "https://img.example.com/old.jpg", PublicID: "venues/old"}},
		Categories: []string{"Photo"},
		Facilities: []string{"Lighting", "Wifi"},
	}))

	update := &Venue{
		ID:          v.ID,
		OwnerID:     v.OwnerID,
		Name:        "Studio Two",
		Capacity:    25,
		PricingMode: PricingDaily,
		PricePerDay: price(400000),
		Address:     v.Address,
		City:        "Depok",
		Description: v.Description,
		UpdatedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.UpdateVenue(ctx, update, VenueAssociations{
		Images:     []VenueImage{{URL: "https://img.example.com/new.jpg", PublicID: "venues/new"}},
		Categories: []string{"Podcast"},
		Facilities: []string{"Wifi"},
	}))

	got, err := repo.GetVenueByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Studio Two", got.Name)
	assert.Equal(t, PricingDaily, got.PricingMode)
	assert.Nil(t, got.PricePerHour)
	require.NotNil(t, got.PricePerDay)
	assert.Equal(t, int64(400000), *got.PricePerDay)
	require.Len(t, got.Images, 1)
	assert.Equal(t, "venues/new", got.Images[0].PublicID)
	assert.Equal(t, []string{"Podcast"}, categoryNames(got))
	assert.Equal(t, []string{"Wifi"}, facilityNames(got))
}

func TestUpdateVenueNotFound(t *testing.T) {
	repo := newTestRepo(t)
	v := hourlyVenue(uuid.New(), "Ghost", "Jakarta", 1000, 1)
	v.ID = uuid.New()
	err := repo.UpdateVenue(context.Background(), v, VenueAssociations{})
	assert.ErrorIs(t, err, ErrVenueNotFound)
}

func TestListVenuesFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	owner := uuid.New()

	hall := hourlyVenue(owner, "Grand Hall", "Jakarta", 300000, 300)
	require.NoError(t, repo.CreateVenue(ctx, hall, VenueAssociations{
		Categories: []string{"Wedding"},
		Facilities: []string{"Parking", "Wifi"},
	}))
	cafe := hourlyVenue(uuid.New(), "Corner Cafe", "Bandung", 80000, 30)
	require.NoError(t, repo.CreateVenue(ctx, cafe, VenueAssociations{
		Categories: []string{"Meeting"},
		Facilities: []string{"Wifi"},
	}))
	villa := dailyVenue(owner, "Hill Villa", "Bogor", 1500000, 60)
	require.NoError(t, repo.CreateVenue(ctx, villa, VenueAssociations{
		Categories: []string{"Retreat", "Wedding"},
		Facilities: []string{"Parking"},
	}))

	ids := func(vs []Venue) []uuid.UUID {
		out := make([]uuid.UUID, 0, len(vs))
		for _, v := range vs {
			out = append(out, v.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter VenueFilter
		want   []uuid.UUID
	}{
		{"query matches name", VenueFilter{Query: "cafe"}, []uuid.UUID{cafe.ID}},
		{"city is case insensitive", VenueFilter{City: "jakarta"}, []uuid.UUID{hall.ID}},
		{"any category", VenueFilter{Categories: []string{"wedding", "meeting"}, Sort: SortPriceAsc}, []uuid.UUID{cafe.ID, hall.ID, villa.ID}},
		{"all facilities", VenueFilter{Facilities: []string{"wifi", "parking"}}, []uuid.UUID{hall.ID}},
		{"min capacity", VenueFilter{MinCapacity: 100}, []uuid.UUID{hall.ID}},
		{"pricing mode", VenueFilter{PricingMode: PricingDaily}, []uuid.UUID{villa.ID}},
		{"price range", VenueFilter{MinPrice: 100000, MaxPrice: 500000}, []uuid.UUID{hall.ID}},
		{"owner", VenueFilter{OwnerID: owner, Sort: SortCapacity}, []uuid.UUID{hall.ID, villa.ID}},
		{"price desc", VenueFilter{Sort: SortPriceDesc}, []uuid.UUID{villa.ID, hall.ID, cafe.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.filter.Limit = 10
			got, total, err := repo.ListVenues(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.want)), total)
			assert.Equal(t, tt.want, ids(got))
		})
	}

	t.Run("pagination keeps the total", func(t *testing.T) {
		got, total, err := repo.ListVenues(ctx, VenueFilter{Sort: SortPriceAsc, Offset: 1, Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Equal(t, []uuid.UUID{hall.ID}, ids(got))
	})

	t.Run("no match", func(t *testing.T) {
		got, total, err := repo.ListVenues(ctx, VenueFilter{City: "Medan", Limit: 10})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, got)
	})
}

func newBooking(venue *Venue, start time.Time, hours int, status BookingStatus, created time.Time) *Booking {
	return &Booking{
		VenueID:     venue.ID,
		RenterID:    uuid.New(),
		RenterName:  "Ayu Lestari",
		RenterEmail: "ayu@example.com",
		RenterPhone: "081234567890",
		StartAt:     start,
		EndAt:       start.Add(time.Duration(hours) * time.Hour),
		Duration:    hours,
		PricingMode: PricingHourly,
		GuestCount:  10,
		UnitPrice:   100000,
		ServiceFee:  5000,
		TotalPrice:  int64(hours)*100000 + 5000,
		Status:      status,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func TestCreateBookingOverlap(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	venue := hourlyVenue(uuid.New(), "Hall", "Jakarta", 100000, 50)
	require.NoError(t, repo.CreateVenue(ctx, venue, VenueAssociations{}))

	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	holdSince := now.Add(-24 * time.Hour)
	start := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	paid := newBooking(venue, start, 3, BookingSuccess, now.Add(-48*time.Hour))
	require.NoError(t, repo.CreateBooking(ctx, paid, time.Time{}))

	err := repo.CreateBooking(ctx, newBooking(venue, start.Add(time.Hour), 1, BookingPending, now), holdSince)
	assert.ErrorIs(t, err, ErrBookingConflict, "overlaps a paid booking")

	adjacent := newBooking(venue, start.Add(3*time.Hour), 2, BookingPending, now)
	require.NoError(t, repo.CreateBooking(ctx, adjacent, holdSince), "touching windows do not overlap")

	err = repo.CreateBooking(ctx, newBooking(venue, start.Add(4*time.Hour), 2, BookingPending, now), holdSince)
	assert.ErrorIs(t, err, ErrBookingConflict, "overlaps a pending booking inside the payment window")

	stale := newBooking(venue, start.Add(24*time.Hour), 2, BookingPending, now.Add(-30*time.Hour))
	require.NoError(t, repo.CreateBooking(ctx, stale, time.Time{}))
	require.NoError(t, repo.CreateBooking(ctx, newBooking(venue, start.Add(24*time.Hour), 2, BookingPending, now), holdSince),
		"a pending booking older than the payment window does not hold the slot")

	failed := newBooking(venue, start.Add(48*time.Hour), 2, BookingFailure, now)
	require.NoError(t, repo.CreateBooking(ctx, failed, time.Time{}))
	require.NoError(t, repo.CreateBooking(ctx, newBooking(venue, start.Add(48*time.Hour), 2, BookingPending, now), holdSince))
}

func TestCreateBookingConcurrent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	venue := hourlyVenue(uuid.New(), "Hall", "Jakarta", 100000, 50)
	require.NoError(t, repo.CreateVenue(ctx, venue, VenueAssociations{}))
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	start := now.Add(72 * time.Hour)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.CreateBooking(ctx, newBooking(venue, start, 2, BookingPending, now), now.Add(-time.Hour))
		}(i)
	}
	wg.Wait()

	var created int
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, ErrBookingConflict)
	}
	assert.Equal(t, 1, created)

	err := repo.CreateBooking(ctx, &Booking{VenueID: uuid.New(), StartAt: start, EndAt: start.Add(time.Hour)}, now)
	assert.ErrorIs(t, err, ErrVenueNotFound)
}

func TestUpdateBookingStatus(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	venue := hourlyVenue(uuid.New(), "Hall", "Jakarta", 100000, 50)
	require.NoError(t, repo.CreateVenue(ctx, venue, VenueAssociations{}))
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	b := newBooking(venue, now.Add(72*time.Hour), 2, BookingPending, now)
	require.NoError(t, repo.CreateBooking(ctx, b, now.Add(-time.Hour)))

	paidAt := now.Add(time.Minute)
	got, changed, err := repo.UpdateBookingStatus(ctx, b.ID, BookingStatusUpdate{
		Status:        BookingSuccess,
		PaymentType:   "bank_transfer",
		TransactionID: "tx-1",
		At:            paidAt,
	})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, BookingSuccess, got.Status)
	assert.Equal(t, "bank_transfer", got.PaymentType)
	assert.Equal(t, "tx-1", got.TransactionID)
	require.NotNil(t, got.PaidAt)
	assert.True(t, paidAt.Equal(*got.PaidAt))
	require.NotNil(t, got.Venue)
	assert.Equal(t, venue.Name, got.Venue.Name)

	_, changed, err = repo.UpdateBookingStatus(ctx, b.ID, BookingStatusUpdate{Status: BookingSuccess, At: paidAt})
	require.NoError(t, err)
	assert.False(t, changed, "repeating a status is a no-op")

	got, changed, err = repo.UpdateBookingStatus(ctx, b.ID, BookingStatusUpdate{Status: BookingExpired, At: paidAt})
	require.NoError(t, err)
	assert.False(t, changed, "a paid booking is never moved back")
	assert.Equal(t, BookingSuccess, got.Status)

	_, _, err = repo.UpdateBookingStatus(ctx, uuid.New(), BookingStatusUpdate{Status: BookingFailure, At: now})
	assert.ErrorIs(t, err, ErrBookingNotFound)

	require.NoError(t, repo.MarkInvoiceSent(ctx, b.ID, paidAt))
	got, err = repo.GetBookingByID(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got.InvoiceSentAt)
}

func TestPendingBookingCanFailThenSucceed(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	venue := hourlyVenue(uuid.New(), "Hall", "Jakarta", 100000, 50)
	require.NoError(t, repo.CreateVenue(ctx, venue, VenueAssociations{}))
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	b := newBooking(venue, now.Add(72*time.Hour), 2, BookingPending, now)
	require.NoError(t, repo.CreateBooking(ctx, b, now))

	_, changed, err := repo.UpdateBookingStatus(ctx, b.ID, BookingStatusUpdate{Status: BookingFailure, At: now})
	require.NoError(t, err)
	assert.True(t, changed)

	got, changed, err := repo.UpdateBookingStatus(ctx, b.ID, BookingStatusUpdate{Status: BookingSuccess, At: now})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, BookingSuccess, got.Status)
}

func TestClosedBookingOnlyReopensAsPaid(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	venue := hourlyVenue(uuid.New(), "Hall", "Jakarta", 100000, 50)
	require.NoError(t, repo.CreateVenue(ctx, venue, VenueAssociations{}))
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	for _, closed := range []BookingStatus{BookingExpired, BookingFailure} {
		b := newBooking(venue, now.Add(72*time.Hour), 2, BookingPending, now)
		require.NoError(t, repo.CreateBooking(ctx, b, time.Time{}))

		_, changed, err := repo.UpdateBookingStatus(ctx, b.ID, BookingStatusUpdate{Status: closed, At: now})
		require.NoError(t, err)
		require.True(t, changed)

		for _, late := range []BookingStatus{BookingPending, BookingFailure, BookingExpired} {
			got, changed, err := repo.UpdateBookingStatus(ctx, b.ID, BookingStatusUpdate{Status: late, At: now})
			require.NoError(t, err)
			assert.False(t, changed, "%s -> %s", closed, late)
			assert.Equal(t, closed, got.Status)
		}

		got, changed, err := repo.UpdateBookingStatus(ctx, b.ID, BookingStatusUpdate{Status: BookingSuccess, At: now})
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, BookingSuccess, got.Status)
	}
}

func TestListBookingsAndPaymentDetails(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	owner := uuid.New()

	mine := hourlyVenue(owner, "Mine", "Jakarta", 100000, 50)
	require.NoError(t, repo.CreateVenue(ctx, mine, VenueAssociations{}))
	theirs := hourlyVenue(uuid.New(), "Theirs", "Jakarta", 100000, 50)
	require.NoError(t, repo.CreateVenue(ctx, theirs, VenueAssociations{}))

	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	first := newBooking(mine, now.Add(24*time.Hour), 1, BookingPending, now)
	second := newBooking(mine, now.Add(48*time.Hour), 1, BookingSuccess, now)
	other := newBooking(theirs, now.Add(24*time.Hour), 1, BookingPending, now)
	for _, b := range []*Booking{first, second, other} {
		require.NoError(t, repo.CreateBooking(ctx, b, now))
	}

	list, total, err := repo.ListBookings(ctx, BookingFilter{OwnerID: owner, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "latest start first")
	require.NotNil(t, list[0].Venue)

	list, total, err = repo.ListBookings(ctx, BookingFilter{OwnerID: owner, Status: BookingPending})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, first.ID, list[0].ID)

	_, total, err = repo.ListBookings(ctx, BookingFilter{RenterID: other.RenterID, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	require.NoError(t, repo.SetPaymentDetails(ctx, first.ID, "snap-token", "https://pay.example.com/snap"))
	got, err := repo.GetBookingByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "snap-token", got.PaymentToken)
	assert.Equal(t, "https://pay.example.com/snap", got.PaymentRedirectURL)

	assert.ErrorIs(t, repo.SetPaymentDetails(ctx, uuid.New(), "t", "u"), ErrBookingNotFound)
}

func TestDeleteVenue(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	booked := hourlyVenue(uuid.New(), "Booked", "Jakarta", 100000, 50)
	require.NoError(t, repo.CreateVenue(ctx, booked, VenueAssociations{Categories: []string{"Party"}}))
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateBooking(ctx, newBooking(booked, now.Add(24*time.Hour), 1, BookingPending, now), now))
	assert.ErrorIs(t, repo.DeleteVenue(ctx, booked.ID), ErrVenueHasBookings)

	free := hourlyVenue(uuid.New(), "Free", "Jakarta", 100000, 50)
	require.NoError(t, repo.CreateVenue(ctx, free, VenueAssociations{
		Images:     []VenueImage{{URL: "https://img.example.com/x.jpg"}},
		Categories: []string{"Party"},
	}))
	require.NoError(t, repo.DeleteVenue(ctx, free.ID))

	_, err := repo.GetVenueByID(ctx, free.ID)
	assert.ErrorIs(t, err, ErrVenueNotFound)
	assert.ErrorIs(t, repo.DeleteVenue(ctx, free.ID), ErrVenueNotFound)

	cats, err := repo.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 1, "lookup rows outlive their venues")
}

func TestEnsureProfile(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	id := uuid.New()

	_, err := repo.GetProfile(ctx, id)
	assert.ErrorIs(t, err, ErrProfileNotFound)

	p, err := repo.EnsureProfile(ctx, &Profile{ID: id, Email: "owner@example.com", FullName: "Budi", Role: RoleOwner})
	require.NoError(t, err)
	assert.Equal(t, RoleOwner, p.Role)

	p, err = repo.EnsureProfile(ctx, &Profile{ID: id, Email: "changed@example.com", Role: RoleRenter})
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", p.Email, "existing profiles are kept")
	assert.Equal(t, RoleOwner, p.Role)

	got, err := repo.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Budi", got.FullName)
}
