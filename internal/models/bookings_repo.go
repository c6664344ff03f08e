package models

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingsRepo interface {
	CreateBooking(ctx context.Context, booking *Booking, holdSince time.Time) error
	GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, int64, error)
	SetPaymentDetails(ctx context.Context, id uuid.UUID, token, redirectURL string) error
	UpdateBookingStatus(ctx context.Context, id uuid.UUID, update BookingStatusUpdate) (*Booking, bool, error)
	MarkInvoiceSent(ctx context.Context, id uuid.UUID, at time.Time) error
}

// CreateBooking inserts the booking unless its window overlaps a paid booking
// or a pending one created after holdSince. The venue row stays locked until
// commit, so bookings for one venue are checked and inserted one at a time.
func (r *GormRepo) CreateBooking(ctx context.Context, booking *Booking, holdSince time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var venue Venue
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&venue, "id = ?", booking.VenueID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVenueNotFound
			}
			return errors.Wrap(err, "lock venue")
		}

		var overlapping int64
		err = tx.Model(&Booking{}).
			Where("venue_id = ? AND start_at < ? AND end_at > ?", booking.VenueID, booking.EndAt, booking.StartAt).
			Where("status = ? OR (status = ? AND created_at > ?)", BookingSuccess, BookingPending, holdSince).
			Count(&overlapping).Error
		if err != nil {
			return errors.Wrap(err, "check booking overlap")
		}
		if overlapping > 0 {
			return ErrBookingConflict
		}
		if err := tx.Omit("Venue").Create(booking).Error; err != nil {
			return errors.Wrap(err, "insert booking")
		}
		return nil
	})
}

func (r *GormRepo) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Preload("Venue").First(&booking, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, errors.Wrap(err, "get booking")
	}
	return &booking, nil
}

func (r *GormRepo) ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, int64, error) {
	q := r.db.WithContext(ctx).Model(&Booking{})
	if filter.RenterID != uuid.Nil {
		q = q.Where("renter_id = ?", filter.RenterID)
	}
	if filter.VenueID != uuid.Nil {
		q = q.Where("venue_id = ?", filter.VenueID)
	}
	if filter.OwnerID != uuid.Nil {
		q = q.Where("venue_id IN (?)", r.db.WithContext(ctx).Model(&Venue{}).Select("id").Where("owner_id = ?", filter.OwnerID))
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count bookings")
	}

	bookings := make([]Booking, 0)
	if total == 0 {
		return bookings, 0, nil
	}

	find := q.Preload("Venue").Order("start_at DESC, created_at DESC")
	if filter.Limit > 0 {
		find = find.Offset(filter.Offset).Limit(filter.Limit)
	}
	if err := find.Find(&bookings).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list bookings")
	}
	return bookings, total, nil
}

func (r *GormRepo) SetPaymentDetails(ctx context.Context, id uuid.UUID, token, redirectURL string) error {
	res := r.db.WithContext(ctx).Model(&Booking{}).Where("id = ?", id).Updates(map[string]interface{}{
		"payment_token":        token,
		"payment_redirect_url": redirectURL,
	})
	if res.Error != nil {
		return errors.Wrap(res.Error, "set payment details")
	}
	if res.RowsAffected == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// UpdateBookingStatus applies a payment outcome. A paid booking is never moved
// back, a failed or expired booking can only become paid, and repeating the
// current status is a no-op. The returned bool reports whether the row
// changed, so a transition into SUCCESS is seen exactly once.
func (r *GormRepo) UpdateBookingStatus(ctx context.Context, id uuid.UUID, update BookingStatusUpdate) (*Booking, bool, error) {
	var changed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		values := map[string]interface{}{
			"status":     update.Status,
			"updated_at": update.At,
		}
		if update.PaymentType != "" {
			values["payment_type"] = update.PaymentType
		}
		if update.TransactionID != "" {
			values["transaction_id"] = update.TransactionID
		}
		if update.Status == BookingSuccess {
			values["paid_at"] = update.At
		}

		q := tx.Model(&Booking{}).
			Where("id = ? AND status <> ? AND status <> ?", id, update.Status, BookingSuccess)
		if update.Status != BookingSuccess {
			q = q.Where("status = ?", BookingPending)
		}
		res := q.Updates(values)
		if res.Error != nil {
			return errors.Wrap(res.Error, "update booking status")
		}
		changed = res.RowsAffected > 0

		if !changed {
			var exists int64
			if err := tx.Model(&Booking{}).Where("id = ?", id).Count(&exists).Error; err != nil {
				return errors.Wrap(err, "lookup booking")
			}
			if exists == 0 {
				return ErrBookingNotFound
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	booking, err := r.GetBookingByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return booking, changed, nil
}

func (r *GormRepo) MarkInvoiceSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&Booking{}).Where("id = ?", id).Update("invoice_sent_at", at).Error
	if err != nil {
		return errors.Wrap(err, "mark invoice sent")
	}
	return nil
}
