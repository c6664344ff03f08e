package models

import (
	"github.com/cockroachdb/errors"
)

// Sentinel errors shared by repositories and services. Handlers map them to
// status codes with errors.Is, so wrap with errors.Wrap or errors.Mark and
// never replace them.
var (
	ErrVenueNotFound    = errors.New("venue not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrProfileNotFound  = errors.New("profile not found")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrBookingConflict  = errors.New("venue is already booked for the requested time")
	ErrVenueHasBookings = errors.New("venue has bookings and cannot be deleted")
	ErrEmailTaken       = errors.New("email already in use")
	ErrInvalidSignature = errors.New("invalid notification signature")
	ErrInvoiceNotReady  = errors.New("invoice is only available for paid bookings")
	ErrRateLimited      = errors.New("too many requests")
	ErrPaymentGateway   = errors.New("payment gateway unavailable")
	ErrFeatureDisabled  = errors.New("feature is not configured")
)
