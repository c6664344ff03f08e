package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPending BookingStatus = "PENDING"
	BookingSuccess BookingStatus = "SUCCESS"
	BookingFailure BookingStatus = "FAILURE"
	BookingExpired BookingStatus = "EXPIRED"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingSuccess, BookingFailure, BookingExpired:
		return true
	}
	return false
}

// Booking is a reservation of a venue. Its ID doubles as the payment order id.
// Status starts PENDING and is otherwise only written by payment notifications.
type Booking struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VenueID  uuid.UUID `gorm:"type:uuid;index;not null" json:"venue_id"`
	Venue    *Venue    `gorm:"foreignKey:VenueID" json:"venue,omitempty"`
	RenterID uuid.UUID `gorm:"type:uuid;index;not null" json:"renter_id"`

	RenterName  string `gorm:"size:120;not null" json:"renter_name"`
	RenterEmail string `gorm:"size:254;not null" json:"renter_email"`
	RenterPhone string `gorm:"size:32;not null" json:"renter_phone"`

	StartAt     time.Time   `gorm:"index;not null" json:"start_at"`
	EndAt       time.Time   `gorm:"index;not null" json:"end_at"`
	Duration    int         `gorm:"not null" json:"duration"`
	PricingMode PricingMode `gorm:"size:10;not null" json:"pricing_mode"`
	GuestCount  int         `gorm:"not null" json:"guest_count"`
	Notes       string      `gorm:"type:text" json:"notes,omitempty"`

	UnitPrice  int64 `gorm:"not null" json:"unit_price"`
	ServiceFee int64 `gorm:"not null" json:"service_fee"`
	TotalPrice int64 `gorm:"not null" json:"total_price"`

	Status             BookingStatus `gorm:"size:10;index;not null" json:"status"`
	PaymentToken       string        `gorm:"size:255" json:"payment_token,omitempty"`
	PaymentRedirectURL string        `gorm:"size:1024" json:"payment_redirect_url,omitempty"`
	PaymentType        string        `gorm:"size:64" json:"payment_type,omitempty"`
	TransactionID      string        `gorm:"size:128" json:"transaction_id,omitempty"`
	PaidAt             *time.Time    `json:"paid_at,omitempty"`
	InvoiceSentAt      *time.Time    `json:"invoice_sent_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = BookingPending
	}
	return nil
}

// RentalAmount is the venue part of the total, without the service fee.
func (b *Booking) RentalAmount() int64 {
	return b.UnitPrice * int64(b.Duration)
}

// BookingInput is the create payload.
type BookingInput struct {
	VenueID     string    `json:"venue_id" validate:"required,uuid"`
	RenterName  string    `json:"renter_name" validate:"required,min=2,max=120"`
	RenterEmail string    `json:"renter_email" validate:"required,email,max=254"`
	RenterPhone string    `json:"renter_phone" validate:"required,min=8,max=16,numeric"`
	StartAt     time.Time `json:"start_at" validate:"required"`
	Duration    int       `json:"duration" validate:"required,gt=0"`
	GuestCount  int       `json:"guest_count" validate:"required,gt=0"`
	Notes       string    `json:"notes" validate:"max=1000"`
}

// BookingStatusUpdate is what a payment notification changes on a booking.
type BookingStatusUpdate struct {
	Status        BookingStatus
	PaymentType   string
	TransactionID string
	At            time.Time
}

type BookingFilter struct {
	RenterID uuid.UUID
	OwnerID  uuid.UUID
	VenueID  uuid.UUID
	Status   BookingStatus
	Offset   int
	Limit    int
}
