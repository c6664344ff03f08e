package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PricingMode string

const (
	PricingHourly PricingMode = "HOURLY"
	PricingDaily  PricingMode = "DAILY"
)

// Venue is a listable space. Exactly one of PricePerHour and PricePerDay is
// set, matching PricingMode.
type Venue struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID      uuid.UUID   `gorm:"type:uuid;index;not null" json:"owner_id"`
	Name         string      `gorm:"size:160;not null" json:"name"`
	Capacity     int         `gorm:"not null" json:"capacity"`
	PricingMode  PricingMode `gorm:"size:10;not null" json:"pricing_mode"`
	PricePerHour *int64      `json:"price_per_hour"`
	PricePerDay  *int64      `json:"price_per_day"`
	Address      string      `gorm:"size:300;not null" json:"address"`
	City         string      `gorm:"size:100;index" json:"city,omitempty"`
	Description  string      `gorm:"type:text" json:"description"`

	Images     []VenueImage `gorm:"foreignKey:VenueID" json:"images"`
	Categories []Category   `gorm:"many2many:venue_categories" json:"categories"`
	Facilities []Facility   `gorm:"many2many:venue_facilities" json:"facilities"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (v *Venue) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// UnitPrice returns the active price for the venue's pricing mode.
func (v *Venue) UnitPrice() int64 {
	switch v.PricingMode {
	case PricingHourly:
		if v.PricePerHour != nil {
			return *v.PricePerHour
		}
	case PricingDaily:
		if v.PricePerDay != nil {
			return *v.PricePerDay
		}
	}
	return 0
}

// UnitDuration is the length of one billable unit.
func (v *Venue) UnitDuration() time.Duration {
	if v.PricingMode == PricingDaily {
		return 24 * time.Hour
	}
	return time.Hour
}

type VenueImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	VenueID   uuid.UUID `gorm:"type:uuid;index;not null" json:"venue_id"`
	URL       string    `gorm:"size:1024;not null" json:"url"`
	PublicID  string    `gorm:"size:255" json:"-"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:80;uniqueIndex;not null" json:"name"`
}

type Facility struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:80;uniqueIndex;not null" json:"name"`
}

type VenueCategory struct {
	VenueID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	CategoryID uint      `gorm:"primaryKey"`
}

type VenueFacility struct {
	VenueID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	FacilityID uint      `gorm:"primaryKey"`
}

// MaxUnitPrice caps price_per_hour and price_per_day so a booking total
// always fits in an int64.
const MaxUnitPrice int64 = 1_000_000_000

// VenueInput is the create/update payload.
type VenueInput struct {
	Name         string   `json:"name" validate:"required,min=3,max=160"`
	Capacity     int      `json:"capacity" validate:"required,gt=0,lte=100000"`
	PricingMode  string   `json:"pricing_mode" validate:"required"`
	PricePerHour *int64   `json:"price_per_hour" validate:"omitempty,gt=0,lte=1000000000"`
	PricePerDay  *int64   `json:"price_per_day" validate:"omitempty,gt=0,lte=1000000000"`
	Address      string   `json:"address" validate:"required,min=5,max=300"`
	City         string   `json:"city" validate:"omitempty,max=100"`
	Description  string   `json:"description" validate:"required,min=10,max=5000"`
	Images       []string `json:"images" validate:"max=10,dive,required"`
	Categories   []string `json:"categories" validate:"max=20,dive,required,max=80"`
	Facilities   []string `json:"facilities" validate:"max=30,dive,required,max=80"`
}

// VenueAssociations carries the rows replaced alongside a venue.
type VenueAssociations struct {
	Images     []VenueImage
	Categories []string
	Facilities []string
}

type VenueSort string

const (
	SortNewest    VenueSort = "newest"
	SortPriceAsc  VenueSort = "price_asc"
	SortPriceDesc VenueSort = "price_desc"
	SortCapacity  VenueSort = "capacity"
)

type VenueFilter struct {
	Query       string
	City        string
	Categories  []string
	Facilities  []string
	MinCapacity int
	PricingMode PricingMode
	MinPrice    int64
	MaxPrice    int64
	OwnerID     uuid.UUID
	Sort        VenueSort
	Offset      int
	Limit       int
}

// NormalizeNames trims, collapses inner whitespace and drops case-insensitive
// duplicates while keeping first-seen order.
func NormalizeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.Join(strings.Fields(n), " ")
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
	}
	return out
}
