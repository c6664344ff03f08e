package models

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VenuesRepo interface {
	CreateVenue(ctx context.Context, venue *Venue, assoc VenueAssociations) error
	UpdateVenue(ctx context.Context, venue *Venue, assoc VenueAssociations) error
	GetVenueByID(ctx context.Context, id uuid.UUID) (*Venue, error)
	ListVenues(ctx context.Context, filter VenueFilter) ([]Venue, int64, error)
	DeleteVenue(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]Category, error)
	ListFacilities(ctx context.Context) ([]Facility, error)
}

func (r *GormRepo) CreateVenue(ctx context.Context, venue *Venue, assoc VenueAssociations) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(venue).Error; err != nil {
			return errors.Wrap(err, "insert venue")
		}
		return replaceAssociations(tx, venue.ID, assoc)
	})
	if err != nil {
		return err
	}
	return r.reload(ctx, venue)
}

// UpdateVenue rewrites the venue row and recreates its images, categories and
// facilities in one transaction.
func (r *GormRepo) UpdateVenue(ctx context.Context, venue *Venue, assoc VenueAssociations) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Venue{}).Where("id = ?", venue.ID).Omit(clause.Associations).Select(
			"name", "capacity", "pricing_mode", "price_per_hour", "price_per_day",
			"address", "city", "description", "updated_at",
		).Updates(venue)
		if res.Error != nil {
			return errors.Wrap(res.Error, "update venue")
		}
		if res.RowsAffected == 0 {
			return ErrVenueNotFound
		}
		if err := tx.Where("venue_id = ?", venue.ID).Delete(&VenueImage{}).Error; err != nil {
			return errors.Wrap(err, "delete venue images")
		}
		if err := tx.Where("venue_id = ?", venue.ID).Delete(&VenueCategory{}).Error; err != nil {
			return errors.Wrap(err, "delete venue categories")
		}
		if err := tx.Where("venue_id = ?", venue.ID).Delete(&VenueFacility{}).Error; err != nil {
			return errors.Wrap(err, "delete venue facilities")
		}
		return replaceAssociations(tx, venue.ID, assoc)
	})
	if err != nil {
		return err
	}
	return r.reload(ctx, venue)
}

func replaceAssociations(tx *gorm.DB, venueID uuid.UUID, assoc VenueAssociations) error {
	for i := range assoc.Images {
		assoc.Images[i].ID = 0
		assoc.Images[i].VenueID = venueID
		assoc.Images[i].Position = i
	}
	if len(assoc.Images) > 0 {
		if err := tx.Create(&assoc.Images).Error; err != nil {
			return errors.Wrap(err, "insert venue images")
		}
	}

	for _, name := range NormalizeNames(assoc.Categories) {
		var cat Category
		if err := tx.Where("LOWER(name) = ?", strings.ToLower(name)).
			Attrs(Category{Name: name}).
			FirstOrCreate(&cat).Error; err != nil {
			return errors.Wrapf(err, "upsert category %q", name)
		}
		if err := tx.Create(&VenueCategory{VenueID: venueID, CategoryID: cat.ID}).Error; err != nil {
			return errors.Wrap(err, "link category")
		}
	}

	for _, name := range NormalizeNames(assoc.Facilities) {
		var fac Facility
		if err := tx.Where("LOWER(name) = ?", strings.ToLower(name)).
			Attrs(Facility{Name: name}).
			FirstOrCreate(&fac).Error; err != nil {
			return errors.Wrapf(err, "upsert facility %q", name)
		}
		if err := tx.Create(&VenueFacility{VenueID: venueID, FacilityID: fac.ID}).Error; err != nil {
			return errors.Wrap(err, "link facility")
		}
	}
	return nil
}

func (r *GormRepo) reload(ctx context.Context, venue *Venue) error {
	fresh, err := r.GetVenueByID(ctx, venue.ID)
	if err != nil {
		return err
	}
	*venue = *fresh
	return nil
}

func withVenueAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		Preload("Facilities", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") })
}

func (r *GormRepo) GetVenueByID(ctx context.Context, id uuid.UUID) (*Venue, error) {
	var venue Venue
	err := withVenueAssociations(r.db.WithContext(ctx)).First(&venue, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVenueNotFound
		}
		return nil, errors.Wrap(err, "get venue")
	}
	return &venue, nil
}

func (r *GormRepo) ListVenues(ctx context.Context, filter VenueFilter) ([]Venue, int64, error) {
	q := applyVenueFilter(r.db.WithContext(ctx).Model(&Venue{}), filter).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count venues")
	}

	venues := make([]Venue, 0, filter.Limit)
	if total == 0 {
		return venues, 0, nil
	}

	err := withVenueAssociations(q).
		Order(venueOrder(filter.Sort)).
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&venues).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "list venues")
	}
	return venues, total, nil
}

const activePrice = "COALESCE(price_per_hour, price_per_day)"

func applyVenueFilter(q *gorm.DB, f VenueFilter) *gorm.DB {
	if f.OwnerID != uuid.Nil {
		q = q.Where("owner_id = ?", f.OwnerID)
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(address) LIKE ? OR LOWER(city) LIKE ?", like, like, like)
	}
	if c := strings.TrimSpace(f.City); c != "" {
		q = q.Where("LOWER(city) = ?", strings.ToLower(c))
	}
	if f.MinCapacity > 0 {
		q = q.Where("capacity >= ?", f.MinCapacity)
	}
	if f.PricingMode != "" {
		q = q.Where("pricing_mode = ?", f.PricingMode)
	}
	if f.MinPrice > 0 {
		q = q.Where(activePrice+" >= ?", f.MinPrice)
	}
	if f.MaxPrice > 0 {
		q = q.Where(activePrice+" <= ?", f.MaxPrice)
	}
	if names := lowerNames(f.Categories); len(names) > 0 {
		q = q.Where("id IN (?)", q.Session(&gorm.Session{NewDB: true}).
			Table("venue_categories vc").
			Select("vc.venue_id").
			Joins("JOIN categories c ON c.id = vc.category_id").
			Where("LOWER(c.name) IN ?", names))
	}
	if names := lowerNames(f.Facilities); len(names) > 0 {
		q = q.Where("id IN (?)", q.Session(&gorm.Session{NewDB: true}).
			Table("venue_facilities vf").
			Select("vf.venue_id").
			Joins("JOIN facilities f ON f.id = vf.facility_id").
			Where("LOWER(f.name) IN ?", names).
			Group("vf.venue_id").
			Having("COUNT(DISTINCT f.id) = ?", len(names)))
	}
	return q
}

func lowerNames(names []string) []string {
	norm := NormalizeNames(names)
	for i := range norm {
		norm[i] = strings.ToLower(norm[i])
	}
	return norm
}

func venueOrder(s VenueSort) string {
	switch s {
	case SortPriceAsc:
		return activePrice + " ASC, created_at DESC"
	case SortPriceDesc:
		return activePrice + " DESC, created_at DESC"
	case SortCapacity:
		return "capacity DESC, created_at DESC"
	default:
		return "created_at DESC"
	}
}

// DeleteVenue removes the venue with its join rows. Venues that have bookings
// are kept.
func (r *GormRepo) DeleteVenue(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var bookings int64
		if err := tx.Model(&Booking{}).Where("venue_id = ?", id).Count(&bookings).Error; err != nil {
			return errors.Wrap(err, "count venue bookings")
		}
		if bookings > 0 {
			return ErrVenueHasBookings
		}
		if err := tx.Where("venue_id = ?", id).Delete(&VenueImage{}).Error; err != nil {
			return errors.Wrap(err, "delete venue images")
		}
		if err := tx.Where("venue_id = ?", id).Delete(&VenueCategory{}).Error; err != nil {
			return errors.Wrap(err, "delete venue categories")
		}
		if err := tx.Where("venue_id = ?", id).Delete(&VenueFacility{}).Error; err != nil {
			return errors.Wrap(err, "delete venue facilities")
		}
		res := tx.Delete(&Venue{}, "id = ?", id)
		if res.Error != nil {
			return errors.Wrap(res.Error, "delete venue")
		}
		if res.RowsAffected == 0 {
			return ErrVenueNotFound
		}
		return nil
	})
}

func (r *GormRepo) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return out, nil
}

func (r *GormRepo) ListFacilities(ctx context.Context) ([]Facility, error) {
	var out []Facility
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, errors.Wrap(err, "list facilities")
	}
	return out, nil
}
