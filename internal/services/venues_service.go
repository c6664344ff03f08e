package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/joshua-takyi/venuely/internal/helpers"
	"github.com/joshua-takyi/venuely/internal/models"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100

	imageCleanupTimeout = 30 * time.Second
)

type VenuesService struct {
	venuesRepo models.VenuesRepo
	images     helpers.ImageStore
	logger     *slog.Logger
}

// NewVenuesService builds the service. images may be nil, in which case only
// already hosted image URLs are accepted.
func NewVenuesService(venuesRepo models.VenuesRepo, images helpers.ImageStore, logger *slog.Logger) *VenuesService {
	return &VenuesService{
		venuesRepo: venuesRepo,
		images:     images,
		logger:     logger,
	}
}

// NormalizeVenuePricing upper-cases the pricing mode, checks that the price
// for that mode is present and clears the other one.
func NormalizeVenuePricing(in *models.VenueInput) (models.PricingMode, error) {
	pm := models.PricingMode(strings.ToUpper(strings.TrimSpace(in.PricingMode)))
	in.PricingMode = string(pm)

	switch pm {
	case models.PricingHourly:
		if in.PricePerHour == nil {
			return "", models.NewFieldError("price_per_hour", "is required for HOURLY pricing")
		}
		in.PricePerDay = nil
	case models.PricingDaily:
		if in.PricePerDay == nil {
			return "", models.NewFieldError("price_per_day", "is required for DAILY pricing")
		}
		in.PricePerHour = nil
	default:
		return "", models.NewFieldError("pricing_mode", "must be one of: HOURLY DAILY")
	}
	return pm, nil
}

func (vs *VenuesService) prepare(in *models.VenueInput) (models.PricingMode, error) {
	if err := models.ValidateStruct(in); err != nil {
		return "", err
	}
	pm, err := NormalizeVenuePricing(in)
	if err != nil {
		return "", err
	}
	for _, img := range in.Images {
		switch {
		case helpers.IsHostedURL(img):
		case helpers.IsImageData(img):
			if vs.images == nil {
				return "", models.NewFieldError("images", "must be hosted URLs, image upload is not configured")
			}
		default:
			return "", models.NewFieldError("images", "must be http(s) URLs or base64 data:image URIs")
		}
	}
	return pm, nil
}

func applyVenueInput(v *models.Venue, in models.VenueInput, pm models.PricingMode) {
	v.Name = strings.TrimSpace(in.Name)
	v.Capacity = in.Capacity
	v.PricingMode = pm
	v.PricePerHour = in.PricePerHour
	v.PricePerDay = in.PricePerDay
	v.Address = strings.TrimSpace(in.Address)
	v.City = strings.TrimSpace(in.City)
	v.Description = strings.TrimSpace(in.Description)
}

func toVenueImages(uploaded []helpers.UploadedImage) []models.VenueImage {
	out := make([]models.VenueImage, 0, len(uploaded))
	for _, u := range uploaded {
		out = append(out, models.VenueImage{URL: u.URL, PublicID: u.PublicID})
	}
	return out
}

func canManageVenue(actor models.Actor, v *models.Venue) bool {
	return actor.IsAdmin() || (actor.CanManageVenues() && v.OwnerID == actor.ID)
}

func (vs *VenuesService) CreateVenue(ctx context.Context, actor models.Actor, in models.VenueInput) (*models.Venue, error) {
	if !actor.CanManageVenues() {
		return nil, models.ErrForbidden
	}
	pm, err := vs.prepare(&in)
	if err != nil {
		return nil, err
	}

	uploaded, uploadedIDs, err := helpers.UploadImages(ctx, vs.images, in.Images)
	if err != nil {
		return nil, errors.Wrap(err, "upload venue images")
	}

	venue := &models.Venue{OwnerID: actor.ID}
	applyVenueInput(venue, in, pm)

	assoc := models.VenueAssociations{
		Images:     toVenueImages(uploaded),
		Categories: in.Categories,
		Facilities: in.Facilities,
	}
	if err := vs.venuesRepo.CreateVenue(ctx, venue, assoc); err != nil {
		vs.deleteImages(uploadedIDs)
		return nil, err
	}

	vs.logger.Info("venue created", "venue_id", venue.ID, "owner_id", venue.OwnerID)
	return venue, nil
}

// UpdateVenue replaces the venue fields and associations. Images that are
// dropped from the list are removed from storage once the update committed.
func (vs *VenuesService) UpdateVenue(ctx context.Context, actor models.Actor, id uuid.UUID, in models.VenueInput) (*models.Venue, error) {
	existing, err := vs.venuesRepo.GetVenueByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManageVenue(actor, existing) {
		return nil, models.ErrForbidden
	}
	pm, err := vs.prepare(&in)
	if err != nil {
		return nil, err
	}

	uploaded, uploadedIDs, err := helpers.UploadImages(ctx, vs.images, in.Images)
	if err != nil {
		return nil, errors.Wrap(err, "upload venue images")
	}

	known := make(map[string]string, len(existing.Images))
	for _, img := range existing.Images {
		known[img.URL] = img.PublicID
	}
	images := toVenueImages(uploaded)
	kept := make(map[string]struct{}, len(images))
	for i := range images {
		if images[i].PublicID == "" {
			images[i].PublicID = known[images[i].URL]
		}
		if images[i].PublicID != "" {
			kept[images[i].PublicID] = struct{}{}
		}
	}

	venue := &models.Venue{
		ID:        existing.ID,
		OwnerID:   existing.OwnerID,
		CreatedAt: existing.CreatedAt,
		UpdatedAt: time.Now().UTC(),
	}
	applyVenueInput(venue, in, pm)

	assoc := models.VenueAssociations{
		Images:     images,
		Categories: in.Categories,
		Facilities: in.Facilities,
	}
	if err := vs.venuesRepo.UpdateVenue(ctx, venue, assoc); err != nil {
		vs.deleteImages(uploadedIDs)
		return nil, err
	}

	var removed []string
	for _, img := range existing.Images {
		if _, ok := kept[img.PublicID]; img.PublicID != "" && !ok {
			removed = append(removed, img.PublicID)
		}
	}
	vs.deleteImages(removed)

	vs.logger.Info("venue updated", "venue_id", venue.ID, "images_removed", len(removed))
	return venue, nil
}

func (vs *VenuesService) DeleteVenue(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	existing, err := vs.venuesRepo.GetVenueByID(ctx, id)
	if err != nil {
		return err
	}
	if !canManageVenue(actor, existing) {
		return models.ErrForbidden
	}
	if err := vs.venuesRepo.DeleteVenue(ctx, id); err != nil {
		return err
	}

	ids := make([]string, 0, len(existing.Images))
	for _, img := range existing.Images {
		ids = append(ids, img.PublicID)
	}
	vs.deleteImages(ids)

	vs.logger.Info("venue deleted", "venue_id", id)
	return nil
}

func (vs *VenuesService) GetVenue(ctx context.Context, id uuid.UUID) (*models.Venue, error) {
	if id == uuid.Nil {
		return nil, models.ErrVenueNotFound
	}
	return vs.venuesRepo.GetVenueByID(ctx, id)
}

func (vs *VenuesService) ListVenues(ctx context.Context, filter models.VenueFilter) ([]models.Venue, int64, error) {
	filter.Offset, filter.Limit = clampPage(filter.Offset, filter.Limit)

	switch filter.Sort {
	case "", models.SortNewest, models.SortPriceAsc, models.SortPriceDesc, models.SortCapacity:
	default:
		return nil, 0, models.NewFieldError("sort", "must be one of: newest price_asc price_desc capacity")
	}

	if filter.PricingMode != "" {
		filter.PricingMode = models.PricingMode(strings.ToUpper(string(filter.PricingMode)))
		if filter.PricingMode != models.PricingHourly && filter.PricingMode != models.PricingDaily {
			return nil, 0, models.NewFieldError("pricing_mode", "must be one of: HOURLY DAILY")
		}
	}
	if filter.MinCapacity < 0 {
		return nil, 0, models.NewFieldError("min_capacity", "must not be negative")
	}
	if filter.MinPrice < 0 || filter.MaxPrice < 0 {
		return nil, 0, models.NewFieldError("min_price", "prices must not be negative")
	}
	if filter.MaxPrice > 0 && filter.MinPrice > filter.MaxPrice {
		return nil, 0, models.NewFieldError("max_price", "must be greater than or equal to min_price")
	}

	return vs.venuesRepo.ListVenues(ctx, filter)
}

func (vs *VenuesService) ListOwnerVenues(ctx context.Context, actor models.Actor, offset, limit int) ([]models.Venue, int64, error) {
	if !actor.CanManageVenues() {
		return nil, 0, models.ErrForbidden
	}
	return vs.ListVenues(ctx, models.VenueFilter{OwnerID: actor.ID, Offset: offset, Limit: limit})
}

func (vs *VenuesService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return vs.venuesRepo.ListCategories(ctx)
}

func (vs *VenuesService) ListFacilities(ctx context.Context) ([]models.Facility, error) {
	return vs.venuesRepo.ListFacilities(ctx)
}

// deleteImages uses its own timeout, independent of the request context.
func (vs *VenuesService) deleteImages(publicIDs []string) {
	if vs.images == nil || len(publicIDs) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), imageCleanupTimeout)
	defer cancel()
	if err := vs.images.Delete(ctx, publicIDs); err != nil {
		vs.logger.Error("failed to delete venue images", "error", err, "count", len(publicIDs))
	}
}

func clampPage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return offset, limit
}
