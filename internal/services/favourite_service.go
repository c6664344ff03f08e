package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/joshua-takyi/venuely/internal/models"
)

type FavouriteService struct {
	favouritesRepo models.FavouriteRepo
	venuesRepo     models.VenuesRepo
}

func NewFavouriteService(favouritesRepo models.FavouriteRepo, venuesRepo models.VenuesRepo) *FavouriteService {
	return &FavouriteService{
		favouritesRepo: favouritesRepo,
		venuesRepo:     venuesRepo,
	}
}

func (fs *FavouriteService) AddToFavourites(ctx context.Context, userId uuid.UUID, venueId uuid.UUID) (*models.Favourite, error) {
	if userId == uuid.Nil {
		return nil, models.ErrUnauthorized
	}
	if _, err := fs.venuesRepo.GetVenueByID(ctx, venueId); err != nil {
		return nil, err
	}
	return fs.favouritesRepo.AddToFavourites(ctx, userId, venueId)
}

func (fs *FavouriteService) RemoveFromFavourites(ctx context.Context, userId uuid.UUID, venueId uuid.UUID) error {
	if userId == uuid.Nil {
		return models.ErrUnauthorized
	}
	return fs.favouritesRepo.RemoveFromFavourites(ctx, userId, venueId)
}

func (fs *FavouriteService) GetFavouritesByUserID(ctx context.Context, userId uuid.UUID) (*models.Favourite, error) {
	if userId == uuid.Nil {
		return nil, models.ErrUnauthorized
	}
	return fs.favouritesRepo.GetFavouritesByUserID(ctx, userId)
}
