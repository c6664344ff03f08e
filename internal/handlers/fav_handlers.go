package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/venuely/internal/helpers"
	"github.com/joshua-takyi/venuely/internal/services"
)

func AddToFavourites(fs *services.FavouriteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, actor, ok := currentUser(c)
		if !ok {
			return
		}
		venueID, ok := uuidParam(c, "venue_id")
		if !ok {
			return
		}

		fav, err := fs.AddToFavourites(c.Request.Context(), actor.ID, venueID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{"venue_ids": fav.VenueIDs()}, "Added to favourites"))
	}
}

func RemoveFromFavourites(fs *services.FavouriteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, actor, ok := currentUser(c)
		if !ok {
			return
		}
		venueID, ok := uuidParam(c, "venue_id")
		if !ok {
			return
		}

		if err := fs.RemoveFromFavourites(c.Request.Context(), actor.ID, venueID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, "Removed from favourites"))
	}
}

func GetFavourites(fs *services.FavouriteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, actor, ok := currentUser(c)
		if !ok {
			return
		}

		fav, err := fs.GetFavouritesByUserID(c.Request.Context(), actor.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{"venue_ids": fav.VenueIDs()}, ""))
	}
}
