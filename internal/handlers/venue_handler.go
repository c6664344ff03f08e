package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/venuely/internal/helpers"
	"github.com/joshua-takyi/venuely/internal/models"
	"github.com/joshua-takyi/venuely/internal/services"
)

func CreateVenueHandler(v *services.VenuesService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, actor, ok := currentUser(c)
		if !ok {
			return
		}
		var in models.VenueInput
		if !bindJSON(c, &in) {
			return
		}

		venue, err := v.CreateVenue(c.Request.Context(), actor, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, helpers.SuccessResponse(venue, "Venue created successfully"))
	}
}

func UpdateVenueHandler(v *services.VenuesService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, actor, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := uuidParam(c, "id")
		if !ok {
			return
		}
		var in models.VenueInput
		if !bindJSON(c, &in) {
			return
		}

		venue, err := v.UpdateVenue(c.Request.Context(), actor, id, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(venue, "Venue updated successfully"))
	}
}

func DeleteVenue(v *services.VenuesService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, actor, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := uuidParam(c, "id")
		if !ok {
			return
		}

		if err := v.DeleteVenue(c.Request.Context(), actor, id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, "Venue deleted successfully"))
	}
}

func GetVenueByID(v *services.VenuesService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uuidParam(c, "id")
		if !ok {
			return
		}

		venue, err := v.GetVenue(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(venue, ""))
	}
}

// ListVenues serves the public search. category and facility may repeat.
func ListVenues(v *services.VenuesService) gin.HandlerFunc {
	return func(c *gin.Context) {
		offset, limit, ok := pagination(c)
		if !ok {
			return
		}
		minCapacity, ok := intQuery(c, "min_capacity", 0)
		if !ok {
			return
		}
		minPrice, ok := int64Query(c, "min_price")
		if !ok {
			return
		}
		maxPrice, ok := int64Query(c, "max_price")
		if !ok {
			return
		}

		filter := models.VenueFilter{
			Query:       c.Query("q"),
			City:        c.Query("city"),
			Categories:  c.QueryArray("category"),
			Facilities:  c.QueryArray("facility"),
			MinCapacity: minCapacity,
			PricingMode: models.PricingMode(c.Query("pricing_mode")),
			MinPrice:    minPrice,
			MaxPrice:    maxPrice,
			Sort:        models.VenueSort(c.Query("sort")),
			Offset:      offset,
			Limit:       limit,
		}

		venues, total, err := v.ListVenues(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.PaginatedResponse(venues, page(offset, limit), limit, total))
	}
}

func ListOwnerVenues(v *services.VenuesService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, actor, ok := currentUser(c)
		if !ok {
			return
		}
		offset, limit, ok := pagination(c)
		if !ok {
			return
		}

		venues, total, err := v.ListOwnerVenues(c.Request.Context(), actor, offset, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.PaginatedResponse(venues, page(offset, limit), limit, total))
	}
}

func ListCategories(v *services.VenuesService) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := v.ListCategories(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(categories, ""))
	}
}

func ListFacilities(v *services.VenuesService) gin.HandlerFunc {
	return func(c *gin.Context) {
		facilities, err := v.ListFacilities(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(facilities, ""))
	}
}
