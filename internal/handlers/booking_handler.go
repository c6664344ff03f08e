package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/venuely/internal/helpers"
	"github.com/joshua-takyi/venuely/internal/models"
	"github.com/joshua-takyi/venuely/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func CreateBooking(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, actor, ok := currentUser(c)
		if !ok {
			return
		}
		var in models.BookingInput
		if !bindJSON(c, &in) {
			return
		}

		booking, err := b.CreateBooking(c.Request.Context(), actor, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, helpers.SuccessResponse(gin.H{
			"booking":       booking,
			"payment_token": booking.PaymentToken,
			"redirect_url":  booking.PaymentRedirectURL,
		}, "Booking created, complete the payment to confirm it"))
	}
}

func ListMyBookings(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, actor, ok := currentUser(c)
		if !ok {
			return
		}
		offset, limit, ok := pagination(c)
		if !ok {
			return
		}

		bookings, total, err := b.ListMyBookings(c.Request.Context(), actor, c.Query("status"), offset, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.PaginatedResponse(bookings, page(offset, limit), limit, total))
	}
}

func GetBooking(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, actor, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := uuidParam(c, "id")
		if !ok {
			return
		}

		booking, err := b.GetBooking(c.Request.Context(), actor, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(booking, ""))
	}
}

func DownloadInvoice(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, actor, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := uuidParam(c, "id")
		if !ok {
			return
		}

		pdf, filename, err := b.Invoice(c.Request.Context(), actor, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, "application/pdf", pdf)
	}
}

func ListOwnerBookings(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, actor, ok := currentUser(c)
		if !ok {
			return
		}
		offset, limit, ok := pagination(c)
		if !ok {
			return
		}

		bookings, total, err := b.ListOwnerBookings(c.Request.Context(), actor, c.Query("status"), offset, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.PaginatedResponse(bookings, page(offset, limit), limit, total))
	}
}

func ExportOwnerBookings(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, actor, ok := currentUser(c)
		if !ok {
			return
		}

		buf, err := b.ExportOwnerBookings(c.Request.Context(), actor, c.Query("status"))
		if err != nil {
			respondError(c, err)
			return
		}
		filename := fmt.Sprintf("bookings-%s.xlsx", time.Now().UTC().Format("20060102"))
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	}
}
