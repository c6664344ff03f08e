package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/venuely/internal/helpers"
	"github.com/joshua-takyi/venuely/internal/services"
)

const maxNotificationSize = 64 << 10

// PaymentNotification receives the gateway webhook.
func PaymentNotification(p *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxNotificationSize))
		if err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid request payload"))
			return
		}

		result, err := p.HandleNotification(c.Request.Context(), body)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(result, ""))
	}
}

// NotificationHistory lists the logged callbacks of one order for admins.
func NotificationHistory(p *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := intQuery(c, "limit", 20)
		if !ok {
			return
		}
		orderID := helpers.StringTrim(c.Param("order_id"))

		items, err := p.NotificationHistory(c.Request.Context(), orderID, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(items, ""))
	}
}
