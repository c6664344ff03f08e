package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/venuely/internal/helpers"
	"github.com/joshua-takyi/venuely/internal/models"
	"github.com/joshua-takyi/venuely/internal/services"
)

func SendContactMessage(cs *services.ContactService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in models.ContactInput
		if !bindJSON(c, &in) {
			return
		}

		if err := cs.Send(c.Request.Context(), c.ClientIP(), in); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, helpers.SuccessResponse(nil, "Thanks, we will get back to you soon"))
	}
}
