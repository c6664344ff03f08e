package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/venuely/internal/helpers"
	"github.com/joshua-takyi/venuely/internal/models"
	"github.com/joshua-takyi/venuely/internal/services"
)

const internalErrorMessage = "internal server error"

// statusFor maps service errors onto HTTP status codes. Unknown errors are
// server errors.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrVenueNotFound),
		errors.Is(err, models.ErrBookingNotFound),
		errors.Is(err, models.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden),
		errors.Is(err, models.ErrInvalidSignature):
		return http.StatusForbidden
	case errors.Is(err, models.ErrBookingConflict),
		errors.Is(err, models.ErrVenueHasBookings),
		errors.Is(err, models.ErrEmailTaken),
		errors.Is(err, models.ErrInvoiceNotReady):
		return http.StatusConflict
	case errors.Is(err, models.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, models.ErrPaymentGateway):
		return http.StatusBadGateway
	case errors.Is(err, models.ErrFeatureDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError writes the error envelope. Validation errors carry their
// fields; server errors are attached to the context for logging and hidden
// from the client.
func respondError(c *gin.Context, err error) {
	var fields models.FieldErrors
	if errors.As(err, &fields) {
		c.JSON(http.StatusBadRequest, helpers.ValidationResponse(fields))
		return
	}

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		msg := internalErrorMessage
		if status != http.StatusInternalServerError {
			msg = rootMessage(err)
		}
		c.JSON(status, helpers.ErrorResponse(msg))
		return
	}
	c.JSON(status, helpers.ErrorResponse(rootMessage(err)))
}

// rootMessage returns the sentinel's message instead of the wrapped chain.
func rootMessage(err error) string {
	for _, sentinel := range []error{
		models.ErrVenueNotFound, models.ErrBookingNotFound, models.ErrProfileNotFound,
		models.ErrUnauthorized, models.ErrForbidden, models.ErrInvalidSignature,
		models.ErrBookingConflict, models.ErrVenueHasBookings, models.ErrEmailTaken,
		models.ErrInvoiceNotReady, models.ErrRateLimited, models.ErrPaymentGateway,
		models.ErrFeatureDisabled,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return internalErrorMessage
}

func badRequest(c *gin.Context, field, msg string) {
	c.JSON(http.StatusBadRequest, helpers.ValidationResponse(map[string]string{field: msg}))
}

// bindJSON decodes the body and answers 400 on malformed JSON.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid request payload"))
		return false
	}
	return true
}

func currentUser(c *gin.Context) (*helpers.EnhancedClaims, models.Actor, bool) {
	v, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, helpers.ErrorResponse("unauthorized"))
		return nil, models.Actor{}, false
	}
	claims, ok := v.(*helpers.EnhancedClaims)
	if !ok {
		_ = c.Error(errors.New("invalid user claims in context"))
		c.JSON(http.StatusInternalServerError, helpers.ErrorResponse(internalErrorMessage))
		return nil, models.Actor{}, false
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, helpers.ErrorResponse("invalid user ID in token"))
		return nil, models.Actor{}, false
	}
	return claims, models.Actor{ID: id, Role: models.Role(claims.GetSafeRole())}, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := helpers.StringTrim(c.Param(name))
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(c, name, "must be a valid id")
		return uuid.Nil, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, name, "must be a whole number")
		return 0, false
	}
	return n, true
}

func int64Query(c *gin.Context, name string) (int64, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, true
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		badRequest(c, name, "must be a whole number")
		return 0, false
	}
	return n, true
}

// pagination reads limit and offset. limit must be 1..100.
func pagination(c *gin.Context) (offset, limit int, ok bool) {
	if limit, ok = intQuery(c, "limit", services.DefaultPageLimit); !ok {
		return 0, 0, false
	}
	if limit < 1 || limit > services.MaxPageLimit {
		badRequest(c, "limit", "must be between 1 and 100")
		return 0, 0, false
	}
	if offset, ok = intQuery(c, "offset", 0); !ok {
		return 0, 0, false
	}
	if offset < 0 {
		badRequest(c, "offset", "must not be negative")
		return 0, 0, false
	}
	return offset, limit, true
}

func page(offset, limit int) int {
	return offset/limit + 1
}
