package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/venuely/internal/helpers"
	"github.com/joshua-takyi/venuely/internal/models"
	"github.com/joshua-takyi/venuely/internal/services"
)

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// StructuredLogger logs one line per request. Client errors are logged at
// warn level and server errors at error level.
func StructuredLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		if raw != "" {
			path = path + "?" + raw
		}
		requestID, _ := c.Get("request_id")

		level := slog.LevelInfo
		switch {
		case statusCode >= http.StatusInternalServerError:
			level = slog.LevelError
		case statusCode >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		logger.Log(c.Request.Context(), level, "HTTP Request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", path,
			"status", statusCode,
			"latency", latency,
			"client_ip", c.ClientIP(),
		)
	}
}

// ErrorHandler logs errors attached with c.Error. Handlers write their own
// response; a generic 500 is sent only when nothing was written.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		requestID, _ := c.Get("request_id")
		for _, e := range c.Errors {
			logger.Error("Request error",
				"request_id", requestID,
				"error", e.Err,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
			)
		}

		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success":    false,
				"error":      "internal server error",
				"request_id": requestID,
			})
		}
	}
}

// TokenValidator checks an access token and returns its claims.
type TokenValidator interface {
	ValidateToken(token string) (*helpers.CustomClaims, error)
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, helpers.ErrorResponse(msg))
}

func bearerToken(c *gin.Context) string {
	if token, err := c.Cookie(helpers.AccessTokenCookie); err == nil && token != "" {
		return token
	}
	auth := c.GetHeader("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// AuthMiddleware authenticates the caller from the access_token cookie or a
// bearer header. An expired cookie session is renewed with the refresh_token
// cookie. The caller's profile is stored in the context under "user".
func AuthMiddleware(validator TokenValidator, userService *services.UserService, logger *slog.Logger, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			unauthorized(c, "authentication required")
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			refreshToken, refreshErr := c.Cookie(helpers.RefreshTokenCookie)
			if refreshErr != nil || refreshToken == "" {
				unauthorized(c, "invalid or expired token")
				return
			}

			tokenRes, refreshErr := userService.RefreshToken(c.Request.Context(), refreshToken)
			if refreshErr != nil || tokenRes == nil || tokenRes.AccessToken == "" {
				logger.Warn("Token refresh failed", "error", refreshErr)
				helpers.ClearAuthCookies(c, secureCookies)
				unauthorized(c, "session expired")
				return
			}

			helpers.SetAuthCookies(c, tokenRes, secureCookies)
			logger.Info("Token refreshed successfully", "user_id", tokenRes.User.ID, "expires_in", tokenRes.ExpiresIn)

			claims, err = validator.ValidateToken(tokenRes.AccessToken)
			if err != nil {
				unauthorized(c, "refreshed token validation failed")
				return
			}
		}

		profile, err := userService.EnsureProfile(c.Request.Context(), claims)
		if err != nil {
			if errors.Is(err, models.ErrUnauthorized) {
				unauthorized(c, "invalid token subject")
				return
			}
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, helpers.ErrorResponse("internal server error"))
			return
		}

		c.Set("user", &helpers.EnhancedClaims{
			CustomClaims: claims,
			Role:         string(profile.Role),
			UserID:       profile.ID.String(),
			Email:        profile.Email,
			Fullname:     profile.FullName,
			PhoneNumber:  profile.Phone,
			CreatedAt:    profile.CreatedAt.Format(time.RFC3339),
		})
		c.Next()
	}
}

// RequireRole rejects callers whose role is not listed. It must run after
// AuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get("user")
		claims, _ := v.(*helpers.EnhancedClaims)
		if !ok || claims == nil {
			unauthorized(c, "authentication required")
			return
		}
		if !claims.HasRole(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, helpers.ErrorResponse("insufficient permissions"))
			return
		}
		c.Next()
	}
}
