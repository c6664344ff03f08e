package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/venuely/internal/container"
	"github.com/joshua-takyi/venuely/internal/handlers"
	"github.com/joshua-takyi/venuely/internal/metrics"
	"github.com/joshua-takyi/venuely/internal/middleware"
	"github.com/joshua-takyi/venuely/internal/models"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	cfg := container.Config
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	secure := cfg.IsProduction()

	metrics.Register()

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		container.Logger.Error("invalid TRUSTED_PROXIES, forwarded headers are ignored", "error", err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(metrics.Middleware())
	r.Use(gin.Recovery())

	r.GET("/health", health(container))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/signup", handlers.CreateUser(container.UserService))
		v1.POST("/auth/login", handlers.AuthenticateUser(container.UserService, secure))
		v1.POST("/auth/logout", handlers.Logout(secure))

		v1.GET("/venues", handlers.ListVenues(container.VenueService))
		v1.GET("/venues/:id", handlers.GetVenueByID(container.VenueService))
		v1.GET("/categories", handlers.ListCategories(container.VenueService))
		v1.GET("/facilities", handlers.ListFacilities(container.VenueService))

		v1.POST("/payments/notification", handlers.PaymentNotification(container.PaymentService))
		v1.POST("/contact", handlers.SendContactMessage(container.ContactService))
	}

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(container.TokenValidator, container.UserService, container.Logger, secure))
	{
		protected.GET("/auth/me", handlers.Me(container.UserService))

		protected.POST("/bookings", handlers.CreateBooking(container.BookingService))
		protected.GET("/bookings", handlers.ListMyBookings(container.BookingService))
		protected.GET("/bookings/:id", handlers.GetBooking(container.BookingService))
		protected.GET("/bookings/:id/invoice", handlers.DownloadInvoice(container.BookingService))
	}

	managers := protected.Group("/")
	managers.Use(middleware.RequireRole(string(models.RoleOwner), string(models.RoleAdmin)))
	{
		managers.POST("/venues", handlers.CreateVenueHandler(container.VenueService))
		managers.PUT("/venues/:id", handlers.UpdateVenueHandler(container.VenueService))
		managers.DELETE("/venues/:id", handlers.DeleteVenue(container.VenueService))

		managers.GET("/owner/venues", handlers.ListOwnerVenues(container.VenueService))
		managers.GET("/owner/bookings", handlers.ListOwnerBookings(container.BookingService))
		managers.GET("/owner/bookings/export", handlers.ExportOwnerBookings(container.BookingService))
	}

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole(string(models.RoleAdmin)))
	{
		admin.GET("/payments/:order_id/notifications", handlers.NotificationHistory(container.PaymentService))
	}

	if container.FavouritesService != nil {
		favs := protected.Group("/favourites")
		{
			favs.GET("", handlers.GetFavourites(container.FavouritesService))
			favs.POST("/:venue_id", handlers.AddToFavourites(container.FavouritesService))
			favs.DELETE("/:venue_id", handlers.RemoveFromFavourites(container.FavouritesService))
		}
	}

	return r
}

func health(container *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{"database": "ok"}
		status := http.StatusOK

		if sqlDB, err := container.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			checks["database"] = "unavailable"
			status = http.StatusServiceUnavailable
		}
		if container.MongoDBClient != nil {
			checks["mongodb"] = "ok"
			if err := container.MongoDBClient.Ping(ctx, nil); err != nil {
				checks["mongodb"] = "unavailable"
			}
		}
		if container.RedisClient != nil {
			checks["redis"] = "ok"
			if err := container.RedisClient.Ping(ctx).Err(); err != nil {
				checks["redis"] = "unavailable"
			}
		}

		c.JSON(status, gin.H{
			"status":  http.StatusText(status),
			"service": "venuely-api",
			"checks":  checks,
		})
	}
}
