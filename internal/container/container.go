package container

import (
	"context"
	"log/slog"

	"github.com/joshua-takyi/venuely/internal/config"
	"github.com/joshua-takyi/venuely/internal/helpers"
	"github.com/joshua-takyi/venuely/internal/mailer"
	"github.com/joshua-takyi/venuely/internal/models"
	"github.com/joshua-takyi/venuely/internal/payment"
	"github.com/joshua-takyi/venuely/internal/ratelimit"
	"github.com/joshua-takyi/venuely/internal/services"
	"github.com/redis/go-redis/v9"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	DB             *gorm.DB
	SupabaseClient *supabase.Client
	MongoDBClient  *mongo.Client
	RedisClient    *redis.Client
	TokenValidator *helpers.TokenValidator

	UserService       *services.UserService
	VenueService      *services.VenuesService
	BookingService    *services.BookingService
	PaymentService    *services.PaymentService
	ContactService    *services.ContactService
	FavouritesService *services.FavouriteService
}

// Deps are the connected clients. MongoDB, Redis and the image store are
// optional and may be nil.
type Deps struct {
	DB             *gorm.DB
	SupabaseClient *supabase.Client
	MongoDBClient  *mongo.Client
	RedisClient    *redis.Client
	ImageStore     helpers.ImageStore
	Gateway        payment.Gateway
	Mailer         mailer.Mailer
	TokenValidator *helpers.TokenValidator
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config, logger *slog.Logger, deps Deps) *Container {
	gormRepo := models.GormNewRepo(deps.DB)
	supa := models.SupabaseNewRepo(deps.SupabaseClient)

	var limiter ratelimit.Limiter
	if deps.RedisClient != nil {
		limiter = ratelimit.NewRedisLimiter(deps.RedisClient, "contact", cfg.Contact.RateLimit, cfg.Contact.RateWindow)
	} else {
		limiter = ratelimit.NewMemoryLimiter(cfg.Contact.RateLimit, cfg.Contact.RateWindow)
	}

	var notifications models.PaymentNotificationRepo
	var favouriteService *services.FavouriteService
	if deps.MongoDBClient != nil {
		mdb := models.MongodbNewRepo(deps.MongoDBClient, cfg.Mongo.Database)
		if err := mdb.EnsureIndexes(context.Background()); err != nil {
			logger.Warn("Failed to create MongoDB indexes", "error", err)
		}
		notifications = mdb
		favouriteService = services.NewFavouriteService(mdb, gormRepo)
	}

	return &Container{
		Config:         cfg,
		Logger:         logger,
		DB:             deps.DB,
		SupabaseClient: deps.SupabaseClient,
		MongoDBClient:  deps.MongoDBClient,
		RedisClient:    deps.RedisClient,
		TokenValidator: deps.TokenValidator,

		UserService:  services.NewUserService(supa, gormRepo),
		VenueService: services.NewVenuesService(gormRepo, deps.ImageStore, logger),
		BookingService: services.NewBookingService(gormRepo, gormRepo, deps.Gateway, services.BookingSettings{
			ServiceFee:    cfg.Booking.ServiceFee,
			PaymentWindow: cfg.Booking.PaymentWindow,
			Currency:      cfg.Booking.Currency,
		}, logger),
		PaymentService: services.NewPaymentService(gormRepo, notifications, deps.Gateway, deps.Mailer, services.PaymentSettings{
			ServerKey:     cfg.Payment.ServerKey,
			VerifyWithAPI: cfg.Payment.VerifyWithAPI,
			Currency:      cfg.Booking.Currency,
		}, logger),
		ContactService:    services.NewContactService(limiter, deps.Mailer, cfg.Contact.Recipient, logger),
		FavouritesService: favouriteService,
	}
}
