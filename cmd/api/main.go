package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joshua-takyi/venuely/internal/config"
	"github.com/joshua-takyi/venuely/internal/connect"
	"github.com/joshua-takyi/venuely/internal/container"
	"github.com/joshua-takyi/venuely/internal/helpers"
	"github.com/joshua-takyi/venuely/internal/mailer"
	"github.com/joshua-takyi/venuely/internal/models"
	"github.com/joshua-takyi/venuely/internal/payment"
	"github.com/joshua-takyi/venuely/internal/routes"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg)
	logger.Info("Starting Venuely API server", "environment", cfg.Environment)

	db, err := connect.PostgresConnect(cfg.Database, cfg.IsDevelopment())
	if err != nil {
		logger.Error("Failed to connect to Postgres", "error", err)
		os.Exit(1)
	}
	if cfg.Database.AutoMigrate {
		if err := models.AutoMigrate(db); err != nil {
			logger.Error("Failed to migrate database", "error", err)
			os.Exit(1)
		}
	}
	logger.Info("Connected to Postgres successfully")

	supaClient, err := connect.InitSupabase(cfg.Supabase)
	if err != nil {
		logger.Error("Failed to connect to Supabase", "error", err)
		os.Exit(1)
	}

	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	validator, err := helpers.NewTokenValidator(rootCtx, cfg.Supabase.URL, cfg.Supabase.JWTSecret)
	if err != nil {
		logger.Error("Failed to initialise token validation", "error", err)
		os.Exit(1)
	}
	defer validator.Close()

	var mongoClient *mongo.Client
	if cfg.MongoEnabled() {
		mongoClient, err = connect.MongoDBConnect(cfg.Mongo)
		if err != nil {
			logger.Error("Failed to connect to MongoDB", "error", err)
			os.Exit(1)
		}
		logger.Info("Connected to MongoDB successfully")
	} else {
		logger.Warn("MONGODB_URI not set, favourites and the payment notification log are disabled")
	}

	var redisClient *redis.Client
	if cfg.RedisEnabled() {
		redisClient, err = connect.RedisConnect(cfg.Redis)
		if err != nil {
			logger.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		logger.Info("Connected to Redis successfully")
	}

	var images helpers.ImageStore
	if cfg.CloudinaryEnabled() {
		cld, err := connect.CloudinaryCredentials(cfg.Cloudinary)
		if err != nil {
			logger.Error("Failed to connect to Cloudinary", "error", err)
			os.Exit(1)
		}
		images = helpers.NewCloudinaryStore(cld, cfg.Cloudinary.Folder)
	} else {
		logger.Warn("Cloudinary not configured, only hosted image URLs are accepted")
	}

	appContainer := container.NewContainer(cfg, logger, container.Deps{
		DB:             db,
		SupabaseClient: supaClient,
		MongoDBClient:  mongoClient,
		RedisClient:    redisClient,
		ImageStore:     images,
		Gateway:        payment.NewMidtransGateway(cfg.Payment.ServerKey, cfg.Payment.Production),
		Mailer: mailer.New(mailer.Config{
			Provider:          cfg.Mail.Provider,
			From:              cfg.Mail.From,
			FromName:          cfg.Mail.FromName,
			SMTPHost:          cfg.Mail.SMTPHost,
			SMTPPort:          cfg.Mail.SMTPPort,
			SMTPUsername:      cfg.Mail.SMTPUsername,
			SMTPPassword:      cfg.Mail.SMTPPassword,
			MailjetPublicKey:  cfg.Mail.MailjetPublicKey,
			MailjetPrivateKey: cfg.Mail.MailjetPrivateKey,
		}, logger),
		TokenValidator: validator,
	})

	router := routes.SetupRoutes(appContainer)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	appContainer.PaymentService.Wait()

	if err := connect.MongoDBDisconnect(mongoClient); err != nil {
		logger.Error("Error disconnecting from MongoDB", "error", err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Error closing Redis", "error", err)
		}
	}
	if err := connect.PostgresDisconnect(db); err != nil {
		logger.Error("Error closing Postgres", "error", err)
	}

	logger.Info("Server exited")
}

func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
