package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// TrustedProxies lists the proxy IPs or CIDRs allowed to set
	// X-Forwarded-For. Empty means the socket address is the client IP.
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES"`

	// Sections keep flat variable names, so each one is processed on its own.
	Database   DatabaseConfig   `ignored:"true"`
	Mongo      MongoConfig      `ignored:"true"`
	Redis      RedisConfig      `ignored:"true"`
	Supabase   SupabaseConfig   `ignored:"true"`
	Cloudinary CloudinaryConfig `ignored:"true"`
	Payment    PaymentConfig    `ignored:"true"`
	Booking    BookingConfig    `ignored:"true"`
	Mail       MailConfig       `ignored:"true"`
	Contact    ContactConfig    `ignored:"true"`
	CORS       CORSConfig       `ignored:"true"`
}

type DatabaseConfig struct {
	URL          string `envconfig:"DATABASE_URL" required:"true"`
	MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns int    `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	AutoMigrate  bool   `envconfig:"DB_AUTO_MIGRATE" default:"true"`
}

// MongoConfig is optional. Favourites and the payment notification log are
// disabled when URI is empty.
type MongoConfig struct {
	URI      string `envconfig:"MONGODB_URI"`
	Password string `envconfig:"MONGODB_PASSWORD"`
	Database string `envconfig:"MONGODB_DATABASE" default:"venuely"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type SupabaseConfig struct {
	URL       string `envconfig:"SUPABASE_URL" required:"true"`
	AnonKey   string `envconfig:"SUPABASE_URL_ANON_KEY" required:"true"`
	JWTSecret string `envconfig:"SUPABASE_JWT_SECRET"`
}

type CloudinaryConfig struct {
	CloudName string `envconfig:"CLOUDINARY_CLOUD_NAME"`
	APIKey    string `envconfig:"CLOUDINARY_API_KEY"`
	APISecret string `envconfig:"CLOUDINARY_API_SECRET"`
	Folder    string `envconfig:"CLOUDINARY_FOLDER" default:"venues"`
}

type PaymentConfig struct {
	ServerKey     string `envconfig:"MIDTRANS_SERVER_KEY" required:"true"`
	ClientKey     string `envconfig:"MIDTRANS_CLIENT_KEY"`
	Production    bool   `envconfig:"MIDTRANS_PRODUCTION" default:"false"`
	VerifyWithAPI bool   `envconfig:"PAYMENT_VERIFY_WITH_API" default:"false"`
}

type BookingConfig struct {
	ServiceFee    int64         `envconfig:"BOOKING_SERVICE_FEE" default:"5000"`
	PaymentWindow time.Duration `envconfig:"BOOKING_PAYMENT_WINDOW" default:"24h"`
	Currency      string        `envconfig:"BOOKING_CURRENCY" default:"IDR"`
}

type MailConfig struct {
	Provider          string `envconfig:"MAIL_PROVIDER" default:"smtp"`
	From              string `envconfig:"MAIL_FROM" default:"no-reply@venuely.local"`
	FromName          string `envconfig:"MAIL_FROM_NAME" default:"Venuely"`
	SMTPHost          string `envconfig:"SMTP_HOST"`
	SMTPPort          int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername      string `envconfig:"SMTP_USERNAME"`
	SMTPPassword      string `envconfig:"SMTP_PASSWORD"`
	MailjetPublicKey  string `envconfig:"MAILJET_API_KEY"`
	MailjetPrivateKey string `envconfig:"MAILJET_SECRET_KEY"`
}

type ContactConfig struct {
	Recipient  string        `envconfig:"CONTACT_RECIPIENT" default:"support@venuely.local"`
	RateLimit  int           `envconfig:"CONTACT_RATE_LIMIT" default:"5"`
	RateWindow time.Duration `envconfig:"CONTACT_RATE_WINDOW" default:"1h"`
}

type CORSConfig struct {
	AllowOrigins []string `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000"`
}

// LoadConfig reads .env.local when present and then the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env.local")

	var cfg Config
	sections := []interface{}{
		&cfg, &cfg.Database, &cfg.Mongo, &cfg.Redis, &cfg.Supabase, &cfg.Cloudinary,
		&cfg.Payment, &cfg.Booking, &cfg.Mail, &cfg.Contact, &cfg.CORS,
	}
	for _, section := range sections {
		if err := envconfig.Process("", section); err != nil {
			return nil, fmt.Errorf("failed to process env config: %w", err)
		}
	}

	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))
	cfg.Mail.Provider = strings.ToLower(strings.TrimSpace(cfg.Mail.Provider))

	if cfg.Booking.ServiceFee < 0 {
		return nil, fmt.Errorf("BOOKING_SERVICE_FEE must not be negative")
	}
	if cfg.Booking.PaymentWindow <= 0 {
		return nil, fmt.Errorf("BOOKING_PAYMENT_WINDOW must be positive")
	}
	if cfg.Contact.RateLimit <= 0 {
		return nil, fmt.Errorf("CONTACT_RATE_LIMIT must be positive")
	}

	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// MongoEnabled reports whether the optional document store is configured.
func (c *Config) MongoEnabled() bool {
	return c.Mongo.URI != ""
}

func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}

func (c *Config) CloudinaryEnabled() bool {
	return c.Cloudinary.CloudName != "" && c.Cloudinary.APIKey != "" && c.Cloudinary.APISecret != ""
}
