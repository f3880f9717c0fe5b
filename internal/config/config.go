package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type DB struct {
	DbHOST     string `env:"DB_HOST" envDefault:"localhost"`
	DbPORT     string `env:"DB_PORT" envDefault:"5432"`
	DbUSER     string `env:"DB_USER" envDefault:"postgres"`
	DbPASSWORD string `env:"DB_PASSWORD" envDefault:"password"`
	DbNAME     string `env:"DB_NAME" envDefault:"archive"`
	DbSSLMODE  string `env:"DB_SSLMODE" envDefault:"disable"`

	// InMemory skips Postgres entirely; data lives only as long as the process.
	InMemory       bool   `env:"DB_IN_MEMORY" envDefault:"false"`
	MigrationsPath string `env:"DB_MIGRATIONS_PATH" envDefault:"migrations/001_create_tables.sql"`
}

func (d DB) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.DbHOST, d.DbPORT, d.DbUSER, d.DbPASSWORD, d.DbNAME, d.DbSSLMODE,
	)
}

type MinIO struct {
	Endpoint       string `env:"MINIO_ENDPOINT" envDefault:"localhost:9000"`
	AccessKey      string `env:"MINIO_ACCESS_KEY" envDefault:"minioadmin"`
	SecretKey      string `env:"MINIO_SECRET_KEY" envDefault:"minioadmin"`
	BucketName     string `env:"MINIO_BUCKET_NAME" envDefault:"archive-media"`
	DocumentBucket string `env:"MINIO_DOCUMENT_BUCKET" envDefault:"identity-documents"`
	UseSSL         bool   `env:"MINIO_USE_SSL" envDefault:"false"`
	Region         string `env:"MINIO_REGION" envDefault:"us-east-1"`

	// PublicURL is the base used for attachment links; defaults to the endpoint.
	PublicURL string `env:"MINIO_PUBLIC_URL"`
}

type Redis struct {
	// Addr enables the Redis notification publisher; empty means log-only notifications.
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	Channel  string `env:"REDIS_NOTIFICATION_CHANNEL" envDefault:"archive.notifications"`
}

type Telemetry struct {
	ServiceName  string `env:"OTEL_SERVICE_NAME" envDefault:"archive-portal"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

type Config struct {
	ServerPort          int `env:"SERVER_PORT" envDefault:"8080"`
	DB                  DB
	MinIO               MinIO
	Redis               Redis
	Telemetry           Telemetry
	JWTSecretKey        string        `env:"JWT_SECRET_KEY"`
	AccessTokenDuration time.Duration `env:"ACCESS_TOKEN_DURATION" envDefault:"2h"`
	MaxUploadSize       int64         `env:"MAX_UPLOAD_SIZE" envDefault:"52428800"`
	ExploreCacheTTL     time.Duration `env:"EXPLORE_CACHE_TTL" envDefault:"1m"`
	NotificationBuffer  int           `env:"NOTIFICATION_BUFFER" envDefault:"64"`
	RequireVerified     bool          `env:"REQUIRE_VERIFIED_CONTRIBUTORS" envDefault:"false"`
	AllowedOrigin       string        `env:"CORS_ALLOWED_ORIGIN" envDefault:"*"`
	ShutdownTimeout     time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET_KEY is required")

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.JWTSecretKey == "" {
		return nil, ErrMissingJWTSecret
	}
	if cfg.MinIO.PublicURL == "" {
		scheme := "http"
		if cfg.MinIO.UseSSL {
			scheme = "https"
		}
		cfg.MinIO.PublicURL = scheme + "://" + cfg.MinIO.Endpoint
	}
	return &cfg, nil
}
