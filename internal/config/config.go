// Package config handles loading and validation of portal configuration
// from environment variables. Supports .env files via godotenv.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devSessionSecret = "dev-session-secret-change-in-production"

// Storage drivers for the content-addressed gateway
const (
	StoragePinata = "pinata"
	StorageS3     = "s3"
)

// Config holds all portal configuration
type Config struct {
	// Server settings
	Port        int
	Environment string // "development" | "staging" | "production"
	LogLevel    string

	// Records backend (REST)
	BackendURL     string
	BackendTimeout time.Duration // 0 = transport defaults

	// Content-addressed storage gateway
	StorageDriver string
	PinataURL     string
	PinataJWT     string
	S3Bucket      string
	S3Endpoint    string
	S3Region      string

	// Orphaned upload ledger (optional)
	DatabaseURL string

	// Sessions
	RedisURL      string // empty = in-memory store
	SessionSecret string
	SessionTTL    time.Duration // 0 = no expiry
	CookieSecure  bool

	// HTTP
	AllowedOrigins []string
	RateLimitRPM   int

	// Uploads
	UploadConcurrency int
	MaxUploadMB       int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", ""),

		BackendURL:     strings.TrimRight(getEnv("BACKEND_URL", "http://127.0.0.1:5000"), "/"),
		BackendTimeout: getEnvDuration("BACKEND_TIMEOUT", 0),

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", StoragePinata)),
		PinataURL:     strings.TrimRight(getEnv("PINATA_URL", "https://api.pinata.cloud"), "/"),
		PinataJWT:     getEnv("PINATA_JWT", ""),
		S3Bucket:      getEnv("S3_BUCKET", ""),
		S3Endpoint:    getEnv("S3_ENDPOINT", ""),
		S3Region:      getEnv("S3_REGION", "us-east-1"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisURL:      getEnv("REDIS_URL", ""),
		SessionSecret: getEnv("SESSION_SECRET", devSessionSecret),
		SessionTTL:    getEnvDuration("SESSION_TTL", 0),
		CookieSecure:  getEnvBool("COOKIE_SECURE", false),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),
		RateLimitRPM:   getEnvInt("RATE_LIMIT_RPM", 120),

		UploadConcurrency: getEnvInt("UPLOAD_CONCURRENCY", 4),
		MaxUploadMB:       getEnvInt("MAX_UPLOAD_MB", 32),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks driver settings and, in production, the required secrets
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StoragePinata, StorageS3:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.UploadConcurrency < 1 {
		return fmt.Errorf("UPLOAD_CONCURRENCY must be at least 1")
	}

	if c.MaxUploadMB < 1 {
		return fmt.Errorf("MAX_UPLOAD_MB must be at least 1")
	}

	if c.StorageDriver == StorageS3 && c.S3Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required when STORAGE_DRIVER=s3")
	}

	// Validate required fields in production
	if c.Environment == "production" {
		if c.SessionSecret == devSessionSecret {
			return fmt.Errorf("SESSION_SECRET must be set in production")
		}
		if c.StorageDriver == StoragePinata && c.PinataJWT == "" {
			return fmt.Errorf("PINATA_JWT is required in production")
		}
	}

	return nil
}

// MaxUploadBytes is the multipart body limit for upload forms
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
