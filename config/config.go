package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage drivers for product images and service receipts
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Config holds all application configuration
type Config struct {
	GoEnv              string
	Port               string
	DataDir            string
	DatabasePath       string
	DatabaseURL        string
	BusyTimeoutMS      int
	ImageDir           string
	ReceiptDir         string
	StorageDriver      string
	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	Auth0Domain        string
	Auth0Audience      string
	CORSAllowedOrigins []string
	LogLevel           string
}

var appConfig *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	dataDir := getEnv("DATA_DIR", "./data")
	busyTimeout, err := strconv.Atoi(getEnv("DB_BUSY_TIMEOUT_MS", "10000"))
	if err != nil {
		return nil, fmt.Errorf("DB_BUSY_TIMEOUT_MS must be an integer: %w", err)
	}

	config := &Config{
		GoEnv:              getEnv("GO_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		DataDir:            dataDir,
		DatabasePath:       getEnv("DATABASE_PATH", filepath.Join(dataDir, "furniture_management.db")),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		BusyTimeoutMS:      busyTimeout,
		ImageDir:           getEnv("IMAGE_DIR", "./images"),
		ReceiptDir:         getEnv("RECEIPT_DIR", filepath.Join(dataDir, "receipts")),
		StorageDriver:      strings.ToLower(getEnv("STORAGE_DRIVER", StorageLocal)),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		Auth0Domain:        getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:      getEnv("AUTH0_AUDIENCE", ""),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	SetConfig(config)
	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageLocal:
	case StorageS3:
		if c.AWSS3Bucket == "" {
			return fmt.Errorf("AWS_S3_BUCKET is required when STORAGE_DRIVER=s3")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q (expected %q or %q)", c.StorageDriver, StorageLocal, StorageS3)
	}
	if c.DatabaseURL == "" && c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH or DATABASE_URL is required")
	}
	if c.BusyTimeoutMS < 0 {
		return fmt.Errorf("DB_BUSY_TIMEOUT_MS must not be negative")
	}
	return nil
}

// AuthEnabled reports whether routes should be guarded by Auth0 tokens
func (c *Config) AuthEnabled() bool {
	return c.Auth0Domain != "" && c.Auth0Audience != ""
}

// UsesPostgres reports whether DatabaseURL points at a PostgreSQL server
func (c *Config) UsesPostgres() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://")
}

// EnsureDirectories creates the data, image and receipt directories
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.DataDir}
	if !c.UsesPostgres() {
		dirs = append(dirs, filepath.Dir(c.DatabasePath))
	}
	if c.StorageDriver == StorageLocal {
		dirs = append(dirs, c.ImageDir, c.ReceiptDir)
	}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// GetConfig returns the configuration produced by the last successful Load
func GetConfig() *Config {
	return appConfig
}

// SetConfig replaces the loaded configuration (primarily for testing)
func SetConfig(cfg *Config) {
	appConfig = cfg
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
