package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/mansoorceksport/examcore/internal/domain"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Upload   UploadConfig
	S3       S3Config
	MongoDB  MongoDBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Firebase FirebaseConfig
	OTEL     OTELConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	// MaxFileSize is the raw MAX_FILE_SIZE value; MaxFileSizeBytes is the
	// byte limit resolved from it once at load time. Everything downstream
	// reads the resolved value.
	MaxFileSize      int64
	MaxFileSizeBytes int64
}

// UploadConfig holds file storage configuration
type UploadConfig struct {
	Path        string
	StorageType string // "local" or "s3"
}

// S3Config holds S3-compatible object store configuration (SeaweedFS,
// MinIO, AWS). Only consulted when STORAGE_TYPE=s3.
type S3Config struct {
	Endpoint string
	Region   string
	Bucket   string
}

// MongoDBConfig holds MongoDB connection configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
}

// JWTConfig holds service token configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// FirebaseConfig holds Firebase Admin SDK configuration
type FirebaseConfig struct {
	ProjectID   string
	PrivateKey  string // Base64 encoded
	ClientEmail string
}

// OTELConfig holds OpenTelemetry export configuration
type OTELConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	InstanceID     string
	Token          string
}

// Load reads configuration from environment variables
// It attempts to load from .env file first, then falls back to system env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 10),
		},
		Upload: UploadConfig{
			Path:        getEnv("UPLOAD_PATH", "./uploads"),
			StorageType: getEnv("STORAGE_TYPE", domain.StorageTypeLocal),
		},
		S3: S3Config{
			Endpoint: getEnv("S3_ENDPOINT", ""),
			Region:   getEnv("S3_REGION", "us-east-1"),
			Bucket:   getEnv("S3_BUCKET", "examcore-uploads"),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "examcore"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", ""),
			AccessTokenExpiry: getEnvAsDuration("JWT_ACCESS_TOKEN_EXPIRY", 24*time.Hour),
		},
		Firebase: FirebaseConfig{
			ProjectID:   getEnv("FIREBASE_PROJECT_ID", ""),
			PrivateKey:  getEnv("FIREBASE_PRIVATE_KEY", ""),
			ClientEmail: getEnv("FIREBASE_CLIENT_EMAIL", ""),
		},
		OTEL: OTELConfig{
			Enabled:        getEnv("OTEL_ENABLED", "false") == "true",
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "examcore-api"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
			Environment:    getEnv("OTEL_ENVIRONMENT", "development"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			InstanceID:     getEnv("OTEL_INSTANCE_ID", ""),
			Token:          getEnv("OTEL_TOKEN", ""),
		},
	}

	// Resolve the size limit exactly once; both the HTTP layer and the
	// upload service consume the resolved value via UploadPolicy.
	cfg.Server.MaxFileSizeBytes = ResolveMaxFileSize(cfg.Server.MaxFileSize)

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// ResolveMaxFileSize turns the MAX_FILE_SIZE value into a byte limit.
// Values above 100 are taken as already being bytes; anything else is
// assumed to be megabytes. Known quirk: a limit intended as e.g. 200 MB is
// silently read as 200 bytes. Kept for configuration compatibility; see
// config_test.go.
func ResolveMaxFileSize(v int64) int64 {
	if v > 100 {
		return v
	}
	return v * 1024 * 1024
}

// UploadPolicy builds the single policy object shared by the transport
// layer and the upload service.
func (c *Config) UploadPolicy() domain.UploadPolicy {
	return domain.UploadPolicy{
		MaxBytes:  c.Server.MaxFileSizeBytes,
		MIMETypes: domain.AllowedImageMIMETypes,
	}
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Server.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive")
	}
	switch c.Upload.StorageType {
	case domain.StorageTypeLocal:
	case domain.StorageTypeS3:
		if c.S3.Endpoint == "" {
			return fmt.Errorf("S3_ENDPOINT is required when STORAGE_TYPE=s3")
		}
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_TYPE=s3")
		}
	default:
		return fmt.Errorf("STORAGE_TYPE must be %q or %q", domain.StorageTypeLocal, domain.StorageTypeS3)
	}
	if c.Firebase.ProjectID == "" {
		return fmt.Errorf("FIREBASE_PROJECT_ID is required")
	}
	if c.Firebase.PrivateKey == "" {
		return fmt.Errorf("FIREBASE_PRIVATE_KEY is required")
	}
	if c.Firebase.ClientEmail == "" {
		return fmt.Errorf("FIREBASE_CLIENT_EMAIL is required")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt64 retrieves an environment variable as int64 or returns a default value
func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration retrieves an environment variable as a duration or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
