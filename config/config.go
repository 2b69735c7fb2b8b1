package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string
	// BaseURL is the externally resolvable address of this server. The vision
	// model fetches uploaded photos through it, so it must be reachable from
	// outside when the local upload store is used.
	BaseURL string

	// Database configuration
	DBDriver string // "sqlite" or "postgres"
	DBPath   string // sqlite file path
	DBDSN    string // postgres DSN, used when DBDriver is "postgres"

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// JWT configuration
	JWTSecret string

	// Model API configuration
	ModelAPIKey     string
	ModelAPIURL     string
	VisionModel     string
	TextModel       string
	ScanConcurrency int64

	// Upload configuration
	UploadDir     string
	UploadBackend string // "local" or "s3"

	// Rate limiting
	ScanRateLimit int
}

// Load creates a Config from environment variables. A .env file in the
// working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		ServerHost:      getEnv("SERVER_HOST", "0.0.0.0"),
		BaseURL:         getEnv("BASE_URL", "http://localhost:8080"),
		DBDriver:        getEnv("DB_DRIVER", "sqlite"),
		DBPath:          getEnv("DB_PATH", "nutrisnap.db"),
		DBDSN:           os.Getenv("DB_DSN"),
		RedisHost:       getEnv("REDIS_HOST", "localhost"),
		RedisPort:       getEnv("REDIS_PORT", "6379"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		ModelAPIKey:     os.Getenv("OPENAI_API_KEY"),
		ModelAPIURL:     getEnv("OPENAI_API_URL", "https://api.openai.com/v1/chat/completions"),
		VisionModel:     getEnv("VISION_MODEL", "gpt-4o"),
		TextModel:       getEnv("TEXT_MODEL", "gpt-4o-mini"),
		UploadDir:       getEnv("UPLOAD_DIR", "uploads"),
		UploadBackend:   getEnv("UPLOAD_BACKEND", "local"),
		ScanConcurrency: 4,
		ScanRateLimit:   20,
		RedisDB:         0,
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		cfg.RedisDB = db
	}
	if v := os.Getenv("SCAN_CONCURRENCY"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid SCAN_CONCURRENCY: %q", v)
		}
		cfg.ScanConcurrency = n
	}
	if v := os.Getenv("SCAN_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid SCAN_RATE_LIMIT: %q", v)
		}
		cfg.ScanRateLimit = n
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and consistent.
func Validate(cfg *Config) error {
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if cfg.ModelAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY must be set")
	}
	switch cfg.DBDriver {
	case "sqlite":
		if cfg.DBPath == "" {
			return fmt.Errorf("DB_PATH must be set for the sqlite driver")
		}
	case "postgres":
		if cfg.DBDSN == "" {
			return fmt.Errorf("DB_DSN must be set for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER: %q", cfg.DBDriver)
	}
	switch cfg.UploadBackend {
	case "local", "s3":
	default:
		return fmt.Errorf("unknown UPLOAD_BACKEND: %q", cfg.UploadBackend)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
