package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Auth0
	Auth0Domain   string
	Auth0Audience string

	// Server
	Port        string
	CORSOrigins []string
	Env         string

	// S3 Storage for chat transcripts
	S3 S3Config

	// Chat command interpreter
	Commands CommandConfig

	// RefreshSchedule is the cron spec for reloading open dashboard sessions
	RefreshSchedule string
}

// S3Config holds AWS S3 configuration
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for MinIO/LocalStack local dev
}

// CommandConfig holds settings for chat commands
type CommandConfig struct {
	DealYear   int
	DealLabel  string
	RatePerMin int
	RateBurst  int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	dealYear, err := getEnvInt("COMMAND_DEAL_YEAR", 2024)
	if err != nil {
		return nil, err
	}
	ratePerMin, err := getEnvInt("CHAT_RATE_LIMIT", 30)
	if err != nil {
		return nil, err
	}
	rateBurst, err := getEnvInt("CHAT_RATE_BURST", 5)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		Auth0Domain:   getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience: getEnv("AUTH0_AUDIENCE", ""),
		Port:          getEnv("PORT", "8080"),
		CORSOrigins:   strings.Split(getEnv("CORS_ORIGINS", "http://localhost:5173"), ","),
		Env:           getEnv("ENV", "development"),
		S3: S3Config{
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          getEnv("S3_BUCKET", "teri-chat"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""), // Empty = use AWS, set for MinIO/LocalStack
		},
		Commands: CommandConfig{
			DealYear:   dealYear,
			DealLabel:  getEnv("COMMAND_DEAL_LABEL", "T.E.R.I Customer Service"),
			RatePerMin: ratePerMin,
			RateBurst:  rateBurst,
		},
		RefreshSchedule: getEnv("REFRESH_SCHEDULE", "@every 15m"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth0Domain == "" {
		return fmt.Errorf("AUTH0_DOMAIN is required")
	}
	if c.Auth0Audience == "" {
		return fmt.Errorf("AUTH0_AUDIENCE is required")
	}
	if c.Commands.DealYear < 1970 || c.Commands.DealYear > 9999 {
		return fmt.Errorf("COMMAND_DEAL_YEAR must be a four digit year")
	}
	if c.Commands.RatePerMin <= 0 || c.Commands.RateBurst <= 0 {
		return fmt.Errorf("CHAT_RATE_LIMIT and CHAT_RATE_BURST must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
