package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	Environment    string
	JWTSecret      string
	// MasterKey seeds the crypto context; ballot encryption and eligibility
	// token keys are derived from it, never stored.
	MasterKey []byte
	// RatingScaleMax is the upper bound of the rating ballot scale (1..max)
	RatingScaleMax int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	masterKey, err := parseMasterKey(getEnv("CHAMBER_MASTER_KEY", ""))
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisURL:       getEnv("REDIS_URL", ""),
		Environment:    getEnv("ENVIRONMENT", "production"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		MasterKey:      masterKey,
		RatingScaleMax: getIntEnv("RATING_SCALE_MAX", 10),
	}, nil
}

// parseMasterKey decodes the hex-encoded 32-byte master secret
func parseMasterKey(value string) ([]byte, error) {
	if value == "" {
		return nil, fmt.Errorf("CHAMBER_MASTER_KEY environment variable is not set")
	}
	key, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("CHAMBER_MASTER_KEY must be hex encoded: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("CHAMBER_MASTER_KEY must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// parseOrigins parses comma-separated origins into a slice
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
