// Package config loads application configuration from environment variables
// and an optional .env file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs to start.
type Config struct {
	// Port the HTTP server listens on.
	Port string
	// DBPath is the sqlite database file, or ":memory:" for tests.
	DBPath string
	// GeminiAPIKey authenticates against the Gemini API.
	GeminiAPIKey string
	// GeminiModel is the model used for both chat and parsing.
	GeminiModel string
	// GenerateTimeout bounds every text-generation call.
	GenerateTimeout time.Duration
	// Debug enables verbose logging.
	Debug bool
}

// Load reads configuration from the environment. A .env file in the working
// directory (or the optional explicit path) is loaded first; missing .env
// files are not an error.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", envPath[0], err)
		}
	} else {
		_ = godotenv.Load()
	}

	timeout, err := parseDurationEnv("GENERATE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config: invalid GENERATE_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Port:            getEnvOrDefault("PORT", "8080"),
		DBPath:          getEnvOrDefault("DB_PATH", "./finance.db"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		GenerateTimeout: timeout,
		Debug:           os.Getenv("DEBUG") == "true",
	}

	return cfg, nil
}

// Validate checks that fields required at runtime are present.
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("config: GEMINI_API_KEY is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("config: DB_PATH is required")
	}
	return nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}
