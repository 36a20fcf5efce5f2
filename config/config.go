package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Transport selects how the Gemini API is reached
type Transport string

const (
	TransportSDK  Transport = "sdk"
	TransportREST Transport = "rest"
)

// Config holds process configuration read from the environment
type Config struct {
	Port             string
	Environment      string
	LogFile          string
	GeminiAPIKey     string
	GeminiModel      string
	GeminiTransport  Transport
	GeminiBaseURL    string // REST transport only
	PromptProfile    string
	MaxUploadBytes   int64
	ProgressInterval time.Duration
	RequestTimeout   time.Duration
	DatabaseURL      string // optional, enables the run audit log
}

// IsProduction reports whether APP_ENV is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HasAPIKey reports whether a Gemini credential was provided
func (c *Config) HasAPIKey() bool {
	return strings.TrimSpace(c.GeminiAPIKey) != ""
}

// LoadDotEnv loads .env from the working directory, then from the project root
// when run from cmd/<name>/. A missing file is not an error.
func LoadDotEnv() bool {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			return false
		}
	}
	return true
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     getEnv("APP_ENV", "development"),
		LogFile:         getEnv("LOG_FILE", "./logs/app.log"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-3-pro-preview"),
		GeminiTransport: Transport(getEnv("GEMINI_TRANSPORT", string(TransportSDK))),
		GeminiBaseURL:   getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		PromptProfile:   getEnv("PROMPT_PROFILE", "delta"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
	}
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = os.Getenv("API_KEY")
	}

	switch cfg.GeminiTransport {
	case TransportSDK, TransportREST:
	default:
		return nil, fmt.Errorf("unknown GEMINI_TRANSPORT: %s", cfg.GeminiTransport)
	}

	maxMB, err := strconv.Atoi(getEnv("MAX_UPLOAD_MB", "20"))
	if err != nil || maxMB <= 0 {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_MB: %q", os.Getenv("MAX_UPLOAD_MB"))
	}
	cfg.MaxUploadBytes = int64(maxMB) * 1024 * 1024

	if cfg.ProgressInterval, err = getDuration("PROGRESS_INTERVAL", 500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 5*time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return d, nil
}
