package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	BackendURL     string
	LogLevel       string
	Environment    string
	RedisURL       string

	// Token cookie settings
	CookieSecure bool
	RememberFor  time.Duration

	// Outbound call bounds
	RequestTimeout   time.Duration
	DashboardTimeout time.Duration

	DashboardCacheTTL    time.Duration
	SessionCheckInterval time.Duration

	// Auth proxy rate limiting, requests per second per client
	AuthRateLimit float64
	AuthRateBurst int

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Terminal client state directory
	Home string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:                 getEnv("PORT", "3000"),
		AllowedOrigins:       parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		BackendURL:           strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:8000"), "/"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		Environment:          getEnv("ENVIRONMENT", "production"),
		RedisURL:             getEnv("REDIS_URL", ""),
		RememberFor:          time.Duration(getIntEnv("REMEMBER_DAYS", 30)) * 24 * time.Hour,
		RequestTimeout:       getDurationEnv("REQUEST_TIMEOUT", 15*time.Second),
		DashboardTimeout:     getDurationEnv("DASHBOARD_TIMEOUT", 8*time.Second),
		DashboardCacheTTL:    getDurationEnv("DASHBOARD_CACHE_TTL", 5*time.Minute),
		SessionCheckInterval: getDurationEnv("SESSION_CHECK_INTERVAL", time.Minute),
		AuthRateLimit:        getFloatEnv("AUTH_RATE_LIMIT", 2),
		AuthRateBurst:        getIntEnv("AUTH_RATE_BURST", 10),
		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:    getEnv("GOOGLE_REDIRECT_URL", "http://localhost:3000/auth/google/callback"),
		Home:                 getEnv("PATHLIGHT_HOME", defaultHome()),
	}

	// Local development runs over plain http
	cfg.CookieSecure = getBoolEnv("COOKIE_SECURE", !cfg.IsDevelopment())

	return cfg, nil
}

// IsDevelopment reports whether the app runs outside production
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "local"
}

// OAuthEnabled reports whether Google sign-in is configured
func (c *Config) OAuthEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
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

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

// getDurationEnv accepts Go duration strings ("8s", "2m")
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func defaultHome() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return ".pathlight"
	}
	return filepath.Join(dir, ".pathlight")
}
