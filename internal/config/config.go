package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mcoot/creaturegame/internal/dependencies/mailer"
	"github.com/mcoot/creaturegame/internal/services/oauth"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageMongo  = "mongo"
)

// Config holds application configuration
type Config struct {
	// Server
	Port         int
	BaseURL      string
	CookieSecure bool

	// Storage
	StorageType   string
	RedisURL      string
	MongoURI      string
	MongoDatabase string

	// Sessions and accounts
	SessionTTL        time.Duration
	AnonymousTTL      time.Duration
	ResetTokenSecret  string
	ResetTokenTTL     time.Duration
	PasswordMinLength int

	// Google OAuth (optional)
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// SMTP (optional; reset links are logged without it)
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string

	// HTTP
	AllowedOrigins    []string
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string
	LogFile  string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	baseURL := strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/")

	cfg := &Config{
		Port:         getEnvInt("PORT", 8080),
		BaseURL:      baseURL,
		CookieSecure: getEnvBool("COOKIE_SECURE", strings.HasPrefix(baseURL, "https://")),

		StorageType:   getEnv("STORAGE_TYPE", StorageMemory),
		RedisURL:      getEnv("REDIS_URL", ""),
		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDatabase: getEnv("MONGO_DATABASE", "creaturegame"),

		SessionTTL:        getEnvDuration("SESSION_TTL", 7*24*time.Hour),
		AnonymousTTL:      getEnvDuration("SESSION_ANONYMOUS_TTL", 30*time.Minute),
		ResetTokenSecret:  getEnv("RESET_TOKEN_SECRET", ""),
		ResetTokenTTL:     getEnvDuration("RESET_TOKEN_TTL", time.Hour),
		PasswordMinLength: getEnvInt("PASSWORD_MIN_LENGTH", 6),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", baseURL+"/auth/google/callback"),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "Creature Clash"),

		AllowedOrigins:    getEnvList("ALLOWED_ORIGINS"),
		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 20),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
	}

	switch cfg.StorageType {
	case StorageMemory:
	case StorageRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required when STORAGE_TYPE=redis")
		}
	case StorageMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("MONGO_URI is required when STORAGE_TYPE=mongo")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_TYPE %q", cfg.StorageType)
	}

	return cfg, nil
}

// ResetURL is the page password reset emails link to
func (c *Config) ResetURL() string {
	return c.BaseURL + "/reset-password"
}

// Google returns the Google OAuth client settings
func (c *Config) Google() oauth.GoogleConfig {
	return oauth.GoogleConfig{
		ClientID:     c.GoogleClientID,
		ClientSecret: c.GoogleClientSecret,
		RedirectURL:  c.GoogleRedirectURL,
	}
}

// SMTP returns the mail relay settings
func (c *Config) SMTP() mailer.SMTPConfig {
	return mailer.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		User:     c.SMTPUser,
		Password: c.SMTPPassword,
		From:     c.SMTPFrom,
		FromName: c.SMTPFromName,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
