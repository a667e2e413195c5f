// Package config loads process configuration from environment
// variables, following the same getEnvOrDefault/getEnvBool/getEnvInt
// helper pattern used throughout this codebase.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// AppConfig holds the server-wide settings documented in §5's
// environment variable table: session/CSRF cookie policy, ingestion
// limits, and the per-resource caps enforced by the usecase layer.
type AppConfig struct {
	DatabaseURL string
	RedisURL    string

	SessionTimeoutDays int
	SessionCookieName  string
	CSRFCookieName     string
	CSRFTokenLength    int
	MaxActiveSessions  int

	MaxConcurrentFeeds   int
	FeedRefreshBatchSize int
	MaxFeedSizeMB        int
	RequestTimeout       time.Duration

	LogLevel string

	StoragePath        string
	OpmlFileExpiryHours int
	OpmlMaxFileSize     int64

	MaxFolderDepth      int
	MaxFoldersPerParent int
	MaxFolderNameLength int
	MaxTagNameLength    int

	MinUsernameLength int
	MaxUsernameLength int
	MinPasswordLength int
	MaxPasswordLength int

	MaxOPMLNestingDepth int
	MaxOPMLOutlines     int
}

// SessionTimeout returns SessionTimeoutDays as a time.Duration.
func (c *AppConfig) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutDays) * 24 * time.Hour
}

// LoadAppConfig loads AppConfig from the environment, applying the
// defaults §5 documents. DATABASE_URL has no default: a missing value
// is a FatalError at startup, not a fallback.
func LoadAppConfig() (*AppConfig, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	cfg := &AppConfig{
		DatabaseURL: dbURL,
		RedisURL:    getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),

		SessionTimeoutDays: getEnvInt("SESSION_TIMEOUT_DAYS", 30),
		SessionCookieName:  getEnvOrDefault("SESSION_COOKIE_NAME", "session_id"),
		CSRFCookieName:     getEnvOrDefault("CSRF_COOKIE_NAME", "csrf_token"),
		CSRFTokenLength:    getEnvInt("CSRF_TOKEN_LENGTH", 32),
		MaxActiveSessions:  getEnvInt("MAX_ACTIVE_SESSIONS", 5),

		MaxConcurrentFeeds:   getEnvInt("MAX_CONCURRENT_FEEDS", 50),
		FeedRefreshBatchSize: getEnvInt("FEED_REFRESH_BATCH_SIZE", 10),
		MaxFeedSizeMB:        getEnvInt("MAX_FEED_SIZE_MB", 5),
		RequestTimeout:       getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),

		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),

		StoragePath:         getEnvOrDefault("STORAGE_PATH", "/var/lib/feedkeep/opml"),
		OpmlFileExpiryHours: getEnvInt("OPML_FILE_EXPIRY_HOURS", 24),
		OpmlMaxFileSize:     getEnvInt64("OPML_MAX_FILE_SIZE", 16<<20),

		MaxFolderDepth:      getEnvInt("MAX_FOLDER_DEPTH", 9),
		MaxFoldersPerParent: getEnvInt("MAX_FOLDERS_PER_PARENT", 50),
		MaxFolderNameLength: getEnvInt("MAX_FOLDER_NAME_LENGTH", 16),
		MaxTagNameLength:    getEnvInt("MAX_TAG_NAME_LENGTH", 64),

		MinUsernameLength: getEnvInt("MIN_USERNAME_LENGTH", 3),
		MaxUsernameLength: getEnvInt("MAX_USERNAME_LENGTH", 32),
		MinPasswordLength: getEnvInt("MIN_PASSWORD_LENGTH", 8),
		MaxPasswordLength: getEnvInt("MAX_PASSWORD_LENGTH", 128),

		MaxOPMLNestingDepth: getEnvInt("MAX_OPML_NESTING_DEPTH", 9),
		MaxOPMLOutlines:     getEnvInt("MAX_OPML_OUTLINES", 10_000),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid app configuration: %w", err)
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	if c.SessionTimeoutDays <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT_DAYS must be positive")
	}
	if c.CSRFTokenLength < 16 {
		return fmt.Errorf("CSRF_TOKEN_LENGTH must be at least 16")
	}
	if c.MaxActiveSessions <= 0 {
		return fmt.Errorf("MAX_ACTIVE_SESSIONS must be positive")
	}
	if c.MinUsernameLength <= 0 || c.MinUsernameLength > c.MaxUsernameLength {
		return fmt.Errorf("MIN_USERNAME_LENGTH must be between 1 and MAX_USERNAME_LENGTH")
	}
	if c.MinPasswordLength <= 0 || c.MinPasswordLength > c.MaxPasswordLength {
		return fmt.Errorf("MIN_PASSWORD_LENGTH must be between 1 and MAX_PASSWORD_LENGTH")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value + "s"); err == nil {
			return parsed
		}
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
