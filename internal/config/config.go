// Package config loads runtime settings from the environment and the
// source list from YAML.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Sources
	SourcesConfigPath string

	// Fetching
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration
	SourceDelay    time.Duration

	// Extraction and validation
	MaxArticlesPerSource int
	MinTitleLength       int
	MaxTitleLength       int
	MinRelevanceScore    int

	// Selection
	LookbackDays        int
	MinArticles         int
	MaxArticlesPerIssue int
	ArchiveDedupMode    string // hash | fuzzy

	// Store
	StoreDriver   string // file | sqlite | postgres
	StoreDSN      string
	CacheFilePath string

	// Rewriting
	GeminiAPIKey         string
	GeminiModel          string
	MaxRewriteRequests   int // 0 = unlimited
	RewriteCacheTTLHours int
	RewriteStatePath     string // memo + budget carried between runs; empty keeps them in memory

	// App settings
	Debug                bool
	EnableHTTPMonitoring bool
	MonitoringPort       int
}

// Load reads .env when present, then the environment, then validates.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		SourcesConfigPath: getEnvOrDefault("SOURCES_CONFIG_PATH", "configs/sources.yaml"),

		RequestTimeout: getEnvDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		RetryAttempts:  getEnvIntOrDefault("RETRY_ATTEMPTS", 3),
		RetryDelay:     getEnvDurationOrDefault("RETRY_DELAY", 2*time.Second),
		SourceDelay:    getEnvDurationOrDefault("SOURCE_DELAY", 3*time.Second),

		MaxArticlesPerSource: getEnvIntOrDefault("MAX_ARTICLES_PER_SOURCE", 20),
		MinTitleLength:       getEnvIntOrDefault("MIN_TITLE_LENGTH", 15),
		MaxTitleLength:       getEnvIntOrDefault("MAX_TITLE_LENGTH", 200),
		MinRelevanceScore:    getEnvIntOrDefault("MIN_RELEVANCE_SCORE", 3),

		LookbackDays:        getEnvIntOrDefault("LOOKBACK_DAYS", 7),
		MinArticles:         getEnvIntOrDefault("MIN_ARTICLES", 3),
		MaxArticlesPerIssue: getEnvIntOrDefault("MAX_ARTICLES_PER_ISSUE", 8),
		ArchiveDedupMode:    getEnvOrDefault("ARCHIVE_DEDUP_MODE", "hash"),

		StoreDriver:   getEnvOrDefault("STORE_DRIVER", "file"),
		StoreDSN:      os.Getenv("STORE_DSN"),
		CacheFilePath: getEnvOrDefault("CACHE_FILE_PATH", "articles.json"),

		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		GeminiModel:          getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		MaxRewriteRequests:   getEnvIntOrDefault("MAX_REWRITE_REQUESTS", 10),
		RewriteCacheTTLHours: getEnvIntOrDefault("REWRITE_CACHE_TTL_HOURS", 48),
		RewriteStatePath:     getEnvOrDefault("REWRITE_STATE_PATH", "rewrite_state.json"),

		Debug:                os.Getenv("DEBUG") == "true",
		EnableHTTPMonitoring: os.Getenv("ENABLE_HTTP_MONITORING") == "true",
		MonitoringPort:       getEnvIntOrDefault("MONITORING_PORT", 8080),
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDurationOrDefault accepts Go durations ("30s") or plain seconds ("30").
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("RETRY_ATTEMPTS must not be negative")
	}
	if c.SourceDelay < 0 || c.RetryDelay < 0 {
		return fmt.Errorf("RETRY_DELAY and SOURCE_DELAY must not be negative")
	}
	if c.MinTitleLength < 1 || c.MaxTitleLength < c.MinTitleLength {
		return fmt.Errorf("title length bounds are invalid: min=%d max=%d", c.MinTitleLength, c.MaxTitleLength)
	}
	if c.MinArticles < 1 {
		return fmt.Errorf("MIN_ARTICLES must be at least 1")
	}
	if c.LookbackDays < 1 {
		return fmt.Errorf("LOOKBACK_DAYS must be at least 1")
	}
	switch c.ArchiveDedupMode {
	case "hash", "fuzzy":
	default:
		return fmt.Errorf("ARCHIVE_DEDUP_MODE must be 'hash' or 'fuzzy'")
	}
	switch c.StoreDriver {
	case "file":
		if c.CacheFilePath == "" {
			return fmt.Errorf("CACHE_FILE_PATH is required for the file store")
		}
	case "sqlite", "postgres":
		if c.StoreDSN == "" {
			return fmt.Errorf("STORE_DSN is required for the %s store", c.StoreDriver)
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be 'file', 'sqlite' or 'postgres'")
	}
	return nil
}
