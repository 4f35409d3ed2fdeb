package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

// Config holds all application configuration.
// Values come from environment variables with sensible defaults; an optional
// YAML file (CONFIG_FILE) can be overlaid via LoadYAMLFile before env-specific
// options are applied.
//
// Environment Variables:
// HTTP Configuration:
// - HTTP_ADDR: listen address (default: 0.0.0.0:5000)
//
// Resolver Configuration:
// - PRIMARY_LANG: preferred transcript language (default: en)
// - SECONDARY_LANG: second-choice language (default: hi)
// - FALLBACK_LANGS: comma-separated manual-track fallback languages
//   (default: es,fr,de,zh,ja,ar)
//
// Upstream Configuration:
// - UPSTREAM_TIMEOUT: request timeout in seconds (default: 30)
// - UPSTREAM_BASE_URL: watch-page origin (default: https://www.youtube.com)
// - USER_AGENT: override the browser user agent sent upstream
//
// Storage Configuration:
// - DB_PATH: SQLite database path for runtime settings (default: /app/data/app.db)
// - SETTINGS_FROM_DB: load/persist runtime settings in SQLite (default: true)
//
// Probe Configuration:
// - PROBE_CRON_EXPR: upstream reachability probe schedule (default: @every 5m)
// - PROBE_URL: probe target (default: https://www.youtube.com)
//
// Log Configuration:
// - LOG_LEVEL: debug|info|warn|error|fatal (default: info)
// - LOG_FILE: write logs to a file instead of stdout (optional)

type Config struct {
	// HTTP Configuration
	HTTP HTTPConfig `json:"http"`

	// Resolver Configuration
	Resolve ResolveConfig `json:"resolve"`

	// Upstream Configuration
	Upstream UpstreamConfig `json:"upstream"`

	// Storage Configuration
	Storage StorageConfig `json:"storage"`

	// Probe Configuration
	Probe ProbeConfig `json:"probe"`

	// Log Configuration
	Log LogConfig `json:"log"`
}

type HTTPConfig struct {
	Addr string `json:"addr"`
}

// ResolveConfig holds the language preference policy for transcript resolution.
type ResolveConfig struct {
	PrimaryLanguage   string   `json:"primary_language"`
	SecondaryLanguage string   `json:"secondary_language"`
	FallbackLanguages []string `json:"fallback_languages"`
}

// UpstreamConfig holds the configuration for the YouTube caption client.
type UpstreamConfig struct {
	Timeout   int    `json:"timeout"`
	BaseURL   string `json:"base_url"`
	UserAgent string `json:"user_agent"`
}

type StorageConfig struct {
	DBPath         string `json:"db_path"`
	SettingsFromDB bool   `json:"settings_from_db"`
}

type ProbeConfig struct {
	CronExpr string `json:"cron_expr"`
	URL      string `json:"url"`
}

type LogConfig struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		HTTP: HTTPConfig{
			Addr: getEnvString("HTTP_ADDR", "0.0.0.0:5000"),
		},
		Resolve: ResolveConfig{
			PrimaryLanguage:   getEnvString("PRIMARY_LANG", "en"),
			SecondaryLanguage: getEnvString("SECONDARY_LANG", "hi"),
			FallbackLanguages: getEnvStringSlice("FALLBACK_LANGS", []string{"es", "fr", "de", "zh", "ja", "ar"}),
		},
		Upstream: UpstreamConfig{
			Timeout:   getEnvInt("UPSTREAM_TIMEOUT", 30),
			BaseURL:   getEnvString("UPSTREAM_BASE_URL", "https://www.youtube.com"),
			UserAgent: getEnvString("USER_AGENT", ""),
		},
		Storage: StorageConfig{
			DBPath:         getEnvString("DB_PATH", "/app/data/app.db"),
			SettingsFromDB: getEnvBool("SETTINGS_FROM_DB", true),
		},
		Probe: ProbeConfig{
			CronExpr: getEnvString("PROBE_CRON_EXPR", "@every 5m"),
			URL:      getEnvString("PROBE_URL", "https://www.youtube.com"),
		},
		Log: LogConfig{
			Level: getEnvString("LOG_LEVEL", "info"),
			File:  getEnvString("LOG_FILE", ""),
		},
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	// Validate required configuration
	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return fmt.Errorf("HTTP_ADDR is required")
	}
	if _, err := language.Parse(c.Resolve.PrimaryLanguage); err != nil {
		return fmt.Errorf("invalid PRIMARY_LANG %q: %w", c.Resolve.PrimaryLanguage, err)
	}
	if _, err := language.Parse(c.Resolve.SecondaryLanguage); err != nil {
		return fmt.Errorf("invalid SECONDARY_LANG %q: %w", c.Resolve.SecondaryLanguage, err)
	}
	for _, lang := range c.Resolve.FallbackLanguages {
		if _, err := language.Parse(lang); err != nil {
			return fmt.Errorf("invalid FALLBACK_LANGS entry %q: %w", lang, err)
		}
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool gets a boolean value from environment variables with default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvStringSlice gets a comma-separated list from environment variables with default
func getEnvStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	ret := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			ret = append(ret, part)
		}
	}
	if len(ret) == 0 {
		return defaultValue
	}
	return ret
}
