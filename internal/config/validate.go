package config

import (
	"fmt"
	"net/url"

	"github.com/IshaanNene/gymscraper/internal/types"
)

// Validate checks the configuration for invalid values, returning error
// rather than panicking so callers can surface a clean startup failure.
func Validate(cfg *Config) error {
	if cfg.Supabase.URL == "" {
		return fmt.Errorf("%w: SUPABASE_URL", types.ErrConfigMissing)
	}
	if _, err := url.Parse(cfg.Supabase.URL); err != nil {
		return fmt.Errorf("invalid SUPABASE_URL: %w", err)
	}
	if cfg.Supabase.ServiceRoleKey == "" {
		return fmt.Errorf("%w: SUPABASE_SERVICE_ROLE_KEY", types.ErrConfigMissing)
	}
	if cfg.Fetch.BotUserAgent == "" {
		return fmt.Errorf("%w: BOT_USER_AGENT", types.ErrConfigMissing)
	}
	if cfg.Fetch.RateLimitMs <= 0 {
		return fmt.Errorf("RATE_LIMIT_MS must be > 0")
	}
	if cfg.Trap.MaxCrawlDepth < 1 {
		return fmt.Errorf("MAX_CRAWL_DEPTH must be >= 1, got %d", cfg.Trap.MaxCrawlDepth)
	}
	if (cfg.Login.Username == "") != (cfg.Login.Password == "") {
		return fmt.Errorf("GYM_USERNAME and GYM_PASSWORD must both be set or both be empty")
	}
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("LOG_FORMAT must be 'text' or 'json', got %q", cfg.Logging.Format)
	}
	return nil
}

// ValidateURL checks if a URL string is a valid crawl target.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
