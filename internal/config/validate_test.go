package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Supabase.URL = "https://xyz.supabase.co"
	cfg.Supabase.ServiceRoleKey = "service-key"
	return cfg
}

func TestValidate_AcceptsWellFormedConfig(t *testing.T) {
	require.NoError(t, Validate(validConfig()))
}

func TestValidate_RejectsMissingSupabaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.Supabase.URL = ""
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUPABASE_URL")
}

func TestValidate_RejectsMissingServiceRoleKey(t *testing.T) {
	cfg := validConfig()
	cfg.Supabase.ServiceRoleKey = ""
	require.Error(t, Validate(cfg))
}

func TestValidate_RejectsNonPositiveRateLimit(t *testing.T) {
	cfg := validConfig()
	cfg.Fetch.RateLimitMs = 0
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RATE_LIMIT_MS")
}

func TestValidate_RejectsZeroCrawlDepth(t *testing.T) {
	cfg := validConfig()
	cfg.Trap.MaxCrawlDepth = 0
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_CRAWL_DEPTH")
}

func TestValidate_RejectsPartialLoginCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Login.Username = "alice"
	cfg.Login.Password = ""
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GYM_USERNAME and GYM_PASSWORD")
}

func TestValidate_AcceptsBothOrNeitherLoginCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Login.Username = "alice"
	cfg.Login.Password = "hunter2"
	require.NoError(t, Validate(cfg))

	neither := validConfig()
	neither.Login.Username = ""
	neither.Login.Password = ""
	require.NoError(t, Validate(neither))
}

func TestValidate_RejectsUnknownLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "verbose"
	require.Error(t, Validate(cfg))
}

func TestValidate_RejectsUnknownLogFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Format = "xml"
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}

func TestValidate_AcceptsJSONLogFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Format = "json"
	require.NoError(t, Validate(cfg))
}

func TestValidateURL_RejectsNonHTTPScheme(t *testing.T) {
	err := ValidateURL("ftp://example.test/schedule")
	require.Error(t, err)
}

func TestValidateURL_AcceptsHTTPS(t *testing.T) {
	require.NoError(t, ValidateURL("https://example.test/schedule"))
}

func TestDefaultConfig_MatchesDocumentedDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 2000*time.Millisecond, cfg.Fetch.RateLimitMs)
	assert.Equal(t, 50, cfg.LLM.BudgetCents)
	assert.Equal(t, 24*time.Hour, cfg.Login.CookieTTLHours)
	assert.Equal(t, 5, cfg.Trap.MaxCrawlDepth)
}
