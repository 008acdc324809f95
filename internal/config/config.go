package config

import "time"

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for gymscraper, sourced from environment
// variables per spec.md §6 (loader.go reads each field from its literal env
// var name).
type Config struct {
	Supabase SupabaseConfig `mapstructure:"supabase"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Login    LoginConfig    `mapstructure:"login"`
	Trap     TrapConfig     `mapstructure:"trap"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
}

// SupabaseConfig holds the upsert sink endpoint and credential.
// SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are both required.
type SupabaseConfig struct {
	URL            string `mapstructure:"url"`
	ServiceRoleKey string `mapstructure:"service_role_key"`
}

// FetchConfig controls the fetch layer and compliance gate.
type FetchConfig struct {
	BotUserAgent string        `mapstructure:"bot_user_agent"`
	RateLimitMs  time.Duration `mapstructure:"rate_limit_ms"`
	LightTimeout time.Duration `mapstructure:"light_timeout"`
}

// LLMConfig gates the optional navigation planner.
type LLMConfig struct {
	OpenAIAPIKey   string `mapstructure:"openai_api_key"`
	BudgetCents    int    `mapstructure:"budget_cents"`
}

// LoginConfig holds credential-based auth for the session manager.
type LoginConfig struct {
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	TOTPSecret      string        `mapstructure:"totp_secret"`
	CookieTTLHours  time.Duration `mapstructure:"cookie_ttl_hours"`
}

// TrapConfig bounds the trap detector.
type TrapConfig struct {
	MaxCrawlDepth int `mapstructure:"max_crawl_depth"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MongoConfig holds the optional best-effort audit-log sink. URI left empty
// disables the audit sink entirely.
type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// DefaultConfig returns a Config with the defaults named in spec.md §6.
func DefaultConfig() *Config {
	return &Config{
		Fetch: FetchConfig{
			BotUserAgent: "MilesC-GymBot/1.0 (+https://github.com/IshaanNene/gymscraper)",
			RateLimitMs:  2000 * time.Millisecond,
			LightTimeout: 30 * time.Second,
		},
		LLM: LLMConfig{
			BudgetCents: 50,
		},
		Login: LoginConfig{
			CookieTTLHours: 24 * time.Hour,
		},
		Trap: TrapConfig{
			MaxCrawlDepth: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Mongo: MongoConfig{
			Database:   "gymscraper",
			Collection: "scrape_audit",
		},
	}
}
