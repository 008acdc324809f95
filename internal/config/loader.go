package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Load reads configuration from file then environment. Every key is bound
// to the literal variable name documented for operators, not a prefixed or
// replaced scheme, so the exported shell variables match what the runbook
// says to export.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("gymscraper")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".gymscraper"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnv(v)

	cfg.Supabase.URL = v.GetString("SUPABASE_URL")
	cfg.Supabase.ServiceRoleKey = v.GetString("SUPABASE_SERVICE_ROLE_KEY")
	cfg.Fetch.BotUserAgent = v.GetString("BOT_USER_AGENT")
	cfg.Fetch.RateLimitMs = time.Duration(v.GetInt("RATE_LIMIT_MS")) * time.Millisecond
	cfg.LLM.OpenAIAPIKey = v.GetString("OPENAI_API_KEY")
	cfg.LLM.BudgetCents = v.GetInt("LLM_BUDGET_CENTS")
	cfg.Login.Username = v.GetString("GYM_USERNAME")
	cfg.Login.Password = v.GetString("GYM_PASSWORD")
	cfg.Login.TOTPSecret = v.GetString("GYM_TOTP_SECRET")
	cfg.Login.CookieTTLHours = time.Duration(v.GetInt("COOKIE_TTL_HOURS")) * time.Hour
	cfg.Trap.MaxCrawlDepth = v.GetInt("MAX_CRAWL_DEPTH")
	if lvl := v.GetString("LOG_LEVEL"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if format := v.GetString("LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}
	cfg.Mongo.URI = v.GetString("MONGO_URI")
	if db := v.GetString("MONGO_DATABASE"); db != "" {
		cfg.Mongo.Database = db
	}
	if coll := v.GetString("MONGO_COLLECTION"); coll != "" {
		cfg.Mongo.Collection = coll
	}

	return cfg, nil
}

// bindEnv binds each spec-documented env var by its literal name. Defaults
// for unset variables come from setDefaults.
func bindEnv(v *viper.Viper) {
	names := []string{
		"SUPABASE_URL",
		"SUPABASE_SERVICE_ROLE_KEY",
		"BOT_USER_AGENT",
		"RATE_LIMIT_MS",
		"OPENAI_API_KEY",
		"LLM_BUDGET_CENTS",
		"GYM_USERNAME",
		"GYM_PASSWORD",
		"GYM_TOTP_SECRET",
		"COOKIE_TTL_HOURS",
		"MAX_CRAWL_DEPTH",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"MONGO_URI",
		"MONGO_DATABASE",
		"MONGO_COLLECTION",
	}
	for _, name := range names {
		_ = v.BindEnv(name)
	}
}

// setDefaults registers default values in viper ahead of the env/file merge.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("BOT_USER_AGENT", cfg.Fetch.BotUserAgent)
	v.SetDefault("RATE_LIMIT_MS", int(cfg.Fetch.RateLimitMs/time.Millisecond))
	v.SetDefault("LLM_BUDGET_CENTS", cfg.LLM.BudgetCents)
	v.SetDefault("COOKIE_TTL_HOURS", int(cfg.Login.CookieTTLHours/time.Hour))
	v.SetDefault("MAX_CRAWL_DEPTH", cfg.Trap.MaxCrawlDepth)
	v.SetDefault("LOG_LEVEL", cfg.Logging.Level)
	v.SetDefault("LOG_FORMAT", cfg.Logging.Format)
	v.SetDefault("MONGO_DATABASE", cfg.Mongo.Database)
	v.SetDefault("MONGO_COLLECTION", cfg.Mongo.Collection)
}
