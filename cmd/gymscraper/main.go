// Command gymscraper runs the fetch-validate-retry pipeline against a
// single gym schedule URL and upserts the result into the configured
// Supabase project.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/gymscraper/internal/browserpool"
	"github.com/IshaanNene/gymscraper/internal/compliance"
	"github.com/IshaanNene/gymscraper/internal/config"
	"github.com/IshaanNene/gymscraper/internal/fetchlayer"
	"github.com/IshaanNene/gymscraper/internal/orchestrator"
	"github.com/IshaanNene/gymscraper/internal/planner"
	"github.com/IshaanNene/gymscraper/internal/session"
	"github.com/IshaanNene/gymscraper/internal/sink"
	"github.com/IshaanNene/gymscraper/internal/trap"
	"github.com/IshaanNene/gymscraper/internal/types"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "gymscraper <url> [iana-timezone]",
		Short: "Extract gym class schedules and upsert them into Supabase",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runScrape,
	}
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.AddCommand(discoverCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScrape(cmd *cobra.Command, args []string) error {
	rawURL := args[0]
	gymTimezone := "UTC"
	if len(args) == 2 {
		gymTimezone = args[1]
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := config.ValidateURL(rawURL); err != nil {
		return fmt.Errorf("invalid url %q: %w", rawURL, err)
	}

	logger := setupLogger(cfg.Logging.Format)

	// planAsInterface stays a nil types.Planner when no API key is
	// configured; assigning a typed-nil *planner.Planner here instead
	// would produce a non-nil interface wrapping a nil pointer.
	var planAsInterface types.Planner
	if cfg.LLM.OpenAIAPIKey != "" {
		planAsInterface = planner.New(cfg.LLM.OpenAIAPIKey, cfg.LLM.BudgetCents, logger)
	}

	sessionMgr := session.NewManager(session.Credentials{
		Username:   cfg.Login.Username,
		Password:   cfg.Login.Password,
		TOTPSecret: cfg.Login.TOTPSecret,
	}, planAsInterface, ".", cfg.Login.CookieTTLHours)

	pool := browserpool.New(cfg.Fetch.BotUserAgent, sessionMgr, logger)
	defer pool.Close()

	layer := fetchlayer.New(pool, cfg.Fetch.BotUserAgent, cfg.Fetch.LightTimeout)
	gate := compliance.New(cfg.Fetch.BotUserAgent, cfg.Fetch.RateLimitMs)
	detector := trap.New(cfg.Trap.MaxCrawlDepth)
	supabase := sink.NewSupabase(cfg.Supabase.URL, cfg.Supabase.ServiceRoleKey)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// audit stays nil when MONGO_URI is unset; the run never depends on it.
	var audit *sink.MongoAudit
	if cfg.Mongo.URI != "" {
		a, aerr := sink.NewMongoAudit(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection, logger)
		if aerr != nil {
			logger.Warn("mongo audit sink unavailable, continuing without it", "error", aerr)
		} else {
			audit = a
			defer func() {
				if cerr := audit.Close(context.Background()); cerr != nil {
					logger.Warn("mongo audit close failed", "error", cerr)
				}
			}()
		}
	}

	orch := orchestrator.New(orchestrator.Deps{
		Gate:     gate,
		Detector: detector,
		Fetch:    layer,
		Session:  sessionMgr,
		Sink:     supabase,
		Planner:  planAsInterface,
		Audit:    audit,
		Logger:   logger,
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	start := time.Now()
	result, err := orch.Run(ctx, rawURL, gymTimezone)
	if err != nil {
		logger.Error("scan failed", "url", rawURL, "error", err)
		return err
	}

	logger.Info("scan complete",
		"url", rawURL,
		"run_id", result.RunID,
		"elapsed", time.Since(start).Round(time.Millisecond),
		"organization_ref", result.OrganizationRef,
		"locations", len(result.LocationRefs),
		"classes_upserted", result.ClassesUpserted,
	)
	for _, w := range result.Warnings {
		logger.Warn("scan warning", "detail", w)
	}
	fmt.Printf("upserted %d classes across %d locations for %s\n", result.ClassesUpserted, len(result.LocationRefs), result.OrganizationRef)
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gymscraper %s\n", config.Version)
		},
	}
}

// setupLogger creates a structured logger. format selects between the
// "text" and "json" handlers (LOG_FORMAT).
func setupLogger(format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
