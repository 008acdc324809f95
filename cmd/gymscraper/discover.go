package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/gymscraper/internal/browserpool"
	"github.com/IshaanNene/gymscraper/internal/config"
	"github.com/IshaanNene/gymscraper/internal/dayworker"
	"github.com/IshaanNene/gymscraper/internal/session"
)

// discoverCmd prints the date-parameterised API pattern discovered by
// observing rawURL's own traffic, as JSON, without upserting anything.
func discoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover <url>",
		Short: "Discover a day-parameterised API pattern by intercepting a page's traffic",
		Args:  cobra.ExactArgs(1),
		RunE:  runDiscover,
	}
}

func runDiscover(cmd *cobra.Command, args []string) error {
	rawURL := args[0]

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := setupLogger(cfg.Logging.Format)

	sessionMgr := session.NewManager(session.Credentials{}, nil, ".", cfg.Login.CookieTTLHours)
	pool := browserpool.New(cfg.Fetch.BotUserAgent, sessionMgr, logger)
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	page, browserCtx, err := pool.BorrowPage(ctx)
	if err != nil {
		return fmt.Errorf("borrow page: %w", err)
	}
	defer browserCtx.Dispose()

	pattern, err := dayworker.DiscoverPattern(page, func() error {
		return page.Navigate(rawURL)
	}, time.Now())
	if err != nil {
		return fmt.Errorf("discover pattern: %w", err)
	}

	encoded, err := json.MarshalIndent(pattern, "", "  ")
	if err != nil {
		return fmt.Errorf("encode pattern: %w", err)
	}
	fmt.Println(string(encoded))
	return nil
}
