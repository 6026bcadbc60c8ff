// Stockfolio — portfolio tracking core with market data, bulk import
// and model-generated insights.
//
// Operator CLI entrypoint using the cobra command framework.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"stockfolio/internal/config"
	"stockfolio/internal/logging"
	"stockfolio/pkg/marketdata"
	"stockfolio/pkg/stockfolio"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var (
	cfg       *config.Config
	logger    *slog.Logger
	logCloser io.Closer
)

func main() {
	err := rootCmd.Execute()
	if logCloser != nil {
		_ = logCloser.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stockfolio",
	Short: "Stockfolio — portfolio tracking and market data toolbox",
	Long: `Stockfolio tracks stock holdings in a local SQLite database, values
them against live or mock market data, imports brokerage exports and
generates model-written portfolio insights.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.LogLevel = level
		}
		logger, logCloser, err = logging.New(logging.Options{
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
			Dir:    cfg.LogDir,
		})
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringP("user", "u", "", "user id the operation acts on")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(overviewCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(portfolioCmd)
	rootCmd.AddCommand(allocationCmd)
	rootCmd.AddCommand(performanceCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(insightsCmd)
	rootCmd.AddCommand(alertsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stockfolio %s (commit %s, built %s)\n", version, commit, date)
	},
}

// newMarket builds the market data service the config selects: the live
// Alpha Vantage client for a real key, the deterministic mock otherwise.
func newMarket() marketdata.Service {
	return marketdata.New(marketdata.Config{
		APIKey:  cfg.MarketAPIKey,
		BaseURL: cfg.MarketBaseURL,
	}, logger)
}

func openCore() (*stockfolio.Core, error) {
	core, err := stockfolio.OpenWithOptions(stockfolio.Options{
		DBPath: cfg.DBPath,
		Logger: logger,
		Market: newMarket(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return core, nil
}

func requireUser(cmd *cobra.Command) (string, error) {
	user, _ := cmd.Flags().GetString("user")
	if user == "" {
		return "", fmt.Errorf("--user is required")
	}
	return user, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
