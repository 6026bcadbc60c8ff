package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"stockfolio/pkg/marketdata"
)

// maxNewsLimit caps how many articles one CLI call may request.
const maxNewsLimit = 50

var quoteCmd = &cobra.Command{
	Use:   "quote SYMBOL",
	Short: "Fetch the latest price for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quote, err := newMarket().Quote(cmd.Context(), strings.ToUpper(args[0]))
		if err != nil {
			return err
		}
		return printJSON(quote)
	},
}

var overviewCmd = &cobra.Command{
	Use:   "overview SYMBOL",
	Short: "Fetch company fundamentals for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		symbol := strings.ToUpper(args[0])
		overview, err := newMarket().Overview(cmd.Context(), symbol)
		if err != nil {
			return err
		}
		if overview == nil {
			return fmt.Errorf("no overview data for %s", symbol)
		}
		return printJSON(overview)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history SYMBOL",
	Short: "Fetch the daily price series for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		size, err := parseOutputSize(mustString(cmd, "size"))
		if err != nil {
			return err
		}
		symbol := strings.ToUpper(args[0])
		series, err := newMarket().History(cmd.Context(), symbol, size)
		if err != nil {
			return err
		}
		if len(series) == 0 {
			return fmt.Errorf("no history data for %s", symbol)
		}
		return printJSON(series)
	},
}

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Fetch recent financial news",
	RunE: func(cmd *cobra.Command, args []string) error {
		topics, _ := cmd.Flags().GetString("topics")
		tickers, _ := cmd.Flags().GetString("tickers")
		limit, _ := cmd.Flags().GetInt("limit")
		if limit <= 0 {
			limit = cfg.NewsLimit
		}
		if limit > maxNewsLimit {
			limit = maxNewsLimit
		}
		items, err := newMarket().News(cmd.Context(), marketdata.NewsQuery{
			Topics:  splitList(topics),
			Tickers: splitList(tickers),
			Limit:   limit,
		})
		if err != nil {
			return err
		}
		return printJSON(items)
	},
}

func init() {
	historyCmd.Flags().String("size", "compact", "output size: compact or full")
	newsCmd.Flags().String("topics", "", "comma-separated news topics")
	newsCmd.Flags().String("tickers", "", "comma-separated ticker symbols")
	newsCmd.Flags().Int("limit", 0, "maximum articles (default from config, capped at 50)")
}

func parseOutputSize(raw string) (marketdata.OutputSize, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "compact":
		return marketdata.OutputCompact, nil
	case "full":
		return marketdata.OutputFull, nil
	default:
		return "", fmt.Errorf("invalid --size %q; use compact or full", raw)
	}
}

// splitList turns a comma-separated flag value into trimmed entries,
// dropping empties.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
