package main

import (
	"strings"

	"github.com/spf13/cobra"

	"stockfolio/pkg/stockfolio"
)

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Show holdings with live prices and market values",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser(cmd)
		if err != nil {
			return err
		}
		core, err := openCore()
		if err != nil {
			return err
		}
		defer core.Close()

		entries, err := core.PortfolioView(cmd.Context(), user)
		if err != nil {
			return err
		}
		return printJSON(entries)
	},
}

var allocationCmd = &cobra.Command{
	Use:   "allocation",
	Short: "Show portfolio value grouped by sector",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser(cmd)
		if err != nil {
			return err
		}
		core, err := openCore()
		if err != nil {
			return err
		}
		defer core.Close()

		summary, err := core.Allocation(cmd.Context(), user)
		if err != nil {
			return err
		}
		return printJSON(summary)
	},
}

var performanceCmd = &cobra.Command{
	Use:   "performance",
	Short: "Show portfolio value over time against a benchmark",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser(cmd)
		if err != nil {
			return err
		}
		period, _ := cmd.Flags().GetString("period")
		benchmark, _ := cmd.Flags().GetString("benchmark")

		core, err := openCore()
		if err != nil {
			return err
		}
		defer core.Close()

		result, err := core.Performance(cmd.Context(), user,
			stockfolio.Period(strings.ToUpper(strings.TrimSpace(period))),
			benchmark, stockfolio.FullEntitlements())
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func init() {
	performanceCmd.Flags().String("period", "", "window: 1M, 6M, 1Y or ALL (default 1Y)")
	performanceCmd.Flags().String("benchmark", "", "benchmark symbol: SPY, QQQ or DIA (default SPY)")
}
