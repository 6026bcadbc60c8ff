package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stockfolio/pkg/stockfolio"
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Generate or show model-written portfolio analyses",
	Long: `Generate a portfolio analysis with the configured model provider.

The provider, model and API key come from STOCKFOLIO_AI_* environment
variables. --latest and --history read back stored analyses without
calling the provider.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser(cmd)
		if err != nil {
			return err
		}
		latest, _ := cmd.Flags().GetBool("latest")
		historyN, _ := cmd.Flags().GetInt("history")

		core, err := openCore()
		if err != nil {
			return err
		}
		defer core.Close()

		ctx := cmd.Context()
		if latest {
			result, err := core.GetLatestInsight(ctx, user)
			if err != nil {
				return err
			}
			if result == nil {
				return fmt.Errorf("no insights stored yet; run without --latest to generate one")
			}
			return printJSON(result)
		}
		if historyN > 0 {
			results, err := core.InsightHistory(ctx, user, historyN)
			if err != nil {
				return err
			}
			return printJSON(results)
		}

		if err := syncInsightSettings(cmd, core); err != nil {
			return err
		}
		result, err := core.GenerateInsight(ctx, user, stockfolio.InsightRequest{
			APIKey:      cfg.AIAPIKey,
			RiskProfile: mustString(cmd, "risk-profile"),
			Horizon:     mustString(cmd, "horizon"),
		})
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "List past import batches and their outcomes",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")

		core, err := openCore()
		if err != nil {
			return err
		}
		defer core.Close()

		records, err := core.ListImportBatches(cmd.Context(), user, limit, 0)
		if err != nil {
			return err
		}
		return printJSON(records)
	},
}

func init() {
	insightsCmd.Flags().Bool("latest", false, "show the most recent stored analysis")
	insightsCmd.Flags().Int("history", 0, "show the last N stored analyses")
	insightsCmd.Flags().String("risk-profile", "", "override: conservative, balanced or aggressive")
	insightsCmd.Flags().String("horizon", "", "override: short, medium or long")
	batchesCmd.Flags().Int("limit", 20, "maximum batches to list")

	rootCmd.AddCommand(batchesCmd)
}

// syncInsightSettings overlays non-empty STOCKFOLIO_AI_* values onto the
// stored insight settings before a generation run.
func syncInsightSettings(cmd *cobra.Command, core *stockfolio.Core) error {
	if cfg.AIProvider == "" && cfg.AIModel == "" && cfg.AIBaseURL == "" {
		return nil
	}
	settings, err := core.GetInsightSettings(cmd.Context())
	if err != nil {
		return err
	}
	if cfg.AIProvider != "" {
		settings.Provider = cfg.AIProvider
	}
	if cfg.AIModel != "" {
		settings.Model = cfg.AIModel
	}
	if cfg.AIBaseURL != "" {
		settings.BaseURL = cfg.AIBaseURL
	}
	_, err = core.SetInsightSettings(cmd.Context(), settings)
	return err
}

func mustString(cmd *cobra.Command, name string) string {
	value, _ := cmd.Flags().GetString(name)
	return value
}
