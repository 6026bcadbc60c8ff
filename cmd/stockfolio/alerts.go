package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"stockfolio/pkg/stockfolio"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Manage target-price alerts",
}

var alertsAddCmd = &cobra.Command{
	Use:   "add SYMBOL TARGET",
	Short: "Create an alert for a symbol at a target price",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser(cmd)
		if err != nil {
			return err
		}
		target, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid target price %q", args[1])
		}
		condition, _ := cmd.Flags().GetString("condition")

		core, err := openCore()
		if err != nil {
			return err
		}
		defer core.Close()

		alert, err := core.CreateAlert(cmd.Context(), user, stockfolio.CreateAlertRequest{
			Symbol:      args[0],
			TargetPrice: target,
			Condition:   condition,
		})
		if err != nil {
			return err
		}
		return printJSON(alert)
	},
}

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active alerts",
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

		alerts, err := core.ListAlerts(cmd.Context(), user)
		if err != nil {
			return err
		}
		return printJSON(alerts)
	},
}

var alertsCancelCmd = &cobra.Command{
	Use:   "cancel ID",
	Short: "Cancel an alert",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser(cmd)
		if err != nil {
			return err
		}
		id, err := parseAlertID(args[0])
		if err != nil {
			return err
		}
		core, err := openCore()
		if err != nil {
			return err
		}
		defer core.Close()

		alert, err := core.UpdateAlertStatus(cmd.Context(), user, id, "cancelled")
		if err != nil {
			return err
		}
		return printJSON(alert)
	},
}

var alertsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete an alert",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser(cmd)
		if err != nil {
			return err
		}
		id, err := parseAlertID(args[0])
		if err != nil {
			return err
		}
		core, err := openCore()
		if err != nil {
			return err
		}
		defer core.Close()

		if err := core.DeleteAlert(cmd.Context(), user, id); err != nil {
			return err
		}
		fmt.Printf("alert %d deleted\n", id)
		return nil
	},
}

func init() {
	alertsAddCmd.Flags().String("condition", "", "trigger condition: above or below (default above)")

	alertsCmd.AddCommand(alertsAddCmd)
	alertsCmd.AddCommand(alertsListCmd)
	alertsCmd.AddCommand(alertsCancelCmd)
	alertsCmd.AddCommand(alertsDeleteCmd)
}

func parseAlertID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid alert id %q", raw)
	}
	return id, nil
}
