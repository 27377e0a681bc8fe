package plan

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/studio/adapter/cli"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [plan-id]",
	Short: "Show a plan with its sessions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		planID, err := cli.ParseID("plan id", args[0])
		if err != nil {
			return err
		}

		return app.InTransaction(cmd.Context(), func(ctx context.Context) error {
			plan, err := app.Plans.Get(ctx, planID)
			if err != nil {
				return err
			}
			printPlan(cmd.OutOrStdout(), plan)
			return nil
		})
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress [plan-id]",
	Short: "Show the share of finished sessions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		planID, err := cli.ParseID("plan id", args[0])
		if err != nil {
			return err
		}

		return app.InTransaction(cmd.Context(), func(ctx context.Context) error {
			pct, err := app.Plans.GetProgress(ctx, planID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Plan %d: %.1f%% complete\n", planID, pct)
			return nil
		})
	},
}

var activateCmd = &cobra.Command{
	Use:   "activate [plan-id]",
	Short: "Activate a draft plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		planID, err := cli.ParseID("plan id", args[0])
		if err != nil {
			return err
		}

		return app.InTransaction(cmd.Context(), func(ctx context.Context) error {
			plan, err := app.Plans.ActivatePlan(ctx, planID)
			if err != nil {
				return fmt.Errorf("failed to activate plan: %w", err)
			}
			printPlan(cmd.OutOrStdout(), plan)
			return nil
		})
	},
}
