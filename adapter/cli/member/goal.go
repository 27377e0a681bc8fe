package member

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/studio/adapter/cli"
	memberApp "github.com/felixgeelhaar/studio/internal/members/application"
	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
	"github.com/spf13/cobra"
)

var (
	goalType        string
	goalDescription string
	goalTarget      string
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Manage a member's fitness goals",
}

var goalAddCmd = &cobra.Command{
	Use:   "add [member-id]",
	Short: "Add a fitness goal",
	Long: `Add a fitness goal with a target date in the future.

Goal types: LOSE_WEIGHT, BUILD_MUSCLE, ENDURANCE, FLEXIBILITY

Examples:
  studio member goal add 1 --type BUILD_MUSCLE --description "Bench 100kg" --target 2027-03-01`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		memberID, err := cli.ParseID("member id", args[0])
		if err != nil {
			return err
		}
		target, err := sharedDomain.ParseDate(goalTarget)
		if err != nil {
			return err
		}

		return app.InTransaction(cmd.Context(), func(ctx context.Context) error {
			member, err := app.Members.AddGoal(ctx, memberID, memberApp.AddGoalCommand{
				GoalType:    goalType,
				Description: goalDescription,
				TargetDate:  target,
			})
			if err != nil {
				return fmt.Errorf("failed to add goal: %w", err)
			}
			printMember(cmd.OutOrStdout(), member)
			return nil
		})
	},
}

var goalAchieveCmd = &cobra.Command{
	Use:   "achieve [member-id] [goal-id]",
	Short: "Mark a goal as achieved",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		memberID, err := cli.ParseID("member id", args[0])
		if err != nil {
			return err
		}
		goalID, err := cli.ParseID("goal id", args[1])
		if err != nil {
			return err
		}

		return app.InTransaction(cmd.Context(), func(ctx context.Context) error {
			member, err := app.Members.AchieveGoal(ctx, memberID, goalID)
			if err != nil {
				return fmt.Errorf("failed to achieve goal: %w", err)
			}
			printMember(cmd.OutOrStdout(), member)
			return nil
		})
	},
}

func init() {
	goalAddCmd.Flags().StringVar(&goalType, "type", "", "goal type")
	goalAddCmd.Flags().StringVarP(&goalDescription, "description", "d", "", "goal description")
	goalAddCmd.Flags().StringVar(&goalTarget, "target", "", "target date (YYYY-MM-DD)")
	_ = goalAddCmd.MarkFlagRequired("type")
	_ = goalAddCmd.MarkFlagRequired("target")

	goalCmd.AddCommand(goalAddCmd)
	goalCmd.AddCommand(goalAchieveCmd)
}
