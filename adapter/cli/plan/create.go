package plan

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/studio/adapter/cli"
	planApp "github.com/felixgeelhaar/studio/internal/plans/application"
	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
	"github.com/spf13/cobra"
)

var (
	memberID  int64
	coachID   int64
	planName  string
	startDate string
	endDate   string

	sessionName string
	sessionDate string
	exercises   []string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Draft a training plan",
	Long: `Draft a plan for a member without an active plan.

Examples:
  studio plan create --member 1 --coach 2 --name "Hypertrophy block" --start 2026-11-01 --end 2026-12-15`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		start, err := sharedDomain.ParseDate(startDate)
		if err != nil {
			return err
		}
		end, err := sharedDomain.ParseDate(endDate)
		if err != nil {
			return err
		}

		return app.InTransaction(cmd.Context(), func(ctx context.Context) error {
			plan, err := app.Plans.CreatePlan(ctx, planApp.CreatePlanCommand{
				MemberID:  memberID,
				CoachID:   coachID,
				Name:      planName,
				StartDate: start,
				EndDate:   end,
			})
			if err != nil {
				return fmt.Errorf("failed to create plan: %w", err)
			}
			printPlan(cmd.OutOrStdout(), plan)
			return nil
		})
	},
}

var addSessionCmd = &cobra.Command{
	Use:   "add-session [plan-id]",
	Short: "Add a workout session to a draft plan",
	Long: `Add a workout session. Each --exercise is looked up in the
exercise catalogue and planned with the default sets and reps.

Examples:
  studio plan add-session 3 --name "Push day" --date 2026-11-02 -e "Bench press" -e "Dips"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		planID, err := cli.ParseID("plan id", args[0])
		if err != nil {
			return err
		}
		scheduled, err := sharedDomain.ParseDate(sessionDate)
		if err != nil {
			return err
		}
		requests := make([]planApp.ExerciseRequest, 0, len(exercises))
		for _, name := range exercises {
			requests = append(requests, planApp.ExerciseRequest{Name: name})
		}

		planned, err := app.Plans.ResolveExercises(cmd.Context(), requests)
		if err != nil {
			return err
		}

		return app.InTransaction(cmd.Context(), func(ctx context.Context) error {
			plan, err := app.Plans.AddPlannedSession(ctx, planID, sessionName, scheduled, planned)
			if err != nil {
				return fmt.Errorf("failed to add session: %w", err)
			}
			printPlan(cmd.OutOrStdout(), plan)
			return nil
		})
	},
}

func init() {
	createCmd.Flags().Int64Var(&memberID, "member", 0, "member id")
	createCmd.Flags().Int64Var(&coachID, "coach", 0, "coach id")
	createCmd.Flags().StringVarP(&planName, "name", "n", "", "plan name")
	createCmd.Flags().StringVar(&startDate, "start", "", "start date (YYYY-MM-DD)")
	createCmd.Flags().StringVar(&endDate, "end", "", "end date (YYYY-MM-DD)")
	for _, name := range []string{"member", "coach", "name", "start", "end"} {
		_ = createCmd.MarkFlagRequired(name)
	}

	addSessionCmd.Flags().StringVarP(&sessionName, "name", "n", "", "session name")
	addSessionCmd.Flags().StringVar(&sessionDate, "date", "", "scheduled date (YYYY-MM-DD)")
	addSessionCmd.Flags().StringArrayVarP(&exercises, "exercise", "e", nil, "exercise name (repeatable)")
	_ = addSessionCmd.MarkFlagRequired("name")
	_ = addSessionCmd.MarkFlagRequired("date")
}
