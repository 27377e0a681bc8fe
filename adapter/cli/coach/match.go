package coach

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/studio/adapter/cli"
	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match [member-id]",
	Short: "Find the best coach for a member",
	Long: `Rank coaches by how many of the member's goals they cover,
preferring coaches with fewer clients.`,
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

		return app.InTransaction(cmd.Context(), func(ctx context.Context) error {
			coach, err := app.Coaches.FindBestForMember(ctx, memberID)
			if err != nil {
				return fmt.Errorf("failed to match coach: %w", err)
			}
			if coach == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "No available coach matches member %d.\n", memberID)
				return nil
			}
			printCoach(cmd.OutOrStdout(), coach)
			return nil
		})
	},
}
