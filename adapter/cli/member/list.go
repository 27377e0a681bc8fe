package member

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/studio/adapter/cli"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List members",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		return app.InTransaction(cmd.Context(), func(ctx context.Context) error {
			members, err := app.Members.List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list members: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(members) == 0 {
				fmt.Fprintln(out, "No members registered.")
				return nil
			}
			fmt.Fprintf(out, "%-6s %-24s %-32s %-12s %s\n", "ID", "NAME", "EMAIL", "LEVEL", "TIER")
			for _, m := range members {
				fmt.Fprintf(out, "%-6d %-24s %-32s %-12s %s\n",
					m.ID(), m.Name().Full(), m.Email(), m.FitnessLevel(), m.Membership().Tier())
			}
			return nil
		})
	},
}
