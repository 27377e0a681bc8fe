package coach

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/studio/adapter/cli"
	coachDomain "github.com/felixgeelhaar/studio/internal/coaches/domain"
	"github.com/spf13/cobra"
)

var specialization string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List coaches with free capacity",
	Long: `List coaches who can take on another client.

Examples:
  studio coach list
  studio coach list --specialization yoga`,
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		var spec *coachDomain.Specialization
		if specialization != "" {
			parsed, err := coachDomain.ParseSpecialization(strings.ToUpper(specialization))
			if err != nil {
				return err
			}
			spec = &parsed
		}

		return app.InTransaction(cmd.Context(), func(ctx context.Context) error {
			coaches, err := app.Coaches.FindAvailable(ctx, spec)
			if err != nil {
				return fmt.Errorf("failed to list coaches: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(coaches) == 0 {
				fmt.Fprintln(out, "No available coaches.")
				return nil
			}
			fmt.Fprintf(out, "%-6s %-24s %-10s %-8s %s\n", "ID", "NAME", "TIER", "CLIENTS", "SPECIALIZATIONS")
			for _, c := range coaches {
				fmt.Fprintf(out, "%-6d %-24s %-10s %-8s %s\n",
					c.ID(), c.Name().Full(), c.Tier(),
					fmt.Sprintf("%d/%d", c.CurrentClientCount(), c.MaxClients()),
					specializations(c))
			}
			return nil
		})
	},
}

func init() {
	listCmd.Flags().StringVar(&specialization, "specialization", "", "only coaches with this specialization")
}
