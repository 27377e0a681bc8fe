package cli

import (
	"fmt"
	"sort"

	"github.com/felixgeelhaar/studio/pkg/observability"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check database and cache connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		health := app.Container.Health.GetOverallHealth(cmd.Context())

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "status: %s\n", health.Status)
		names := make([]string, 0, len(health.Checks))
		for name := range health.Checks {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			check := health.Checks[name]
			fmt.Fprintf(out, "  %-10s %-9s %s\n", name, check.Status, check.Message)
		}
		if health.Status == observability.HealthStatusUnhealthy {
			return fmt.Errorf("studio is unhealthy")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
