package cli

import (
	"fmt"

	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/migrations"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long: `Apply the embedded schema migrations for the configured driver.
Every statement is idempotent, so re-running is safe.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		db := app.Container.DB
		if err := migrations.Run(cmd.Context(), db); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Migrations applied (%s)\n", db.Driver())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
