package coach

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/studio/adapter/cli"
	coachApp "github.com/felixgeelhaar/studio/internal/coaches/application"
	"github.com/spf13/cobra"
)

var (
	firstName  string
	lastName   string
	email      string
	bio        string
	tier       string
	specs      []string
	maxClients int
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new coach",
	Long: `Register a coach with a unique email address.

Tiers: STANDARD (default), VIP
Specializations: STRENGTH, CARDIO, YOGA, CROSSFIT, NUTRITION

Examples:
  studio coach register --first Rocky --last Balboa --email rocky@example.com -s STRENGTH -s CROSSFIT
  studio coach register --first Maya --last Lin --email maya@example.com -s YOGA --tier VIP --max-clients 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		regCmd := coachApp.RegisterCoachCommand{
			FirstName:       firstName,
			LastName:        lastName,
			Email:           email,
			Bio:             bio,
			Tier:            tier,
			Specializations: specs,
		}
		if cmd.Flags().Changed("max-clients") {
			regCmd.MaxClients = &maxClients
		}

		return app.InTransaction(cmd.Context(), func(ctx context.Context) error {
			coach, err := app.Coaches.Register(ctx, regCmd)
			if err != nil {
				return fmt.Errorf("failed to register coach: %w", err)
			}
			printCoach(cmd.OutOrStdout(), coach)
			return nil
		})
	},
}

func init() {
	registerCmd.Flags().StringVar(&firstName, "first", "", "first name")
	registerCmd.Flags().StringVar(&lastName, "last", "", "last name")
	registerCmd.Flags().StringVar(&email, "email", "", "email address")
	registerCmd.Flags().StringVar(&bio, "bio", "", "short biography")
	registerCmd.Flags().StringVarP(&tier, "tier", "t", "STANDARD", "coach tier")
	registerCmd.Flags().StringSliceVarP(&specs, "spec", "s", nil, "specialization (repeatable)")
	registerCmd.Flags().IntVar(&maxClients, "max-clients", 0, "maximum number of clients")
	_ = registerCmd.MarkFlagRequired("first")
	_ = registerCmd.MarkFlagRequired("last")
	_ = registerCmd.MarkFlagRequired("email")
}
