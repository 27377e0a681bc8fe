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
	firstName    string
	lastName     string
	email        string
	phone        string
	fitnessLevel string
	tier         string
	validUntil   string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new member",
	Long: `Register a member with a unique email address.

Fitness levels: BEGINNER, INTERMEDIATE, ADVANCED
Membership tiers: FREE (default), PREMIUM, VIP

Examples:
  studio member register --first Ada --last Lovelace --email ada@example.com --phone +4915112345678
  studio member register --first Alan --last Turing --email alan@example.com --phone +441234567890 --level ADVANCED --tier VIP --valid-until 2027-01-01`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		regCmd := memberApp.RegisterMemberCommand{
			FirstName:      firstName,
			LastName:       lastName,
			Email:          email,
			Phone:          phone,
			FitnessLevel:   fitnessLevel,
			MembershipTier: tier,
		}
		if validUntil != "" {
			until, err := sharedDomain.ParseDate(validUntil)
			if err != nil {
				return err
			}
			regCmd.ValidUntil = &until
		}

		return app.InTransaction(cmd.Context(), func(ctx context.Context) error {
			member, err := app.Members.Register(ctx, regCmd)
			if err != nil {
				return fmt.Errorf("failed to register member: %w", err)
			}
			printMember(cmd.OutOrStdout(), member)
			return nil
		})
	},
}

func init() {
	registerCmd.Flags().StringVar(&firstName, "first", "", "first name")
	registerCmd.Flags().StringVar(&lastName, "last", "", "last name")
	registerCmd.Flags().StringVar(&email, "email", "", "email address")
	registerCmd.Flags().StringVar(&phone, "phone", "", "phone number")
	registerCmd.Flags().StringVarP(&fitnessLevel, "level", "l", "BEGINNER", "fitness level")
	registerCmd.Flags().StringVarP(&tier, "tier", "t", "", "membership tier")
	registerCmd.Flags().StringVar(&validUntil, "valid-until", "", "membership end date (YYYY-MM-DD)")
	_ = registerCmd.MarkFlagRequired("first")
	_ = registerCmd.MarkFlagRequired("last")
	_ = registerCmd.MarkFlagRequired("email")
	_ = registerCmd.MarkFlagRequired("phone")
}

