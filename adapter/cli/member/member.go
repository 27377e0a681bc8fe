package member

import (
	"fmt"
	"io"

	memberDomain "github.com/felixgeelhaar/studio/internal/members/domain"
	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
	"github.com/spf13/cobra"
)

// Cmd is the member command group
var Cmd = &cobra.Command{
	Use:   "member",
	Short: "Manage members",
	Long:  `Register members, list them and track their fitness goals.`,
}

func init() {
	Cmd.AddCommand(registerCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(goalCmd)
}

func printMember(out io.Writer, m *memberDomain.Member) {
	fmt.Fprintf(out, "Member %d: %s <%s>\n", m.ID(), m.Name().Full(), m.Email())
	fmt.Fprintf(out, "  Level: %s\n", m.FitnessLevel())
	fmt.Fprintf(out, "  Membership: %s until %s\n", m.Membership().Tier(), sharedDomain.FormatDate(m.Membership().ValidUntil()))
	if planID, ok := m.ActivePlanID(); ok {
		fmt.Fprintf(out, "  Active plan: %d\n", planID)
	}
	for _, g := range m.Goals() {
		mark := " "
		if g.IsAchieved() {
			mark = "x"
		}
		fmt.Fprintf(out, "  [%s] goal %d %s: %s (by %s)\n", mark, g.ID(), g.Type(), g.Description(), sharedDomain.FormatDate(g.TargetDate()))
	}
}
