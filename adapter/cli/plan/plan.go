package plan

import (
	"fmt"
	"io"
	"strings"

	planDomain "github.com/felixgeelhaar/studio/internal/plans/domain"
	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
	"github.com/spf13/cobra"
)

// Cmd is the plan command group
var Cmd = &cobra.Command{
	Use:   "plan",
	Short: "Manage training plans",
	Long:  `Draft training plans, add workout sessions, activate plans and follow their progress.`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(addSessionCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(progressCmd)
	Cmd.AddCommand(activateCmd)
}

func printPlan(out io.Writer, p *planDomain.TrainingPlan) {
	fmt.Fprintf(out, "Plan %d: %s [%s]\n", p.ID(), p.Name(), p.Status())
	fmt.Fprintf(out, "  Member: %d  Coach: %d\n", p.MemberID(), p.CoachID())
	fmt.Fprintf(out, "  Period: %s to %s\n", sharedDomain.FormatDate(p.StartDate()), sharedDomain.FormatDate(p.EndDate()))
	for _, s := range p.Sessions() {
		fmt.Fprintf(out, "  Session %d %s on %s [%s]\n", s.ID(), s.Name(), sharedDomain.FormatDate(s.ScheduledDate()), s.Status())
		names := make([]string, 0, len(s.Exercises()))
		for _, e := range s.Exercises() {
			names = append(names, fmt.Sprintf("%s %dx%d", e.Name(), e.Sets(), e.Reps()))
		}
		if len(names) > 0 {
			fmt.Fprintf(out, "    %s\n", strings.Join(names, ", "))
		}
		if s.Notes() != "" {
			fmt.Fprintf(out, "    Notes: %s\n", s.Notes())
		}
	}
}
