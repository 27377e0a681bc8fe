package coach

import (
	"fmt"
	"io"
	"strings"

	coachDomain "github.com/felixgeelhaar/studio/internal/coaches/domain"
	"github.com/spf13/cobra"
)

// Cmd is the coach command group
var Cmd = &cobra.Command{
	Use:   "coach",
	Short: "Manage coaches",
	Long:  `Register coaches, list available coaches and match members to coaches.`,
}

func init() {
	Cmd.AddCommand(registerCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(matchCmd)
}

func specializations(c *coachDomain.Coach) string {
	specs := c.Specializations()
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, string(s))
	}
	return strings.Join(names, ",")
}

func printCoach(out io.Writer, c *coachDomain.Coach) {
	fmt.Fprintf(out, "Coach %d: %s <%s>\n", c.ID(), c.Name().Full(), c.Email())
	fmt.Fprintf(out, "  Tier: %s\n", c.Tier())
	fmt.Fprintf(out, "  Specializations: %s\n", specializations(c))
	fmt.Fprintf(out, "  Clients: %d/%d\n", c.CurrentClientCount(), c.MaxClients())
}
