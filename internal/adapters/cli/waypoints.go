package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type waypointView struct {
	Symbol string
	X, Y   float64
	Type   string
	Traits []string
}

func newWaypointsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "waypoints [system]",
		Short: "List a system's waypoints as the planner knows them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var waypoints []waypointView
			if err := newAPIClient(serverURL).get("/api/waypoints/"+args[0], &waypoints); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "SYMBOL\tX\tY\tTYPE\tTRAITS")
			for _, wp := range waypoints {
				fmt.Fprintf(w, "%s\t%.0f\t%.0f\t%s\t%s\n", wp.Symbol, wp.X, wp.Y, wp.Type, strings.Join(wp.Traits, ","))
			}
			return nil
		},
	}
}
