package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type shipSnapshotView struct {
	Symbol string
	Nav    struct {
		SystemSymbol   string
		WaypointSymbol string
		Status         string
	}
	PilotRole struct {
		Kind string
	}
	Status struct {
		Kind string
	}
}

func newShipCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ship",
		Short: "Inspect fleet ships",
	}
	cmd.AddCommand(newShipListCommand())
	cmd.AddCommand(newShipGetCommand())
	return cmd
}

func newShipListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every ship under pilot",
		RunE: func(cmd *cobra.Command, args []string) error {
			var ships []shipSnapshotView
			if err := newAPIClient(serverURL).get("/api/ships", &ships); err != nil {
				return err
			}
			printShips(ships)
			return nil
		},
	}
}

func newShipGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get [symbol]",
		Short: "Show one ship's snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ship shipSnapshotView
			if err := newAPIClient(serverURL).get("/api/ships/"+args[0], &ship); err != nil {
				return err
			}
			printShips([]shipSnapshotView{ship})
			return nil
		},
	}
}

func printShips(ships []shipSnapshotView) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "SYMBOL\tSYSTEM\tWAYPOINT\tNAV\tROLE\tSTATUS")
	for _, s := range ships {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Symbol, s.Nav.SystemSymbol, s.Nav.WaypointSymbol, s.Nav.Status, s.PilotRole.Kind, s.Status.Kind)
	}
}
