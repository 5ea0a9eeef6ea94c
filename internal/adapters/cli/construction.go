package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type constructionShipmentView struct {
	ID               string
	Site             string
	TradeSymbol      string
	Units            int
	PurchaseWaypoint string
	ShipSymbol       string
	Status           string
}

func newConstructionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "construction",
		Short: "Inspect the construction manager's shipments",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "shipments",
		Short: "List every construction-material shipment",
		RunE: func(cmd *cobra.Command, args []string) error {
			var shipments []constructionShipmentView
			if err := newAPIClient(serverURL).get("/api/construction/shipments", &shipments); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "ID\tSITE\tGOOD\tUNITS\tPURCHASE\tSHIP\tSTATUS")
			for _, s := range shipments {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
					s.ID, s.Site, s.TradeSymbol, s.Units, s.PurchaseWaypoint, s.ShipSymbol, s.Status)
			}
			return nil
		},
	})
	return cmd
}
