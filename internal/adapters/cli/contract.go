package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type contractShipmentView struct {
	ID                  string
	ContractID          string
	ShipSymbol          string
	TradeSymbol         string
	Units               int
	PurchaseWaypoint    string
	DestinationWaypoint string
	Status              string
}

func newContractCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contract",
		Short: "Inspect the contract manager's shipments",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "shipments",
		Short: "List every contract delivery shipment",
		RunE: func(cmd *cobra.Command, args []string) error {
			var shipments []contractShipmentView
			if err := newAPIClient(serverURL).get("/api/contracts/shipments", &shipments); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "ID\tCONTRACT\tSHIP\tGOOD\tUNITS\tPURCHASE\tDESTINATION\tSTATUS")
			for _, s := range shipments {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
					s.ID, s.ContractID, s.ShipSymbol, s.TradeSymbol, s.Units,
					s.PurchaseWaypoint, s.DestinationWaypoint, s.Status)
			}
			return nil
		},
	})
	return cmd
}
