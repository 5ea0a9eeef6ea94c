package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type tradeRouteView struct {
	ID               string
	TradeSymbol      string
	ShipSymbol       string
	PurchaseWaypoint string
	SellWaypoint     string
	PredictedBuy     int64
	PredictedSell    int64
	TradeVolume      int
	Finished         bool
}

func newTradeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Inspect the trade manager's routes",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "routes",
		Short: "List every known trade route",
		RunE: func(cmd *cobra.Command, args []string) error {
			var routes []tradeRouteView
			if err := newAPIClient(serverURL).get("/api/trade-routes", &routes); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "ID\tTRADE\tSHIP\tPURCHASE\tSELL\tBUY\tSELLPRICE\tVOLUME\tFINISHED")
			for _, r := range routes {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%v\n",
					r.ID, r.TradeSymbol, r.ShipSymbol, r.PurchaseWaypoint, r.SellWaypoint,
					r.PredictedBuy, r.PredictedSell, r.TradeVolume, r.Finished)
			}
			return nil
		},
	})
	return cmd
}
