package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type statsView struct {
	ShipCount int `json:"ship_count"`
	Trade     struct {
		Busy          bool
		TotalCapacity int `json:"total_capacity"`
		UsedCapacity  int `json:"used_capacity"`
	}
	Contract struct {
		Busy bool
	}
	Construction struct {
		Busy bool
	}
}

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print fleet-wide counters and manager busy state",
		RunE: func(cmd *cobra.Command, args []string) error {
			var stats statsView
			if err := newAPIClient(serverURL).get("/api/stats", &stats); err != nil {
				return err
			}
			fmt.Printf("ships:        %d\n", stats.ShipCount)
			fmt.Printf("trade:        busy=%v mailbox=%d/%d\n", stats.Trade.Busy, stats.Trade.UsedCapacity, stats.Trade.TotalCapacity)
			fmt.Printf("contract:     busy=%v\n", stats.Contract.Busy)
			fmt.Printf("construction: busy=%v\n", stats.Construction.Busy)
			return nil
		},
	}
}
