package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var serverURL string

// NewRootCommand builds the fleetctl root command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fleetctl",
		Short: "fleetctl inspects a running fleetd instance",
		Long: `fleetctl is a read-only window into a running fleetd daemon. It talks
to the daemon's inspection server over HTTP and never issues a mutating
command — role assignment and ship operations belong to the daemon's own
pilot loops, not an external operator.

Examples:
  fleetctl ship list
  fleetctl ship get AGENT-1
  fleetctl trade routes
  fleetctl contract shipments
  fleetctl construction shipments
  fleetctl waypoints X1-GZ7
  fleetctl stats`,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", getDefaultServerURL(),
		"base URL of the fleetd inspection server")

	rootCmd.AddCommand(newShipCommand())
	rootCmd.AddCommand(newTradeCommand())
	rootCmd.AddCommand(newContractCommand())
	rootCmd.AddCommand(newConstructionCommand())
	rootCmd.AddCommand(newWaypointsCommand())
	rootCmd.AddCommand(newStatsCommand())

	return rootCmd
}

func getDefaultServerURL() string {
	if url := os.Getenv("FLEETCTL_SERVER"); url != "" {
		return url
	}
	return "http://localhost:8090"
}

// Execute runs the root command, exiting non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
