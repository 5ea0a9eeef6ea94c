// Command fleetctl is a read-only operator CLI for a running fleetd
// instance: it talks to the inspection server of spec.md §6 over HTTP
// and has no path back into the fleet core beyond that.
package main

import "github.com/acdtunes/fleetctl/internal/adapters/cli"

func main() {
	cli.Execute()
}
