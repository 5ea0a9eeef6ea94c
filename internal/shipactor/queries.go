package shipactor

import (
	"github.com/acdtunes/fleetctl/internal/domain/ports"
	"github.com/acdtunes/fleetctl/internal/domain/shared"
)

// API exposes the raw remote-API collaborator for read-only queries
// that need neither the per-ship lock nor cargo/nav bookkeeping (market
// and shipyard snapshots, agent credits) — scraper and fleet-procurement
// callers use this instead of adding single-purpose wrappers here for
// every read-only remote call.
func (a *Actor) API() ports.APIClient { return a.api }

// JumpsTo estimates jump-gate hops from the system containing waypoint
// to targetSystem, used by the fleet manager's procurement distance
// estimate (§4.10).
func (a *Actor) JumpsTo(waypoint, targetSystem string) (int, bool) {
	return a.planner.JumpsBetweenSystems(shared.ExtractSystemSymbol(waypoint), targetSystem)
}

// NearestMarketplace returns the closest marketplace waypoint to from
// within system, used by mining transporters to pick a waypoint to sell
// their ferried cargo at (§4.8).
func (a *Actor) NearestMarketplace(system, from string) (string, bool) {
	wps := a.planner.WaypointsInSystem(system)
	var fromWp *shared.Waypoint
	for _, wp := range wps {
		if wp.Symbol == from {
			fromWp = wp
			break
		}
	}

	var best string
	bestDist := -1.0
	for _, wp := range wps {
		if !a.planner.IsMarketplace(system, wp.Symbol) {
			continue
		}
		d := 0.0
		if fromWp != nil {
			d = fromWp.DistanceTo(wp)
		}
		if best == "" || d < bestDist {
			best = wp.Symbol
			bestDist = d
		}
	}
	return best, best != ""
}
