package pilot

import (
	"context"

	"github.com/acdtunes/fleetctl/internal/domain/ship"
	"github.com/acdtunes/fleetctl/internal/manager/fleetmanager"
	"github.com/acdtunes/fleetctl/internal/shipactor"
)

// runScrapeCycle asks the scrapping manager for the next waypoint due a
// market/shipyard snapshot, flies there, pulls the snapshot, and reports
// success or failure (spec.md §4.5). Grounded on
// original_source/src/pilot/scraper.rs's execute_pilot_circle.
func (l *Loop) runScrapeCycle(ctx context.Context) error {
	system, waypoint, ok := l.currentSystemAndWaypoint(ctx)
	if !ok {
		return nil
	}

	resp, err := l.deps.Scrap.Next(ctx, l.shipSymbol, system, waypoint)
	if err != nil {
		return err
	}
	if !resp.Assigned {
		l.sleepJitter(ctx)
		return nil
	}

	l.setStatus(ctx, ship.ScrapingStatus(0, false, resp.Waypoint, &resp.DueAt))

	if err := l.actor.NavigateTo(ctx, resp.Waypoint, shipactor.FlowFlags{}); err != nil {
		l.deps.Scrap.Fail(ctx, l.shipSymbol, resp.Waypoint)
		return err
	}
	if err := l.actor.EnsureDocked(ctx); err != nil {
		l.deps.Scrap.Fail(ctx, l.shipSymbol, resp.Waypoint)
		return err
	}

	l.pullMarketAndShipyardSnapshot(ctx, system, resp.Waypoint)

	l.deps.Scrap.Complete(ctx, l.shipSymbol, resp.Waypoint)
	l.setStatus(ctx, ship.IdleStatus())
	return nil
}

// pullMarketAndShipyardSnapshot fetches market/shipyard data for waypoint,
// feeds the market snapshot into the shared market cache so trade,
// construction, and contract pilots can see it, and, if a shipyard is
// present, reports the visit to the fleet manager for ship-procurement
// consideration (§4.10 ScrapperAtShipyard).
func (l *Loop) pullMarketAndShipyardSnapshot(ctx context.Context, system, waypoint string) {
	if l.deps.Markets != nil {
		if md, err := l.actor.API().GetMarket(ctx, system, waypoint); err == nil && md != nil {
			l.deps.Markets.Update(md.WaypointSymbol, md.TradeGoods)
		}
	}

	shipyard, err := l.actor.API().GetShipyard(ctx, system, waypoint)
	if err != nil || shipyard == nil {
		return
	}

	listings := make([]fleetmanager.ShipyardListing, 0, len(shipyard.Ships))
	for _, s := range shipyard.Ships {
		listings = append(listings, fleetmanager.ShipyardListing{ShipType: s.Type, Price: s.PurchasePrice})
	}
	if len(listings) == 0 {
		return
	}

	agent, err := l.actor.API().GetAgent(ctx)
	if err != nil {
		return
	}

	jumpsFromShipyard := func(targetSystem string) (int, bool) {
		return l.actor.JumpsTo(waypoint, targetSystem)
	}

	_, _ = l.deps.Fleet.ScrapperAtShipyard(ctx, waypoint, l.shipSymbol, agent.Credits, listings, jumpsFromShipyard)
}
