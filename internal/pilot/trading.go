package pilot

import (
	"context"
	"fmt"

	"github.com/acdtunes/fleetctl/internal/domain/ship"
	"github.com/acdtunes/fleetctl/internal/shipactor"
)

// runTradeCycle requests a trade route if the ship does not have one
// assigned, buys at the purchase waypoint, sells at the sell waypoint,
// and reports completion (spec.md §4.6).
func (l *Loop) runTradeCycle(ctx context.Context, role ship.PilotRole) error {
	system, _, ok := l.currentSystemAndWaypoint(ctx)
	if !ok {
		return fmt.Errorf("pilot: ship not found")
	}

	if role.ActiveRouteID == "" {
		l.setStatus(ctx, ship.TradingStatus("", 0, "requesting"))
		route, err := l.deps.Trade.RequestNextTradeRoute(ctx, l.shipSymbol, system, l.deps.TradeBlacklist)
		if err != nil {
			return err
		}
		if route == nil {
			return nil // nothing available this cycle
		}
		l.setRole(ctx, ship.NewTraderRole(route.ID))

		l.setStatus(ctx, ship.TradingStatus(route.ID, 0, "purchasing"))
		if err := l.actor.NavigateTo(ctx, route.PurchaseWaypoint, shipactor.FlowFlags{OnlyMarkets: true}); err != nil {
			return err
		}
		if _, err := l.actor.PurchaseCargo(ctx, route.TradeSymbol, route.TradeVolume, "trade-route"); err != nil {
			return err
		}

		l.setStatus(ctx, ship.TradingStatus(route.ID, 0, "selling"))
		if err := l.actor.NavigateTo(ctx, route.SellWaypoint, shipactor.FlowFlags{OnlyMarkets: true}); err != nil {
			return err
		}
		if _, err := l.actor.SellCargo(ctx, route.TradeSymbol, route.TradeVolume, "trade-route"); err != nil {
			return err
		}

		if _, err := l.deps.Trade.CompleteTradeRoute(ctx, route.ID); err != nil {
			return err
		}
		l.setRole(ctx, ship.NewTraderRole(""))
		l.setStatus(ctx, ship.IdleStatus())
		return nil
	}

	// An in-flight route id with no further local state means the loop
	// restarted mid-cycle; clear it so the next iteration requests fresh.
	l.setRole(ctx, ship.NewTraderRole(""))
	return nil
}
