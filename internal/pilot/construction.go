package pilot

import (
	"context"

	"github.com/acdtunes/fleetctl/internal/domain/ship"
	"github.com/acdtunes/fleetctl/internal/shipactor"
)

// runConstructionCycle requests a pending material shipment, buys and
// delivers it to the construction site (spec.md §4.9).
func (l *Loop) runConstructionCycle(ctx context.Context) error {
	guard, err := l.deps.ShipManager.GetMut(ctx, l.shipSymbol)
	if err != nil {
		return err
	}
	cargoCapacity := guard.Ship().Cargo().Capacity
	guard.Release()

	agent, err := l.actor.API().GetAgent(ctx)
	var funds int64
	if err == nil {
		funds = agent.Credits
	}

	shipment, err := l.deps.Construction.RequestNextShipment(ctx, l.shipSymbol, cargoCapacity, funds)
	if err != nil {
		return err
	}
	if shipment == nil {
		l.sleepJitter(ctx)
		return nil // ComeBackLater
	}

	l.setStatus(ctx, ship.IdleStatus())

	if err := l.actor.NavigateTo(ctx, shipment.PurchaseWaypoint, shipactor.FlowFlags{OnlyMarkets: true}); err != nil {
		return err
	}
	if _, err := l.actor.PurchaseCargo(ctx, shipment.TradeSymbol, shipment.Units, "construction-shipment"); err != nil {
		return err
	}

	if err := l.actor.NavigateTo(ctx, shipment.Site, shipactor.FlowFlags{}); err != nil {
		return err
	}
	if _, err := l.actor.SupplyConstruction(ctx, shipment.Site, shipment.TradeSymbol, shipment.Units); err != nil {
		l.deps.Construction.FinishedShipment(ctx, shipment.ID, false)
		return err
	}

	l.deps.Construction.FinishedShipment(ctx, shipment.ID, true)
	return nil
}
