package pilot

import (
	"context"
	"fmt"

	"github.com/acdtunes/fleetctl/internal/domain/ship"
	"github.com/acdtunes/fleetctl/internal/shipactor"
)

// runContractCycle requests a delivery shipment, buys the goods, flies
// them to the destination, and delivers against the contract (spec.md
// §4.9's shipment shape reused by contractmanager).
func (l *Loop) runContractCycle(ctx context.Context, role ship.PilotRole) error {
	guard, err := l.deps.ShipManager.GetMut(ctx, l.shipSymbol)
	if err != nil {
		return err
	}
	cargoCapacity := guard.Ship().Cargo().Capacity
	guard.Release()

	shipment, err := l.deps.Contract.RequestNextShipment(ctx, l.shipSymbol, cargoCapacity)
	if err != nil {
		return err
	}
	if shipment == nil {
		return nil // ComeBackLater
	}
	l.setRole(ctx, ship.NewContractRole(shipment.ID))
	l.setStatus(ctx, ship.ContractingStatus(shipment.ID))

	if err := l.actor.NavigateTo(ctx, shipment.PurchaseWaypoint, shipactor.FlowFlags{OnlyMarkets: true}); err != nil {
		return fmt.Errorf("pilot: navigate to purchase %s: %w", shipment.PurchaseWaypoint, err)
	}
	if _, err := l.actor.PurchaseCargo(ctx, shipment.TradeSymbol, shipment.Units, "contract-shipment"); err != nil {
		return err
	}

	if err := l.actor.NavigateTo(ctx, shipment.DestinationWaypoint, shipactor.FlowFlags{OnlyMarkets: true}); err != nil {
		return fmt.Errorf("pilot: navigate to destination %s: %w", shipment.DestinationWaypoint, err)
	}
	if _, err := l.actor.DeliverContract(ctx, shipment.ContractID, shipment.TradeSymbol, shipment.Units); err != nil {
		l.deps.Contract.FinishedShipment(ctx, shipment.ID, false)
		return err
	}

	l.deps.Contract.FinishedShipment(ctx, shipment.ID, true)
	l.setRole(ctx, ship.NewContractRole(""))
	l.setStatus(ctx, ship.IdleStatus())
	return nil
}
