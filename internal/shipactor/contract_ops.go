package shipactor

import (
	"context"
	"fmt"

	"github.com/acdtunes/fleetctl/internal/domain/ports"
)

// DeliverContract delivers units of symbol from the ship's cargo against
// an accepted contract (§4.9's contract-shipment delivery leg).
func (a *Actor) DeliverContract(ctx context.Context, contractID, symbol string, units int) (*ports.ContractData, error) {
	guard, err := a.manager.GetMut(ctx, a.Symbol)
	if err != nil {
		return nil, err
	}
	defer guard.Release()

	if err := a.dockLocked(ctx, guard); err != nil {
		return nil, err
	}
	data, err := a.api.DeliverContract(ctx, contractID, a.Symbol, symbol, units)
	if err != nil {
		return nil, fmt.Errorf("shipactor: deliver %d %s against contract %s: %w", units, symbol, contractID, err)
	}

	cargo := guard.Ship().Cargo()
	have := cargo.GetItemUnits(symbol)
	newCargo := addCargoUnits(cargo, symbol, -minInt(have, units))
	_ = guard.Ship().SetCargo(newCargo)
	return data, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// SupplyConstruction delivers units of symbol from the ship's cargo to a
// construction site (§4.9's construction shipment delivery leg).
func (a *Actor) SupplyConstruction(ctx context.Context, waypoint, symbol string, units int) (*ports.ConstructionSupplyResponse, error) {
	guard, err := a.manager.GetMut(ctx, a.Symbol)
	if err != nil {
		return nil, err
	}
	defer guard.Release()

	if err := a.dockLocked(ctx, guard); err != nil {
		return nil, err
	}
	result, err := a.api.SupplyConstruction(ctx, a.Symbol, waypoint, symbol, units)
	if err != nil {
		return nil, fmt.Errorf("shipactor: supply construction %d %s at %s: %w", units, symbol, waypoint, err)
	}
	a.applyCargoResult(guard.Ship(), result.Cargo)
	return result, nil
}
