// Package shipactor implements the ship operations contract of spec.md
// §4.1: navigate_to, ensure_docked/undocked, purchase/sell_cargo,
// refuel, extract/siphon/survey, jump, transfer_cargo,
// wait_for_cooldown/arrival, snapshot. Every operation acquires the
// ship's per-ship lock through shipmanager.Manager for its duration, so
// it is atomic from callers' perspective even though it may suspend on
// I/O. Grounded on original_source/ship/src/ (the MyShip impl blocks
// for navigate/dock/refuel/extract/transfer), adapted around the
// ports.APIClient boundary instead of a concrete HTTP client.
package shipactor

import (
	"context"
	"log"

	"github.com/acdtunes/fleetctl/internal/bus"
	"github.com/acdtunes/fleetctl/internal/domain/ports"
	"github.com/acdtunes/fleetctl/internal/domain/shared"
	"github.com/acdtunes/fleetctl/internal/domain/ship"
	"github.com/acdtunes/fleetctl/internal/navigation"
	"github.com/acdtunes/fleetctl/internal/shipmanager"
)

// Actor is the per-ship operation surface. It holds no ship state
// itself — state lives in shipmanager, accessed under its per-ship lock
// for the duration of each operation.
type Actor struct {
	Symbol string

	manager *shipmanager.Manager
	api     ports.APIClient
	planner *navigation.Planner
	bus     *bus.Bus
	clock   shared.Clock
}

func New(symbol string, manager *shipmanager.Manager, api ports.APIClient, planner *navigation.Planner, b *bus.Bus, clock shared.Clock) *Actor {
	return &Actor{Symbol: symbol, manager: manager, api: api, planner: planner, bus: b, clock: clock}
}

// Run services the inter-ship bus for this actor until ctx is
// cancelled: CargoChange events are applied to local cargo state
// without a remote call; TransferRequest pull-variant events are
// acknowledged via their embedded reply channel (§4.1, §4.3).
func (a *Actor) Run(ctx context.Context) {
	sub := a.bus.Subscribe()
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Messages():
			if !ok {
				return
			}
			if msg.TargetShip != a.Symbol {
				continue
			}
			a.handleBusMessage(ctx, msg)
		}
	}
}

func (a *Actor) handleBusMessage(ctx context.Context, msg bus.Message) {
	switch msg.Kind {
	case bus.PayloadCargoChange:
		a.applyCargoChange(ctx, msg.CargoChange)
	case bus.PayloadTransferRequest:
		a.handleTransferRequest(ctx, msg.TransferRequest)
	}
}

func (a *Actor) applyCargoChange(ctx context.Context, change *bus.CargoChange) {
	if change == nil {
		return
	}
	guard, err := a.manager.GetMut(ctx, a.Symbol)
	if err != nil {
		return
	}
	defer guard.Release()

	s := guard.Ship()
	cargo := s.Cargo()
	cargo = addCargoUnits(cargo, change.TradeSymbol, change.Units)
	if err := s.SetCargo(cargo); err != nil {
		log.Printf("shipactor[%s]: applying cargo change failed: %v", a.Symbol, err)
	}
}

func (a *Actor) handleTransferRequest(ctx context.Context, req *bus.TransferRequest) {
	if req == nil || req.Reply == nil {
		return
	}
	guard, err := a.manager.GetMut(ctx, a.Symbol)
	if err != nil {
		req.Reply <- bus.TransferAck{Accepted: false}
		return
	}
	s := guard.Ship()
	curCargo := s.Cargo()
	have := curCargo.GetItemUnits(req.TradeSymbol)
	units := req.Units
	if have < units {
		units = have
	}
	if units > 0 {
		cargo := addCargoUnits(s.Cargo(), req.TradeSymbol, -units)
		_ = s.SetCargo(cargo)
	}
	guard.Release()

	req.Reply <- bus.TransferAck{Accepted: units > 0, Units: units}
}

func addCargoUnits(cargo shared.Cargo, symbol string, delta int) shared.Cargo {
	inventory := make([]*shared.CargoItem, 0, len(cargo.Inventory)+1)
	found := false
	total := 0
	for _, item := range cargo.Inventory {
		units := item.Units
		if item.Symbol == symbol {
			units += delta
			found = true
		}
		if units > 0 {
			inventory = append(inventory, &shared.CargoItem{Symbol: item.Symbol, Name: item.Name, Description: item.Description, Units: units})
			total += units
		}
	}
	if !found && delta > 0 {
		inventory = append(inventory, &shared.CargoItem{Symbol: symbol, Units: delta})
		total += delta
	}
	return shared.Cargo{Capacity: cargo.Capacity, Units: total, Inventory: inventory}
}

// Snapshot returns the ship's current snapshot via the cache (no lock
// contention with in-flight operations).
func (a *Actor) Snapshot() (ship.Snapshot, bool) {
	return a.manager.GetClone(a.Symbol)
}
