package shipactor

import (
	"context"
	"fmt"
	"time"

	"github.com/acdtunes/fleetctl/internal/bus"
	"github.com/acdtunes/fleetctl/internal/domain/ports"
	"github.com/acdtunes/fleetctl/internal/domain/shared"
	"github.com/acdtunes/fleetctl/internal/domain/ship"
	"github.com/acdtunes/fleetctl/internal/navigation"
)

// FlowFlags restricts the navigation planner's route search for a
// single navigate_to call (§4.7's M and only-markets parameters).
type FlowFlags struct {
	Modes       []shared.FlightMode
	OnlyMarkets bool
}

func (f FlowFlags) modesOrDefault() []shared.FlightMode {
	if len(f.Modes) == 0 {
		return shared.AllFlightModes()
	}
	return f.Modes
}

// NavigateTo plans and flies a route to destination within the ship's
// current system or across jump gates, executing the fuel-instruction
// rewrite leg by leg (§4.1).
func (a *Actor) NavigateTo(ctx context.Context, destination string, flags FlowFlags) error {
	guard, err := a.manager.GetMut(ctx, a.Symbol)
	if err != nil {
		return err
	}
	defer guard.Release()

	s := guard.Ship()
	if s.Nav().WaypointSymbol == destination {
		return nil // no-op, no fuel consumed (§8 boundary behavior)
	}

	instrs, err := a.planner.Plan(navigation.PlanRequest{
		StartWaypoint: s.Nav().WaypointSymbol,
		EndWaypoint:   destination,
		FuelCapacity:  s.Fuel().Capacity,
		EngineSpeed:   s.EngineSpeed(),
		Modes:         flags.modesOrDefault(),
		OnlyMarkets:   flags.OnlyMarkets,
	})
	if err != nil {
		return fmt.Errorf("shipactor: plan route to %s: %w", destination, err)
	}

	for _, instr := range instrs {
		if err := a.flyLeg(ctx, guard, instr); err != nil {
			return err
		}
	}
	return nil
}

func (a *Actor) flyLeg(ctx context.Context, guard guardHandle, instr navigation.RouteInstruction) error {
	if instr.Leg.IsJump {
		return a.flyJumpLeg(ctx, guard, instr.Leg)
	}

	s := guard.Ship()

	if instr.AtMarketplace {
		if err := a.dockLocked(ctx, guard); err != nil {
			return err
		}
		if err := a.refuelLocked(ctx, guard, instr.RefuelTo, instr.FuelInCargo); err != nil {
			return err
		}
	} else if instr.FuelInCargo > 0 {
		if err := a.topUpFromCargoLocked(guard, instr.FuelInCargo); err != nil {
			return err
		}
	}

	if err := a.undockLocked(ctx, guard); err != nil {
		return err
	}

	mode := instr.Leg.Mode
	if s.Nav().FlightMode != flightModeName(mode) {
		if err := a.api.SetFlightMode(ctx, a.Symbol, mode); err != nil {
			return fmt.Errorf("shipactor: set flight mode: %w", err)
		}
	}

	result, err := a.api.NavigateShip(ctx, a.Symbol, instr.Leg.End)
	if err != nil {
		return fmt.Errorf("shipactor: navigate to %s: %w", instr.Leg.End, err)
	}

	nav := s.Nav()
	nav.Status = ship.NavInTransit
	nav.FlightMode = flightModeName(mode)
	nav.Route = &ship.Route{Origin: instr.Leg.Start, Destination: instr.Leg.End, DepartureTime: a.clock.Now(), ArrivalTime: result.ArrivalTime}
	s.SetNav(nav)

	fuel := s.Fuel()
	fuel.Current -= result.FuelUsed
	if fuel.Current < 0 {
		fuel.Current = 0
	}
	_ = s.SetFuel(fuel)

	if err := a.waitForArrivalLocked(ctx, guard, result.ArrivalTime); err != nil {
		return err
	}

	nav = s.Nav()
	nav.Status = ship.NavInOrbit
	nav.WaypointSymbol = instr.Leg.End
	nav.SystemSymbol = shared.ExtractSystemSymbol(instr.Leg.End)
	nav.Route = nil
	s.SetNav(nav)
	return nil
}

// flyJumpLeg executes one inter-system jump-gate hop: the remote jump
// endpoint, not navigate, moves the ship, and the resulting cooldown
// blocks the next leg instead of an arrival time.
func (a *Actor) flyJumpLeg(ctx context.Context, guard guardHandle, leg navigation.Leg) error {
	if err := a.undockLocked(ctx, guard); err != nil {
		return err
	}

	destSystem := shared.ExtractSystemSymbol(leg.End)
	result, err := a.api.JumpShip(ctx, a.Symbol, destSystem)
	if err != nil {
		return fmt.Errorf("shipactor: jump to %s: %w", destSystem, err)
	}

	s := guard.Ship()
	nav := s.Nav()
	nav.Status = ship.NavInOrbit
	nav.SystemSymbol = result.DestinationSystem
	nav.WaypointSymbol = result.DestinationWaypoint
	nav.Route = nil
	s.SetNav(nav)
	s.SetCooldown(a.clock.Now().Add(time.Duration(result.CooldownSeconds) * time.Second))

	return a.waitForCooldownLocked(ctx, guard)
}

func (a *Actor) waitForCooldownLocked(ctx context.Context, guard guardHandle) error {
	expiry := guard.Ship().CooldownExpiration()
	if expiry == nil {
		return nil
	}
	return a.waitUntil(ctx, *expiry)
}

func flightModeName(mode shared.FlightMode) ship.FlightModeName {
	switch mode {
	case shared.FlightModeBurn:
		return ship.FlightBurn
	case shared.FlightModeDrift:
		return ship.FlightDrift
	case shared.FlightModeStealth:
		return ship.FlightStealth
	default:
		return ship.FlightCruise
	}
}

// guardHandle is the subset of *shipmanager.Guard the operations in
// this file need; it exists so flyLeg and friends do not have to import
// shipmanager directly for every helper.
type guardHandle interface {
	Ship() *ship.Ship
}

// EnsureDocked docks the ship if it is not already.
func (a *Actor) EnsureDocked(ctx context.Context) error {
	guard, err := a.manager.GetMut(ctx, a.Symbol)
	if err != nil {
		return err
	}
	defer guard.Release()
	return a.dockLocked(ctx, guard)
}

func (a *Actor) dockLocked(ctx context.Context, guard guardHandle) error {
	s := guard.Ship()
	if s.Nav().Status == ship.NavDocked {
		return nil
	}
	if err := a.api.DockShip(ctx, a.Symbol); err != nil {
		return fmt.Errorf("shipactor: dock: %w", err)
	}
	nav := s.Nav()
	nav.Status = ship.NavDocked
	s.SetNav(nav)
	return nil
}

// EnsureUndocked orbits the ship if it is docked.
func (a *Actor) EnsureUndocked(ctx context.Context) error {
	guard, err := a.manager.GetMut(ctx, a.Symbol)
	if err != nil {
		return err
	}
	defer guard.Release()
	return a.undockLocked(ctx, guard)
}

func (a *Actor) undockLocked(ctx context.Context, guard guardHandle) error {
	s := guard.Ship()
	if s.Nav().Status != ship.NavDocked {
		return nil
	}
	if err := a.api.OrbitShip(ctx, a.Symbol); err != nil {
		return fmt.Errorf("shipactor: undock: %w", err)
	}
	nav := s.Nav()
	nav.Status = ship.NavInOrbit
	s.SetNav(nav)
	return nil
}

// PurchaseCargo buys units of symbol; reason is a logging label only
// (the reserved-fund protocol lives in the fleet manager, §4.10).
func (a *Actor) PurchaseCargo(ctx context.Context, symbol string, units int, reason string) (*ports.TradeResult, error) {
	guard, err := a.manager.GetMut(ctx, a.Symbol)
	if err != nil {
		return nil, err
	}
	defer guard.Release()

	if err := a.dockLocked(ctx, guard); err != nil {
		return nil, err
	}
	result, err := a.api.PurchaseCargo(ctx, a.Symbol, symbol, units)
	if err != nil {
		return nil, fmt.Errorf("shipactor: purchase %d %s (%s): %w", units, symbol, reason, err)
	}
	a.applyCargoResult(guard.Ship(), result.Cargo)
	return result, nil
}

func (a *Actor) SellCargo(ctx context.Context, symbol string, units int, reason string) (*ports.TradeResult, error) {
	guard, err := a.manager.GetMut(ctx, a.Symbol)
	if err != nil {
		return nil, err
	}
	defer guard.Release()

	if err := a.dockLocked(ctx, guard); err != nil {
		return nil, err
	}
	result, err := a.api.SellCargo(ctx, a.Symbol, symbol, units)
	if err != nil {
		return nil, fmt.Errorf("shipactor: sell %d %s (%s): %w", units, symbol, reason, err)
	}
	a.applyCargoResult(guard.Ship(), result.Cargo)
	return result, nil
}

func (a *Actor) applyCargoResult(s *ship.Ship, inventory []shared.CargoItem) {
	capacity := s.Cargo().Capacity
	units := 0
	items := make([]*shared.CargoItem, len(inventory))
	for i, it := range inventory {
		item := it
		items[i] = &item
		units += item.Units
	}
	_ = s.SetCargo(shared.Cargo{Capacity: capacity, Units: units, Inventory: items})
}

// Refuel implements the refueling-decision formula of §4.1: given
// (refuel_to, fuel_in_cargo), refuel_amount = max(0, refuel_to -
// current) rounded up to the next 100; restock = ceil(fuel_in_cargo/100)
// - current_cargo_fuel.
func (a *Actor) Refuel(ctx context.Context, refuelTo, fuelInCargo int) error {
	guard, err := a.manager.GetMut(ctx, a.Symbol)
	if err != nil {
		return err
	}
	defer guard.Release()
	return a.refuelLocked(ctx, guard, refuelTo, fuelInCargo)
}

func (a *Actor) refuelLocked(ctx context.Context, guard guardHandle, refuelTo, fuelInCargo int) error {
	s := guard.Ship()
	cargo := s.Cargo()
	plan := shared.PlanRefuel(shared.RefuelInstruction{RefuelTo: refuelTo, FuelInCargo: fuelInCargo}, s.Fuel().Current, cargo.GetItemUnits("FUEL"))

	if plan.RefuelAmount > 0 {
		units := plan.RefuelAmount
		result, err := a.api.RefuelShip(ctx, a.Symbol, &units, false)
		if err != nil {
			return fmt.Errorf("shipactor: refuel from market: %w", err)
		}
		fuel := s.Fuel()
		fuel.Current = result.FuelCurrent
		_ = s.SetFuel(fuel)
	}

	if plan.RestockAmount > 0 {
		result, err := a.api.PurchaseCargo(ctx, a.Symbol, "FUEL", plan.RestockAmount)
		if err != nil {
			return fmt.Errorf("shipactor: restock fuel cargo: %w", err)
		}
		a.applyCargoResult(s, result.Cargo)
	}
	return nil
}

// topUpFromCargoLocked handles the "space refuel" branch of §4.1: when
// not at a marketplace, consume fuel-in-cargo units to top up the tank.
func (a *Actor) topUpFromCargoLocked(guard guardHandle, fuelInCargo int) error {
	s := guard.Ship()
	cargo := s.Cargo()
	have := cargo.GetItemUnits("FUEL")
	if have == 0 {
		return nil
	}
	consume := fuelInCargo
	if consume > have {
		consume = have
	}
	cargo = addCargoUnits(cargo, "FUEL", -consume)
	if err := s.SetCargo(cargo); err != nil {
		return err
	}
	fuel := s.Fuel()
	fuel.Current += consume * 100
	if fuel.Current > fuel.Capacity {
		fuel.Current = fuel.Capacity
	}
	return s.SetFuel(fuel)
}

// WaitForArrival suspends until the ship's in-flight route's arrival
// time elapses.
func (a *Actor) WaitForArrival(ctx context.Context) error {
	guard, err := a.manager.GetMut(ctx, a.Symbol)
	if err != nil {
		return err
	}
	route := guard.Ship().Nav().Route
	guard.Release()

	if route == nil {
		return nil
	}
	return a.waitUntil(ctx, route.ArrivalTime)
}

func (a *Actor) waitForArrivalLocked(ctx context.Context, guard guardHandle, arrival time.Time) error {
	_ = guard
	return a.waitUntil(ctx, arrival)
}

// WaitForCooldown suspends until the ship's cooldown expires.
func (a *Actor) WaitForCooldown(ctx context.Context) error {
	guard, err := a.manager.GetMut(ctx, a.Symbol)
	if err != nil {
		return err
	}
	expiry := guard.Ship().CooldownExpiration()
	guard.Release()

	if expiry == nil {
		return nil
	}
	return a.waitUntil(ctx, *expiry)
}

func (a *Actor) waitUntil(ctx context.Context, when time.Time) error {
	d := when.Sub(a.clock.Now())
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return shared.ErrCancelled
	}
}

// Extract performs an extraction, optionally against a prior survey
// (§4.1 "extract[with_survey?]").
func (a *Actor) Extract(ctx context.Context, surveyID *string) (*ports.ExtractionResult, error) {
	guard, err := a.manager.GetMut(ctx, a.Symbol)
	if err != nil {
		return nil, err
	}
	defer guard.Release()

	result, err := a.api.ExtractResources(ctx, a.Symbol, surveyID)
	if err != nil {
		return nil, fmt.Errorf("shipactor: extract: %w", err)
	}
	a.applyExtractionResult(guard.Ship(), result)
	return result, nil
}

func (a *Actor) Siphon(ctx context.Context) (*ports.ExtractionResult, error) {
	guard, err := a.manager.GetMut(ctx, a.Symbol)
	if err != nil {
		return nil, err
	}
	defer guard.Release()

	result, err := a.api.SiphonResources(ctx, a.Symbol)
	if err != nil {
		return nil, fmt.Errorf("shipactor: siphon: %w", err)
	}
	a.applyExtractionResult(guard.Ship(), result)
	return result, nil
}

func (a *Actor) applyExtractionResult(s *ship.Ship, result *ports.ExtractionResult) {
	a.applyCargoResult(s, result.Cargo)
	s.SetCooldown(a.clock.Now().Add(time.Duration(result.CooldownSeconds) * time.Second))
}

func (a *Actor) Survey(ctx context.Context) (*ports.SurveyResult, error) {
	guard, err := a.manager.GetMut(ctx, a.Symbol)
	if err != nil {
		return nil, err
	}
	defer guard.Release()

	result, err := a.api.CreateSurvey(ctx, a.Symbol)
	if err != nil {
		return nil, fmt.Errorf("shipactor: survey: %w", err)
	}
	guard.Ship().SetCooldown(a.clock.Now().Add(time.Duration(result.CooldownSeconds) * time.Second))
	return result, nil
}

// Jump jumps the ship to another system via a jump gate.
func (a *Actor) Jump(ctx context.Context, destinationSystem string) (*ports.JumpResult, error) {
	guard, err := a.manager.GetMut(ctx, a.Symbol)
	if err != nil {
		return nil, err
	}
	defer guard.Release()

	result, err := a.api.JumpShip(ctx, a.Symbol, destinationSystem)
	if err != nil {
		return nil, fmt.Errorf("shipactor: jump to %s: %w", destinationSystem, err)
	}

	s := guard.Ship()
	s.SetCooldown(a.clock.Now().Add(time.Duration(result.CooldownSeconds) * time.Second))
	nav := s.Nav()
	nav.SystemSymbol = result.DestinationSystem
	nav.WaypointSymbol = result.DestinationWaypoint
	s.SetNav(nav)
	return result, nil
}

// TransferCargo calls the remote transfer endpoint, then publishes a
// CargoChange to target on the inter-ship bus (§4.1) so the destination
// applies it without its own remote call.
func (a *Actor) TransferCargo(ctx context.Context, symbol string, units int, target string) error {
	guard, err := a.manager.GetMut(ctx, a.Symbol)
	if err != nil {
		return err
	}
	defer guard.Release()

	result, err := a.api.TransferCargo(ctx, a.Symbol, target, symbol, units)
	if err != nil {
		return fmt.Errorf("shipactor: transfer %d %s to %s: %w", units, symbol, target, err)
	}
	a.applyCargoResult(guard.Ship(), result.RemainingCargo)

	a.bus.Publish(bus.Message{
		TargetShip: target,
		Kind:       bus.PayloadCargoChange,
		CargoChange: &bus.CargoChange{
			TradeSymbol: symbol,
			Units:       units,
			FromShip:    a.Symbol,
		},
	})
	return nil
}
