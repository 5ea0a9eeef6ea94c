package pilot

import (
	"context"
	"strings"

	"github.com/acdtunes/fleetctl/internal/domain/ship"
	"github.com/acdtunes/fleetctl/internal/manager/miningmanager"
	"github.com/acdtunes/fleetctl/internal/shipactor"
)

// miningCapability is the inner Mining branch a ship's hardware qualifies
// it for (spec.md §4.8, "Mining (with inner Extractor/Transporter/
// Siphoner/Surveyor branch)"). Grounded on
// original_source/src/pilot/mining/mod.rs's ShipCapabilities/
// get_ship_assignment: extraction and siphoning both require a cargo
// hold, survey mounts always win over a bare cargo hold, and a ship with
// none of the three mining mounts but cargo space left becomes a
// transporter.
type miningCapability int

const (
	capUnusable miningCapability = iota
	capExtractor
	capSiphoner
	capSurveyor
	capTransporter
)

func hasMountPrefix(mounts []string, prefix string) bool {
	for _, m := range mounts {
		if strings.HasPrefix(m, prefix) {
			return true
		}
	}
	return false
}

func miningCapabilityFor(mounts []string, cargoCapacity int) miningCapability {
	canExtract := hasMountPrefix(mounts, "MOUNT_MINING_LASER")
	canSiphon := hasMountPrefix(mounts, "MOUNT_GAS_SIPHON")
	canSurvey := hasMountPrefix(mounts, "MOUNT_SURVEYOR")
	canCargo := cargoCapacity > 0

	switch {
	case canExtract && canCargo:
		return capExtractor
	case canSiphon && canCargo:
		return capSiphoner
	case canSurvey:
		return capSurveyor
	case canCargo:
		return capTransporter
	default:
		return capUnusable
	}
}

// runMiningCycle dispatches to the sub-cycle matching the ship's mining
// hardware (§4.8). Grounded on
// original_source/src/pilot/mining/mod.rs's execute_pilot_circle.
func (l *Loop) runMiningCycle(ctx context.Context) error {
	guard, err := l.deps.ShipManager.GetMut(ctx, l.shipSymbol)
	if err != nil {
		return err
	}
	mounts := guard.Ship().Mounts()
	cargoCapacity := guard.Ship().Cargo().Capacity
	guard.Release()

	switch miningCapabilityFor(mounts, cargoCapacity) {
	case capExtractor:
		return l.runExtractionCycle(ctx, false)
	case capSiphoner:
		return l.runExtractionCycle(ctx, true)
	case capSurveyor:
		return l.runSurveyorCycle(ctx)
	case capTransporter:
		return l.runTransporterCycle(ctx)
	default:
		l.setStatus(ctx, ship.MiningStatus(ship.MiningUnusable, "", 0))
		l.sleepJitter(ctx)
		return nil
	}
}

// runExtractionCycle implements both the Extractor and Siphoner branches,
// which differ only in which remote operation pulls resources (§4.8).
func (l *Loop) runExtractionCycle(ctx context.Context, siphon bool) error {
	system, waypoint, ok := l.currentSystemAndWaypoint(ctx)
	if !ok {
		return nil
	}

	assign, err := l.deps.Mining.AssignWaypoint(ctx, l.shipSymbol, system, waypoint, siphon)
	if err != nil {
		return err
	}
	role := ship.MiningExtractor
	if siphon {
		role = ship.MiningSiphoner
	}
	if !assign.Assigned {
		l.setStatus(ctx, ship.MiningStatus(ship.MiningIdle, "", 0))
		l.sleepJitter(ctx)
		return nil
	}
	l.setStatus(ctx, ship.MiningStatus(role, assign.Waypoint, 0))

	if err := l.actor.NavigateTo(ctx, assign.Waypoint, shipactor.FlowFlags{}); err != nil {
		l.deps.Mining.UnassignWaypoint(ctx, l.shipSymbol, assign.Waypoint)
		return err
	}
	l.deps.Mining.NotifyWaypoint(ctx, l.shipSymbol, assign.Waypoint)

	if err := l.actor.WaitForCooldown(ctx); err != nil {
		return err
	}

	var opErr error
	if siphon {
		_, opErr = l.actor.Siphon(ctx)
	} else {
		_, opErr = l.actor.Extract(ctx, nil)
	}
	if opErr != nil {
		l.deps.Mining.UnassignWaypoint(ctx, l.shipSymbol, assign.Waypoint)
		return opErr
	}

	guard, err := l.deps.ShipManager.GetMut(ctx, l.shipSymbol)
	if err != nil {
		return err
	}
	cargo := guard.Ship().Cargo()
	guard.Release()

	fillRatio := 0.0
	if cargo.Capacity > 0 {
		fillRatio = float64(cargo.Units) / float64(cargo.Capacity)
	}
	l.deps.Mining.ExtractionComplete(ctx, l.shipSymbol, assign.Waypoint, fillRatio)

	if fillRatio < 0.9 {
		return nil
	}

	entries := make([]miningmanager.CargoEntry, 0, len(cargo.Inventory))
	for _, item := range cargo.Inventory {
		if item.Symbol == "FUEL" || item.Units <= 0 {
			continue
		}
		entries = append(entries, miningmanager.CargoEntry{TradeSymbol: item.Symbol, Units: item.Units})
	}
	if len(entries) == 0 {
		return nil
	}

	result, err := l.deps.Mining.ExtractorContact(ctx, l.shipSymbol, assign.Waypoint, entries)
	if err != nil || result == nil {
		return nil
	}
	return l.actor.TransferCargo(ctx, result.TradeSymbol, result.Units, result.TransporterShip)
}

// runTransporterCycle ferries cargo away from whichever assigned mining
// waypoint is under the most pressure, waits for a paired extractor push
// over the bus, then sells off a full hold at the nearest marketplace
// (§4.8).
func (l *Loop) runTransporterCycle(ctx context.Context) error {
	system, waypoint, ok := l.currentSystemAndWaypoint(ctx)
	if !ok {
		return nil
	}

	assign, err := l.deps.Mining.GetNextWaypoint(ctx, l.shipSymbol, system)
	if err != nil {
		return err
	}
	if !assign.Assigned {
		l.setStatus(ctx, ship.MiningStatus(ship.MiningIdle, "", 0))
		l.sleepJitter(ctx)
		return nil
	}
	l.setStatus(ctx, ship.MiningStatus(ship.MiningTransporter, assign.Waypoint, 0))

	if err := l.actor.NavigateTo(ctx, assign.Waypoint, shipactor.FlowFlags{}); err != nil {
		return err
	}
	l.deps.Mining.TransportArrived(ctx, l.shipSymbol, assign.Waypoint)

	signal, err := l.deps.Mining.TransportationContact(ctx, l.shipSymbol, assign.Waypoint)
	if err != nil {
		return err
	}
	if signal == nil {
		return nil
	}
	signal.Ack <- struct{}{}

	guard, err := l.deps.ShipManager.GetMut(ctx, l.shipSymbol)
	if err != nil {
		return err
	}
	cargo := guard.Ship().Cargo()
	guard.Release()
	if cargo.Units < cargo.Capacity {
		return nil
	}

	dest, ok := l.actor.NearestMarketplace(system, waypoint)
	if !ok {
		return nil
	}
	if err := l.actor.NavigateTo(ctx, dest, shipactor.FlowFlags{OnlyMarkets: true}); err != nil {
		return err
	}
	for _, item := range cargo.Inventory {
		if item.Symbol == "FUEL" || item.Units <= 0 {
			continue
		}
		if _, err := l.actor.SellCargo(ctx, item.Symbol, item.Units, "mining-transport"); err != nil {
			return err
		}
	}
	l.deps.Mining.UnassignWaypoint(ctx, l.shipSymbol, assign.Waypoint)
	return nil
}

// runSurveyorCycle parks a surveying ship at its current waypoint and
// creates surveys on cooldown; it never navigates (§4.8, grounded on
// original_source/src/pilot/mining/surveyor.rs's simpler single-waypoint
// survey loop rather than its multi-ship ranking, since ranking requires
// fleet-wide visibility this cycle does not have).
func (l *Loop) runSurveyorCycle(ctx context.Context) error {
	_, waypoint, ok := l.currentSystemAndWaypoint(ctx)
	if !ok {
		return nil
	}
	l.setStatus(ctx, ship.MiningStatus(ship.MiningSurveyor, waypoint, 0))

	if err := l.actor.WaitForCooldown(ctx); err != nil {
		return err
	}
	if _, err := l.actor.Survey(ctx); err != nil {
		return err
	}
	return l.actor.WaitForCooldown(ctx)
}
