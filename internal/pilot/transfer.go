package pilot

import (
	"context"
	"fmt"

	"github.com/acdtunes/fleetctl/internal/domain/ship"
	"github.com/acdtunes/fleetctl/internal/manager/fleetmanager"
	"github.com/acdtunes/fleetctl/internal/shipactor"
)

// checkTransfer reports an unfinished ship-transfer task for this ship,
// if the fleet manager has one queued (spec.md §4.10's ship-transfer
// protocol, checked once per cycle ahead of the role dispatch per
// §4.11 step 2).
func (l *Loop) checkTransfer(ctx context.Context) *fleetmanager.ShipTransfer {
	t, err := l.deps.Fleet.GetTransfer(ctx, l.shipSymbol)
	if err != nil || t == nil || t.Finished {
		return nil
	}
	return t
}

// runTransferCycle enters Transfer status, navigates to the target
// system (the navigation planner's inter-system routing handles the
// jump-gate chain itself, §4.7), then switches the ship's persistent
// role to TargetRole and announces arrival (§4.10).
func (l *Loop) runTransferCycle(ctx context.Context, transfer *fleetmanager.ShipTransfer) error {
	l.setStatus(ctx, ship.TransferStatus(l.shipSymbol, transfer.TargetSystem, transfer.TargetRole))

	_, waypoint, ok := l.currentSystemAndWaypoint(ctx)
	if !ok {
		return fmt.Errorf("pilot: ship not found")
	}

	dest, ok := l.actor.NearestMarketplace(transfer.TargetSystem, waypoint)
	if !ok {
		return fmt.Errorf("pilot: no waypoint known in target system %s", transfer.TargetSystem)
	}

	if err := l.navigateWithJumpRetries(ctx, dest, transfer.TargetSystem); err != nil {
		return err
	}

	l.deps.Fleet.ShipArrived(ctx, l.shipSymbol)
	l.setRole(ctx, roleForKind(ship.RoleKind(transfer.TargetRole)))
	l.setStatus(ctx, ship.IdleStatus())
	return nil
}

// navigateWithJumpRetries drives a ship-transfer toward dest, re-planning
// the route from wherever the ship ended up after a failed jump instead
// of aborting the transfer outright. Gives up once the first attempt and
// Dependencies.MaxTransferJumpRetries retries have all failed (§4.10,
// "ship transfer jump loop").
func (l *Loop) navigateWithJumpRetries(ctx context.Context, dest, targetSystem string) error {
	maxRetries := l.deps.MaxTransferJumpRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = l.actor.NavigateTo(ctx, dest, shipactor.FlowFlags{})
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("pilot: transfer to %s: %w (after %d jump retries)", targetSystem, lastErr, maxRetries)
}

// roleForKind builds a fresh, payload-less PilotRole for a role name
// carried on the wire (ShipTransfer.TargetRole); any unrecognized value
// parks the ship in Manual rather than guessing (§8 boundary behavior).
func roleForKind(kind ship.RoleKind) ship.PilotRole {
	switch kind {
	case ship.RoleTrader:
		return ship.NewTraderRole("")
	case ship.RoleContract:
		return ship.NewContractRole("")
	case ship.RoleMining:
		return ship.NewMiningRole("")
	case ship.RoleScraper:
		return ship.NewScraperRole()
	case ship.RoleCharting:
		return ship.NewChartingRole()
	case ship.RoleConstruction:
		return ship.NewConstructionRole()
	default:
		return ship.NewManualRole()
	}
}
