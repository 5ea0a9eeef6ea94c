// Command fleetd is the fleet orchestration daemon: it wires together
// every long-lived actor named in spec.md §2's component table (ship
// manager, inter-ship bus, the six role managers plus the fleet
// manager, the navigation planner, and one pilot loop per ship) and
// runs them until an interrupt signal fires the shutdown sequence of
// §5 ("the task handler waits for every pilot task to complete after
// cancellation, then cancels the manager layer").
//
// Grounded on cmd/spacetraders-daemon/main.go's wiring shape (load
// config, open db, build repositories, build the API client, then
// construct and start the long-lived services in dependency order)
// and pidfile.go for single-instance enforcement.
package main

import (
	"context"

	"github.com/acdtunes/fleetctl/internal/domain/ports"
	"github.com/acdtunes/fleetctl/internal/domain/shared"
	"github.com/acdtunes/fleetctl/internal/domain/ship"
	"github.com/acdtunes/fleetctl/internal/navigation"
)

// buildShip maps the remote API's wire shape into the domain Ship
// aggregate (spec.md §3) with the given pilot role; the caller resolves
// that role with loadPersistedRole, which defaults an unset one to Manual.
func buildShip(data *ports.ShipData, role ship.PilotRole) (*ship.Ship, error) {
	inventory := make([]*shared.CargoItem, 0, len(data.CargoInventory))
	for _, item := range data.CargoInventory {
		it := item
		inventory = append(inventory, &it)
	}

	var route *ship.Route
	navStatus := ship.NavStatus(data.NavStatus)
	if navStatus == ship.NavInTransit {
		route = &ship.Route{
			Origin:        data.RouteOrigin,
			Destination:   data.RouteDestination,
			DepartureTime: data.DepartureTime,
			ArrivalTime:   data.ArrivalTime,
		}
	}

	nav := ship.NavState{
		SystemSymbol:   data.SystemSymbol,
		WaypointSymbol: data.WaypointSymbol,
		Status:         navStatus,
		FlightMode:     ship.FlightModeName(data.FlightMode),
		Route:          route,
	}

	cargo := shared.Cargo{Capacity: data.CargoCapacity, Units: data.CargoUnits, Inventory: inventory}
	fuel := shared.Fuel{Current: data.FuelCurrent, Capacity: data.FuelCapacity}

	s, err := ship.New(data.Symbol, data.EngineSpeed, data.RegistrationRole, nav, cargo, fuel, data.Modules, data.Mounts, role)
	if err != nil {
		return nil, err
	}
	if data.CooldownExpires != nil {
		s.SetCooldown(*data.CooldownExpires)
	}
	return s, nil
}

// loadPersistedRole resolves a ship's last-committed pilot role from the
// store (§3 "Role is persisted; changes are committed before the pilot
// loop acts on them"), defaulting to Manual for a ship with no row yet.
func loadPersistedRole(rows map[string]ports.ShipRoleRow, symbol string) ship.PilotRole {
	row, ok := rows[symbol]
	if !ok || !row.Active {
		return ship.NewManualRole()
	}
	switch ship.RoleKind(row.RoleKind) {
	case ship.RoleTrader:
		return ship.NewTraderRole(row.RoleData)
	case ship.RoleContract:
		return ship.NewContractRole(row.RoleData)
	case ship.RoleMining:
		return ship.NewMiningRole(row.RoleData)
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

// loadGraphs rebuilds the planner's per-system waypoint graphs and the
// galaxy jump graph from the store (§5 "In-process caches... are
// derived and rebuilt from the store at startup") rather than from a
// live API crawl, which belongs to the out-of-scope scraper pipeline.
func loadGraphs(ctx context.Context, store ports.Store, planner *navigation.Planner) error {
	waypointRows, err := store.Waypoints().GetAll(ctx)
	if err != nil {
		return err
	}

	graphs := make(map[string]*navigation.Graph)
	for _, row := range waypointRows {
		g, ok := graphs[row.SystemSymbol]
		if !ok {
			g = navigation.NewGraph(row.SystemSymbol)
			graphs[row.SystemSymbol] = g
		}
		g.AddWaypoint(&shared.Waypoint{
			Symbol:       row.Symbol,
			SystemSymbol: row.SystemSymbol,
			X:            float64(row.X),
			Y:            float64(row.Y),
			Type:         row.Type,
			Traits:       row.Traits,
		})
	}
	for _, g := range graphs {
		planner.LoadSystemGraph(g)
	}

	connRows, err := store.JumpConnections().GetAll(ctx)
	if err != nil {
		return err
	}
	connections := make([]navigation.JumpConnection, 0, len(connRows))
	for _, row := range connRows {
		connections = append(connections, navigation.JumpConnection{
			A: row.A, B: row.B, Distance: row.Distance,
			AUnderConstruction: row.AUnderConstruction,
			BUnderConstruction: row.BUnderConstruction,
		})
	}
	planner.LoadJumpGraph(connections)
	return nil
}

// shipRoleRowMap indexes a store's persisted roles by ship symbol for
// loadPersistedRole's lookup during fleet bootstrap.
func shipRoleRowMap(ctx context.Context, store ports.Store) (map[string]ports.ShipRoleRow, error) {
	rows, err := store.ShipRoles().GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]ports.ShipRoleRow, len(rows))
	for _, r := range rows {
		out[r.ShipSymbol] = r
	}
	return out, nil
}
