package navigation

import (
	"testing"

	"github.com/acdtunes/fleetctl/internal/domain/shared"
)

func lineGraph(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph("X1-AA")
	g.AddWaypoint(&shared.Waypoint{Symbol: "X1-AA-1", SystemSymbol: "X1-AA", X: 0, Y: 0, Traits: []string{"MARKETPLACE"}})
	g.AddWaypoint(&shared.Waypoint{Symbol: "X1-AA-2", SystemSymbol: "X1-AA", X: 10, Y: 0})
	g.AddWaypoint(&shared.Waypoint{Symbol: "X1-AA-3", SystemSymbol: "X1-AA", X: 20, Y: 0})
	return g
}

func TestPlanIntraSystemFindsDirectRoute(t *testing.T) {
	g := lineGraph(t)
	legs, err := PlanIntraSystem(g, "X1-AA-1", "X1-AA-3", 100, shared.AllFlightModes(), false)
	if err != nil {
		t.Fatalf("PlanIntraSystem: %v", err)
	}
	if len(legs) == 0 {
		t.Fatal("expected at least one leg")
	}
	if legs[len(legs)-1].End != "X1-AA-3" {
		t.Fatalf("last leg ends at %q, want X1-AA-3", legs[len(legs)-1].End)
	}
}

func TestPlanIntraSystemSameWaypointIsEmpty(t *testing.T) {
	g := lineGraph(t)
	legs, err := PlanIntraSystem(g, "X1-AA-1", "X1-AA-1", 100, shared.AllFlightModes(), false)
	if err != nil {
		t.Fatalf("PlanIntraSystem: %v", err)
	}
	if legs != nil {
		t.Fatalf("expected no legs for start == end, got %v", legs)
	}
}

func TestPlanIntraSystemUnknownWaypointIsNoRoute(t *testing.T) {
	g := lineGraph(t)
	if _, err := PlanIntraSystem(g, "X1-AA-1", "X1-ZZ-9", 100, shared.AllFlightModes(), false); err != ErrNoRoute {
		t.Fatalf("err = %v, want ErrNoRoute", err)
	}
}

func TestPlanIntraSystemNoFuelNoRoute(t *testing.T) {
	g := lineGraph(t)
	// Fuel capacity of 0 can't fly any positive-distance leg under any mode.
	if _, err := PlanIntraSystem(g, "X1-AA-1", "X1-AA-2", 0, []shared.FlightMode{shared.FlightModeCruise}, false); err != ErrNoRoute {
		t.Fatalf("err = %v, want ErrNoRoute", err)
	}
}

func TestPlanCachesIdenticalRequests(t *testing.T) {
	p := NewPlanner()
	p.LoadSystemGraph(lineGraph(t))

	req := PlanRequest{
		StartWaypoint: "X1-AA-1",
		EndWaypoint:   "X1-AA-3",
		FuelCapacity:  100,
		EngineSpeed:   10,
		Modes:         shared.AllFlightModes(),
	}

	first, err := p.Plan(req)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	second, err := p.Plan(req)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("expected identical leg counts across calls, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Leg.Start != second[i].Leg.Start || first[i].Leg.End != second[i].Leg.End {
			t.Fatalf("leg %d differs between calls: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestPlanIntraSystemPrefersCruiseOverDriftOnShortHop(t *testing.T) {
	g := NewGraph("X1-AA")
	g.AddWaypoint(&shared.Waypoint{Symbol: "X1-AA-1", SystemSymbol: "X1-AA", X: 0, Y: 0, Traits: []string{"MARKETPLACE"}})
	g.AddWaypoint(&shared.Waypoint{Symbol: "X1-AA-2", SystemSymbol: "X1-AA", X: 5, Y: 0})

	legs, err := PlanIntraSystem(g, "X1-AA-1", "X1-AA-2", 100, shared.AllFlightModes(), false)
	if err != nil {
		t.Fatalf("PlanIntraSystem: %v", err)
	}
	if len(legs) != 1 {
		t.Fatalf("expected a single direct leg, got %d", len(legs))
	}
	// d=5: Cruise costs 5·1.0=5, Burn costs 10·0.5=5, Drift costs 1·10.0=10.
	// Drift's flat fuel cost no longer wins just because it burns less fuel.
	if legs[0].Mode == shared.FlightModeDrift {
		t.Fatalf("expected Cruise or Burn to beat Drift's cost multiplier on a 5-unit hop, got %s", legs[0].Mode)
	}
}

func TestIsMarketplaceAndIsShipyard(t *testing.T) {
	g := NewGraph("X1-AA")
	g.AddWaypoint(&shared.Waypoint{Symbol: "X1-AA-1", Traits: []string{"MARKETPLACE", "SHIPYARD"}})
	g.AddWaypoint(&shared.Waypoint{Symbol: "X1-AA-2", Traits: nil})

	if !g.IsMarketplace("X1-AA-1") || !g.IsShipyard("X1-AA-1") {
		t.Fatal("expected X1-AA-1 to carry both traits")
	}
	if g.IsMarketplace("X1-AA-2") || g.IsShipyard("X1-AA-2") {
		t.Fatal("expected X1-AA-2 to carry neither trait")
	}
	if g.IsMarketplace("X1-AA-9") {
		t.Fatal("expected an unknown waypoint to report false, not panic")
	}
}

func TestSystemSymbolsListsLoadedGraphs(t *testing.T) {
	p := NewPlanner()
	p.LoadSystemGraph(NewGraph("X1-AA"))
	p.LoadSystemGraph(NewGraph("X1-BB"))

	systems := p.SystemSymbols()
	if len(systems) != 2 {
		t.Fatalf("SystemSymbols() = %v, want 2 entries", systems)
	}
}
