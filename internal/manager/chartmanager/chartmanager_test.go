package chartmanager

import (
	"context"
	"testing"

	"github.com/acdtunes/fleetctl/internal/domain/shared"
	"github.com/acdtunes/fleetctl/internal/navigation"
)

func lineGraph(t *testing.T) *navigation.Graph {
	t.Helper()
	g := navigation.NewGraph("X1-AA")
	g.AddWaypoint(&shared.Waypoint{Symbol: "X1-AA-1", SystemSymbol: "X1-AA", X: 0, Y: 0})
	g.AddWaypoint(&shared.Waypoint{Symbol: "X1-AA-2", SystemSymbol: "X1-AA", X: 10, Y: 0})
	g.AddWaypoint(&shared.Waypoint{Symbol: "X1-AA-3", SystemSymbol: "X1-AA", X: 20, Y: 0})
	return g
}

func runManager(t *testing.T, planner *navigation.Planner) (*Manager, *Messenger, func()) {
	t.Helper()
	m := New(planner)
	ctx, cancel := context.WithCancel(context.Background())
	go m.Run(ctx)
	return m, NewMessenger(m), cancel
}

func TestNextReturnsNearestPendingWaypoint(t *testing.T) {
	planner := navigation.NewPlanner()
	planner.LoadSystemGraph(lineGraph(t))

	m, msgr, cancel := runManager(t, planner)
	defer cancel()
	m.Seed("X1-AA", []string{"X1-AA-2", "X1-AA-3"})

	wp, err := msgr.Next(context.Background(), "SHIP-1", "X1-AA", "X1-AA-1")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if wp != "X1-AA-2" {
		t.Fatalf("wp = %q, want X1-AA-2 (nearer to X1-AA-1)", wp)
	}
}

func TestNextExhaustsThenReportsNoChartsInSystem(t *testing.T) {
	planner := navigation.NewPlanner()
	planner.LoadSystemGraph(lineGraph(t))

	m, msgr, cancel := runManager(t, planner)
	defer cancel()
	m.Seed("X1-AA", []string{"X1-AA-2"})

	wp, err := msgr.Next(context.Background(), "SHIP-1", "X1-AA", "X1-AA-1")
	if err != nil || wp != "X1-AA-2" {
		t.Fatalf("Next: wp=%q err=%v", wp, err)
	}

	if _, err := msgr.Next(context.Background(), "SHIP-2", "X1-AA", "X1-AA-1"); err != ErrNoChartsInSystem {
		t.Fatalf("err = %v, want ErrNoChartsInSystem once the only waypoint is in progress", err)
	}
}

func TestFailReturnsWaypointToPendingNeverHappensAutomatically(t *testing.T) {
	planner := navigation.NewPlanner()
	planner.LoadSystemGraph(lineGraph(t))

	m, msgr, cancel := runManager(t, planner)
	defer cancel()
	m.Seed("X1-AA", []string{"X1-AA-2"})

	wp, err := msgr.Next(context.Background(), "SHIP-1", "X1-AA", "X1-AA-1")
	if err != nil || wp != "X1-AA-2" {
		t.Fatalf("Next: wp=%q err=%v", wp, err)
	}

	msgr.Fail(context.Background(), "SHIP-1", "X1-AA-2")

	// A failed waypoint stays out of rotation; it is not pending again.
	if _, err := msgr.Next(context.Background(), "SHIP-2", "X1-AA", "X1-AA-1"); err != ErrNoChartsInSystem {
		t.Fatalf("err = %v, want ErrNoChartsInSystem after Fail", err)
	}
}

func TestGetShipsReportsSystemsWithPendingWaypoints(t *testing.T) {
	planner := navigation.NewPlanner()
	planner.LoadSystemGraph(lineGraph(t))

	m, msgr, cancel := runManager(t, planner)
	defer cancel()
	m.Seed("X1-AA", []string{"X1-AA-2"})

	required, err := msgr.GetShips(context.Background())
	if err != nil {
		t.Fatalf("GetShips: %v", err)
	}
	if len(required.Requests) != 1 || required.Requests[0].System != "X1-AA" || required.Requests[0].Role != "probe" {
		t.Fatalf("expected one probe request for X1-AA, got %+v", required.Requests)
	}

	if _, err := msgr.Next(context.Background(), "SHIP-1", "X1-AA", "X1-AA-1"); err != nil {
		t.Fatalf("Next: %v", err)
	}
	msgr.Success(context.Background(), "SHIP-1", "X1-AA-2")

	required, err = msgr.GetShips(context.Background())
	if err != nil {
		t.Fatalf("GetShips: %v", err)
	}
	if len(required.Requests) != 0 {
		t.Fatalf("expected no requests once every waypoint is charted, got %+v", required.Requests)
	}
}

func TestSuccessMarksWaypointDone(t *testing.T) {
	planner := navigation.NewPlanner()
	planner.LoadSystemGraph(lineGraph(t))

	m, msgr, cancel := runManager(t, planner)
	defer cancel()
	m.Seed("X1-AA", []string{"X1-AA-2"})

	wp, err := msgr.Next(context.Background(), "SHIP-1", "X1-AA", "X1-AA-1")
	if err != nil || wp != "X1-AA-2" {
		t.Fatalf("Next: wp=%q err=%v", wp, err)
	}
	msgr.Success(context.Background(), "SHIP-1", "X1-AA-2")

	if _, err := msgr.Next(context.Background(), "SHIP-2", "X1-AA", "X1-AA-1"); err != ErrNoChartsInSystem {
		t.Fatalf("err = %v, want ErrNoChartsInSystem once the sole waypoint is charted", err)
	}
}
