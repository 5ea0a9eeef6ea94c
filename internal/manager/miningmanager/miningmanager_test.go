package miningmanager

import (
	"context"
	"testing"
	"time"

	"github.com/acdtunes/fleetctl/internal/domain/shared"
)

func runManager(t *testing.T, maxPerWaypoint int) (*Manager, *Messenger, func()) {
	t.Helper()
	m := New(nil, maxPerWaypoint)
	ctx, cancel := context.WithCancel(context.Background())
	go m.Run(ctx)
	return m, NewMessenger(m), cancel
}

func TestAssignWaypointRespectsMaxMinersPerWaypoint(t *testing.T) {
	m, msgr, cancel := runManager(t, 1)
	defer cancel()
	m.Seed("X1-AA", []*shared.Waypoint{{Symbol: "X1-AA-1", SystemSymbol: "X1-AA", Type: "ASTEROID_FIELD"}})

	first, err := msgr.AssignWaypoint(context.Background(), "SHIP-1", "X1-AA", "X1-AA-9", false)
	if err != nil {
		t.Fatalf("AssignWaypoint: %v", err)
	}
	if !first.Assigned || first.Waypoint != "X1-AA-1" {
		t.Fatalf("unexpected first assignment: %+v", first)
	}

	second, err := msgr.AssignWaypoint(context.Background(), "SHIP-2", "X1-AA", "X1-AA-9", false)
	if err != nil {
		t.Fatalf("AssignWaypoint: %v", err)
	}
	if second.Assigned {
		t.Fatalf("expected no assignment once the waypoint's cap of 1 is reached, got %+v", second)
	}
}

func TestAssignWaypointSeparatesSiphonFromExtraction(t *testing.T) {
	m, msgr, cancel := runManager(t, 5)
	defer cancel()
	m.Seed("X1-AA", []*shared.Waypoint{
		{Symbol: "X1-AA-1", SystemSymbol: "X1-AA", Type: "ASTEROID_FIELD"},
		{Symbol: "X1-AA-2", SystemSymbol: "X1-AA", Type: "GAS_GIANT"},
	})

	extractor, err := msgr.AssignWaypoint(context.Background(), "SHIP-1", "X1-AA", "X1-AA-9", false)
	if err != nil || !extractor.Assigned || extractor.Waypoint != "X1-AA-1" {
		t.Fatalf("expected the extractor to be assigned the asteroid field, got %+v err=%v", extractor, err)
	}

	siphon, err := msgr.AssignWaypoint(context.Background(), "SHIP-2", "X1-AA", "X1-AA-9", true)
	if err != nil || !siphon.Assigned || siphon.Waypoint != "X1-AA-2" {
		t.Fatalf("expected the siphon ship to be assigned the gas giant, got %+v err=%v", siphon, err)
	}
}

func TestUnassignWaypointFreesCapacity(t *testing.T) {
	m, msgr, cancel := runManager(t, 1)
	defer cancel()
	m.Seed("X1-AA", []*shared.Waypoint{{Symbol: "X1-AA-1", SystemSymbol: "X1-AA", Type: "ASTEROID_FIELD"}})

	if _, err := msgr.AssignWaypoint(context.Background(), "SHIP-1", "X1-AA", "X1-AA-9", false); err != nil {
		t.Fatalf("AssignWaypoint: %v", err)
	}
	msgr.UnassignWaypoint(context.Background(), "SHIP-1", "X1-AA-1")

	// Give the mailbox a beat to process the unassign before reassigning.
	time.Sleep(10 * time.Millisecond)

	again, err := msgr.AssignWaypoint(context.Background(), "SHIP-2", "X1-AA", "X1-AA-9", false)
	if err != nil {
		t.Fatalf("AssignWaypoint: %v", err)
	}
	if !again.Assigned {
		t.Fatal("expected the waypoint to be reassignable after unassign")
	}
}

func TestGetNextWaypointPicksHighestPressure(t *testing.T) {
	m, msgr, cancel := runManager(t, 5)
	defer cancel()
	m.Seed("X1-AA", []*shared.Waypoint{
		{Symbol: "X1-AA-1", SystemSymbol: "X1-AA", Type: "ASTEROID_FIELD"},
		{Symbol: "X1-AA-2", SystemSymbol: "X1-AA", Type: "ASTEROID_FIELD"},
	})

	msgr.ExtractionComplete(context.Background(), "SHIP-1", "X1-AA-1", 0.2)
	msgr.ExtractionComplete(context.Background(), "SHIP-2", "X1-AA-2", 0.9)
	time.Sleep(10 * time.Millisecond)

	next, err := msgr.GetNextWaypoint(context.Background(), "TRANSPORTER-1", "X1-AA")
	if err != nil {
		t.Fatalf("GetNextWaypoint: %v", err)
	}
	if !next.Assigned || next.Waypoint != "X1-AA-2" {
		t.Fatalf("expected the higher-pressure waypoint X1-AA-2, got %+v", next)
	}
}

func TestExtractorContactBrokersTransferToWaitingTransporter(t *testing.T) {
	_, msgr, cancel := runManager(t, 5)
	defer cancel()

	signalCh := make(chan *TransferResult, 1)
	go func() {
		sig, err := msgr.TransportationContact(context.Background(), "TRANSPORTER-1", "X1-AA-1")
		if err != nil {
			t.Errorf("TransportationContact: %v", err)
			return
		}
		close(sig.Ack)
		signalCh <- &TransferResult{TradeSymbol: sig.TradeSymbol, Units: sig.Units, TransporterShip: "TRANSPORTER-1"}
	}()

	// Give the transporter a moment to register its contact before the
	// extractor pushes cargo.
	time.Sleep(20 * time.Millisecond)

	result, err := msgr.ExtractorContact(context.Background(), "SHIP-1", "X1-AA-1", []CargoEntry{{TradeSymbol: "IRON_ORE", Units: 20}})
	if err != nil {
		t.Fatalf("ExtractorContact: %v", err)
	}
	if result == nil || result.TradeSymbol != "IRON_ORE" || result.Units != 20 || result.TransporterShip != "TRANSPORTER-1" {
		t.Fatalf("unexpected transfer result: %+v", result)
	}

	select {
	case <-signalCh:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the transporter goroutine to observe the signal")
	}
}

func TestGetShipsReportsExtractorNeedAtCapacityAndTransporterNeedWithoutOne(t *testing.T) {
	m, msgr, cancel := runManager(t, 1)
	defer cancel()
	m.Seed("X1-AA", []*shared.Waypoint{{Symbol: "X1-AA-1", SystemSymbol: "X1-AA", Type: "ASTEROID_FIELD"}})

	if _, err := msgr.AssignWaypoint(context.Background(), "SHIP-1", "X1-AA", "X1-AA-9", false); err != nil {
		t.Fatalf("AssignWaypoint: %v", err)
	}

	required, err := msgr.GetShips(context.Background())
	if err != nil {
		t.Fatalf("GetShips: %v", err)
	}

	var sawExtractor, sawTransporter bool
	for _, req := range required.Requests {
		if req.System != "X1-AA" {
			t.Fatalf("unexpected system in request: %+v", req)
		}
		switch req.Role {
		case "extractor":
			sawExtractor = true
		case "transporter":
			sawTransporter = true
		}
	}
	if !sawExtractor {
		t.Fatal("expected an extractor request once the waypoint hit its max_miners_per_waypoint cap")
	}
	if !sawTransporter {
		t.Fatal("expected a transporter request with an extractor assigned and nobody hauling")
	}
}

func TestGetShipsReportsNothingWithNoWaypointsTracked(t *testing.T) {
	_, msgr, cancel := runManager(t, 5)
	defer cancel()

	required, err := msgr.GetShips(context.Background())
	if err != nil {
		t.Fatalf("GetShips: %v", err)
	}
	if len(required.Requests) != 0 {
		t.Fatalf("expected no requests with no waypoints tracked, got %+v", required.Requests)
	}
}

func TestExtractorContactWithNoWaitingTransporterReturnsNil(t *testing.T) {
	_, msgr, cancel := runManager(t, 5)
	defer cancel()

	result, err := msgr.ExtractorContact(context.Background(), "SHIP-1", "X1-AA-1", []CargoEntry{{TradeSymbol: "IRON_ORE", Units: 10}})
	if err != nil {
		t.Fatalf("ExtractorContact: %v", err)
	}
	if result != nil {
		t.Fatalf("expected no pairing without a waiting transporter, got %+v", result)
	}
}
